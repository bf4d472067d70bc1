package bindle

import "os"

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func mkdir(dir string) error {
	return os.MkdirAll(dir, 0755)
}
