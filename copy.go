package bindle

import "github.com/pkg/fileutils"

// CopyFunc copies a file's bytes from src to dst.  It is the seam
// through which the Odb ingests new objects and materializes stored
// objects back into a working tree.
type CopyFunc func(src, dst string) error

// CopyFile is the default copy primitive.  Note that
// fileutils.CopyFile takes its arguments destination-first.
func CopyFile(src, dst string) error {
	return fileutils.CopyFile(dst, src)
}
