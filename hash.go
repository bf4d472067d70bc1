package bindle

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"syscall"

	"github.com/zeebo/blake3"
)

// DefaultAlgo is the hash algorithm used when a caller doesn't
// specify one.
const DefaultAlgo = "sha256"

func newDigest(algo string) (h hash.Hash, err error) {
	switch algo {
	case "sha256":
		h = sha256.New()
	case "sha512":
		h = sha512.New()
	case "blake3":
		h = blake3.New()
	default:
		err = fmt.Errorf("%w: %s", syscall.ENOSYS, algo)
	}
	return
}

// Hash returns the binary digest of buf under the named algorithm.
func Hash(algo string, buf []byte) (bin []byte, err error) {
	h, err := newDigest(algo)
	if err != nil {
		return
	}
	h.Write(buf)
	return h.Sum(nil), nil
}

func bin2hex(buf []byte) string {
	return hex.EncodeToString(buf)
}

// hashFile streams the file at path through the named algorithm and
// returns the hex digest.
func hashFile(algo string, path string) (hexhash string, err error) {
	h, err := newDigest(algo)
	if err != nil {
		return
	}
	fh, err := os.Open(path)
	if err != nil {
		return
	}
	defer fh.Close()
	_, err = io.Copy(h, fh)
	if err != nil {
		return
	}
	return bin2hex(h.Sum(nil)), nil
}
