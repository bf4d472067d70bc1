package bindle

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/renameio"
	"github.com/klauspost/compress/zstd"
	log "github.com/sirupsen/logrus"
	. "github.com/stevegt/goadapt"
)

// WriteObject ingests the file at src into the object store and
// returns its content hash record along with src's path relative to
// the working tree root.
//
// The happens-before order within one call is copy, hash,
// existence-check, move/compress, sidecar-write.  Copying before
// hashing means a concurrent mutation of src between the two steps
// cannot desynchronize the staged bytes from their recorded hash; the
// hash reflects src at hash-time.  The existence check makes the
// common case a pure dedup: identical content is stored exactly once.
// Two racing writers of the same content may both reach the transfer
// step; that is harmless because their staged bytes are identical and
// the transfer has overwrite semantics.
func (db *Odb) WriteObject(src string) (fh *FileHash, rel string, err error) {
	defer Return(&err)

	tmp := db.tmpPath()
	err = db.Copy(src, tmp)
	Ck(err)
	// on every path but the direct rename the staged copy is scratch
	moved := false
	defer func() {
		if !moved {
			os.Remove(tmp)
		}
	}()

	fh, err = db.Hasher.HashFile(src)
	Ck(err)

	abs, err := filepath.Abs(src)
	Ck(err)
	rel, err = filepath.Rel(db.Repo.WorkDir, abs)
	Ck(err)

	dst := db.ObjectPath(fh.Hash)
	if exists(dst) {
		// dedup: the store already holds this content
		log.Debugf("dedup %s for %s", fh.Hash, rel)
		return
	}

	err = mkdir(filepath.Dir(dst))
	Ck(err)
	if db.Repo.Compress {
		err = compressFile(tmp, dst)
		Ck(err)
	} else {
		err = os.Rename(tmp, dst)
		Ck(err)
		moved = true
	}

	if len(fh.Blocks) > 0 {
		err = writeHashBlocks(dst+hblockSuffix, fh.Blocks)
		Ck(err)
	}
	return
}

// ReadObject copies the stored blob for hash to dst byte for byte,
// decompressing if the repository stores blobs compressed.  It fails
// with NotFoundError if no object exists at the hash's sharded path,
// and in that case never creates dst.
func (db *Odb) ReadObject(hash, dst string) (err error) {
	if len(hash) < 4 {
		return &NotFoundError{Kind: "object", Name: hash}
	}
	src := db.ObjectPath(hash)
	if !exists(src) {
		return &NotFoundError{Kind: "object", Name: hash}
	}
	if db.Repo.Compress {
		return decompressFile(src, dst)
	}
	return db.Copy(src, dst)
}

// HasObject reports whether the store holds a blob for hash.
func (db *Odb) HasObject(hash string) bool {
	return len(hash) >= 4 && exists(db.ObjectPath(hash))
}

// ReadHashBlocks parses a stored object's hblock sidecar back into
// block records.  A missing sidecar is not an error: the hasher may
// not have produced any blocks for the object.
func (db *Odb) ReadHashBlocks(hash string) (blocks []HashBlock, err error) {
	if len(hash) < 4 {
		return nil, &NotFoundError{Kind: "object", Name: hash}
	}
	fn := db.hblockPath(hash)
	fh, err := os.Open(fn)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return
	}
	defer fh.Close()

	scanner := bufio.NewScanner(fh)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		blk, err := parseHashBlock(line)
		if err != nil {
			return nil, &MalformedError{Path: fn, Err: err}
		}
		blocks = append(blocks, blk)
	}
	err = scanner.Err()
	return
}

// VerifyObject recomputes the stored blob's content hash and checks
// it against its address.  If an hblock sidecar exists, the block
// ranges must be contiguous from zero and cover the blob exactly.
func (db *Odb) VerifyObject(hash string) (ok bool, err error) {
	defer Return(&err)

	if len(hash) < 4 {
		return false, &NotFoundError{Kind: "object", Name: hash}
	}
	src := db.ObjectPath(hash)
	if !exists(src) {
		return false, &NotFoundError{Kind: "object", Name: hash}
	}

	fh, err := os.Open(src)
	Ck(err)
	defer fh.Close()

	var rd io.Reader = fh
	if db.Repo.Compress {
		dec, err := zstd.NewReader(fh)
		Ck(err)
		defer dec.Close()
		rd = dec
	}

	digest, err := newDigest(db.Hasher.Algo())
	Ck(err)
	size, err := io.Copy(digest, rd)
	Ck(err)
	if bin2hex(digest.Sum(nil)) != hash {
		return false, nil
	}

	blocks, err := db.ReadHashBlocks(hash)
	Ck(err)
	var off uint64
	for _, blk := range blocks {
		if blk.Start != off || blk.End < blk.Start {
			return false, nil
		}
		off = blk.End
	}
	if len(blocks) > 0 && off != uint64(size) {
		return false, nil
	}
	return true, nil
}

// writeHashBlocks persists block records, one `start;end;hash;` line
// per block.
func writeHashBlocks(fn string, blocks []HashBlock) error {
	var buf bytes.Buffer
	for _, blk := range blocks {
		fmt.Fprintf(&buf, "%d;%d;%s;\n", blk.Start, blk.End, blk.Hash)
	}
	return renameio.WriteFile(fn, buf.Bytes(), 0644)
}

func parseHashBlock(line string) (blk HashBlock, err error) {
	parts := strings.Split(line, ";")
	if len(parts) < 3 {
		err = fmt.Errorf("expected start;end;hash; got %q", line)
		return
	}
	blk.Start, err = strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return
	}
	blk.End, err = strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return
	}
	blk.Hash = parts[2]
	if blk.Hash == "" {
		err = fmt.Errorf("empty hash in %q", line)
	}
	return
}

// compressFile zstd-compresses src into dst.  The write lands via a
// temp file in dst's directory so the object only becomes visible
// whole.
func compressFile(src, dst string) (err error) {
	defer Return(&err)

	in, err := os.Open(src)
	Ck(err)
	defer in.Close()

	t, err := renameio.TempFile("", dst)
	Ck(err)
	defer t.Cleanup()

	enc, err := zstd.NewWriter(t)
	Ck(err)
	_, err = io.Copy(enc, in)
	if err != nil {
		enc.Close()
		return
	}
	err = enc.Close()
	Ck(err)
	return t.CloseAtomicallyReplace()
}

// decompressFile zstd-decompresses src into dst, also via a temp file
// so a failed read never leaves a partial dst behind.
func decompressFile(src, dst string) (err error) {
	defer Return(&err)

	in, err := os.Open(src)
	Ck(err)
	defer in.Close()

	dec, err := zstd.NewReader(in)
	Ck(err)
	defer dec.Close()

	t, err := renameio.TempFile("", dst)
	Ck(err)
	defer t.Cleanup()

	_, err = io.Copy(t, dec)
	Ck(err)
	return t.CloseAtomicallyReplace()
}
