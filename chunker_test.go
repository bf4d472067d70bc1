package bindle

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"
)

func mkrandfile(t *testing.T, size int) (fn string, content []byte) {
	t.Helper()
	rnd := rand.New(rand.NewSource(42))
	content = make([]byte, size)
	rnd.Read(content)
	fn = filepath.Join(t.TempDir(), "randfile")
	err := os.WriteFile(fn, content, 0644)
	if err != nil {
		t.Fatal(err)
	}
	return
}

func TestWholeFileHasher(t *testing.T) {
	fn, content := mkrandfile(t, 4096)
	h := &WholeFileHasher{}
	fh, err := h.HashFile(fn)
	if err != nil {
		t.Fatal(err)
	}
	binhash, err := Hash("sha256", content)
	if err != nil {
		t.Fatal(err)
	}
	tassert(t, fh.Hash == bin2hex(binhash), "expected %q got %q", bin2hex(binhash), fh.Hash)
	tassert(t, fh.Algo == "sha256", "expected sha256, got %q", fh.Algo)
	tassert(t, len(fh.Blocks) == 0, "expected no blocks, got %d", len(fh.Blocks))
}

func TestChunkHasherSmall(t *testing.T) {
	// a file below the minimum chunk size yields exactly one block
	// covering the whole file, so the block hash equals the file hash
	fn, content := mkrandfile(t, 4096)
	h := &ChunkHasher{}
	fh, err := h.HashFile(fn)
	if err != nil {
		t.Fatal(err)
	}
	tassert(t, len(fh.Blocks) == 1, "expected 1 block, got %d", len(fh.Blocks))
	blk := fh.Blocks[0]
	tassert(t, blk.Start == 0, "expected start 0, got %d", blk.Start)
	tassert(t, blk.End == uint64(len(content)), "expected end %d, got %d", len(content), blk.End)
	tassert(t, blk.Hash == fh.Hash, "single-chunk block hash %q != file hash %q", blk.Hash, fh.Hash)
}

func TestChunkHasherMulti(t *testing.T) {
	// larger than the max chunk size, so the chunker must cut at
	// least once
	size := defMaxSize + miB
	fn, content := mkrandfile(t, size)
	h := &ChunkHasher{}
	fh, err := h.HashFile(fn)
	if err != nil {
		t.Fatal(err)
	}
	tassert(t, len(fh.Blocks) >= 2, "expected multiple blocks, got %d", len(fh.Blocks))

	// blocks are contiguous from zero and cover the file exactly
	var off uint64
	for i, blk := range fh.Blocks {
		tassert(t, blk.Start == off, "block %d: expected start %d, got %d", i, off, blk.Start)
		tassert(t, blk.End > blk.Start, "block %d: empty range", i)
		binhash, err := Hash(fh.Algo, content[blk.Start:blk.End])
		if err != nil {
			t.Fatal(err)
		}
		tassert(t, blk.Hash == bin2hex(binhash), "block %d: hash mismatch", i)
		off = blk.End
	}
	tassert(t, off == uint64(size), "blocks cover %d of %d bytes", off, size)

	// whole-file hash is unaffected by chunking
	binhash, err := Hash(fh.Algo, content)
	if err != nil {
		t.Fatal(err)
	}
	tassert(t, fh.Hash == bin2hex(binhash), "file hash mismatch")
}

func TestChunkHasherDeterministic(t *testing.T) {
	fn, _ := mkrandfile(t, defMaxSize+miB)
	h := &ChunkHasher{}
	first, err := h.HashFile(fn)
	if err != nil {
		t.Fatal(err)
	}
	second, err := h.HashFile(fn)
	if err != nil {
		t.Fatal(err)
	}
	tassert(t, first.Hash == second.Hash, "file hash not deterministic")
	tassert(t, len(first.Blocks) == len(second.Blocks), "block count not deterministic")
	for i := range first.Blocks {
		tassert(t, first.Blocks[i] == second.Blocks[i], "block %d not deterministic", i)
	}
}
