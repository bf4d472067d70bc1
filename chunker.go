package bindle

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/restic/chunker"
	. "github.com/stevegt/goadapt"
)

const (
	kiB = 1024
	miB = 1024 * kiB

	// defMinSize is the default minimal size of a chunk.
	defMinSize = 512 * kiB
	// defMaxSize is the default maximal size of a chunk.
	defMaxSize = 8 * miB
)

// chunkPol is the rabin polynomial used for chunk boundaries.  It is
// a fixed constant rather than a per-store random polynomial: block
// hashes appear in hblock sidecars, and a given file must produce the
// same block records in every store for sub-file dedup to line up
// across repositories.
const chunkPol = chunker.Pol(0x3DA3358B4DC173)

// HashBlock describes one byte-range chunk of a file and its hash.
// End is exclusive.
type HashBlock struct {
	Start uint64
	End   uint64
	Hash  string
}

// FileHash is the result of hashing one file: the whole-file content
// hash plus zero or more chunk records.
type FileHash struct {
	Algo   string
	Hash   string
	Blocks []HashBlock
}

// Hasher produces content hashes for files entering the store.
// Implementations must be deterministic: the same file bytes always
// yield the same hash and the same block records.
type Hasher interface {
	HashFile(path string) (*FileHash, error)
	Algo() string
}

// WholeFileHasher hashes the entire file and produces no block
// records, for callers that skip sub-file dedup.
type WholeFileHasher struct {
	HashAlgo string
}

func (h *WholeFileHasher) Algo() string {
	if h.HashAlgo == "" {
		return DefaultAlgo
	}
	return h.HashAlgo
}

func (h *WholeFileHasher) HashFile(path string) (fh *FileHash, err error) {
	algo := h.Algo()
	hexhash, err := hashFile(algo, path)
	if err != nil {
		return
	}
	return &FileHash{Algo: algo, Hash: hexhash}, nil
}

// ChunkHasher hashes the entire file and also cuts it into
// rabin-boundary chunks, producing one HashBlock per chunk.  It
// lightly wraps restic's chunker on the slight chance that we might
// need to replace it someday.
type ChunkHasher struct {
	HashAlgo string
	MinSize  uint
	MaxSize  uint
}

func (c *ChunkHasher) Algo() string {
	if c.HashAlgo == "" {
		return DefaultAlgo
	}
	return c.HashAlgo
}

func (c *ChunkHasher) HashFile(path string) (fh *FileHash, err error) {
	defer Return(&err)

	algo := c.Algo()
	min := c.MinSize
	if min == 0 {
		min = defMinSize
	}
	max := c.MaxSize
	if max == 0 {
		max = defMaxSize
	}

	f, err := os.Open(path)
	Ck(err)
	defer f.Close()

	// the whole-file digest taps the same read stream as the chunker
	whole, err := newDigest(algo)
	Ck(err)
	ch := chunker.NewWithBoundaries(io.TeeReader(f, whole), chunkPol, min, max)

	buf := make([]byte, max+1)
	var blocks []HashBlock
	for {
		chunk, err := ch.Next(buf)
		if errors.Cause(err) == io.EOF {
			break
		}
		Ck(err)
		bin, err := Hash(algo, chunk.Data)
		Ck(err)
		blocks = append(blocks, HashBlock{
			Start: uint64(chunk.Start),
			End:   uint64(chunk.Start) + uint64(chunk.Length),
			Hash:  bin2hex(bin),
		})
	}

	return &FileHash{Algo: algo, Hash: bin2hex(whole.Sum(nil)), Blocks: blocks}, nil
}
