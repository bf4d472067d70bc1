package bindle

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/renameio"
	. "github.com/stevegt/goadapt"
)

// Commit is an immutable record of one snapshot: a root tree, zero or
// more parent commit hashes (more than one denotes a merge), and
// metadata.  A commit is content-addressed by its own hash, which is
// computed from the commit's canonical serialization and then
// embedded in it.
type Commit struct {
	Hash     string
	Message  string
	Date     time.Time
	Parent   []string
	Root     *TreeDir
	Tags     []string
	UserData map[string]interface{}
}

// commitRecord is the persisted form.  Field order here is the
// on-disk field order: hash, message, date, parent, root, then tags
// and userData last, both omitted entirely when empty.
type commitRecord struct {
	Hash     string                 `json:"hash"`
	Message  string                 `json:"message"`
	Date     int64                  `json:"date"`
	Parent   []string               `json:"parent"`
	Root     nodeRecord             `json:"root"`
	Tags     []string               `json:"tags,omitempty"`
	UserData map[string]interface{} `json:"userData,omitempty"`
}

// commitPreimage is the canonical serialization without the hash
// field.  Hashing this form and then emitting commitRecord with the
// result keeps the hash out of its own input.
type commitPreimage struct {
	Message  string                 `json:"message"`
	Date     int64                  `json:"date"`
	Parent   []string               `json:"parent"`
	Root     nodeRecord             `json:"root"`
	Tags     []string               `json:"tags,omitempty"`
	UserData map[string]interface{} `json:"userData,omitempty"`
}

func (c *Commit) preimage() commitPreimage {
	parent := c.Parent
	if parent == nil {
		// a root commit persists an empty parent array, not a missing one
		parent = []string{}
	}
	return commitPreimage{
		Message:  c.Message,
		Date:     c.Date.UnixMilli(),
		Parent:   parent,
		Root:     c.Root.record(),
		Tags:     c.Tags,
		UserData: c.UserData,
	}
}

// ComputeHash returns the commit's content hash under the named
// algorithm.  The serialization is deterministic (struct fields in
// declaration order, map keys sorted), so two commits with identical
// logical content hash identically.
func (c *Commit) ComputeHash(algo string) (hexhash string, err error) {
	pre := c.preimage()
	buf, err := json.Marshal(&pre)
	if err != nil {
		return
	}
	bin, err := Hash(algo, buf)
	if err != nil {
		return
	}
	return bin2hex(bin), nil
}

// WriteCommit serializes the commit to its own file, named by its
// hash, inside the commit store.  The hash is recomputed from content
// and set on the commit before writing.  A name collision implies
// identical content, so overwriting is harmless.
func (db *Odb) WriteCommit(c *Commit) (err error) {
	defer Return(&err)

	Assert(c.Root != nil, "commit has no root tree")

	hexhash, err := c.ComputeHash(db.Hasher.Algo())
	Ck(err)
	c.Hash = hexhash

	pre := c.preimage()
	rec := commitRecord{
		Hash:     c.Hash,
		Message:  pre.Message,
		Date:     pre.Date,
		Parent:   pre.Parent,
		Root:     pre.Root,
		Tags:     pre.Tags,
		UserData: pre.UserData,
	}
	buf, err := json.Marshal(&rec)
	Ck(err)

	fn := filepath.Join(db.Repo.MetaDir, versionsDir, c.Hash)
	err = renameio.WriteFile(fn, buf, 0644)
	Ck(err)
	return
}

// ReadCommits enumerates every file in the commit store and
// reconstructs the commits, tree graphs included.  No ordering is
// guaranteed; callers impose their own.
func (db *Odb) ReadCommits() (commits []*Commit, err error) {
	dir := filepath.Join(db.Repo.MetaDir, versionsDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, ent := range entries {
		if ent.IsDir() {
			continue
		}
		fn := filepath.Join(dir, ent.Name())
		c, err := readCommitFile(fn)
		if err != nil {
			return nil, err
		}
		commits = append(commits, c)
	}
	return
}

func readCommitFile(fn string) (c *Commit, err error) {
	buf, err := os.ReadFile(fn)
	if err != nil {
		return
	}
	var rec commitRecord
	err = json.Unmarshal(buf, &rec)
	if err != nil {
		return nil, &MalformedError{Path: fn, Err: err}
	}
	root, ok := nodeFromRecord(&rec.Root, nil).(*TreeDir)
	if !ok {
		return nil, &MalformedError{Path: fn, Err: errNoRootDir}
	}
	c = &Commit{
		Hash:     rec.Hash,
		Message:  rec.Message,
		Date:     time.UnixMilli(rec.Date),
		Parent:   rec.Parent,
		Root:     root,
		Tags:     rec.Tags,
		UserData: rec.UserData,
	}
	return
}
