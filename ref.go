package bindle

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio"
	log "github.com/sirupsen/logrus"
)

// HeadName is the literal reference name denoting detached HEAD.
const HeadName = "HEAD"

// Reference is a mutable named pointer to a commit: a branch, or the
// detached-HEAD pseudo-reference.  Start optionally records the
// commit the branch forked from; it is used for history display, not
// for resolution.
type Reference struct {
	Name     string
	Hash     string
	Start    string
	UserData map[string]interface{}
}

// Detached reports whether the reference is the detached-HEAD
// pseudo-reference.
func (ref *Reference) Detached() bool {
	return ref.Name == HeadName
}

// refRecord is the persisted form: start omitted when absent,
// userData always present, defaulting to an empty object.
type refRecord struct {
	Hash     string                 `json:"hash"`
	Start    string                 `json:"start,omitempty"`
	UserData map[string]interface{} `json:"userData"`
}

// ReadReferences enumerates every file in the reference store and
// returns a Reference per file, keyed by the file's base name.  A
// file that fails to parse is skipped with a warning rather than
// aborting the whole read.
func (db *Odb) ReadReferences() (refs []*Reference, err error) {
	dir := filepath.Join(db.Repo.MetaDir, refsDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, ent := range entries {
		if ent.IsDir() {
			continue
		}
		fn := filepath.Join(dir, ent.Name())
		buf, err := os.ReadFile(fn)
		if err != nil {
			log.Warnf("skipping unreadable reference %s: %v", fn, err)
			continue
		}
		var rec refRecord
		err = json.Unmarshal(buf, &rec)
		if err != nil {
			log.Warnf("skipping malformed reference %s: %v", fn, err)
			continue
		}
		if rec.UserData == nil {
			rec.UserData = map[string]interface{}{}
		}
		refs = append(refs, &Reference{
			Name:     ent.Name(),
			Hash:     rec.Hash,
			Start:    rec.Start,
			UserData: rec.UserData,
		})
	}
	return
}

// WriteReference persists a branch reference, overwriting any prior
// content.  The detached-HEAD pseudo-reference is refused with a
// warning; HEAD is written only through WriteHead.  A reference with
// no target hash fails with MissingHashError.
func (db *Odb) WriteReference(ref *Reference) (err error) {
	if ref.Detached() {
		log.Warnf("refusing to write detached HEAD as a branch reference")
		return nil
	}
	if ref.Hash == "" {
		return &MissingHashError{Name: ref.Name}
	}
	rec := refRecord{Hash: ref.Hash, Start: ref.Start, UserData: ref.UserData}
	if rec.UserData == nil {
		rec.UserData = map[string]interface{}{}
	}
	buf, err := json.Marshal(&rec)
	if err != nil {
		return
	}
	fn := filepath.Join(db.Repo.MetaDir, refsDir, ref.Name)
	return renameio.WriteFile(fn, buf, 0644)
}

// DeleteReference removes the reference's file from the reference
// store.  It fails with NotFoundError if the file is absent.
func (db *Odb) DeleteReference(ref *Reference) (err error) {
	fn := filepath.Join(db.Repo.MetaDir, refsDir, ref.Name)
	err = os.Remove(fn)
	if os.IsNotExist(err) {
		return &NotFoundError{Kind: "reference", Name: ref.Name}
	}
	return
}

// WriteHead writes the HEAD file at the metadata root: the
// reference's name when HEAD is symbolic (pointing at a branch), or
// its target hash when detached.
func (db *Odb) WriteHead(ref *Reference) (err error) {
	txt := ref.Name
	if ref.Detached() {
		txt = ref.Hash
	}
	fn := filepath.Join(db.Repo.MetaDir, headFile)
	return renameio.WriteFile(fn, []byte(txt+"\n"), 0644)
}

// ReadHead returns the trimmed contents of the HEAD file: a branch
// name or a commit hash.  A missing HEAD is a valid state (a freshly
// created, commit-less store) and returns an empty string.
func (db *Odb) ReadHead() (head string, err error) {
	fn := filepath.Join(db.Repo.MetaDir, headFile)
	buf, err := os.ReadFile(fn)
	if os.IsNotExist(err) {
		log.Debugf("no HEAD in %s", db.Repo.MetaDir)
		return "", nil
	}
	if err != nil {
		return
	}
	return strings.TrimSpace(string(buf)), nil
}
