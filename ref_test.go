package bindle

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func findRef(t *testing.T, db *Odb, name string) *Reference {
	t.Helper()
	refs, err := db.ReadReferences()
	if err != nil {
		t.Fatal(err)
	}
	for _, ref := range refs {
		if ref.Name == name {
			return ref
		}
	}
	t.Fatalf("reference %s not found among %d refs", name, len(refs))
	return nil
}

func TestReferenceRoundTrip(t *testing.T) {
	db := newdb(t)
	ref := &Reference{
		Name:     "main",
		Hash:     "abc123",
		Start:    "def456",
		UserData: map[string]interface{}{"str_key": "str_value", "int_key": 3},
	}
	err := db.WriteReference(ref)
	if err != nil {
		t.Fatal(err)
	}

	got := findRef(t, db, "main")
	tassert(t, got.Hash == "abc123", "hash: got %q", got.Hash)
	tassert(t, got.Start == "def456", "start: got %q", got.Start)
	tassert(t, got.UserData["str_key"] == "str_value", "str_key: got %v", got.UserData["str_key"])
	tassert(t, got.UserData["int_key"] == float64(3), "int_key: got %v (%T)",
		got.UserData["int_key"], got.UserData["int_key"])
}

func TestReferenceDefaults(t *testing.T) {
	db := newdb(t)
	err := db.WriteReference(&Reference{Name: "bare", Hash: "abc123"})
	if err != nil {
		t.Fatal(err)
	}

	// start is omitted when absent; userData defaults to an empty
	// object rather than being omitted
	buf, err := os.ReadFile(filepath.Join(db.Repo.MetaDir, "refs", "bare"))
	if err != nil {
		t.Fatal(err)
	}
	txt := string(buf)
	tassert(t, !strings.Contains(txt, `"start"`), "empty start persisted: %s", txt)
	tassert(t, strings.Contains(txt, `"userData":{}`), "missing default userData: %s", txt)

	got := findRef(t, db, "bare")
	tassert(t, got.UserData != nil && len(got.UserData) == 0, "expected empty map, got %v", got.UserData)
}

func TestReferenceMissingHash(t *testing.T) {
	db := newdb(t)
	err := db.WriteReference(&Reference{Name: "empty"})
	if err == nil {
		t.Fatal("expected error, received none")
	}
	_, ok := err.(*MissingHashError)
	tassert(t, ok, "expected MissingHashError, got %T: %v", err, err)
}

func TestReferenceRefusesDetachedHead(t *testing.T) {
	db := newdb(t)
	// a no-op with a warning, not a failure
	err := db.WriteReference(&Reference{Name: HeadName, Hash: "abc123"})
	if err != nil {
		t.Fatal(err)
	}
	tassert(t, !exists(filepath.Join(db.Repo.MetaDir, "refs", HeadName)),
		"detached HEAD written into the reference store")
}

func TestReferenceSkipsMalformed(t *testing.T) {
	db := newdb(t)
	err := db.WriteReference(&Reference{Name: "good", Hash: "abc123"})
	if err != nil {
		t.Fatal(err)
	}
	err = os.WriteFile(filepath.Join(db.Repo.MetaDir, "refs", "bad"), []byte("not json"), 0644)
	if err != nil {
		t.Fatal(err)
	}

	refs, err := db.ReadReferences()
	if err != nil {
		t.Fatal(err)
	}
	tassert(t, len(refs) == 1, "expected 1 reference, got %d", len(refs))
	tassert(t, refs[0].Name == "good", "expected good, got %q", refs[0].Name)
}

func TestDeleteReference(t *testing.T) {
	db := newdb(t)
	ref := &Reference{Name: "doomed", Hash: "abc123"}
	err := db.WriteReference(ref)
	if err != nil {
		t.Fatal(err)
	}
	err = db.DeleteReference(ref)
	if err != nil {
		t.Fatal(err)
	}
	tassert(t, !exists(filepath.Join(db.Repo.MetaDir, "refs", "doomed")), "reference file survived delete")

	err = db.DeleteReference(ref)
	if err == nil {
		t.Fatal("expected error, received none")
	}
	_, ok := err.(*NotFoundError)
	tassert(t, ok, "expected NotFoundError, got %T: %v", err, err)
}

func TestHeadSymbolic(t *testing.T) {
	db := newdb(t)
	err := db.WriteHead(&Reference{Name: "main", Hash: "abc123"})
	if err != nil {
		t.Fatal(err)
	}

	// symbolic HEAD stores the branch name, not the hash
	buf, err := os.ReadFile(filepath.Join(db.Repo.MetaDir, "HEAD"))
	if err != nil {
		t.Fatal(err)
	}
	tassert(t, strings.TrimSpace(string(buf)) == "main", "expected main, got %q", buf)

	head, err := db.ReadHead()
	if err != nil {
		t.Fatal(err)
	}
	tassert(t, head == "main", "expected main, got %q", head)
}

func TestHeadDetached(t *testing.T) {
	db := newdb(t)
	err := db.WriteHead(&Reference{Name: HeadName, Hash: "abc123"})
	if err != nil {
		t.Fatal(err)
	}
	head, err := db.ReadHead()
	if err != nil {
		t.Fatal(err)
	}
	tassert(t, head == "abc123", "expected abc123, got %q", head)
}

func TestReadHeadMissing(t *testing.T) {
	db := newdb(t)
	// a freshly created, commit-less store has no HEAD; that is a
	// valid state, not an error
	head, err := db.ReadHead()
	if err != nil {
		t.Fatal(err)
	}
	tassert(t, head == "", "expected empty head, got %q", head)
}
