package bindle

import "path/filepath"

// hblockSuffix names the sidecar file holding a stored object's
// chunk hash records.
const hblockSuffix = ".hblock"

// ObjectPath maps a content hash to its on-disk location: the first
// two hash characters shard the top directory, the next two shard the
// second, and the full hash names the file.  This bounds directory
// fan-out while keeping the full hash visible to UNIX tools.  The
// mapping is a pure function of the hash; it never consults the
// filesystem.  The hash must be at least four characters.
func (db *Odb) ObjectPath(hash string) string {
	return filepath.Join(db.Repo.MetaDir, objectsDir, hash[:2], hash[2:4], hash)
}

// hblockPath returns the sidecar path for a stored object.
func (db *Odb) hblockPath(hash string) string {
	return db.ObjectPath(hash) + hblockSuffix
}
