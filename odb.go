package bindle

import (
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/google/renameio"
	log "github.com/sirupsen/logrus"
	. "github.com/stevegt/goadapt"
)

// metadata directory layout
const (
	configFile  = "config"
	objectsDir  = "objects"
	versionsDir = "versions"
	refsDir     = "refs"
	hooksDir    = "hooks"
	tmpDir      = "tmp"
	headFile    = "HEAD"
)

// Repo locates a repository for the object database: where the
// metadata lives, where the working tree starts, and whether stored
// blobs are compressed.
type Repo struct {
	MetaDir  string
	WorkDir  string
	Compress bool
}

// InitOptions are the configuration knobs recorded at Create time.
type InitOptions struct {
	Filemode bool
	Symlinks bool
}

// Odb is the object database.  It owns the on-disk layout under
// Repo.MetaDir: content-addressed blobs, commit records, references,
// and the configuration record.  An Odb keeps no long-lived state
// beyond the config loaded at Open; every read reconstructs from disk
// and every write is terminal.
//
// Hasher and Copy are seams for the content hasher and the
// filesystem-copy primitive.  Both are set to defaults by Open and
// Create and may be replaced before use.
type Odb struct {
	Repo   *Repo
	Config Config
	Hasher Hasher
	Copy   CopyFunc
}

// Open binds an Odb to an existing store, loading its configuration
// record.  It fails with UnsupportedVersionError if the stored schema
// version is below MinVersion.
func Open(repo *Repo) (db *Odb, err error) {
	buf, err := os.ReadFile(filepath.Join(repo.MetaDir, configFile))
	if err != nil {
		return nil, &NotDbError{Dir: repo.MetaDir}
	}
	var conf Config
	err = json.Unmarshal(buf, &conf)
	if err != nil {
		return nil, &MalformedError{Path: filepath.Join(repo.MetaDir, configFile), Err: err}
	}
	if conf.Version < MinVersion {
		return nil, &UnsupportedVersionError{Dir: repo.MetaDir, Version: conf.Version}
	}
	db = &Odb{
		Repo:   repo,
		Config: conf,
		Hasher: &ChunkHasher{},
		Copy:   CopyFile,
	}
	return
}

// Create initializes the metadata directory tree and writes the
// default configuration record.  It fails with ExistsError if the
// metadata directory is already present; subdirectory creation below
// it is idempotent.
func Create(repo *Repo, opts InitOptions) (db *Odb, err error) {
	defer Return(&err)

	dir := repo.MetaDir
	if exists(dir) {
		return nil, &ExistsError{Dir: dir}
	}
	err = mkdir(dir)
	Ck(err)
	for _, sub := range []string{objectsDir, versionsDir, refsDir, hooksDir, tmpDir} {
		err = mkdir(filepath.Join(dir, sub))
		Ck(err)
	}

	conf := Config{Version: Version, Filemode: opts.Filemode, Symlinks: opts.Symlinks}
	buf, err := json.Marshal(&conf)
	Ck(err)
	err = renameio.WriteFile(filepath.Join(dir, configFile), buf, 0644)
	Ck(err)

	return Open(repo)
}

var tmpSeq uint64

// tmpPath returns a unique scratch path under tmp/.  The name is a
// hash of the current high-resolution clock reading, not of any file
// content, so in-flight objects never collide with stored ones.
func (db *Odb) tmpPath() string {
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], uint64(time.Now().UnixNano()))
	binary.BigEndian.PutUint64(buf[8:], atomic.AddUint64(&tmpSeq, 1))
	bin, err := Hash(DefaultAlgo, buf[:])
	Ck(err)
	return filepath.Join(db.Repo.MetaDir, tmpDir, bin2hex(bin)[:16])
}

// CleanTmp removes scratch files older than maxAge.  A crashed or
// cancelled WriteObject leaves an orphaned temp file; it is never
// referenced by any commit, so removing it is always safe.
func (db *Odb) CleanTmp(maxAge time.Duration) (n int, err error) {
	defer Return(&err)

	dir := filepath.Join(db.Repo.MetaDir, tmpDir)
	entries, err := os.ReadDir(dir)
	Ck(err)
	cutoff := time.Now().Add(-maxAge)
	for _, ent := range entries {
		info, err := ent.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		fn := filepath.Join(dir, ent.Name())
		err = os.Remove(fn)
		if err != nil {
			log.Warnf("cleantmp: %v", err)
			continue
		}
		n++
	}
	return
}
