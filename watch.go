package bindle

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	. "github.com/stevegt/goadapt"
)

// Watcher reports filesystem events on the reference store and the
// HEAD file, for tools that track branch movement.
type Watcher struct {
	watcher *fsnotify.Watcher
	Events  chan fsnotify.Event
	Errors  chan error
}

// Watch creates a watcher over refs/ and the metadata root (where
// HEAD lives).  The metadata root watch also surfaces events for
// sibling entries like config; callers filter by name.
func (db *Odb) Watch() (w *Watcher, err error) {
	defer Return(&err)

	fsw, err := fsnotify.NewWatcher()
	Ck(err)
	err = fsw.Add(filepath.Join(db.Repo.MetaDir, refsDir))
	Ck(err)
	err = fsw.Add(db.Repo.MetaDir)
	Ck(err)

	w = &Watcher{watcher: fsw, Events: fsw.Events, Errors: fsw.Errors}
	return
}

func (w *Watcher) Close() error {
	return w.watcher.Close()
}
