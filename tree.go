package bindle

// A commit's snapshot is a tree of TreeDir and TreeFile nodes.  The
// tree is acyclic and single-rooted; each node's parent back-reference
// is non-owning and always matches its position in the parent's
// children sequence.  Child order is insertion order, and it is
// significant: it is the serialization order.

// TreeNode is one entry in a snapshot: either a *TreeDir or a
// *TreeFile.
type TreeNode interface {
	Name() string
	Parent() *TreeDir
	record() nodeRecord
}

// TreeDir is a directory node.
type TreeDir struct {
	name     string
	children []TreeNode
	parent   *TreeDir
}

// TreeFile is a file leaf pointing at a content hash.  An empty hash
// marks an unhashed placeholder.
type TreeFile struct {
	name   string
	hash   string
	parent *TreeDir
}

// NewTreeDir returns a root directory node.
func NewTreeDir(name string) *TreeDir {
	return &TreeDir{name: name}
}

func (d *TreeDir) Name() string {
	return d.name
}

func (d *TreeDir) Parent() *TreeDir {
	return d.parent
}

// Children returns the ordered child sequence.
func (d *TreeDir) Children() []TreeNode {
	return d.children
}

// AddDir appends a new directory child and returns it.
func (d *TreeDir) AddDir(name string) *TreeDir {
	child := &TreeDir{name: name, parent: d}
	d.children = append(d.children, child)
	return child
}

// AddFile appends a new file child and returns it.
func (d *TreeDir) AddFile(name, hash string) *TreeFile {
	child := &TreeFile{name: name, hash: hash, parent: d}
	d.children = append(d.children, child)
	return child
}

// Walk visits every node in the tree depth-first, directories before
// their children, in child order.  Walking stops on the first error.
func (d *TreeDir) Walk(fn func(node TreeNode, depth int) error) error {
	return d.walk(fn, 0)
}

func (d *TreeDir) walk(fn func(node TreeNode, depth int) error, depth int) (err error) {
	err = fn(d, depth)
	if err != nil {
		return
	}
	for _, child := range d.children {
		switch node := child.(type) {
		case *TreeDir:
			err = node.walk(fn, depth+1)
		case *TreeFile:
			err = fn(node, depth+1)
		}
		if err != nil {
			return
		}
	}
	return
}

func (f *TreeFile) Name() string {
	return f.name
}

func (f *TreeFile) Hash() string {
	return f.hash
}

func (f *TreeFile) Parent() *TreeDir {
	return f.parent
}

// nodeRecord is the persisted form of a tree node.  The presence of
// the children field is the type tag: a directory always carries it,
// even when empty, and a file never does.
type nodeRecord struct {
	Name     string        `json:"name"`
	Hash     string        `json:"hash,omitempty"`
	Children *[]nodeRecord `json:"children,omitempty"`
}

func (d *TreeDir) record() nodeRecord {
	kids := make([]nodeRecord, 0, len(d.children))
	for _, child := range d.children {
		kids = append(kids, child.record())
	}
	return nodeRecord{Name: d.name, Children: &kids}
}

func (f *TreeFile) record() nodeRecord {
	return nodeRecord{Name: f.name, Hash: f.hash}
}

// nodeFromRecord rebuilds a typed node from its persisted form.  The
// directory-vs-file decision is made once here, from the structural
// signal, and parent back-references are assigned top-down.
func nodeFromRecord(rec *nodeRecord, parent *TreeDir) TreeNode {
	if rec.Children == nil {
		return &TreeFile{name: rec.Name, hash: rec.Hash, parent: parent}
	}
	d := &TreeDir{name: rec.Name, parent: parent}
	for i := range *rec.Children {
		d.children = append(d.children, nodeFromRecord(&(*rec.Children)[i], d))
	}
	return d
}
