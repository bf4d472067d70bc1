package main

import (
	"fmt"
	"os"
	"runtime"
	"sort"
	"strings"

	"github.com/docopt/docopt-go"
	"github.com/sirupsen/logrus"
	log "github.com/sirupsen/logrus"
	bnd "github.com/t7a/bindle"
)

func init() {
	if os.Getenv("DEBUG") == "1" {
		log.SetLevel(log.DebugLevel)
	}
	logrus.SetReportCaller(true)
	formatter := &logrus.TextFormatter{
		CallerPrettyfier: caller(),
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyFile: "caller",
		},
	}
	formatter.TimestampFormat = "15:04:05.999999999"
	logrus.SetFormatter(formatter)
}

// caller returns string presentation of log caller which is formatted as
// `/path/to/file.go:line_number`. e.g. `/internal/app/api.go:25`
func caller() func(*runtime.Frame) (function string, file string) {
	return func(f *runtime.Frame) (function string, file string) {
		p, _ := os.Getwd()
		return "", fmt.Sprintf("%s:%d", strings.TrimPrefix(f.File, p), f.Line)
	}
}

type Opts struct {
	Init     bool
	Put      bool
	Get      bool
	Verify   bool
	Refs     bool
	Branch   bool
	Rmbranch bool
	Head     bool
	Log      bool
	Hash     string
	Dst      string
	Name     string
	Target   string
	File     []string
	Start    string `docopt:"--start"`
	Quiet    bool   `docopt:"-q"`
}

func main() {
	// see https://github.com/google/go-cmdtest
	os.Exit(run())
}

func run() (rc int) {

	usage := `bindle

Usage:
  bnd init
  bnd put [-q] <file>...
  bnd get <hash> <dst>
  bnd verify <hash>
  bnd refs
  bnd branch [--start=<forkhash>] <name> <target>
  bnd rmbranch <name>
  bnd head [<target>]
  bnd log

Options:
  -h --help     Show this screen.
  --version     Show version.
  -q            Quiet; don't print object hashes.
  --start=<forkhash>  Record the commit the branch forked from.
`
	parser := &docopt.Parser{OptionsFirst: false}
	o, _ := parser.ParseArgs(usage, os.Args[1:], "0.1")
	var opts Opts
	err := o.Bind(&opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 22
	}
	log.Debug(opts)

	switch true {
	case opts.Init:
		msg, err := create()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 42
		}
		fmt.Println(msg)
	case opts.Put:
		db, err := open()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 42
		}
		for _, file := range opts.File {
			fh, rel, err := db.WriteObject(file)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return 42
			}
			if !opts.Quiet {
				fmt.Printf("%s %s\n", fh.Hash, rel)
			}
		}
	case opts.Get:
		db, err := open()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 42
		}
		err = db.ReadObject(opts.Hash, opts.Dst)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 42
		}
	case opts.Verify:
		db, err := open()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 42
		}
		ok, err := db.VerifyObject(opts.Hash)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 42
		}
		if !ok {
			fmt.Println("corrupt")
			return 1
		}
		fmt.Println("ok")
	case opts.Refs:
		db, err := open()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 42
		}
		refs, err := db.ReadReferences()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 42
		}
		for _, ref := range refs {
			fmt.Printf("%s %s\n", ref.Name, ref.Hash)
		}
	case opts.Branch:
		db, err := open()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 42
		}
		ref := &bnd.Reference{Name: opts.Name, Hash: opts.Target, Start: opts.Start}
		err = db.WriteReference(ref)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 42
		}
	case opts.Rmbranch:
		db, err := open()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 42
		}
		err = db.DeleteReference(&bnd.Reference{Name: opts.Name})
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 42
		}
	case opts.Head:
		db, err := open()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 42
		}
		if opts.Target == "" {
			head, err := db.ReadHead()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return 42
			}
			if head != "" {
				fmt.Println(head)
			}
			return 0
		}
		err = setHead(db, opts.Target)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 42
		}
	case opts.Log:
		db, err := open()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 42
		}
		err = showLog(db)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 42
		}
	}
	return 0
}

const metaName = ".bnd"

func metadir() (dir string) {
	dir = os.Getenv("BND_DIR")
	if dir == "" {
		dir = metaName
	}
	return
}

func repo() *bnd.Repo {
	wd, err := os.Getwd()
	if err != nil {
		// XXX handling this better would mean that repo() needs
		// to return an err
		panic("can't get current directory")
	}
	return &bnd.Repo{MetaDir: metadir(), WorkDir: wd}
}

func create() (msg string, err error) {
	r := repo()
	_, err = bnd.Create(r, bnd.InitOptions{Filemode: true, Symlinks: true})
	if err != nil {
		return
	}
	return fmt.Sprintf("initialized %s", r.MetaDir), nil
}

func open() (*bnd.Odb, error) {
	return bnd.Open(repo())
}

// setHead points HEAD at a branch when target names an existing
// reference, or detaches HEAD onto a commit hash otherwise.
func setHead(db *bnd.Odb, target string) (err error) {
	refs, err := db.ReadReferences()
	if err != nil {
		return
	}
	for _, ref := range refs {
		if ref.Name == target {
			return db.WriteHead(ref)
		}
	}
	return db.WriteHead(&bnd.Reference{Name: bnd.HeadName, Hash: target})
}

func showLog(db *bnd.Odb) (err error) {
	commits, err := db.ReadCommits()
	if err != nil {
		return
	}
	// newest first
	sort.Slice(commits, func(i, j int) bool {
		return commits[i].Date.After(commits[j].Date)
	})
	for _, c := range commits {
		line := fmt.Sprintf("%s %s %s", c.Hash, c.Date.UTC().Format("2006-01-02T15:04:05Z"), c.Message)
		if len(c.Tags) > 0 {
			line += " [" + strings.Join(c.Tags, ",") + "]"
		}
		fmt.Println(line)
	}
	return
}
