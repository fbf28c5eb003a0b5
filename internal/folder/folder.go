// Package folder classifies the directories of a site tree and resolves the
// options each content folder inherits from its ancestors.
package folder

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"git.home.luguber.info/inful/sitekicker/internal/logfields"
	"git.home.luguber.info/inful/sitekicker/internal/options"
)

// Folder is one classified directory. The concrete type is one of
// *AssetFolder, *TemplateFolder, *EnclosureFolder or *EntryFolder.
type Folder interface {
	Path() string
	isFolder()
}

// AssetFolder is copied verbatim into the output at build end.
type AssetFolder struct {
	path string
	// Rel is the slash-separated path relative to the working root.
	Rel string
}

func (f *AssetFolder) Path() string { return f.path }
func (*AssetFolder) isFolder()      {}

// TemplateFolder holds layout templates; it carries no content.
type TemplateFolder struct {
	path string
}

func (f *TemplateFolder) Path() string { return f.path }
func (*TemplateFolder) isFolder()      {}

// EnclosureFolder is a plain container that was recursed into.
type EnclosureFolder struct {
	path string
	optionSet
}

func (f *EnclosureFolder) Path() string { return f.path }
func (*EnclosureFolder) isFolder()      {}

// EntryFolder holds one entry. MainFile is the first qualifying content file.
type EntryFolder struct {
	path     string
	MainFile string
	optionSet
}

func (f *EntryFolder) Path() string { return f.path }
func (*EntryFolder) isFolder()      {}

// optionSet is shared by the folder kinds that own options.
type optionSet struct {
	tree *Tree
	dir  string

	mu       sync.Mutex
	own      *options.Map
	combined *options.Map
}

// Options returns the folder's own options from its options file, read once.
// A missing or malformed file yields an empty map.
func (o *optionSet) Options() *options.Map {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.ownLocked()
}

func (o *optionSet) ownLocked() *options.Map {
	if o.own == nil {
		o.own = o.tree.loadOptions(o.dir)
	}
	return o.own
}

// CombinedOptions returns the parent's combined options with this folder's
// own options merged on top. The result is computed once and shared; callers
// must Clone before mutating it.
func (o *optionSet) CombinedOptions() *options.Map {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.combined != nil {
		return o.combined
	}
	// Locks are taken child first, then parent; never the reverse.
	parent := o.tree.parentCombined(o.dir)
	o.combined = options.MergeAll(parent, o.ownLocked())
	return o.combined
}

// Tree is the result of a scan: the working root plus every classified
// folder beneath it.
type Tree struct {
	root  *EnclosureFolder
	order []Folder
	byDir map[string]Folder
	rules Rules

	loadOptions func(dir string) *options.Map
}

func newTree(root string, site *options.Map, rules Rules) *Tree {
	t := &Tree{byDir: map[string]Folder{}, rules: rules}
	t.loadOptions = t.readOptionsFile
	t.root = &EnclosureFolder{path: root, optionSet: optionSet{tree: t, dir: root}}
	if site == nil {
		site = options.New()
	}
	t.root.own = site
	t.root.combined = site
	return t
}

// Root returns the working root. Its combined options are the site options.
func (t *Tree) Root() *EnclosureFolder { return t.root }

// Folders returns every classified folder below the root in discovery order.
func (t *Tree) Folders() []Folder {
	out := make([]Folder, len(t.order))
	copy(out, t.order)
	return out
}

// Get returns the folder at the absolute path dir.
func (t *Tree) Get(dir string) (Folder, bool) {
	if filepath.Clean(dir) == t.root.path {
		return t.root, true
	}
	f, ok := t.byDir[filepath.Clean(dir)]
	return f, ok
}

// Entries returns the entry folders in discovery order.
func (t *Tree) Entries() []*EntryFolder {
	var out []*EntryFolder
	for _, f := range t.order {
		if e, ok := f.(*EntryFolder); ok {
			out = append(out, e)
		}
	}
	return out
}

// Assets returns the asset folders in discovery order.
func (t *Tree) Assets() []*AssetFolder {
	var out []*AssetFolder
	for _, f := range t.order {
		if a, ok := f.(*AssetFolder); ok {
			out = append(out, a)
		}
	}
	return out
}

func (t *Tree) add(f Folder) {
	t.order = append(t.order, f)
	t.byDir[f.Path()] = f
}

func (t *Tree) parentCombined(dir string) *options.Map {
	parentDir := filepath.Dir(dir)
	if parentDir == t.root.path {
		return t.root.CombinedOptions()
	}
	switch p := t.byDir[parentDir].(type) {
	case *EnclosureFolder:
		return p.CombinedOptions()
	case *EntryFolder:
		return p.CombinedOptions()
	default:
		return t.root.CombinedOptions()
	}
}

func (t *Tree) readOptionsFile(dir string) *options.Map {
	path := filepath.Join(dir, t.rules.OptionsFile)
	// #nosec G304 -- options file inside the scanned tree
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("Unreadable folder options file", logfields.Path(path), logfields.Error(err))
		}
		return options.New()
	}
	m, err := options.Parse(data)
	if err != nil {
		slog.Warn("Malformed folder options file", logfields.Path(path), logfields.Error(err))
		return options.New()
	}
	return m
}
