package patternmatch

import (
	"io/fs"
	"iter"
	"os"
	"path/filepath"

	l "github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
)

// Matcher holds an ordered index of relative path -> Entry built from one or
// more base directories, and the predicate used to select from it.
//
// A Matcher is not safe for concurrent mutation.
type Matcher struct {
	predicate *Predicate
	order     []string
	entries   map[string]Entry
}

// NewMatcher compiles the pattern lists and returns an empty Matcher.
func NewMatcher(includes, excludes, forceIncludes []string) (*Matcher, error) {
	pred, err := NewPredicate(includes, excludes, forceIncludes)
	if err != nil {
		return nil, err
	}
	return &Matcher{predicate: pred, entries: make(map[string]Entry)}, nil
}

// Predicate returns the compiled selection predicate.
func (m *Matcher) Predicate() *Predicate {
	return m.predicate
}

// AddBaseDir scans dir recursively and adds every directory, symlink and file
// below it. Relative paths are forward-slash separated without a leading
// slash. Symlinks to directories are recorded but not descended into.
//
// Calling AddBaseDir again merges another tree: a path seen before keeps its
// original position but now refers to the new entry.
func (m *Matcher) AddBaseDir(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return errors.Wrapf(err, "resolving %s", dir)
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return errors.Wrapf(ErrBaseDirNotFound, "%s", abs)
		}
		return errors.Wrapf(err, "stat %s", abs)
	}
	if !info.IsDir() {
		return errors.Wrapf(ErrBaseDirNotFound, "%s is not a directory", abs)
	}

	before := len(m.order)
	if err := m.scanChildren(abs, ""); err != nil {
		return err
	}
	l.Debug("Scanned base directory", "dir", abs, "new", len(m.order)-before, "total", len(m.order), "patterns", m.predicate)
	return nil
}

// scanChildren reads one directory and recurses into subdirectories. The
// entry type bits from the directory read are enough to classify children,
// so only regular files are stat'ed (for their identity).
func (m *Matcher) scanChildren(rootpath, prefix string) error {
	children, err := os.ReadDir(rootpath)
	if err != nil {
		return errors.Wrapf(err, "reading directory %s", rootpath)
	}
	for _, child := range children {
		relpath := prefix + child.Name()
		path := filepath.Join(rootpath, child.Name())
		entry := Entry{Path: path, Kind: kindOf(child.Type())}

		switch entry.Kind {
		case KindDir:
			m.AddEntry(relpath, entry)
			if err := m.scanChildren(path, relpath+"/"); err != nil {
				return err
			}
		case KindFile:
			id, err := fileID(path)
			if err != nil {
				return errors.Wrapf(err, "reading identity of %s", path)
			}
			entry.ID = id
			m.AddEntry(relpath, entry)
		default:
			m.AddEntry(relpath, entry)
		}
	}
	return nil
}

// AddEntry inserts or replaces a single entry.
func (m *Matcher) AddEntry(relpath string, entry Entry) {
	if _, ok := m.entries[relpath]; !ok {
		m.order = append(m.order, relpath)
	}
	m.entries[relpath] = entry
}

// Len returns the number of indexed entries.
func (m *Matcher) Len() int {
	return len(m.order)
}

// Lookup returns the entry for relpath.
func (m *Matcher) Lookup(relpath string) (Entry, bool) {
	e, ok := m.entries[relpath]
	return e, ok
}

// All yields every indexed entry in traversal order.
func (m *Matcher) All() iter.Seq2[string, Entry] {
	return func(yield func(string, Entry) bool) {
		for _, relpath := range m.order {
			if !yield(relpath, m.entries[relpath]) {
				return
			}
		}
	}
}

// Matches yields the entries accepted by the predicate in traversal order.
// The sequence is lazy and can be ranged over any number of times.
func (m *Matcher) Matches() iter.Seq2[string, Entry] {
	return func(yield func(string, Entry) bool) {
		for relpath, entry := range m.All() {
			if !m.predicate.Matches(relpath) {
				continue
			}
			if !yield(relpath, entry) {
				return
			}
		}
	}
}

// Count returns the number of entries Matches would yield.
func (m *Matcher) Count() int {
	n := 0
	for range m.Matches() {
		n++
	}
	return n
}
