package patternmatch

import (
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"time"

	l "github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
)

const (
	// DefaultMaxAttempts bounds the destination removal retries.
	DefaultMaxAttempts = 5
	// DefaultRetryDelay is the base backoff; retry k waits DefaultRetryDelay*(k+2).
	DefaultRetryDelay = 200 * time.Millisecond
)

// Op names the action taken for one materialized entry.
type Op int

const (
	OpMkdir Op = iota
	OpSymlink
	OpHardlink
	OpCopy
	// OpSkip means the destination already was a hardlink of the source.
	OpSkip
)

func (o Op) String() string {
	switch o {
	case OpMkdir:
		return "mkdir"
	case OpSymlink:
		return "symlink"
	case OpHardlink:
		return "hardlink"
	case OpCopy:
		return "copy"
	default:
		return "skip"
	}
}

// CopyOptions control how a selection is reproduced under a destination.
type CopyOptions struct {
	// DestPrefix is prepended to every relative path, e.g. "lib/".
	DestPrefix string
	// AlwaysCopy disables hardlinking.
	AlwaysCopy bool
	// RemoveDest wipes the destination first. When false, existing files are
	// replaced path by path.
	RemoveDest bool
	// Verbose writes one trace line per operation to Trace.
	Verbose bool
	// Trace receives verbose output. Defaults to os.Stderr.
	Trace io.Writer
	// OnEntry, if set, is called after each entry is materialized.
	OnEntry func(relpath string, op Op)
}

// DefaultCopyOptions returns options that reset the destination and prefer hardlinks.
func DefaultCopyOptions() CopyOptions {
	return CopyOptions{RemoveDest: true}
}

// Materializer reproduces selections on disk. The zero value is not usable;
// use NewMaterializer.
type Materializer struct {
	MaxAttempts int
	RetryDelay  time.Duration

	removeAll func(string) error
	sleep     func(time.Duration)
	link      func(oldname, newname string) error
}

// NewMaterializer returns a Materializer with the default retry policy.
func NewMaterializer() *Materializer {
	return &Materializer{
		MaxAttempts: DefaultMaxAttempts,
		RetryDelay:  DefaultRetryDelay,
		removeAll:   os.RemoveAll,
		sleep:       time.Sleep,
		link:        os.Link,
	}
}

// CopyTo materializes every matching entry under destDir with the default policy.
func (m *Matcher) CopyTo(destDir string, opts CopyOptions) error {
	return NewMaterializer().Materialize(m.Matches(), destDir, opts)
}

// Materialize reproduces selection under destDir in iteration order.
// Directories are created, symlinks recreated with the same literal target,
// and regular files hardlinked, falling back to a metadata-preserving copy.
// The first failure aborts the pass.
func (mt *Materializer) Materialize(selection iter.Seq2[string, Entry], destDir string, opts CopyOptions) error {
	t := newTracer(opts)

	if opts.RemoveDest {
		if err := mt.removeTree(destDir, t); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return errors.Wrapf(err, "creating destination %s", destDir)
	}

	for relpath, entry := range selection {
		destPath := filepath.Join(destDir, filepath.FromSlash(opts.DestPrefix+relpath))
		op, err := mt.materializeEntry(entry, destPath, opts, t)
		if err != nil {
			return errors.Wrapf(err, "materializing %s", relpath)
		}
		if opts.OnEntry != nil {
			opts.OnEntry(relpath, op)
		}
	}
	return nil
}

func (mt *Materializer) materializeEntry(entry Entry, destPath string, opts CopyOptions, t *tracer) (Op, error) {
	switch entry.Kind {
	case KindDir:
		t.printf("mkdir %s", destPath)
		if err := os.MkdirAll(destPath, 0o755); err != nil {
			return OpMkdir, errors.Wrapf(err, "creating directory %s", destPath)
		}
		return OpMkdir, nil

	case KindSymlink:
		if !opts.RemoveDest {
			if err := removeExisting(destPath); err != nil {
				return OpSymlink, err
			}
		}
		target, err := os.Readlink(entry.Path)
		if err != nil {
			return OpSymlink, errors.Wrapf(err, "reading link %s", entry.Path)
		}
		t.printf("symlink %s -> %s", target, destPath)
		if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
			return OpSymlink, errors.Wrapf(err, "creating parent of %s", destPath)
		}
		if err := os.Symlink(target, destPath); err != nil {
			return OpSymlink, errors.Wrapf(err, "creating symlink %s", destPath)
		}
		return OpSymlink, nil

	default:
		return mt.materializeFile(entry, destPath, opts, t)
	}
}

func (mt *Materializer) materializeFile(entry Entry, destPath string, opts CopyOptions, t *tracer) (Op, error) {
	if !opts.AlwaysCopy {
		same, err := alreadyLinked(entry, destPath)
		if err != nil {
			return OpSkip, err
		}
		if same {
			// Replacing an open file fails on Windows.
			t.printf("skipping unlink and link for existing hardlink %s -> %s", entry.Path, destPath)
			return OpSkip, nil
		}
	}

	if !opts.RemoveDest {
		if err := removeExisting(destPath); err != nil {
			return OpCopy, err
		}
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return OpCopy, errors.Wrapf(err, "creating parent of %s", destPath)
	}

	if !opts.AlwaysCopy {
		err := mt.link(entry.Path, destPath)
		if err == nil {
			t.printf("hardlink %s -> %s", entry.Path, destPath)
			return OpHardlink, nil
		}
		t.printf("hardlink %s -> %s (falling back to copy)", entry.Path, destPath)
		l.Debug("Hardlink failed, copying instead", "src", entry.Path, "dst", destPath, "error", err)
	}

	t.printf("copy %s -> %s", entry.Path, destPath)
	if err := copyFile(entry.Path, destPath); err != nil {
		return OpCopy, errors.Wrapf(err, "copying %s to %s", entry.Path, destPath)
	}
	return OpCopy, nil
}

// alreadyLinked reports whether destPath exists and shares its identity with
// the source entry.
func alreadyLinked(entry Entry, destPath string) (bool, error) {
	destID, err := fileID(destPath)
	if err != nil {
		// Missing or unreadable destinations are handled by the replace step.
		return false, nil
	}
	srcID := entry.ID
	if srcID.IsZero() {
		if srcID, err = fileID(entry.Path); err != nil {
			return false, errors.Wrapf(err, "reading identity of %s", entry.Path)
		}
	}
	return srcID == destID, nil
}

// removeExisting unlinks whatever occupies path, including dangling symlinks.
func removeExisting(path string) error {
	if _, err := os.Lstat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return errors.Wrapf(err, "stat %s", path)
	}
	if err := os.Remove(path); err != nil {
		return errors.Wrapf(err, "removing existing %s", path)
	}
	return nil
}

// RemoveTree deletes dir recursively, retrying transient failures with a
// linearly growing delay. A missing dir is not an error. Retry notices are
// written to trace when it is non-nil.
func (mt *Materializer) RemoveTree(dir string, trace io.Writer) error {
	return mt.removeTree(dir, &tracer{w: trace, on: trace != nil})
}

func (mt *Materializer) removeTree(dir string, t *tracer) error {
	if _, err := os.Lstat(dir); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	attempts := max(mt.MaxAttempts, 1)
	for attempt := 0; ; attempt++ {
		err := mt.removeAll(dir)
		if err == nil {
			t.printf("rmtree %s", dir)
			return nil
		}
		if !isTransientRemoveError(err) {
			return errors.Wrapf(err, "removing %s", dir)
		}
		if attempt >= attempts-1 {
			t.printf("rmtree failed after %d attempts, failing", attempts)
			return errors.Mark(errors.Wrapf(err, "removing %s after %d attempts", dir, attempts), ErrRemoveDest)
		}
		wait := mt.RetryDelay * time.Duration(attempt+2)
		t.printf("permission error removing %s, retrying after %s", dir, wait)
		l.Debug("Retrying destination removal", "dir", dir, "attempt", attempt+1, "wait", wait, "error", err)
		mt.sleep(wait)
	}
}

func isPermission(err error) bool {
	return errors.Is(err, fs.ErrPermission)
}

type tracer struct {
	w  io.Writer
	on bool
}

func newTracer(opts CopyOptions) *tracer {
	w := opts.Trace
	if w == nil {
		w = os.Stderr
	}
	return &tracer{w: w, on: opts.Verbose}
}

func (t *tracer) printf(format string, a ...any) {
	if !t.on {
		return
	}
	fmt.Fprintf(t.w, format+"\n", a...)
}
