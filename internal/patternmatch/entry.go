package patternmatch

import "io/fs"

// Kind classifies a scanned filesystem object.
type Kind int

const (
	// KindFile is a regular file or any other non-directory, non-symlink leaf.
	KindFile Kind = iota
	// KindDir is a real directory. Symlinks to directories are KindSymlink.
	KindDir
	// KindSymlink is a symbolic link, never followed.
	KindSymlink
)

func (k Kind) String() string {
	switch k {
	case KindDir:
		return "dir"
	case KindSymlink:
		return "symlink"
	default:
		return "file"
	}
}

// FileID identifies the underlying file data: device and inode on Unix,
// volume serial number and file index on Windows. Two paths with equal,
// non-zero IDs are hardlinks of each other.
type FileID struct {
	Dev uint64
	Ino uint64
}

// IsZero reports whether the identity is unknown.
func (id FileID) IsZero() bool {
	return id == FileID{}
}

// Entry is an immutable snapshot of one scanned object.
type Entry struct {
	// Path is the absolute source path.
	Path string
	Kind Kind
	// ID is set for KindFile entries only.
	ID FileID
}

func kindOf(mode fs.FileMode) Kind {
	switch {
	case mode&fs.ModeSymlink != 0:
		return KindSymlink
	case mode.IsDir():
		return KindDir
	default:
		return KindFile
	}
}

// Identify returns the FileID of path without following a final symlink.
func Identify(path string) (FileID, error) {
	return fileID(path)
}
