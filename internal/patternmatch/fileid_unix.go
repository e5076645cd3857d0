//go:build unix

package patternmatch

import (
	"io/fs"

	"golang.org/x/sys/unix"
)

// fileID returns the identity of path without following a final symlink.
func fileID(path string) (FileID, error) {
	var st unix.Stat_t
	if err := unix.Lstat(path, &st); err != nil {
		return FileID{}, &fs.PathError{Op: "lstat", Path: path, Err: err}
	}
	return FileID{Dev: uint64(st.Dev), Ino: uint64(st.Ino)}, nil
}

// isTransientRemoveError reports whether removing a tree may succeed if retried.
func isTransientRemoveError(err error) bool {
	return isPermission(err)
}
