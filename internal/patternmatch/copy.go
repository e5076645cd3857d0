package patternmatch

import cp "github.com/otiai10/copy"

// copyFile copies src to dst byte for byte, keeping permissions and
// timestamps. A symlink source is recreated as a symlink.
func copyFile(src, dst string) error {
	return cp.Copy(src, dst, cp.Options{
		OnSymlink:     func(string) cp.SymlinkAction { return cp.Shallow },
		PreserveTimes: true,
	})
}
