package fileset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyCommand(t *testing.T) {
	base := t.TempDir()
	dest := filepath.Join(t.TempDir(), "out")
	writeTree(t, base, "a/b.txt", "a/c.log", "d.txt")

	stdout, stderr, err := runCLI(t, "", "copy", dest, base, "-i", "a/**", "-e", "**/*.log")
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dest, "a", "b.txt"))
	assert.NoFileExists(t, filepath.Join(dest, "a", "c.log"))
	assert.NoFileExists(t, filepath.Join(dest, "d.txt"))
	assert.Contains(t, stdout, "Staged 2 entries")
	assert.Empty(t, stderr)
}

func TestCopyCommandVerboseTrace(t *testing.T) {
	base := t.TempDir()
	dest := filepath.Join(t.TempDir(), "out")
	writeTree(t, base, "a/b.txt")

	_, stderr, err := runCLI(t, "", "copy", "-v", "--dest-prefix", "pkg/", dest, base)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dest, "pkg", "a", "b.txt"))
	assert.Contains(t, stderr, "mkdir "+filepath.Join(dest, "pkg", "a"))
	assert.Contains(t, stderr, "hardlink "+filepath.Join(base, "a", "b.txt")+" -> "+filepath.Join(dest, "pkg", "a", "b.txt"))
}

func TestCopyCommandAlwaysCopy(t *testing.T) {
	base := t.TempDir()
	dest := filepath.Join(t.TempDir(), "out")
	writeTree(t, base, "f.txt")

	stdout, _, err := runCLI(t, "", "copy", "--always-copy", dest, base)
	require.NoError(t, err)
	assert.Contains(t, stdout, "1 copied")

	src, err := os.Stat(filepath.Join(base, "f.txt"))
	require.NoError(t, err)
	dst, err := os.Stat(filepath.Join(dest, "f.txt"))
	require.NoError(t, err)
	assert.False(t, os.SameFile(src, dst))
}

func TestCopyCommandMissingBaseDir(t *testing.T) {
	_, _, err := runCLI(t, "", "copy", t.TempDir(), filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base directory")
}

func TestListCommand(t *testing.T) {
	base := t.TempDir()
	writeTree(t, base, "a/b.txt", "a/skip.txt", "c.bin", "z.txt")

	stdout, _, err := runCLI(t, "", "list", base, "-i", "**/*.txt", "-e", "a/skip.txt")
	require.NoError(t, err)
	assert.Equal(t, "a/b.txt\nz.txt\n", stdout)

	stdout, _, err = runCLI(t, "", "list", "-l", base, "-i", "a", "-i", "a/b.txt")
	require.NoError(t, err)
	assert.Equal(t, "dir     a\nfile    a/b.txt\n", stdout)
}

func TestListCommandMergesBaseDirs(t *testing.T) {
	first, second := t.TempDir(), t.TempDir()
	writeTree(t, first, "x.txt", "y.txt")
	writeTree(t, second, "w.txt", "x.txt")

	stdout, _, err := runCLI(t, "", "list", first, second)
	require.NoError(t, err)
	assert.Equal(t, []string{"x.txt", "y.txt", "w.txt"}, strings.Fields(stdout))
}

func TestCleanCommand(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "staged")
	writeTree(t, dir, "a/b.txt")

	stdout, _, err := runCLI(t, "n\n", "clean", dir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "canceled")
	assert.DirExists(t, dir)

	stdout, _, err = runCLI(t, "", "clean", "-y", dir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Removed")
	assert.NoDirExists(t, dir)
}

func TestStageCommand(t *testing.T) {
	work := t.TempDir()
	writeTree(t, work, "build/lib/libfoo.so", "build/lib/libfoo.a", "build/include/foo.h")
	desc := writeDescriptor(t, work, `
stages:
  - name: runtime
    basedirs: [build]
    include: ["lib/**"]
    exclude: ["**/*.a"]
    dest: out/runtime
  - name: headers
    basedirs: [build]
    include: ["include/**"]
    dest: out/headers
`)

	stdout, _, err := runCLI(t, "", "stage", "--list", desc)
	require.NoError(t, err)
	assert.Contains(t, stdout, "runtime")
	assert.Contains(t, stdout, " -> "+filepath.Join(work, "out", "headers"))

	_, _, err = runCLI(t, "", "stage", desc, "runtime")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(work, "out", "runtime", "lib", "libfoo.so"))
	assert.NoFileExists(t, filepath.Join(work, "out", "runtime", "lib", "libfoo.a"))
	assert.NoDirExists(t, filepath.Join(work, "out", "headers"))

	_, _, err = runCLI(t, "", "stage", desc, "docs")
	assert.ErrorIs(t, err, errStageNotFound)
}

func TestManifestCommand(t *testing.T) {
	root := stagedTree(t)
	manifest := filepath.Join(t.TempDir(), "tree.manifest")

	stdout, _, err := runCLI(t, "", "manifest", root)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "a/\na/one.txt  "))

	_, _, err = runCLI(t, "", "manifest", root, "-o", manifest)
	require.NoError(t, err)
	_, _, err = runCLI(t, "", "manifest", root, "--check", manifest)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(root, "b.txt"), []byte("edited"), 0o644))
	stdout, _, err = runCLI(t, "", "manifest", root, "--check", manifest)
	assert.ErrorIs(t, err, errManifestMismatch)
	assert.Contains(t, stdout, "changed b.txt")
}

func TestArchiveCommand(t *testing.T) {
	root := stagedTree(t)
	output := filepath.Join(t.TempDir(), "tree")

	stdout, _, err := runCLI(t, "", "archive", root, output)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Archive created successfully")
	assert.FileExists(t, output+".tar.zst")

	stdout, _, err = runCLI(t, "", "archive", "--list", output+".tar.zst")
	require.NoError(t, err)
	assert.Contains(t, stdout, "a/two.txt -> a/one.txt\n")
	assert.Contains(t, stdout, "c -> b.txt\n")

	_, _, err = runCLI(t, "", "archive", root)
	require.Error(t, err)
}

func TestUploadCommandNeedsBucket(t *testing.T) {
	file := filepath.Join(t.TempDir(), "tree.tar")
	writeTree(t, filepath.Dir(file), "tree.tar")

	_, _, err := runCLI(t, "", "upload", "-y", file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "S3 bucket missing")

	_, _, err = runCLI(t, "", "upload", "--key", "x", file, file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--key needs exactly one file")
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := runCLI(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "fileset dev")
	assert.Contains(t, stdout, arch)
}

func TestDebugFlagOverridesConfig(t *testing.T) {
	_, _, err := runCLI(t, "", "version", "--debug")
	require.NoError(t, err)
	assert.True(t, Debug)
}
