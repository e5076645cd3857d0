package fileset

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	l "github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"
)

// writeTree creates files (with their path as content) under root.
func writeTree(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		p := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(f), 0o644))
	}
}

func symlinkOrSkip(t *testing.T, target, link string) {
	t.Helper()
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
}

func hardlinkOrSkip(t *testing.T, src, dst string) {
	t.Helper()
	if err := os.Link(src, dst); err != nil {
		t.Skipf("hardlinks unavailable: %v", err)
	}
}

// testConfig loads the defaults, ignoring any FILESET_* variables of the caller.
func testConfig(t *testing.T) *Config {
	t.Helper()
	clearEnv(t)
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "missing.conf"))
	require.NoError(t, err)
	return cfg
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		if name, _, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(name, "FILESET_") {
			t.Setenv(name, "")
			os.Unsetenv(name)
		}
	}
}

// runCLI executes the root command with args and a config file that does
// not exist, so only defaults and flags apply.
func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	clearEnv(t)
	t.Cleanup(func() {
		Debug = false
		Verbose = false
		l.SetLevel(l.InfoLevel)
		l.SetOutput(os.Stderr)
	})

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(strings.NewReader(stdin))
	cmd.SetArgs(append(args, "--config", filepath.Join(t.TempDir(), "fileset.conf")))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}
