package fileset

import (
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"fileset/internal/patternmatch"
)

// symlinkChecksum marks symlinks in a manifest; their targets are not hashed.
const symlinkChecksum = "000000"

// ManifestEntry is one line of a manifest.
type ManifestEntry struct {
	Path     string
	Checksum string
}

// IsDir reports whether the entry names a directory.
func (e ManifestEntry) IsDir() bool {
	return strings.HasSuffix(e.Path, "/")
}

// buildManifest walks root in lexical order. Directories are listed as
// "path/", symlinks get the placeholder checksum and regular files their
// BLAKE3 digest. Hardlinked files are hashed once.
func buildManifest(root string) ([]ManifestEntry, error) {
	var entries []ManifestEntry
	hashed := make(map[patternmatch.FileID]string)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		switch {
		case d.IsDir():
			entries = append(entries, ManifestEntry{Path: rel + "/"})
		case d.Type()&fs.ModeSymlink != 0:
			entries = append(entries, ManifestEntry{Path: rel, Checksum: symlinkChecksum})
		default:
			id, err := patternmatch.Identify(path)
			if err != nil {
				return err
			}
			sum, ok := hashed[id]
			if !ok {
				if sum, err = b3sum(path); err != nil {
					return err
				}
				hashed[id] = sum
			}
			entries = append(entries, ManifestEntry{Path: rel, Checksum: sum})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build manifest of %s: %w", root, err)
	}
	return entries, nil
}

// writeManifest writes entries as "path  checksum" lines (directories bare).
func writeManifest(w io.Writer, entries []ManifestEntry) error {
	bw := bufio.NewWriter(w)
	for _, e := range entries {
		if e.IsDir() {
			fmt.Fprintln(bw, e.Path)
			continue
		}
		fmt.Fprintf(bw, "%s  %s\n", e.Path, e.Checksum)
	}
	return bw.Flush()
}

// writeManifestFile builds the manifest of root and stores it at path.
func writeManifestFile(root, path string) error {
	entries, err := buildManifest(root)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create manifest: %w", err)
	}
	if err := writeManifest(f, entries); err != nil {
		f.Close()
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return f.Close()
}

// parseManifest reads manifest lines. Paths may contain spaces, so the
// checksum is split off at the last whitespace.
func parseManifest(r io.Reader) ([]ManifestEntry, error) {
	var entries []ManifestEntry
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasSuffix(line, "/") {
			entries = append(entries, ManifestEntry{Path: line})
			continue
		}
		lastSpace := strings.LastIndexAny(line, " \t")
		if lastSpace == -1 {
			return nil, fmt.Errorf("malformed manifest line %q", line)
		}
		entries = append(entries, ManifestEntry{
			Path:     strings.TrimSpace(line[:lastSpace]),
			Checksum: strings.TrimSpace(line[lastSpace:]),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error scanning manifest: %w", err)
	}
	return entries, nil
}

// verifyManifest compares root against a stored manifest and returns the
// paths that are missing, added or changed, in manifest order followed by
// additions.
func verifyManifest(root string, want []ManifestEntry) ([]string, error) {
	got, err := buildManifest(root)
	if err != nil {
		return nil, err
	}
	current := make(map[string]string, len(got))
	for _, e := range got {
		current[e.Path] = e.Checksum
	}

	var diffs []string
	expected := make(map[string]bool, len(want))
	for _, e := range want {
		expected[e.Path] = true
		sum, ok := current[e.Path]
		switch {
		case !ok:
			diffs = append(diffs, "missing "+e.Path)
		case sum != e.Checksum:
			diffs = append(diffs, "changed "+e.Path)
		}
	}
	for _, e := range got {
		if !expected[e.Path] {
			diffs = append(diffs, "added "+e.Path)
		}
	}
	return diffs, nil
}

func (a *app) newManifestCmd() *cobra.Command {
	var (
		output string
		check  string
	)
	cmd := &cobra.Command{
		Use:   "manifest <dir>",
		Short: "Print or verify the BLAKE3 manifest of a staged tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := args[0]
			if check != "" {
				return checkManifest(root, check, cmd.OutOrStdout())
			}
			if output != "" {
				if err := writeManifestFile(root, output); err != nil {
					return err
				}
				step(cmd.OutOrStdout(), "Wrote manifest %s", output)
				return nil
			}
			entries, err := buildManifest(root)
			if err != nil {
				return err
			}
			return writeManifest(cmd.OutOrStdout(), entries)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the manifest to this file")
	cmd.Flags().StringVar(&check, "check", "", "compare the tree against this manifest")
	return cmd
}

func checkManifest(root, manifestPath string, out io.Writer) error {
	f, err := os.Open(manifestPath)
	if err != nil {
		return fmt.Errorf("failed to open manifest: %w", err)
	}
	defer f.Close()
	want, err := parseManifest(f)
	if err != nil {
		return err
	}
	diffs, err := verifyManifest(root, want)
	if err != nil {
		return err
	}
	if len(diffs) == 0 {
		step(out, "%s matches %s", root, manifestPath)
		return nil
	}
	for _, d := range diffs {
		cFprintf(out, colWarn, "%s\n", d)
	}
	return fmt.Errorf("%w: %d differences", errManifestMismatch, len(diffs))
}
