package fileset

import (
	"archive/tar"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"
	"github.com/spf13/cobra"
	"github.com/ulikunitz/xz"

	"fileset/internal/patternmatch"
)

type archiveFormat string

const (
	formatTar  archiveFormat = "tar"
	formatZstd archiveFormat = "zstd"
	formatGzip archiveFormat = "gzip"
	formatXZ   archiveFormat = "xz"
)

// formatFromName picks the compression from the archive file name.
func formatFromName(name string) (archiveFormat, error) {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".tar.zst"), strings.HasSuffix(lower, ".tzst"):
		return formatZstd, nil
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return formatGzip, nil
	case strings.HasSuffix(lower, ".tar.xz"), strings.HasSuffix(lower, ".txz"):
		return formatXZ, nil
	case strings.HasSuffix(lower, ".tar"):
		return formatTar, nil
	}
	return "", fmt.Errorf("%w: %s", errUnknownFormat, name)
}

// formatFromConfig maps FILESET_COMPRESSION values to a format.
func formatFromConfig(name string) (archiveFormat, error) {
	switch archiveFormat(name) {
	case formatTar, formatZstd, formatGzip, formatXZ:
		return archiveFormat(name), nil
	case "zst":
		return formatZstd, nil
	case "gz":
		return formatGzip, nil
	}
	return "", fmt.Errorf("%w: %s", errUnknownFormat, name)
}

func (f archiveFormat) extension() string {
	switch f {
	case formatZstd:
		return ".tar.zst"
	case formatGzip:
		return ".tar.gz"
	case formatXZ:
		return ".tar.xz"
	default:
		return ".tar"
	}
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func compressWriter(w io.Writer, format archiveFormat) (io.WriteCloser, error) {
	switch format {
	case formatZstd:
		return zstd.NewWriter(w)
	case formatGzip:
		return pgzip.NewWriterLevel(w, pgzip.DefaultCompression)
	case formatXZ:
		return xz.NewWriter(w)
	default:
		return nopWriteCloser{w}, nil
	}
}

func decompressReader(r io.Reader, format archiveFormat) (io.ReadCloser, error) {
	switch format {
	case formatZstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return zr.IOReadCloser(), nil
	case formatGzip:
		return pgzip.NewReader(r)
	case formatXZ:
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(xr), nil
	default:
		return io.NopCloser(r), nil
	}
}

// createArchive writes srcDir into a tarball at dest. Entries are stored
// relative to srcDir with numeric root ownership; symlinks are kept as
// symlinks and files sharing an identity are stored once, with tar hardlinks
// for later occurrences.
func createArchive(srcDir, dest string, format archiveFormat) (err error) {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("failed to create archive directory: %w", err)
	}
	// Written next to the destination and renamed, so a failed run never
	// leaves a truncated archive behind.
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".fileset-archive-*")
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	cw, err := compressWriter(tmp, format)
	if err != nil {
		return fmt.Errorf("failed to create %s writer: %w", format, err)
	}
	tw := tar.NewWriter(cw)

	if err := addTree(tw, srcDir); err != nil {
		return fmt.Errorf("failed to add files to archive: %w", err)
	}
	if err := tw.Close(); err != nil {
		return fmt.Errorf("failed to close tar writer: %w", err)
	}
	if err := cw.Close(); err != nil {
		return fmt.Errorf("failed to close %s writer: %w", format, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dest)
}

func addTree(tw *tar.Writer, srcDir string) error {
	linked := make(map[patternmatch.FileID]string)

	return filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}

		var linkTarget string
		if info.Mode()&fs.ModeSymlink != 0 {
			if linkTarget, err = os.Readlink(path); err != nil {
				return fmt.Errorf("readlink %s: %w", path, err)
			}
		}
		hdr, err := tar.FileInfoHeader(info, linkTarget)
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(rel)
		if info.IsDir() {
			hdr.Name += "/"
		}
		hdr.Uid, hdr.Gid = 0, 0
		hdr.Uname, hdr.Gname = "root", "root"

		if info.Mode().IsRegular() {
			id, err := patternmatch.Identify(path)
			if err != nil {
				return err
			}
			if first, ok := linked[id]; ok {
				hdr.Typeflag = tar.TypeLink
				hdr.Linkname = first
				hdr.Size = 0
				return tw.WriteHeader(hdr)
			}
			linked[id] = hdr.Name
		}

		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(tw, f)
		return err
	})
}

// archiveMember is one listed tarball entry.
type archiveMember struct {
	Name     string
	Typeflag byte
	Linkname string
}

// listArchive returns the members of a tarball in stored order.
func listArchive(path string) ([]archiveMember, error) {
	format, err := formatFromName(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rc, err := decompressReader(f, format)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s stream: %w", format, err)
	}
	defer rc.Close()

	var members []archiveMember
	tr := tar.NewReader(rc)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("tar read error: %w", err)
		}
		members = append(members, archiveMember{Name: hdr.Name, Typeflag: hdr.Typeflag, Linkname: hdr.Linkname})
	}
	return members, nil
}

func (a *app) newArchiveCmd() *cobra.Command {
	var list bool
	cmd := &cobra.Command{
		Use:   "archive <dir> <output>",
		Short: "Pack a staged tree into a tarball (.tar, .tar.zst, .tar.gz, .tar.xz)",
		Long: "Pack a staged tree into a tarball. The compression follows the output suffix;\n" +
			"an output without a tarball suffix gets the one of FILESET_COMPRESSION appended.\n" +
			"With --list, print the members of an existing archive instead.",
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if list {
				members, err := listArchive(args[0])
				if err != nil {
					return err
				}
				for _, m := range members {
					if m.Typeflag == tar.TypeLink || m.Typeflag == tar.TypeSymlink {
						fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", m.Name, m.Linkname)
						continue
					}
					fmt.Fprintln(cmd.OutOrStdout(), m.Name)
				}
				return nil
			}
			if len(args) != 2 {
				return fmt.Errorf("archive needs <dir> and <output>")
			}
			output, format, err := resolveArchiveOutput(args[1], a.cfg.Compression)
			if err != nil {
				return err
			}
			if err := createArchive(args[0], output, format); err != nil {
				return err
			}
			step(cmd.OutOrStdout(), "Archive created successfully: %s", output)
			return nil
		},
	}
	cmd.Flags().BoolVar(&list, "list", false, "list the members of the archive given as the only argument")
	return cmd
}

// resolveArchiveOutput keeps an explicit tarball suffix, or appends the one
// for the configured compression.
func resolveArchiveOutput(output, compression string) (string, archiveFormat, error) {
	if format, err := formatFromName(output); err == nil {
		return output, format, nil
	}
	format, err := formatFromConfig(compression)
	if err != nil {
		return "", "", err
	}
	return output + format.extension(), format, nil
}
