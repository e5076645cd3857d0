package fileset

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"fileset/internal/patternmatch"
)

// stageStats counts the operations of one materialization pass.
type stageStats map[patternmatch.Op]int

func (s stageStats) total() int {
	n := 0
	for _, c := range s {
		n += c
	}
	return n
}

func (s stageStats) String() string {
	parts := []string{}
	for _, op := range []patternmatch.Op{patternmatch.OpHardlink, patternmatch.OpCopy, patternmatch.OpSkip, patternmatch.OpSymlink, patternmatch.OpMkdir} {
		if n := s[op]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, opLabel(op, n)))
		}
	}
	if len(parts) == 0 {
		return "0 entries"
	}
	return fmt.Sprintf("%d entries (%s)", s.total(), strings.Join(parts, ", "))
}

func opLabel(op patternmatch.Op, n int) string {
	switch op {
	case patternmatch.OpHardlink:
		return "hardlinked"
	case patternmatch.OpCopy:
		return "copied"
	case patternmatch.OpSkip:
		return "unchanged"
	case patternmatch.OpSymlink:
		return "symlinked"
	}
	if n == 1 {
		return "directory"
	}
	return "directories"
}

// materializeSelection runs one pass with a progress bar on errOut when the
// trace is off.
func materializeSelection(m *patternmatch.Matcher, dest string, opts patternmatch.CopyOptions, cfg *Config, errOut io.Writer) (stageStats, error) {
	stats := stageStats{}
	progress := &entryProgress{}
	if !opts.Verbose && isTerminal(errOut) {
		progress = newEntryProgress(errOut, m.Count(), "staging "+dest)
	}
	opts.OnEntry = func(relpath string, op patternmatch.Op) {
		stats[op]++
		progress.onEntry(relpath, op)
	}
	err := cfg.newMaterializer().Materialize(m.Matches(), dest, opts)
	progress.finish()
	return stats, err
}

// runStage selects, materializes and then optionally records and archives
// one descriptor stage.
func runStage(st Stage, cfg *Config, out, errOut io.Writer) error {
	m, err := newScannedMatcher(st.BaseDirs, st.Include, st.Exclude, st.ForceInclude)
	if err != nil {
		return err
	}
	opts := patternmatch.CopyOptions{
		DestPrefix: st.DestPrefix,
		AlwaysCopy: st.AlwaysCopy || cfg.AlwaysCopy,
		RemoveDest: !st.KeepDest,
		Verbose:    Verbose,
		Trace:      errOut,
	}
	stats, err := materializeSelection(m, st.Dest, opts, cfg, errOut)
	if err != nil {
		return err
	}
	step(out, "Stage %s: %s into %s", st.Name, stats, st.Dest)

	if st.Manifest != "" {
		if err := writeManifestFile(st.Dest, st.Manifest); err != nil {
			return err
		}
		step(out, "Stage %s: wrote manifest %s", st.Name, st.Manifest)
	}
	if st.Archive != "" {
		format, err := formatFromName(st.Archive)
		if err != nil {
			return err
		}
		if err := createArchive(st.Dest, st.Archive, format); err != nil {
			return err
		}
		step(out, "Stage %s: wrote archive %s", st.Name, st.Archive)
	}
	return nil
}

// runStages runs stages in order, stopping at the first failure or when ctx
// is cancelled between stages.
func runStages(ctx context.Context, stages []Stage, cfg *Config, out, errOut io.Writer) error {
	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("stage %s not started: %w", st.Name, err)
		}
		if err := runStage(st, cfg, out, errOut); err != nil {
			return fmt.Errorf("stage %s: %w", st.Name, err)
		}
	}
	return nil
}

func (a *app) newStageCmd() *cobra.Command {
	var list bool
	cmd := &cobra.Command{
		Use:   "stage <descriptor.yaml> [stage...]",
		Short: "Run the stages of a YAML descriptor (all of them when none are named)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := loadDescriptor(args[0])
			if err != nil {
				return err
			}
			stages, err := d.selectStages(args[1:])
			if err != nil {
				return err
			}
			if list {
				for _, st := range stages {
					cFprintf(cmd.OutOrStdout(), colNote, "%s", st.Name)
					fmt.Fprintf(cmd.OutOrStdout(), " -> %s\n", st.Dest)
				}
				return nil
			}
			return runStages(cmd.Context(), stages, a.cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	cmd.Flags().BoolVar(&list, "list", false, "only print the selected stages")
	return cmd
}
