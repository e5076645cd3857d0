package fileset

import (
	"fmt"

	"github.com/spf13/cobra"

	"fileset/internal/patternmatch"
)

// patternFlags are the selection flags shared by copy and list.
type patternFlags struct {
	includes      []string
	excludes      []string
	forceIncludes []string
}

func (p *patternFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&p.includes, "include", "i", nil, "glob of paths to include (repeatable)")
	cmd.Flags().StringArrayVarP(&p.excludes, "exclude", "e", nil, "glob of paths to exclude (repeatable)")
	cmd.Flags().StringArrayVarP(&p.forceIncludes, "force-include", "f", nil, "glob of paths included even if excluded (repeatable)")
}

// scan builds a matcher over baseDirs, merged in order.
func (p *patternFlags) scan(baseDirs []string) (*patternmatch.Matcher, error) {
	return newScannedMatcher(baseDirs, p.includes, p.excludes, p.forceIncludes)
}

func newScannedMatcher(baseDirs, includes, excludes, forceIncludes []string) (*patternmatch.Matcher, error) {
	m, err := patternmatch.NewMatcher(includes, excludes, forceIncludes)
	if err != nil {
		return nil, err
	}
	debugf("Selecting with %s\n", m.Predicate())
	for _, dir := range baseDirs {
		debugf("Scanning %s\n", dir)
		if err := m.AddBaseDir(dir); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (a *app) newCopyCmd() *cobra.Command {
	var (
		patterns   patternFlags
		destPrefix string
		alwaysCopy bool
		keepDest   bool
	)
	cmd := &cobra.Command{
		Use:   "copy <dest-dir> <base-dir>...",
		Short: "Hardlink or copy matching entries of base directories into dest-dir",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := patterns.scan(args[1:])
			if err != nil {
				return err
			}
			opts := patternmatch.CopyOptions{
				DestPrefix: destPrefix,
				AlwaysCopy: alwaysCopy || a.cfg.AlwaysCopy,
				RemoveDest: !keepDest,
				Verbose:    Verbose,
				Trace:      cmd.ErrOrStderr(),
			}
			stats, err := materializeSelection(m, args[0], opts, a.cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			step(cmd.OutOrStdout(), "Staged %s into %s", stats, args[0])
			return nil
		},
	}
	patterns.register(cmd)
	cmd.Flags().StringVar(&destPrefix, "dest-prefix", "", "prefix prepended to every relative path under dest-dir")
	cmd.Flags().BoolVar(&alwaysCopy, "always-copy", false, "copy files instead of hardlinking")
	cmd.Flags().BoolVar(&keepDest, "keep-dest", false, "replace entries in place instead of removing dest-dir first")
	return cmd
}

func (a *app) newListCmd() *cobra.Command {
	var (
		patterns patternFlags
		long     bool
		pager    bool
	)
	cmd := &cobra.Command{
		Use:   "list <base-dir>...",
		Short: "Print the relative paths the patterns select",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := patterns.scan(args)
			if err != nil {
				return err
			}
			var lines []string
			for relpath, entry := range m.Matches() {
				if long {
					lines = append(lines, fmt.Sprintf("%-7s %s", entry.Kind, relpath))
					continue
				}
				lines = append(lines, relpath)
			}
			if pager {
				return runPager("fileset list", lines, cmd.OutOrStdout())
			}
			return printLines(cmd.OutOrStdout(), lines)
		},
	}
	patterns.register(cmd)
	cmd.Flags().BoolVarP(&long, "long", "l", false, "prefix each path with its kind")
	cmd.Flags().BoolVar(&pager, "pager", false, "page the output when it does not fit the terminal")
	return cmd
}
