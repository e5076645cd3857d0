package fileset

import (
	"github.com/spf13/cobra"
)

func (a *app) newCleanCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clean <dir>...",
		Short: "Remove staged trees, retrying while other processes hold files open",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			mt := a.cfg.newMaterializer()
			for _, dir := range args {
				if !yes && !askForConfirmation(a.stdin, out, "Remove %s?", dir) {
					step(out, "Cleanup of %s canceled.", dir)
					continue
				}
				debugf("Removing staged tree: %s\n", dir)
				trace := cmd.ErrOrStderr()
				if !Verbose {
					trace = nil
				}
				if err := mt.RemoveTree(dir, trace); err != nil {
					return err
				}
				step(out, "Removed %s", dir)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}
