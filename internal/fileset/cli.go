package fileset

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	l "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// app carries state shared by all subcommands once flags are parsed.
type app struct {
	cfg        *Config
	configFile string
	stdin      io.Reader
}

// Main is the CLI entrypoint for cmd/fileset.
func Main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd(os.Stdin).ExecuteContext(ctx); err != nil {
		cFprintf(os.Stderr, colArrow, "-> ")
		cFprintf(os.Stderr, colError, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(stdin io.Reader) *cobra.Command {
	a := &app{stdin: stdin}

	root := &cobra.Command{
		Use:           "fileset",
		Short:         "Select files from build trees with glob patterns and stage them",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.configFile, "config", "", "config file (default $FILESET_CONFIG or "+ConfigFile+")")
	root.PersistentFlags().BoolVar(&Debug, "debug", false, "print debug diagnostics")
	root.PersistentFlags().BoolVarP(&Verbose, "verbose", "v", false, "trace every filesystem operation")

	root.AddCommand(
		a.newCopyCmd(),
		a.newListCmd(),
		a.newStageCmd(),
		a.newManifestCmd(),
		a.newArchiveCmd(),
		a.newUploadCmd(),
		a.newCleanCmd(),
		newVersionCmd(),
	)
	return root
}

// setup loads configuration. Flags given on the command line win over it.
func (a *app) setup(cmd *cobra.Command) error {
	path := a.configFile
	if path == "" {
		path = configPath()
	}
	cfg, err := loadConfig(path)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if !flags.Changed("debug") {
		Debug = cfg.Debug
	}
	if !flags.Changed("verbose") {
		Verbose = cfg.Verbose
	}
	if Debug {
		l.SetLevel(l.DebugLevel)
		l.SetOutput(cmd.ErrOrStderr())
	}
	a.cfg = cfg
	debugf("Loaded config from %s\n", path)
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			cFprintf(out, colInfo, "fileset %s", version)
			fmt.Fprintf(out, " (%s, built %s)\n", arch, buildDate)
		},
	}
}
