package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dusk-indust/inkdirector/internal/config"
	"github.com/dusk-indust/inkdirector/internal/director"
	"github.com/dusk-indust/inkdirector/internal/logging"
	"github.com/dusk-indust/inkdirector/internal/workflow"
)

// version is set by goreleaser at build time.
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app holds the state shared by every subcommand.
type app struct {
	configDir string
	logMode   string
	source    string
	dest      string
	poseLock  bool
	styleLock bool
	workers   int

	cfg *config.ProjectConfig
	log *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "inkdirector",
		Short: "Plan two-stage line-art cleanup generations from analysis reports",
		Long: `inkdirector turns a visual-analysis report of a hand-drawn animation frame
into a bounded generation plan: sampler steps, cfg and denoise for both
stages, ControlNet union and pose conditioning, and IP-Adapter weights.

Settings are read from inkdirector.yml in --config-dir; flags override them.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				logging.Sync(a.log)
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configDir, "config-dir", ".", "directory holding inkdirector.yml")
	pf.StringVar(&a.logMode, "log", "", "log mode: prod, dev or nop (default from config, else prod)")
	pf.StringVar(&a.source, "source", "", "source animation phase (default Roughs)")
	pf.StringVar(&a.dest, "dest", "", "destination animation phase (default CleanUp)")
	pf.BoolVar(&a.poseLock, "pose-lock", true, "force strong pose conditioning")
	pf.BoolVar(&a.styleLock, "style-lock", true, "bound the stage-1 reference adapter weight")
	pf.IntVar(&a.workers, "workers", 0, "concurrent frames when planning a batch (0 = unbounded)")

	root.AddCommand(
		newPlanCmd(a),
		newPatchCmd(a),
		newRoutesCmd(),
		newServeCmd(a),
		newInitCmd(a),
		newVersionCmd(),
	)
	return root
}

// setup loads the project config and builds the logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configDir)
	if err != nil {
		return err
	}
	a.cfg = cfg

	mode := a.logMode
	if mode == "" {
		mode = cfg.LogMode
	}
	log, err := logging.New(mode)
	if err != nil {
		return err
	}
	a.log = log.With(zap.String("cmd", cmd.Name()))
	return nil
}

// options resolves the planning options: defaults, then config, then any
// flag set on the command line.
func (a *app) options(cmd *cobra.Command) director.Options {
	opts := director.DefaultOptions()
	if a.cfg.SourcePhase != "" {
		opts.SourcePhase = a.cfg.SourcePhase
	}
	if a.cfg.DestPhase != "" {
		opts.DestPhase = a.cfg.DestPhase
	}
	if a.cfg.PoseLock != nil {
		opts.PoseLock = *a.cfg.PoseLock
	}
	if a.cfg.StyleLock != nil {
		opts.StyleLock = *a.cfg.StyleLock
	}

	flags := cmd.Flags()
	if flags.Changed("source") {
		opts.SourcePhase = a.source
	}
	if flags.Changed("dest") {
		opts.DestPhase = a.dest
	}
	if flags.Changed("pose-lock") {
		opts.PoseLock = a.poseLock
	}
	if flags.Changed("style-lock") {
		opts.StyleLock = a.styleLock
	}
	return opts
}

func (a *app) director(cmd *cobra.Command) *director.Director {
	workers := a.cfg.Workers
	if cmd.Flags().Changed("workers") {
		workers = a.workers
	}
	return director.New(director.Config{Workers: workers}, a.log)
}

func (a *app) nodeMap() (workflow.NodeMap, error) {
	return workflow.DefaultNodeMap().With(a.cfg.Nodes)
}

// readInput reads a file argument, or stdin when the path is "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		// Skip config loading.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}
