package main

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/dusk-indust/flowchart/internal/config"
	"github.com/dusk-indust/flowchart/internal/service"
	"github.com/dusk-indust/flowchart/internal/store"
)

// app holds the state shared by all commands: global flags and the config
// loaded before any command runs.
type app struct {
	configDir string
	storePath string
	verbose   bool

	cfg    config.Config
	logger *log.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "flowchart",
		Short:         "Convert Python, JavaScript and C# source into flowcharts",
		Long:          `flowchart translates source files into flowchart graphs: one diagram for the top-level statements and one per function, method, property accessor and class. Results are written as JSON or rendered as Mermaid, Graphviz DOT or SVG, and can be served over HTTP or MCP.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.configDir, "config-dir", ".", "directory holding flowchart.yml and .env")
	root.PersistentFlags().StringVar(&a.storePath, "store", "", "diagram store directory (overrides storePath; empty keeps diagrams in memory)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(a.translateCommand())
	root.AddCommand(a.renderCommand())
	root.AddCommand(a.sourcesCommand())
	root.AddCommand(a.serveCommand())
	root.AddCommand(a.mcpCommand())
	root.AddCommand(a.languagesCommand())
	root.AddCommand(a.initCommand())

	return root
}

// setup loads the config and attaches the logger to the command context.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configDir)
	if err != nil {
		return err
	}
	a.cfg = cfg.WithDefaults()
	if a.storePath != "" {
		a.cfg.StorePath = a.storePath
	}

	level, err := log.ParseLevel(a.cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("config logLevel: %w", err)
	}
	if a.verbose {
		level = log.DebugLevel
	}
	a.logger = newLogger(cmd.ErrOrStderr(), level)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(withLogger(ctx, a.logger))
	return nil
}

// newService opens the configured store and builds a Service over it. The
// returned func closes the store.
func (a *app) newService(ctx context.Context) (*service.Service, func(), error) {
	st, err := store.Open(ctx, a.cfg.StorePath)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}

	opts := service.OptionsFromConfig(a.cfg)
	opts.Store = st
	opts.Logger = a.logger
	opts.OnProgress = func(ev service.ProgressEvent) {
		a.logger.Debug(service.FormatProgress(ev))
	}

	svc, err := service.New(opts)
	if err != nil {
		st.Close()
		return nil, nil, err
	}
	closeStore := func() {
		if err := st.Close(); err != nil {
			a.logger.Warn("close store", "err", err)
		}
	}
	return svc, closeStore, nil
}
