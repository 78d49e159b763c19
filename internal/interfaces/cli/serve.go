package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/turtacn/ExpTrack/internal/bootstrap"
	"github.com/turtacn/ExpTrack/internal/infrastructure/monitoring/logging"
)

type serveOptions struct {
	port     int
	dataFile string
	noWatch  bool
}

// NewServeCmd creates the command that runs the API server in the
// foreground.
func NewServeCmd() *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the ExpTrack API server",
		Long: `Run the ExpTrack API server until interrupted.

The server reads the same configuration as the CLI.  Changes to the log
level and the upstream cache TTL in the config file are applied without a
restart unless --no-watch is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}
	cmd.Flags().IntVar(&opts.port, "port", 0, "HTTP port (overrides server.port)")
	cmd.Flags().StringVar(&opts.dataFile, "data", "", "serve a dataset file (overrides upstream.data_file)")
	cmd.Flags().BoolVar(&opts.noWatch, "no-watch", false, "do not watch the config file for changes")
	return cmd
}

func runServe(cmd *cobra.Command, opts *serveOptions) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	cfg := *cliCtx.Config
	if opts.port > 0 {
		cfg.Server.Port = opts.port
	}
	if opts.dataFile != "" {
		cfg.Upstream.DataFile = opts.dataFile
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := bootstrap.NewLogger(cfg.Log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.NewApp(ctx, &cfg, logger, bootstrap.WithVersion(Version))
	if err != nil {
		return err
	}
	if !opts.noWatch {
		if err := bootstrap.WatchConfig(cliCtx.ConfigPath, app, logger); err != nil {
			logger.Warn("config watch disabled", logging.Err(err))
		}
	}

	logger.Info("starting exptrack server",
		logging.String("version", Version),
		logging.Int("port", cfg.Server.Port))
	return app.Run(ctx)
}

//Personal.AI order the ending
