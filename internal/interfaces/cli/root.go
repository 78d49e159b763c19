// Package cli implements the exptrack command-line tool.  Offline commands
// (pivot, query) drive the scalar engine directly on a dataset file; the
// remaining commands talk to an exptrack API server through pkg/client.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/turtacn/ExpTrack/internal/config"
	"github.com/turtacn/ExpTrack/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ExpTrack/pkg/client"
	"github.com/turtacn/ExpTrack/pkg/errors"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// cliContextKey is the context key for CLIContext.
type cliContextKey struct{}

// RootOptions holds global CLI flags.
type RootOptions struct {
	ConfigPath   string
	LogLevel     string
	OutputFormat string
	Verbose      bool
	Timeout      time.Duration
	ServerAddr   string
	APIKey       string
}

// CLIContext carries initialized dependencies through the command tree.
type CLIContext struct {
	Config       *config.Config
	ConfigPath   string // empty when running on defaults
	Logger       logging.Logger
	Client       *client.Client
	OutputFormat string
	Verbose      bool
	Timeout      time.Duration
}

// NewRootCommand creates the root command with its global flags and every
// subcommand attached.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "exptrack",
		Short:   "ExpTrack CLI: compare experiment scalar metrics",
		Long:    "exptrack pivots, smooths and compares the scalar metrics logged by\nmachine-learning experiments, and manages shareable dashboard views.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return persistentPreRun(cmd, opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (default: ./exptrack.yaml)")
	pf.StringVar(&opts.LogLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	pf.StringVarP(&opts.OutputFormat, "output", "o", "table", "output format (table, json, text)")
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "enable verbose output")
	pf.DurationVar(&opts.Timeout, "timeout", 30*time.Second, "global operation timeout")
	pf.StringVar(&opts.ServerAddr, "server", "", "API server address (default: from config)")
	pf.StringVar(&opts.APIKey, "api-key", "", "API key sent as bearer token (env EXPTRACK_API_KEY)")

	cmd.AddCommand(
		newVersionCmd(),
		NewPivotCmd(),
		NewQueryCmd(),
		NewViewsCmd(),
		NewExportCmd(),
		NewServeCmd(),
	)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "exptrack %s\ncommit: %s\nbuilt:  %s\n", Version, GitCommit, BuildDate)
			return nil
		},
	}
}

// persistentPreRun initializes config, logger and client, then stores
// CLIContext on the command.
func persistentPreRun(cmd *cobra.Command, opts *RootOptions) error {
	cfg, cfgPath, err := initConfig(opts)
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	logger, err := initLogger(opts)
	if err != nil {
		return fmt.Errorf("logger initialization failed: %w", err)
	}

	apiClient, err := initClient(cfg, opts, logger)
	if err != nil {
		logger.Warn("API client initialization failed, remote commands will not work", logging.Err(err))
	}

	cliCtx := &CLIContext{
		Config:       cfg,
		ConfigPath:   cfgPath,
		Logger:       logger,
		Client:       apiClient,
		OutputFormat: opts.OutputFormat,
		Verbose:      opts.Verbose,
		Timeout:      opts.Timeout,
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	cmd.SetContext(context.WithValue(parent, cliContextKey{}, cliCtx))
	return nil
}

// initConfig loads configuration: an explicit --config wins, then the first
// file found on the search path, then environment-only defaults.  It also
// returns the path it loaded.
func initConfig(opts *RootOptions) (*config.Config, string, error) {
	if opts.ConfigPath != "" {
		cfg, err := config.Load(opts.ConfigPath)
		return cfg, opts.ConfigPath, err
	}

	searchPaths := []string{"./exptrack.yaml"}
	if homeDir, err := os.UserHomeDir(); err == nil {
		searchPaths = append(searchPaths, filepath.Join(homeDir, ".exptrack", "config.yaml"))
	}
	searchPaths = append(searchPaths, "/etc/exptrack/config.yaml")

	for _, p := range searchPaths {
		if _, statErr := os.Stat(p); statErr == nil {
			cfg, err := config.Load(p)
			return cfg, p, err
		}
	}
	return config.NewDefaultConfig(), "", nil
}

// initLogger creates a console logger on stderr so stdout stays parseable.
func initLogger(opts *RootOptions) (logging.Logger, error) {
	level := logging.ParseLevel(opts.LogLevel)
	if opts.Verbose {
		level = logging.LevelDebug
	}
	return logging.NewLogger(logging.LogConfig{
		Level:            level,
		Format:           "console",
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	})
}

// initClient creates an API client.  The address falls back to the
// configured listen address of the server.
func initClient(cfg *config.Config, opts *RootOptions, logger logging.Logger) (*client.Client, error) {
	addr := opts.ServerAddr
	if addr == "" {
		host := cfg.Server.Host
		if host == "" || host == "0.0.0.0" {
			host = "localhost"
		}
		port := cfg.Server.Port
		if port == 0 {
			port = 8080
		}
		addr = fmt.Sprintf("http://%s:%d", host, port)
	}
	apiKey := opts.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("EXPTRACK_API_KEY")
	}
	return client.NewClient(addr, apiKey,
		client.WithTimeout(opts.Timeout),
		client.WithUserAgent("exptrack-cli/"+Version),
		client.WithLogger(clientLogger{logger}),
	)
}

// clientLogger adapts logging.Logger to the printf-style client.Logger.
type clientLogger struct {
	l logging.Logger
}

func (c clientLogger) Debugf(format string, args ...interface{}) {
	c.l.Debug(fmt.Sprintf(format, args...))
}
func (c clientLogger) Infof(format string, args ...interface{}) {
	c.l.Info(fmt.Sprintf(format, args...))
}
func (c clientLogger) Errorf(format string, args ...interface{}) {
	c.l.Error(fmt.Sprintf(format, args...))
}

// GetCLIContext extracts CLIContext from a cobra command's context.
func GetCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	ctx := cmd.Context()
	if ctx == nil {
		return nil, errors.NewValidationError("command context is nil")
	}
	cliCtx, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok || cliCtx == nil {
		return nil, errors.NewValidationError("CLIContext not found in command context")
	}
	return cliCtx, nil
}

// remoteClient returns the API client together with a context bounded by
// the global timeout.
func remoteClient(cmd *cobra.Command) (*client.Client, context.Context, context.CancelFunc, error) {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	if cliCtx.Client == nil {
		return nil, nil, nil, errors.NewValidationError("API client is not configured; pass --server")
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), cliCtx.Timeout)
	return cliCtx.Client, ctx, cancel, nil
}

// Execute is the main entry point for the CLI application.
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		PrintError(rootCmd, err)
		return err
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Output helpers
// ─────────────────────────────────────────────────────────────────────────────

// tableProvider is implemented by results that render as a table.
type tableProvider interface {
	TableHeaders() []string
	TableRows() [][]string
}

// PrintResult outputs data in the format specified by CLIContext.
func PrintResult(cmd *cobra.Command, data interface{}) error {
	format := "json"
	if cliCtx, err := GetCLIContext(cmd); err == nil {
		format = strings.ToLower(cliCtx.OutputFormat)
	}

	switch format {
	case "json":
		return printJSON(cmd, data)
	case "table":
		return printTable(cmd, data)
	default:
		return printText(cmd, data)
	}
}

func printJSON(cmd *cobra.Command, data interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func printText(cmd *cobra.Command, data interface{}) error {
	switch v := data.(type) {
	case string:
		fmt.Fprintln(cmd.OutOrStdout(), v)
	case fmt.Stringer:
		fmt.Fprintln(cmd.OutOrStdout(), v.String())
	default:
		fmt.Fprintf(cmd.OutOrStdout(), "%+v\n", v)
	}
	return nil
}

func printTable(cmd *cobra.Command, data interface{}) error {
	if tp, ok := data.(tableProvider); ok {
		fmt.Fprint(cmd.OutOrStdout(), FormatTable(tp.TableHeaders(), tp.TableRows()))
		return nil
	}
	return printText(cmd, data)
}

// PrintError writes a formatted error message to stderr.
func PrintError(cmd *cobra.Command, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", err.Error())
}

// PrintSuccess writes a formatted success message to stdout.
func PrintSuccess(cmd *cobra.Command, msg string) {
	fmt.Fprintf(cmd.OutOrStdout(), "OK: %s\n", msg)
}

// FormatTable renders headers and rows as an aligned ASCII table.
func FormatTable(headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}

	colWidths := make([]int, len(headers))
	for i, h := range headers {
		colWidths[i] = len(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(colWidths); i++ {
			if len(row[i]) > colWidths[i] {
				colWidths[i] = len(row[i])
			}
		}
	}

	var sb strings.Builder
	for i, h := range headers {
		if i > 0 {
			sb.WriteString("  ")
		}
		sb.WriteString(padRight(h, colWidths[i]))
	}
	sb.WriteString("\n")

	for i, w := range colWidths {
		if i > 0 {
			sb.WriteString("  ")
		}
		sb.WriteString(strings.Repeat("-", w))
	}
	sb.WriteString("\n")

	for _, row := range rows {
		for i := 0; i < len(headers); i++ {
			if i > 0 {
				sb.WriteString("  ")
			}
			val := ""
			if i < len(row) {
				val = row[i]
			}
			sb.WriteString(padRight(val, colWidths[i]))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// padRight pads s with spaces to the given width.
func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

//Personal.AI order the ending
