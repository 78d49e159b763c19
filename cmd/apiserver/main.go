// API server entry point for ExpTrack.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/turtacn/ExpTrack/internal/bootstrap"
	"github.com/turtacn/ExpTrack/internal/config"
	"github.com/turtacn/ExpTrack/internal/infrastructure/monitoring/logging"
)

const defaultConfigPath = "configs/config.yaml"

var version = "dev"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	httpPort := flag.Int("http-port", 0, "HTTP server port (overrides config)")
	grpcPort := flag.Int("grpc-port", 0, "gRPC server port (overrides config)")
	flag.Parse()

	cfg, watchPath := loadConfig(*configPath)
	if *httpPort > 0 {
		cfg.Server.Port = *httpPort
	}
	if *grpcPort > 0 {
		cfg.GRPC.Port = *grpcPort
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := bootstrap.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.NewApp(ctx, cfg, logger, bootstrap.WithVersion(version))
	if err != nil {
		logger.Fatal("failed to assemble application", logging.Err(err))
	}
	if err := bootstrap.WatchConfig(watchPath, app, logger); err != nil {
		logger.Warn("config watch disabled", logging.Err(err))
	}

	logger.Info("starting ExpTrack API server",
		logging.String("version", version),
		logging.Int("http_port", cfg.Server.Port),
		logging.Bool("grpc", cfg.GRPC.Enabled),
		logging.Int("grpc_port", cfg.GRPC.Port))

	if err := app.Run(ctx); err != nil {
		logger.Error("server stopped with error", logging.Err(err))
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// loadConfig reads path, falling back to environment-only defaults when the
// file does not exist.  The second result is the path to watch.
func loadConfig(path string) (*config.Config, string) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "warning: %s not found, using defaults and environment\n", path)
		cfg, err := config.LoadFromEnv()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
			os.Exit(1)
		}
		return cfg, ""
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	return cfg, path
}

//Personal.AI order the ending
