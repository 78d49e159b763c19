// Cache invalidation worker entry point for ExpTrack.  It consumes
// metrics-updated events from Kafka and drops the cached upstream payloads
// of the affected projects.
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

const defaultWorkerConfigPath = "configs/config.yaml"

var version = "dev"

func main() {
	configPath := flag.String("config", defaultWorkerConfigPath, "path to configuration file")
	healthAddr := flag.String("health-addr", bootstrap.DefaultWorkerHealthAddr, "address of the health and metrics endpoint")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
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

	worker, err := bootstrap.NewWorker(ctx, cfg, logger, *healthAddr, bootstrap.WithVersion(version))
	if err != nil {
		logger.Fatal("failed to initialize worker", logging.Err(err))
	}
	if err := bootstrap.WatchConfig(*configPath, worker, logger); err != nil {
		logger.Warn("config watch disabled", logging.Err(err))
	}

	logger.Info("starting ExpTrack worker",
		logging.String("version", version),
		logging.Strings("brokers", cfg.Kafka.Brokers),
		logging.String("health_addr", *healthAddr))

	if err := worker.Run(ctx); err != nil {
		logger.Error("worker stopped with error", logging.Err(err))
		os.Exit(1)
	}
	logger.Info("worker stopped")
}

//Personal.AI order the ending
