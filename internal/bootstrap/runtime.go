package bootstrap

import (
	"github.com/turtacn/ExpTrack/internal/config"
	"github.com/turtacn/ExpTrack/internal/infrastructure/monitoring/logging"
)

// NewLogger builds the process logger from the log section.
func NewLogger(c config.LogConfig) (logging.Logger, error) {
	lc := logging.LogConfig{
		Level:       logging.ParseLevel(c.Level),
		Format:      c.Format,
		Development: c.Development,
	}
	if len(c.OutputPaths) > 0 {
		lc.OutputPaths = c.OutputPaths
	}
	return logging.NewLogger(lc)
}

// Reconfigurable is implemented by App and Worker.
type Reconfigurable interface {
	ApplyConfig(cfg *config.Config)
}

// WatchConfig hot-applies changes of the file at path to target.  An empty
// path is a no-op.  Changes that fail to load or validate are logged and
// skipped.
func WatchConfig(path string, target Reconfigurable, logger logging.Logger) error {
	if path == "" {
		return nil
	}
	err := config.Watch(path, func(cfg *config.Config) {
		logger.Info("configuration file changed", logging.String("path", path))
		target.ApplyConfig(cfg)
	}, func(err error) {
		logger.Warn("ignoring invalid configuration change", logging.String("path", path), logging.Err(err))
	})
	if err != nil {
		return err
	}
	logger.Debug("watching configuration file", logging.String("path", path))
	return nil
}

//Personal.AI order the ending
