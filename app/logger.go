package app

import (
	"github.com/o11ylab/reqsim/config"
	"github.com/o11ylab/reqsim/logging"
)

// NewLogger builds the structured logger from the sink configuration
func NewLogger(cfg *config.Config) (*logging.Logger, error) {
	logCfg := logging.Config{}

	if cfg.Logging.Console.Enabled {
		logCfg.Console = &logging.ConsoleConfig{
			Level: cfg.Logging.Console.Level,
		}
	}

	if cfg.Logging.File.Enabled {
		logCfg.File = &logging.FileConfig{
			Path:       cfg.Logging.File.Path,
			MaxSizeMB:  cfg.Logging.File.MaxSizeMB,
			MaxAgeDays: cfg.Logging.File.MaxAgeDays,
			MaxBackups: cfg.Logging.File.MaxBackups,
			Level:      cfg.Logging.File.Level,
		}
	}

	if cfg.Logging.Remote.Enabled {
		logCfg.Remote = &logging.RemoteConfig{
			URL:       cfg.Logging.Remote.URL,
			QueueSize: cfg.Logging.Remote.QueueSize,
			Timeout:   cfg.Logging.Remote.Timeout,
			Level:     cfg.Logging.Remote.Level,
		}
	}

	return logging.New(logCfg)
}
