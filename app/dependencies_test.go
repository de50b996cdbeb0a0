package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/o11ylab/reqsim/config"
	"github.com/o11ylab/reqsim/logging"
	"github.com/o11ylab/reqsim/middleware"
)

func testConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		Simulation: config.SimulationConfig{
			ErrorRatio: 0.2,
			SlowRatio:  0.2,
			SlowDelay:  time.Millisecond,
		},
	}
}

func TestNewDependencies(t *testing.T) {
	t.Run("wires registry, strategy and request metrics", func(t *testing.T) {
		deps, err := NewDependencies(context.Background(), testConfig(), logging.NewNop())
		require.NoError(t, err)

		assert.NotNil(t, deps.Registry)
		assert.NotNil(t, deps.Strategy)

		// the request series must already exist
		err = middleware.RegisterRequestMetrics(deps.Registry)
		assert.Error(t, err)
	})

	t.Run("each instance owns a fresh registry", func(t *testing.T) {
		first, err := NewDependencies(context.Background(), testConfig(), logging.NewNop())
		require.NoError(t, err)
		second, err := NewDependencies(context.Background(), testConfig(), logging.NewNop())
		require.NoError(t, err)

		require.NoError(t, first.Registry.IncrementCounter(middleware.RequestsTotalMetric,
			map[string]string{"method": "GET", "endpoint": "/normal", "status": "200"}))

		text, err := second.Registry.ExportText()
		require.NoError(t, err)
		assert.NotContains(t, text, `endpoint="/normal"`)
	})

	t.Run("close flushes the logger", func(t *testing.T) {
		deps, err := NewDependencies(context.Background(), testConfig(), logging.NewNop())
		require.NoError(t, err)
		assert.NoError(t, deps.Close(time.Second))
	})
}

func TestNewLogger(t *testing.T) {
	t.Run("builds sinks from configuration", func(t *testing.T) {
		cfg := testConfig()
		cfg.Logging = config.LoggingConfig{
			Level: "info",
			File: config.FileSinkConfig{
				Enabled:    true,
				Path:       filepath.Join(t.TempDir(), "reqsim.log"),
				MaxSizeMB:  10,
				MaxAgeDays: 14,
				Level:      "info",
			},
		}

		logger, err := NewLogger(cfg)
		require.NoError(t, err)
		logger.Info("startup")
		assert.NoError(t, logger.Close(time.Second))
	})

	t.Run("no sinks enabled still yields a logger", func(t *testing.T) {
		logger, err := NewLogger(testConfig())
		require.NoError(t, err)
		logger.Info("discarded")
		assert.NoError(t, logger.Close(time.Second))
	})
}
