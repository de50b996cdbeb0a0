package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		wantErr bool
		check   func(*testing.T, *Config)
	}{
		{
			name: "default configuration",
			envVars: map[string]string{
				"ENVIRONMENT": "development",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "development", cfg.Environment)
				assert.Equal(t, "0.0.0.0", cfg.Server.Host)
				assert.Equal(t, 4000, cfg.Server.Port)
				assert.Equal(t, "0.0.0.0:4000", cfg.Server.Address())
				assert.Equal(t, 0.2, cfg.Simulation.ErrorRatio)
				assert.Equal(t, 0.2, cfg.Simulation.SlowRatio)
				assert.Equal(t, 3*time.Second, cfg.Simulation.SlowDelay)
				assert.True(t, cfg.Logging.Console.Enabled)
				assert.True(t, cfg.Logging.File.Enabled)
				assert.False(t, cfg.Logging.Remote.Enabled)
				assert.Equal(t, 14, cfg.Logging.File.MaxAgeDays)
			},
		},
		{
			name: "development defaults to debug logging",
			envVars: map[string]string{
				"ENVIRONMENT": "development",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.True(t, cfg.IsDevelopment())
				assert.Equal(t, "debug", cfg.Logging.Level)
			},
		},
		{
			name: "production defaults to info logging",
			envVars: map[string]string{
				"ENVIRONMENT": "production",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.True(t, cfg.IsProduction())
				assert.Equal(t, "info", cfg.Logging.Level)
			},
		},
		{
			name: "PORT takes precedence over SERVER_PORT",
			envVars: map[string]string{
				"PORT":        "9000",
				"SERVER_PORT": "9001",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9000, cfg.Server.Port)
			},
		},
		{
			name: "simulation band overrides",
			envVars: map[string]string{
				"SIM_ERROR_RATIO": "0.5",
				"SIM_SLOW_RATIO":  "0.1",
				"SIM_SLOW_DELAY":  "250ms",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 0.5, cfg.Simulation.ErrorRatio)
				assert.Equal(t, 0.1, cfg.Simulation.SlowRatio)
				assert.Equal(t, 250*time.Millisecond, cfg.Simulation.SlowDelay)
			},
		},
		{
			name: "remote sink configuration",
			envVars: map[string]string{
				"LOG_REMOTE_ENABLED":    "true",
				"LOG_REMOTE_URL":        "http://collector:3100/push",
				"LOG_REMOTE_QUEUE_SIZE": "256",
				"LOG_REMOTE_LEVEL":      "warn",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.True(t, cfg.Logging.Remote.Enabled)
				assert.Equal(t, "http://collector:3100/push", cfg.Logging.Remote.URL)
				assert.Equal(t, 256, cfg.Logging.Remote.QueueSize)
				assert.Equal(t, "warn", cfg.Logging.Remote.Level)
			},
		},
		{
			name: "bands summing above one are rejected",
			envVars: map[string]string{
				"SIM_ERROR_RATIO": "0.7",
				"SIM_SLOW_RATIO":  "0.6",
			},
			wantErr: true,
		},
		{
			name: "invalid log level is rejected",
			envVars: map[string]string{
				"LOG_LEVEL": "loud",
			},
			wantErr: true,
		},
		{
			name: "remote sink without URL is rejected",
			envVars: map[string]string{
				"LOG_REMOTE_ENABLED": "true",
			},
			wantErr: true,
		},
		{
			name: "out-of-range port is rejected",
			envVars: map[string]string{
				"PORT": "70000",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			cfg, err := New(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}
