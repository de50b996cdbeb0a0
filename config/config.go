package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/o11ylab/reqsim/utils"
)

// Config represents the complete application configuration
type Config struct {
	Server      ServerConfig
	Logging     LoggingConfig
	Simulation  SimulationConfig
	Environment string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int `validate:"min=1,max=65535"`
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// LoggingConfig holds configuration for the structured logger and its sinks
type LoggingConfig struct {
	Level   string `validate:"oneof=debug info warn error"`
	Console ConsoleSinkConfig
	File    FileSinkConfig
	Remote  RemoteSinkConfig
}

// ConsoleSinkConfig configures the stdout sink
type ConsoleSinkConfig struct {
	Enabled bool
	Level   string `validate:"oneof=debug info warn error"`
}

// FileSinkConfig configures the rotating file sink
type FileSinkConfig struct {
	Enabled    bool
	Path       string
	MaxSizeMB  int    `validate:"min=1"`
	MaxAgeDays int    `validate:"min=1"`
	MaxBackups int    `validate:"min=0"`
	Level      string `validate:"oneof=debug info warn error"`
}

// RemoteSinkConfig configures the best-effort remote collector sink
type RemoteSinkConfig struct {
	Enabled   bool
	URL       string
	QueueSize int    `validate:"min=1"`
	Timeout   time.Duration
	Level     string `validate:"oneof=debug info warn error"`
}

// SimulationConfig holds the outcome banding for the randomized endpoint.
// A draw in [0, ErrorRatio) is a simulated server error, a draw in
// [ErrorRatio, ErrorRatio+SlowRatio) is a slow success delayed by SlowDelay,
// and everything else is a fast success.
type SimulationConfig struct {
	ErrorRatio float64       `validate:"gte=0,lte=1"`
	SlowRatio  float64       `validate:"gte=0,lte=1"`
	SlowDelay  time.Duration `validate:"min=0"`
}

// New creates a new Config instance by loading environment variables
func New(ctx context.Context) (*Config, error) {
	// Load .env file if it exists (optional, env vars take precedence)
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getPort(),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", defaultLogLevel()),
			Console: ConsoleSinkConfig{
				Enabled: getEnvAsBool("LOG_CONSOLE_ENABLED", true),
				Level:   getEnv("LOG_CONSOLE_LEVEL", getEnv("LOG_LEVEL", defaultLogLevel())),
			},
			File: FileSinkConfig{
				Enabled:    getEnvAsBool("LOG_FILE_ENABLED", true),
				Path:       getEnv("LOG_FILE_PATH", "logs/reqsim.log"),
				MaxSizeMB:  getEnvAsInt("LOG_FILE_MAX_SIZE_MB", 100),
				MaxAgeDays: getEnvAsInt("LOG_FILE_MAX_AGE_DAYS", 14),
				MaxBackups: getEnvAsInt("LOG_FILE_MAX_BACKUPS", 14),
				Level:      getEnv("LOG_FILE_LEVEL", "info"),
			},
			Remote: RemoteSinkConfig{
				Enabled:   getEnvAsBool("LOG_REMOTE_ENABLED", false),
				URL:       getEnv("LOG_REMOTE_URL", ""),
				QueueSize: getEnvAsInt("LOG_REMOTE_QUEUE_SIZE", 1024),
				Timeout:   getEnvAsDuration("LOG_REMOTE_TIMEOUT", 5*time.Second),
				Level:     getEnv("LOG_REMOTE_LEVEL", "info"),
			},
		},
		Simulation: SimulationConfig{
			ErrorRatio: getEnvAsFloat("SIM_ERROR_RATIO", 0.2),
			SlowRatio:  getEnvAsFloat("SIM_SLOW_RATIO", 0.2),
			SlowDelay:  getEnvAsDuration("SIM_SLOW_DELAY", 3*time.Second),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate performs validation of configuration values
func (c *Config) Validate() error {
	if err := utils.ValidateStruct(c); err != nil {
		return err
	}

	if c.Simulation.ErrorRatio+c.Simulation.SlowRatio > 1 {
		return fmt.Errorf("simulation bands exceed 1.0: error=%v slow=%v",
			c.Simulation.ErrorRatio, c.Simulation.SlowRatio)
	}

	if c.Logging.Remote.Enabled && c.Logging.Remote.URL == "" {
		return fmt.Errorf("LOG_REMOTE_URL is required when the remote sink is enabled")
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// defaultLogLevel picks the log level from the environment flag: debug in
// development, info everywhere else
func defaultLogLevel() string {
	env := os.Getenv("ENVIRONMENT")
	if env == "" || env == "development" || env == "dev" {
		return "debug"
	}
	return "info"
}

// Helper functions

// getPort returns the server port from PORT or SERVER_PORT env vars (default: 4000)
func getPort() int {
	if value := os.Getenv("PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	if value := os.Getenv("SERVER_PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	return 4000
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
