package logging

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config describes the sinks the logger dispatches to. A nil sink config
// disables that sink.
type Config struct {
	Console *ConsoleConfig
	File    *FileConfig
	Remote  *RemoteConfig
}

// ConsoleConfig configures the synchronous stdout sink
type ConsoleConfig struct {
	Level string
}

// FileConfig configures the rotating file sink. Rotated files get a
// timestamped name next to Path; files older than MaxAgeDays are removed.
type FileConfig struct {
	Path       string
	MaxSizeMB  int
	MaxAgeDays int
	MaxBackups int
	Level      string
}

// RemoteConfig configures the best-effort remote collector sink
type RemoteConfig struct {
	URL       string
	QueueSize int
	Timeout   time.Duration
	Level     string
}

// Logger serializes structured records and dispatches them to every
// configured sink. Each sink filters by its own minimum level.
type Logger struct {
	zap    *zap.Logger
	remote *RemoteSink
}

// New builds a Logger from the given sink configuration
func New(cfg Config) (*Logger, error) {
	encoder := zapcore.NewJSONEncoder(encoderConfig())

	var cores []zapcore.Core
	var remote *RemoteSink

	if cfg.Console != nil {
		level, err := ParseLevel(cfg.Console.Level)
		if err != nil {
			return nil, fmt.Errorf("console sink: %w", err)
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), atLeast(level)))
	}

	if cfg.File != nil {
		level, err := ParseLevel(cfg.File.Level)
		if err != nil {
			return nil, fmt.Errorf("file sink: %w", err)
		}
		rotator := &lumberjack.Logger{
			Filename:   cfg.File.Path,
			MaxSize:    cfg.File.MaxSizeMB,
			MaxAge:     cfg.File.MaxAgeDays,
			MaxBackups: cfg.File.MaxBackups,
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(rotator), atLeast(level)))
	}

	if cfg.Remote != nil {
		level, err := ParseLevel(cfg.Remote.Level)
		if err != nil {
			return nil, fmt.Errorf("remote sink: %w", err)
		}
		remote = NewRemoteSink(*cfg.Remote)
		cores = append(cores, zapcore.NewCore(encoder, remote, atLeast(level)))
	}

	if len(cores) == 0 {
		return &Logger{zap: zap.NewNop()}, nil
	}

	return &Logger{
		zap:    zap.New(zapcore.NewTee(cores...)),
		remote: remote,
	}, nil
}

// NewNop returns a logger that discards everything, for tests
func NewNop() *Logger {
	return &Logger{zap: zap.NewNop()}
}

// Debug logs a message at debug level
func (l *Logger) Debug(msg string, fields ...zap.Field) {
	l.zap.Debug(msg, fields...)
}

// Info logs a message at info level
func (l *Logger) Info(msg string, fields ...zap.Field) {
	l.zap.Info(msg, fields...)
}

// Warn logs a message at warn level
func (l *Logger) Warn(msg string, fields ...zap.Field) {
	l.zap.Warn(msg, fields...)
}

// Error logs a message at error level
func (l *Logger) Error(msg string, fields ...zap.Field) {
	l.zap.Error(msg, fields...)
}

// With returns a logger with the given fields attached to every record
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{zap: l.zap.With(fields...), remote: l.remote}
}

// Close flushes buffered sinks and stops the remote dispatcher, waiting up
// to timeout for queued records to be delivered
func (l *Logger) Close(timeout time.Duration) error {
	// stdout Sync fails on some platforms; the flush itself is best effort
	_ = l.zap.Sync()

	if l.remote != nil {
		return l.remote.Close(timeout)
	}
	return nil
}

// ParseLevel converts a level name to a zapcore level
func ParseLevel(level string) (zapcore.Level, error) {
	switch level {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info", "":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", level)
	}
}

// atLeast creates a level enabler admitting min and everything above it
func atLeast(min zapcore.Level) zap.LevelEnablerFunc {
	return func(level zapcore.Level) bool {
		return level >= min
	}
}

// encoderConfig returns the JSON encoding used by every sink. The
// timestamp key is always present and ISO-8601 formatted.
func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "timestamp"
	cfg.MessageKey = "message"
	cfg.LevelKey = "level"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg
}
