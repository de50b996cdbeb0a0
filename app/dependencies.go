package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/o11ylab/reqsim/config"
	"github.com/o11ylab/reqsim/logging"
	"github.com/o11ylab/reqsim/metrics"
	"github.com/o11ylab/reqsim/middleware"
	"github.com/o11ylab/reqsim/simulation"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection: the registry,
// logger and strategy are constructed once here and handed to the router
// and handlers, never looked up through globals.
type Dependencies struct {
	Config   *config.Config
	Logger   *logging.Logger
	Registry *metrics.Registry
	Strategy simulation.Strategy
}

// NewDependencies creates and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	deps.initSimulation(cfg)

	logger.Info("all dependencies initialized")
	return deps, nil
}

// Close flushes buffered log sinks. Call after the HTTP server has stopped.
func (d *Dependencies) Close(timeout time.Duration) error {
	return d.Logger.Close(timeout)
}

// initMetrics creates the metric registry and registers the request series
func (d *Dependencies) initMetrics() error {
	registry := metrics.NewRegistry()

	if err := middleware.RegisterRequestMetrics(registry); err != nil {
		return fmt.Errorf("failed to register request metrics: %w", err)
	}

	d.Registry = registry
	d.Logger.Info("metric registry initialized")
	return nil
}

// initSimulation creates the outcome strategy for the randomized endpoint
func (d *Dependencies) initSimulation(cfg *config.Config) {
	d.Strategy = simulation.NewRandomStrategy(cfg.Simulation.ErrorRatio, cfg.Simulation.SlowRatio)

	d.Logger.Info("simulation strategy initialized",
		zap.Float64("error_ratio", cfg.Simulation.ErrorRatio),
		zap.Float64("slow_ratio", cfg.Simulation.SlowRatio),
		zap.Duration("slow_delay", cfg.Simulation.SlowDelay))
}
