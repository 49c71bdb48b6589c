package main

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"

	"github.com/c360/balanceguard/config"
	"github.com/c360/balanceguard/engine"
	"github.com/c360/balanceguard/errors"
	"github.com/c360/balanceguard/metric"
	"github.com/c360/balanceguard/pkg/tracing"
	"github.com/c360/balanceguard/result"
	"github.com/c360/balanceguard/rule"
	"github.com/c360/balanceguard/validator"
)

// errRejected marks a completed run whose change was rejected. The report has
// already been printed.
var errRejected = stderrors.New("change rejected")

type rootOptions struct {
	configPath string
	logLevel   string
	logFormat  string
}

// app holds the wired components for one command invocation
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	metrics   *metric.MetricsRegistry
	registry  *rule.Registry
	engine    *engine.Engine
	processor *result.Processor
	validator *validator.Validator

	shutdownTracing tracing.ShutdownFunc
}

func loadConfig(opts rootOptions) (*config.Config, error) {
	loader := config.NewLoader()
	if opts.configPath != "" {
		loader.AddLayer(opts.configPath)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}

	// Flags win over file and environment
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	if opts.logFormat != "" {
		cfg.Logging.Format = opts.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newApp(ctx context.Context, opts rootOptions, logOutput io.Writer) (*app, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	logger := setupLogger(logOutput, cfg.Logging.Level, cfg.Logging.Format)

	shutdown, err := tracing.Setup(ctx, tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: cfg.Tracing.ServiceName,
		SampleRatio: cfg.Tracing.SampleRatio,
	})
	if err != nil {
		return nil, errors.WrapFatal(err, "CLI", "newApp", "tracing setup")
	}

	metrics := metric.NewMetricsRegistry()
	registry := rule.NewDefaultRegistry(logger)
	if err := cfg.Apply(registry); err != nil {
		_ = shutdown(ctx)
		return nil, err
	}

	eng := engine.New(cfg.EngineConfig(), logger, metrics)
	proc := result.New(registry, cfg.ProcessorOptions(), logger, metrics)

	return &app{
		cfg:             cfg,
		logger:          logger,
		metrics:         metrics,
		registry:        registry,
		engine:          eng,
		processor:       proc,
		validator:       validator.New(registry, eng, proc, logger, validator.WithMetrics(metrics)),
		shutdownTracing: shutdown,
	}, nil
}

func (a *app) Close(ctx context.Context) error {
	return stderrors.Join(
		a.processor.Close(),
		a.engine.Close(),
		a.shutdownTracing(ctx),
	)
}
