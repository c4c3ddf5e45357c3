package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/seqworks/lanesub/internal/ctxlog"
	"github.com/seqworks/lanesub/internal/runconfig"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	config *runconfig.Config
	dryRun bool
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger and a loaded run
// configuration.
func NewApp(outW io.Writer, appConfig *Config) *App {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	cfg, err := runconfig.Load(ctx, appConfig.ConfigPath)
	if err != nil {
		// A failure to load config is a fatal startup error.
		panic(fmt.Errorf("failed to load run configuration: %w", err))
	}
	logger.Debug("Run configuration loaded.", "run_id", cfg.Run.ID)

	return &App{
		outW:   outW,
		logger: logger,
		config: cfg,
		dryRun: appConfig.DryRun,
	}
}

// RunConfig returns the loaded run configuration. This is primarily for testing.
func (a *App) RunConfig() *runconfig.Config {
	return a.config
}
