package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/flowgridgo/internal/ctxlog"
	"github.com/vk/flowgridgo/internal/hcl"
	"github.com/vk/flowgridgo/internal/invoke"
	"github.com/vk/flowgridgo/internal/manifest"
	"github.com/vk/flowgridgo/internal/modelstore"
	"github.com/vk/flowgridgo/internal/typesys"
)

// App encapsulates the application's dependencies, configuration, and
// lifecycle: the manifest library, the module invoker, and the model
// store, behind one Run-a-job entrypoint.
type App struct {
	outW    io.Writer
	logger  *slog.Logger
	config  *Config
	library *manifest.Library
	invoker invoke.Invoker
	models  modelstore.Store
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App with its own isolated logger and manifest library.
// Passing a nil invoker selects the default executable-spawning one.
func NewApp(outW io.Writer, cfg *Config, invoker invoke.Invoker) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	loader, err := hcl.NewLoader(ctx, cfg.ModulesPath, cfg.PipelinesPath)
	if err != nil {
		// A failure to index manifests is a fatal startup error.
		panic(fmt.Errorf("failed to index manifests: %w", err))
	}
	library := manifest.NewLibrary(loader, typesys.NewRegistry())
	logger.Debug("Manifest library initialized.")

	if invoker == nil {
		invoker = &invoke.ExecInvoker{BinDir: cfg.ModuleBinDir}
	}

	var models modelstore.Store
	if cfg.ModelsPath != "" {
		models = modelstore.NewDirStore(cfg.ModelsPath)
		logger.Debug("Local model store configured.", "root", cfg.ModelsPath)
	}

	return &App{
		outW:    outW,
		logger:  logger,
		config:  cfg,
		library: library,
		invoker: invoker,
		models:  models,
	}
}

// Library returns the application's manifest library. This is primarily
// for testing.
func (a *App) Library() *manifest.Library {
	return a.library
}
