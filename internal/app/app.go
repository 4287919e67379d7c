// Package app wires the driver together: configuration, logging, input
// loaders, and the mutation pipeline applied to every dumped region.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/schedmut/internal/config"
	"github.com/vk/schedmut/internal/ctxlog"
	"github.com/vk/schedmut/internal/mutation"
)

// App encapsulates the driver's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	pipeline *mutation.Pipeline
	regions  []*config.Region
}

// NewApp loads all inputs and assembles the mutation pipeline. Anything
// that should stop the run before the first region is touched surfaces here
// as an error.
func NewApp(ctx context.Context, outW io.Writer, cfg *Config, pipelines config.PipelineLoader, regions config.RegionLoader) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("Logger configured successfully.")

	pipelineSpec := DefaultPipeline()
	if cfg.PipelinePath != "" {
		spec, err := pipelines.LoadPipeline(ctx, cfg.PipelinePath)
		if err != nil {
			return nil, fmt.Errorf("failed to load pipeline: %w", err)
		}
		pipelineSpec = spec
	} else {
		logger.Debug("No pipeline file given, using the stock pass sequence.")
	}

	pipeline, err := buildPipeline(pipelineSpec)
	if err != nil {
		return nil, err
	}
	logger.Debug("Mutation pipeline assembled.", "pass_count", len(pipeline.Mutations()))

	regionSpecs, err := regions.LoadRegions(ctx, cfg.RegionsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load region dumps: %w", err)
	}

	return &App{
		outW:     outW,
		logger:   logger,
		pipeline: pipeline,
		regions:  regionSpecs,
	}, nil
}

// Pipeline returns the assembled mutation pipeline. This is primarily for
// testing.
func (a *App) Pipeline() *mutation.Pipeline {
	return a.pipeline
}
