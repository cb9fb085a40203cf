package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/posko/internal/cache"
	"github.com/Veraticus/posko/internal/config"
	"github.com/Veraticus/posko/internal/metrics"
	"github.com/Veraticus/posko/internal/model"
	"github.com/Veraticus/posko/internal/pipeline"
	"github.com/Veraticus/posko/internal/sheets"
	"github.com/Veraticus/posko/internal/source"
	"github.com/spf13/viper"
)

// app bundles what every data command needs.
type app struct {
	dash     *config.Dashboard
	registry *source.Registry
	logger   *slog.Logger
	cfg      pipeline.Config
}

// loadApp reads the configuration and builds the fetchers it needs. The
// Google Sheets client is only created when a source uses it.
func loadApp(ctx context.Context) (*app, error) {
	v := viper.GetViper()

	dash, err := config.Load(v)
	if err != nil {
		return nil, err
	}

	cfg, err := dash.PipelineConfig()
	if err != nil {
		return nil, err
	}

	logger := slog.Default()
	registry, err := newRegistry(ctx, v, dash.Backends(), logger)
	if err != nil {
		return nil, err
	}

	return &app{dash: dash, cfg: cfg, registry: registry, logger: logger}, nil
}

func newRegistry(ctx context.Context, v *viper.Viper, backends []model.Backend, logger *slog.Logger) (*source.Registry, error) {
	registry := source.NewRegistry()
	registry.Register(model.BackendXLSX, source.NewXLSXFetcher(logger))
	registry.Register(model.BackendSQLite, source.NewSQLiteFetcher(logger))

	for _, b := range backends {
		if b != model.BackendSheets {
			continue
		}
		sheetsCfg, err := config.LoadSheetsConfig(v)
		if err != nil {
			return nil, fmt.Errorf("google sheets: %w", err)
		}
		reader, err := sheets.NewReader(ctx, *sheetsCfg, logger)
		if err != nil {
			return nil, fmt.Errorf("google sheets: %w", err)
		}
		registry.Register(model.BackendSheets, reader)
	}

	return registry, nil
}

func (a *app) pipeline(opts ...pipeline.Option) *pipeline.Pipeline {
	return pipeline.New(a.cfg, a.registry, a.logger, opts...)
}

// memo wraps the pipeline in the shared result cache. Every run is
// recorded when recorder is non-nil.
func (a *app) memo(recorder *metrics.Recorder) *cache.Memo[*pipeline.Result] {
	p := a.pipeline()
	return cache.NewMemo(a.dash.CacheTTL, func(ctx context.Context) (*pipeline.Result, error) {
		res, err := p.Run(ctx)
		if recorder != nil {
			recorder.Observe(res, err)
		}
		return res, err
	})
}
