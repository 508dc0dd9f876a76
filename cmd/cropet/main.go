package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/OuyangWenyu/et-demands/internal/adapter/climatecsv"
	httpadapter "github.com/OuyangWenyu/et-demands/internal/adapter/http"
	kafkaadapter "github.com/OuyangWenyu/et-demands/internal/adapter/kafka"
	"github.com/OuyangWenyu/et-demands/internal/adapter/sqlite"
	"github.com/OuyangWenyu/et-demands/internal/adapter/tables"
	"github.com/OuyangWenyu/et-demands/internal/config"
	"github.com/OuyangWenyu/et-demands/internal/observability"
	"github.com/OuyangWenyu/et-demands/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err := run(cfg, logger); err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tbl, err := tables.Load(cfg.TablesPath, cfg.CropOneFlag)
	if err != nil {
		return err
	}
	logger.Info("tables loaded", "cells", len(tbl.Cells), "crops", len(tbl.Crops), "curves", len(tbl.Curves))

	reader := climatecsv.NewReader(climatecsv.Options{
		Dir:              cfg.ClimateDir,
		NameFormat:       cfg.ClimateNameFormat,
		TemperatureUnits: cfg.TemperatureUnits,
		WindHeight:       cfg.WindHeight,
		Start:            cfg.StartDate,
		End:              cfg.EndDate,
	})
	source := climatecsv.NewSource(tbl.Cells, climatecsv.NewCachedReader(reader, cfg.ClimateCacheSize))

	var loaders pipeline.MultiLoader
	if cfg.SQLitePath != "" {
		store, err := sqlite.Open(ctx, cfg.SQLitePath, logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := store.Close(); err != nil {
				logger.Error("sqlite close error", "error", err)
			}
		}()
		loaders = append(loaders, store)
		logger.Info("sqlite sink enabled", "path", cfg.SQLitePath)
	}
	if cfg.KafkaEnabled {
		writer := kafkaadapter.NewWriter(cfg, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		loaders = append(loaders, writer)
		logger.Info("kafka sink enabled", "topic", cfg.KafkaSinkTopic, "encoding", cfg.KafkaEncoding)
	}
	if len(loaders) == 0 {
		logger.Warn("no sink configured, results are discarded")
	}

	metrics := observability.NewMetrics()
	simulator := pipeline.NewCellSimulator(cfg.Options(), tbl.Crops, tbl.Curves, logger)
	p := pipeline.New(source, simulator, loaders, logger, metrics, cfg.Workers)

	if cfg.HTTPAddr != "" {
		srv := httpadapter.NewServer(cfg.HTTPAddr, p, p, metrics.Gatherer, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("http server shutdown error", "error", err)
			}
		}()
	}

	if err := p.Run(ctx); err != nil {
		return err
	}
	logger.Info("run complete", "cells", p.Progress().Loaded)
	return nil
}
