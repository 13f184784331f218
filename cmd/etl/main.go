package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/couchcryptid/water-utility-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/water-utility-etl/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/water-utility-etl/internal/adapter/kafka"
	"github.com/couchcryptid/water-utility-etl/internal/adapter/xlsx"
	"github.com/couchcryptid/water-utility-etl/internal/config"
	"github.com/couchcryptid/water-utility-etl/internal/dashboard"
	"github.com/couchcryptid/water-utility-etl/internal/domain"
	"github.com/couchcryptid/water-utility-etl/internal/observability"
	"github.com/couchcryptid/water-utility-etl/internal/pipeline"
	"golang.org/x/sync/errgroup"
)

func main() {
	once := flag.Bool("once", false, "normalize the report once and exit without serving the dashboard")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err := run(cfg, logger, *once); err != nil {
		logger.Error("service stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger, once bool) error {
	metrics := observability.NewMetrics()

	extractor, parsers, err := newExtractor(cfg, logger)
	if err != nil {
		return err
	}
	normalizer := pipeline.NewNormalizer(domain.Options{
		PeriodColumn:      cfg.PeriodColumn,
		GranularityColumn: cfg.GranularityColumn,
		IrrelevantColumns: cfg.IrrelevantColumns,
		PeriodParsers:     parsers,
	}, logger, metrics)
	loader := csvfile.NewArtifactWriter(cfg.OutputPath, logger)
	store := dashboard.NewStore()

	opts := []pipeline.Option{pipeline.WithNotifier(store)}
	if !once {
		opts = append(opts, pipeline.WithInterval(cfg.RunInterval))
	}
	var publisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		publisher = kafkaadapter.NewPublisher(cfg, logger)
		defer func() {
			if err := publisher.Close(); err != nil {
				logger.Error("kafka publisher close error", "error", err)
			}
		}()
		opts = append(opts, pipeline.WithPublisher(publisher))
		logger.Info("kafka publication enabled", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
	}

	p := pipeline.New(extractor, normalizer, loader, logger, metrics, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if once {
		_, err := p.RunOnce(ctx)
		return err
	}

	// Serve the last artifact while the first run is in progress.
	if previous, err := csvfile.ReadArtifact(cfg.OutputPath, cfg.PeriodColumn); err == nil {
		p.Restore(previous)
	} else if !errors.Is(err, os.ErrNotExist) {
		logger.Warn("previous artifact not restored", "path", cfg.OutputPath, "error", err)
	}

	charts, err := dashboard.NewCachedRenderer(dashboard.NewSVGRenderer(), cfg.ChartCacheSize, metrics, logger)
	if err != nil {
		return err
	}
	srv := httpadapter.NewServer(cfg.HTTPAddr, p, store, charts, metrics, logger)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		err := p.Run(gctx)
		var cfgErr *domain.ConfigurationError
		if errors.As(err, &cfgErr) {
			return err
		}
		// Other failures leave the previous artifact in place; keep serving it.
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
		return nil
	})

	err = g.Wait()
	logger.Info("shutdown complete")
	return err
}

// newExtractor picks the source reader from the input file extension. Workbooks
// also get the serial-date period parser, since date cells are read raw.
func newExtractor(cfg *config.Config, logger *slog.Logger) (pipeline.Extractor, []domain.PeriodParser, error) {
	parsers := domain.DefaultPeriodParsers()
	switch strings.ToLower(filepath.Ext(cfg.InputPath)) {
	case ".xlsx", ".xlsm":
		return xlsx.NewReader(cfg.InputPath, cfg.InputSheet, logger), append(parsers, xlsx.SerialDate), nil
	case ".csv":
		return csvfile.NewReader(cfg.InputPath, logger), parsers, nil
	default:
		return nil, nil, fmt.Errorf("unsupported INPUT_PATH extension %q: want .xlsx, .xlsm or .csv", filepath.Ext(cfg.InputPath))
	}
}
