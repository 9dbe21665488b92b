// Package main runs the pipeline on a schedule with bounded retry,
// exposing Prometheus metrics and a health endpoint.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/M-Afifff/coingecko-project/internal/coingecko"
	"github.com/M-Afifff/coingecko-project/internal/config"
	"github.com/M-Afifff/coingecko-project/internal/extract"
	"github.com/M-Afifff/coingecko-project/internal/observability"
	"github.com/M-Afifff/coingecko-project/internal/pipeline"
	"github.com/M-Afifff/coingecko-project/internal/schedule"
	"github.com/M-Afifff/coingecko-project/internal/storage"
	chstore "github.com/M-Afifff/coingecko-project/internal/storage/clickhouse"
	"github.com/M-Afifff/coingecko-project/internal/storage/memory"
	pgstore "github.com/M-Afifff/coingecko-project/internal/storage/postgres"
	"github.com/M-Afifff/coingecko-project/internal/transform"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to YAML config file")
	flag.Parse()

	logger := log.New(os.Stdout, "[worker] ", log.LstdFlags)

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Fatalf("Config error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Metrics and health endpoints
	if cfg.Worker.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			logger.Printf("Starting metrics server on %s", cfg.Worker.MetricsAddr)
			if err := http.ListenAndServe(cfg.Worker.MetricsAddr, mux); err != nil && err != http.ErrServerClosed {
				logger.Printf("Metrics server error: %v", err)
			}
		}()
	}

	store, cleanup, err := buildStore(ctx, cfg)
	if err != nil {
		logger.Fatalf("Store error: %v", err)
	}
	defer cleanup()

	orch := pipeline.New(pipeline.Options{
		Extractor:        buildExtractor(cfg),
		Transformer:      transform.New(transform.WithLogger(log.New(os.Stdout, "[transform] ", log.LstdFlags))),
		Store:            store,
		SnapshotLimit:    cfg.Pipeline.SnapshotLimit,
		SkipExistingDate: cfg.Pipeline.SkipExistingDate,
		Logger:           log.New(os.Stdout, "[pipeline] ", log.LstdFlags),
	})

	runner := schedule.NewRunner(schedule.RunnerOptions{
		Pipeline:   orch,
		Interval:   cfg.Worker.Interval,
		MaxRetries: cfg.Worker.MaxRetries,
		RetryDelay: cfg.Worker.RetryDelay,
		Logger:     logger,
	})

	// Graceful shutdown: first signal cancels, second forces exit.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()
		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		}
	}()

	if err := runner.Run(ctx); err != nil && err != context.Canceled {
		logger.Fatalf("Scheduler error: %v", err)
	}
	logger.Println("Worker stopped")
}

func buildExtractor(cfg *config.PipelineConfig) *extract.Extractor {
	opts := []coingecko.ClientOption{
		coingecko.WithBaseURL(cfg.API.BaseURL),
		coingecko.WithTimeout(cfg.API.Timeout),
	}
	if cfg.API.APIKey != "" {
		opts = append(opts, coingecko.WithAPIKey(cfg.API.APIKey))
	}
	client := coingecko.NewClient(opts...)
	return extract.New(client, log.New(os.Stdout, "[extract] ", log.LstdFlags))
}

func buildStore(ctx context.Context, cfg *config.PipelineConfig) (storage.MarketStore, func(), error) {
	switch cfg.Database.Store {
	case config.StorePostgres:
		pool, err := pgstore.NewPool(ctx, cfg.Database.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		return pgstore.NewMarketStore(pool), pool.Close, nil
	case config.StoreClickhouse:
		conn, err := chstore.NewConn(ctx, cfg.Database.ClickhouseDSN)
		if err != nil {
			return nil, nil, err
		}
		return chstore.NewMarketStore(conn), func() { conn.Close() }, nil
	case config.StoreMemory:
		return memory.NewMarketStore(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported store: %s", cfg.Database.Store)
	}
}
