// Package main runs one pipeline invocation: a market snapshot by
// default, or a historical range with -days. Exits non-zero when the
// run fails.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/M-Afifff/coingecko-project/internal/coingecko"
	"github.com/M-Afifff/coingecko-project/internal/config"
	"github.com/M-Afifff/coingecko-project/internal/domain"
	"github.com/M-Afifff/coingecko-project/internal/extract"
	"github.com/M-Afifff/coingecko-project/internal/pipeline"
	"github.com/M-Afifff/coingecko-project/internal/storage"
	chstore "github.com/M-Afifff/coingecko-project/internal/storage/clickhouse"
	"github.com/M-Afifff/coingecko-project/internal/storage/memory"
	pgstore "github.com/M-Afifff/coingecko-project/internal/storage/postgres"
	"github.com/M-Afifff/coingecko-project/internal/transform"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (empty: in-memory dry run)")
	days := flag.Int("days", 0, "Historical range in days (0: single snapshot)")
	limit := flag.Int("limit", 0, "Snapshot asset count override")
	flag.Parse()

	logger := log.New(os.Stdout, "[pipeline] ", log.LstdFlags)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Fatalf("Config error: %v", err)
	}
	if *limit > 0 {
		cfg.Pipeline.SnapshotLimit = *limit
	}

	// Cancel on SIGINT/SIGTERM; a cancelled run reports as failed.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, cancelling run...", sig)
		cancel()
	}()

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
		SkipExistingDate: cfg.Pipeline.SkipExistingDate && *days == 0,
		Logger:           logger,
	})

	var result *domain.RunResult
	if *days > 0 {
		result = orch.RunHistorical(ctx, *days)
	} else {
		result = orch.Run(ctx)
	}

	out, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(out))

	if !result.Success {
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.PipelineConfig, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.LoadAndValidate(path)
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
