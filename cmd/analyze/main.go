package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mohamedkhairy/crypto-signals/internal/config"
	"github.com/mohamedkhairy/crypto-signals/internal/data"
	"github.com/mohamedkhairy/crypto-signals/internal/market"
	"github.com/mohamedkhairy/crypto-signals/internal/models"
	"github.com/mohamedkhairy/crypto-signals/internal/storage"
	"github.com/mohamedkhairy/crypto-signals/pkg/logger"
)

type options struct {
	coin     string
	fixtures bool
	history  bool
}

func main() {
	var opts options
	flag.StringVar(&opts.coin, "coin", "", "only analyze this coin id")
	flag.BoolVar(&opts.fixtures, "fixtures", false, "use the bundled fixture data instead of the live provider")
	flag.BoolVar(&opts.history, "history", false, "fetch price history so indicators are measured")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.LogLevel, cfg.Environment); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(context.Background(), cfg, opts, os.Stdout); err != nil {
		logger.Error("Analysis failed", logger.ErrorField(err))
		logger.Sync()
		os.Exit(1)
	}
}

// run fetches the markets once and writes the analyses as indented JSON.
// Fetch failures are served from fixtures; only setup errors are returned.
func run(ctx context.Context, cfg *config.Config, opts options, out io.Writer) error {
	marketCfg := cfg.MarketData
	if opts.fixtures {
		marketCfg.Provider = data.ProviderMock
	}

	marketProvider, sentimentProvider, err := data.NewProviders(data.NewProviderFactory(), marketCfg, cfg.Sentiment)
	if err != nil {
		return err
	}

	service, err := market.NewService(marketCfg, cfg.Sentiment, market.Dependencies{
		Markets:   marketProvider,
		Sentiment: sentimentProvider,
		Redis:     storage.NewMockRedisClient(),
	})
	if err != nil {
		return err
	}

	if err := service.Refresh(ctx, false); err != nil {
		logger.Warn("Market fetch failed, using fallback data",
			logger.String("provider", marketProvider.Name()),
			logger.ErrorField(err),
		)
	}

	ids := []string{strings.ToLower(strings.TrimSpace(opts.coin))}
	if ids[0] == "" {
		ids = ids[:0]
		for _, s := range service.Markets().Snapshots {
			ids = append(ids, s.ID)
		}
	}

	analyses := make([]models.Analysis, 0, len(ids))
	for _, id := range ids {
		a, err := service.Analysis(ctx, id, opts.history)
		if errors.Is(err, models.ErrCoinNotFound) {
			return fmt.Errorf("coin %q is not in the market list", id)
		}
		if err != nil {
			return err
		}
		analyses = append(analyses, a)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(analyses)
}
