package main

import (
	"context"
	"net/http"
	"os"

	"github.com/gonbooster/AIArriendo-sub002/api"
	"github.com/gonbooster/AIArriendo-sub002/config"
	"github.com/gonbooster/AIArriendo-sub002/schema"
	"github.com/gonbooster/AIArriendo-sub002/scraper"
	"github.com/gonbooster/AIArriendo-sub002/services"
	"github.com/gonbooster/AIArriendo-sub002/storage"
	"github.com/gonbooster/AIArriendo-sub002/utils"
)

func main() {
	cfg := config.Load()
	logger := utils.NewLogger(cfg.Debug)

	logger.Info("=== AIArriendo aggregation service starting ===")

	registry, err := schema.DefaultRegistry()
	if err != nil {
		logger.Error("Invalid provider registry: %v", err)
		os.Exit(1)
	}

	overrides, err := cfg.LoadSourceOverrides()
	if err != nil {
		logger.Error("Failed to load source overrides: %v", err)
		os.Exit(1)
	}
	if err := registry.ApplyOverrides(overrides); err != nil {
		logger.Error("Failed to apply source overrides: %v", err)
		os.Exit(1)
	}

	static := scraper.NewStaticFetcher(cfg.FetchTimeout, logger)
	rendered := func(ctx context.Context, s *schema.SourceSchema) (scraper.Fetcher, func(), error) {
		f, err := scraper.NewRenderedFetcher(ctx, cfg.ChromeBin, s.Extraction.SettleDelay, logger)
		if err != nil {
			return nil, nil, err
		}
		return f, f.Close, nil
	}

	runners := make(map[string]services.ProviderRunner)
	for _, id := range registry.Providers() {
		s, _ := registry.Get(id)
		limiter := utils.NewRateLimiter(
			s.Performance.RequestsPerMinute,
			s.Performance.DelayBetweenRequests,
			s.Performance.MaxConcurrentRequests,
		)
		runners[id] = scraper.NewEngine(static, rendered, limiter, logger)
	}

	opts := []services.SearchOption{services.WithPageCap(cfg.MaxPagesOverride)}
	if cfg.CacheEnabled {
		cache, cerr := storage.NewPostgresCache(cfg.DSN(), cfg.CacheTTL)
		if cerr != nil {
			logger.Error("Failed to connect to PostgreSQL cache: %v", cerr)
			os.Exit(1)
		}
		defer cache.Close()
		opts = append(opts, services.WithRepository(cache))
		logger.Info("Search cache enabled (TTL %v)", cfg.CacheTTL)
	}

	searchSvc, err := services.NewSearchService(registry, runners, services.NewNormalizer(logger), logger, opts...)
	if err != nil {
		logger.Error("Failed to build search service: %v", err)
		os.Exit(1)
	}

	handler := api.NewHandler(searchSvc, registry, logger)
	addr := ":" + cfg.Port
	logger.Info("Providers: %v", registry.Providers())
	logger.Info("Listening on %s", addr)

	if err := http.ListenAndServe(addr, handler.Router()); err != nil {
		logger.Error("Server stopped: %v", err)
		os.Exit(1)
	}
}
