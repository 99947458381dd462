package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/yourusername/pc-builder/config"
	"github.com/yourusername/pc-builder/internal/domain/compat"
	"github.com/yourusername/pc-builder/internal/domain/repository"
	"github.com/yourusername/pc-builder/internal/infrastructure/cache"
	"github.com/yourusername/pc-builder/internal/infrastructure/gemini"
	"github.com/yourusername/pc-builder/internal/infrastructure/parser"
	"github.com/yourusername/pc-builder/internal/infrastructure/storage"
	"github.com/yourusername/pc-builder/internal/infrastructure/vendor"
	"github.com/yourusername/pc-builder/internal/platform"
	"github.com/yourusername/pc-builder/internal/usecase"
)

// app wired services shared by the commands
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	priceCache    repository.PriceCache
	compatibility usecase.CompatibilityUseCase
	pricing       usecase.PricingUseCase
	catalog       usecase.CatalogUseCase

	closers []io.Closer
}

// newApp loads the configuration and wires every layer
func newApp(ctx context.Context, opts *RootOptions, logOut io.Writer) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	level := cfg.LogLevel
	if opts != nil && opts.LogLevel != "" {
		level = opts.LogLevel
	}
	logger := platform.NewLogger(logOut, level)

	a := &app{cfg: cfg, logger: logger}

	heuristics, err := parser.LoadHeuristics(cfg.HeuristicsFile)
	if err != nil {
		return nil, err
	}

	var catalogRepo repository.CatalogRepository
	if cfg.CatalogDBPath == "" {
		catalogRepo = storage.NewMemoryCatalogRepository()
	} else {
		catalogRepo, err = storage.NewSQLiteCatalogRepository(cfg.CatalogDBPath)
		if err != nil {
			return nil, err
		}
		if c, ok := catalogRepo.(io.Closer); ok {
			a.closers = append(a.closers, c)
		}
	}

	adapters := vendor.NewRegistry(catalogRepo, vendor.Options{
		Enabled:    cfg.VendorEnabled,
		Affiliates: cfg.Affiliates,
	})
	a.priceCache = cache.NewMemoryPriceCache(cfg.PriceCacheTTL, nil)
	a.pricing = usecase.NewPricingUseCase(adapters, a.priceCache, usecase.PricingOptions{
		TaxRate:        cfg.TaxRate,
		VendorTimeout:  cfg.VendorTimeout,
		RetryBackoff:   cfg.VendorRetryBackoff,
		CoalesceMisses: cfg.PriceCoalesceMisses,
	}, logger)

	var normalizers []repository.ListingNormalizer
	if cfg.GeminiAPIKey != "" {
		ai, err := gemini.NewGeminiNormalizer(ctx, cfg.GeminiAPIKey)
		if err != nil {
			logger.Warn("gemini normalizer disabled", "error", err)
		} else {
			normalizers = append(normalizers, ai)
			if c, ok := ai.(io.Closer); ok {
				a.closers = append(a.closers, c)
			}
		}
	}
	normalizers = append(normalizers, parser.NewHeuristicNormalizer(heuristics))

	a.catalog = usecase.NewCatalogUseCase(
		catalogRepo,
		parser.NewExcelParser(logger),
		normalizers,
		a.pricing,
		vendor.Names(),
		logger,
	)
	a.compatibility = usecase.NewCompatibilityUseCase(parser.NewSpecParser(heuristics), compat.NewEngine(), logger)

	logger.Debug("app wired",
		"catalog_db", cfg.CatalogDBPath,
		"vendors", a.pricing.EnabledVendors(),
		"normalizers", len(normalizers),
	)
	return a, nil
}

// Close releases the catalog database and AI client
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
