package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/felixgeelhaar/fortify/timeout"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/yourusername/pc-builder/internal/domain/entity"
	"github.com/yourusername/pc-builder/internal/domain/repository"
)

const (
	// DefaultVendorTimeout per-attempt adapter timeout
	DefaultVendorTimeout = 5 * time.Second
	// DefaultRetryBackoff wait before the second attempt
	DefaultRetryBackoff = time.Second
	// DefaultBatchLimit parts priced concurrently by FetchPricesBatch
	DefaultBatchLimit = 8

	vendorAttempts = 2
)

// PricingUseCase aggregates vendor offers for parts
type PricingUseCase interface {
	// FetchPrices returns the cached result or fans out to every enabled vendor.
	// Vendor failures never surface; they contribute zero offers.
	FetchPrices(ctx context.Context, part entity.PartIdentity) entity.PriceResult

	// FetchPricesBatch prices every part independently, results in input order
	FetchPricesBatch(ctx context.Context, parts []entity.PartIdentity) []entity.PriceResult

	// EnabledVendors names of the currently enabled adapters, registry order
	EnabledVendors() []string
}

// PricingOptions aggregator settings; zero values fall back to defaults
type PricingOptions struct {
	TaxRate        float64
	VendorTimeout  time.Duration
	RetryBackoff   time.Duration
	BatchLimit     int
	CoalesceMisses bool
	Clock          func() time.Time
}

type pricingUseCase struct {
	adapters []repository.VendorAdapter
	cache    repository.PriceCache
	opts     PricingOptions
	group    singleflight.Group
	logger   *slog.Logger
}

// NewPricingUseCase creates the pricing aggregator
func NewPricingUseCase(
	adapters []repository.VendorAdapter,
	cache repository.PriceCache,
	opts PricingOptions,
	logger *slog.Logger,
) PricingUseCase {
	if opts.VendorTimeout <= 0 {
		opts.VendorTimeout = DefaultVendorTimeout
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = DefaultRetryBackoff
	}
	if opts.BatchLimit <= 0 {
		opts.BatchLimit = DefaultBatchLimit
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &pricingUseCase{
		adapters: adapters,
		cache:    cache,
		opts:     opts,
		logger:   logger,
	}
}

// FetchPrices cache hit or fresh aggregation
func (u *pricingUseCase) FetchPrices(ctx context.Context, part entity.PartIdentity) entity.PriceResult {
	key := part.Key()
	if entry, ok := u.cache.Get(key); ok {
		u.logger.Debug("price cache hit", "key", key)
		return entry.Result
	}

	if !u.opts.CoalesceMisses {
		return u.aggregate(ctx, part, key)
	}
	v, _, shared := u.group.Do(key, func() (any, error) {
		return u.aggregate(ctx, part, key), nil
	})
	if shared {
		u.logger.Debug("price fetch coalesced", "key", key)
	}
	return v.(entity.PriceResult)
}

// aggregate fans out to enabled adapters and joins every answer
func (u *pricingUseCase) aggregate(ctx context.Context, part entity.PartIdentity, key string) entity.PriceResult {
	enabled := u.enabledAdapters()
	if len(enabled) == 0 {
		u.logger.Info("no vendors enabled", "key", key)
		return entity.NewPriceResult(part.ID, nil, u.opts.Clock())
	}

	// detached from caller cancellation; per-attempt timeouts bound the fan-out
	fetchCtx := context.WithoutCancel(ctx)
	perVendor := make([][]entity.Offer, len(enabled))
	var wg sync.WaitGroup
	for i, adapter := range enabled {
		wg.Add(1)
		go func(i int, adapter repository.VendorAdapter) {
			defer wg.Done()
			perVendor[i] = u.fetchVendor(fetchCtx, adapter, part, key)
		}(i, adapter)
	}
	wg.Wait()

	offers := mergeOffers(perVendor, u.opts.TaxRate)
	result := entity.NewPriceResult(part.ID, offers, u.opts.Clock())
	u.cache.Put(key, result)

	u.logger.Info("prices aggregated",
		"key", key,
		"vendors", len(enabled),
		"offers", len(offers),
	)
	return result
}

// fetchVendor one adapter with per-attempt timeout and a single retry.
// Failure yields nil offers.
func (u *pricingUseCase) fetchVendor(ctx context.Context, adapter repository.VendorAdapter, part entity.PartIdentity, key string) []entity.Offer {
	r := retry.New[[]entity.Offer](retry.Config{
		MaxAttempts:   vendorAttempts,
		InitialDelay:  u.opts.RetryBackoff,
		BackoffPolicy: retry.BackoffExponential,
	})
	t := timeout.New[[]entity.Offer](timeout.Config{
		DefaultTimeout: u.opts.VendorTimeout,
	})

	var attempts atomic.Int32
	offers, err := r.Do(ctx, func(ctx context.Context) ([]entity.Offer, error) {
		attempts.Add(1)
		return t.Execute(ctx, u.opts.VendorTimeout, func(ctx context.Context) ([]entity.Offer, error) {
			return raceFetch(ctx, adapter, part)
		})
	})
	if err != nil {
		u.logger.Warn("vendor fetch failed",
			"vendor", adapter.Name(),
			"key", key,
			"attempts", attempts.Load(),
			"error", err,
		)
		return nil
	}
	return offers
}

type fetchResult struct {
	offers []entity.Offer
	err    error
}

// raceFetch returns at ctx's deadline even when the adapter ignores ctx.
// The abandoned call finishes in the background and its answer is dropped.
func raceFetch(ctx context.Context, adapter repository.VendorAdapter, part entity.PartIdentity) ([]entity.Offer, error) {
	done := make(chan fetchResult, 1)
	go func() {
		offers, err := safeFetch(ctx, adapter, part)
		done <- fetchResult{offers: offers, err: err}
	}()
	select {
	case r := <-done:
		return r.offers, r.err
	case <-ctx.Done():
		return nil, fmt.Errorf("vendor %s: %w", adapter.Name(), ctx.Err())
	}
}

// safeFetch turns an adapter panic into an error
func safeFetch(ctx context.Context, adapter repository.VendorAdapter, part entity.PartIdentity) (offers []entity.Offer, err error) {
	defer func() {
		if r := recover(); r != nil {
			offers, err = nil, fmt.Errorf("vendor %s panicked: %v", adapter.Name(), r)
		}
	}()
	return adapter.FetchOffers(ctx, part)
}

// mergeOffers concatenates vendor answers in registry order, drops repeated
// URLs, fills tax and total and sorts by total keeping first-seen order on ties.
func mergeOffers(perVendor [][]entity.Offer, taxRate float64) []entity.Offer {
	seen := make(map[string]struct{})
	var offers []entity.Offer
	for _, vendorOffers := range perVendor {
		for _, o := range vendorOffers {
			if _, dup := seen[o.URL]; dup {
				continue
			}
			seen[o.URL] = struct{}{}
			offers = append(offers, entity.ComputeOfferTotals(o, taxRate))
		}
	}
	sort.SliceStable(offers, func(i, j int) bool {
		return offers[i].Total < offers[j].Total
	})
	return offers
}

// FetchPricesBatch per-part isolation, bounded concurrency
func (u *pricingUseCase) FetchPricesBatch(ctx context.Context, parts []entity.PartIdentity) []entity.PriceResult {
	results := make([]entity.PriceResult, len(parts))

	var g errgroup.Group
	g.SetLimit(u.opts.BatchLimit)
	for i, part := range parts {
		g.Go(func() error {
			results[i] = u.FetchPrices(ctx, part)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// EnabledVendors currently enabled adapter names
func (u *pricingUseCase) EnabledVendors() []string {
	names := []string{}
	for _, a := range u.enabledAdapters() {
		names = append(names, a.Name())
	}
	return names
}

func (u *pricingUseCase) enabledAdapters() []repository.VendorAdapter {
	var enabled []repository.VendorAdapter
	for _, a := range u.adapters {
		if a.Enabled() {
			enabled = append(enabled, a)
		}
	}
	return enabled
}
