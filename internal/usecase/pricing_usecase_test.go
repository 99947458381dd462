package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/pc-builder/internal/domain/entity"
	"github.com/yourusername/pc-builder/internal/domain/repository"
	"github.com/yourusername/pc-builder/internal/infrastructure/cache"
)

var errVendorDown = errors.New("vendor down")

type fakeAdapter struct {
	name     string
	disabled bool
	offers   []entity.Offer
	byModel  map[string][]entity.Offer
	err      error
	failOnce bool
	panics   bool
	block    bool
	release  chan struct{}
	stuck    chan struct{}
	calls    atomic.Int32
}

func (f *fakeAdapter) Name() string  { return f.name }
func (f *fakeAdapter) Enabled() bool { return !f.disabled }

func (f *fakeAdapter) FetchOffers(ctx context.Context, part entity.PartIdentity) ([]entity.Offer, error) {
	n := f.calls.Add(1)
	switch {
	case f.panics:
		panic("malformed payload")
	case f.block:
		<-ctx.Done()
		return nil, ctx.Err()
	case f.release != nil:
		<-f.release
	case f.stuck != nil:
		<-f.stuck
		return nil, errVendorDown
	case f.failOnce && n == 1:
		return nil, errVendorDown
	case f.err != nil:
		return nil, f.err
	}
	if f.byModel != nil {
		if offers, ok := f.byModel[part.Model]; ok {
			return offers, nil
		}
		return nil, errVendorDown
	}
	return f.offers, nil
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestPricing(t *testing.T, clock *testClock, coalesce bool, adapters ...repository.VendorAdapter) (PricingUseCase, repository.PriceCache) {
	t.Helper()
	vendorTimeout := 50 * time.Millisecond
	if coalesce {
		vendorTimeout = 5 * time.Second
	}
	c := cache.NewMemoryPriceCache(10*time.Minute, clock.Now)
	u := NewPricingUseCase(adapters, c, PricingOptions{
		TaxRate:        0.08,
		VendorTimeout:  vendorTimeout,
		RetryBackoff:   time.Millisecond,
		CoalesceMisses: coalesce,
		Clock:          clock.Now,
	}, discardLogger())
	return u, c
}

var ryzen = entity.PartIdentity{ID: "cpu-1", Kind: entity.KindCPU, Manufacturer: "AMD", Model: "Ryzen 7 7800X3D"}

func offer(vendor, url string, base, shipping int64) entity.Offer {
	return entity.Offer{Vendor: vendor, URL: url, BasePrice: base, Shipping: shipping, InStock: true}
}

func TestFetchPrices_SortedDedupedTaxed(t *testing.T) {
	clock := &testClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	amazon := &fakeAdapter{name: "amazon", offers: []entity.Offer{
		offer("amazon", "https://shop.example/shared", 40000, 0),
		offer("amazon", "https://amazon.example/a", 45000, 0),
	}}
	newegg := &fakeAdapter{name: "newegg", offers: []entity.Offer{
		offer("newegg", "https://shop.example/shared", 30000, 0),
		offer("newegg", "https://newegg.example/n", 39000, 1000),
	}}
	u, c := newTestPricing(t, clock, false, amazon, newegg)

	result := u.FetchPrices(context.Background(), ryzen)

	assert.Equal(t, "cpu-1", result.PartID)
	assert.Equal(t, clock.Now(), result.GeneratedAt)
	require.Len(t, result.Offers, 3)

	// 39000 + 1000 + 3120 = 43120 beats the shared URL at 40000 + 3200
	assert.Equal(t, "newegg", result.Offers[0].Vendor)
	assert.Equal(t, int64(43120), result.Offers[0].Total)

	// the shared URL keeps the first-seen (amazon) offer
	assert.Equal(t, "amazon", result.Offers[1].Vendor)
	assert.Equal(t, "https://shop.example/shared", result.Offers[1].URL)
	assert.Equal(t, int64(40000), result.Offers[1].BasePrice)
	assert.Equal(t, int64(3200), result.Offers[1].TaxEstimate)
	assert.Equal(t, int64(43200), result.Offers[1].Total)

	assert.Equal(t, int64(48600), result.Offers[2].Total)

	for i := 1; i < len(result.Offers); i++ {
		assert.LessOrEqual(t, result.Offers[i-1].Total, result.Offers[i].Total)
	}
	for _, o := range result.Offers {
		assert.Equal(t, o.BasePrice+o.Shipping+o.TaxEstimate, o.Total)
		assert.Equal(t, entity.DefaultCurrency, o.Currency)
	}
	require.NotNil(t, result.Best)
	assert.Equal(t, result.Offers[0], *result.Best)
	assert.Equal(t, 1, c.Len())
}

func TestFetchPrices_TiesKeepFirstSeenOrder(t *testing.T) {
	clock := &testClock{now: time.Now()}
	a := &fakeAdapter{name: "a", offers: []entity.Offer{offer("a", "https://a.example/1", 10000, 0)}}
	b := &fakeAdapter{name: "b", offers: []entity.Offer{offer("b", "https://b.example/1", 10000, 0)}}
	u, _ := newTestPricing(t, clock, false, a, b)

	result := u.FetchPrices(context.Background(), ryzen)
	require.Len(t, result.Offers, 2)
	assert.Equal(t, "a", result.Offers[0].Vendor)
	assert.Equal(t, "b", result.Offers[1].Vendor)
}

func TestFetchPrices_FailingVendorIsIsolated(t *testing.T) {
	clock := &testClock{now: time.Now()}
	down := &fakeAdapter{name: "down", err: errVendorDown}
	crashing := &fakeAdapter{name: "crashing", panics: true}
	up := &fakeAdapter{name: "up", offers: []entity.Offer{offer("up", "https://up.example/1", 20000, 0)}}
	u, _ := newTestPricing(t, clock, false, down, crashing, up)

	result := u.FetchPrices(context.Background(), ryzen)

	require.Len(t, result.Offers, 1)
	assert.Equal(t, "up", result.Offers[0].Vendor)
	assert.Equal(t, int32(2), down.calls.Load(), "one retry after the first failure")
	assert.Equal(t, int32(1), up.calls.Load())
}

func TestFetchPrices_RetrySucceeds(t *testing.T) {
	clock := &testClock{now: time.Now()}
	flaky := &fakeAdapter{name: "flaky", failOnce: true, offers: []entity.Offer{offer("flaky", "https://f.example/1", 15000, 0)}}
	u, _ := newTestPricing(t, clock, false, flaky)

	result := u.FetchPrices(context.Background(), ryzen)

	require.Len(t, result.Offers, 1)
	assert.Equal(t, int32(2), flaky.calls.Load())
}

func TestFetchPrices_TimeoutContributesNothing(t *testing.T) {
	clock := &testClock{now: time.Now()}
	slow := &fakeAdapter{name: "slow", block: true}
	fast := &fakeAdapter{name: "fast", offers: []entity.Offer{offer("fast", "https://fast.example/1", 9900, 0)}}
	u, _ := newTestPricing(t, clock, false, slow, fast)

	result := u.FetchPrices(context.Background(), ryzen)

	require.Len(t, result.Offers, 1)
	assert.Equal(t, "fast", result.Offers[0].Vendor)
}

func TestFetchPrices_TimeoutCutsOffAdapterIgnoringContext(t *testing.T) {
	clock := &testClock{now: time.Now()}
	stuck := &fakeAdapter{name: "stuck", stuck: make(chan struct{})}
	t.Cleanup(func() { close(stuck.stuck) })
	fast := &fakeAdapter{name: "fast", offers: []entity.Offer{offer("fast", "https://fast.example/1", 9900, 0)}}
	u, _ := newTestPricing(t, clock, false, stuck, fast)

	done := make(chan entity.PriceResult, 1)
	go func() { done <- u.FetchPrices(context.Background(), ryzen) }()

	select {
	case result := <-done:
		require.Len(t, result.Offers, 1)
		assert.Equal(t, "fast", result.Offers[0].Vendor)
	case <-time.After(2 * time.Second):
		t.Fatal("FetchPrices blocked past the vendor timeout")
	}
	assert.Eventually(t, func() bool { return stuck.calls.Load() == 2 }, time.Second, 5*time.Millisecond,
		"the timed-out attempt is retried once")
}

func TestFetchPrices_CancelledCallerDoesNotPoisonCache(t *testing.T) {
	clock := &testClock{now: time.Now()}
	a := &fakeAdapter{name: "a", offers: []entity.Offer{offer("a", "https://a.example/1", 10000, 0)}}
	u, c := newTestPricing(t, clock, false, a)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	first := u.FetchPrices(ctx, ryzen)
	require.Len(t, first.Offers, 1)

	next := u.FetchPrices(context.Background(), ryzen)
	require.Len(t, next.Offers, 1)
	require.NotNil(t, next.Best)
	assert.Equal(t, int64(10800), next.Best.Total)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, int32(1), a.calls.Load(), "second request is served from cache")
}

func TestFetchPrices_NoEnabledVendors(t *testing.T) {
	clock := &testClock{now: time.Now()}
	off := &fakeAdapter{name: "off", disabled: true, offers: []entity.Offer{offer("off", "https://off.example", 1, 0)}}
	u, c := newTestPricing(t, clock, false, off)

	result := u.FetchPrices(context.Background(), ryzen)

	assert.Empty(t, result.Offers)
	assert.NotNil(t, result.Offers)
	assert.Nil(t, result.Best)
	assert.Equal(t, 0, c.Len(), "empty no-vendor result is not cached")
	assert.Equal(t, int32(0), off.calls.Load())
	assert.Equal(t, []string{}, u.EnabledVendors())
}

func TestFetchPrices_CacheFreshness(t *testing.T) {
	clock := &testClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	a := &fakeAdapter{name: "a", offers: []entity.Offer{offer("a", "https://a.example/1", 10000, 0)}}
	u, _ := newTestPricing(t, clock, false, a)
	ctx := context.Background()

	first := u.FetchPrices(ctx, ryzen)

	clock.Advance(9 * time.Minute)
	again := u.FetchPrices(ctx, entity.PartIdentity{ID: "cpu-1", Manufacturer: " amd ", Model: "RYZEN 7  7800X3D"})
	assert.Equal(t, first.GeneratedAt, again.GeneratedAt)
	assert.Equal(t, int32(1), a.calls.Load())

	clock.Advance(time.Minute)
	fresh := u.FetchPrices(ctx, ryzen)
	assert.NotEqual(t, first.GeneratedAt, fresh.GeneratedAt)
	assert.Equal(t, int32(2), a.calls.Load())
}

func TestFetchPricesBatch_IsolatesParts(t *testing.T) {
	clock := &testClock{now: time.Now()}
	a := &fakeAdapter{name: "a", byModel: map[string][]entity.Offer{
		"RTX 4070":     {offer("a", "https://a.example/4070", 55000, 0)},
		"Ryzen 5 7600": {offer("a", "https://a.example/7600", 19900, 0)},
	}}
	u, _ := newTestPricing(t, clock, false, a)

	parts := []entity.PartIdentity{
		{ID: "gpu", Manufacturer: "NVIDIA", Model: "RTX 4070"},
		{ID: "missing", Manufacturer: "Acme", Model: "Unobtainium"},
		{ID: "cpu", Manufacturer: "AMD", Model: "Ryzen 5 7600"},
	}
	results := u.FetchPricesBatch(context.Background(), parts)

	require.Len(t, results, 3)
	assert.Equal(t, "gpu", results[0].PartID)
	require.Len(t, results[0].Offers, 1)
	assert.Equal(t, "missing", results[1].PartID)
	assert.Empty(t, results[1].Offers)
	assert.Nil(t, results[1].Best)
	assert.Equal(t, "cpu", results[2].PartID)
	require.Len(t, results[2].Offers, 1)
	assert.Equal(t, int64(21492), results[2].Offers[0].Total)
}

func TestEnabledVendors_RegistryOrder(t *testing.T) {
	clock := &testClock{now: time.Now()}
	u, _ := newTestPricing(t, clock, false,
		&fakeAdapter{name: "amazon"},
		&fakeAdapter{name: "newegg", disabled: true},
		&fakeAdapter{name: "bhphoto"},
	)
	assert.Equal(t, []string{"amazon", "bhphoto"}, u.EnabledVendors())
}

func TestFetchPrices_CoalescedMisses(t *testing.T) {
	clock := &testClock{now: time.Now()}
	gated := &fakeAdapter{name: "gated", release: make(chan struct{}), offers: []entity.Offer{offer("gated", "https://g.example/1", 100, 0)}}
	u, _ := newTestPricing(t, clock, true, gated)

	var wg sync.WaitGroup
	results := make([]entity.PriceResult, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = u.FetchPrices(context.Background(), ryzen)
		}(i)
	}

	require.Eventually(t, func() bool { return gated.calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(gated.release)
	wg.Wait()

	assert.Equal(t, int32(1), gated.calls.Load())
	for _, r := range results {
		require.Len(t, r.Offers, 1)
	}
}
