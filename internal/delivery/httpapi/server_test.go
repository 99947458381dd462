package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/pc-builder/internal/domain/entity"
	"github.com/yourusername/pc-builder/internal/infrastructure/parser"
	"github.com/yourusername/pc-builder/internal/usecase"
)

type fakePricing struct {
	mu      sync.Mutex
	batches [][]entity.PartIdentity
	vendors []string
}

func (f *fakePricing) FetchPrices(_ context.Context, part entity.PartIdentity) entity.PriceResult {
	offers := []entity.Offer{{Vendor: "amazon", URL: "https://amazon.example/" + part.Model, BasePrice: 10000, Total: 10800, Currency: "USD"}}
	return entity.NewPriceResult(part.ID, offers, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
}

func (f *fakePricing) FetchPricesBatch(ctx context.Context, parts []entity.PartIdentity) []entity.PriceResult {
	f.mu.Lock()
	f.batches = append(f.batches, parts)
	f.mu.Unlock()
	out := make([]entity.PriceResult, len(parts))
	for i, p := range parts {
		out[i] = f.FetchPrices(ctx, p)
	}
	return out
}

func (f *fakePricing) EnabledVendors() []string { return f.vendors }

func newTestServer(t *testing.T) (*httptest.Server, *fakePricing) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pricing := &fakePricing{vendors: []string{"amazon", "newegg"}}
	compatibility := usecase.NewCompatibilityUseCase(parser.NewSpecParser(parser.DefaultHeuristics()), nil, logger)

	cfg := DefaultConfig(":0")
	cfg.MaxParts = 3
	srv := httptest.NewServer(NewServer(cfg, compatibility, pricing, logger).Handler())
	t.Cleanup(srv.Close)
	return srv, pricing
}

func post(t *testing.T, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func TestCompatibilityEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := post(t, srv.URL+"/compatibility", `{
		"build": {
			"CPU": {"id": "cpu-1", "spec": "Intel Core i7-14700K LGA1700 125W"},
			"Motherboard": {"id": "mb-1", "spec": "ASUS TUF B650-Plus AM5 ATX DDR5"}
		},
		"overrideReason": "customer supplied board"
	}`)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	hard := body["hardFails"].([]any)
	require.Len(t, hard, 1)
	assert.Equal(t, "CORE-001", hard[0].(map[string]any)["ruleId"])
	assert.Equal(t, "customer supplied board", body["overrideReason"])
	assert.NotEmpty(t, body["rulesVersion"])
	assert.NotNil(t, body["softWarns"])
}

func TestCompatibilityEndpoint_BadRequests(t *testing.T) {
	srv, _ := newTestServer(t)

	for name, payload := range map[string]string{
		"not json":         `{"build":`,
		"wrong shape":      `{"build": {"CPU": "Ryzen"}}`,
		"empty build":      `{"build": {}}`,
		"missing build":    `{}`,
		"component no id":  `{"build": {"CPU": {"spec": "AM5"}}}`,
		"trailing garbage": `{"build": {"CPU": {"id": "c", "spec": "AM5"}}} {}`,
	} {
		t.Run(name, func(t *testing.T) {
			resp, body := post(t, srv.URL+"/compatibility", payload)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestPricesEndpoint(t *testing.T) {
	srv, pricing := newTestServer(t)

	resp, body := post(t, srv.URL+"/prices", `{"parts": [
		{"id": "gpu", "manufacturer": "NVIDIA", "model": "RTX 4070"},
		{"id": "cpu", "manufacturer": "AMD", "model": "Ryzen 5 7600"}
	]}`)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	results := body["results"].([]any)
	require.Len(t, results, 2)
	first := results[0].(map[string]any)
	assert.Equal(t, "gpu", first["partId"])
	assert.Equal(t, "https://amazon.example/RTX 4070", first["best"].(map[string]any)["url"])
	assert.Equal(t, []any{"amazon", "newegg"}, body["vendors"])
	assert.NotEmpty(t, body["generatedAt"])
	require.Len(t, pricing.batches, 1)
}

func TestPricesEndpoint_BadRequests(t *testing.T) {
	srv, pricing := newTestServer(t)

	for name, payload := range map[string]string{
		"no parts":      `{"parts": []}`,
		"missing model": `{"parts": [{"manufacturer": "AMD"}]}`,
		"too many":      `{"parts": [{"manufacturer":"a","model":"1"},{"manufacturer":"a","model":"2"},{"manufacturer":"a","model":"3"},{"manufacturer":"a","model":"4"}]}`,
		"wrong shape":   `{"parts": "AMD"}`,
	} {
		t.Run(name, func(t *testing.T) {
			resp, body := post(t, srv.URL+"/prices", payload)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.NotEmpty(t, body["error"])
		})
	}
	assert.Empty(t, pricing.batches)
}

func TestVendorsAndHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/prices/vendors")
	require.NoError(t, err)
	defer resp.Body.Close()
	var vendors map[string][]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&vendors))
	assert.Equal(t, []string{"amazon", "newegg"}, vendors["vendors"])

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "req-42")
	health, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)
	assert.Equal(t, "req-42", health.Header.Get("X-Request-ID"))

	wrongMethod, err := http.Get(srv.URL + "/prices")
	require.NoError(t, err)
	defer wrongMethod.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, wrongMethod.StatusCode)
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := NewServer(DefaultConfig("127.0.0.1:0"), nil, &fakePricing{}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
