package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/yourusername/pc-builder/internal/domain/entity"
	"github.com/yourusername/pc-builder/internal/domain/repository"
)

// VendorSummary listings held for one vendor
type VendorSummary struct {
	Vendor   string `json:"vendor"`
	Listings int    `json:"listings"`
	InStock  int    `json:"inStock"`
}

// CatalogUseCase vendor price-sheet import and catalog upkeep
type CatalogUseCase interface {
	// ImportSheet replaces the vendor's listings with an uploaded sheet
	ImportSheet(ctx context.Context, vendor string, data []byte, filename string) (int, error)

	// ImportFile replaces the vendor's listings with a sheet on disk
	ImportFile(ctx context.Context, vendor, path string) (int, error)

	// Summary listing counts per vendor
	Summary(ctx context.Context) ([]VendorSummary, error)

	// Parts distinct part identities described by the catalog
	Parts(ctx context.Context) ([]entity.PartIdentity, error)

	// Reverify re-prices every catalog part and returns how many were priced
	Reverify(ctx context.Context) (int, error)
}

type catalogUseCase struct {
	catalog     repository.CatalogRepository
	sheets      repository.SheetParser
	normalizers []repository.ListingNormalizer
	pricing     PricingUseCase
	vendors     map[string]struct{}
	logger      *slog.Logger
	now         func() time.Time
}

// NewCatalogUseCase creates the catalog use case. Normalizers are tried in
// order; the first one that succeeds wins. vendors is the registry's name list.
func NewCatalogUseCase(
	catalog repository.CatalogRepository,
	sheets repository.SheetParser,
	normalizers []repository.ListingNormalizer,
	pricing PricingUseCase,
	vendors []string,
	logger *slog.Logger,
) CatalogUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	known := make(map[string]struct{}, len(vendors))
	for _, v := range vendors {
		known[strings.ToLower(strings.TrimSpace(v))] = struct{}{}
	}
	return &catalogUseCase{
		catalog:     catalog,
		sheets:      sheets,
		normalizers: normalizers,
		pricing:     pricing,
		vendors:     known,
		logger:      logger,
		now:         time.Now,
	}
}

func (u *catalogUseCase) vendorName(vendor string) (string, error) {
	name := strings.ToLower(strings.TrimSpace(vendor))
	if _, ok := u.vendors[name]; !ok {
		return "", fmt.Errorf("%w: %q", entity.ErrUnknownVendor, vendor)
	}
	return name, nil
}

// ImportSheet parse -> normalize -> replace
func (u *catalogUseCase) ImportSheet(ctx context.Context, vendor string, data []byte, filename string) (int, error) {
	name, err := u.vendorName(vendor)
	if err != nil {
		return 0, err
	}
	listings, err := u.sheets.ParseListingsFromBytes(ctx, name, data, filename)
	if err != nil {
		return 0, fmt.Errorf("failed to parse sheet: %w", err)
	}
	return u.store(ctx, name, listings, filename)
}

// ImportFile same as ImportSheet for a file on disk
func (u *catalogUseCase) ImportFile(ctx context.Context, vendor, path string) (int, error) {
	name, err := u.vendorName(vendor)
	if err != nil {
		return 0, err
	}
	listings, err := u.sheets.ParseListings(ctx, name, path)
	if err != nil {
		return 0, fmt.Errorf("failed to parse sheet: %w", err)
	}
	return u.store(ctx, name, listings, filepath.Base(path))
}

func (u *catalogUseCase) store(ctx context.Context, vendor string, listings []entity.Listing, source string) (int, error) {
	listings = u.normalize(ctx, vendor, listings)

	catalog := entity.VendorCatalog{
		Vendor:    vendor,
		Listings:  listings,
		UpdatedAt: u.now(),
		Source:    source,
	}
	if err := u.catalog.ReplaceVendor(ctx, catalog); err != nil {
		return 0, fmt.Errorf("failed to save listings: %w", err)
	}

	u.logger.Info("vendor catalog imported",
		"vendor", vendor,
		"source", source,
		"listings", len(listings),
	)
	return len(listings), nil
}

// normalize falls through the chain; raw listings are kept if every step fails
func (u *catalogUseCase) normalize(ctx context.Context, vendor string, listings []entity.Listing) []entity.Listing {
	for i, n := range u.normalizers {
		out, err := n.Normalize(ctx, listings)
		if err == nil {
			return out
		}
		u.logger.Warn("listing normalizer failed",
			"vendor", vendor,
			"normalizer", i,
			"error", err,
		)
	}
	return listings
}

// Summary counts per vendor, sorted by vendor
func (u *catalogUseCase) Summary(ctx context.Context) ([]VendorSummary, error) {
	listings, err := u.catalog.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	byVendor := make(map[string]*VendorSummary)
	for _, l := range listings {
		s, ok := byVendor[l.Vendor]
		if !ok {
			s = &VendorSummary{Vendor: l.Vendor}
			byVendor[l.Vendor] = s
		}
		s.Listings++
		if l.InStock {
			s.InStock++
		}
	}

	summary := make([]VendorSummary, 0, len(byVendor))
	for _, s := range byVendor {
		summary = append(summary, *s)
	}
	sort.Slice(summary, func(i, j int) bool {
		return summary[i].Vendor < summary[j].Vendor
	})
	return summary, nil
}

// Parts one identity per cache key. Listings without a model are priced by
// their title.
func (u *catalogUseCase) Parts(ctx context.Context) ([]entity.PartIdentity, error) {
	listings, err := u.catalog.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var parts []entity.PartIdentity
	for _, l := range listings {
		part := l.Identity()
		if part.Model == "" {
			part.Model = l.Name
		}
		key := part.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		parts = append(parts, part)
	}
	return parts, nil
}

// Reverify re-prices the whole catalog through the aggregator
func (u *catalogUseCase) Reverify(ctx context.Context) (int, error) {
	parts, err := u.Parts(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list catalog parts: %w", err)
	}
	if len(parts) == 0 {
		return 0, nil
	}

	start := u.now()
	results := u.pricing.FetchPricesBatch(ctx, parts)

	missing := 0
	for _, r := range results {
		if r.Best == nil {
			missing++
		}
	}
	u.logger.Info("catalog reverified",
		"parts", len(parts),
		"without_offers", missing,
		"took", u.now().Sub(start).String(),
	)
	return len(results), nil
}

// StartReverifier runs Reverify every interval until ctx is done.
// A non-positive interval disables it.
func StartReverifier(ctx context.Context, catalog CatalogUseCase, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := catalog.Reverify(ctx); err != nil {
					logger.Error("catalog reverification failed", "error", err)
				}
			}
		}
	}()
}
