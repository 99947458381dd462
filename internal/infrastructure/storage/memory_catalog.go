package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/yourusername/pc-builder/internal/domain/entity"
	"github.com/yourusername/pc-builder/internal/domain/repository"
)

type memoryCatalogRepository struct {
	mu       sync.RWMutex
	listings map[string]entity.Listing // key: listing ID
}

// NewMemoryCatalogRepository in-memory listing catalog
func NewMemoryCatalogRepository() repository.CatalogRepository {
	return &memoryCatalogRepository{
		listings: make(map[string]entity.Listing),
	}
}

// SaveListing stores one listing
func (m *memoryCatalogRepository) SaveListing(ctx context.Context, listing entity.Listing) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	listing.Vendor = normalizeVendor(listing.Vendor)
	m.listings[listing.ID] = listing
	return nil
}

// ReplaceVendor drops the vendor's listings and stores the new ones
func (m *memoryCatalogRepository) ReplaceVendor(ctx context.Context, catalog entity.VendorCatalog) error {
	vendor := normalizeVendor(catalog.Vendor)
	if vendor == "" {
		return fmt.Errorf("replace vendor: %w", entity.ErrUnknownVendor)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for id, l := range m.listings {
		if l.Vendor == vendor {
			delete(m.listings, id)
		}
	}
	for _, l := range catalog.Listings {
		l.Vendor = vendor
		m.listings[l.ID] = l
	}
	return nil
}

// GetByID returns a listing by ID
func (m *memoryCatalogRepository) GetByID(ctx context.Context, id string) (*entity.Listing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	listing, exists := m.listings[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", entity.ErrListingMissing, id)
	}
	return &listing, nil
}

// FindByVendor listings of vendor matching part, cheapest first
func (m *memoryCatalogRepository) FindByVendor(ctx context.Context, vendor string, part entity.PartIdentity) ([]entity.Listing, error) {
	vendor = normalizeVendor(vendor)

	m.mu.RLock()
	defer m.mu.RUnlock()

	var results []entity.Listing
	for _, l := range m.listings {
		if l.Vendor == vendor && matchesPart(l, part) {
			results = append(results, l)
		}
	}
	sortListings(results)
	return results, nil
}

// GetAll every listing, ordered by vendor and name
func (m *memoryCatalogRepository) GetAll(ctx context.Context) ([]entity.Listing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	listings := make([]entity.Listing, 0, len(m.listings))
	for _, l := range m.listings {
		listings = append(listings, l)
	}
	sort.Slice(listings, func(i, j int) bool {
		if listings[i].Vendor != listings[j].Vendor {
			return listings[i].Vendor < listings[j].Vendor
		}
		if listings[i].Name != listings[j].Name {
			return listings[i].Name < listings[j].Name
		}
		return listings[i].ID < listings[j].ID
	})
	return listings, nil
}

// Vendors vendors that have at least one listing
func (m *memoryCatalogRepository) Vendors(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, l := range m.listings {
		seen[l.Vendor] = struct{}{}
	}
	vendors := make([]string, 0, len(seen))
	for v := range seen {
		vendors = append(vendors, v)
	}
	sort.Strings(vendors)
	return vendors, nil
}

// Clear removes all listings
func (m *memoryCatalogRepository) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.listings = make(map[string]entity.Listing)
	return nil
}

func normalizeVendor(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

// sortListings orders by price, then URL so results are stable
func sortListings(listings []entity.Listing) {
	sort.Slice(listings, func(i, j int) bool {
		if listings[i].Price != listings[j].Price {
			return listings[i].Price < listings[j].Price
		}
		return listings[i].URL < listings[j].URL
	})
}
