package repository

import (
	"context"

	"github.com/yourusername/pc-builder/internal/domain/entity"
)

// CatalogRepository vendor listings store
type CatalogRepository interface {
	// SaveListing stores one listing
	SaveListing(ctx context.Context, listing entity.Listing) error

	// ReplaceVendor replaces every listing of catalog.Vendor
	ReplaceVendor(ctx context.Context, catalog entity.VendorCatalog) error

	// GetByID returns a listing by ID
	GetByID(ctx context.Context, id string) (*entity.Listing, error)

	// FindByVendor returns the vendor's listings matching the part
	FindByVendor(ctx context.Context, vendor string, part entity.PartIdentity) ([]entity.Listing, error)

	// GetAll returns every listing
	GetAll(ctx context.Context) ([]entity.Listing, error)

	// Vendors returns the vendors that have listings, sorted
	Vendors(ctx context.Context) ([]string, error)

	// Clear removes all listings
	Clear(ctx context.Context) error
}
