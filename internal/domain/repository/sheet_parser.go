package repository

import (
	"context"

	"github.com/yourusername/pc-builder/internal/domain/entity"
)

// SheetParser parses vendor price sheets
type SheetParser interface {
	// ParseListings reads listings from a sheet file on disk
	ParseListings(ctx context.Context, vendor, filePath string) ([]entity.Listing, error)

	// ParseListingsFromBytes reads listings from an uploaded sheet
	ParseListingsFromBytes(ctx context.Context, vendor string, data []byte, filename string) ([]entity.Listing, error)
}
