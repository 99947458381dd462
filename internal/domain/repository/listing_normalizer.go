package repository

import (
	"context"

	"github.com/yourusername/pc-builder/internal/domain/entity"
)

// ListingNormalizer fills manufacturer, model and category of imported listings
type ListingNormalizer interface {
	Normalize(ctx context.Context, listings []entity.Listing) ([]entity.Listing, error)
}
