package parser

import (
	"context"

	"github.com/yourusername/pc-builder/internal/domain/entity"
	"github.com/yourusername/pc-builder/internal/domain/repository"
)

type heuristicNormalizer struct {
	h *Heuristics
}

// NewHeuristicNormalizer fills manufacturer and category from the listing
// title. The model is left to title matching.
func NewHeuristicNormalizer(h *Heuristics) repository.ListingNormalizer {
	if h == nil {
		h = DefaultHeuristics()
	}
	return &heuristicNormalizer{h: h}
}

// Normalize never fails unless ctx is done
func (n *heuristicNormalizer) Normalize(ctx context.Context, listings []entity.Listing) ([]entity.Listing, error) {
	out := make([]entity.Listing, len(listings))
	for i, l := range listings {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if l.Manufacturer == "" {
			if brand, ok := n.h.BrandIn(l.Name); ok {
				l.Manufacturer = brand
			}
		}
		if l.Category == "" {
			l.Category = detectCategory(l.Name)
		}
		out[i] = l
	}
	return out, nil
}
