package repository

import (
	"context"

	"github.com/yourusername/pc-builder/internal/domain/entity"
)

// VendorAdapter one price source
type VendorAdapter interface {
	// Name stable lower-case vendor name
	Name() string

	// Enabled reports whether the vendor allow-list turns this adapter on
	Enabled() bool

	// FetchOffers returns the vendor's offers for a part. Offers carry base
	// price and shipping; tax and total are computed by the caller. An error
	// signals a transient failure.
	FetchOffers(ctx context.Context, part entity.PartIdentity) ([]entity.Offer, error)
}
