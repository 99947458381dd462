package entity

import "time"

// Listing one vendor catalog row for a part
type Listing struct {
	ID           string
	Vendor       string
	Name         string
	Category     string
	Manufacturer string
	Model        string
	SKU          string
	UPC          string
	MPN          string
	URL          string
	Price        int64 // cents
	Shipping     int64 // cents, -1 when the vendor computes it
	InStock      bool
	Currency     string
	Specs        map[string]string // extra sheet columns
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity part identity described by the listing
func (l Listing) Identity() PartIdentity {
	return PartIdentity{
		ID:           l.ID,
		Kind:         KindForCategory(l.Category),
		Manufacturer: l.Manufacturer,
		Model:        l.Model,
		SKU:          l.SKU,
		UPC:          l.UPC,
		MPN:          l.MPN,
	}
}

// VendorCatalog listings imported for one vendor
type VendorCatalog struct {
	Vendor    string
	Listings  []Listing
	UpdatedAt time.Time
	Source    string // sheet file name
}
