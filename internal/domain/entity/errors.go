package entity

import "errors"

var (
	ErrInvalidBuild   = errors.New("invalid build")
	ErrInvalidPart    = errors.New("invalid part identity")
	ErrUnknownVendor  = errors.New("unknown vendor")
	ErrNoSheets       = errors.New("excel file has no sheets")
	ErrListingMissing = errors.New("listing not found")
)
