package storage

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/pc-builder/internal/domain/entity"
	"github.com/yourusername/pc-builder/internal/domain/repository"
)

func sampleListings(vendor string) []entity.Listing {
	ts := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	return []entity.Listing{
		{
			ID: vendor + "-1", Vendor: vendor, Name: "AMD Ryzen 7 7800X3D 8-Core Processor",
			Category: "CPU", Manufacturer: "AMD", Model: "Ryzen 7 7800X3D", MPN: "100-100000910WOF",
			URL: "https://" + vendor + ".example/7800x3d", Price: 44900, Shipping: 0, InStock: true,
			Currency: "USD", Specs: map[string]string{"socket": "AM5"}, CreatedAt: ts, UpdatedAt: ts,
		},
		{
			ID: vendor + "-2", Vendor: vendor, Name: "NVIDIA GeForce RTX 4070 Ti SUPER 16GB",
			Category: "GPU", URL: "https://" + vendor + ".example/4070tis", Price: 79999, Shipping: -1,
			CreatedAt: ts, UpdatedAt: ts,
		},
	}
}

func runCatalogSuite(t *testing.T, newRepo func(t *testing.T) repository.CatalogRepository) {
	ctx := context.Background()

	t.Run("replace and find", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.ReplaceVendor(ctx, entity.VendorCatalog{Vendor: "Newegg", Listings: sampleListings("newegg")}))
		require.NoError(t, repo.ReplaceVendor(ctx, entity.VendorCatalog{Vendor: "amazon", Listings: sampleListings("amazon")}))

		found, err := repo.FindByVendor(ctx, "newegg", entity.PartIdentity{Manufacturer: "amd", Model: "ryzen 7 7800x3d"})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "newegg-1", found[0].ID)
		assert.Equal(t, "newegg", found[0].Vendor)
		assert.Equal(t, map[string]string{"socket": "AM5"}, found[0].Specs)
		assert.True(t, found[0].InStock)

		found, err = repo.FindByVendor(ctx, "amazon", entity.PartIdentity{Model: "RTX 4070 Ti Super"})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, int64(-1), found[0].Shipping)

		vendors, err := repo.Vendors(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"amazon", "newegg"}, vendors)
	})

	t.Run("replace drops old listings", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.ReplaceVendor(ctx, entity.VendorCatalog{Vendor: "bestbuy", Listings: sampleListings("bestbuy")}))
		require.NoError(t, repo.ReplaceVendor(ctx, entity.VendorCatalog{Vendor: "bestbuy", Listings: sampleListings("bestbuy")[:1]}))

		all, err := repo.GetAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, "bestbuy-1", all[0].ID)
	})

	t.Run("get by id", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.SaveListing(ctx, sampleListings("bhphoto")[0]))

		l, err := repo.GetByID(ctx, "bhphoto-1")
		require.NoError(t, err)
		assert.Equal(t, int64(44900), l.Price)

		_, err = repo.GetByID(ctx, "missing")
		assert.True(t, errors.Is(err, entity.ErrListingMissing))
	})

	t.Run("clear", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.ReplaceVendor(ctx, entity.VendorCatalog{Vendor: "amazon", Listings: sampleListings("amazon")}))
		require.NoError(t, repo.Clear(ctx))

		all, err := repo.GetAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("empty vendor rejected", func(t *testing.T) {
		repo := newRepo(t)
		err := repo.ReplaceVendor(ctx, entity.VendorCatalog{Vendor: "  "})
		assert.ErrorIs(t, err, entity.ErrUnknownVendor)
	})
}

func TestMemoryCatalogRepository(t *testing.T) {
	runCatalogSuite(t, func(t *testing.T) repository.CatalogRepository {
		return NewMemoryCatalogRepository()
	})
}

func TestSQLiteCatalogRepository(t *testing.T) {
	runCatalogSuite(t, func(t *testing.T) repository.CatalogRepository {
		repo, err := NewSQLiteCatalogRepository(filepath.Join(t.TempDir(), "db", "catalog.db"))
		require.NoError(t, err)
		t.Cleanup(func() { repo.(io.Closer).Close() })
		return repo
	})
}

func TestNewSQLiteCatalogRepository_EmptyPath(t *testing.T) {
	_, err := NewSQLiteCatalogRepository("")
	assert.Error(t, err)
}

func TestMatchesPart(t *testing.T) {
	listing := entity.Listing{
		Name:         "Corsair SF750 750W SFX Platinum",
		Manufacturer: "Corsair",
		Model:        "SF750",
		MPN:          "CP-9020186-NA",
	}

	tests := []struct {
		name string
		part entity.PartIdentity
		want bool
	}{
		{"mpn wins", entity.PartIdentity{Model: "something else", MPN: "cp9020186na"}, true},
		{"mpn conflict", entity.PartIdentity{Manufacturer: "Corsair", Model: "SF750", MPN: "CP-9020285-NA"}, false},
		{"model", entity.PartIdentity{Manufacturer: "corsair", Model: "sf 750"}, true},
		{"manufacturer mismatch", entity.PartIdentity{Manufacturer: "Lian Li", Model: "SF750"}, false},
		{"empty model", entity.PartIdentity{Manufacturer: "Corsair"}, false},
		{"other model", entity.PartIdentity{Manufacturer: "Corsair", Model: "SF1000"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matchesPart(listing, tt.part))
		})
	}

	byName := entity.Listing{Name: "NVIDIA GeForce RTX 4070 Ti SUPER 16GB"}
	assert.True(t, matchesPart(byName, entity.PartIdentity{Model: "rtx 4070 ti super"}))
	assert.False(t, matchesPart(byName, entity.PartIdentity{Model: "RTX 4080 Super"}))
	assert.False(t, matchesPart(byName, entity.PartIdentity{Model: "RTX 4070"}), "higher tier of the same number")
	assert.False(t, matchesPart(byName, entity.PartIdentity{Model: "RTX 4070 Ti"}))

	radeon := entity.Listing{Name: "Sapphire Pulse Radeon RX 7900 XTX 24GB"}
	assert.True(t, matchesPart(radeon, entity.PartIdentity{Model: "RX 7900 XTX"}))
	assert.False(t, matchesPart(radeon, entity.PartIdentity{Model: "RX 7900 XT"}))
	assert.False(t, matchesPart(radeon, entity.PartIdentity{Model: "RX 7900"}))
}
