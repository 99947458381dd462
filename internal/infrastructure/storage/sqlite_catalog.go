package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/yourusername/pc-builder/internal/domain/entity"
	"github.com/yourusername/pc-builder/internal/domain/repository"
)

type sqliteCatalogRepository struct {
	db *sql.DB
}

// NewSQLiteCatalogRepository SQLite-backed listing catalog. The returned
// value also implements io.Closer.
func NewSQLiteCatalogRepository(dbPath string) (repository.CatalogRepository, error) {
	if dbPath == "" {
		return nil, errors.New("db path must not be empty")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	if err := createCatalogSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteCatalogRepository{db: db}, nil
}

func createCatalogSchema(db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS listings (
	id TEXT PRIMARY KEY,
	vendor TEXT NOT NULL,
	name TEXT,
	category TEXT,
	manufacturer TEXT,
	model TEXT,
	sku TEXT,
	upc TEXT,
	mpn TEXT,
	url TEXT,
	price INTEGER NOT NULL,
	shipping INTEGER NOT NULL,
	in_stock INTEGER NOT NULL,
	currency TEXT,
	specs TEXT,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_listings_vendor ON listings (vendor);
`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

const listingColumns = `id, vendor, name, category, manufacturer, model, sku, upc, mpn, url, price, shipping, in_stock, currency, specs, created_at, updated_at`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertListing(ctx context.Context, db execer, l entity.Listing) error {
	specs, err := json.Marshal(l.Specs)
	if err != nil {
		return fmt.Errorf("failed to encode specs: %w", err)
	}
	_, err = db.ExecContext(ctx, `INSERT OR REPLACE INTO listings (`+listingColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, normalizeVendor(l.Vendor), l.Name, l.Category, l.Manufacturer, l.Model, l.SKU, l.UPC, l.MPN, l.URL,
		l.Price, l.Shipping, l.InStock, l.Currency, string(specs), l.CreatedAt, l.UpdatedAt)
	return err
}

// SaveListing stores one listing
func (s *sqliteCatalogRepository) SaveListing(ctx context.Context, listing entity.Listing) error {
	return insertListing(ctx, s.db, listing)
}

// ReplaceVendor drops the vendor's listings and stores the new ones in one transaction
func (s *sqliteCatalogRepository) ReplaceVendor(ctx context.Context, catalog entity.VendorCatalog) error {
	vendor := normalizeVendor(catalog.Vendor)
	if vendor == "" {
		return fmt.Errorf("replace vendor: %w", entity.ErrUnknownVendor)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM listings WHERE vendor = ?`, vendor); err != nil {
		tx.Rollback()
		return err
	}
	for _, l := range catalog.Listings {
		l.Vendor = vendor
		if err := insertListing(ctx, tx, l); err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

// GetByID returns a listing by ID
func (s *sqliteCatalogRepository) GetByID(ctx context.Context, id string) (*entity.Listing, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+listingColumns+` FROM listings WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	listings, err := scanListings(rows)
	if err != nil {
		return nil, err
	}
	if len(listings) == 0 {
		return nil, fmt.Errorf("%w: %s", entity.ErrListingMissing, id)
	}
	return &listings[0], nil
}

// FindByVendor listings of vendor matching part, cheapest first
func (s *sqliteCatalogRepository) FindByVendor(ctx context.Context, vendor string, part entity.PartIdentity) ([]entity.Listing, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+listingColumns+` FROM listings WHERE vendor = ?`, normalizeVendor(vendor))
	if err != nil {
		return nil, err
	}
	listings, err := scanListings(rows)
	if err != nil {
		return nil, err
	}

	var results []entity.Listing
	for _, l := range listings {
		if matchesPart(l, part) {
			results = append(results, l)
		}
	}
	sortListings(results)
	return results, nil
}

// GetAll every listing, ordered by vendor and name
func (s *sqliteCatalogRepository) GetAll(ctx context.Context) ([]entity.Listing, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+listingColumns+` FROM listings ORDER BY vendor, name, id`)
	if err != nil {
		return nil, err
	}
	return scanListings(rows)
}

// Vendors vendors that have at least one listing
func (s *sqliteCatalogRepository) Vendors(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT vendor FROM listings ORDER BY vendor`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	vendors := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		vendors = append(vendors, v)
	}
	return vendors, rows.Err()
}

// Clear removes all listings
func (s *sqliteCatalogRepository) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM listings`)
	return err
}

// Close closes the database
func (s *sqliteCatalogRepository) Close() error {
	return s.db.Close()
}

func scanListings(rows *sql.Rows) ([]entity.Listing, error) {
	defer rows.Close()

	var listings []entity.Listing
	for rows.Next() {
		var (
			l                    entity.Listing
			specs                sql.NullString
			createdAt, updatedAt time.Time
		)
		if err := rows.Scan(&l.ID, &l.Vendor, &l.Name, &l.Category, &l.Manufacturer, &l.Model,
			&l.SKU, &l.UPC, &l.MPN, &l.URL, &l.Price, &l.Shipping, &l.InStock, &l.Currency,
			&specs, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		if specs.Valid && specs.String != "" && specs.String != "null" {
			if err := json.Unmarshal([]byte(specs.String), &l.Specs); err != nil {
				return nil, fmt.Errorf("failed to decode specs of %s: %w", l.ID, err)
			}
		}
		l.CreatedAt = createdAt
		l.UpdatedAt = updatedAt
		listings = append(listings, l)
	}
	return listings, rows.Err()
}
