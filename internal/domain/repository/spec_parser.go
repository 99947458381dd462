package repository

import "github.com/yourusername/pc-builder/internal/domain/entity"

// SpecParser translates free-text component specifications into facts.
// Parse is total: unmatched text yields unknown fields, never an error.
type SpecParser interface {
	Parse(kind entity.Kind, raw string) entity.ParsedSpec
}
