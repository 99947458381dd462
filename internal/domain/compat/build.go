package compat

import (
	"sort"

	"github.com/yourusername/pc-builder/internal/domain/entity"
	"github.com/yourusername/pc-builder/internal/domain/repository"
)

// Part one parsed component of a build
type Part struct {
	ID   string
	Spec entity.ParsedSpec
}

// ParsedBuild parsed facts of a build: the first part of every kind, plus
// every storage-like part for lane-sharing checks.
type ParsedBuild struct {
	parts   map[entity.Kind]Part
	storage []Part
}

// NewParsedBuild returns an empty build.
func NewParsedBuild() *ParsedBuild {
	return &ParsedBuild{parts: make(map[entity.Kind]Part)}
}

// ParseBuild parses every component of build. Categories are visited in
// sorted order so that duplicate kinds resolve the same way on every call.
func ParseBuild(build entity.Build, parser repository.SpecParser) *ParsedBuild {
	categories := make([]string, 0, len(build))
	for category := range build {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	b := NewParsedBuild()
	for _, category := range categories {
		component := build[category]
		kind := entity.KindForCategory(category)
		b.Add(component.ID, parser.Parse(kind, component.Text()))
	}
	return b
}

// Add records a parsed component. Only the first part of a kind is seen by
// rules that need a single component.
func (b *ParsedBuild) Add(id string, spec entity.ParsedSpec) {
	if spec.Kind == entity.KindStorage || spec.Kind == entity.KindOther {
		b.storage = append(b.storage, Part{ID: id, Spec: spec})
	}
	if _, ok := b.parts[spec.Kind]; !ok {
		b.parts[spec.Kind] = Part{ID: id, Spec: spec}
	}
}

// Has reports whether a component of kind is present
func (b *ParsedBuild) Has(kind entity.Kind) bool {
	_, ok := b.parts[kind]
	return ok
}

// Spec parsed facts of the component of kind (zero value if absent)
func (b *ParsedBuild) Spec(kind entity.Kind) entity.ParsedSpec {
	return b.parts[kind].Spec
}

// ID component ID of kind
func (b *ParsedBuild) ID(kind entity.Kind) string {
	return b.parts[kind].ID
}

// Storage all storage-like parts in insertion order
func (b *ParsedBuild) Storage() []Part {
	return b.storage
}

func (b *ParsedBuild) hasAll(kinds []entity.Kind) bool {
	for _, kind := range kinds {
		if !b.Has(kind) {
			return false
		}
	}
	return true
}

func (b *ParsedBuild) ids(kinds ...entity.Kind) []string {
	ids := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		ids = append(ids, b.ID(kind))
	}
	return ids
}
