package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/yourusername/pc-builder/internal/domain/compat"
	"github.com/yourusername/pc-builder/internal/domain/entity"
	"github.com/yourusername/pc-builder/internal/domain/repository"
)

// CompatibilityUseCase evaluates builds against the rule catalogue
type CompatibilityUseCase interface {
	// Evaluate parses every component and runs the rules. overrideReason is
	// attached to the result as-is and never changes the score.
	Evaluate(ctx context.Context, build entity.Build, overrideReason string) (entity.BuildCompatibility, error)

	// ParseComponent exposes the parser for one component
	ParseComponent(category string, component entity.ComponentFacts) entity.ParsedSpec
}

type compatibilityUseCase struct {
	parser repository.SpecParser
	engine *compat.Engine
	logger *slog.Logger
}

// NewCompatibilityUseCase creates the evaluator; a nil engine runs the default rules
func NewCompatibilityUseCase(parser repository.SpecParser, engine *compat.Engine, logger *slog.Logger) CompatibilityUseCase {
	if engine == nil {
		engine = compat.NewEngine()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &compatibilityUseCase{
		parser: parser,
		engine: engine,
		logger: logger,
	}
}

// Evaluate validated build -> fresh result, never cached
func (u *compatibilityUseCase) Evaluate(ctx context.Context, build entity.Build, overrideReason string) (entity.BuildCompatibility, error) {
	if err := ValidateBuild(build); err != nil {
		return entity.BuildCompatibility{}, err
	}

	result := u.engine.Evaluate(compat.ParseBuild(build, u.parser))
	result.OverrideReason = overrideReason

	u.logger.DebugContext(ctx, "build evaluated",
		"components", len(build),
		"hard", len(result.HardFails),
		"soft", len(result.SoftWarns),
		"score", result.Score,
	)
	return result, nil
}

// ParseComponent parses one component as its category's kind
func (u *compatibilityUseCase) ParseComponent(category string, component entity.ComponentFacts) entity.ParsedSpec {
	return u.parser.Parse(entity.KindForCategory(category), component.Text())
}

// ValidateBuild rejects an empty build or a component without an id
func ValidateBuild(build entity.Build) error {
	if len(build) == 0 {
		return fmt.Errorf("%w: no components", entity.ErrInvalidBuild)
	}
	categories := make([]string, 0, len(build))
	for category := range build {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	for _, category := range categories {
		if category == "" {
			return fmt.Errorf("%w: empty category", entity.ErrInvalidBuild)
		}
		if build[category].ID == "" {
			return fmt.Errorf("%w: component %q has no id", entity.ErrInvalidBuild, category)
		}
	}
	return nil
}
