package compat

import (
	"github.com/yourusername/pc-builder/internal/domain/entity"
)

// RulesVersion version of the rule catalogue stamped into every result
const RulesVersion = "2025.06-r18"

// Rule one compatibility check. A rule is only evaluated when every kind it
// requires is present in the build and returns at most one finding.
type Rule interface {
	ID() string
	Requires() []entity.Kind
	Evaluate(b *ParsedBuild) *entity.Finding
}

// Engine runs a fixed ordered rule list
type Engine struct {
	rules []Rule
}

// NewEngine creates an engine over rules, or DefaultRules when none are given.
func NewEngine(rules ...Rule) *Engine {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Engine{rules: rules}
}

// Rules returns the rule list in evaluation order
func (e *Engine) Rules() []Rule {
	return e.rules
}

// Run evaluates every applicable rule and splits findings by severity,
// keeping catalogue order within each slice.
func (e *Engine) Run(b *ParsedBuild) (hard, soft []entity.Finding) {
	hard = []entity.Finding{}
	soft = []entity.Finding{}
	for _, r := range e.rules {
		if !b.hasAll(r.Requires()) {
			continue
		}
		f := r.Evaluate(b)
		if f == nil {
			continue
		}
		if f.Severity == entity.SeverityHard {
			hard = append(hard, *f)
		} else {
			soft = append(soft, *f)
		}
	}
	return hard, soft
}

// Evaluate runs the rules and scores the result
func (e *Engine) Evaluate(b *ParsedBuild) entity.BuildCompatibility {
	hard, soft := e.Run(b)
	return entity.BuildCompatibility{
		HardFails:    hard,
		SoftWarns:    soft,
		Score:        Score(len(hard), len(soft)),
		RulesVersion: RulesVersion,
	}
}

// Score maps finding counts to 0..100: 25 points per hard fail, 10 per soft warning.
func Score(hardFails, softWarns int) int {
	score := 100 - 25*hardFails - 10*softWarns
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
