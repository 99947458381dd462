package storage

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/yourusername/pc-builder/internal/domain/entity"
)

// matchesPart reports whether a catalog listing describes part.
// Identifiers (MPN, SKU, UPC) decide when both sides carry one; otherwise
// the manufacturer and model are compared after normalization, falling back
// to the model tokens inside the listing title.
func matchesPart(l entity.Listing, part entity.PartIdentity) bool {
	conflict := false
	for _, pair := range [][2]string{{l.MPN, part.MPN}, {l.SKU, part.SKU}, {l.UPC, part.UPC}} {
		a, b := normalizeAlphaNum(pair[0]), normalizeAlphaNum(pair[1])
		if a == "" || b == "" {
			continue
		}
		if a == b {
			return true
		}
		conflict = true
	}
	if conflict {
		return false
	}

	model := normalizeAlphaNum(part.Model)
	if model == "" {
		return false
	}
	if m := normalizeAlphaNum(part.Manufacturer); m != "" {
		if lm := normalizeAlphaNum(l.Manufacturer); lm != "" && lm != m {
			return false
		}
	}
	if l.Model != "" && normalizeAlphaNum(l.Model) == model {
		return true
	}
	return containsTokens(l.Name, part.Model)
}

// tierTokens name a different SKU of the same model number ("RTX 4070" vs
// "RTX 4070 Ti Super").
var tierTokens = map[string]struct{}{
	"ti": {}, "super": {}, "xt": {}, "xtx": {}, "gre": {},
}

// containsTokens reports whether every token of query appears in text and
// text carries no tier token the query lacks.
func containsTokens(text, query string) bool {
	tokens := queryTokens(query)
	if len(tokens) == 0 {
		return false
	}
	want := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		want[t] = struct{}{}
	}
	have := make(map[string]struct{})
	for _, t := range queryTokens(text) {
		if _, tier := tierTokens[t]; tier {
			if _, asked := want[t]; !asked {
				return false
			}
		}
		have[t] = struct{}{}
	}
	for _, t := range tokens {
		if _, ok := have[t]; !ok {
			return false
		}
	}
	return true
}

func queryTokens(q string) []string {
	q = strings.ToLower(norm.NFKC.String(q))
	separators := []string{",", "?", "!", ";", ":", "/", "\\", "-", "_", "(", ")"}
	for _, sep := range separators {
		q = strings.ReplaceAll(q, sep, " ")
	}
	return strings.Fields(q)
}

func normalizeAlphaNum(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(norm.NFKC.String(s)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
