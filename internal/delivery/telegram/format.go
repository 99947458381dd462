package telegram

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/yourusername/pc-builder/internal/domain/entity"
	"github.com/yourusername/pc-builder/internal/usecase"
)

const helpMessage = `PC build assistant

/check - check a build, one "Category: spec" line per component
/price <manufacturer> | <model> - best offers for a part
/vendors - vendors currently priced
/catalog - imported listings per vendor (admins)

Admins upload vendor price sheets as .xlsx files with the vendor name as caption.`

// parsePriceQuery reads "AMD | Ryzen 7 7800X3D" or "AMD Ryzen 7 7800X3D"
func parsePriceQuery(args string) (entity.PartIdentity, error) {
	args = strings.TrimSpace(args)
	var manufacturer, model string
	if m, rest, found := strings.Cut(args, "|"); found {
		manufacturer, model = strings.TrimSpace(m), strings.TrimSpace(rest)
	} else if fields := strings.Fields(args); len(fields) > 1 {
		manufacturer, model = fields[0], strings.Join(fields[1:], " ")
	}
	if manufacturer == "" || model == "" {
		return entity.PartIdentity{}, fmt.Errorf("%w: manufacturer and model are required", entity.ErrInvalidPart)
	}
	return entity.PartIdentity{
		ID:           entity.CacheKey(manufacturer, model),
		Manufacturer: manufacturer,
		Model:        model,
	}, nil
}

// parseBuildLines reads one "Category: spec" line per component. Repeated
// categories get an ordinal ("SSD", "SSD 2").
func parseBuildLines(text string) (entity.Build, error) {
	build := entity.Build{}
	seen := map[string]int{}
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		category, spec, found := strings.Cut(line, ":")
		category, spec = strings.TrimSpace(category), strings.TrimSpace(spec)
		if !found || category == "" || spec == "" {
			return nil, fmt.Errorf("line %d: expected \"Category: spec\"", i+1)
		}

		key := strings.ToLower(category)
		seen[key]++
		if n := seen[key]; n > 1 {
			category = fmt.Sprintf("%s %d", category, n)
		}
		build[category] = entity.ComponentFacts{
			ID:   strings.ReplaceAll(strings.ToLower(category), " ", "-"),
			Spec: spec,
		}
	}
	if len(build) == 0 {
		return nil, fmt.Errorf("%w: no components", entity.ErrInvalidBuild)
	}
	return build, nil
}

func formatCompatibility(r entity.BuildCompatibility) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Score: %d/100 (rules %s)\n", r.Score, r.RulesVersion)
	if len(r.HardFails) == 0 && len(r.SoftWarns) == 0 {
		sb.WriteString("\nNo issues found.")
		return sb.String()
	}
	writeFindings(&sb, "Incompatible", r.HardFails)
	writeFindings(&sb, "Warnings", r.SoftWarns)
	return strings.TrimRight(sb.String(), "\n")
}

func writeFindings(sb *strings.Builder, title string, findings []entity.Finding) {
	if len(findings) == 0 {
		return
	}
	fmt.Fprintf(sb, "\n%s:\n", title)
	for _, f := range findings {
		fmt.Fprintf(sb, "• %s %s: %s\n", f.RuleID, f.Issue, f.Details)
	}
}

func formatPrices(part entity.PartIdentity, r entity.PriceResult, limit int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Prices for %s %s\n", part.Manufacturer, part.Model)
	if len(r.Offers) == 0 {
		sb.WriteString("\nNo offers found.")
		return sb.String()
	}
	for i, o := range r.Offers {
		if limit > 0 && i == limit {
			fmt.Fprintf(&sb, "\n…and %d more", len(r.Offers)-limit)
			break
		}
		stock := "in stock"
		if !o.InStock {
			stock = "out of stock"
		}
		fmt.Fprintf(&sb, "\n%d. %s %s (%s + %s shipping + %s tax), %s\n",
			i+1, o.Vendor, money(o.Total, o.Currency),
			money(o.BasePrice, o.Currency), money(o.Shipping, o.Currency), money(o.TaxEstimate, o.Currency),
			stock,
		)
		if o.Notes != "" {
			fmt.Fprintf(&sb, "   %s\n", o.Notes)
		}
		fmt.Fprintf(&sb, "   %s\n", o.URL)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// money formats cents, "$12.34" for USD and "12.34 EUR" otherwise
func money(cents int64, currency string) string {
	amount := decimal.New(cents, -2).StringFixed(2)
	if currency == "" || currency == entity.DefaultCurrency {
		return "$" + amount
	}
	return amount + " " + currency
}

func formatVendors(vendors []string) string {
	if len(vendors) == 0 {
		return "No vendors are enabled."
	}
	return "Enabled vendors: " + strings.Join(vendors, ", ")
}

func formatSummary(summary []usecase.VendorSummary) string {
	if len(summary) == 0 {
		return "The catalog is empty. Upload a vendor .xlsx sheet."
	}
	var sb strings.Builder
	sb.WriteString("Catalog:")
	for _, s := range summary {
		fmt.Fprintf(&sb, "\n%s: %d listings, %d in stock", s.Vendor, s.Listings, s.InStock)
	}
	return sb.String()
}

// truncateString cuts s to max runes
func truncateString(s string, max int) string {
	runes := []rune(s)
	if max <= 0 || len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
