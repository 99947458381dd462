package telegram

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/pc-builder/internal/domain/entity"
	"github.com/yourusername/pc-builder/internal/usecase"
)

func TestParsePriceQuery(t *testing.T) {
	part, err := parsePriceQuery(" AMD | Ryzen 7 7800X3D ")
	require.NoError(t, err)
	assert.Equal(t, "AMD", part.Manufacturer)
	assert.Equal(t, "Ryzen 7 7800X3D", part.Model)
	assert.Equal(t, "amd ryzen 7 7800x3d", part.ID)

	part, err = parsePriceQuery("Corsair SF750")
	require.NoError(t, err)
	assert.Equal(t, "Corsair", part.Manufacturer)
	assert.Equal(t, "SF750", part.Model)

	for _, bad := range []string{"", "AMD", "AMD |", "| Ryzen"} {
		_, err := parsePriceQuery(bad)
		assert.ErrorIs(t, err, entity.ErrInvalidPart, bad)
	}
}

func TestParseBuildLines(t *testing.T) {
	build, err := parseBuildLines("CPU: Ryzen 7 7800X3D AM5\n\nSSD: 990 Pro NVMe\nssd: SN850X NVMe\nMotherboard: B650E-I AM5")
	require.NoError(t, err)

	assert.Equal(t, entity.Build{
		"CPU":         {ID: "cpu", Spec: "Ryzen 7 7800X3D AM5"},
		"SSD":         {ID: "ssd", Spec: "990 Pro NVMe"},
		"ssd 2":       {ID: "ssd-2", Spec: "SN850X NVMe"},
		"Motherboard": {ID: "motherboard", Spec: "B650E-I AM5"},
	}, build)

	_, err = parseBuildLines("CPU Ryzen")
	assert.Error(t, err)

	_, err = parseBuildLines("  \n ")
	assert.ErrorIs(t, err, entity.ErrInvalidBuild)
}

func TestFormatCompatibility(t *testing.T) {
	clean := formatCompatibility(entity.BuildCompatibility{Score: 100, RulesVersion: "r1"})
	assert.Equal(t, "Score: 100/100 (rules r1)\n\nNo issues found.", clean)

	text := formatCompatibility(entity.BuildCompatibility{
		Score:        65,
		RulesVersion: "r1",
		HardFails:    []entity.Finding{{RuleID: "CORE-001", Issue: "CPU socket mismatch", Details: "CPU is AM5 but the motherboard is AM4"}},
		SoftWarns:    []entity.Finding{{RuleID: "CORE-008", Issue: "Long GPU", Details: "check front fans"}},
	})
	assert.Equal(t, "Score: 65/100 (rules r1)\n\nIncompatible:\n• CORE-001 CPU socket mismatch: CPU is AM5 but the motherboard is AM4\n\nWarnings:\n• CORE-008 Long GPU: check front fans", text)
}

func TestFormatPrices(t *testing.T) {
	part := entity.PartIdentity{Manufacturer: "AMD", Model: "Ryzen 5 7600"}
	empty := formatPrices(part, entity.NewPriceResult("p", nil, time.Now()), 5)
	assert.Equal(t, "Prices for AMD Ryzen 5 7600\n\nNo offers found.", empty)

	offers := []entity.Offer{
		{Vendor: "microcenter", URL: "https://mc.example/1", BasePrice: 17999, TaxEstimate: 1440, Total: 19439, InStock: true, Currency: "USD", Notes: "in-store pickup only"},
		{Vendor: "amazon", URL: "https://amazon.example/1", BasePrice: 18900, Shipping: 1000, TaxEstimate: 1512, Total: 21412, Currency: "EUR"},
	}
	text := formatPrices(part, entity.NewPriceResult("p", offers, time.Now()), 1)
	assert.Contains(t, text, "1. microcenter $194.39 ($179.99 + $0.00 shipping + $14.40 tax), in stock")
	assert.Contains(t, text, "in-store pickup only")
	assert.Contains(t, text, "…and 1 more")
	assert.NotContains(t, text, "amazon")
}

func TestMoney(t *testing.T) {
	assert.Equal(t, "$0.05", money(5, ""))
	assert.Equal(t, "$1299.99", money(129999, "USD"))
	assert.Equal(t, "89.00 EUR", money(8900, "EUR"))
}

func TestFormatVendorsAndSummary(t *testing.T) {
	assert.Equal(t, "No vendors are enabled.", formatVendors(nil))
	assert.Equal(t, "Enabled vendors: amazon, newegg", formatVendors([]string{"amazon", "newegg"}))

	assert.Contains(t, formatSummary(nil), "empty")
	assert.Equal(t, "Catalog:\namazon: 3 listings, 2 in stock",
		formatSummary([]usecase.VendorSummary{{Vendor: "amazon", Listings: 3, InStock: 2}}))
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "abc", truncateString("abc", 5))
	assert.Equal(t, "ab...", truncateString("abcdefgh", 5))
	assert.Equal(t, "ñé", truncateString("ñéü", 2))
}
