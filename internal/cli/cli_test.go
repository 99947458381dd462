package cli

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/yourusername/pc-builder/internal/domain/entity"
)

// testEnv isolates config from the host and points the catalog at a temp database.
func testEnv(t *testing.T) {
	t.Helper()
	defaultLogger := slog.Default()
	t.Cleanup(func() { slog.SetDefault(defaultLogger) })

	t.Setenv("CATALOG_DB_PATH", filepath.Join(t.TempDir(), "catalog.db"))
	t.Setenv("ENABLED_VENDORS", "*")
	t.Setenv("TAX_RATE", "0.05")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("HEURISTICS_FILE", "")
	t.Setenv("LOG_LEVEL", "error")
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

const mismatchedBuild = `{
	"CPU": {"id": "cpu-1", "name": "Intel Core i5-13600K", "spec": "LGA1700, 125W"},
	"Motherboard": {"id": "mb-1", "name": "MSI B550 Tomahawk", "spec": "AM4 ATX DDR4"}
}`

func TestCheck_HardFailureText(t *testing.T) {
	testEnv(t)

	out, err := execute(t, mismatchedBuild, "check", "-")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "score ")
	assert.Contains(t, out, "FAIL CORE-001")
	assert.Contains(t, out, "[cpu-1, mb-1]")
}

func TestCheck_EnvelopeJSON(t *testing.T) {
	testEnv(t)
	input := `{"build": ` + mismatchedBuild + `, "overrideReason": "customer supplied board"}`

	out, err := execute(t, input, "--format", "json", "check", "-")
	require.Error(t, err)

	var resp struct {
		Status string                    `json:"status"`
		Data   entity.BuildCompatibility `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data.HardFails, 1)
	assert.Equal(t, "CORE-001", resp.Data.HardFails[0].RuleID)
	assert.Equal(t, "customer supplied board", resp.Data.OverrideReason)
}

func TestCheck_CompatibleBuildSucceeds(t *testing.T) {
	testEnv(t)
	input := `{
		"CPU": {"id": "cpu-1", "spec": "AMD Ryzen 5 7600 AM5 65W"},
		"Motherboard": {"id": "mb-1", "spec": "B650 AM5 ATX DDR5"},
		"RAM": {"id": "ram-1", "spec": "32GB DDR5-6000"}
	}`

	out, err := execute(t, input, "check", "-", "--override-reason", "n/a")
	require.NoError(t, err)
	assert.NotContains(t, out, "FAIL")
	assert.Contains(t, out, "override: n/a")
}

func TestCheck_InvalidInput(t *testing.T) {
	testEnv(t)

	_, err := execute(t, "not json", "check", "-")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = execute(t, `{}`, "check", "-")
	require.Error(t, err)
	assert.ErrorIs(t, err, entity.ErrInvalidBuild)

	_, err = execute(t, "", "check", filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRoot_InvalidFormat(t *testing.T) {
	testEnv(t)

	_, err := execute(t, mismatchedBuild, "--format", "yaml", "check", "-")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "yaml"`)
}

func writeSheet(t *testing.T, rows ...[]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"Product Name", "Price", "URL"}))
	for i, row := range rows {
		cellName, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cellName, &row))
	}
	path := filepath.Join(t.TempDir(), "amazon.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestImportThenPrice(t *testing.T) {
	testEnv(t)
	sheet := writeSheet(t,
		[]any{"AMD Ryzen 5 7600 Processor", "199.99", "https://www.amazon.com/dp/R5"},
		[]any{"Corsair SF750 SFX Power Supply", "169.99", "https://www.amazon.com/dp/SF750"},
	)

	out, err := execute(t, "", "import", "amazon", sheet)
	require.NoError(t, err)
	assert.Equal(t, "imported 2 listings for amazon\n", out)

	out, err = execute(t, "", "--format", "json", "price", "AMD", "Ryzen", "5", "7600")
	require.NoError(t, err)

	var resp struct {
		Status string             `json:"status"`
		Data   entity.PriceResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Offers, 1)
	best := resp.Data.Offers[0]
	assert.Equal(t, "amazon", best.Vendor)
	assert.Equal(t, int64(19999), best.BasePrice)
	assert.Equal(t, int64(0), best.Shipping)
	assert.Equal(t, int64(1000), best.TaxEstimate)
	assert.Equal(t, int64(20999), best.Total)
	assert.Equal(t, entity.CacheKey("AMD", "Ryzen 5 7600"), resp.Data.PartID)

	out, err = execute(t, "", "price", "AMD", "Ryzen", "9", "9950X")
	require.NoError(t, err)
	assert.Contains(t, out, "no offers for amd ryzen 9 9950x")
}

func TestImport_UnknownVendor(t *testing.T) {
	testEnv(t)
	sheet := writeSheet(t, []any{"AMD Ryzen 5 7600", "199.99", "https://example.com/r5"})

	_, err := execute(t, "", "import", "ebay", sheet)
	require.Error(t, err)
	assert.ErrorIs(t, err, entity.ErrUnknownVendor)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
