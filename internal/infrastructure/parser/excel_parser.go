package parser

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/yourusername/pc-builder/internal/domain/entity"
	"github.com/yourusername/pc-builder/internal/domain/repository"
)

type excelParser struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewExcelParser vendor price-sheet parser
func NewExcelParser(logger *slog.Logger) repository.SheetParser {
	if logger == nil {
		logger = slog.Default()
	}
	return &excelParser{logger: logger, now: time.Now}
}

// ParseListings reads listings from an xlsx file on disk
func (e *excelParser) ParseListings(ctx context.Context, vendor, filePath string) ([]entity.Listing, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open excel file: %w", err)
	}
	defer f.Close()

	return e.parseExcelFile(ctx, vendor, f)
}

// ParseListingsFromBytes reads listings from an uploaded xlsx document
func (e *excelParser) ParseListingsFromBytes(ctx context.Context, vendor string, data []byte, filename string) ([]entity.Listing, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open excel %s: %w", filename, err)
	}
	defer f.Close()

	return e.parseExcelFile(ctx, vendor, f)
}

// parseExcelFile reads the first sheet as a table, one listing per row
func (e *excelParser) parseExcelFile(ctx context.Context, vendor string, f *excelize.File) ([]entity.Listing, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, entity.ErrNoSheets
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("excel file is empty")
	}

	// a numeric second cell means the sheet has no header row
	hasHeader := true
	startRow := 1
	if len(rows[0]) > 1 {
		if _, err := parseCents(rows[0][1]); err == nil {
			hasHeader = false
			startRow = 0
		}
	}

	var header []string
	var columnMap map[string]int
	if hasHeader {
		header = rows[0]
		columnMap = mapColumns(header)
	} else {
		columnMap = map[string]int{"name": 0, "price": 1, "url": 2}
	}
	if _, ok := columnMap["price"]; !ok {
		if guessed := detectPriceColumn(rows, startRow); guessed >= 0 {
			columnMap["price"] = guessed
		}
	}
	e.logger.Debug("sheet columns mapped", "vendor", vendor, "sheet", sheets[0], "columns", columnMap, "rows", len(rows))

	nameCol, hasName := columnMap["name"]
	priceCol, hasPrice := columnMap["price"]
	if !hasName || !hasPrice {
		return nil, fmt.Errorf("sheet %s has no name or price column", sheets[0])
	}

	used := make(map[int]struct{}, len(columnMap))
	for _, idx := range columnMap {
		used[idx] = struct{}{}
	}

	now := e.now()
	var listings []entity.Listing
	for i := startRow; i < len(rows); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row := rows[i]
		if len(row) == 0 || isEmptyRow(row) {
			continue
		}

		name := cell(row, nameCol)
		price, err := parseCents(cell(row, priceCol))
		if name == "" || err != nil || price <= 0 {
			e.logger.Debug("skipping sheet row", "vendor", vendor, "row", i+1, "name", name)
			continue
		}

		listing := entity.Listing{
			ID:           uuid.New().String(),
			Vendor:       vendor,
			Name:         name,
			Price:        price,
			Shipping:     -1,
			InStock:      true,
			Category:     cellOf(row, columnMap, "category"),
			Manufacturer: cellOf(row, columnMap, "manufacturer"),
			Model:        cellOf(row, columnMap, "model"),
			SKU:          cellOf(row, columnMap, "sku"),
			UPC:          cellOf(row, columnMap, "upc"),
			MPN:          cellOf(row, columnMap, "mpn"),
			URL:          cellOf(row, columnMap, "url"),
			Currency:     strings.ToUpper(cellOf(row, columnMap, "currency")),
			Specs:        make(map[string]string),
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if listing.URL == "" {
			e.logger.Debug("skipping sheet row without url", "vendor", vendor, "row", i+1, "name", name)
			continue
		}
		if listing.Category == "" {
			listing.Category = detectCategory(name)
		}
		if raw := cellOf(row, columnMap, "shipping"); raw != "" {
			listing.Shipping = parseShipping(raw)
		}
		if raw := cellOf(row, columnMap, "stock"); raw != "" {
			listing.InStock = parseStock(raw)
		}

		// remaining columns are kept as specs
		for idx, raw := range row {
			if _, ok := used[idx]; ok {
				continue
			}
			value := strings.TrimSpace(raw)
			if value == "" {
				continue
			}
			key := fmt.Sprintf("extra_%d", idx)
			if idx < len(header) && strings.TrimSpace(header[idx]) != "" {
				key = strings.TrimSpace(header[idx])
			}
			listing.Specs[key] = value
		}

		listings = append(listings, listing)
	}

	e.logger.Info("sheet parsed", "vendor", vendor, "listings", len(listings), "rows", len(rows)-startRow)
	if len(listings) == 0 {
		return nil, fmt.Errorf("no valid listings found in sheet (%d rows)", len(rows)-startRow)
	}
	return listings, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func cellOf(row []string, columnMap map[string]int, field string) string {
	idx, ok := columnMap[field]
	if !ok {
		return ""
	}
	return cell(row, idx)
}

// isEmptyRow reports a row with only blank cells
func isEmptyRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// detectPriceColumn picks the column with the most parsable prices
func detectPriceColumn(rows [][]string, startRow int) int {
	maxCols := 0
	limitRows := min(startRow+15, len(rows))
	for i := startRow; i < limitRows; i++ {
		maxCols = max(maxCols, len(rows[i]))
	}

	bestCol, bestCount := -1, 0
	for col := 0; col < maxCols; col++ {
		count := 0
		for i := startRow; i < limitRows; i++ {
			if v := cell(rows[i], col); v != "" {
				if _, err := parseCents(v); err == nil {
					count++
				}
			}
		}
		if count > bestCount {
			bestCol, bestCount = col, count
		}
	}
	if bestCount >= 2 {
		return bestCol
	}
	return -1
}

// columnAliases header keywords per field, checked in order
var columnAliases = []struct {
	field    string
	keywords []string
}{
	{"url", []string{"url", "link", "href"}},
	{"sku", []string{"sku", "item number", "item #", "item id"}},
	{"upc", []string{"upc", "ean", "gtin", "barcode"}},
	{"mpn", []string{"mpn", "part number", "part #", "mfr part", "manufacturer part"}},
	{"manufacturer", []string{"manufacturer", "brand", "maker", "vendor brand"}},
	{"model", []string{"model"}},
	{"shipping", []string{"shipping", "delivery", "freight"}},
	{"currency", []string{"currency", "ccy"}},
	{"price", []string{"price", "cost", "amount", "usd", "$"}},
	{"category", []string{"category", "type", "kind"}},
	{"stock", []string{"stock", "availability", "available", "qty", "quantity"}},
	{"name", []string{"name", "title", "product", "description"}},
}

// mapColumns maps header cells to listing fields; the first column wins per field
func mapColumns(header []string) map[string]int {
	columnMap := make(map[string]int)
	for i, col := range header {
		colName := strings.ToLower(strings.TrimSpace(col))
		if colName == "" {
			continue
		}
		for _, alias := range columnAliases {
			if _, taken := columnMap[alias.field]; taken {
				continue
			}
			if contains(colName, alias.keywords...) {
				columnMap[alias.field] = i
				break
			}
		}
	}
	if _, ok := columnMap["name"]; !ok && len(header) > 0 {
		columnMap["name"] = 0
	}
	return columnMap
}

func contains(str string, keywords ...string) bool {
	for _, keyword := range keywords {
		if strings.Contains(str, keyword) {
			return true
		}
	}
	return false
}

// parseCents parses "$1,299.99" style prices into cents
func parseCents(priceStr string) (int64, error) {
	s := strings.ToLower(strings.TrimSpace(priceStr))
	if s == "" {
		return 0, fmt.Errorf("empty price")
	}
	s = strings.NewReplacer(",", "", " ", "", "$", "", "€", "", "£", "", "usd", "", "eur", "", "gbp", "").Replace(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid price format: %s", priceStr)
	}
	return d.Shift(2).Round(0).IntPart(), nil
}

// parseShipping returns cents, 0 for "free", -1 when unparsable
func parseShipping(raw string) int64 {
	lower := strings.ToLower(strings.TrimSpace(raw))
	if strings.Contains(lower, "free") {
		return 0
	}
	cents, err := parseCents(lower)
	if err != nil || cents < 0 {
		return -1
	}
	return cents
}

func parseStock(raw string) bool {
	lower := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case contains(lower, "out", "sold", "no", "unavailable", "backorder"):
		return false
	case contains(lower, "in stock", "yes", "available", "true"):
		return true
	}
	if n, err := decimal.NewFromString(lower); err == nil {
		return n.IsPositive()
	}
	return true
}

// detectCategory guesses a build category from the listing title.
// The most specific markers are checked first.
func detectCategory(name string) string {
	n := strings.ToLower(name)
	switch {
	case contains(n, "monitor", "display", "144hz", "165hz", "240hz"):
		return "Monitor"
	case contains(n, "nvme", "ssd", "m.2", "hdd", "hard drive"):
		return "SSD"
	case contains(n, "ddr4", "ddr5", "dimm", "memory kit"):
		return "RAM"
	case contains(n, "power supply", "psu", "sfx", "80+", "80 plus"):
		return "PSU"
	case contains(n, "cpu cooler", "aio", "liquid cooler", "air cooler", "heatsink", "noctua nh"):
		return "Cooler"
	case contains(n, "motherboard", "mainboard", "b650", "b760", "x670", "x870", "z790", "z890", "b550", "x570", "a620"):
		return "Motherboard"
	case contains(n, "rtx", "gtx", "radeon", "geforce", "rx 7", "rx 9", "arc a", "arc b"):
		return "GPU"
	case contains(n, "ryzen", "core i", "core ultra", "processor", "xeon", "threadripper"):
		return "CPU"
	case contains(n, "case", "chassis", "tower"):
		return "Case"
	}
	return "Other"
}
