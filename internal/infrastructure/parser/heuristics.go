package parser

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed heuristics.yaml
var defaultHeuristics []byte

// TDPTier CPU tier and its assumed TDP
type TDPTier struct {
	Match []string `yaml:"match"`
	Watts int      `yaml:"watts"`
}

// VRMTable chipset and SKU markers used to classify board power delivery
type VRMTable struct {
	EntryChipsets []string `yaml:"entry_chipsets"`
	HighChipsets  []string `yaml:"high_chipsets"`
	EntryMarkers  []string `yaml:"entry_markers"`
	HighMarkers   []string `yaml:"high_markers"`
}

// Heuristics lookup tables behind parser defaults
type Heuristics struct {
	CPUTDP               []TDPTier      `yaml:"cpu_tdp"`
	GPUPower             map[string]int `yaml:"gpu_power"`
	VRM                  VRMTable       `yaml:"vrm"`
	CoolerRAMClearanceMm int            `yaml:"cooler_ram_clearance_mm"`
	SlotWidthMm          float64        `yaml:"slot_width_mm"`
	Brands               []string       `yaml:"brands"`

	gpuKeys    []string
	tdpRules   []tdpRule
	brandRules []brandRule
}

type brandRule struct {
	re    *regexp.Regexp
	brand string
}

type tdpRule struct {
	re    *regexp.Regexp
	watts int
}

// DefaultHeuristics returns the embedded tables.
func DefaultHeuristics() *Heuristics {
	h, err := decodeHeuristics(defaultHeuristics, nil)
	if err != nil {
		// embedded document is covered by tests
		panic(err)
	}
	return h
}

// LoadHeuristics overlays the YAML file at path on the embedded tables.
// An empty path returns the defaults.
func LoadHeuristics(path string) (*Heuristics, error) {
	base := DefaultHeuristics()
	if path == "" {
		return base, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read heuristics file: %w", err)
	}
	return decodeHeuristics(data, base)
}

func decodeHeuristics(data []byte, base *Heuristics) (*Heuristics, error) {
	h := &Heuristics{}
	if base != nil {
		*h = *base
		h.GPUPower = make(map[string]int, len(base.GPUPower))
		for k, v := range base.GPUPower {
			h.GPUPower[k] = v
		}
	}

	var overlay Heuristics
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return nil, fmt.Errorf("failed to decode heuristics: %w", err)
	}
	if len(overlay.CPUTDP) > 0 {
		h.CPUTDP = overlay.CPUTDP
	}
	if h.GPUPower == nil {
		h.GPUPower = map[string]int{}
	}
	for k, v := range overlay.GPUPower {
		h.GPUPower[compact(strings.ToLower(k))] = v
	}
	if len(overlay.VRM.EntryChipsets) > 0 {
		h.VRM.EntryChipsets = overlay.VRM.EntryChipsets
	}
	if len(overlay.VRM.HighChipsets) > 0 {
		h.VRM.HighChipsets = overlay.VRM.HighChipsets
	}
	if len(overlay.VRM.EntryMarkers) > 0 {
		h.VRM.EntryMarkers = overlay.VRM.EntryMarkers
	}
	if len(overlay.VRM.HighMarkers) > 0 {
		h.VRM.HighMarkers = overlay.VRM.HighMarkers
	}
	if overlay.CoolerRAMClearanceMm > 0 {
		h.CoolerRAMClearanceMm = overlay.CoolerRAMClearanceMm
	}
	if overlay.SlotWidthMm > 0 {
		h.SlotWidthMm = overlay.SlotWidthMm
	}
	if len(overlay.Brands) > 0 {
		h.Brands = overlay.Brands
	}

	h.index()
	return h, nil
}

func (h *Heuristics) index() {
	h.gpuKeys = h.gpuKeys[:0:0]
	for k := range h.GPUPower {
		h.gpuKeys = append(h.gpuKeys, k)
	}
	// longest key first so "4070ti" wins over "4070"
	sort.Slice(h.gpuKeys, func(i, j int) bool {
		if len(h.gpuKeys[i]) != len(h.gpuKeys[j]) {
			return len(h.gpuKeys[i]) > len(h.gpuKeys[j])
		}
		return h.gpuKeys[i] < h.gpuKeys[j]
	})

	h.tdpRules = nil
	for _, tier := range h.CPUTDP {
		for _, m := range tier.Match {
			h.tdpRules = append(h.tdpRules, tdpRule{re: tokenPattern(m), watts: tier.Watts})
		}
	}

	h.brandRules = nil
	for _, b := range h.Brands {
		h.brandRules = append(h.brandRules, brandRule{re: tokenPattern(b), brand: b})
	}
}

// BrandIn returns the brand that appears earliest in a listing title.
func (h *Heuristics) BrandIn(title string) (string, bool) {
	lower := strings.ToLower(title)
	best, bestAt := "", -1
	for _, rule := range h.brandRules {
		loc := rule.re.FindStringIndex(lower)
		if loc == nil {
			continue
		}
		if bestAt < 0 || loc[0] < bestAt {
			best, bestAt = rule.brand, loc[0]
		}
	}
	return best, bestAt >= 0
}

// CPUDefaultTDP returns the tier TDP for a CPU name.
func (h *Heuristics) CPUDefaultTDP(text string) (int, bool) {
	for _, rule := range h.tdpRules {
		if rule.re.MatchString(text) {
			return rule.watts, true
		}
	}
	return 0, false
}

// GPUPowerFor looks up the board power of the recognized GPU family.
func (h *Heuristics) GPUPowerFor(text string) (int, bool) {
	c := compact(text)
	for _, key := range h.gpuKeys {
		if strings.Contains(c, key) {
			return h.GPUPower[key], true
		}
	}
	return 0, false
}

// tokenPattern matches s as a whole token inside lower-case text.
func tokenPattern(s string) *regexp.Regexp {
	return regexp.MustCompile(`(?:^|[^a-z0-9])` + regexp.QuoteMeta(strings.ToLower(s)) + `(?:[^a-z0-9]|$)`)
}

// compact drops spaces and dashes: "RTX 4070 Ti" -> "rtx4070ti".
func compact(s string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' || r == '_' {
			return -1
		}
		return r
	}, s)
}
