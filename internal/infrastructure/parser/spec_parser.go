package parser

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/yourusername/pc-builder/internal/domain/entity"
	"github.com/yourusername/pc-builder/internal/domain/repository"
)

// kindParser fills the facts of one component kind from normalized text.
type kindParser func(h *Heuristics, text string, out *entity.ParsedSpec)

type specParser struct {
	h       *Heuristics
	parsers map[entity.Kind]kindParser
}

// NewSpecParser pattern-based spec parser. A nil h uses DefaultHeuristics.
func NewSpecParser(h *Heuristics) repository.SpecParser {
	if h == nil {
		h = DefaultHeuristics()
	}
	return &specParser{
		h: h,
		parsers: map[entity.Kind]kindParser{
			entity.KindCPU:         parseCPU,
			entity.KindGPU:         parseGPU,
			entity.KindMotherboard: parseMotherboard,
			entity.KindRAM:         parseRAM,
			entity.KindPSU:         parsePSU,
			entity.KindCooler:      parseCooler,
			entity.KindCase:        parseCase,
			entity.KindStorage:     parseStorage,
			entity.KindOther:       parseStorage,
		},
	}
}

// Parse extracts facts for kind from raw text
func (p *specParser) Parse(kind entity.Kind, raw string) entity.ParsedSpec {
	spec := entity.ParsedSpec{Kind: kind}
	parse, ok := p.parsers[kind]
	if !ok {
		return spec
	}
	parse(p.h, normalizeText(raw), &spec)
	return spec
}

var (
	reSocket      = regexp.MustCompile(`\b(am5|am4|am3\+?|str5|swrx8|tr4|lga\s*-?\s*(\d{4}))\b`)
	reLGAList     = regexp.MustCompile(`lga\s*-?\s*(\d{4})((?:\s*/\s*\d{4})+)`)
	reWatts       = regexp.MustCompile(`\b(\d{2,4})\s*w\b`)
	reCPUPower    = regexp.MustCompile(`(?:tdp|pbp|base power|processor base power)\s*[:=]?\s*(\d{2,3})\s*w\b`)
	reGPUPower    = regexp.MustCompile(`(?:tgp|tbp|tdp|board power|power draw|power)\s*[:=]?\s*(\d{2,3})\s*w\b`)
	reLength      = regexp.MustCompile(`(?:length|long)\s*[:=]?\s*(\d{3}(?:\.\d+)?)\s*mm|(\d{3}(?:\.\d+)?)\s*mm\s*(?:long|length|in length)`)
	reDims        = regexp.MustCompile(`(\d{3}(?:\.\d+)?)\s*x\s*\d{2,3}(?:\.\d+)?\s*x\s*\d{2,3}(?:\.\d+)?\s*mm`)
	reSlots       = regexp.MustCompile(`\b(\d(?:\.\d+)?)\s*-?\s*slots?\b`)
	reThickness   = regexp.MustCompile(`(?:thickness|thick)\s*[:=]?\s*(\d{2})\s*mm|(\d{2})\s*mm\s*thick`)
	reHighPower   = regexp.MustCompile(`12vhpwr|12v-2x6|16[\s-]*pin`)
	rePCIe        = regexp.MustCompile(`pci[\s-]*e(?:xpress)?\s*(?:gen\s*)?([3-6])(?:\.0)?\b`)
	reChipset     = regexp.MustCompile(`\b([abhxz]\d{3})(e)?(?:-?([mi]))?\b`)
	reDDR         = regexp.MustCompile(`\bddr([45])\b|\bddr([45])-`)
	reRAMSpeed    = regexp.MustCompile(`(\d{4})\s*(?:mhz|mt/s|mts)|ddr[45][\s-]+(\d{4})`)
	reCapacity    = regexp.MustCompile(`(\d{1,3})\s*gb\b`)
	reHeight      = regexp.MustCompile(`(?:height|tall)\s*[:=]?\s*(\d{2,3}(?:\.\d)?)\s*mm|(\d{2,3}(?:\.\d)?)\s*mm\s*(?:tall|high|height)`)
	reSFXL        = regexp.MustCompile(`\bsfx[\s-]*l\b`)
	reSFX         = regexp.MustCompile(`\bsfx\b`)
	reATX         = regexp.MustCompile(`\batx\b`)
	rePSULength   = regexp.MustCompile(`(?:length|depth|long|deep)\s*[:=]?\s*(\d{3})\s*mm|(\d{3})\s*mm\s*(?:long|length|deep|depth)`)
	reCoolerTDP   = regexp.MustCompile(`(?:tdp|rated|cooling capacity)[^0-9]{0,12}(\d{2,3})\s*w\b|(\d{2,3})\s*w\s*tdp`)
	reAIO         = regexp.MustCompile(`\baio\b|liquid|radiator|water`)
	reRadiator    = regexp.MustCompile(`\b(120|140|240|280|360|420)\s*mm`)
	reTopDown     = regexp.MustCompile(`top[\s-]*(?:down|flow)|low[\s-]*profile`)
	reRAMClear    = regexp.MustCompile(`ram\s*clearance\s*[:=]?\s*(\d{2})\s*mm`)
	reEATX        = regexp.MustCompile(`\be-?atx\b|extended[\s-]*atx|\bssi[\s-]*eeb\b`)
	reMATX        = regexp.MustCompile(`micro[\s-]*atx|\bm-?atx\b|[µμ]atx|\buatx\b`)
	reITX         = regexp.MustCompile(`\bmini[\s-]*itx\b|\bitx\b`)
	reATXPSU      = regexp.MustCompile(`\batx\s*(?:3\.\d\s*)?(?:psu|power supply|power)`)
	reCaseCooler  = regexp.MustCompile(`(?:cpu\s*)?coolers?(?:\s*height)?(?:\s*clearance)?(?:\s*limit)?\s*[:=]?\s*(?:up\s*to\s*|max\.?\s*)?(\d{2,3})\s*mm`)
	reCaseGPU     = regexp.MustCompile(`(?:gpus?|graphics cards?|vga)(?:\s*length)?(?:\s*clearance)?\s*[:=]?\s*(?:up\s*to\s*|max\.?\s*)?(\d{3})\s*mm`)
	reCaseSlots   = regexp.MustCompile(`(?:gpu|graphics card|thickness)[^.;\n]{0,40}?\b(\d(?:\.\d+)?)\s*-?\s*slots?\b|\b(\d(?:\.\d+)?)\s*-?\s*slots?\s*(?:gpu|graphics)`)
	reCaseGPUMm   = regexp.MustCompile(`(?:gpu|graphics card)\s*(?:thickness|width)\s*[:=]?\s*(?:up\s*to\s*|max\.?\s*)?(\d{2})\s*mm`)
	reCasePSU     = regexp.MustCompile(`psu(?:\s*length)?\s*[:=]?\s*(?:up\s*to\s*|max\.?\s*)?(\d{3})\s*mm`)
	reSFXOnly     = regexp.MustCompile(`\bsfx[\s-]*(?:psu[\s-]*)?only\b|\bonly\s*sfx\s*(?:psu|power)`)
	reSandwich    = regexp.MustCompile(`sandwich`)
	reRiser       = regexp.MustCompile(`pci[\s-]*e(?:xpress)?\s*(?:gen\s*)?([3-6])(?:\.0)?\s*riser|riser[^.;\n]{0,30}?(?:gen\s*|pci[\s-]*e\s*)([3-6])`)
	reFront240    = regexp.MustCompile(`240\s*mm[^.;\n]{0,30}front|front[^.;\n]{0,30}240\s*mm`)
	reConflict    = regexp.MustCompile(`reduc|limit|restrict|conflict|incompatib|not compatible|blocks`)
	reStorageName = regexp.MustCompile(`nvme|\bssd\b|\bm\.2\b`)
	reX3D         = regexp.MustCompile(`x3d`)
)

func parseCPU(h *Heuristics, text string, out *entity.ParsedSpec) {
	out.Socket = firstSocket(text)
	out.X3D = reX3D.MatchString(text)

	if w, ok := firstInt(reCPUPower, text); ok {
		out.TDPWatts = entity.Ptr(w)
	} else if w, ok := firstInt(reWatts, text); ok {
		out.TDPWatts = entity.Ptr(w)
	} else if w, ok := h.CPUDefaultTDP(text); ok {
		out.TDPWatts = entity.Ptr(w)
	}
}

func parseGPU(h *Heuristics, text string, out *entity.ParsedSpec) {
	if w, ok := firstInt(reGPUPower, text); ok {
		out.PowerWatts = entity.Ptr(w)
	} else if w, ok := h.GPUPowerFor(text); ok {
		out.PowerWatts = entity.Ptr(w)
	}

	if l, ok := firstFloat(reLength, text); ok {
		out.LengthMm = entity.Ptr(int(math.Ceil(l)))
	} else if l, ok := firstFloat(reDims, text); ok {
		out.LengthMm = entity.Ptr(int(math.Ceil(l)))
	}

	if s, ok := firstFloat(reSlots, text); ok {
		out.Slots = entity.Ptr(s)
	}
	if t, ok := firstInt(reThickness, text); ok {
		out.ThicknessMm = entity.Ptr(t)
	} else if out.Slots != nil {
		out.ThicknessMm = entity.Ptr(int(math.Round(*out.Slots * h.SlotWidthMm)))
	}

	out.HighPowerConnector = reHighPower.MatchString(text)
	out.PCIeGen = maxInt(rePCIe, text)
}

func parseMotherboard(h *Heuristics, text string, out *entity.ParsedSpec) {
	out.Socket = firstSocket(text)
	out.MemoryType = memoryType(text)
	out.PCIeGen = maxInt(rePCIe, text)

	var suffix string
	if m := reChipset.FindStringSubmatch(text); m != nil {
		out.Chipset = entity.Ptr(strings.ToUpper(m[1] + m[2]))
		suffix = m[3]
	}

	if ff := boardFormFactor(text); ff != nil {
		out.FormFactor = ff
	} else if suffix == "m" {
		out.FormFactor = entity.Ptr(entity.FormFactorMicroATX)
	} else if suffix == "i" {
		out.FormFactor = entity.Ptr(entity.FormFactorMiniITX)
	}

	if out.Chipset != nil {
		out.VRM = entity.Ptr(classifyVRM(h, strings.ToLower(*out.Chipset), text))
	}
}

func parseRAM(_ *Heuristics, text string, out *entity.ParsedSpec) {
	out.MemoryType = memoryType(text)
	if s, ok := firstInt(reRAMSpeed, text); ok {
		out.SpeedMTs = entity.Ptr(s)
	}
	if c, ok := firstInt(reCapacity, text); ok {
		out.CapacityGB = entity.Ptr(c)
	}
	if hgt, ok := firstFloat(reHeight, text); ok {
		out.ModuleHeightMm = entity.Ptr(int(math.Ceil(hgt)))
	}
}

func parsePSU(_ *Heuristics, text string, out *entity.ParsedSpec) {
	if w, ok := firstInt(reWatts, text); ok && w >= 100 {
		out.Wattage = entity.Ptr(w)
	}
	switch {
	case reSFXL.MatchString(text):
		out.PSUFormFactor = entity.Ptr(entity.PSUFormFactorSFXL)
	case reSFX.MatchString(text):
		out.PSUFormFactor = entity.Ptr(entity.PSUFormFactorSFX)
	case reATX.MatchString(text):
		out.PSUFormFactor = entity.Ptr(entity.PSUFormFactorATX)
	}
	if l, ok := firstInt(rePSULength, text); ok {
		out.LengthMm = entity.Ptr(l)
	}
}

func parseCooler(h *Heuristics, text string, out *entity.ParsedSpec) {
	out.Sockets = allSockets(text)
	out.AIO = reAIO.MatchString(text)
	out.FrontMount = strings.Contains(text, "front")
	out.TopDown = !out.AIO && reTopDown.MatchString(text)

	if hgt, ok := firstFloat(reHeight, text); ok {
		out.HeightMm = entity.Ptr(int(math.Ceil(hgt)))
	}
	if w, ok := firstInt(reCoolerTDP, text); ok {
		out.RatedTDPWatts = entity.Ptr(w)
	}
	if out.AIO {
		// "360mm AIO with 120mm fans": the largest size is the radiator
		out.RadiatorMm = maxInt(reRadiator, text)
	}
	if c, ok := firstInt(reRAMClear, text); ok {
		out.RAMClearanceMm = entity.Ptr(c)
	} else if out.TopDown {
		out.RAMClearanceMm = entity.Ptr(h.CoolerRAMClearanceMm)
	}
}

func parseCase(_ *Heuristics, text string, out *entity.ParsedSpec) {
	out.MaxBoardFormFactor = largestBoardSupport(text)

	if v, ok := firstInt(reCaseCooler, text); ok {
		out.MaxCoolerHeightMm = entity.Ptr(v)
	}
	if v, ok := firstInt(reCaseGPU, text); ok {
		out.MaxGPULengthMm = entity.Ptr(v)
	}
	if v, ok := firstFloat(reCaseSlots, text); ok {
		out.MaxGPUSlots = entity.Ptr(v)
	}
	if v, ok := firstInt(reCaseGPUMm, text); ok {
		out.MaxGPUThicknessMm = entity.Ptr(v)
	}
	if v, ok := firstInt(reCasePSU, text); ok {
		out.MaxPSULengthMm = entity.Ptr(v)
	}

	out.SFXOnly = reSFXOnly.MatchString(text)
	out.SandwichLayout = reSandwich.MatchString(text)
	if v, ok := firstInt(reRiser, text); ok {
		out.RiserGen = entity.Ptr(v)
	}
	out.FrontRadiator240 = reFront240.MatchString(text)
	out.FrontAIOGPUConflict = documentsFrontAIOConflict(text)
}

func parseStorage(_ *Heuristics, text string, out *entity.ParsedSpec) {
	out.NVMe = reStorageName.MatchString(text)
}

// documentsFrontAIOConflict reports a sentence naming a 240 mm front
// radiator together with a GPU length restriction.
func documentsFrontAIOConflict(text string) bool {
	for _, sentence := range strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == ';' || r == '\n'
	}) {
		if strings.Contains(sentence, "240") &&
			strings.Contains(sentence, "front") &&
			(strings.Contains(sentence, "gpu") || strings.Contains(sentence, "graphics")) &&
			reConflict.MatchString(sentence) {
			return true
		}
	}
	return false
}

func classifyVRM(h *Heuristics, chipset, text string) entity.VRMClass {
	base := strings.TrimSuffix(chipset, "e")
	for _, c := range h.VRM.EntryChipsets {
		if base == c {
			return entity.VRMEntry
		}
	}
	for _, m := range h.VRM.EntryMarkers {
		if strings.Contains(text, m) {
			return entity.VRMEntry
		}
	}
	for _, c := range h.VRM.HighChipsets {
		if chipset == c {
			return entity.VRMHigh
		}
	}
	for _, m := range h.VRM.HighMarkers {
		if strings.Contains(text, m) {
			return entity.VRMHigh
		}
	}
	return entity.VRMMid
}

func memoryType(text string) *entity.MemoryType {
	matches := reDDR.FindAllStringSubmatch(text, -1)
	var found *entity.MemoryType
	for _, m := range matches {
		gen := m[1] + m[2]
		t := entity.MemoryType("DDR" + gen)
		if found != nil && *found != t {
			// both generations mentioned
			return nil
		}
		found = entity.Ptr(t)
	}
	return found
}

func boardFormFactor(text string) *entity.FormFactor {
	switch {
	case reEATX.MatchString(text):
		return entity.Ptr(entity.FormFactorEATX)
	case reMATX.MatchString(text):
		return entity.Ptr(entity.FormFactorMicroATX)
	case reITX.MatchString(text):
		return entity.Ptr(entity.FormFactorMiniITX)
	case reATX.MatchString(text):
		return entity.Ptr(entity.FormFactorATX)
	}
	return nil
}

// largestBoardSupport returns the biggest board size a case text mentions,
// ignoring ATX power-supply mentions.
func largestBoardSupport(text string) *entity.FormFactor {
	if reEATX.MatchString(text) {
		return entity.Ptr(entity.FormFactorEATX)
	}
	stripped := reATXPSU.ReplaceAllString(text, " ")
	stripped = reMATX.ReplaceAllString(stripped, " matx-board ")
	if reATX.MatchString(stripped) {
		return entity.Ptr(entity.FormFactorATX)
	}
	if strings.Contains(stripped, "matx-board") {
		return entity.Ptr(entity.FormFactorMicroATX)
	}
	if reITX.MatchString(stripped) {
		return entity.Ptr(entity.FormFactorMiniITX)
	}
	return nil
}

func firstSocket(text string) *string {
	m := reSocket.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	return entity.Ptr(canonicalSocket(m[1], m[2]))
}

func allSockets(text string) []string {
	seen := map[string]bool{}
	var out []string
	add := func(s string) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, m := range reSocket.FindAllStringSubmatch(text, -1) {
		add(canonicalSocket(m[1], m[2]))
	}
	// "lga1700/1200" lists several sockets behind one prefix
	for _, m := range reLGAList.FindAllStringSubmatch(text, -1) {
		for _, n := range strings.Split(m[2], "/") {
			if n = strings.TrimSpace(n); n != "" {
				add("LGA" + n)
			}
		}
	}
	return out
}

func canonicalSocket(token, lgaNumber string) string {
	if lgaNumber != "" {
		return "LGA" + lgaNumber
	}
	return strings.ToUpper(token)
}

// normalizeText lower-cases and NFKC-folds raw spec text.
func normalizeText(raw string) string {
	s := strings.ToLower(norm.NFKC.String(raw))
	s = strings.NewReplacer("×", "x", "–", "-", "—", "-").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// firstInt returns the first non-empty capture group of the first match.
func firstInt(re *regexp.Regexp, text string) (int, bool) {
	m := re.FindStringSubmatch(text)
	for i := 1; i < len(m); i++ {
		if m[i] == "" {
			continue
		}
		if v, err := strconv.Atoi(m[i]); err == nil {
			return v, true
		}
	}
	return 0, false
}

func firstFloat(re *regexp.Regexp, text string) (float64, bool) {
	m := re.FindStringSubmatch(text)
	for i := 1; i < len(m); i++ {
		if m[i] == "" {
			continue
		}
		if v, err := strconv.ParseFloat(m[i], 64); err == nil {
			return v, true
		}
	}
	return 0, false
}

func maxInt(re *regexp.Regexp, text string) *int {
	var best *int
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		for i := 1; i < len(m); i++ {
			if m[i] == "" {
				continue
			}
			if v, err := strconv.Atoi(m[i]); err == nil && (best == nil || v > *best) {
				best = entity.Ptr(v)
			}
		}
	}
	return best
}
