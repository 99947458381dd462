package compat

import (
	"fmt"
	"slices"

	"github.com/yourusername/pc-builder/internal/domain/entity"
)

const (
	// DefaultCPUTDPWatts is assumed by the PSU check when the CPU TDP is unknown.
	DefaultCPUTDPWatts = 105

	// PSU headroom factor 1.3 as a ratio of integers
	psuHeadroomNum = 13
	psuHeadroomDen = 10

	highTDPWatts         = 105
	airCoolerRAMRiskMm   = 120
	maxNVMeWithGPU       = 2
	longGPUMm            = 280
	frontRadiatorMm      = 240
	defaultRAMClearance  = 42
	riserGenSensitiveMin = 4
)

const (
	sourceSpec      = "parsed-spec"
	sourceHeuristic = "heuristic"
)

type rule struct {
	id       string
	requires []entity.Kind
	eval     func(b *ParsedBuild) *entity.Finding
}

func (r rule) ID() string                              { return r.id }
func (r rule) Requires() []entity.Kind                 { return r.requires }
func (r rule) Evaluate(b *ParsedBuild) *entity.Finding { return r.eval(b) }

// DefaultRules returns the rule catalogue in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		rule{"CORE-001", kinds(entity.KindCPU, entity.KindMotherboard), cpuSocketMatchesBoard},
		rule{"CORE-002", kinds(entity.KindRAM, entity.KindMotherboard), ramTypeMatchesPlatform},
		rule{"CORE-003", kinds(entity.KindMotherboard, entity.KindCase), boardFitsCase},
		rule{"CORE-004", kinds(entity.KindCPU, entity.KindGPU, entity.KindPSU), psuHasHeadroom},
		rule{"CORE-005", kinds(entity.KindCooler, entity.KindCase), coolerFitsCase},
		rule{"CORE-006", kinds(entity.KindGPU, entity.KindCase), gpuFitsCase},
		rule{"CORE-007", kinds(entity.KindCooler, entity.KindCPU), coolerSupportsSocket},
		rule{"CORE-008", kinds(entity.KindCPU, entity.KindMotherboard), x3dOnEntryVRM},
		rule{"CORE-009", kinds(entity.KindCPU, entity.KindMotherboard), highTDPOnEntryVRM},
		rule{"CORE-010", kinds(entity.KindCPU, entity.KindCooler), coolerRatedForCPU},
		rule{"CORE-011", kinds(entity.KindCooler, entity.KindRAM), tallAirCooler},
		rule{"CORE-012", kinds(entity.KindGPU), nvmeLaneSharing},
		rule{"SFF-001", kinds(entity.KindGPU, entity.KindCase), gpuThicknessFitsCase},
		rule{"SFF-002", kinds(entity.KindGPU, entity.KindCase), highPowerConnectorInSandwich},
		rule{"SFF-003", kinds(entity.KindPSU, entity.KindCase), psuFitsCase},
		rule{"SFF-004", kinds(entity.KindCooler, entity.KindRAM), topDownRAMClearance},
		rule{"SFF-005", kinds(entity.KindGPU, entity.KindCase), riserGeneration},
		rule{"SFF-006", kinds(entity.KindGPU, entity.KindCooler, entity.KindCase), frontAIOBlocksGPU},
	}
}

func kinds(k ...entity.Kind) []entity.Kind { return k }

func finding(id string, sev entity.Severity, category, issue, details, source string, ids []string) *entity.Finding {
	return &entity.Finding{
		Severity:     sev,
		Category:     category,
		Issue:        issue,
		Details:      details,
		RuleID:       id,
		ComponentIDs: ids,
		Source:       source,
	}
}

func cpuSocketMatchesBoard(b *ParsedBuild) *entity.Finding {
	cpu, mb := b.Spec(entity.KindCPU), b.Spec(entity.KindMotherboard)
	if cpu.Socket == nil || mb.Socket == nil || *cpu.Socket == *mb.Socket {
		return nil
	}
	return finding("CORE-001", entity.SeverityHard, "socket",
		"CPU socket does not match the motherboard",
		fmt.Sprintf("CPU socket %s does not match motherboard socket %s", *cpu.Socket, *mb.Socket),
		sourceSpec, b.ids(entity.KindCPU, entity.KindMotherboard))
}

// expectedMemory returns the board's declared memory type, else the type
// implied by the platform socket.
func expectedMemory(b *ParsedBuild) (entity.MemoryType, string, bool) {
	mb := b.Spec(entity.KindMotherboard)
	if mb.MemoryType != nil {
		return *mb.MemoryType, "motherboard", true
	}
	socket := mb.Socket
	if socket == nil {
		socket = b.Spec(entity.KindCPU).Socket
	}
	if socket == nil {
		return "", "", false
	}
	switch *socket {
	case "AM5", "LGA1700":
		return entity.MemoryDDR5, *socket + " platform", true
	default:
		return entity.MemoryDDR4, *socket + " platform", true
	}
}

func ramTypeMatchesPlatform(b *ParsedBuild) *entity.Finding {
	ram := b.Spec(entity.KindRAM)
	if ram.MemoryType == nil {
		return nil
	}
	want, origin, ok := expectedMemory(b)
	if !ok || want == *ram.MemoryType {
		return nil
	}
	return finding("CORE-002", entity.SeverityHard, "memory",
		"RAM type is not supported by the platform",
		fmt.Sprintf("RAM is %s but the %s expects %s", *ram.MemoryType, origin, want),
		sourceSpec, b.ids(entity.KindRAM, entity.KindMotherboard))
}

func boardFitsCase(b *ParsedBuild) *entity.Finding {
	mb, cs := b.Spec(entity.KindMotherboard), b.Spec(entity.KindCase)
	if mb.FormFactor == nil || cs.MaxBoardFormFactor == nil {
		return nil
	}
	if mb.FormFactor.Rank() <= cs.MaxBoardFormFactor.Rank() {
		return nil
	}
	return finding("CORE-003", entity.SeverityHard, "form-factor",
		"Motherboard does not fit the case",
		fmt.Sprintf("%s motherboard exceeds the case's largest supported board (%s)", *mb.FormFactor, *cs.MaxBoardFormFactor),
		sourceSpec, b.ids(entity.KindMotherboard, entity.KindCase))
}

// RequiredPSUWatts returns ceil((cpuTDP + gpuPower) × 1.3).
func RequiredPSUWatts(cpuTDP, gpuPower int) int {
	sum := cpuTDP + gpuPower
	return (sum*psuHeadroomNum + psuHeadroomDen - 1) / psuHeadroomDen
}

func psuHasHeadroom(b *ParsedBuild) *entity.Finding {
	cpu, gpu, psu := b.Spec(entity.KindCPU), b.Spec(entity.KindGPU), b.Spec(entity.KindPSU)
	if gpu.PowerWatts == nil || psu.Wattage == nil {
		return nil
	}
	tdp := DefaultCPUTDPWatts
	if cpu.TDPWatts != nil {
		tdp = *cpu.TDPWatts
	}
	required := RequiredPSUWatts(tdp, *gpu.PowerWatts)
	if *psu.Wattage >= required {
		return nil
	}
	return finding("CORE-004", entity.SeverityHard, "power",
		"PSU wattage is insufficient",
		fmt.Sprintf("PSU provides %d W but CPU %d W + GPU %d W needs at least %d W with 30%% headroom",
			*psu.Wattage, tdp, *gpu.PowerWatts, required),
		sourceSpec, b.ids(entity.KindCPU, entity.KindGPU, entity.KindPSU))
}

func coolerFitsCase(b *ParsedBuild) *entity.Finding {
	cooler, cs := b.Spec(entity.KindCooler), b.Spec(entity.KindCase)
	if cooler.HeightMm == nil || cs.MaxCoolerHeightMm == nil || *cooler.HeightMm <= *cs.MaxCoolerHeightMm {
		return nil
	}
	return finding("CORE-005", entity.SeverityHard, "clearance",
		"CPU cooler is too tall for the case",
		fmt.Sprintf("Cooler height %d mm exceeds case limit %d mm", *cooler.HeightMm, *cs.MaxCoolerHeightMm),
		sourceSpec, b.ids(entity.KindCooler, entity.KindCase))
}

func gpuFitsCase(b *ParsedBuild) *entity.Finding {
	gpu, cs := b.Spec(entity.KindGPU), b.Spec(entity.KindCase)
	if gpu.LengthMm == nil || cs.MaxGPULengthMm == nil || *gpu.LengthMm <= *cs.MaxGPULengthMm {
		return nil
	}
	return finding("CORE-006", entity.SeverityHard, "clearance",
		"GPU is too long for the case",
		fmt.Sprintf("GPU length %d mm exceeds case limit %d mm", *gpu.LengthMm, *cs.MaxGPULengthMm),
		sourceSpec, b.ids(entity.KindGPU, entity.KindCase))
}

func coolerSupportsSocket(b *ParsedBuild) *entity.Finding {
	cooler, cpu := b.Spec(entity.KindCooler), b.Spec(entity.KindCPU)
	if cpu.Socket == nil || len(cooler.Sockets) == 0 || slices.Contains(cooler.Sockets, *cpu.Socket) {
		return nil
	}
	return finding("CORE-007", entity.SeverityHard, "socket",
		"Cooler does not support the CPU socket",
		fmt.Sprintf("Cooler supports %v but the CPU uses %s", cooler.Sockets, *cpu.Socket),
		sourceSpec, b.ids(entity.KindCooler, entity.KindCPU))
}

func entryVRM(mb entity.ParsedSpec) bool {
	return mb.VRM != nil && *mb.VRM == entity.VRMEntry
}

func x3dOnEntryVRM(b *ParsedBuild) *entity.Finding {
	cpu, mb := b.Spec(entity.KindCPU), b.Spec(entity.KindMotherboard)
	if !cpu.X3D || !entryVRM(mb) {
		return nil
	}
	return finding("CORE-008", entity.SeveritySoft, "vrm",
		"X3D CPU on an entry-level motherboard",
		"Entry-class VRM may limit sustained boost on X3D processors",
		sourceHeuristic, b.ids(entity.KindCPU, entity.KindMotherboard))
}

func highTDPOnEntryVRM(b *ParsedBuild) *entity.Finding {
	cpu, mb := b.Spec(entity.KindCPU), b.Spec(entity.KindMotherboard)
	if cpu.TDPWatts == nil || *cpu.TDPWatts <= highTDPWatts || !entryVRM(mb) {
		return nil
	}
	return finding("CORE-009", entity.SeveritySoft, "vrm",
		"High-TDP CPU on an entry-level motherboard",
		fmt.Sprintf("CPU TDP %d W on an entry-class VRM may throttle under load", *cpu.TDPWatts),
		sourceHeuristic, b.ids(entity.KindCPU, entity.KindMotherboard))
}

func coolerRatedForCPU(b *ParsedBuild) *entity.Finding {
	cpu, cooler := b.Spec(entity.KindCPU), b.Spec(entity.KindCooler)
	if cpu.TDPWatts == nil || cooler.RatedTDPWatts == nil || *cooler.RatedTDPWatts >= *cpu.TDPWatts {
		return nil
	}
	return finding("CORE-010", entity.SeveritySoft, "cooling",
		"Cooler is rated below the CPU TDP",
		fmt.Sprintf("Cooler rated for %d W, CPU TDP is %d W", *cooler.RatedTDPWatts, *cpu.TDPWatts),
		sourceSpec, b.ids(entity.KindCPU, entity.KindCooler))
}

func tallAirCooler(b *ParsedBuild) *entity.Finding {
	cooler := b.Spec(entity.KindCooler)
	if cooler.AIO || cooler.HeightMm == nil || *cooler.HeightMm <= airCoolerRAMRiskMm {
		return nil
	}
	return finding("CORE-011", entity.SeveritySoft, "clearance",
		"Tall air cooler may overhang RAM slots",
		fmt.Sprintf("Air cooler height %d mm; check clearance over tall memory modules", *cooler.HeightMm),
		sourceHeuristic, b.ids(entity.KindCooler, entity.KindRAM))
}

func nvmeLaneSharing(b *ParsedBuild) *entity.Finding {
	var ids []string
	for _, part := range b.Storage() {
		if part.Spec.NVMe {
			ids = append(ids, part.ID)
		}
	}
	if len(ids) <= maxNVMeWithGPU {
		return nil
	}
	return finding("CORE-012", entity.SeveritySoft, "storage",
		"Several NVMe drives with a discrete GPU",
		fmt.Sprintf("%d NVMe drives may share PCIe lanes with the GPU slot", len(ids)),
		sourceHeuristic, append([]string{b.ID(entity.KindGPU)}, ids...))
}

// gpuSlots returns the declared slot count, else one estimated from thickness.
func gpuSlots(gpu entity.ParsedSpec) (float64, bool) {
	if gpu.Slots != nil {
		return *gpu.Slots, true
	}
	if gpu.ThicknessMm != nil {
		return float64(*gpu.ThicknessMm) / entity.SlotWidthMm, true
	}
	return 0, false
}

func gpuThicknessFitsCase(b *ParsedBuild) *entity.Finding {
	gpu, cs := b.Spec(entity.KindGPU), b.Spec(entity.KindCase)
	ids := b.ids(entity.KindGPU, entity.KindCase)

	if cs.MaxGPUSlots != nil {
		slots, ok := gpuSlots(gpu)
		if !ok || slots <= *cs.MaxGPUSlots {
			return nil
		}
		return finding("SFF-001", entity.SeverityHard, "sff",
			"GPU is too thick for the case",
			fmt.Sprintf("GPU occupies %.1f slots, case allows %.1f", slots, *cs.MaxGPUSlots),
			sourceSpec, ids)
	}
	if cs.MaxGPUThicknessMm != nil && gpu.ThicknessMm != nil && *gpu.ThicknessMm > *cs.MaxGPUThicknessMm {
		return finding("SFF-001", entity.SeveritySoft, "sff",
			"GPU may be too thick for the case",
			fmt.Sprintf("Estimated GPU thickness %d mm exceeds case limit %d mm", *gpu.ThicknessMm, *cs.MaxGPUThicknessMm),
			sourceHeuristic, ids)
	}
	return nil
}

func highPowerConnectorInSandwich(b *ParsedBuild) *entity.Finding {
	gpu, cs := b.Spec(entity.KindGPU), b.Spec(entity.KindCase)
	if !gpu.HighPowerConnector || !cs.SandwichLayout {
		return nil
	}
	return finding("SFF-002", entity.SeveritySoft, "sff",
		"12VHPWR connector in a sandwich layout case",
		"The 16-pin connector needs bend clearance behind the GPU; check the cable path against the case panel",
		sourceSpec, b.ids(entity.KindGPU, entity.KindCase))
}

func psuFitsCase(b *ParsedBuild) *entity.Finding {
	psu, cs := b.Spec(entity.KindPSU), b.Spec(entity.KindCase)
	ids := b.ids(entity.KindPSU, entity.KindCase)
	if cs.SFXOnly && psu.PSUFormFactor != nil && *psu.PSUFormFactor == entity.PSUFormFactorSFXL {
		return finding("SFF-003", entity.SeverityHard, "sff",
			"PSU does not fit the case",
			"SFX-L power supply in a case that only accepts SFX",
			sourceSpec, ids)
	}
	if psu.LengthMm != nil && cs.MaxPSULengthMm != nil && *psu.LengthMm > *cs.MaxPSULengthMm {
		return finding("SFF-003", entity.SeverityHard, "sff",
			"PSU does not fit the case",
			fmt.Sprintf("PSU length %d mm exceeds case limit %d mm", *psu.LengthMm, *cs.MaxPSULengthMm),
			sourceSpec, ids)
	}
	return nil
}

func topDownRAMClearance(b *ParsedBuild) *entity.Finding {
	cooler, ram := b.Spec(entity.KindCooler), b.Spec(entity.KindRAM)
	if !cooler.TopDown || ram.ModuleHeightMm == nil {
		return nil
	}
	clearance := defaultRAMClearance
	if cooler.RAMClearanceMm != nil {
		clearance = *cooler.RAMClearanceMm
	}
	if clearance >= *ram.ModuleHeightMm {
		return nil
	}
	return finding("SFF-004", entity.SeveritySoft, "sff",
		"RAM may be too tall for the top-down cooler",
		fmt.Sprintf("RAM module height %d mm exceeds cooler clearance %d mm", *ram.ModuleHeightMm, clearance),
		sourceSpec, b.ids(entity.KindCooler, entity.KindRAM))
}

func riserGeneration(b *ParsedBuild) *entity.Finding {
	gpu, cs := b.Spec(entity.KindGPU), b.Spec(entity.KindCase)
	if cs.RiserGen == nil {
		return nil
	}
	required := 0
	if gpu.PCIeGen != nil {
		required = *gpu.PCIeGen
	}
	ids := b.ids(entity.KindGPU, entity.KindCase)
	if mb := b.Spec(entity.KindMotherboard); b.Has(entity.KindMotherboard) && mb.PCIeGen != nil {
		required = max(required, *mb.PCIeGen)
		ids = append(ids, b.ID(entity.KindMotherboard))
	}
	if required < riserGenSensitiveMin || *cs.RiserGen >= required {
		return nil
	}
	return finding("SFF-005", entity.SeveritySoft, "sff",
		"PCIe riser generation is below the platform",
		fmt.Sprintf("Riser is PCIe %d.0 but GPU/motherboard run PCIe %d.0; the link may be unstable", *cs.RiserGen, required),
		sourceSpec, ids)
}

func frontAIOBlocksGPU(b *ParsedBuild) *entity.Finding {
	gpu, cooler, cs := b.Spec(entity.KindGPU), b.Spec(entity.KindCooler), b.Spec(entity.KindCase)
	if gpu.LengthMm == nil || *gpu.LengthMm <= longGPUMm {
		return nil
	}
	if !cooler.AIO || cooler.RadiatorMm == nil || *cooler.RadiatorMm != frontRadiatorMm {
		return nil
	}
	if !cooler.FrontMount && !cs.FrontRadiator240 {
		return nil
	}
	ids := b.ids(entity.KindGPU, entity.KindCooler, entity.KindCase)
	details := fmt.Sprintf("GPU length %d mm with a 240 mm front radiator", *gpu.LengthMm)
	if cs.FrontAIOGPUConflict {
		return finding("SFF-006", entity.SeverityHard, "sff",
			"Front radiator blocks the GPU",
			details+"; the case documents this conflict",
			sourceSpec, ids)
	}
	return finding("SFF-006", entity.SeveritySoft, "sff",
		"Front radiator may block the GPU",
		details+" may not fit together",
		sourceHeuristic, ids)
}
