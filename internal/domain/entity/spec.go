package entity

// FormFactor motherboard form factor, ordered by size
type FormFactor string

const (
	FormFactorMiniITX  FormFactor = "Mini-ITX"
	FormFactorMicroATX FormFactor = "Micro-ATX"
	FormFactorATX      FormFactor = "ATX"
	FormFactorEATX     FormFactor = "E-ATX"
)

// Rank orders form factors so that a board fits a case when
// board.Rank() <= case.Rank(). Unknown values rank 0.
func (f FormFactor) Rank() int {
	switch f {
	case FormFactorMiniITX:
		return 1
	case FormFactorMicroATX:
		return 2
	case FormFactorATX:
		return 3
	case FormFactorEATX:
		return 4
	default:
		return 0
	}
}

// PSUFormFactor power supply form factor
type PSUFormFactor string

const (
	PSUFormFactorATX  PSUFormFactor = "ATX"
	PSUFormFactorSFX  PSUFormFactor = "SFX"
	PSUFormFactorSFXL PSUFormFactor = "SFX-L"
)

// MemoryType DRAM generation
type MemoryType string

const (
	MemoryDDR4 MemoryType = "DDR4"
	MemoryDDR5 MemoryType = "DDR5"
)

// VRMClass heuristic motherboard power-delivery class
type VRMClass string

const (
	VRMEntry VRMClass = "entry"
	VRMMid   VRMClass = "mid"
	VRMHigh  VRMClass = "high"
)

// ParsedSpec facts extracted from a component's free-text specification.
// A nil pointer or false flag means the fact is unknown; rules never treat an
// unknown value as failing.
type ParsedSpec struct {
	Kind Kind `json:"kind"`

	// CPU / motherboard
	Socket   *string `json:"socket,omitempty"`
	TDPWatts *int    `json:"tdpWatts,omitempty"`
	X3D      bool    `json:"x3d,omitempty"`

	// GPU
	PowerWatts         *int     `json:"powerWatts,omitempty"`
	LengthMm           *int     `json:"lengthMm,omitempty"`
	Slots              *float64 `json:"slots,omitempty"`
	ThicknessMm        *int     `json:"thicknessMm,omitempty"`
	HighPowerConnector bool     `json:"highPowerConnector,omitempty"`
	PCIeGen            *int     `json:"pcieGen,omitempty"`

	// Motherboard
	FormFactor *FormFactor `json:"formFactor,omitempty"`
	Chipset    *string     `json:"chipset,omitempty"`
	VRM        *VRMClass   `json:"vrm,omitempty"`

	// RAM (MemoryType is also the board's declared memory support)
	MemoryType     *MemoryType `json:"memoryType,omitempty"`
	SpeedMTs       *int        `json:"speedMTs,omitempty"`
	CapacityGB     *int        `json:"capacityGB,omitempty"`
	ModuleHeightMm *int        `json:"moduleHeightMm,omitempty"`

	// PSU (LengthMm is shared with GPU)
	Wattage       *int           `json:"wattage,omitempty"`
	PSUFormFactor *PSUFormFactor `json:"psuFormFactor,omitempty"`

	// Cooler
	HeightMm       *int     `json:"heightMm,omitempty"`
	Sockets        []string `json:"sockets,omitempty"`
	RatedTDPWatts  *int     `json:"ratedTdpWatts,omitempty"`
	AIO            bool     `json:"aio,omitempty"`
	RadiatorMm     *int     `json:"radiatorMm,omitempty"`
	FrontMount     bool     `json:"frontMount,omitempty"`
	TopDown        bool     `json:"topDown,omitempty"`
	RAMClearanceMm *int     `json:"ramClearanceMm,omitempty"`

	// Case
	MaxBoardFormFactor  *FormFactor `json:"maxBoardFormFactor,omitempty"`
	MaxCoolerHeightMm   *int        `json:"maxCoolerHeightMm,omitempty"`
	MaxGPULengthMm      *int        `json:"maxGpuLengthMm,omitempty"`
	MaxGPUSlots         *float64    `json:"maxGpuSlots,omitempty"`
	MaxGPUThicknessMm   *int        `json:"maxGpuThicknessMm,omitempty"`
	MaxPSULengthMm      *int        `json:"maxPsuLengthMm,omitempty"`
	SFXOnly             bool        `json:"sfxOnly,omitempty"`
	SandwichLayout      bool        `json:"sandwichLayout,omitempty"`
	RiserGen            *int        `json:"riserGen,omitempty"`
	FrontRadiator240    bool        `json:"frontRadiator240,omitempty"`
	FrontAIOGPUConflict bool        `json:"frontAioGpuConflict,omitempty"`

	// Storage
	NVMe bool `json:"nvme,omitempty"`
}

// SlotWidthMm width of one expansion slot
const SlotWidthMm = 20.32

// Ptr returns a pointer to v; parsers use it to set optional fields.
func Ptr[T any](v T) *T {
	return &v
}
