package entity

import (
	"strings"
	"unicode"
)

// Kind lowercase component category tag
type Kind string

const (
	KindCPU         Kind = "cpu"
	KindGPU         Kind = "gpu"
	KindMotherboard Kind = "motherboard"
	KindRAM         Kind = "ram"
	KindPSU         Kind = "psu"
	KindCooler      Kind = "cooler"
	KindCase        Kind = "case"
	KindStorage     Kind = "ssd"
	KindOther       Kind = "other"
)

// ComponentFacts one component of a build as sent by the client
type ComponentFacts struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
	Spec string `json:"spec"`
}

// Text returns name and spec text joined, the input of the spec parser.
func (c ComponentFacts) Text() string {
	if c.Name == "" {
		return c.Spec
	}
	if c.Spec == "" {
		return c.Name
	}
	return c.Name + " " + c.Spec
}

// Build component map keyed by category ("CPU", "GPU", "SSD 2", ...)
type Build map[string]ComponentFacts

// categoryAliases maps a normalized category key to a kind.
var categoryAliases = map[string]Kind{
	"cpu":          KindCPU,
	"processor":    KindCPU,
	"gpu":          KindGPU,
	"graphics":     KindGPU,
	"videocard":    KindGPU,
	"motherboard":  KindMotherboard,
	"mobo":         KindMotherboard,
	"mainboard":    KindMotherboard,
	"ram":          KindRAM,
	"memory":       KindRAM,
	"psu":          KindPSU,
	"powersupply":  KindPSU,
	"cooler":       KindCooler,
	"cpucooler":    KindCooler,
	"cooling":      KindCooler,
	"aio":          KindCooler,
	"case":         KindCase,
	"chassis":      KindCase,
	"ssd":          KindStorage,
	"nvme":         KindStorage,
	"storage":      KindStorage,
	"m2":           KindStorage,
	"hdd":          KindStorage,
	"drive":        KindStorage,
	"graphicscard": KindGPU,
}

// KindForCategory resolves a build category key to a component kind.
// Keys are matched case-insensitively, ignoring punctuation, spaces and a
// trailing ordinal ("SSD 2", "ssd_3").
func KindForCategory(category string) Kind {
	var b strings.Builder
	for _, r := range strings.ToLower(category) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	key := b.String()
	if kind, ok := categoryAliases[key]; ok {
		return kind
	}
	if kind, ok := categoryAliases[strings.TrimRightFunc(key, unicode.IsDigit)]; ok {
		return kind
	}
	return KindOther
}
