package entity

// Severity finding severity
type Severity string

const (
	SeverityHard Severity = "hard"
	SeveritySoft Severity = "soft"
)

// Finding one rule violation (CompatibilityCheck)
type Finding struct {
	Severity     Severity `json:"severity"`
	Category     string   `json:"category"`
	Issue        string   `json:"issue"`
	Details      string   `json:"details"`
	RuleID       string   `json:"ruleId"`
	ComponentIDs []string `json:"componentIds"`
	Source       string   `json:"source"`
}

// BuildCompatibility result of one build evaluation
type BuildCompatibility struct {
	HardFails      []Finding `json:"hardFails"`
	SoftWarns      []Finding `json:"softWarns"`
	Score          int       `json:"score"`
	RulesVersion   string    `json:"rulesVersion"`
	OverrideReason string    `json:"overrideReason,omitempty"`
}
