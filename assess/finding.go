package assess

// Severity is the ranked label attached to a Finding
type Severity string

const (
	SeverityLow      Severity = "Low"
	SeverityMedium   Severity = "Medium"
	SeverityHigh     Severity = "High"
	SeverityCritical Severity = "Critical"
)

// Severities lists every severity from lowest to highest
var Severities = []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}

// Rank orders severities; unknown labels rank below Low
func (s Severity) Rank() int {
	for i, sev := range Severities {
		if sev == s {
			return i + 1
		}
	}
	return 0
}

// Finding is a single flagged misconfiguration
type Finding struct {
	Resource string   `json:"resource"`
	Issue    string   `json:"issue"`
	Severity Severity `json:"severity"`
}

// Summary counts findings per severity
type Summary struct {
	Total  int              `json:"total"`
	Counts map[Severity]int `json:"counts"`
}

// Summarize counts findings per severity. Every known severity is present in
// Counts, even with a zero count.
func Summarize(findings []Finding) Summary {
	s := Summary{
		Total:  len(findings),
		Counts: make(map[Severity]int, len(Severities)),
	}
	for _, sev := range Severities {
		s.Counts[sev] = 0
	}
	for _, f := range findings {
		s.Counts[f.Severity]++
	}
	return s
}
