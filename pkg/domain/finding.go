package domain

// Finding is structured analyzer output backed by quantitative evidence.
// Evidence holds the literal metric values that triggered the match, copied
// verbatim from a ProfileArtifact in the same session; findings never carry
// re-derived or estimated values.
type Finding struct {
	// ID is derived deterministically from the matched artifact's position
	// and the pattern id, so identical inputs yield identical findings.
	ID string `json:"finding_id"`

	PatternID   string             `json:"pattern_id"`
	Location    string             `json:"location,omitempty"`
	Evidence    map[string]float64 `json:"evidence"`
	Confidence  float64            `json:"confidence"`
	Summary     string             `json:"summary"`
	Suggestions []string           `json:"suggestions,omitempty"`
}
