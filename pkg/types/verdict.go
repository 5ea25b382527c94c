package types

// VerdictOutcome is the three-tier confidence classification for a
// natural-language-term-to-candidate association. A binary accept/reject
// starves the caller of nuance; the middle tier accepts the association but
// obligates the caller to gather corroborating evidence.
type VerdictOutcome string

const (
	OutcomeApprovedFact    VerdictOutcome = "approved_fact"
	OutcomeApprovedFlagged VerdictOutcome = "approved_flagged"
	OutcomeRejected        VerdictOutcome = "rejected"
)

// Guidance gives a rejected caller concrete next moves instead of a bare
// failure.
type Guidance struct {
	Reason      string   `json:"reason"`
	Suggestions []string `json:"suggestions"`
}

// Verdict is the validator's answer for one candidate.
type Verdict struct {
	Candidate string         `json:"candidate"`
	Outcome   VerdictOutcome `json:"outcome"`
	Score     float64        `json:"score"`
	Guidance  *Guidance      `json:"guidance,omitempty"`
}
