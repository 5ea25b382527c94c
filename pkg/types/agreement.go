package types

import "time"

// Agreement is a confirmed natural-language-term-to-symbol association with
// supporting evidence. Agreements are created only after external
// confirmation, never inferred from a raw search hit. Logically keyed by
// (NLTerm, Symbol); re-confirmation updates Similarity and Evidence rather
// than duplicating the record.
type Agreement struct {
	NLTerm     string    `json:"nl_term"`
	Symbol     string    `json:"symbol"`
	Similarity float64   `json:"similarity"`
	Evidence   string    `json:"evidence"`
	SessionID  string    `json:"session_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// Key returns the logical identity of the agreement.
func (a *Agreement) Key() string {
	return a.NLTerm + "\x00" + a.Symbol
}

// CuratedText is the textual representation embedded into the curated
// collection when the agreement is folded in.
func (a *Agreement) CuratedText() string {
	text := a.NLTerm + " " + a.Symbol
	if a.Evidence != "" {
		text += " " + a.Evidence
	}
	return text
}
