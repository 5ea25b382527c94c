package types

import "time"

// Collection names the two logical vector collections.
type Collection string

const (
	// CollectionCurated holds confirmed natural-language-to-symbol
	// associations folded in from the agreement log. Small, high trust.
	CollectionCurated Collection = "curated"
	// CollectionRaw holds every extracted chunk. Large, unconfirmed.
	CollectionRaw Collection = "raw"
)

// SearchStatus indicates how much trust a search result carries.
type SearchStatus string

const (
	// StatusConfirmed means the result came from the curated collection with
	// a score above the short-circuit threshold; no further verification is
	// required.
	StatusConfirmed SearchStatus = "confirmed"
	// StatusHypothesis means the hits are unconfirmed raw-collection matches;
	// the caller must seek independent confirmation before treating them as
	// fact.
	StatusHypothesis SearchStatus = "hypothesis"
)

// SearchHit is one ranked match from a vector collection. Ephemeral:
// produced per query, never persisted.
type SearchHit struct {
	ID         string            `json:"id"`
	Score      float64           `json:"score"`
	Collection Collection        `json:"collection"`
	FilePath   string            `json:"file_path,omitempty"`
	Name       string            `json:"name,omitempty"`
	Kind       string            `json:"kind,omitempty"`
	StartLine  int               `json:"start_line,omitempty"`
	EndLine    int               `json:"end_line,omitempty"`
	Content    string            `json:"content,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// SearchResult is the orchestrated answer to one query.
type SearchResult struct {
	Source         Collection    `json:"source"`
	Status         SearchStatus  `json:"status"`
	Hits           []SearchHit   `json:"hits"`
	Hints          []SearchHit   `json:"hints,omitempty"` // sub-threshold curated hits, kept as auxiliary signal
	ShortCircuited bool          `json:"short_circuited"`
	Duration       time.Duration `json:"-"`
}

// SyncResult summarizes one incremental sync pass.
type SyncResult struct {
	Added       int           `json:"added"`
	Modified    int           `json:"modified"`
	Deleted     int           `json:"deleted"`
	FilesFailed int           `json:"files_failed"`
	Duration    time.Duration `json:"-"`
}
