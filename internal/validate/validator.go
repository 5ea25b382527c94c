package validate

import (
	"context"
	"fmt"
	"strings"

	"github.com/semindex/semindex/internal/config"
	"github.com/semindex/semindex/internal/embedder"
	"github.com/semindex/semindex/pkg/types"
)

// Validator scores natural-language-term-to-candidate associations and
// buckets them into three confidence tiers. The middle tier exists because a
// binary accept/reject starves the caller of nuance and causes repeated
// failed guesses.
type Validator struct {
	embedder embedder.Embedder
	cfg      *config.Config
}

// New creates a validator using the configured tier thresholds.
func New(emb embedder.Embedder, cfg *config.Config) *Validator {
	return &Validator{embedder: emb, cfg: cfg}
}

// Validate scores each candidate symbol against the natural-language term.
// Scores above the fact threshold are confirmed facts; scores between the
// two thresholds are accepted but flagged for corroboration; scores below
// the reject threshold are refused with concrete alternative actions.
func (v *Validator) Validate(ctx context.Context, nlTerm string, candidates []string) ([]types.Verdict, error) {
	if nlTerm == "" {
		return nil, fmt.Errorf("nl_term cannot be empty")
	}
	if len(candidates) == 0 {
		return []types.Verdict{}, nil
	}

	// Normalize everything before scoring so compound identifiers compete
	// fairly with natural-language phrasing.
	texts := make([]string, 0, len(candidates)+1)
	texts = append(texts, embedder.NormalizeSymbol(nlTerm))
	for _, candidate := range candidates {
		texts = append(texts, embedder.NormalizeSymbol(candidate))
	}

	resp, err := v.embedder.GenerateBatch(ctx, embedder.BatchEmbeddingRequest{Texts: texts})
	if err != nil {
		return nil, fmt.Errorf("embed candidates: %w", err)
	}

	termVector := resp.Embeddings[0].Vector
	verdicts := make([]types.Verdict, len(candidates))
	for i, candidate := range candidates {
		score := embedder.CosineSimilarity(termVector, resp.Embeddings[i+1].Vector)
		verdicts[i] = v.classify(nlTerm, candidate, score)
	}
	return verdicts, nil
}

// Classify buckets one precomputed score. Exposed so callers that already
// hold a similarity (e.g. from a search hit) get the same tiering.
func (v *Validator) Classify(nlTerm, candidate string, score float64) types.Verdict {
	return v.classify(nlTerm, candidate, score)
}

func (v *Validator) classify(nlTerm, candidate string, score float64) types.Verdict {
	verdict := types.Verdict{
		Candidate: candidate,
		Score:     score,
	}
	switch {
	case score > v.cfg.FactThreshold:
		verdict.Outcome = types.OutcomeApprovedFact
	case score >= v.cfg.RejectThreshold:
		verdict.Outcome = types.OutcomeApprovedFlagged
	default:
		verdict.Outcome = types.OutcomeRejected
		verdict.Guidance = v.guidance(nlTerm, candidate, score)
	}
	return verdict
}

// guidance names concrete next moves for a rejected association so the
// caller can make progress instead of looping on failed guesses.
func (v *Validator) guidance(nlTerm, candidate string, score float64) *types.Guidance {
	words := embedder.SplitIdentifier(candidate)

	suggestions := []string{
		fmt.Sprintf("search the index for %q to surface closer symbols", nlTerm),
	}
	if len(words) > 1 {
		suggestions = append(suggestions,
			fmt.Sprintf("validate the individual words of %q separately: %s",
				candidate, strings.Join(words, ", ")))
	}
	suggestions = append(suggestions,
		fmt.Sprintf("run a text search for %q to find literal occurrences", strongestWord(words, candidate)),
		fmt.Sprintf("look up the definition of %q to inspect its actual role", candidate),
	)

	return &types.Guidance{
		Reason: fmt.Sprintf("similarity %.2f between %q and %q is below the acceptance threshold %.2f",
			score, nlTerm, candidate, v.cfg.RejectThreshold),
		Suggestions: suggestions,
	}
}

// strongestWord picks the longest word of the identifier as the most
// selective text-search probe.
func strongestWord(words []string, fallback string) string {
	best := ""
	for _, word := range words {
		if len(word) > len(best) {
			best = word
		}
	}
	if best == "" {
		return fallback
	}
	return best
}
