package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/semindex/semindex/internal/agreement"
	"github.com/semindex/semindex/internal/config"
	"github.com/semindex/semindex/internal/lang"
	"github.com/semindex/semindex/internal/search"
	"github.com/semindex/semindex/internal/store"
	"github.com/semindex/semindex/internal/syncer"
	"github.com/semindex/semindex/internal/validate"
	"github.com/semindex/semindex/pkg/types"
)

// countingIndex wraps the real index and counts per-collection queries so the
// suite can prove the raw collection is skipped on a short circuit.
type countingIndex struct {
	store.Index
	curatedQueries int
	rawQueries     int
}

func (c *countingIndex) Query(ctx context.Context, collection types.Collection, vector []float32, topK int) ([]types.SearchHit, error) {
	if collection == types.CollectionCurated {
		c.curatedQueries++
	} else {
		c.rawQueries++
	}
	return c.Index.Query(ctx, collection, vector, topK)
}

// EngineTestSuite runs the full pipeline against a scratch repository:
// sync, hypothesis search, validation, agreement, confirmed search.
type EngineTestSuite struct {
	suite.Suite
	ctx context.Context

	rootDir    string
	cfg        *config.Config
	emb        *MockEmbedder
	index      *countingIndex
	syncer     *syncer.Syncer
	searcher   *search.Searcher
	validator  *validate.Validator
	agreements *agreement.Store
}

func (s *EngineTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.rootDir = s.T().TempDir()

	s.writeFile("billing.js", `// computeTotal sums the prices of all cart items.
export function computeTotal(items) {
  return items.reduce((sum, item) => sum + item.price, 0);
}
`)
	s.writeFile("sidebar.js", `export function renderSidebar(state) {
  const element = document.createElement("nav");
  element.className = "sidebar";
  return element;
}
`)

	stateDir, err := config.EnsureStateDir(s.rootDir)
	s.Require().NoError(err)

	s.cfg = config.Default()
	s.emb = NewMockEmbedder()

	idx, err := store.NewSQLiteIndex(filepath.Join(stateDir, "index.db"))
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = idx.Close() })
	s.index = &countingIndex{Index: idx}

	ext := lang.NewExtractor(lang.Config{
		WindowSize:  s.cfg.WindowSize,
		TokenBudget: s.cfg.TokenBudget,
	})

	s.syncer = syncer.New(s.rootDir, stateDir, s.cfg, ext, s.emb, s.index)
	s.searcher = search.NewSearcher(s.index, s.emb, s.cfg)
	s.validator = validate.New(s.emb, s.cfg)
	s.agreements = agreement.NewStore(filepath.Join(stateDir, "agreements.jsonl"))
}

func (s *EngineTestSuite) writeFile(relPath, content string) {
	path := filepath.Join(s.rootDir, relPath)
	s.Require().NoError(os.MkdirAll(filepath.Dir(path), 0o755))
	s.Require().NoError(os.WriteFile(path, []byte(content), 0o644))
}

// TestDiscoverValidateAgreeConfirm walks the intended lifecycle of one
// association: an unconfirmed hypothesis becomes a curated fact that answers
// directly.
func (s *EngineTestSuite) TestDiscoverValidateAgreeConfirm() {
	// Index the repository.
	syncResult, err := s.syncer.Sync(s.ctx, false)
	s.Require().NoError(err)
	s.Equal(2, syncResult.Added)

	// First search: nothing is confirmed yet, so the answer is a ranked
	// hypothesis from the raw collection.
	result, err := s.searcher.Search(s.ctx, "total computation")
	s.Require().NoError(err)
	s.Equal(types.StatusHypothesis, result.Status)
	s.Equal(types.CollectionRaw, result.Source)
	s.False(result.ShortCircuited)
	s.Require().NotEmpty(result.Hits)
	s.Equal("computeTotal", result.Hits[0].Name, "the relevant chunk should rank first")
	s.Equal("billing.js", result.Hits[0].FilePath)

	// The caller corroborates the hypothesis before trusting it.
	verdicts, err := s.validator.Validate(s.ctx, "total computation",
		[]string{"computeTotal", "renderSidebar"})
	s.Require().NoError(err)
	s.Require().Len(verdicts, 2)
	s.Equal(types.OutcomeApprovedFact, verdicts[0].Outcome)
	s.Greater(verdicts[0].Score, verdicts[1].Score)

	// Confirmation is recorded and folded into the curated collection.
	_, err = s.agreements.Record("total computation", "computeTotal",
		verdicts[0].Score, "sums prices", "session-1")
	s.Require().NoError(err)
	folded, err := s.agreements.FoldIntoCurated(s.ctx, s.emb, s.index)
	s.Require().NoError(err)
	s.Equal(1, folded)

	curated, err := s.index.Count(s.ctx, types.CollectionCurated)
	s.Require().NoError(err)
	s.Equal(1, curated)

	// Second search: the curated entry answers directly and the raw
	// collection is never consulted.
	rawBefore := s.index.rawQueries
	result, err = s.searcher.Search(s.ctx, "total computation")
	s.Require().NoError(err)
	s.Equal(types.StatusConfirmed, result.Status)
	s.Equal(types.CollectionCurated, result.Source)
	s.True(result.ShortCircuited)
	s.Require().NotEmpty(result.Hits)
	s.Equal("agreement:total computation|computeTotal", result.Hits[0].ID)
	s.GreaterOrEqual(result.Hits[0].Score, s.cfg.ShortCircuitThreshold)
	s.Equal(rawBefore, s.index.rawQueries, "short circuit must skip the raw collection")
}

// TestAgreementSurvivesSync proves file-scoped re-indexing can never evict
// curated knowledge, including a forced full rebuild.
func (s *EngineTestSuite) TestAgreementSurvivesSync() {
	_, err := s.syncer.Sync(s.ctx, false)
	s.Require().NoError(err)

	_, err = s.agreements.Record("total computation", "computeTotal", 0.9, "", "")
	s.Require().NoError(err)
	_, err = s.agreements.FoldIntoCurated(s.ctx, s.emb, s.index)
	s.Require().NoError(err)

	// Touch the file the symbol lives in, then rebuild everything.
	s.writeFile("billing.js", `export function computeTotal(items) {
  let sum = 0;
  for (const item of items) sum += item.price;
  return sum;
}
`)
	_, err = s.syncer.Sync(s.ctx, false)
	s.Require().NoError(err)
	_, err = s.syncer.Sync(s.ctx, true)
	s.Require().NoError(err)

	result, err := s.searcher.Search(s.ctx, "total computation")
	s.Require().NoError(err)
	s.Equal(types.StatusConfirmed, result.Status)
	s.True(result.ShortCircuited)
}

// TestIncrementalSyncReflectsEdits checks that an edited file is re-embedded
// and searchable under its new content while untouched files stay cached.
func (s *EngineTestSuite) TestIncrementalSyncReflectsEdits() {
	_, err := s.syncer.Sync(s.ctx, false)
	s.Require().NoError(err)
	s.emb.Reset()

	s.writeFile("invoice.js", `export function applyDiscountCode(invoice, code) {
  return invoice.total * lookupDiscount(code);
}
`)

	syncResult, err := s.syncer.Sync(s.ctx, false)
	s.Require().NoError(err)
	s.Equal(1, syncResult.Added)
	s.Equal(0, syncResult.Modified)

	for _, text := range s.emb.EmbeddedTexts() {
		s.NotContains(text, "renderSidebar", "unchanged files must not be re-embedded")
	}

	result, err := s.searcher.Search(s.ctx, "apply discount code")
	s.Require().NoError(err)
	s.Require().NotEmpty(result.Hits)
	s.Equal("applyDiscountCode", result.Hits[0].Name)
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}
