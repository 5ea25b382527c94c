package embedder

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/semindex/semindex/pkg/types"
)

// Lazy init states
const (
	stateUninitialized int32 = iota
	stateLoading
	stateReady
	stateFailed
)

// Lazy defers provider construction to first use. Model loading can take
// seconds; building it at process start would tax every invocation, and
// embed/similarity calls must stay idempotent regardless of call order.
//
// Exactly one caller performs the load even when the first several calls
// arrive concurrently; the others receive types.ErrInitializing, a retryable
// status distinct from a hard failure.
type Lazy struct {
	factory func() (Embedder, error)

	state   atomic.Int32
	mu      sync.Mutex
	inner   Embedder
	loadErr error

	// Provider/model/dimension are needed before the provider exists (e.g.
	// to stamp the fingerprint meta), so they are declared up front.
	provider  string
	model     string
	dimension int
}

// NewLazy wraps a provider factory. provider, model, and dimension describe
// the embedder the factory will build.
func NewLazy(provider, model string, dimension int, factory func() (Embedder, error)) *Lazy {
	return &Lazy{
		factory:   factory,
		provider:  provider,
		model:     model,
		dimension: dimension,
	}
}

// get returns the loaded embedder, triggering the one-time load on the first
// call. Concurrent callers during the load receive types.ErrInitializing.
func (l *Lazy) get() (Embedder, error) {
	switch l.state.Load() {
	case stateReady:
		return l.inner, nil
	case stateFailed:
		return nil, l.loadErr
	case stateLoading:
		return nil, types.ErrInitializing
	}

	if !l.state.CompareAndSwap(stateUninitialized, stateLoading) {
		// Another caller won the race.
		if l.state.Load() == stateReady {
			return l.inner, nil
		}
		return nil, types.ErrInitializing
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	inner, err := l.factory()
	if err != nil {
		l.loadErr = err
		l.state.Store(stateFailed)
		return nil, err
	}
	l.inner = inner
	l.state.Store(stateReady)
	return inner, nil
}

func (l *Lazy) GenerateEmbedding(ctx context.Context, req EmbeddingRequest) (*Embedding, error) {
	inner, err := l.get()
	if err != nil {
		return nil, err
	}
	return inner.GenerateEmbedding(ctx, req)
}

func (l *Lazy) GenerateBatch(ctx context.Context, req BatchEmbeddingRequest) (*BatchEmbeddingResponse, error) {
	inner, err := l.get()
	if err != nil {
		return nil, err
	}
	return inner.GenerateBatch(ctx, req)
}

func (l *Lazy) Dimension() int   { return l.dimension }
func (l *Lazy) Provider() string { return l.provider }
func (l *Lazy) Model() string    { return l.model }

// Close releases the inner provider if it was ever built. The wrapper lives
// for the process lifetime and is never reset mid-process.
func (l *Lazy) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.inner != nil {
		return l.inner.Close()
	}
	return nil
}
