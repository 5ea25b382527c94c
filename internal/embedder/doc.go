// Package embedder generates vector embeddings for code chunks and queries.
//
// The Embedder interface is backed by an OpenAI-compatible HTTP provider or
// a deterministic local provider, both wrapped in a lazy one-time loader:
// the model is built on first use, lives for the process lifetime, and
// concurrent first calls never trigger a second load. Callers racing the
// load receive a retryable initializing status rather than blocking.
//
// Identifier normalization (NormalizeSymbol) splits compound symbol names
// into words before embedding, which measurably improves matching against
// natural-language queries.
package embedder
