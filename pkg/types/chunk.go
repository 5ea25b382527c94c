package types

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

// ChunkKind classifies the structural unit a chunk was extracted from.
type ChunkKind string

const (
	ChunkFunction   ChunkKind = "function"
	ChunkMethod     ChunkKind = "method"
	ChunkClass      ChunkKind = "class"
	ChunkModule     ChunkKind = "module"
	ChunkLineWindow ChunkKind = "line_window"
)

// Chunk represents a semantically meaningful code section extracted for
// embedding and search. Identity is (FilePath, Name), or (FilePath, StartLine)
// for line-window chunks; ID encodes that identity deterministically.
type Chunk struct {
	ID          string
	Kind        ChunkKind
	Name        string
	FilePath    string
	StartLine   int
	EndLine     int
	Content     string
	Fingerprint string // hex SHA-256 of Content
	Language    string
	Metadata    map[string]string
	Truncated   bool
}

// ComputeID derives the chunk's deterministic identity from its location.
func (c *Chunk) ComputeID() string {
	if c.Kind == ChunkLineWindow || c.Name == "" {
		c.ID = fmt.Sprintf("%s:L%d", c.FilePath, c.StartLine)
	} else {
		c.ID = fmt.Sprintf("%s:%s", c.FilePath, c.Name)
	}
	return c.ID
}

// ComputeFingerprint hashes exactly the content bytes the chunk was built
// from. Two chunks with equal fingerprints are content-identical and need
// no re-embedding.
func (c *Chunk) ComputeFingerprint() string {
	sum := sha256.Sum256([]byte(c.Content))
	c.Fingerprint = hex.EncodeToString(sum[:])
	return c.Fingerprint
}

// ValidateContent checks basic structural sanity.
func (c *Chunk) ValidateContent() error {
	if c.Content == "" {
		return errors.New("chunk content cannot be empty")
	}
	if c.StartLine <= 0 || c.EndLine <= 0 {
		return errors.New("line numbers must be positive")
	}
	if c.StartLine > c.EndLine {
		return errors.New("start line must be before or equal to end line")
	}
	return nil
}

// ValidateKind checks the chunk kind is one of the known values.
func (c *Chunk) ValidateKind() error {
	switch c.Kind {
	case ChunkFunction, ChunkMethod, ChunkClass, ChunkModule, ChunkLineWindow:
		return nil
	default:
		return fmt.Errorf("invalid chunk kind %q", c.Kind)
	}
}

// Validate performs comprehensive validation of the chunk.
func (c *Chunk) Validate() error {
	if err := c.ValidateContent(); err != nil {
		return err
	}
	if err := c.ValidateKind(); err != nil {
		return err
	}
	if c.FilePath == "" {
		return errors.New("file path is required")
	}
	if c.Fingerprint == "" {
		return errors.New("fingerprint must be computed")
	}
	return nil
}

// EstimateTokens estimates the number of tokens in the chunk content.
// Uses a simple heuristic: characters / 4.
func (c *Chunk) EstimateTokens() int {
	return len(c.Content) / 4
}
