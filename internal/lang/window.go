package lang

import (
	"strings"

	"github.com/semindex/semindex/pkg/types"
)

// DefaultWindowSize is the line count per fallback window.
const DefaultWindowSize = 50

// WindowStrategy splits a file into fixed-size line windows. It is the
// fallback for unsupported languages and for files whose structural parser
// failed, so every file stays searchable.
type WindowStrategy struct {
	size int
}

// NewWindowStrategy creates a window strategy with the given line count per
// window. Non-positive sizes use DefaultWindowSize.
func NewWindowStrategy(size int) *WindowStrategy {
	if size <= 0 {
		size = DefaultWindowSize
	}
	return &WindowStrategy{size: size}
}

func (w *WindowStrategy) Language() string { return "" }

func (w *WindowStrategy) Chunk(path string, content []byte) ([]*types.Chunk, error) {
	lines := strings.Split(string(content), "\n")
	if len(lines) == 0 {
		return nil, nil
	}

	chunks := make([]*types.Chunk, 0, (len(lines)/w.size)+1)
	for start := 0; start < len(lines); start += w.size {
		end := start + w.size
		if end > len(lines) {
			end = len(lines)
		}
		text := strings.Join(lines[start:end], "\n")
		if strings.TrimSpace(text) == "" {
			continue
		}

		chunk := &types.Chunk{
			Kind:      types.ChunkLineWindow,
			FilePath:  path,
			StartLine: start + 1,
			EndLine:   end,
			Content:   text,
			Language:  DetectLanguage(path),
		}
		chunk.ComputeID()
		chunk.ComputeFingerprint()
		chunks = append(chunks, chunk)
	}

	return chunks, nil
}
