package lang

import (
	"regexp"
	"strings"

	"github.com/semindex/semindex/pkg/types"
)

// ScriptStrategy extracts functions and classes from JavaScript and
// TypeScript source with declaration patterns and brace matching. It is
// deliberately tolerant: anything it cannot attribute to a declaration is
// simply not chunked, and a file with no recognized declarations becomes a
// module chunk.
type ScriptStrategy struct {
	Lang string // "javascript" or "typescript"
}

var (
	scriptFuncRe  = regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s*\*?\s*([A-Za-z_$][\w$]*)\s*[(<]`)
	scriptClassRe = regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:abstract\s+)?class\s+([A-Za-z_$][\w$]*)`)
	scriptArrowRe = regexp.MustCompile(`^\s*(?:export\s+)?(?:const|let|var)\s+([A-Za-z_$][\w$]*)\s*(?::[^=]+)?=\s*(?:async\s+)?(?:\([^)]*\)|[A-Za-z_$][\w$]*)\s*(?::[^=]+)?=>`)
)

func (s *ScriptStrategy) Language() string { return s.Lang }

func (s *ScriptStrategy) Chunk(path string, content []byte) ([]*types.Chunk, error) {
	lines := strings.Split(string(content), "\n")

	var chunks []*types.Chunk
	for i := 0; i < len(lines); i++ {
		line := lines[i]

		var name string
		kind := types.ChunkFunction
		if m := scriptClassRe.FindStringSubmatch(line); m != nil {
			name, kind = m[1], types.ChunkClass
		} else if m := scriptFuncRe.FindStringSubmatch(line); m != nil {
			name = m[1]
		} else if m := scriptArrowRe.FindStringSubmatch(line); m != nil {
			name = m[1]
		} else {
			continue
		}

		end := braceBlockEnd(lines, i)
		chunk := newChunk(path, s.Lang, kind, name, i+1, end, lines)
		if chunk != nil {
			chunks = append(chunks, chunk)
		}
		if end-1 > i {
			i = end - 1
		}
	}

	if len(chunks) == 0 {
		if strings.TrimSpace(string(content)) == "" {
			return nil, nil
		}
		chunks = append(chunks, moduleChunk(path, s.Lang, moduleName(path), lines))
	}

	return chunks, nil
}

// braceBlockEnd finds the 1-based line on which the brace block opened at or
// after line start closes. Single-expression arrow bodies without braces end
// on their own line.
func braceBlockEnd(lines []string, start int) int {
	depth := 0
	opened := false
	for i := start; i < len(lines); i++ {
		for _, r := range lines[i] {
			switch r {
			case '{':
				depth++
				opened = true
			case '}':
				depth--
			}
		}
		if opened && depth <= 0 {
			return i + 1
		}
		if !opened && i > start {
			// No block within a line of the declaration: treat the
			// declaration line itself as the chunk.
			return start + 1
		}
	}
	return len(lines)
}
