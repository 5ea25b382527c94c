package lang

import (
	"strings"

	"github.com/semindex/semindex/pkg/types"
)

// PythonStrategy extracts top-level functions and classes from Python source
// by indentation scanning. Methods are attributed to their enclosing class
// via a dotted name.
type PythonStrategy struct{}

func (p *PythonStrategy) Language() string { return "python" }

func (p *PythonStrategy) Chunk(path string, content []byte) ([]*types.Chunk, error) {
	lines := strings.Split(string(content), "\n")

	var chunks []*types.Chunk
	i := 0
	for i < len(lines) {
		name, isClass, ok := defOrClass(lines[i], 0)
		if !ok {
			i++
			continue
		}

		end := blockEnd(lines, i, 0)
		kind := types.ChunkFunction
		if isClass {
			kind = types.ChunkClass
		}
		chunk := newChunk(path, "python", kind, name, i+1, end, lines)
		if chunk != nil {
			chunks = append(chunks, chunk)
		}

		// Methods inside a class become their own chunks as well, so a
		// query can land on the method rather than the whole class.
		if isClass {
			chunks = append(chunks, p.methodChunks(path, lines, i, end, name)...)
		}
		i = end
	}

	if len(chunks) == 0 {
		if strings.TrimSpace(string(content)) == "" {
			return nil, nil
		}
		chunks = append(chunks, moduleChunk(path, "python", moduleName(path), lines))
	}

	return chunks, nil
}

func (p *PythonStrategy) methodChunks(path string, lines []string, classStart, classEnd int, className string) []*types.Chunk {
	var chunks []*types.Chunk
	for i := classStart + 1; i < classEnd; i++ {
		indent := indentOf(lines[i])
		if indent == 0 {
			continue
		}
		name, isClass, ok := defOrClass(lines[i], indent)
		if !ok || isClass {
			continue
		}
		end := blockEnd(lines, i, indent)
		chunk := newChunk(path, "python", types.ChunkMethod, className+"."+name, i+1, end, lines)
		if chunk != nil {
			chunks = append(chunks, chunk)
		}
		i = end - 1
	}
	return chunks
}

// defOrClass reports whether the line opens a def or class block at exactly
// the given indentation, and extracts its name.
func defOrClass(line string, indent int) (name string, isClass bool, ok bool) {
	if indentOf(line) != indent {
		return "", false, false
	}
	trimmed := strings.TrimLeft(line, " \t")
	switch {
	case strings.HasPrefix(trimmed, "def "):
		return blockName(trimmed[4:]), false, true
	case strings.HasPrefix(trimmed, "async def "):
		return blockName(trimmed[10:]), false, true
	case strings.HasPrefix(trimmed, "class "):
		return blockName(trimmed[6:]), true, true
	}
	return "", false, false
}

// blockEnd returns the exclusive end line index of an indented block opened
// at line start with the given indentation.
func blockEnd(lines []string, start, indent int) int {
	end := start + 1
	for end < len(lines) {
		line := lines[end]
		if strings.TrimSpace(line) == "" {
			end++
			continue
		}
		if indentOf(line) <= indent {
			break
		}
		end++
	}
	// Trim trailing blank lines out of the block.
	for end > start+1 && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return end
}

func indentOf(line string) int {
	count := 0
	for _, r := range line {
		switch r {
		case ' ':
			count++
		case '\t':
			count += 4
		default:
			return count
		}
	}
	return count
}

func blockName(rest string) string {
	for i, r := range rest {
		if r == '(' || r == ':' || r == ' ' {
			return rest[:i]
		}
	}
	return strings.TrimSpace(rest)
}

func moduleName(path string) string {
	base := path
	if idx := strings.LastIndexByte(base, '/'); idx >= 0 {
		base = base[idx+1:]
	}
	if idx := strings.IndexByte(base, '.'); idx > 0 {
		base = base[:idx]
	}
	return base
}
