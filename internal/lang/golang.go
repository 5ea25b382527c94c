package lang

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"strings"

	"github.com/semindex/semindex/pkg/types"
)

// GoStrategy extracts chunks from Go source using the standard AST parser.
// Functions, methods, and type declarations become chunks; a file with no
// declarations becomes a single module chunk.
type GoStrategy struct{}

func (g *GoStrategy) Language() string { return "go" }

func (g *GoStrategy) Chunk(path string, content []byte) ([]*types.Chunk, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, content, parser.ParseComments)
	if file == nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	// A partial AST from a file with syntax errors is still usable; only a
	// nil AST aborts to the line-window fallback.

	lines := strings.Split(string(content), "\n")
	pkgName := ""
	if file.Name != nil {
		pkgName = file.Name.Name
	}
	imports := importPaths(file)

	var chunks []*types.Chunk
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			chunk := g.funcChunk(fset, d, path, pkgName, lines)
			if chunk != nil {
				chunks = append(chunks, chunk)
			}
		case *ast.GenDecl:
			if d.Tok != token.TYPE {
				continue
			}
			for _, spec := range d.Specs {
				ts, ok := spec.(*ast.TypeSpec)
				if !ok {
					continue
				}
				chunk := g.typeChunk(fset, d, ts, path, pkgName, lines)
				if chunk != nil {
					chunks = append(chunks, chunk)
				}
			}
		}
	}

	if len(chunks) == 0 {
		chunks = append(chunks, moduleChunk(path, "go", pkgName, lines))
	}

	for _, chunk := range chunks {
		if chunk.Metadata == nil {
			chunk.Metadata = make(map[string]string)
		}
		if pkgName != "" {
			chunk.Metadata["package"] = pkgName
		}
		if len(imports) > 0 {
			chunk.Metadata["imports"] = strings.Join(imports, ",")
		}
	}

	return chunks, nil
}

func (g *GoStrategy) funcChunk(fset *token.FileSet, d *ast.FuncDecl, path, pkgName string, lines []string) *types.Chunk {
	if d.Name == nil {
		return nil
	}

	name := d.Name.Name
	kind := types.ChunkFunction
	if d.Recv != nil && len(d.Recv.List) > 0 {
		kind = types.ChunkMethod
		if recv := receiverTypeName(d.Recv.List[0].Type); recv != "" {
			name = recv + "." + name
		}
	}

	start := fset.Position(d.Pos()).Line
	end := fset.Position(d.End()).Line
	if d.Doc != nil {
		start = fset.Position(d.Doc.Pos()).Line
	}

	chunk := newChunk(path, "go", kind, name, start, end, lines)
	if chunk == nil {
		return nil
	}
	chunk.Metadata = map[string]string{}
	if pkgName != "" {
		chunk.Metadata["qualified_name"] = pkgName + "." + name
	}
	if d.Doc != nil {
		chunk.Metadata["doc"] = strings.TrimSpace(d.Doc.Text())
	}
	return chunk
}

func (g *GoStrategy) typeChunk(fset *token.FileSet, d *ast.GenDecl, ts *ast.TypeSpec, path, pkgName string, lines []string) *types.Chunk {
	name := ts.Name.Name
	start := fset.Position(d.Pos()).Line
	end := fset.Position(d.End()).Line
	if d.Doc != nil {
		start = fset.Position(d.Doc.Pos()).Line
	}

	chunk := newChunk(path, "go", types.ChunkClass, name, start, end, lines)
	if chunk == nil {
		return nil
	}
	chunk.Metadata = map[string]string{}
	if pkgName != "" {
		chunk.Metadata["qualified_name"] = pkgName + "." + name
	}
	doc := d.Doc
	if ts.Doc != nil {
		doc = ts.Doc
	}
	if doc != nil {
		chunk.Metadata["doc"] = strings.TrimSpace(doc.Text())
	}
	return chunk
}

// receiverTypeName resolves the base type name of a method receiver,
// unwrapping pointers and generics.
func receiverTypeName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return receiverTypeName(t.X)
	case *ast.IndexExpr:
		return receiverTypeName(t.X)
	case *ast.IndexListExpr:
		return receiverTypeName(t.X)
	default:
		return ""
	}
}

func importPaths(file *ast.File) []string {
	paths := make([]string, 0, len(file.Imports))
	for _, imp := range file.Imports {
		paths = append(paths, strings.Trim(imp.Path.Value, `"`))
	}
	return paths
}

// newChunk builds a chunk from 1-based line bounds, clamping to the file.
func newChunk(path, lang string, kind types.ChunkKind, name string, start, end int, lines []string) *types.Chunk {
	if start <= 0 || start > len(lines) {
		return nil
	}
	if end > len(lines) {
		end = len(lines)
	}
	content := strings.Join(lines[start-1:end], "\n")
	if strings.TrimSpace(content) == "" {
		return nil
	}

	chunk := &types.Chunk{
		Kind:      kind,
		Name:      name,
		FilePath:  path,
		StartLine: start,
		EndLine:   end,
		Content:   content,
		Language:  lang,
	}
	chunk.ComputeID()
	chunk.ComputeFingerprint()
	return chunk
}

// moduleChunk wraps an entire file as a single chunk.
func moduleChunk(path, lang, name string, lines []string) *types.Chunk {
	chunk := &types.Chunk{
		Kind:      types.ChunkModule,
		Name:      name,
		FilePath:  path,
		StartLine: 1,
		EndLine:   len(lines),
		Content:   strings.Join(lines, "\n"),
		Language:  lang,
	}
	chunk.ComputeID()
	chunk.ComputeFingerprint()
	return chunk
}
