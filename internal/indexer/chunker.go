package indexer

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// Chunker normalizes source text and splits it into overlapping,
// size-bounded segments. Much workspace content (docs, extracted file text)
// is markdown, so normalization flattens the markdown AST to plain prose
// before windowing; plain text passes through unchanged.
type Chunker struct {
	size    int // max runes per chunk
	overlap int // runes shared between consecutive chunks
	parser  goldmark.Markdown
}

// NewChunker creates a chunker with the given window size and overlap, both
// in runes. Overlap must be smaller than size.
func NewChunker(size, overlap int) *Chunker {
	return &Chunker{
		size:    size,
		overlap: overlap,
		parser: goldmark.New(
			goldmark.WithExtensions(extension.Table),
		),
	}
}

// Chunk normalizes content and returns overlapping segments in order.
// Returns nil for empty or whitespace-only content.
func (c *Chunker) Chunk(content string) []string {
	flat := c.flatten([]byte(content))
	runes := []rune(flat)
	if len(runes) == 0 {
		return nil
	}

	step := c.size - c.overlap
	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + c.size
		if end > len(runes) {
			end = len(runes)
		}
		segment := strings.TrimSpace(string(runes[start:end]))
		if segment != "" {
			chunks = append(chunks, segment)
		}
		if end == len(runes) {
			break
		}
	}
	return chunks
}

// flatten renders markdown down to plain text by walking the goldmark AST.
func (c *Chunker) flatten(content []byte) string {
	reader := text.NewReader(content)
	doc := c.parser.Parser().Parse(reader)

	var builder strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if n.Type() == ast.TypeBlock && builder.Len() > 0 {
				builder.WriteString("\n")
			}
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Text:
			builder.Write(node.Segment.Value(content))
			if node.SoftLineBreak() || node.HardLineBreak() {
				builder.WriteString("\n")
			}
		case *ast.FencedCodeBlock:
			writeLines(&builder, content, node)
		case *ast.CodeBlock:
			writeLines(&builder, content, node)
		case *ast.AutoLink:
			builder.Write(node.URL(content))
		}
		return ast.WalkContinue, nil
	})

	return strings.TrimSpace(builder.String())
}

func writeLines(builder *strings.Builder, content []byte, n ast.Node) {
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		builder.Write(segment.Value(content))
	}
}
