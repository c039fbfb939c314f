package source

import (
	"fmt"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// ParseMarkdown reads Markdown where a top-level thematic break ("***", or "---"
// after a blank line) starts a new page. Block text keeps its source lines.
func ParseMarkdown(r io.Reader) (*PagedDocument, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read markdown: %w", err)
	}

	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	var pg pager
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if n.Kind() == ast.KindThematicBreak {
			pg.pageBreak()
			continue
		}
		blockLines(&pg, n, src)
	}
	return pg.document(), nil
}

// blockLines emits the source lines of leaf blocks and recurses into containers
// such as lists and block quotes.
func blockLines(pg *pager, n ast.Node, src []byte) {
	if n.Type() != ast.TypeBlock {
		return
	}
	lines := n.Lines()
	if lines.Len() > 0 {
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			pg.line(strings.TrimRight(string(seg.Value(src)), " \t\r\n"))
		}
		return
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		blockLines(pg, c, src)
	}
}
