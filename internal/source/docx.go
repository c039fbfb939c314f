package source

import (
	"fmt"
	"os"
	"strings"

	"github.com/fumiama/go-docx"
)

func openDOCX(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat input: %w", err)
	}
	doc, err := docx.Parse(f, fi.Size())
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}
	return DOCXPages(doc), nil
}

// DOCXPages splits a parsed document on explicit page breaks (<w:br w:type="page"/>).
// Each paragraph is one line; each table row is one line with cells separated
// by two spaces.
func DOCXPages(doc *docx.Docx) *PagedDocument {
	var pg pager
	for _, item := range doc.Document.Body.Items {
		switch it := item.(type) {
		case *docx.Paragraph:
			docxParagraph(&pg, it)
		case *docx.Table:
			for _, tr := range it.TableRows {
				cells := make([]string, 0, len(tr.TableCells))
				for _, tc := range tr.TableCells {
					var parts []string
					for _, p := range tc.Paragraphs {
						if t := strings.TrimSpace(docxParagraphText(p)); t != "" {
							parts = append(parts, t)
						}
					}
					cells = append(cells, strings.Join(parts, " "))
				}
				pg.line(strings.TrimSpace(strings.Join(cells, "  ")))
			}
		}
	}
	return pg.document()
}

// docxParagraph writes a paragraph, starting a new page at every page break.
// Text before the break stays on the current page.
func docxParagraph(pg *pager, para *docx.Paragraph) {
	var buf strings.Builder
	wrote := false
	flush := func() {
		if t := strings.TrimSpace(buf.String()); t != "" {
			pg.line(t)
			wrote = true
		}
		buf.Reset()
	}

	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			if link, ok := child.(*docx.Hyperlink); ok {
				run = &link.Run
			} else {
				continue
			}
		}
		for _, rc := range run.Children {
			switch c := rc.(type) {
			case *docx.Text:
				buf.WriteString(c.Text)
			case *docx.Tab:
				buf.WriteByte('\t')
			case *docx.BarterRabbet:
				if c.Type == "page" {
					flush()
					pg.pageBreak()
					wrote = true
				} else {
					flush()
				}
			}
		}
	}
	flush()
	if !wrote {
		pg.line("")
	}
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return buf.String()
}
