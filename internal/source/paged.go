package source

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/tflextract/internal/classify"
)

// LinePage is a page of flowed text with line geometry: line i occupies
// y in [i, i+1) and column c occupies x in [c, c+1).
type LinePage struct {
	rows   []row
	bounds classify.Rect
}

type row struct {
	y    int
	text string
}

// NewLinePage builds a page from its lines, top to bottom.
func NewLinePage(lines []string) *LinePage {
	p := &LinePage{rows: make([]row, 0, len(lines))}
	width := 0
	for i, l := range lines {
		p.rows = append(p.rows, row{y: i, text: l})
		if n := utf8.RuneCountInString(l); n > width {
			width = n
		}
	}
	p.bounds = classify.Rect{X1: float64(width), Y1: float64(len(lines))}
	return p
}

// Lines returns the page text. Blank lines are kept.
func (p *LinePage) Lines() ([]string, error) {
	out := make([]string, 0, len(p.rows))
	for _, r := range p.rows {
		out = append(out, r.text)
	}
	return out, nil
}

// PositionedLines places each non-blank line at its line index.
func (p *LinePage) PositionedLines() ([]classify.PositionedLine, error) {
	out := make([]classify.PositionedLine, 0, len(p.rows))
	for _, r := range p.rows {
		if strings.TrimSpace(r.text) == "" {
			continue
		}
		out = append(out, classify.PositionedLine{Text: r.text, Top: float64(r.y)})
	}
	return out, nil
}

// Dimensions is measured in columns and lines.
func (p *LinePage) Dimensions() (classify.Dimensions, error) {
	return classify.Dimensions{
		Width:  p.bounds.X1 - p.bounds.X0,
		Height: p.bounds.Y1 - p.bounds.Y0,
	}, nil
}

// Crop keeps the characters whose cell centre lies inside r.
func (p *LinePage) Crop(r classify.Rect) (classify.TextSource, error) {
	out := &LinePage{bounds: r}
	for _, rw := range p.rows {
		if !r.Contains(r.X0, float64(rw.y)+0.5) {
			continue
		}
		var b strings.Builder
		col := 0
		for _, ch := range rw.text {
			if r.Contains(float64(col)+0.5, float64(rw.y)+0.5) {
				b.WriteRune(ch)
			}
			col++
		}
		out.rows = append(out.rows, row{y: rw.y, text: strings.TrimRight(b.String(), " \t")})
	}
	return out, nil
}

// PagedDocument is an in-memory Document of LinePages.
type PagedDocument struct {
	pages []*LinePage
}

// NewPagedDocument builds a document with one LinePage per entry.
func NewPagedDocument(pages [][]string) *PagedDocument {
	d := &PagedDocument{pages: make([]*LinePage, 0, len(pages))}
	for _, lines := range pages {
		d.pages = append(d.pages, NewLinePage(lines))
	}
	return d
}

func (d *PagedDocument) NumPages() int {
	return len(d.pages)
}

func (d *PagedDocument) Page(n int) (classify.TextSource, error) {
	if n < 1 || n > len(d.pages) {
		return nil, fmt.Errorf("page %d out of range (1-%d)", n, len(d.pages))
	}
	return d.pages[n-1], nil
}

func (d *PagedDocument) Close() error {
	return nil
}

// pager accumulates lines into pages for the flow-format readers.
type pager struct {
	pages [][]string
	cur   []string
}

func (p *pager) line(s string) {
	p.cur = append(p.cur, s)
}

// lines adds every line of a multi-line string.
func (p *pager) lines(s string) {
	for _, l := range strings.Split(s, "\n") {
		p.line(strings.TrimRight(l, "\r"))
	}
}

func (p *pager) pageBreak() {
	p.pages = append(p.pages, p.cur)
	p.cur = nil
}

// document closes the last page. A trailing blank page left by a final
// break is dropped, and a document without any line has no pages.
func (p *pager) document() *PagedDocument {
	if !blank(p.cur) || len(p.pages) == 0 {
		p.pages = append(p.pages, p.cur)
	}
	if len(p.pages) == 1 && blank(p.pages[0]) {
		return NewPagedDocument(nil)
	}
	return NewPagedDocument(p.pages)
}

func blank(lines []string) bool {
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			return false
		}
	}
	return true
}
