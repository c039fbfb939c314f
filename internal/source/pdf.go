package source

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/dgallion1/tflextract/internal/classify"
	pdflib "github.com/ledongthuc/pdf"
)

const (
	// rowTolerance groups glyphs whose baselines differ by less than this, in points.
	rowTolerance = 2.0
	// wordSpaceRatio of the font size is the gap that separates two words.
	wordSpaceRatio = 0.3
	// ruleThickness is the tallest rectangle still treated as a horizontal rule.
	ruleThickness = 1.0
)

// PDFDocument reads pages through github.com/ledongthuc/pdf.
type PDFDocument struct {
	f *os.File
	r *pdflib.Reader
}

// OpenPDF opens a PDF file. Malformed files that make the reader panic are
// reported as errors.
func OpenPDF(path string) (doc *PDFDocument, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("open pdf: %v", rec)
		}
	}()

	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	return &PDFDocument{f: f, r: reader}, nil
}

// NumPages returns the page count from the page tree, or 0 when it cannot be read.
func (d *PDFDocument) NumPages() (n int) {
	defer func() {
		if rec := recover(); rec != nil {
			n = 0
		}
	}()
	return d.r.NumPage()
}

// Page extracts the glyphs and rules of page n. Any failure is wrapped in ErrPageUnreadable.
func (d *PDFDocument) Page(n int) (src classify.TextSource, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			src = nil
			err = fmt.Errorf("%w: page %d: %v", ErrPageUnreadable, n, rec)
		}
	}()

	page := d.r.Page(n)
	if page.V.IsNull() {
		return nil, fmt.Errorf("%w: page %d not found", ErrPageUnreadable, n)
	}

	box := mediaBox(page.V)
	if box.Len() != 4 {
		return nil, fmt.Errorf("%w: page %d has no media box", ErrPageUnreadable, n)
	}
	llx, lly := box.Index(0).Float64(), box.Index(1).Float64()
	urx, ury := box.Index(2).Float64(), box.Index(3).Float64()
	width, height := math.Abs(urx-llx), math.Abs(ury-lly)
	top := math.Max(lly, ury)
	left := math.Min(llx, urx)

	content := page.Content()
	p := &PDFPage{bounds: classify.Rect{X1: width, Y1: height}}
	for _, t := range content.Text {
		if t.S == "" || t.S == "\n" {
			continue
		}
		p.glyphs = append(p.glyphs, glyph{
			x:    t.X - left,
			y:    top - t.Y,
			w:    t.W,
			size: t.FontSize,
			s:    t.S,
		})
	}
	for _, r := range content.Rect {
		h := math.Abs(r.Max.Y - r.Min.Y)
		w := math.Abs(r.Max.X - r.Min.X)
		if h <= ruleThickness && w > 0 {
			p.rules = append(p.rules, top-(r.Min.Y+r.Max.Y)/2)
		}
	}
	return p, nil
}

// maxTreeDepth bounds the walk up the page tree, which a malformed file may make cyclic.
const maxTreeDepth = 32

// mediaBox returns the page's MediaBox, inherited from the nearest ancestor in
// the page tree when the page itself has none.
func mediaBox(page pdflib.Value) pdflib.Value {
	v := page
	for range maxTreeDepth {
		if v.IsNull() {
			break
		}
		if box := v.Key("MediaBox"); !box.IsNull() {
			return box
		}
		v = v.Key("Parent")
	}
	return pdflib.Value{}
}

func (d *PDFDocument) Close() error {
	return d.f.Close()
}

// glyph is a piece of text in top-left page coordinates; y is the baseline.
type glyph struct {
	x, y, w, size float64
	s             string
}

// centre approximates the middle of the glyph box.
func (g glyph) centre() (float64, float64) {
	return g.x + g.w/2, g.y - g.size/2
}

// PDFPage is a page, or a cropped part of one, of a PDF document.
type PDFPage struct {
	glyphs []glyph
	rules  []float64
	bounds classify.Rect
}

func (p *PDFPage) Dimensions() (classify.Dimensions, error) {
	return classify.Dimensions{
		Width:  p.bounds.X1 - p.bounds.X0,
		Height: p.bounds.Y1 - p.bounds.Y0,
	}, nil
}

// Crop keeps the glyphs whose centre lies in r. Lines are regrouped from the
// remaining glyphs, so a line straddling the edge loses the cut-off part.
func (p *PDFPage) Crop(r classify.Rect) (classify.TextSource, error) {
	out := &PDFPage{bounds: r}
	for _, g := range p.glyphs {
		if r.Contains(g.centre()) {
			out.glyphs = append(out.glyphs, g)
		}
	}
	for _, y := range p.rules {
		if y >= r.Y0 && y < r.Y1 {
			out.rules = append(out.rules, y)
		}
	}
	return out, nil
}

// Separators returns the y position of the horizontal rules drawn on the page.
func (p *PDFPage) Separators() ([]float64, error) {
	return p.rules, nil
}

// Lines groups glyphs into rows by baseline, top to bottom, and joins each
// row left to right.
func (p *PDFPage) Lines() ([]string, error) {
	return groupLines(p.glyphs), nil
}

// PositionedLines reports each line with the top of its tallest glyph.
func (p *PDFPage) PositionedLines() ([]classify.PositionedLine, error) {
	rows := groupRows(p.glyphs)
	out := make([]classify.PositionedLine, 0, len(rows))
	for _, r := range rows {
		text := joinRow(r)
		if text == "" {
			continue
		}
		top := r[0].y - r[0].size
		for _, g := range r[1:] {
			top = min(top, g.y-g.size)
		}
		out = append(out, classify.PositionedLine{Text: text, Top: top})
	}
	return out, nil
}

func groupLines(glyphs []glyph) []string {
	rows := groupRows(glyphs)
	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		if l := joinRow(r); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// groupRows sorts glyphs top to bottom and splits them where the baseline
// moves by rowTolerance or more.
func groupRows(glyphs []glyph) [][]glyph {
	if len(glyphs) == 0 {
		return nil
	}
	sorted := make([]glyph, len(glyphs))
	copy(sorted, glyphs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].y < sorted[j].y
	})

	var rows [][]glyph
	var cur []glyph
	for _, g := range sorted {
		if len(cur) > 0 && g.y-cur[0].y >= rowTolerance {
			rows = append(rows, cur)
			cur = nil
		}
		cur = append(cur, g)
	}
	return append(rows, cur)
}

func joinRow(row []glyph) string {
	sort.SliceStable(row, func(i, j int) bool {
		return row[i].x < row[j].x
	})

	var b strings.Builder
	for i, g := range row {
		if i > 0 {
			prev := row[i-1]
			gap := g.x - (prev.x + prev.w)
			if gap > wordSpaceRatio*g.size && !strings.HasSuffix(prev.s, " ") && !strings.HasPrefix(g.s, " ") {
				b.WriteByte(' ')
			}
		}
		b.WriteString(g.s)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
