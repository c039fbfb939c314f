package classify

// Rect is a rectangle in page coordinates, origin at the top-left corner.
type Rect struct {
	X0, Y0 float64
	X1, Y1 float64
}

// Contains reports whether the point lies inside r. The upper edges are exclusive
// so adjacent rectangles never share a point.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X0 && x < r.X1 && y >= r.Y0 && y < r.Y1
}

// Dimensions is the size of a page.
type Dimensions struct {
	Width  float64
	Height float64
}

// TextSource is a page, or a cropped view of one, whose text can be read as lines.
type TextSource interface {
	// Lines returns the text top-to-bottom, one entry per visual line.
	Lines() ([]string, error)
	Dimensions() (Dimensions, error)
	// Crop returns a view restricted to r. Text is re-extracted from the
	// glyphs inside r, so line segmentation may differ from the full page.
	Crop(r Rect) (TextSource, error)
}

// RuleSource is implemented by sources that know where horizontal rules are drawn.
type RuleSource interface {
	// Separators returns the y position of every horizontal rule, top-left origin.
	Separators() ([]float64, error)
}

// PositionedLine is a line of text and the y position of its top edge.
type PositionedLine struct {
	Text string
	Top  float64
}

// LayoutSource is implemented by sources that know where each line sits.
// In separator mode the titles found this way end the footnote block above them.
type LayoutSource interface {
	PositionedLines() ([]PositionedLine, error)
}
