package classify

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Result is what a single page contributes to the report.
type Result struct {
	Title     string
	Footnotes []string
}

// HasTitle reports whether a title line was found on the page.
func (r Result) HasTitle() bool {
	return r.Title != ""
}

// Classifier finds the title and footnotes of a page.
type Classifier struct {
	title    *regexp.Regexp
	mode     string
	fraction float64
	include  []matcher
	exclude  []matcher
}

// New compiles rules into a Classifier.
func New(rules Rules) (*Classifier, error) {
	if rules.TitlePattern == "" {
		return nil, fmt.Errorf("%w: title pattern is required", ErrInvalidRules)
	}
	title, err := regexp.Compile(rules.TitlePattern)
	if err != nil {
		return nil, fmt.Errorf("%w: title pattern: %v", ErrInvalidRules, err)
	}
	if rules.Footer.Fraction <= 0 || rules.Footer.Fraction >= 1 {
		return nil, fmt.Errorf("%w: footer fraction %v must be between 0 and 1", ErrInvalidRules, rules.Footer.Fraction)
	}
	switch rules.Footer.Mode {
	case FooterBand, FooterSeparator:
	default:
		return nil, fmt.Errorf("%w: unknown footer mode %q", ErrInvalidRules, rules.Footer.Mode)
	}
	if len(rules.Footnotes.Include) == 0 {
		return nil, fmt.Errorf("%w: at least one footnote include predicate is required", ErrInvalidRules)
	}

	include, err := compileAll(rules.Footnotes.Include)
	if err != nil {
		return nil, err
	}
	exclude, err := compileAll(rules.Footnotes.Exclude)
	if err != nil {
		return nil, err
	}

	return &Classifier{
		title:    title,
		mode:     rules.Footer.Mode,
		fraction: rules.Footer.Fraction,
		include:  include,
		exclude:  exclude,
	}, nil
}

// Classify reads the page text and its footer region. An error means the page
// could not be read; a page without text is not an error.
func (c *Classifier) Classify(src TextSource) (Result, error) {
	lines, err := src.Lines()
	if err != nil {
		return Result{}, fmt.Errorf("read page text: %w", err)
	}
	title, _ := c.FindTitle(lines)

	regions, err := c.FooterRegions(src)
	if err != nil {
		return Result{}, err
	}

	var notes []string
	for _, r := range regions {
		region, err := src.Crop(r)
		if err != nil {
			return Result{}, fmt.Errorf("crop footer region: %w", err)
		}
		regionLines, err := region.Lines()
		if err != nil {
			return Result{}, fmt.Errorf("read footer text: %w", err)
		}
		notes = append(notes, c.FilterFootnotes(regionLines)...)
	}

	return Result{Title: title, Footnotes: notes}, nil
}

// FindTitle returns the first line matching the title pattern. Later matches are ignored.
func (c *Classifier) FindTitle(lines []string) (string, bool) {
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if c.title.MatchString(line) {
			return line, true
		}
	}
	return "", false
}

// FilterFootnotes keeps the lines that satisfy an include predicate and no
// exclude predicate, in their original order.
func (c *Classifier) FilterFootnotes(lines []string) []string {
	var out []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if c.IsFootnote(line) {
			out = append(out, line)
		}
	}
	return out
}

// IsFootnote applies the predicates to a single trimmed line. Exclusion wins.
func (c *Classifier) IsFootnote(line string) bool {
	for _, ex := range c.exclude {
		if ex(line) {
			return false
		}
	}
	for _, in := range c.include {
		if in(line) {
			return true
		}
	}
	return false
}

// FooterRegions returns the rectangles whose text is searched for footnotes.
// A page without usable dimensions has no footer region.
func (c *Classifier) FooterRegions(src TextSource) ([]Rect, error) {
	dims, err := src.Dimensions()
	if err != nil {
		return nil, fmt.Errorf("read page dimensions: %w", err)
	}
	if dims.Width <= 0 || dims.Height <= 0 {
		return nil, nil
	}

	band := Rect{X0: 0, Y0: c.fraction * dims.Height, X1: dims.Width, Y1: dims.Height}
	if c.mode != FooterSeparator {
		return []Rect{band}, nil
	}

	rs, ok := src.(RuleSource)
	if !ok {
		return []Rect{band}, nil
	}
	seps, err := rs.Separators()
	if err != nil {
		return nil, fmt.Errorf("read separators: %w", err)
	}
	titles, err := c.titleTops(src)
	if err != nil {
		return nil, err
	}
	regions := separatorRegions(seps, titles, dims)
	if len(regions) == 0 {
		return []Rect{band}, nil
	}
	return regions, nil
}

// titleTops returns the top edge of every title line on the page, or nil
// when the source cannot report line positions.
func (c *Classifier) titleTops(src TextSource) ([]float64, error) {
	ls, ok := src.(LayoutSource)
	if !ok {
		return nil, nil
	}
	lines, err := ls.PositionedLines()
	if err != nil {
		return nil, fmt.Errorf("read line positions: %w", err)
	}
	var tops []float64
	for _, l := range lines {
		if c.title.MatchString(strings.TrimSpace(l.Text)) {
			tops = append(tops, l.Top)
		}
	}
	return tops, nil
}

// separatorRegions builds one block per rule. A block ends at the next
// anchor below it: another rule, a title line or the page bottom.
func separatorRegions(seps, titles []float64, dims Dimensions) []Rect {
	type anchor struct {
		y    float64
		rule bool
	}
	var anchors []anchor
	for _, y := range seps {
		if y >= 0 && y < dims.Height {
			anchors = append(anchors, anchor{y: y, rule: true})
		}
	}
	if len(anchors) == 0 {
		return nil
	}
	for _, y := range titles {
		anchors = append(anchors, anchor{y: y})
	}
	sort.SliceStable(anchors, func(i, j int) bool { return anchors[i].y < anchors[j].y })

	var out []Rect
	for i, a := range anchors {
		if !a.rule {
			continue
		}
		end := dims.Height
		if i+1 < len(anchors) {
			end = min(anchors[i+1].y, dims.Height)
		}
		if end <= a.y {
			continue
		}
		out = append(out, Rect{X0: 0, Y0: a.y, X1: dims.Width, Y1: end})
	}
	return out
}
