package classify

import (
	"errors"
	"reflect"
	"sort"
	"strings"
	"testing"
)

// fakeText is a positioned fragment; fragments sharing a y form one line.
type fakeText struct {
	y    float64
	text string
}

type fakePage struct {
	texts []fakeText
	dims  Dimensions
	seps  []float64
	err   error
	crops *[]Rect
}

func (p *fakePage) Lines() ([]string, error) {
	if p.err != nil {
		return nil, p.err
	}
	byY := map[float64][]string{}
	var ys []float64
	for _, t := range p.texts {
		if _, ok := byY[t.y]; !ok {
			ys = append(ys, t.y)
		}
		byY[t.y] = append(byY[t.y], t.text)
	}
	sort.Float64s(ys)
	out := make([]string, 0, len(ys))
	for _, y := range ys {
		out = append(out, strings.Join(byY[y], " "))
	}
	return out, nil
}

func (p *fakePage) Dimensions() (Dimensions, error) {
	return p.dims, p.err
}

func (p *fakePage) Crop(r Rect) (TextSource, error) {
	if p.crops != nil {
		*p.crops = append(*p.crops, r)
	}
	var kept []fakeText
	for _, t := range p.texts {
		if r.Contains(0, t.y) {
			kept = append(kept, t)
		}
	}
	return &fakePage{texts: kept, dims: p.dims}, nil
}

type fakeRuledPage struct {
	fakePage
}

func (p *fakeRuledPage) Separators() ([]float64, error) {
	return p.seps, nil
}

// fakeLaidOutPage also reports line positions, so titles can end footnote blocks.
type fakeLaidOutPage struct {
	fakeRuledPage
}

func (p *fakeLaidOutPage) PositionedLines() ([]PositionedLine, error) {
	out := make([]PositionedLine, 0, len(p.texts))
	for _, t := range p.texts {
		out = append(out, PositionedLine{Text: t.text, Top: t.y})
	}
	return out, nil
}

func newDefault(t *testing.T) *Classifier {
	t.Helper()
	c, err := New(DefaultRules())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return c
}

func page(texts ...fakeText) *fakePage {
	return &fakePage{texts: texts, dims: Dimensions{Width: 600, Height: 100}}
}

func TestClassify_TitleAndFootnotes(t *testing.T) {
	c := newDefault(t)
	p := page(
		fakeText{5, "Introduction"},
		fakeText{10, "Table 14.1.1: Demographics"},
		fakeText{20, "some body text"},
		fakeText{70, "Note: AE = adverse event"},
		fakeText{80, "p<0.05 was considered significant"},
	)

	res, err := c.Classify(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.HasTitle() || res.Title != "Table 14.1.1: Demographics" {
		t.Errorf("expected title %q, got %q", "Table 14.1.1: Demographics", res.Title)
	}
	want := []string{"Note: AE = adverse event"}
	if !reflect.DeepEqual(res.Footnotes, want) {
		t.Errorf("expected footnotes %q, got %q", want, res.Footnotes)
	}
}

func TestClassify_ConfidentialFooterLineExcluded(t *testing.T) {
	// Both fragments sit on the same baseline, so the footer crop yields a single line.
	c := newDefault(t)
	p := page(
		fakeText{5, "Introduction"},
		fakeText{10, "Table 14.1.1: Demographics"},
		fakeText{20, "some body text"},
		fakeText{90, "Note: N = number of subjects"},
		fakeText{90, "Confidential - Page 12"},
	)

	res, err := c.Classify(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Title != "Table 14.1.1: Demographics" {
		t.Errorf("expected title %q, got %q", "Table 14.1.1: Demographics", res.Title)
	}
	if len(res.Footnotes) != 0 {
		t.Errorf("expected no footnotes, got %q", res.Footnotes)
	}
}

func TestClassify_FooterRegionIsBottomFortyPercent(t *testing.T) {
	c := newDefault(t)
	var crops []Rect
	p := page(
		fakeText{10, "Figure 2: Plot"},
		fakeText{30, "Note: above the footer"},
		fakeText{59, "x = 1 just above the band"},
		fakeText{60, "Note: first footer line"},
	)
	p.crops = &crops

	res, err := c.Classify(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Rect{X0: 0, Y0: 60, X1: 600, Y1: 100}
	if len(crops) != 1 || crops[0] != want {
		t.Fatalf("expected single crop %+v, got %+v", want, crops)
	}
	if !reflect.DeepEqual(res.Footnotes, []string{"Note: first footer line"}) {
		t.Errorf("unexpected footnotes %q", res.Footnotes)
	}
}

func TestClassify_NoTitle(t *testing.T) {
	c := newDefault(t)
	p := page(
		fakeText{10, "Table of Contents"},
		fakeText{20, "Listing: missing number"},
		fakeText{80, "Note: still a footnote"},
	)

	res, err := c.Classify(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.HasTitle() {
		t.Errorf("expected no title, got %q", res.Title)
	}
	if len(res.Footnotes) != 1 {
		t.Errorf("expected footnotes to be computed regardless of title, got %q", res.Footnotes)
	}
}

func TestClassify_EmptyPage(t *testing.T) {
	c := newDefault(t)
	res, err := c.Classify(page())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.HasTitle() || len(res.Footnotes) != 0 {
		t.Errorf("expected empty result, got %+v", res)
	}
}

func TestClassify_ZeroDimensionsSkipsFooter(t *testing.T) {
	c := newDefault(t)
	var crops []Rect
	p := &fakePage{texts: []fakeText{{1, "Table 1: X"}}, crops: &crops}

	res, err := c.Classify(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Title != "Table 1: X" {
		t.Errorf("expected title, got %q", res.Title)
	}
	if len(crops) != 0 {
		t.Errorf("expected no crop for a page without dimensions, got %d", len(crops))
	}
}

func TestClassify_UnreadablePage(t *testing.T) {
	c := newDefault(t)
	boom := errors.New("broken content stream")
	_, err := c.Classify(&fakePage{err: boom})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestFindTitle_FirstMatchWins(t *testing.T) {
	c := newDefault(t)
	lines := []string{
		"Header",
		"  Listing 16.2.1: Subject Disposition  ",
		"Table 1: Later",
	}
	got, ok := c.FindTitle(lines)
	if !ok {
		t.Fatal("expected a title")
	}
	if got != "Listing 16.2.1: Subject Disposition" {
		t.Errorf("expected first matching line trimmed, got %q", got)
	}
}

func TestFindTitle_Patterns(t *testing.T) {
	c := newDefault(t)
	tests := []struct {
		line string
		want bool
	}{
		{"Table 14.1.1: Demographics", true},
		{"Table 14.1.1 : Demographics", true},
		{"Figure 3: Kaplan-Meier", true},
		{"Listing 1.2.3.: Adverse events", true},
		{"Table 14.1.1 Demographics", false},
		{"Table A.1: Appendix", false},
		{"table 1: lowercase", false},
		{"Tables 1: plural", false},
		{"See Table 1: inline", false},
	}
	for _, tt := range tests {
		_, got := c.FindTitle([]string{tt.line})
		if got != tt.want {
			t.Errorf("FindTitle(%q): expected %v, got %v", tt.line, tt.want, got)
		}
	}
}

func TestFilterFootnotes_ExclusionDominates(t *testing.T) {
	c := newDefault(t)
	lines := []string{
		"Note: Page 5 reference",
		"Note: Confidential data",
		"a = b, Confidential",
		"Page 3 of 10",
		"Note: N = number of subjects",
		"",
		"   ",
		"x = mean",
		"no predicate here",
	}
	got := c.FilterFootnotes(lines)
	want := []string{"Note: N = number of subjects", "x = mean"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestClassify_SeparatorMode(t *testing.T) {
	rules := DefaultRules()
	rules.Footer.Mode = FooterSeparator
	c, err := New(rules)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var crops []Rect
	p := &fakeRuledPage{fakePage{
		texts: []fakeText{
			{10, "Table 1: Top"},
			{25, "Note: first block"},
			{50, "Note: second block"},
			{95, "Page 1"},
		},
		dims:  Dimensions{Width: 600, Height: 100},
		seps:  []float64{40, 20, 150},
		crops: &crops,
	}}

	res, err := c.Classify(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantCrops := []Rect{
		{X0: 0, Y0: 20, X1: 600, Y1: 40},
		{X0: 0, Y0: 40, X1: 600, Y1: 100},
	}
	if !reflect.DeepEqual(crops, wantCrops) {
		t.Errorf("expected crops %+v, got %+v", wantCrops, crops)
	}
	want := []string{"Note: first block", "Note: second block"}
	if !reflect.DeepEqual(res.Footnotes, want) {
		t.Errorf("expected %q, got %q", want, res.Footnotes)
	}
}

func TestClassify_SeparatorModeFallsBackToBand(t *testing.T) {
	rules := DefaultRules()
	rules.Footer.Mode = FooterSeparator
	c, err := New(rules)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var crops []Rect
	p := &fakeRuledPage{fakePage{
		texts: []fakeText{{70, "Note: band"}},
		dims:  Dimensions{Width: 10, Height: 100},
		crops: &crops,
	}}
	if _, err := c.Classify(p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(crops) != 1 || crops[0].Y0 != 60 {
		t.Errorf("expected band fallback, got %+v", crops)
	}
}

func TestClassify_SeparatorBlockEndsAtNextTitle(t *testing.T) {
	rules := DefaultRules()
	rules.Footer.Mode = FooterSeparator
	c, err := New(rules)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var crops []Rect
	p := &fakeLaidOutPage{fakeRuledPage{fakePage{
		texts: []fakeText{
			{10, "Table 1: First"},
			{45, "Note: first table note"},
			{55, "Table 2: Second"},
			{70, "N = 12"},
		},
		dims:  Dimensions{Width: 600, Height: 100},
		seps:  []float64{40},
		crops: &crops,
	}}}

	res, err := c.Classify(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Title != "Table 1: First" {
		t.Errorf("unexpected title %q", res.Title)
	}
	wantCrops := []Rect{{X0: 0, Y0: 40, X1: 600, Y1: 55}}
	if !reflect.DeepEqual(crops, wantCrops) {
		t.Errorf("expected crops %+v, got %+v", wantCrops, crops)
	}
	want := []string{"Note: first table note"}
	if !reflect.DeepEqual(res.Footnotes, want) {
		t.Errorf("expected %q, got %q", want, res.Footnotes)
	}
}

func TestSeparatorRegions_Anchors(t *testing.T) {
	dims := Dimensions{Width: 10, Height: 100}
	tests := []struct {
		name   string
		seps   []float64
		titles []float64
		want   []Rect
	}{
		{"no rules", nil, []float64{30}, nil},
		{"rule to bottom", []float64{60}, nil, []Rect{{0, 60, 10, 100}}},
		{"title above rule is ignored", []float64{60}, []float64{20}, []Rect{{0, 60, 10, 100}}},
		{"rule then title then rule", []float64{20, 70}, []float64{50}, []Rect{{0, 20, 10, 50}, {0, 70, 10, 100}}},
		{"title on the rule", []float64{50}, []float64{50}, nil},
		{"rule off the page", []float64{120}, nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := separatorRegions(tt.seps, tt.titles, dims); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}
