package classify

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidRules is returned when a rule set cannot be compiled.
var ErrInvalidRules = errors.New("invalid rules")

// Footer region modes.
const (
	// FooterBand crops a single band from Fraction×height to the page bottom.
	FooterBand = "band"
	// FooterSeparator crops from each horizontal rule to the next rule or the page bottom.
	FooterSeparator = "separator"
)

// DefaultTitlePattern matches exhibit titles such as "Table 14.1.1: Demographics".
const DefaultTitlePattern = `^(Table|Figure|Listing)\s+[\d.]+\s*:.*`

// DefaultFooterFraction is where the footer region starts, as a fraction of page height.
const DefaultFooterFraction = 0.6

// Predicate tests a single line. Exactly one of Prefix, Contains or Pattern must be set.
type Predicate struct {
	Prefix     string `yaml:"prefix,omitempty" json:"prefix,omitempty"`
	Contains   string `yaml:"contains,omitempty" json:"contains,omitempty"`
	Pattern    string `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	IgnoreCase bool   `yaml:"ignore_case,omitempty" json:"ignore_case,omitempty"`
}

// FooterRules locates the footnote region on a page.
type FooterRules struct {
	Mode     string  `yaml:"mode" json:"mode"`
	Fraction float64 `yaml:"fraction" json:"fraction"`
}

// FootnoteRules decides which footer lines are footnotes. A line is kept when it
// matches any Include predicate and no Exclude predicate.
type FootnoteRules struct {
	Include []Predicate `yaml:"include" json:"include"`
	Exclude []Predicate `yaml:"exclude" json:"exclude"`
}

// Rules is the complete classifier configuration.
type Rules struct {
	TitlePattern string        `yaml:"title_pattern" json:"title_pattern"`
	Footer       FooterRules   `yaml:"footer" json:"footer"`
	Footnotes    FootnoteRules `yaml:"footnotes" json:"footnotes"`
}

// DefaultRules returns the rules for TFL-style clinical reports.
func DefaultRules() Rules {
	return Rules{
		TitlePattern: DefaultTitlePattern,
		Footer: FooterRules{
			Mode:     FooterBand,
			Fraction: DefaultFooterFraction,
		},
		Footnotes: FootnoteRules{
			Include: []Predicate{
				{Prefix: "Note:"},
				{Contains: "="},
			},
			Exclude: []Predicate{
				{Contains: "Confidential"},
				{Pattern: `\bPage\s+\d+`},
			},
		},
	}
}

// WithDefaults fills zero-valued fields from DefaultRules. Predicate lists are
// only defaulted when both are empty, so a file may clear the exclusions.
func (r Rules) WithDefaults() Rules {
	def := DefaultRules()
	if r.TitlePattern == "" {
		r.TitlePattern = def.TitlePattern
	}
	if r.Footer.Mode == "" {
		r.Footer.Mode = def.Footer.Mode
	}
	if r.Footer.Fraction == 0 {
		r.Footer.Fraction = def.Footer.Fraction
	}
	if len(r.Footnotes.Include) == 0 && len(r.Footnotes.Exclude) == 0 {
		r.Footnotes = def.Footnotes
	}
	return r
}

type matcher func(line string) bool

func (p Predicate) compile() (matcher, error) {
	forms := 0
	for _, v := range []string{p.Prefix, p.Contains, p.Pattern} {
		if v != "" {
			forms++
		}
	}
	if forms != 1 {
		return nil, fmt.Errorf("%w: predicate must set exactly one of prefix, contains, pattern", ErrInvalidRules)
	}

	switch {
	case p.Prefix != "":
		if p.IgnoreCase {
			prefix := strings.ToLower(p.Prefix)
			return func(s string) bool { return strings.HasPrefix(strings.ToLower(s), prefix) }, nil
		}
		prefix := p.Prefix
		return func(s string) bool { return strings.HasPrefix(s, prefix) }, nil
	case p.Contains != "":
		if p.IgnoreCase {
			sub := strings.ToLower(p.Contains)
			return func(s string) bool { return strings.Contains(strings.ToLower(s), sub) }, nil
		}
		sub := p.Contains
		return func(s string) bool { return strings.Contains(s, sub) }, nil
	default:
		expr := p.Pattern
		if p.IgnoreCase {
			expr = "(?i)" + expr
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("%w: predicate pattern %q: %v", ErrInvalidRules, p.Pattern, err)
		}
		return re.MatchString, nil
	}
}

func compileAll(preds []Predicate) ([]matcher, error) {
	out := make([]matcher, 0, len(preds))
	for _, p := range preds {
		m, err := p.compile()
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}
