package source

import (
	"reflect"
	"strings"
	"testing"
)

func TestParseHTML_HorizontalRulePages(t *testing.T) {
	input := `<html><head><title>ignored</title></head><body>
<h1>Table 1: Demographics</h1>
<p>Note: N = 3</p>
<hr>
<h2>Table 2: Vitals</h2>
<table><tr><td>Systolic</td><td>120</td></tr></table>
<script>var x = 1;</script>
</body></html>`
	doc, err := ParseHTML(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.NumPages() != 2 {
		t.Fatalf("expected 2 pages, got %d", doc.NumPages())
	}

	want1 := []string{"Table 1: Demographics", "Note: N = 3"}
	if got := pageLines(t, doc, 1); !reflect.DeepEqual(got, want1) {
		t.Errorf("page 1: expected %q, got %q", want1, got)
	}
	want2 := []string{"Table 2: Vitals", "Systolic  120"}
	if got := pageLines(t, doc, 2); !reflect.DeepEqual(got, want2) {
		t.Errorf("page 2: expected %q, got %q", want2, got)
	}
}

func TestParseHTML_CSSPageBreak(t *testing.T) {
	input := `<div style="page-break-after: always"><p>Figure 1: Survival</p></div><p>Figure 2: Hazard</p>`
	doc, err := ParseHTML(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.NumPages() != 2 {
		t.Fatalf("expected 2 pages, got %d", doc.NumPages())
	}
	if got := pageLines(t, doc, 2); len(got) != 1 || got[0] != "Figure 2: Hazard" {
		t.Errorf("unexpected page 2 %q", got)
	}
}

func TestTextLines_BreakAndInline(t *testing.T) {
	doc, err := ParseHTML(strings.NewReader(`<p>Note: <b>N</b> = 3<br>Source: ADSL</p>`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"Note: N = 3", "Source: ADSL"}
	if got := pageLines(t, doc, 1); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %q, got %q", want, got)
	}
}
