package source

import (
	"reflect"
	"strings"
	"testing"
)

func TestParseMarkdown_ThematicBreakPages(t *testing.T) {
	input := `Table 1: Demographics

Age 34

Note: N = 3

---

Table 2: Vitals

- Systolic
- Diastolic
`
	doc, err := ParseMarkdown(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.NumPages() != 2 {
		t.Fatalf("expected 2 pages, got %d", doc.NumPages())
	}

	want1 := []string{"Table 1: Demographics", "Age 34", "Note: N = 3"}
	if got := pageLines(t, doc, 1); !reflect.DeepEqual(got, want1) {
		t.Errorf("page 1: expected %q, got %q", want1, got)
	}
	want2 := []string{"Table 2: Vitals", "Systolic", "Diastolic"}
	if got := pageLines(t, doc, 2); !reflect.DeepEqual(got, want2) {
		t.Errorf("page 2: expected %q, got %q", want2, got)
	}
}

func TestParseMarkdown_NoBreak(t *testing.T) {
	doc, err := ParseMarkdown(strings.NewReader("Just one paragraph.\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.NumPages() != 1 {
		t.Errorf("expected 1 page, got %d", doc.NumPages())
	}
}
