package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/dgallion1/tflextract/internal/classify"
)

func TestParseRules_PartialFileKeepsDefaults(t *testing.T) {
	r, err := ParseRules([]byte("footer:\n  fraction: 0.75\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	def := classify.DefaultRules()
	if r.Footer.Fraction != 0.75 {
		t.Errorf("expected fraction 0.75, got %v", r.Footer.Fraction)
	}
	if r.Footer.Mode != def.Footer.Mode || r.TitlePattern != def.TitlePattern {
		t.Errorf("expected defaults for unset fields, got %+v", r)
	}
	if !reflect.DeepEqual(r.Footnotes, def.Footnotes) {
		t.Errorf("expected default predicates, got %+v", r.Footnotes)
	}
}

func TestParseRules_Predicates(t *testing.T) {
	input := `
title_pattern: '^Exhibit\s+\d+:'
footnotes:
  include:
    - prefix: "Source:"
    - pattern: '^\[\d+\]'
  exclude: []
`
	r, err := ParseRules([]byte(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.TitlePattern != `^Exhibit\s+\d+:` {
		t.Errorf("unexpected title pattern %q", r.TitlePattern)
	}
	want := []classify.Predicate{{Prefix: "Source:"}, {Pattern: `^\[\d+\]`}}
	if !reflect.DeepEqual(r.Footnotes.Include, want) {
		t.Errorf("expected %+v, got %+v", want, r.Footnotes.Include)
	}
	if len(r.Footnotes.Exclude) != 0 {
		t.Errorf("expected no exclusions, got %+v", r.Footnotes.Exclude)
	}
}

func TestParseRules_Empty(t *testing.T) {
	r, err := ParseRules(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(r, classify.DefaultRules()) {
		t.Errorf("expected default rules, got %+v", r)
	}
}

func TestParseRules_Malformed(t *testing.T) {
	for _, input := range []string{"title_patern: x\n", "footer: [1, 2\n"} {
		if _, err := ParseRules([]byte(input)); !errors.Is(err, ErrRulesMalformed) {
			t.Errorf("%q: expected ErrRulesMalformed, got %v", input, err)
		}
	}
}

func TestLoadRulesFile_Missing(t *testing.T) {
	_, err := LoadRulesFile(filepath.Join(t.TempDir(), "rules.yaml"))
	if !errors.Is(err, ErrRulesNotFound) {
		t.Errorf("expected ErrRulesNotFound, got %v", err)
	}
}

func TestFindRulesFile_Precedence(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(filepath.Join(dir, LocalRulesFile), []byte("{}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if got := FindRulesFile("flag.yaml", "env.yaml"); got != "flag.yaml" {
		t.Errorf("expected flag path, got %q", got)
	}
	if got := FindRulesFile("", "env.yaml"); got != "env.yaml" {
		t.Errorf("expected env path, got %q", got)
	}
	if got := FindRulesFile("", ""); filepath.Base(got) != LocalRulesFile {
		t.Errorf("expected local rules file, got %q", got)
	}
}

func TestResolveRules_ExplicitMissing(t *testing.T) {
	_, path, err := ResolveRules(filepath.Join(t.TempDir(), "nope.yaml"), "")
	if !errors.Is(err, ErrRulesNotFound) {
		t.Errorf("expected ErrRulesNotFound, got %v", err)
	}
	if path == "" {
		t.Error("expected path to be reported")
	}
}

func TestMarshalRules_ReadsBack(t *testing.T) {
	data, err := MarshalRules(classify.DefaultRules())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), "title_pattern:") {
		t.Errorf("expected title_pattern key, got:\n%s", data)
	}
	r, err := ParseRules(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !reflect.DeepEqual(r, classify.DefaultRules()) {
		t.Errorf("expected default rules back, got %+v", r)
	}
}

func TestUserRulesFile(t *testing.T) {
	if got := UserRulesFile(); !strings.HasSuffix(got, filepath.Join(AppName, "rules.yaml")) {
		t.Errorf("unexpected user rules path %q", got)
	}
}
