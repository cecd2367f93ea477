package qualitative

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/civistat/embsurvey/internal/dataset"
	"github.com/civistat/embsurvey/internal/schema"
)

func TestCollect(t *testing.T) {
	c := &dataset.Clean{
		RunID: "run-1",
		Fields: []dataset.Field{
			{Name: "single_change_suggestion_text", Kind: schema.KindOpenText, Question: "One change?"},
			{Name: "implementation_concerns_text", Kind: schema.KindOpenText},
			{Name: "fraud_incidents", Kind: schema.KindLikertScale},
		},
		Responses: []dataset.Response{
			{
				ID: "101", Country: "Kenya",
				Texts: map[string]string{
					"single_change_suggestion_text": "Digital records",
					"implementation_concerns_text":  "   ",
				},
			},
			{
				ID:    "102",
				Texts: map[string]string{"single_change_suggestion_text": "Better connectivity"},
			},
		},
	}

	ex := Collect(c)
	if ex.Count != 2 {
		t.Errorf("count = %d, want 2 (whitespace answer dropped)", ex.Count)
	}
	if len(ex.Groups) != 1 {
		t.Fatalf("got %d groups, want 1 (unanswered and non-text fields omitted)", len(ex.Groups))
	}
	g := ex.Groups[0]
	if g.Field != "single_change_suggestion_text" || g.Question != "One change?" {
		t.Errorf("group = %s/%q", g.Field, g.Question)
	}
	if len(g.Entries) != 2 || g.Entries[0].Respondent != "101" || g.Entries[0].Text != "Digital records" {
		t.Errorf("entries = %+v", g.Entries)
	}
}

func TestImportThemes(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "themes.json")
	dest := filepath.Join(dir, "qualitative_themes.json")
	doc := `{"themes":[{"name":"Connectivity gaps","quotes":["Better connectivity"]}]}`
	if err := os.WriteFile(src, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := ImportThemes(src, dest); err != nil {
		t.Fatalf("ImportThemes: %v", err)
	}
	copied, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	// The file is copied byte for byte, never rewritten.
	if string(copied) != doc {
		t.Errorf("copied file differs from source: %s", copied)
	}
}

func TestImportThemesRejectsBadShape(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "out.json")
	cases := map[string]string{
		"not JSON":    `themes: []`,
		"no themes":   `{"themes":[]}`,
		"nameless":    `{"themes":[{"quotes":["x"]}]}`,
		"wrong shape": `{"themes":"many"}`,
	}
	for label, doc := range cases {
		src := filepath.Join(dir, label+".json")
		if err := os.WriteFile(src, []byte(doc), 0o644); err != nil {
			t.Fatal(err)
		}
		if err := ImportThemes(src, dest); err == nil {
			t.Errorf("%s: expected error", label)
		}
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Error("invalid input must not produce an output file")
	}
}
