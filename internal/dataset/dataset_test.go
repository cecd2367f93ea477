package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/civistat/embsurvey/internal/schema"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func TestReadRawCSV(t *testing.T) {
	path := writeTemp(t, "export.csv",
		"Respondent ID,Country,\n"+
			",Open-Ended Response,Extra\n"+
			"101,Kenya,x\n"+
			",,\n"+
			"102,Taiwan\n")
	raw, err := ReadRaw(path)
	if err != nil {
		t.Fatalf("ReadRaw: %v", err)
	}
	if len(raw.Questions) != 3 || len(raw.Options) != 3 {
		t.Fatalf("header width = %d/%d, want 3", len(raw.Questions), len(raw.Options))
	}
	if len(raw.Rows) != 2 {
		t.Fatalf("got %d data rows, want 2 (blank row dropped)", len(raw.Rows))
	}
	// Short rows are padded to the header width.
	if got := raw.Cell(1, 2); got != "" {
		t.Errorf("padded cell = %q, want empty", got)
	}
	if got := raw.Cell(0, 1); got != "Kenya" {
		t.Errorf("cell = %q, want Kenya", got)
	}
}

func TestReadRawSniffsTabDelimiter(t *testing.T) {
	path := writeTemp(t, "export.txt",
		"Respondent ID\tCountry, region or territory\n"+
			"\tOpen-Ended Response\n"+
			"101\tSierra Leone\n")
	raw, err := ReadRaw(path)
	if err != nil {
		t.Fatalf("ReadRaw: %v", err)
	}
	if len(raw.Questions) != 2 {
		t.Fatalf("header width = %d, want 2 (tab-delimited with embedded comma)", len(raw.Questions))
	}
	if got := raw.Cell(0, 1); got != "Sierra Leone" {
		t.Errorf("cell = %q, want Sierra Leone", got)
	}
}

func TestReadRawRejectsHeaderlessFile(t *testing.T) {
	path := writeTemp(t, "export.csv", "only one row\n")
	if _, err := ReadRaw(path); err == nil {
		t.Fatal("expected error for file without the two-row header block")
	}
}

func TestReadRawRejectsRowWiderThanHeader(t *testing.T) {
	path := writeTemp(t, "export.csv",
		"Respondent ID,Country\n"+
			",\n"+
			"101,Kenya,unexpected extra cell\n")
	_, err := ReadRaw(path)
	if err == nil {
		t.Fatal("expected error for row wider than the header block")
	}
	if !strings.Contains(err.Error(), "row 3") {
		t.Errorf("error does not name the offending row: %v", err)
	}
}

func fptr(v float64) *float64 { return &v }

func TestCleanJSONRoundTripKeepsNullStates(t *testing.T) {
	c := &Clean{
		RunID:     "run-1",
		Threshold: 0.15,
		Fields: []Field{
			{Name: "fraud_incidents", Kind: schema.KindLikertScale, Scale: "fraud_incidents"},
			{Name: "retention_impact_pay", Kind: schema.KindMatrix},
		},
		Responses: []Response{
			{
				ID:      "101",
				Country: "Kenya",
				Numbers: map[string]*float64{
					"fraud_incidents":      fptr(2),
					"retention_impact_pay": nil, // answered "Don't know"
				},
				Completion: 0.8,
			},
			{ID: "102"}, // answered nothing
		},
	}

	path := filepath.Join(t.TempDir(), "survey_clean.json")
	if err := c.WriteJSON(path); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	got, err := ReadClean(path)
	if err != nil {
		t.Fatalf("ReadClean: %v", err)
	}

	r := got.Responses[0]
	if v, answered := r.Number("fraud_incidents"); !answered || v == nil || *v != 2 {
		t.Errorf("fraud_incidents = (%v, %v), want coded 2", v, answered)
	}
	// Explicit null survives the round trip as answered-but-null.
	if v, answered := r.Number("retention_impact_pay"); !answered || v != nil {
		t.Errorf("retention_impact_pay = (%v, %v), want answered nil", v, answered)
	}
	// An unanswered field stays absent.
	if _, answered := got.Responses[1].Number("fraud_incidents"); answered {
		t.Error("unanswered field must not appear after round trip")
	}
}

func TestWriteCSV(t *testing.T) {
	c := &Clean{
		Fields: []Field{
			{Name: "fraud_incidents", Kind: schema.KindLikertScale},
			{Name: "workforce_challenges", Kind: schema.KindMultiSelect},
			{Name: "single_change_suggestion_text", Kind: schema.KindOpenText},
		},
		Responses: []Response{{
			ID:      "101",
			Country: "Kenya",
			Numbers: map[string]*float64{"fraud_incidents": fptr(3)},
			Selections: map[string][]string{
				"workforce_challenges": {"Recruitment", "Retention"},
			},
			Texts:      map[string]string{"single_change_suggestion_text": "Digital records"},
			Completion: 1,
		}},
	}
	path := filepath.Join(t.TempDir(), "survey_clean.csv")
	if err := c.WriteCSV(path); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	out := string(data)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want header + 1 row", len(lines))
	}
	if !strings.Contains(lines[0], "fraud_incidents") {
		t.Errorf("header missing field column: %q", lines[0])
	}
	if !strings.Contains(lines[1], "Recruitment; Retention") {
		t.Errorf("row missing joined selections: %q", lines[1])
	}
	if !strings.Contains(lines[1], "Digital records") {
		t.Errorf("row missing text answer: %q", lines[1])
	}
}
