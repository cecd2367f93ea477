package consolidate

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/civistat/embsurvey/internal/dataset"
	"github.com/civistat/embsurvey/internal/scales"
	"github.com/civistat/embsurvey/internal/schema"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fixtureRaw builds a small export exercising one group of each kind.
func fixtureRaw() *dataset.Raw {
	questions := []string{
		"Respondent ID",
		"In which country/jurisdiction is your organisation based?",
		"How often do you discover fraudulent credentials?", "", "", "", "",
		"Rate your confidence in your documentation for each process:", "",
		"Approximate number of temporary workers per election:",
		"What are your biggest challenges in managing temporary workers?", "", "",
	}
	options := []string{
		"",
		"Open-Ended Response",
		"None", "1-5 incidents", "6-10 incidents", "11-20 incidents", "More than 20 incidents",
		"Ballot custody - Very unconfident", "Ballot custody - Very Confident",
		"Open-Ended Response",
		"Recruitment", "Payment processing", "Retention",
	}
	rows := [][]string{
		{
			"101", "Kenya",
			"", "", "6-10 incidents", "", "",
			"", "Ballot custody - Very Confident",
			"about 2,000 people",
			"Recruitment", "", "Retention",
		},
		{
			"102", "TAIWAN",
			"", "", "", "", "",
			"", "",
			"",
			"", "", "",
		},
	}
	return &dataset.Raw{Questions: questions, Options: options, Rows: rows}
}

func deriveFixture(t *testing.T, raw *dataset.Raw, set *scales.Set) *schema.Schema {
	t.Helper()
	sch, err := schema.Derive(raw.Questions, raw.Options, set)
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	return sch
}

func TestRunConsolidatesEachKind(t *testing.T) {
	raw := fixtureRaw()
	set := scales.Default()
	sch := deriveFixture(t, raw, set)

	res, err := Run(raw, sch, set, Options{Threshold: -1, Logger: quietLogger()})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.All) != 2 {
		t.Fatalf("got %d responses, want 2", len(res.All))
	}

	r := res.All[0]
	if r.ID != "101" || r.Country != "Kenya" || r.Region != scales.RegionAfrica {
		t.Errorf("metadata = %q/%q/%q, want 101/Kenya/Africa", r.ID, r.Country, r.Region)
	}
	if v, ok := r.Number("fraud_incidents"); !ok || v == nil || *v != 2 {
		t.Errorf("fraud_incidents = %v, want 2", v)
	}
	if v, ok := r.Number("doc_confidence_ballot_custody"); !ok || v == nil || *v != 5 {
		t.Errorf("doc_confidence_ballot_custody = %v, want 5", v)
	}
	if v, ok := r.Number("temp_workers_count"); !ok || v == nil || *v != 2000 {
		t.Errorf("temp_workers_count = %v, want 2000", v)
	}
	sel := r.Selections["workforce_challenges"]
	if len(sel) != 2 || sel[0] != "Recruitment" || sel[1] != "Retention" {
		t.Errorf("workforce_challenges = %v, want [Recruitment Retention]", sel)
	}

	// Country aliases apply to the second respondent.
	if res.All[1].Country != "Taiwan" || res.All[1].Region != scales.RegionAsiaPacific {
		t.Errorf("alias cleanup = %q/%q, want Taiwan/Asia-Pacific", res.All[1].Country, res.All[1].Region)
	}
}

func TestRunAppliesCompletionFilter(t *testing.T) {
	raw := fixtureRaw()
	set := scales.Default()
	sch := deriveFixture(t, raw, set)

	res, err := Run(raw, sch, set, Options{Logger: quietLogger()})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Clean.Threshold != DefaultThreshold {
		t.Errorf("threshold = %v, want default %v", res.Clean.Threshold, DefaultThreshold)
	}
	// Respondent 102 answered nothing substantive.
	if len(res.Clean.Responses) != 1 || res.Clean.Excluded != 1 {
		t.Fatalf("kept %d / excluded %d, want 1/1", len(res.Clean.Responses), res.Clean.Excluded)
	}
	if res.Clean.Responses[0].ID != "101" {
		t.Errorf("kept %s, want 101", res.Clean.Responses[0].ID)
	}
	// The unfiltered list still has both.
	if len(res.All) != 2 {
		t.Errorf("All has %d responses, want 2", len(res.All))
	}
	if got := res.All[0].Completion; got != 1 {
		t.Errorf("completion = %v, want 1 (all 4 substantive groups answered)", got)
	}
	if got := res.All[1].Completion; got != 0 {
		t.Errorf("completion = %v, want 0", got)
	}
}

func TestNullAnswerDoesNotCountTowardCompletion(t *testing.T) {
	raw := &dataset.Raw{
		Questions: []string{
			"Respondent ID",
			"What impact would better tools have on worker retention?", "",
		},
		Options: []string{
			"",
			"Pay transparency - Don't know", "Pay transparency - Significant impact (3)",
		},
		Rows: [][]string{
			{"201", "Pay transparency - Don't know", ""},
			{"202", "", "Pay transparency - Significant impact (3)"},
		},
	}
	set := scales.Default()
	sch := deriveFixture(t, raw, set)

	res, err := Run(raw, sch, set, Options{Threshold: -1, Logger: quietLogger()})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	r := res.All[0]
	// The answer is recorded as an explicit null.
	if v, answered := r.Number("retention_impact_pay_transparency"); !answered || v != nil {
		t.Errorf("null answer = (%v, %v), want answered nil", v, answered)
	}
	// But it does not count as a substantive answer.
	if r.Completion != 0 {
		t.Errorf("completion = %v, want 0 for a lone Don't-know answer", r.Completion)
	}
	if got := res.All[1].Completion; got != 1 {
		t.Errorf("completion = %v, want 1 for a coded answer", got)
	}
}

func TestUnrecognizedScaleLabelBecomesNull(t *testing.T) {
	raw := &dataset.Raw{
		Questions: []string{
			"Respondent ID",
			"How often do you discover fraudulent credentials?", "", "", "", "",
		},
		Options: []string{
			"",
			"None", "1-5 incidents", "6-10 incidents", "11-20 incidents", "More than 20 incidents",
		},
		Rows: [][]string{
			{"301", "", "", "loads of them", "", ""},
		},
	}
	set := scales.Default()
	sch := deriveFixture(t, raw, set)

	res, err := Run(raw, sch, set, Options{Threshold: -1, Logger: quietLogger()})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	r := res.All[0]
	// The answer is acknowledged but its value is null, never the raw text.
	if v, answered := r.Number("fraud_incidents"); !answered || v != nil {
		t.Errorf("unrecognized label = (%v, %v), want answered nil", v, answered)
	}
	if txt, ok := r.Texts["fraud_incidents"]; ok {
		t.Errorf("text %q kept for a coded field, want none", txt)
	}
	if r.Completion != 0 {
		t.Errorf("completion = %v, want 0", r.Completion)
	}
	found := false
	for _, w := range res.Warnings {
		if strings.Contains(w, "loads of them") && strings.Contains(w, "null") {
			found = true
		}
	}
	if !found {
		t.Errorf("warnings = %v, want one naming the unrecognized label", res.Warnings)
	}
}

func TestCompletionGrowsWithAnsweredGroups(t *testing.T) {
	raw := fixtureRaw()
	// Each row answers a strict superset of the groups the row before it
	// answered; completion scores must never decrease along the sequence.
	raw.Rows = [][]string{
		{"401", "Kenya", "", "", "", "", "", "", "", "", "", "", ""},
		{"402", "Kenya", "", "1-5 incidents", "", "", "", "", "", "", "", "", ""},
		{"403", "Kenya", "", "1-5 incidents", "", "", "", "", "Ballot custody - Very Confident", "", "", "", ""},
		{"404", "Kenya", "", "1-5 incidents", "", "", "", "", "Ballot custody - Very Confident", "500", "", "", ""},
		{"405", "Kenya", "", "1-5 incidents", "", "", "", "", "Ballot custody - Very Confident", "500", "Recruitment", "", ""},
	}
	set := scales.Default()
	sch := deriveFixture(t, raw, set)

	res, err := Run(raw, sch, set, Options{Threshold: -1, Logger: quietLogger()})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.All) != len(raw.Rows) {
		t.Fatalf("got %d responses, want %d", len(res.All), len(raw.Rows))
	}
	for i := 1; i < len(res.All); i++ {
		prev, cur := res.All[i-1], res.All[i]
		if cur.Completion < prev.Completion {
			t.Errorf("completion dropped from %v (%s) to %v (%s) despite more answers",
				prev.Completion, prev.ID, cur.Completion, cur.ID)
		}
	}
	if first, last := res.All[0].Completion, res.All[len(res.All)-1].Completion; first != 0 || last != 1 {
		t.Errorf("completion range = %v..%v, want 0..1", first, last)
	}
}

func TestRunGeneratesMissingRespondentID(t *testing.T) {
	raw := &dataset.Raw{
		Questions: []string{"Respondent ID", "Any other comments?"},
		Options:   []string{"", "Open-Ended Response"},
		Rows:      [][]string{{"", "All good"}},
	}
	set := scales.Default()
	sch := deriveFixture(t, raw, set)

	res, err := Run(raw, sch, set, Options{Threshold: -1, Logger: quietLogger()})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if id := res.All[0].ID; !strings.HasPrefix(id, "gen-") {
		t.Errorf("ID = %q, want generated gen- prefix", id)
	}
	found := false
	for _, w := range res.Warnings {
		if strings.Contains(w, "respondent ID") {
			found = true
		}
	}
	if !found {
		t.Error("expected a warning about the generated respondent ID")
	}
}

func TestRunRejectsSchemaWidthMismatch(t *testing.T) {
	raw := fixtureRaw()
	set := scales.Default()
	sch := deriveFixture(t, raw, set)
	raw.Questions = raw.Questions[:4]

	if _, err := Run(raw, sch, set, Options{Logger: quietLogger()}); err == nil {
		t.Fatal("expected error for schema/export column mismatch")
	}
}

func TestParseNumber(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"2000", 2000, true},
		{"2,000", 2000, true},
		{"about 2,000 people", 2000, true},
		{"~150", 150, true},
		{"100-150", 100, true},
		{"varies a lot", 0, false},
		{"", 0, false},
	}
	for _, c := range cases {
		got, ok := parseNumber(c.in)
		if got != c.want || ok != c.ok {
			t.Errorf("parseNumber(%q) = (%v, %v), want (%v, %v)", c.in, got, ok, c.want, c.ok)
		}
	}
}
