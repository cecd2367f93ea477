package schema

import (
	"reflect"
	"strings"
	"testing"

	"github.com/civistat/embsurvey/internal/scales"
)

// header builds the two-row header block from (question, options...) groups.
func header(groups ...[]string) (qs, opts []string) {
	for _, g := range groups {
		question, labels := g[0], g[1:]
		n := len(labels)
		if n == 0 {
			n = 1
		}
		for i := 0; i < n; i++ {
			if i == 0 {
				qs = append(qs, question)
			} else {
				qs = append(qs, "")
			}
			if i < len(labels) {
				opts = append(opts, labels[i])
			} else {
				opts = append(opts, "")
			}
		}
	}
	return qs, opts
}

func TestDeriveRejectsMalformedHeaders(t *testing.T) {
	set := scales.Default()

	if _, err := Derive(nil, nil, set); err == nil {
		t.Fatal("expected error for an empty header block")
	}
	if _, err := Derive([]string{"Q1", ""}, []string{"a"}, set); err == nil {
		t.Fatal("expected error for mismatched header row lengths")
	}
	if _, err := Derive([]string{"", "Q1"}, []string{"", "a"}, set); err == nil {
		t.Fatal("expected error when column 0 has no question header")
	}
}

func TestDeriveMetadataColumns(t *testing.T) {
	qs, opts := header(
		[]string{"Respondent ID"},
		[]string{"Collector ID"},
		[]string{"Start Date"},
		[]string{"End Date"},
		[]string{"IP Address"},
		[]string{"Email Address"},
		[]string{"First Name"},
		[]string{"Last Name"},
	)
	sch, err := Derive(qs, opts, scales.Default())
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	if len(sch.Groups) != 8 {
		t.Fatalf("got %d groups, want 8", len(sch.Groups))
	}
	for _, g := range sch.Groups {
		if g.Kind != KindDemographic {
			t.Errorf("%s: kind = %s, want demographic", g.Question, g.Kind)
		}
		if g.Substantive {
			t.Errorf("%s: metadata column must not count toward completion", g.Question)
		}
	}
	if got := sch.Groups[0].Field; got != "respondent_id" {
		t.Errorf("field = %q, want respondent_id", got)
	}
	if n := sch.SubstantiveCount(); n != 0 {
		t.Errorf("SubstantiveCount = %d, want 0", n)
	}
}

func TestDeriveClassifiesScaleSpreadColumns(t *testing.T) {
	qs, opts := header(
		[]string{"Respondent ID"},
		[]string{
			"How confident are you in your training record system?",
			"Very unconfident", "Unconfident", "Neutral", "Confident", "Very Confident",
		},
	)
	sch, err := Derive(qs, opts, scales.Default())
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	g := sch.Groups[1]
	if g.Kind != KindLikertScale {
		t.Fatalf("kind = %s, want likert_scale", g.Kind)
	}
	if g.Scale != scales.ScaleConfidence {
		t.Errorf("scale = %q, want %q", g.Scale, scales.ScaleConfidence)
	}
	if g.Field != "training_system_confidence" {
		t.Errorf("field = %q, want training_system_confidence", g.Field)
	}
	if !g.Substantive {
		t.Error("scale question must count toward completion")
	}
}

func TestDeriveClassifiesFrequencyScale(t *testing.T) {
	qs, opts := header([]string{
		"How often do you need to verify whether a worker completed training?",
		"Never",
		"Rarely (1-5 times per election)",
		"Sometimes (6-20 times per election)",
		"Often (21-50 times per election)",
		"Very often (more than 50 times per election)",
	})
	sch, err := Derive(qs, opts, scales.Default())
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	if g := sch.Groups[0]; g.Kind != KindFrequencyScale || g.Scale != scales.ScaleFrequency {
		t.Fatalf("got kind=%s scale=%q, want frequency_scale/%s", g.Kind, g.Scale, scales.ScaleFrequency)
	}
}

func TestDeriveClassifiesMultiSelect(t *testing.T) {
	qs, opts := header([]string{
		"What are your biggest challenges in managing temporary workers? (Select all that apply)",
		"Recruitment", "Training logistics", "Payment processing", "Retention", "None",
	})
	sch, err := Derive(qs, opts, scales.Default())
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	g := sch.Groups[0]
	if g.Kind != KindMultiSelect {
		t.Fatalf("kind = %s, want multi_select", g.Kind)
	}
	if g.Field != "workforce_challenges" {
		t.Errorf("field = %q, want workforce_challenges", g.Field)
	}
}

func TestDeriveClassifiesMatrix(t *testing.T) {
	qs, opts := header([]string{
		"Rate your confidence in your documentation for each process:",
		"Ballot custody - Very unconfident",
		"Ballot custody - Neutral",
		"Ballot custody - Very Confident",
		"Seal verification - Very unconfident",
		"Seal verification - Neutral",
		"Seal verification - Very Confident",
	})
	sch, err := Derive(qs, opts, scales.Default())
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	g := sch.Groups[0]
	if g.Kind != KindMatrix {
		t.Fatalf("kind = %s, want matrix", g.Kind)
	}
	if g.Scale != scales.ScaleConfidence {
		t.Errorf("scale = %q, want %q", g.Scale, scales.ScaleConfidence)
	}
	if g.Field != "doc_confidence" {
		t.Errorf("field = %q, want doc_confidence", g.Field)
	}
}

func TestDeriveOpenEndedAndNumeric(t *testing.T) {
	qs, opts := header(
		[]string{"If you could make one change to improve your systems, what would it be?", "Open-Ended Response"},
		[]string{"Approximate number of temporary workers per election:", "Open-Ended Response"},
	)
	sch, err := Derive(qs, opts, scales.Default())
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	if g := sch.Groups[0]; g.Kind != KindOpenText {
		t.Errorf("kind = %s, want open_text", g.Kind)
	}
	if g := sch.Groups[1]; g.Kind != KindNumericOpen {
		t.Errorf("kind = %s, want numeric_open", g.Kind)
	}
}

func TestDeriveFlagsAmbiguousGroups(t *testing.T) {
	qs := []string{"Some unlabeled block", "", ""}
	opts := []string{"", "", ""}
	sch, err := Derive(qs, opts, scales.Default())
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	g := sch.Groups[0]
	if g.Kind != KindOpenText || !g.Flagged {
		t.Fatalf("got kind=%s flagged=%v, want flagged open_text", g.Kind, g.Flagged)
	}
	if len(sch.Warnings) == 0 || !strings.Contains(sch.Warnings[0], "ambiguous") {
		t.Errorf("expected an ambiguity warning, got %v", sch.Warnings)
	}
}

func TestDeriveColumnCoverage(t *testing.T) {
	qs, opts := header(
		[]string{"Respondent ID"},
		[]string{"In which country/jurisdiction is your organisation based?", "Open-Ended Response"},
		[]string{
			"How often do you discover fraudulent credentials?",
			"None", "1-5 incidents", "6-10 incidents", "11-20 incidents", "More than 20 incidents",
		},
		[]string{"What concerns about implementing new systems do you have?", "Open-Ended Response"},
	)
	sch, err := Derive(qs, opts, scales.Default())
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	if len(sch.Log) != len(qs) {
		t.Fatalf("column log covers %d columns, want %d", len(sch.Log), len(qs))
	}
	claimed := make(map[int]string)
	for _, r := range sch.Log {
		if prev, dup := claimed[r.Column]; dup {
			t.Fatalf("column %d claimed by both %s and %s", r.Column, prev, r.GroupID)
		}
		claimed[r.Column] = r.GroupID
	}
	for i := range qs {
		if _, ok := claimed[i]; !ok {
			t.Errorf("column %d belongs to no group", i)
		}
	}
}

func TestDeriveIsDeterministic(t *testing.T) {
	qs, opts := header(
		[]string{"Respondent ID"},
		[]string{
			"How often do you discover fraudulent credentials?",
			"None", "1-5 incidents", "6-10 incidents", "11-20 incidents", "More than 20 incidents",
		},
		[]string{"What concerns about implementing new systems do you have?", "Open-Ended Response"},
	)
	set := scales.Default()
	a, err := Derive(qs, opts, set)
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	b, err := Derive(qs, opts, set)
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("deriving the same headers twice produced different schemas")
	}
}

func TestDeriveUniqueFieldNames(t *testing.T) {
	qs, opts := header(
		[]string{"Additional comments", "Open-Ended Response"},
		[]string{"Additional comments", "Open-Ended Response"},
	)
	sch, err := Derive(qs, opts, scales.Default())
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	if sch.Groups[0].Field == sch.Groups[1].Field {
		t.Fatalf("duplicate field name %q", sch.Groups[0].Field)
	}
}

func TestSplitMatrixOption(t *testing.T) {
	cases := []struct {
		in            string
		topic, rating string
		ok            bool
	}{
		{"Ballot custody - Very unconfident", "Ballot custody", "Very unconfident", true},
		{"Check-in - day of election - Neutral", "Check-in - day of election", "Neutral", true},
		{"No separator here", "", "", false},
		{" - Neutral", "", "", false},
	}
	for _, c := range cases {
		topic, rating, ok := SplitMatrixOption(c.in)
		if topic != c.topic || rating != c.rating || ok != c.ok {
			t.Errorf("SplitMatrixOption(%q) = (%q, %q, %v), want (%q, %q, %v)",
				c.in, topic, rating, ok, c.topic, c.rating, c.ok)
		}
	}
}
