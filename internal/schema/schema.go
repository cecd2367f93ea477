// Package schema derives the Question-Group schema from the export's two-row
// header block. The export spreads one logical question across a variable
// number of columns and repeats the question stem only on the first of them;
// this pass groups the columns, classifies each group's encoding, and emits a
// per-column audit log so every later transformation is traceable back to a
// raw column index.
package schema

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/civistat/embsurvey/internal/scales"
)

// Kind enumerates the encoding types a question group consolidates under.
type Kind string

const (
	KindSingleSelect   Kind = "single_select"
	KindMultiSelect    Kind = "multi_select"
	KindLikertScale    Kind = "likert_scale"
	KindFrequencyScale Kind = "frequency_scale"
	KindMatrix         Kind = "matrix"
	KindOpenText       Kind = "open_text"
	KindNumericOpen    Kind = "numeric_open"
	KindDemographic    Kind = "demographic"
)

// Group is one logical question: a contiguous column range, its ordered
// option labels, and the consolidation rule to apply.
type Group struct {
	ID       string   `json:"id"`
	Question string   `json:"question"`
	Start    int      `json:"start_col"`
	End      int      `json:"end_col"` // exclusive
	Options  []string `json:"options,omitempty"`
	Kind     Kind     `json:"kind"`
	Scale    string   `json:"scale,omitempty"`
	Field    string   `json:"field"`
	Area     string   `json:"area,omitempty"`
	// Substantive groups count toward the completion score; metadata and
	// demographic/contact groups do not.
	Substantive bool `json:"substantive"`
	// Flagged marks an ambiguous classification that defaulted to open_text
	// and needs manual column-mapping review.
	Flagged bool `json:"flagged,omitempty"`
	// PerColumn is set for open-list groups whose columns are independent
	// text fields (field_1..field_n) rather than one consolidated value.
	PerColumn bool `json:"per_column,omitempty"`
}

// Columns returns the number of raw columns the group spans.
func (g Group) Columns() int { return g.End - g.Start }

// ColumnRule records, for one raw column, which group claimed it and how its
// cells are consolidated.
type ColumnRule struct {
	Column  int    `json:"column"`
	GroupID string `json:"group_id"`
	Kind    Kind   `json:"kind"`
	Option  string `json:"option,omitempty"`
	Rule    string `json:"rule"`
}

// Schema is the derived description of one raw export's header block.
type Schema struct {
	Columns  int          `json:"columns"`
	Groups   []Group      `json:"groups"`
	Log      []ColumnRule `json:"column_log"`
	Warnings []string     `json:"warnings,omitempty"`
}

// Group returns the group with the given ID.
func (s *Schema) Group(id string) (Group, bool) {
	for _, g := range s.Groups {
		if g.ID == id {
			return g, true
		}
	}
	return Group{}, false
}

// SubstantiveCount returns how many groups count toward completion scoring.
func (s *Schema) SubstantiveCount() int {
	n := 0
	for _, g := range s.Groups {
		if g.Substantive {
			n++
		}
	}
	return n
}

// Leading export-tool metadata columns, identified by their row-0 header.
var metadataFields = map[string]string{
	"respondent id": "respondent_id",
	"collector id":  "collector_id",
	"start date":    "start_date",
	"end date":      "end_date",
	"ip address":    "ip_address",
	"email address": "email_address",
	"first name":    "first_name",
	"last name":     "last_name",
	"custom data 1": "custom_data",
	"custom data":   "custom_data",
}

var multiselectIndicators = []string{
	"select all that apply",
	"select up to",
	"select all",
	"rank top",
}

const openEndedLabel = "open-ended response"

// Derive parses the two header rows into the ordered Question-Group list.
// It is a pure function of the header rows and the lookup set: parsing the
// same headers twice yields the identical schema.
func Derive(questionRow, optionRow []string, set *scales.Set) (*Schema, error) {
	if len(questionRow) == 0 {
		return nil, fmt.Errorf("header block is empty")
	}
	if len(optionRow) != len(questionRow) {
		return nil, fmt.Errorf("header rows disagree on column count: %d questions vs %d options",
			len(questionRow), len(optionRow))
	}
	if strings.TrimSpace(questionRow[0]) == "" {
		return nil, fmt.Errorf("column 0 has no question header; cannot anchor the first group")
	}

	sch := &Schema{Columns: len(questionRow)}

	// Group contiguous columns: a non-empty row-0 cell starts a new group,
	// empty cells continue the previous one.
	type span struct {
		question string
		start    int
		end      int
	}
	var spans []span
	for i, q := range questionRow {
		q = strings.TrimSpace(q)
		if q != "" {
			spans = append(spans, span{question: q, start: i, end: i + 1})
			continue
		}
		spans[len(spans)-1].end = i + 1
	}

	seen := map[string]int{}
	for _, sp := range spans {
		opts := make([]string, 0, sp.end-sp.start)
		for i := sp.start; i < sp.end; i++ {
			if o := strings.TrimSpace(optionRow[i]); o != "" {
				opts = append(opts, o)
			}
		}
		g := classify(sp.question, sp.start, sp.end, opts, set, sch)
		// Keep generated field names unique across groups.
		if n := seen[g.Field]; n > 0 {
			g.Field = fmt.Sprintf("%s_%d", g.Field, n+1)
		}
		seen[g.Field]++
		g.ID = g.Field
		sch.Groups = append(sch.Groups, g)

		for i := sp.start; i < sp.end; i++ {
			rule := ColumnRule{Column: i, GroupID: g.ID, Kind: g.Kind, Rule: consolidationRule(g)}
			if o := strings.TrimSpace(optionRow[i]); o != "" && !strings.EqualFold(o, "Response") {
				rule.Option = o
			}
			sch.Log = append(sch.Log, rule)
		}
	}
	return sch, nil
}

func classify(question string, start, end int, opts []string, set *scales.Set, sch *Schema) Group {
	g := Group{
		Question:    question,
		Start:       start,
		End:         end,
		Options:     opts,
		Field:       slugField(question),
		Substantive: true,
	}

	// Export-tool metadata columns come first and are never substantive.
	if f, ok := metadataFields[strings.ToLower(question)]; ok {
		g.Kind = KindDemographic
		g.Field = f
		g.Substantive = false
		return g
	}

	rule, matched := set.MatchField(question)
	if matched {
		g.Field = rule.Field
		g.Area = rule.Area
		g.Scale = rule.Scale
	}

	// An explicit rule kind overrides the structural classification.
	if matched && rule.Kind != "" {
		switch rule.Kind {
		case "multi_select":
			g.Kind = KindMultiSelect
		case "matrix_prefix", "matrix_numeric":
			g.Kind = KindMatrix
		case "open_text":
			g.Kind = KindOpenText
		case "open_list":
			g.Kind = KindOpenText
			g.PerColumn = true
		case "numeric_open":
			g.Kind = KindNumericOpen
		case "demographic":
			g.Kind = KindDemographic
			g.Substantive = false
		case "single_select":
			g.Kind = KindSingleSelect
		default:
			// Unknown rule kind: fall through to structural classification.
			sch.Warnings = append(sch.Warnings,
				fmt.Sprintf("field rule %q has unknown kind %q; classifying structurally", rule.Field, rule.Kind))
			g.Kind = ""
		}
		if g.Kind != "" {
			return g
		}
	}

	structural(&g, set, sch)
	return g
}

// structural classifies a group from its column count and option labels alone.
func structural(g *Group, set *scales.Set, sch *Schema) {
	if g.Columns() == 1 {
		if len(g.Options) == 1 && strings.EqualFold(g.Options[0], openEndedLabel) {
			g.Kind = KindOpenText
			return
		}
		g.Kind = KindSingleSelect
		return
	}

	// Matrix: option labels form a topic × rating cross product
	// ("Tracking ballot movement - Very unconfident").
	if topics, ratings := crossProduct(g.Options); topics >= 2 && ratings >= 2 {
		g.Kind = KindMatrix
		if g.Scale == "" {
			if name, ok := bestScale(matrixRatings(g.Options), set); ok {
				g.Scale = name
			}
		}
		return
	}

	// Ordinal vocabulary: a single choice spread one-option-per-column.
	// A scale bound by a field rule wins over vocabulary detection.
	name, ok := g.Scale, g.Scale != ""
	if !ok {
		name, ok = bestScale(g.Options, set)
	}
	if ok {
		g.Scale = name
		switch name {
		case scales.ScaleConfidence, scales.ScaleImpact:
			g.Kind = KindLikertScale
		case scales.ScaleFrequency, scales.ScaleFrequencyIncidents:
			g.Kind = KindFrequencyScale
		default:
			g.Kind = KindSingleSelect
		}
		return
	}

	if len(g.Options) == 0 {
		// Multi-column group with no option labels at all: nothing to
		// consolidate against. Default to open_text and flag for review
		// rather than dropping the columns.
		g.Kind = KindOpenText
		g.Flagged = true
		sch.Warnings = append(sch.Warnings,
			fmt.Sprintf("ambiguous group %q (cols %d-%d): no option labels; defaulted to open_text, needs column-mapping review",
				g.Question, g.Start, g.End-1))
		return
	}

	isMulti := false
	q := strings.ToLower(g.Question)
	for _, ind := range multiselectIndicators {
		if strings.Contains(q, ind) {
			isMulti = true
			break
		}
	}
	// Multiple labelled columns with no ordinal structure read as one
	// checkbox per column even without an explicit indicator phrase.
	if isMulti || g.Columns() > 1 {
		g.Kind = KindMultiSelect
		return
	}
	g.Kind = KindSingleSelect
}

// bestScale finds the scale table that covers the most option labels.
// It requires at least two matches covering at least half the options, so a
// stray "None" in a checkbox list does not read as an ordinal vocabulary.
func bestScale(opts []string, set *scales.Set) (string, bool) {
	if len(opts) < 2 {
		return "", false
	}
	names := make([]string, 0, len(set.Scales))
	for n := range set.Scales {
		names = append(names, n)
	}
	sort.Strings(names)

	best, bestHits := "", 0
	for _, name := range names {
		sc := set.Scales[name]
		hits := 0
		for _, o := range opts {
			if _, ok := exactLabel(sc, o); ok {
				hits++
			}
		}
		if hits > bestHits {
			best, bestHits = name, hits
		}
	}
	if bestHits >= 2 && bestHits*2 >= len(opts) {
		return best, true
	}
	return "", false
}

// exactLabel is a strict fold-equality lookup, without the substring
// fallback Scale.Lookup allows for cell values.
func exactLabel(sc scales.Scale, label string) (*int, bool) {
	for l, code := range sc.Codes {
		if strings.EqualFold(l, strings.TrimSpace(label)) {
			return code, true
		}
	}
	return nil, false
}

// crossProduct counts distinct topics and ratings among "topic - rating"
// option labels.
func crossProduct(opts []string) (topics, ratings int) {
	ts := map[string]bool{}
	rs := map[string]bool{}
	for _, o := range opts {
		t, r, ok := SplitMatrixOption(o)
		if !ok {
			return 0, 0
		}
		ts[t] = true
		rs[r] = true
	}
	return len(ts), len(rs)
}

func matrixRatings(opts []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, o := range opts {
		if _, r, ok := SplitMatrixOption(o); ok && !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	return out
}

// SplitMatrixOption splits a "topic - rating" matrix label on its last
// " - " separator.
func SplitMatrixOption(opt string) (topic, rating string, ok bool) {
	i := strings.LastIndex(opt, " - ")
	if i < 0 {
		return "", "", false
	}
	topic = strings.TrimSpace(opt[:i])
	rating = strings.TrimSpace(opt[i+3:])
	if topic == "" || rating == "" {
		return "", "", false
	}
	return topic, rating, true
}

var nonWord = regexp.MustCompile(`[^a-z0-9]+`)

// slugField derives a snake_case field name from free question text.
func slugField(question string) string {
	s := strings.ToLower(strings.TrimSpace(question))
	s = nonWord.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 48 {
		s = strings.Trim(s[:48], "_")
	}
	if s == "" {
		return "question"
	}
	return s
}

// SlugTopic derives the per-topic field suffix for matrix sub-fields.
func SlugTopic(topic string) string {
	return slugField(topic)
}

func consolidationRule(g Group) string {
	switch g.Kind {
	case KindMultiSelect:
		return "collect non-empty columns into ordered option list"
	case KindLikertScale, KindFrequencyScale:
		return fmt.Sprintf("map label to code via %q scale", g.Scale)
	case KindSingleSelect:
		if g.Scale != "" {
			return fmt.Sprintf("single choice mapped to code via %q scale", g.Scale)
		}
		return "single non-empty cell passed through"
	case KindMatrix:
		if g.Scale != "" {
			return fmt.Sprintf("per-topic rating via %q scale", g.Scale)
		}
		return "per-topic numeric cell"
	case KindNumericOpen:
		return "parse cell as number"
	case KindOpenText:
		if g.PerColumn {
			return "independent text field per column"
		}
		return "trimmed text passthrough"
	case KindDemographic:
		return "metadata/demographic passthrough"
	default:
		return string(g.Kind)
	}
}
