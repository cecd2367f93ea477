// Package explore computes descriptive statistics over the clean dataset:
// per-field distributions and means grouped by survey area, plus a
// missing-data analysis. It reads only the persisted clean dataset, never the
// raw export.
package explore

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/civistat/embsurvey/internal/dataset"
	"github.com/civistat/embsurvey/internal/scales"
	"github.com/civistat/embsurvey/internal/schema"
)

// OptionCount is one option's tally in a distribution. Options nobody picked
// are reported with a zero count rather than omitted.
type OptionCount struct {
	Label string `json:"label"`
	Code  *int   `json:"code,omitempty"`
	Count int    `json:"count"`
}

// NumericStat summarizes one coded field.
type NumericStat struct {
	Field    string `json:"field"`
	Question string `json:"question,omitempty"`
	Scale    string `json:"scale,omitempty"`
	// Count is the number of coded answers. Nulls counts explicit
	// "Don't know" answers; Missing counts respondents who skipped the
	// question. The three always sum to the response count.
	Count   int `json:"count"`
	Nulls   int `json:"nulls"`
	Missing int `json:"missing"`
	// Mean is nil when no respondent gave a coded answer. A null mean is
	// never reported as zero.
	Mean         *float64      `json:"mean"`
	Median       *float64      `json:"median,omitempty"`
	Std          *float64      `json:"std,omitempty"`
	Min          *float64      `json:"min,omitempty"`
	Max          *float64      `json:"max,omitempty"`
	Distribution []OptionCount `json:"distribution,omitempty"`
}

// MultiStat summarizes one multi-select field.
type MultiStat struct {
	Field    string `json:"field"`
	Question string `json:"question,omitempty"`
	// Responses is how many respondents picked at least one option.
	Responses       int           `json:"responses"`
	TotalSelections int           `json:"total_selections"`
	AvgSelections   float64       `json:"avg_selections_per_response"`
	Options         []OptionCount `json:"options"`
	// Other collects free-text answers that matched no known option.
	Other []string `json:"other,omitempty"`
}

// CategoricalStat summarizes an uncoded single-select field: a count per
// distinct answer text, most common first.
type CategoricalStat struct {
	Field        string        `json:"field"`
	Question     string        `json:"question,omitempty"`
	Count        int           `json:"count"`
	Missing      int           `json:"missing"`
	Distribution []OptionCount `json:"distribution"`
}

// Section groups a survey area's statistics.
type Section struct {
	Area        string            `json:"area"`
	Numeric     []NumericStat     `json:"numeric,omitempty"`
	Categorical []CategoricalStat `json:"categorical,omitempty"`
	Multi       []MultiStat       `json:"multi_select,omitempty"`
}

// Countries lists where the responses came from.
type Countries struct {
	UniqueCount int      `json:"unique_count"`
	List        []string `json:"list"`
}

// CompletionStats describes the completion-score distribution.
type CompletionStats struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Std    float64 `json:"std"`
}

// Summary is the exploratory-stage output.
type Summary struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`

	Responses  int             `json:"total_responses"`
	Countries  Countries       `json:"countries"`
	Regions    map[string]int  `json:"regions"`
	Completion CompletionStats `json:"completion"`
	// Followup tallies the follow-up question's answers verbatim, one count
	// per distinct answer.
	Followup         map[string]int `json:"followup_willing"`
	EarliestResponse string         `json:"earliest_response,omitempty"`
	LatestResponse   string         `json:"latest_response,omitempty"`

	Sections []Section `json:"sections"`
}

// generalArea collects fields with no survey-area binding.
const generalArea = "general"

// Summarize computes the full exploratory summary.
func Summarize(c *dataset.Clean, set *scales.Set) *Summary {
	s := &Summary{
		RunID:       c.RunID,
		GeneratedAt: time.Now().UTC(),
		Responses:   len(c.Responses),
		Regions:     make(map[string]int),
		Followup:    make(map[string]int),
	}

	countries := map[string]bool{}
	var completions []float64
	var earliest, latest time.Time
	for i := range c.Responses {
		r := &c.Responses[i]
		if r.Country != "" {
			countries[r.Country] = true
		}
		if r.Region != "" {
			s.Regions[r.Region]++
		}
		completions = append(completions, r.Completion)
		if txt, ok := r.Texts["followup_willing"]; ok {
			s.Followup[strings.TrimSpace(txt)]++
		}
		if ts, ok := parseStamp(r.StartDate); ok {
			if earliest.IsZero() || ts.Before(earliest) {
				earliest = ts
			}
			if latest.IsZero() || ts.After(latest) {
				latest = ts
			}
		}
	}
	s.Countries.UniqueCount = len(countries)
	for name := range countries {
		s.Countries.List = append(s.Countries.List, name)
	}
	sort.Strings(s.Countries.List)
	s.Completion = completionStats(completions)
	if !earliest.IsZero() {
		s.EarliestResponse = earliest.Format("2006-01-02")
		s.LatestResponse = latest.Format("2006-01-02")
	}

	sections := map[string]*Section{}
	order := []string{}
	section := func(area string) *Section {
		if area == "" {
			area = generalArea
		}
		if sec, ok := sections[area]; ok {
			return sec
		}
		sec := &Section{Area: area}
		sections[area] = sec
		order = append(order, area)
		return sec
	}

	for _, f := range c.Fields {
		switch f.Kind {
		case schema.KindLikertScale, schema.KindFrequencyScale,
			schema.KindSingleSelect, schema.KindMatrix, schema.KindNumericOpen:
			if f.Kind == schema.KindSingleSelect && f.Scale == "" {
				// Uncoded single selects get a plain answer-text tally.
				sec := section(f.Area)
				sec.Categorical = append(sec.Categorical, categoricalStat(c, f))
				continue
			}
			sec := section(f.Area)
			sec.Numeric = append(sec.Numeric, numericStat(c, f, set))
		case schema.KindMultiSelect:
			sec := section(f.Area)
			sec.Multi = append(sec.Multi, multiStat(c, f))
		}
	}

	// Report areas in their canonical survey order, trailing extras after.
	rank := map[string]int{}
	for i, a := range scales.Areas() {
		rank[a] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		ri, iok := rank[order[i]]
		rj, jok := rank[order[j]]
		switch {
		case iok && jok:
			return ri < rj
		case iok:
			return true
		case jok:
			return false
		}
		return false
	})
	for _, a := range order {
		s.Sections = append(s.Sections, *sections[a])
	}
	return s
}

func numericStat(c *dataset.Clean, f dataset.Field, set *scales.Set) NumericStat {
	st := NumericStat{Field: f.Name, Question: f.Question, Scale: f.Scale}

	var sum float64
	var values []float64
	counts := map[float64]int{}
	for i := range c.Responses {
		v, answered := c.Responses[i].Number(f.Name)
		switch {
		case !answered:
			st.Missing++
		case v == nil:
			st.Nulls++
		default:
			st.Count++
			sum += *v
			values = append(values, *v)
			counts[*v]++
			if st.Min == nil || *v < *st.Min {
				st.Min = cloneFloat(*v)
			}
			if st.Max == nil || *v > *st.Max {
				st.Max = cloneFloat(*v)
			}
		}
	}
	if st.Count > 0 {
		mean := sum / float64(st.Count)
		st.Mean = cloneFloat(mean)
		sort.Float64s(values)
		mid := len(values) / 2
		if len(values)%2 == 1 {
			st.Median = cloneFloat(values[mid])
		} else {
			st.Median = cloneFloat((values[mid-1] + values[mid]) / 2)
		}
		var sq float64
		for _, v := range values {
			sq += (v - mean) * (v - mean)
		}
		st.Std = cloneFloat(math.Sqrt(sq / float64(st.Count)))
	}

	// Scaled fields report the full option distribution, zero counts
	// included, with the null label last.
	if sc, ok := set.Scale(f.Scale); ok {
		for _, label := range sc.OrderedLabels() {
			oc := OptionCount{Label: label}
			if code, _ := sc.Lookup(label); code != nil {
				oc.Code = code
				oc.Count = counts[float64(*code)]
			} else {
				oc.Count = st.Nulls
			}
			st.Distribution = append(st.Distribution, oc)
		}
	}
	return st
}

func categoricalStat(c *dataset.Clean, f dataset.Field) CategoricalStat {
	st := CategoricalStat{Field: f.Name, Question: f.Question}

	counts := map[string]int{}
	for i := range c.Responses {
		v := strings.TrimSpace(c.Responses[i].Texts[f.Name])
		if v == "" {
			st.Missing++
			continue
		}
		st.Count++
		counts[v]++
	}

	// Declared options lead in survey order, zero counts included; answers
	// outside the option list follow by count.
	seen := map[string]bool{}
	for _, o := range f.Options {
		st.Distribution = append(st.Distribution, OptionCount{Label: o, Count: counts[o]})
		seen[o] = true
	}
	var extras []string
	for v := range counts {
		if !seen[v] {
			extras = append(extras, v)
		}
	}
	sort.Slice(extras, func(i, j int) bool {
		if counts[extras[i]] != counts[extras[j]] {
			return counts[extras[i]] > counts[extras[j]]
		}
		return extras[i] < extras[j]
	})
	for _, v := range extras {
		st.Distribution = append(st.Distribution, OptionCount{Label: v, Count: counts[v]})
	}
	return st
}

func completionStats(values []float64) CompletionStats {
	if len(values) == 0 {
		return CompletionStats{}
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	mean := sum / float64(len(sorted))

	mid := len(sorted) / 2
	median := sorted[mid]
	if len(sorted)%2 == 0 {
		median = (sorted[mid-1] + sorted[mid]) / 2
	}

	var sq float64
	for _, v := range sorted {
		sq += (v - mean) * (v - mean)
	}

	return CompletionStats{
		Mean:   mean,
		Median: median,
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Std:    math.Sqrt(sq / float64(len(sorted))),
	}
}

func multiStat(c *dataset.Clean, f dataset.Field) MultiStat {
	st := MultiStat{Field: f.Name, Question: f.Question}

	known := map[string]int{}
	for _, o := range f.Options {
		known[o] = 0
	}
	for i := range c.Responses {
		sel := c.Responses[i].Selections[f.Name]
		if len(sel) == 0 {
			continue
		}
		st.Responses++
		st.TotalSelections += len(sel)
		for _, pick := range sel {
			if _, ok := known[pick]; ok {
				known[pick]++
			} else {
				st.Other = append(st.Other, pick)
			}
		}
	}
	if st.Responses > 0 {
		st.AvgSelections = float64(st.TotalSelections) / float64(st.Responses)
	}
	for _, o := range f.Options {
		st.Options = append(st.Options, OptionCount{Label: o, Count: known[o]})
	}
	return st
}

// stampLayouts covers the date formats survey exports have shipped with.
var stampLayouts = []string{
	"1/2/2006 15:04:05",
	"01/02/2006 15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC3339,
}

func parseStamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range stampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

func cloneFloat(v float64) *float64 { return &v }
