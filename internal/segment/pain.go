package segment

import (
	"sort"
	"time"

	"github.com/civistat/embsurvey/internal/dataset"
	"github.com/civistat/embsurvey/internal/scales"
	"github.com/civistat/embsurvey/internal/schema"
)

// invertedScales marks scales where a high code means things are going well,
// so pain runs opposite to the code.
var invertedScales = map[string]bool{
	scales.ScaleConfidence: true,
	scales.ScaleTechLevel:  true,
}

// InvertedScale reports whether a high code on the named scale means things
// are going well rather than badly.
func InvertedScale(name string) bool { return invertedScales[name] }

// RespondentScore is one respondent's severity within an area.
type RespondentScore struct {
	Respondent string  `json:"respondent_id"`
	Country    string  `json:"country,omitempty"`
	Score      float64 `json:"score"`
}

// Indicator is one field's contribution to an area's severity.
type Indicator struct {
	Field string `json:"field"`
	Scale string `json:"scale,omitempty"`
	// Samples is the number of answers behind the indicator.
	Samples int `json:"samples"`
	// Scaled is the indicator's mean 0-1 pain contribution, inverted for
	// scales where a high code is good news.
	Scaled   *float64 `json:"scaled"`
	Inverted bool     `json:"inverted,omitempty"`
}

// PainPoint is one operational area's severity.
type PainPoint struct {
	Area string `json:"area"`
	Rank int    `json:"rank"`
	// Severity is the mean respondent score on a common 0-10 scale, so
	// areas are directly comparable.
	Severity  float64 `json:"severity"`
	MaxScore  float64 `json:"max_score"`
	Responses int     `json:"responses"`
	// Scores lists each contributing respondent's severity.
	Scores     []RespondentScore `json:"scores"`
	Indicators []Indicator       `json:"indicators"`
}

// PainRankings is the pain-point output, worst area first.
type PainRankings struct {
	RunID       string      `json:"run_id"`
	GeneratedAt time.Time   `json:"generated_at"`
	Rankings    []PainPoint `json:"rankings"`
}

// RankPainPoints scores each survey area's severity on the common 0-10
// scale and ranks the areas worst first. Ties break toward the area with
// more respondents behind it.
func RankPainPoints(c *dataset.Clean, set *scales.Set) *PainRankings {
	out := &PainRankings{RunID: c.RunID, GeneratedAt: time.Now().UTC()}

	for _, area := range scales.Areas() {
		pp := scoreArea(c, set, area)
		if pp.Responses == 0 {
			continue
		}
		out.Rankings = append(out.Rankings, pp)
	}

	sort.SliceStable(out.Rankings, func(i, j int) bool {
		a, b := out.Rankings[i], out.Rankings[j]
		if a.Severity != b.Severity {
			return a.Severity > b.Severity
		}
		if a.Responses != b.Responses {
			return a.Responses > b.Responses
		}
		return a.Area < b.Area
	})
	for i := range out.Rankings {
		out.Rankings[i].Rank = i + 1
	}
	return out
}

// scoreArea computes per-respondent severities for one area: each respondent
// contributes the mean of their 0-1 scaled indicator answers, times ten.
func scoreArea(c *dataset.Clean, set *scales.Set, area string) PainPoint {
	pp := PainPoint{Area: area}

	fields := areaFields(c, area)
	if len(fields) == 0 {
		return pp
	}

	indSum := make([]float64, len(fields))
	indN := make([]int, len(fields))

	var total float64
	for i := range c.Responses {
		r := &c.Responses[i]
		var sum float64
		n := 0
		for fi, f := range fields {
			s, ok := scaledValue(r, set, f)
			if !ok {
				continue
			}
			sum += s
			n++
			indSum[fi] += s
			indN[fi]++
		}
		if n == 0 {
			continue
		}
		score := sum / float64(n) * 10
		pp.Scores = append(pp.Scores, RespondentScore{
			Respondent: r.ID, Country: r.Country, Score: score,
		})
		total += score
	}

	pp.Responses = len(pp.Scores)
	if pp.Responses > 0 {
		pp.Severity = total / float64(pp.Responses)
		pp.MaxScore = pp.Scores[0].Score
		for _, s := range pp.Scores {
			if s.Score > pp.MaxScore {
				pp.MaxScore = s.Score
			}
		}
	}

	for fi, f := range fields {
		if indN[fi] == 0 {
			continue
		}
		scaled := indSum[fi] / float64(indN[fi])
		pp.Indicators = append(pp.Indicators, Indicator{
			Field:    f.Name,
			Scale:    f.Scale,
			Samples:  indN[fi],
			Scaled:   &scaled,
			Inverted: invertedScales[f.Scale],
		})
	}
	return pp
}

// areaFields selects the fields that contribute to an area's severity:
// coded fields on a bounded scale, plus the area's multi-select challenge
// lists.
func areaFields(c *dataset.Clean, area string) []dataset.Field {
	var out []dataset.Field
	for _, f := range c.Fields {
		if f.Area != area {
			continue
		}
		switch f.Kind {
		case schema.KindLikertScale, schema.KindFrequencyScale,
			schema.KindSingleSelect, schema.KindMatrix:
			if f.Scale != "" {
				out = append(out, f)
			}
		case schema.KindMultiSelect:
			if len(f.Options) > 0 {
				out = append(out, f)
			}
		}
	}
	return out
}

// scaledValue maps one respondent's answer on one field to the 0-1 pain
// scale. Multi-select fields contribute the share of known options picked.
func scaledValue(r *dataset.Response, set *scales.Set, f dataset.Field) (float64, bool) {
	if f.Kind == schema.KindMultiSelect {
		sel := r.Selections[f.Name]
		if len(sel) == 0 {
			return 0, false
		}
		known := 0
		for _, pick := range sel {
			for _, o := range f.Options {
				if pick == o {
					known++
					break
				}
			}
		}
		return float64(known) / float64(len(f.Options)), true
	}

	v, answered := r.Number(f.Name)
	if !answered || v == nil {
		return 0, false
	}
	sc, ok := set.Scale(f.Scale)
	if !ok {
		return 0, false
	}
	min, max, ok := sc.Bounds()
	if !ok || min == max {
		return 0, false
	}
	s := (*v - float64(min)) / float64(max-min)
	if invertedScales[f.Scale] {
		s = 1 - s
	}
	return s, true
}
