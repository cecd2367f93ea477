package explore

import (
	"sort"
	"time"

	"github.com/civistat/embsurvey/internal/dataset"
	"github.com/civistat/embsurvey/internal/schema"
)

// FieldMissing reports how often one field went unanswered. Level flags
// fields worth a follow-up: "high" above half missing, "moderate" above a
// quarter.
type FieldMissing struct {
	Field   string  `json:"field"`
	Missing int     `json:"missing"`
	Rate    float64 `json:"rate"`
	Level   string  `json:"level,omitempty"`
}

// Bucket is one completion-score band.
type Bucket struct {
	Label string  `json:"label"`
	Low   float64 `json:"low"`
	High  float64 `json:"high"`
	Count int     `json:"count"`
}

// CompletionReport is the missing-data analysis over the clean dataset.
type CompletionReport struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`

	Responses int     `json:"responses"`
	Excluded  int     `json:"excluded_responses"`
	Threshold float64 `json:"completion_threshold"`
	MeanScore float64 `json:"mean_completion"`

	Buckets []Bucket `json:"score_distribution"`
	// RegionMeans maps each region to its mean completion score.
	RegionMeans map[string]float64 `json:"completion_by_region"`
	// FieldMissing lists substantive fields by missing count, worst first.
	FieldMissing []FieldMissing `json:"field_missingness"`
}

// AnalyzeCompletion builds the missing-data report.
func AnalyzeCompletion(c *dataset.Clean) *CompletionReport {
	rep := &CompletionReport{
		RunID:       c.RunID,
		GeneratedAt: time.Now().UTC(),
		Responses:   len(c.Responses),
		Excluded:    c.Excluded,
		Threshold:   c.Threshold,
		Buckets: []Bucket{
			{Label: "0-25%", Low: 0, High: 0.25},
			{Label: "25-50%", Low: 0.25, High: 0.5},
			{Label: "50-75%", Low: 0.5, High: 0.75},
			{Label: "75-100%", Low: 0.75, High: 1.01},
		},
	}

	var sum float64
	regionSum := map[string]float64{}
	regionCount := map[string]int{}
	for i := range c.Responses {
		r := &c.Responses[i]
		sum += r.Completion
		for b := range rep.Buckets {
			if r.Completion >= rep.Buckets[b].Low && r.Completion < rep.Buckets[b].High {
				rep.Buckets[b].Count++
				break
			}
		}
		if r.Region != "" {
			regionSum[r.Region] += r.Completion
			regionCount[r.Region]++
		}
	}
	if len(c.Responses) > 0 {
		rep.MeanScore = sum / float64(len(c.Responses))
	}
	rep.RegionMeans = make(map[string]float64, len(regionSum))
	for region, total := range regionSum {
		rep.RegionMeans[region] = total / float64(regionCount[region])
	}

	for _, f := range c.Fields {
		if f.Kind == schema.KindDemographic || f.Kind == schema.KindOpenText {
			continue
		}
		missing := 0
		for i := range c.Responses {
			r := &c.Responses[i]
			if _, ok := r.Numbers[f.Name]; ok {
				continue
			}
			if len(r.Selections[f.Name]) > 0 {
				continue
			}
			if _, ok := r.Texts[f.Name]; ok {
				continue
			}
			missing++
		}
		fm := FieldMissing{Field: f.Name, Missing: missing}
		if len(c.Responses) > 0 {
			fm.Rate = float64(missing) / float64(len(c.Responses))
		}
		switch {
		case fm.Rate > 0.5:
			fm.Level = "high"
		case fm.Rate > 0.25:
			fm.Level = "moderate"
		}
		rep.FieldMissing = append(rep.FieldMissing, fm)
	}
	sort.SliceStable(rep.FieldMissing, func(i, j int) bool {
		return rep.FieldMissing[i].Missing > rep.FieldMissing[j].Missing
	})
	return rep
}
