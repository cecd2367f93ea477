// Package segment cuts the clean dataset along three axes: geographic region,
// infrastructure maturity, and operational pain-point area.
package segment

import (
	"sort"
	"strings"
	"time"

	"github.com/civistat/embsurvey/internal/dataset"
	"github.com/civistat/embsurvey/internal/scales"
	"github.com/civistat/embsurvey/internal/schema"
)

// RegionStats is one region's slice of the dataset.
type RegionStats struct {
	Region         string   `json:"region"`
	Responses      int      `json:"responses"`
	Countries      []string `json:"countries"`
	MeanCompletion float64  `json:"mean_completion"`
	// FollowupWilling counts affirmative follow-up answers in the region.
	FollowupWilling int `json:"followup_willing"`
	// FieldMeans maps each coded field to its regional mean, nil when no
	// respondent in the region gave a coded answer.
	FieldMeans map[string]*float64 `json:"field_means"`
	// TopSelections lists each multi-select field's five most picked
	// options within the region.
	TopSelections map[string][]OptionCount `json:"top_selections,omitempty"`
}

// OptionCount is one option's tally within a region.
type OptionCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// RegionalComparison is the per-region breakdown.
type RegionalComparison struct {
	RunID       string        `json:"run_id"`
	GeneratedAt time.Time     `json:"generated_at"`
	Regions     []RegionStats `json:"regions"`
}

// CompareRegions computes per-region response counts, country lists, and
// field means across every coded field.
func CompareRegions(c *dataset.Clean) *RegionalComparison {
	cmp := &RegionalComparison{RunID: c.RunID, GeneratedAt: time.Now().UTC()}

	fields := codedFields(c)
	byRegion := map[string][]*dataset.Response{}
	for i := range c.Responses {
		r := &c.Responses[i]
		region := r.Region
		if region == "" {
			region = scales.RegionOther
		}
		byRegion[region] = append(byRegion[region], r)
	}

	order := []string{
		scales.RegionAfrica, scales.RegionAsiaPacific,
		scales.RegionEurope, scales.RegionAmericas, scales.RegionOther,
	}
	for _, region := range order {
		members := byRegion[region]
		if len(members) == 0 {
			continue
		}
		rs := RegionStats{
			Region:     region,
			Responses:  len(members),
			FieldMeans: make(map[string]*float64, len(fields)),
		}
		seen := map[string]bool{}
		var completion float64
		for _, r := range members {
			if r.Country != "" && !seen[r.Country] {
				seen[r.Country] = true
				rs.Countries = append(rs.Countries, r.Country)
			}
			completion += r.Completion
			if strings.Contains(strings.ToLower(r.Texts["followup_willing"]), "yes") {
				rs.FollowupWilling++
			}
		}
		sort.Strings(rs.Countries)
		rs.MeanCompletion = completion / float64(len(members))
		for _, f := range fields {
			rs.FieldMeans[f.Name] = meanOf(members, f.Name)
		}
		for _, f := range c.FieldsOfKind(schema.KindMultiSelect) {
			if top := topSelections(members, f, 5); len(top) > 0 {
				if rs.TopSelections == nil {
					rs.TopSelections = map[string][]OptionCount{}
				}
				rs.TopSelections[f.Name] = top
			}
		}
		cmp.Regions = append(cmp.Regions, rs)
	}
	return cmp
}

// codedFields returns the fields whose values carry an ordinal code.
func codedFields(c *dataset.Clean) []dataset.Field {
	var out []dataset.Field
	for _, f := range c.Fields {
		switch f.Kind {
		case schema.KindLikertScale, schema.KindFrequencyScale, schema.KindMatrix:
			if f.Scale != "" {
				out = append(out, f)
			}
		case schema.KindSingleSelect:
			if f.Scale != "" {
				out = append(out, f)
			}
		}
	}
	return out
}

// meanOf averages a field's coded answers over the given responses. Explicit
// nulls and skips are excluded; the mean of nothing is nil.
func meanOf(members []*dataset.Response, field string) *float64 {
	var sum float64
	n := 0
	for _, r := range members {
		if v, answered := r.Number(field); answered && v != nil {
			sum += *v
			n++
		}
	}
	if n == 0 {
		return nil
	}
	m := sum / float64(n)
	return &m
}

// topSelections tallies a multi-select field over the given responses and
// returns up to limit options, most picked first. Ties break alphabetically.
func topSelections(members []*dataset.Response, f dataset.Field, limit int) []OptionCount {
	counts := map[string]int{}
	for _, r := range members {
		for _, pick := range r.Selections[f.Name] {
			counts[pick]++
		}
	}
	if len(counts) == 0 {
		return nil
	}
	out := make([]OptionCount, 0, len(counts))
	for label, n := range counts {
		out = append(out, OptionCount{Label: label, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// matrixFieldsWithPrefix lists the per-topic fields of one matrix group.
func matrixFieldsWithPrefix(c *dataset.Clean, prefix string) []string {
	var out []string
	for _, f := range c.Fields {
		if f.Kind == schema.KindMatrix && strings.HasPrefix(f.Name, prefix) {
			out = append(out, f.Name)
		}
	}
	return out
}
