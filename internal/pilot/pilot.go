// Package pilot scores respondents as pilot-program candidates. Each
// candidate gets three component scores (need, capability, willingness), a
// weighted composite, and a suitability tier.
package pilot

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/civistat/embsurvey/internal/dataset"
	"github.com/civistat/embsurvey/internal/scales"
	"github.com/civistat/embsurvey/internal/schema"
	"github.com/civistat/embsurvey/internal/segment"
)

// Suitability tiers.
const (
	SuitabilityHigh   = "HIGH"
	SuitabilityMedium = "MEDIUM"
	SuitabilityLow    = "LOW"
)

// Weights controls the composite formula. The three weights are normalized
// before use, so they only need to be in proportion.
type Weights struct {
	Need        float64 `json:"need" mapstructure:"need"`
	Capability  float64 `json:"capability" mapstructure:"capability"`
	Willingness float64 `json:"willingness" mapstructure:"willingness"`
}

// DefaultWeights returns the standard composite weighting.
func DefaultWeights() Weights {
	return Weights{Need: 0.4, Capability: 0.35, Willingness: 0.25}
}

func (w Weights) normalized() (Weights, error) {
	sum := w.Need + w.Capability + w.Willingness
	if sum <= 0 {
		return Weights{}, fmt.Errorf("scoring weights must sum to a positive value")
	}
	return Weights{
		Need:        w.Need / sum,
		Capability:  w.Capability / sum,
		Willingness: w.Willingness / sum,
	}, nil
}

// Candidate is one scored respondent.
type Candidate struct {
	Respondent string `json:"respondent_id"`
	Country    string `json:"country,omitempty"`
	Region     string `json:"region,omitempty"`

	// Need and Capability are on 0-10; Willingness on 0-5.
	Need        float64 `json:"need"`
	Capability  float64 `json:"capability"`
	Willingness float64 `json:"willingness"`
	Composite   float64 `json:"composite"`
	Suitability string  `json:"suitability"`

	// Components record which indicators contributed to each score, as
	// "field:value" entries, so a reader can trace every number back to
	// the answers behind it.
	NeedComponents        []string `json:"need_components"`
	CapabilityComponents  []string `json:"capability_components"`
	WillingnessComponents []string `json:"willingness_components"`

	Context Context `json:"context"`
}

// Context carries the operational figures a reader needs to judge a
// candidate's scale. Unanswered figures stay null.
type Context struct {
	TempWorkers      *float64 `json:"temp_workers_count"`
	ElectionsPerYear *float64 `json:"elections_annually"`
}

// Insufficient is a respondent who could not be scored. Components the
// respondent did answer are reported; the missing ones stay null rather
// than reading as zero.
type Insufficient struct {
	Respondent  string   `json:"respondent_id"`
	Country     string   `json:"country,omitempty"`
	Need        *float64 `json:"need"`
	Capability  *float64 `json:"capability"`
	Willingness *float64 `json:"willingness"`
	Reason      string   `json:"reason"`
}

// Brief is the summary view of one candidate.
type Brief struct {
	Respondent  string  `json:"respondent_id"`
	Country     string  `json:"country,omitempty"`
	Region      string  `json:"region,omitempty"`
	Composite   float64 `json:"composite"`
	Suitability string  `json:"suitability"`
}

// Summary rolls the scored candidates up for quick reading.
type Summary struct {
	TotalAssessed int     `json:"total_assessed"`
	HighCount     int     `json:"high_potential_count"`
	MediumCount   int     `json:"medium_potential_count"`
	LowCount      int     `json:"low_potential_count"`
	Top5          []Brief `json:"top_5_candidates"`
}

// Report is the pilot-scoring output, best candidates first.
type Report struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`

	Weights     Weights  `json:"weights"`
	Methodology []string `json:"scoring_methodology"`

	AllCandidates   []Candidate `json:"all_candidates"`
	HighPotential   []Candidate `json:"high_potential"`
	MediumPotential []Candidate `json:"medium_potential"`
	Summary         Summary     `json:"summary"`

	Insufficient []Insufficient `json:"insufficient_data"`
}

// Score ranks every respondent in the clean dataset.
func Score(c *dataset.Clean, set *scales.Set, weights Weights) (*Report, error) {
	norm, err := weights.normalized()
	if err != nil {
		return nil, err
	}

	rep := &Report{
		RunID:       c.RunID,
		GeneratedAt: time.Now().UTC(),
		Weights:     norm,
		Methodology: methodology(norm),
	}

	techFields := techLevelFields(c)
	needFields := needIndicatorFields(c)

	for i := range c.Responses {
		r := &c.Responses[i]

		need, needParts, needOK := needScore(r, set, needFields)
		capability, capOK := segment.InfrastructureScore(r, techFields, set.SevereLimitations)
		willingness, willParts, willOK := willingnessScore(r)

		if !needOK || !capOK || !willOK {
			ins := Insufficient{
				Respondent: r.ID,
				Country:    r.Country,
				Reason:     insufficiencyReason(needOK, capOK, willOK),
			}
			if needOK {
				ins.Need = &need
			}
			if capOK {
				ins.Capability = &capability
			}
			if willOK {
				ins.Willingness = &willingness
			}
			rep.Insufficient = append(rep.Insufficient, ins)
			continue
		}

		cand := Candidate{
			Respondent:            r.ID,
			Country:               r.Country,
			Region:                r.Region,
			Need:                  need,
			Capability:            capability,
			Willingness:           willingness,
			NeedComponents:        needParts,
			CapabilityComponents:  capabilityComponents(r, techFields, set.SevereLimitations),
			WillingnessComponents: willParts,
			Context: Context{
				TempWorkers:      codedAnswer(r, "temp_workers_count"),
				ElectionsPerYear: codedAnswer(r, "elections_annually"),
			},
		}
		cand.Composite = norm.Need*need + norm.Capability*capability + norm.Willingness*(willingness/5*10)
		cand.Suitability = suitability(need, capability, willingness)
		rep.AllCandidates = append(rep.AllCandidates, cand)
	}

	sort.SliceStable(rep.AllCandidates, func(i, j int) bool {
		a, b := rep.AllCandidates[i], rep.AllCandidates[j]
		if a.Composite != b.Composite {
			return a.Composite > b.Composite
		}
		if a.Need != b.Need {
			return a.Need > b.Need
		}
		return a.Respondent < b.Respondent
	})

	rep.Summary.TotalAssessed = len(rep.AllCandidates)
	for _, cand := range rep.AllCandidates {
		switch cand.Suitability {
		case SuitabilityHigh:
			rep.HighPotential = append(rep.HighPotential, cand)
			rep.Summary.HighCount++
		case SuitabilityMedium:
			rep.MediumPotential = append(rep.MediumPotential, cand)
			rep.Summary.MediumCount++
		default:
			rep.Summary.LowCount++
		}
		if len(rep.Summary.Top5) < 5 {
			rep.Summary.Top5 = append(rep.Summary.Top5, Brief{
				Respondent:  cand.Respondent,
				Country:     cand.Country,
				Region:      cand.Region,
				Composite:   cand.Composite,
				Suitability: cand.Suitability,
			})
		}
	}
	return rep, nil
}

// suitability assigns the tier from the component scores. A capability below
// 3 always reads LOW regardless of need: a pilot cannot run where the
// infrastructure cannot carry it.
func suitability(need, capability, willingness float64) string {
	if capability < 3 {
		return SuitabilityLow
	}
	switch {
	case need >= 5 && capability >= 5 && willingness >= 3:
		return SuitabilityHigh
	case need >= 3 && capability >= 4 && willingness >= 2:
		return SuitabilityMedium
	}
	return SuitabilityLow
}

func techLevelFields(c *dataset.Clean) []string {
	var out []string
	for _, f := range c.Fields {
		if f.Kind == schema.KindMatrix && strings.HasPrefix(f.Name, scales.TechLevelFieldPrefix) {
			out = append(out, f.Name)
		}
	}
	return out
}

// needIndicatorFields selects the coded fields bound to a survey area; those
// are the problem indicators need is computed from. Technology-level ratings
// are excluded: they already drive the capability score.
func needIndicatorFields(c *dataset.Clean) []dataset.Field {
	var out []dataset.Field
	for _, f := range c.Fields {
		if f.Area == "" || f.Scale == "" || f.Scale == scales.ScaleTechLevel {
			continue
		}
		switch f.Kind {
		case schema.KindLikertScale, schema.KindFrequencyScale,
			schema.KindSingleSelect, schema.KindMatrix:
			out = append(out, f)
		}
	}
	return out
}

// needScore is the respondent's mean scaled problem severity on 0-10,
// computed over the area-bound indicators they answered. Confidence-style
// scales invert so that low confidence reads as high need. Indicators with a
// nonzero scaled severity are recorded as components.
func needScore(r *dataset.Response, set *scales.Set, fields []dataset.Field) (float64, []string, bool) {
	var sum float64
	var parts []string
	n := 0
	for _, f := range fields {
		v, answered := r.Number(f.Name)
		if !answered || v == nil {
			continue
		}
		sc, ok := set.Scale(f.Scale)
		if !ok {
			continue
		}
		min, max, ok := sc.Bounds()
		if !ok || min == max {
			continue
		}
		s := (*v - float64(min)) / float64(max-min)
		if segment.InvertedScale(f.Scale) {
			s = 1 - s
		}
		sum += s
		n++
		if s > 0 {
			parts = append(parts, fmt.Sprintf("%s:%g", f.Name, *v))
		}
	}
	if n == 0 {
		return 0, nil, false
	}
	return sum / float64(n) * 10, parts, true
}

// capabilityComponents records the technology levels the respondent rated
// and the severe-limitation count feeding the capability score.
func capabilityComponents(r *dataset.Response, techFields, severe []string) []string {
	var parts []string
	for _, f := range techFields {
		if v, answered := r.Number(f); answered && v != nil {
			parts = append(parts, fmt.Sprintf("%s:%g", f, *v))
		}
	}
	if n := segment.SevereLimitationCount(r, severe); n > 0 {
		parts = append(parts, fmt.Sprintf("severe_limitations:%d", n))
	}
	return parts
}

// willingnessScore is on 0-5: up to two points for a stated interest in
// digital credentials among workers, two for follow-up willingness, and one
// for having already explored related technologies. Signals that earned
// points are recorded as components. ok is false when none of the three
// inputs were answered.
func willingnessScore(r *dataset.Response) (float64, []string, bool) {
	score, answered := 0.0, false
	var parts []string

	if v, ok := r.Number("worker_interest_credentials"); ok {
		answered = true
		if v != nil {
			switch {
			case *v >= 3:
				score += 2
				parts = append(parts, fmt.Sprintf("worker_interest:%g", *v))
			case *v >= 2:
				score += 1
				parts = append(parts, fmt.Sprintf("worker_interest:%g", *v))
			}
		}
	}
	if txt, ok := r.Texts["followup_willing"]; ok {
		answered = true
		if strings.Contains(strings.ToLower(txt), "yes") {
			score += 2
			parts = append(parts, "followup_yes")
		}
	}
	if sel := r.Selections["technologies_explored"]; len(sel) > 0 {
		answered = true
		explored := 0
		for _, s := range sel {
			if !strings.EqualFold(strings.TrimSpace(s), "None") {
				explored++
			}
		}
		if explored > 0 {
			score++
			parts = append(parts, fmt.Sprintf("technologies_explored:%d", explored))
		}
	}

	if !answered {
		return 0, nil, false
	}
	if score > 5 {
		score = 5
	}
	return score, parts, true
}

// codedAnswer returns the respondent's coded value for a field, nil when
// skipped or answered with an explicit null.
func codedAnswer(r *dataset.Response, field string) *float64 {
	if v, answered := r.Number(field); answered && v != nil {
		out := *v
		return &out
	}
	return nil
}

func insufficiencyReason(needOK, capOK, willOK bool) string {
	var missing []string
	if !needOK {
		missing = append(missing, "no problem indicators answered")
	}
	if !capOK {
		missing = append(missing, "no technology levels rated")
	}
	if !willOK {
		missing = append(missing, "no willingness signals answered")
	}
	return strings.Join(missing, "; ")
}

// methodology renders the scoring rules from the live weights, so the
// report always documents the formula actually used.
func methodology(w Weights) []string {
	return []string{
		"need (0-10): mean scaled severity across the problem indicators the respondent answered; confidence-style scales inverted",
		"capability (0-10): technology-level average scaled to 6 points plus 4 points reduced by one per severe infrastructure limitation",
		"willingness (0-5): worker interest in digital credentials (up to 2), follow-up willingness (2), prior technology exploration (1)",
		fmt.Sprintf("composite: need*%.2f + capability*%.2f + (willingness/5*10)*%.2f", w.Need, w.Capability, w.Willingness),
		"suitability: HIGH requires need>=5, capability>=5, willingness>=3; MEDIUM requires need>=3, capability>=4, willingness>=2; anything else or capability<3 is LOW",
	}
}
