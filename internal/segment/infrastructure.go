package segment

import (
	"sort"
	"time"

	"github.com/civistat/embsurvey/internal/dataset"
	"github.com/civistat/embsurvey/internal/scales"
)

// Infrastructure maturity bands.
const (
	BandBasic    = "basic"
	BandModerate = "moderate"
	BandAdvanced = "advanced"
)

// Member is one respondent's infrastructure score.
type Member struct {
	Respondent string  `json:"respondent_id"`
	Country    string  `json:"country,omitempty"`
	Region     string  `json:"region,omitempty"`
	Score      float64 `json:"score"`
}

// Band groups the respondents within one maturity band.
type Band struct {
	Band      string   `json:"band"`
	Count     int      `json:"count"`
	MeanScore float64  `json:"mean_score"`
	Countries []string `json:"countries,omitempty"`
	Members   []Member `json:"members"`
	// FieldMeans profiles the band across every coded field.
	FieldMeans map[string]*float64 `json:"field_means"`
}

// ScoreDistribution summarizes the scores across all scorable respondents.
type ScoreDistribution struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// InfrastructureSegments is the maturity segmentation output.
type InfrastructureSegments struct {
	RunID       string             `json:"run_id"`
	GeneratedAt time.Time          `json:"generated_at"`
	Scores      *ScoreDistribution `json:"score_distribution,omitempty"`
	Bands       []Band             `json:"bands"`
	// Unscored counts respondents who rated none of the technology-level
	// topics and therefore cannot be placed in a band.
	Unscored int `json:"unscored"`
}

// InfrastructureScore computes a respondent's 0-10 maturity score: up to 6
// points from the average technology level across the rated topics (each
// 0-3), plus up to 4 points reduced by one per severe limitation reported.
// ok is false when the respondent rated no technology topic at all.
func InfrastructureScore(r *dataset.Response, techFields, severe []string) (float64, bool) {
	var sum float64
	n := 0
	for _, f := range techFields {
		if v, answered := r.Number(f); answered && v != nil {
			sum += *v
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	techAvg := sum / float64(n)

	access := float64(4 - SevereLimitationCount(r, severe))
	if access < 0 {
		access = 0
	}
	return techAvg/3*6 + access, true
}

// SevereLimitationCount counts the severe limitations the respondent picked.
func SevereLimitationCount(r *dataset.Response, severe []string) int {
	count := 0
	picked := r.Selections["infrastructure_limitations"]
	for _, limit := range severe {
		for _, p := range picked {
			if p == limit {
				count++
				break
			}
		}
	}
	return count
}

func distribution(scores []float64) *ScoreDistribution {
	if len(scores) == 0 {
		return nil
	}
	sort.Float64s(scores)
	var sum float64
	for _, s := range scores {
		sum += s
	}
	d := &ScoreDistribution{
		Mean: sum / float64(len(scores)),
		Min:  scores[0],
		Max:  scores[len(scores)-1],
	}
	mid := len(scores) / 2
	if len(scores)%2 == 1 {
		d.Median = scores[mid]
	} else {
		d.Median = (scores[mid-1] + scores[mid]) / 2
	}
	return d
}

// bandFor assigns a score to its maturity band.
func bandFor(score float64) string {
	switch {
	case score < 4:
		return BandBasic
	case score < 7:
		return BandModerate
	}
	return BandAdvanced
}

// SegmentInfrastructure bands every scorable respondent by infrastructure
// maturity and profiles each band.
func SegmentInfrastructure(c *dataset.Clean, set *scales.Set) *InfrastructureSegments {
	out := &InfrastructureSegments{RunID: c.RunID, GeneratedAt: time.Now().UTC()}
	techFields := matrixFieldsWithPrefix(c, scales.TechLevelFieldPrefix)

	members := map[string][]Member{}
	responses := map[string][]*dataset.Response{}
	var scores []float64
	for i := range c.Responses {
		r := &c.Responses[i]
		score, ok := InfrastructureScore(r, techFields, set.SevereLimitations)
		if !ok {
			out.Unscored++
			continue
		}
		scores = append(scores, score)
		band := bandFor(score)
		members[band] = append(members[band], Member{
			Respondent: r.ID, Country: r.Country, Region: r.Region, Score: score,
		})
		responses[band] = append(responses[band], r)
	}
	out.Scores = distribution(scores)

	fields := codedFields(c)
	for _, band := range []string{BandBasic, BandModerate, BandAdvanced} {
		ms := members[band]
		if len(ms) == 0 {
			continue
		}
		b := Band{
			Band:       band,
			Count:      len(ms),
			Members:    ms,
			FieldMeans: make(map[string]*float64, len(fields)),
		}
		var sum float64
		seen := map[string]bool{}
		for _, m := range ms {
			sum += m.Score
			if m.Country != "" && !seen[m.Country] {
				seen[m.Country] = true
				b.Countries = append(b.Countries, m.Country)
			}
		}
		sort.Strings(b.Countries)
		b.MeanScore = sum / float64(len(ms))
		for _, f := range fields {
			b.FieldMeans[f.Name] = meanOf(responses[band], f.Name)
		}
		out.Bands = append(out.Bands, b)
	}
	return out
}
