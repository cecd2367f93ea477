// Package qualitative extracts the free-text answers from the clean dataset
// into a reviewable document, grouped by question.
package qualitative

import (
	"strings"
	"time"

	"github.com/civistat/embsurvey/internal/dataset"
	"github.com/civistat/embsurvey/internal/schema"
)

// Entry is one respondent's free-text answer with enough context to read it
// standalone.
type Entry struct {
	Respondent string `json:"respondent_id"`
	Country    string `json:"country,omitempty"`
	Region     string `json:"region,omitempty"`
	Text       string `json:"text"`
}

// FieldGroup collects every answer to one open question.
type FieldGroup struct {
	Field    string  `json:"field"`
	Question string  `json:"question,omitempty"`
	Entries  []Entry `json:"entries"`
}

// Extract is the open-response output.
type Extract struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`
	// Count is the total number of non-empty answers across all fields.
	Count  int          `json:"count"`
	Groups []FieldGroup `json:"groups"`
}

// Collect gathers the open-text answers, in dataset field order. Fields
// nobody answered are omitted; whitespace-only answers do not count.
func Collect(c *dataset.Clean) *Extract {
	out := &Extract{RunID: c.RunID, GeneratedAt: time.Now().UTC()}

	for _, f := range c.Fields {
		if f.Kind != schema.KindOpenText {
			continue
		}
		fg := FieldGroup{Field: f.Name, Question: f.Question}
		for i := range c.Responses {
			r := &c.Responses[i]
			text := strings.TrimSpace(r.Texts[f.Name])
			if text == "" {
				continue
			}
			fg.Entries = append(fg.Entries, Entry{
				Respondent: r.ID,
				Country:    r.Country,
				Region:     r.Region,
				Text:       text,
			})
		}
		if len(fg.Entries) == 0 {
			continue
		}
		out.Count += len(fg.Entries)
		out.Groups = append(out.Groups, fg)
	}
	return out
}
