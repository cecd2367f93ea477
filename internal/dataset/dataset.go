// Package dataset defines the cleaned survey dataset and its flat-file
// persistence. Downstream stages never touch the raw export; they read the
// clean dataset and column mapping written by the cleaning stage.
package dataset

import (
	"time"

	"github.com/civistat/embsurvey/internal/schema"
)

// Field describes one column of the clean dataset.
type Field struct {
	Name     string      `json:"name"`
	Kind     schema.Kind `json:"kind"`
	Scale    string      `json:"scale,omitempty"`
	Area     string      `json:"area,omitempty"`
	Question string      `json:"question,omitempty"`
	// Options is the known choice vocabulary for multi_select fields, in
	// survey order. Distributions report every option, including ones no
	// respondent picked.
	Options []string `json:"options,omitempty"`
}

// Response is one cleaned survey response.
//
// Numbers carries three states per field: absent means the respondent left
// the question unanswered, a nil value means they answered with the scale's
// null label ("Don't know"), and a non-nil value is the coded answer. Both
// absent and nil are excluded from means and from the completion score.
type Response struct {
	ID          string `json:"respondent_id"`
	CollectorID string `json:"collector_id,omitempty"`
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
	Country     string `json:"country,omitempty"`
	Region      string `json:"region,omitempty"`

	Numbers    map[string]*float64 `json:"numbers,omitempty"`
	Selections map[string][]string `json:"selections,omitempty"`
	Texts      map[string]string   `json:"texts,omitempty"`

	// Completion is the share of substantive question groups this
	// respondent answered, in [0, 1].
	Completion float64 `json:"completion_score"`
}

// Number reports the coded value for a field. answered is false when the
// respondent skipped the question entirely; value is nil for an explicit
// "Don't know".
func (r *Response) Number(field string) (value *float64, answered bool) {
	v, ok := r.Numbers[field]
	return v, ok
}

// SetNumber records a coded answer. A nil value records an explicit null.
func (r *Response) SetNumber(field string, v *float64) {
	if r.Numbers == nil {
		r.Numbers = make(map[string]*float64)
	}
	r.Numbers[field] = v
}

// AddSelection appends one picked option to a multi-select field.
func (r *Response) AddSelection(field, option string) {
	if r.Selections == nil {
		r.Selections = make(map[string][]string)
	}
	r.Selections[field] = append(r.Selections[field], option)
}

// SetText records a free-text answer. Empty strings are not stored.
func (r *Response) SetText(field, text string) {
	if text == "" {
		return
	}
	if r.Texts == nil {
		r.Texts = make(map[string]string)
	}
	r.Texts[field] = text
}

// Clean is the cleaned dataset: the stage handoff between cleaning and every
// downstream analysis.
type Clean struct {
	RunID       string     `json:"run_id"`
	Source      string     `json:"source"`
	GeneratedAt time.Time  `json:"generated_at"`
	Threshold   float64    `json:"completion_threshold"`
	Fields      []Field    `json:"fields"`
	Responses   []Response `json:"responses"`
	// Excluded counts responses dropped by the completion filter.
	Excluded int `json:"excluded_responses"`
}

// Field returns the named field's description.
func (c *Clean) Field(name string) (Field, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// FieldsOfKind returns the fields with the given kind, in dataset order.
func (c *Clean) FieldsOfKind(kind schema.Kind) []Field {
	var out []Field
	for _, f := range c.Fields {
		if f.Kind == kind {
			out = append(out, f)
		}
	}
	return out
}
