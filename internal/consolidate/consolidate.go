// Package consolidate turns a raw survey export into the clean dataset: it
// collapses each question group's column range into one value per response,
// scores completion, and applies the completion filter.
package consolidate

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/civistat/embsurvey/internal/dataset"
	"github.com/civistat/embsurvey/internal/scales"
	"github.com/civistat/embsurvey/internal/schema"
)

// DefaultThreshold is the completion cut below which a response is excluded
// from the clean dataset.
const DefaultThreshold = 0.15

// Options configures one consolidation run.
type Options struct {
	// Threshold is the minimum completion score, in [0, 1]. Zero means
	// DefaultThreshold; to keep every response, pass a negative value.
	Threshold float64
	Source    string
	Logger    *slog.Logger
}

// Result is the consolidated output: the filtered clean dataset, the
// unfiltered response list, and the non-fatal warnings collected along the
// way.
type Result struct {
	Clean    *dataset.Clean
	All      []dataset.Response
	Warnings []string
}

type run struct {
	raw      *dataset.Raw
	sch      *schema.Schema
	set      *scales.Set
	log      *slog.Logger
	colOpts  map[int]string
	warnings []string
}

// Run consolidates a raw export against its derived schema.
func Run(raw *dataset.Raw, sch *schema.Schema, set *scales.Set, opts Options) (*Result, error) {
	if sch.Columns != len(raw.Questions) {
		return nil, fmt.Errorf("schema describes %d columns but export has %d", sch.Columns, len(raw.Questions))
	}
	threshold := opts.Threshold
	if threshold == 0 {
		threshold = DefaultThreshold
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := &run{raw: raw, sch: sch, set: set, log: logger, colOpts: make(map[int]string)}
	for _, rule := range sch.Log {
		if rule.Option != "" {
			r.colOpts[rule.Column] = rule.Option
		}
	}
	r.warnings = append(r.warnings, sch.Warnings...)

	fields := buildFields(sch, r.colOpts)

	all := make([]dataset.Response, 0, len(raw.Rows))
	for row := range raw.Rows {
		all = append(all, r.consolidateRow(row))
	}

	clean := &dataset.Clean{
		RunID:       uuid.NewString(),
		Source:      opts.Source,
		GeneratedAt: time.Now().UTC(),
		Threshold:   threshold,
		Fields:      fields,
	}
	for _, resp := range all {
		if resp.Completion < threshold {
			clean.Excluded++
			logger.Debug("response excluded by completion filter",
				"respondent", resp.ID, "completion", resp.Completion)
			continue
		}
		clean.Responses = append(clean.Responses, resp)
	}
	logger.Info("consolidation complete",
		"responses", len(all), "kept", len(clean.Responses), "excluded", clean.Excluded,
		"warnings", len(r.warnings))

	return &Result{Clean: clean, All: all, Warnings: r.warnings}, nil
}

// buildFields expands the schema's groups into clean-dataset fields. Matrix
// groups contribute one field per topic; per-column open lists contribute one
// field per column.
func buildFields(sch *schema.Schema, colOpts map[int]string) []dataset.Field {
	var out []dataset.Field
	for _, g := range sch.Groups {
		switch {
		case g.Kind == schema.KindMatrix:
			seen := map[string]bool{}
			for i := g.Start; i < g.End; i++ {
				topic := colOpts[i]
				if g.Scale != "" {
					if t, _, ok := schema.SplitMatrixOption(colOpts[i]); ok {
						topic = t
					}
				}
				if topic == "" || seen[topic] {
					continue
				}
				seen[topic] = true
				out = append(out, dataset.Field{
					Name:     matrixField(g.Field, topic),
					Kind:     g.Kind,
					Scale:    g.Scale,
					Area:     g.Area,
					Question: g.Question + " / " + topic,
				})
			}
		case g.Kind == schema.KindOpenText && g.PerColumn:
			for i := g.Start; i < g.End; i++ {
				out = append(out, dataset.Field{
					Name:     fmt.Sprintf("%s_%d", g.Field, i-g.Start+1),
					Kind:     g.Kind,
					Area:     g.Area,
					Question: g.Question,
				})
			}
		case g.Kind == schema.KindDemographic:
			// Metadata lands on the response struct itself, not in a field.
			if !coreMetadata(g.Field) {
				out = append(out, dataset.Field{
					Name: g.Field, Kind: g.Kind, Question: g.Question,
				})
			}
		default:
			f := dataset.Field{
				Name:     g.Field,
				Kind:     g.Kind,
				Scale:    g.Scale,
				Area:     g.Area,
				Question: g.Question,
			}
			if g.Kind == schema.KindMultiSelect {
				for i := g.Start; i < g.End; i++ {
					if o := colOpts[i]; o != "" {
						f.Options = append(f.Options, o)
					}
				}
			}
			out = append(out, f)
		}
	}
	return out
}

func matrixField(prefix, topic string) string {
	return prefix + "_" + schema.SlugTopic(topic)
}

func coreMetadata(field string) bool {
	switch field {
	case "respondent_id", "collector_id", "start_date", "end_date",
		"ip_address", "email_address", "first_name", "last_name",
		"custom_data", "country":
		return true
	}
	return false
}

func (r *run) consolidateRow(row int) dataset.Response {
	resp := dataset.Response{}
	answered, substantive := 0, 0

	for _, g := range r.sch.Groups {
		if g.Substantive {
			substantive++
		}
		if r.consolidateGroup(row, g, &resp) && g.Substantive {
			answered++
		}
	}

	if resp.ID == "" {
		// Exports occasionally lose the respondent ID column; synthesize
		// one so the row stays addressable in every output.
		resp.ID = "gen-" + uuid.NewString()[:8]
		r.warnf("row %d has no respondent ID; generated %s", row, resp.ID)
	}
	if substantive > 0 {
		resp.Completion = float64(answered) / float64(substantive)
	}
	return resp
}

// consolidateGroup collapses one group's columns for one row. It reports
// whether the respondent gave a substantive (non-null) answer.
func (r *run) consolidateGroup(row int, g schema.Group, resp *dataset.Response) bool {
	switch g.Kind {
	case schema.KindDemographic:
		return r.demographic(row, g, resp)
	case schema.KindMultiSelect:
		return r.multiSelect(row, g, resp)
	case schema.KindMatrix:
		return r.matrix(row, g, resp)
	case schema.KindNumericOpen:
		return r.numericOpen(row, g, resp)
	case schema.KindOpenText:
		return r.openText(row, g, resp)
	default: // single_select, likert_scale, frequency_scale
		return r.singleChoice(row, g, resp)
	}
}

func (r *run) demographic(row int, g schema.Group, resp *dataset.Response) bool {
	val := r.firstCell(row, g)
	switch g.Field {
	case "respondent_id":
		resp.ID = val
	case "collector_id":
		resp.CollectorID = val
	case "start_date":
		resp.StartDate = val
	case "end_date":
		resp.EndDate = val
	case "country":
		resp.Country = r.set.CleanCountry(val)
		resp.Region = r.set.RegionFor(val)
	case "ip_address", "email_address", "first_name", "last_name", "custom_data":
		// Contact details are dropped from every output.
	default:
		resp.SetText(g.Field, val)
	}
	return false // demographics never count toward completion
}

func (r *run) singleChoice(row int, g schema.Group, resp *dataset.Response) bool {
	col, val := r.firstNonEmpty(row, g)
	if val == "" {
		return false
	}
	if n := r.countNonEmpty(row, g); n > 1 {
		r.warnf("row %d, %s: %d cells filled for a single-choice question; using column %d",
			row, g.Field, n, col)
	}

	// Some exports mark the chosen column with "1" or "X" instead of
	// repeating the option label; the column's label is the answer then.
	label := val
	if opt := r.colOpts[col]; opt != "" && isMarkerCell(val) {
		label = opt
	}

	if g.Scale == "" {
		resp.SetText(g.Field, label)
		return true
	}
	sc, ok := r.set.Scale(g.Scale)
	if !ok {
		r.warnf("%s references unknown scale %q", g.Field, g.Scale)
		resp.SetText(g.Field, label)
		return true
	}
	code, ok := sc.Lookup(label)
	if !ok {
		r.warnf("row %d, %s: label %q not in scale %q; recorded as null", row, g.Field, label, g.Scale)
		resp.SetNumber(g.Field, nil)
		return false
	}
	resp.SetNumber(g.Field, codeValue(code))
	return code != nil
}

func (r *run) multiSelect(row int, g schema.Group, resp *dataset.Response) bool {
	any := false
	for i := g.Start; i < g.End; i++ {
		val := r.raw.Cell(row, i)
		if val == "" {
			continue
		}
		opt := r.colOpts[i]
		if opt == "" || strings.Contains(strings.ToLower(opt), "please specify") {
			// Free-text "Other" column: keep the respondent's wording.
			opt = val
		}
		resp.AddSelection(g.Field, opt)
		any = true
	}
	return any
}

func (r *run) matrix(row int, g schema.Group, resp *dataset.Response) bool {
	answered := false
	if g.Scale == "" {
		// Numeric matrix: each column is a per-topic numeric cell.
		for i := g.Start; i < g.End; i++ {
			val := r.raw.Cell(row, i)
			topic := r.colOpts[i]
			if val == "" || topic == "" {
				continue
			}
			field := matrixField(g.Field, topic)
			if v, ok := parseNumber(val); ok {
				resp.SetNumber(field, &v)
				answered = true
			} else {
				r.warnf("row %d, %s: unparseable number %q", row, field, val)
				resp.SetText(field, val)
			}
		}
		return answered
	}

	sc, ok := r.set.Scale(g.Scale)
	if !ok {
		r.warnf("%s references unknown scale %q", g.Field, g.Scale)
		return false
	}
	for i := g.Start; i < g.End; i++ {
		if r.raw.Cell(row, i) == "" {
			continue
		}
		topic, rating, ok := schema.SplitMatrixOption(r.colOpts[i])
		if !ok {
			continue
		}
		code, ok := sc.Lookup(rating)
		if !ok {
			r.warnf("row %d, %s: rating %q not in scale %q", row, g.Field, rating, g.Scale)
			continue
		}
		resp.SetNumber(matrixField(g.Field, topic), codeValue(code))
		if code != nil {
			answered = true
		}
	}
	return answered
}

func (r *run) numericOpen(row int, g schema.Group, resp *dataset.Response) bool {
	_, val := r.firstNonEmpty(row, g)
	if val == "" {
		return false
	}
	if v, ok := parseNumber(val); ok {
		resp.SetNumber(g.Field, &v)
		return true
	}
	r.warnf("row %d, %s: unparseable number %q; kept as text", row, g.Field, val)
	resp.SetText(g.Field, val)
	return true
}

func (r *run) openText(row int, g schema.Group, resp *dataset.Response) bool {
	if g.PerColumn {
		any := false
		for i := g.Start; i < g.End; i++ {
			if val := r.raw.Cell(row, i); val != "" {
				resp.SetText(fmt.Sprintf("%s_%d", g.Field, i-g.Start+1), val)
				any = true
			}
		}
		return any
	}
	var parts []string
	for i := g.Start; i < g.End; i++ {
		if val := r.raw.Cell(row, i); val != "" {
			parts = append(parts, val)
		}
	}
	if len(parts) == 0 {
		return false
	}
	resp.SetText(g.Field, strings.Join(parts, " "))
	return true
}

func (r *run) firstCell(row int, g schema.Group) string {
	_, val := r.firstNonEmpty(row, g)
	return val
}

func (r *run) firstNonEmpty(row int, g schema.Group) (int, string) {
	for i := g.Start; i < g.End; i++ {
		if val := r.raw.Cell(row, i); val != "" {
			return i, val
		}
	}
	return -1, ""
}

func (r *run) countNonEmpty(row int, g schema.Group) int {
	n := 0
	for i := g.Start; i < g.End; i++ {
		if r.raw.Cell(row, i) != "" {
			n++
		}
	}
	return n
}

func (r *run) warnf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.warnings = append(r.warnings, msg)
	r.log.Warn(msg)
}

// isMarkerCell reports whether a cell only marks its column as chosen
// instead of carrying the answer text.
func isMarkerCell(cell string) bool {
	switch strings.TrimSpace(cell) {
	case "1", "X", "x", "✓":
		return true
	}
	return false
}

func codeValue(code *int) *float64 {
	if code == nil {
		return nil
	}
	v := float64(*code)
	return &v
}

var numberRe = regexp.MustCompile(`-?\d[\d,]*\.?\d*`)

// parseNumber extracts a numeric value from a free-text cell. Plain numbers
// parse directly; otherwise the first number in the text is used, with
// thousands separators stripped ("~2,000 workers" reads as 2000).
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, true
	}
	m := numberRe.FindString(strings.ReplaceAll(s, ",", ""))
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
