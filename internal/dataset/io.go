package dataset

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/civistat/embsurvey/internal/utils"
)

// WriteJSON persists the clean dataset for the downstream stages.
func (c *Clean) WriteJSON(path string) error {
	return utils.WriteJSONFile(path, c)
}

// ReadClean loads a persisted clean dataset.
func ReadClean(path string) (*Clean, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading clean dataset: %w", err)
	}
	var c Clean
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing clean dataset %s: %w", path, err)
	}
	return &c, nil
}

// WriteCSV writes a spreadsheet-friendly view of the dataset: one row per
// response, one column per field. Skipped questions and explicit nulls both
// render as empty cells; the JSON file keeps the distinction.
func (c *Clean) WriteCSV(path string) error {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	header := []string{"respondent_id", "collector_id", "start_date", "end_date", "country", "region", "completion_score"}
	for _, f := range c.Fields {
		header = append(header, f.Name)
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for i := range c.Responses {
		r := &c.Responses[i]
		row := []string{
			r.ID, r.CollectorID, r.StartDate, r.EndDate, r.Country, r.Region,
			strconv.FormatFloat(r.Completion, 'f', 3, 64),
		}
		for _, f := range c.Fields {
			row = append(row, r.cell(f))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return utils.SafeWriteFile(path, []byte(sb.String()))
}

func (r *Response) cell(f Field) string {
	if v, ok := r.Numbers[f.Name]; ok {
		if v == nil {
			return ""
		}
		return strconv.FormatFloat(*v, 'f', -1, 64)
	}
	if sel, ok := r.Selections[f.Name]; ok {
		return strings.Join(sel, "; ")
	}
	return r.Texts[f.Name]
}
