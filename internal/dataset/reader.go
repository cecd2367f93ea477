package dataset

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Raw is an unparsed survey export: the two header rows plus the data rows,
// every row padded to the header width.
type Raw struct {
	Questions []string
	Options   []string
	Rows      [][]string
}

// ReadRaw loads a survey export. The format is chosen by file extension:
// .xlsx is read via its first sheet, everything else is parsed as delimited
// text with the delimiter sniffed from the first line.
func ReadRaw(path string) (*Raw, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return readXLSX(path)
	}
	return readDelimited(path)
}

func readDelimited(path string) (*Raw, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening export: %w", err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	delim, err := sniffDelimiter(br)
	if err != nil {
		return nil, fmt.Errorf("reading export %s: %w", path, err)
	}

	r := csv.NewReader(br)
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing export %s: %w", path, err)
	}
	return fromRecords(records)
}

// sniffDelimiter picks tab or comma from the first line without consuming it.
func sniffDelimiter(br *bufio.Reader) (rune, error) {
	peek, err := br.Peek(8192)
	if len(peek) == 0 {
		if err != nil {
			return 0, err
		}
		return 0, fmt.Errorf("file is empty")
	}
	line := string(peek)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	if strings.Count(line, "\t") > strings.Count(line, ",") {
		return '\t', nil
	}
	return ',', nil
}

func readXLSX(path string) (*Raw, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook %s has no sheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}
	return fromRecords(rows)
}

func fromRecords(records [][]string) (*Raw, error) {
	if len(records) < 2 {
		return nil, fmt.Errorf("export has %d rows; need the two-row header block", len(records))
	}
	width := len(records[0])
	if len(records[1]) > width {
		width = len(records[1])
	}
	raw := &Raw{
		Questions: pad(records[0], width),
		Options:   pad(records[1], width),
	}
	for i, rec := range records[2:] {
		if blankRow(rec) {
			continue
		}
		if len(rec) > width {
			return nil, fmt.Errorf("row %d has %d cells, wider than the %d-column header block", i+3, len(rec), width)
		}
		raw.Rows = append(raw.Rows, pad(rec, width))
	}
	return raw, nil
}

func pad(row []string, width int) []string {
	if len(row) >= width {
		return row[:width]
	}
	out := make([]string, width)
	copy(out, row)
	return out
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Cell returns the trimmed cell at (row, col) of the data rows.
func (r *Raw) Cell(row, col int) string {
	return strings.TrimSpace(r.Rows[row][col])
}
