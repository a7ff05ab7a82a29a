package knowledge

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	colTrigger  = "trigger_word"
	colSynonyms = "synonyms"
	colKeywords = "keywords"
	colResponse = "response"
)

// LoadReport summarizes a CSV load.
type LoadReport struct {
	Rows    int
	Loaded  int
	Skipped []SkippedRow
}

// SkippedRow records a row rejected by Record.Validate.
type SkippedRow struct {
	Line   int
	Reason string
}

// LoadCSV reads the knowledge base file at path.
func LoadCSV(path string) ([]Record, LoadReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, LoadReport{}, fmt.Errorf("open knowledge base: %w", err)
	}
	defer f.Close()

	records, report, err := ParseCSV(f)
	if err != nil {
		return nil, report, fmt.Errorf("parse %s: %w", path, err)
	}
	return records, report, nil
}

// ParseCSV reads knowledge base rows. The header must contain trigger_word
// and either the intent columns (What, Why, How, Symptoms) or a single
// response column, which is loaded as the What answer. Header names are
// case-insensitive and may appear in any order; blank cells are empty strings.
func ParseCSV(r io.Reader) ([]Record, LoadReport, error) {
	var report LoadReport

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, report, fmt.Errorf("empty knowledge base")
	}
	if err != nil {
		return nil, report, fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}

	if _, ok := cols[colTrigger]; !ok {
		return nil, report, fmt.Errorf("missing %s column", colTrigger)
	}

	intentCols := make(map[Intent]int)
	for _, in := range Intents() {
		if idx, ok := cols[strings.ToLower(in.String())]; ok {
			intentCols[in] = idx
		}
	}
	if len(intentCols) == 0 {
		idx, ok := cols[colResponse]
		if !ok {
			return nil, report, fmt.Errorf("need intent columns or a %s column", colResponse)
		}
		intentCols[What] = idx
	}

	cell := func(row []string, name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var records []Record
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, report, fmt.Errorf("read row: %w", err)
		}
		// physical line where the row starts; quoted cells may span lines
		line, _ := cr.FieldPos(0)
		report.Rows++

		rec := Record{
			Trigger:  cell(row, colTrigger),
			Synonyms: splitList(cell(row, colSynonyms)),
			Keywords: splitList(cell(row, colKeywords)),
		}
		for in, idx := range intentCols {
			if idx < len(row) {
				rec.Answers[in] = strings.TrimSpace(row[idx])
			}
		}

		if err := rec.Validate(); err != nil {
			report.Skipped = append(report.Skipped, SkippedRow{Line: line, Reason: err.Error()})
			continue
		}
		records = append(records, rec)
	}

	report.Loaded = len(records)
	return records, report, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
