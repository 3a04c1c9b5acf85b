// Package export writes batch results as spreadsheets.
package export

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/poiesic/tabulate/core"
	"github.com/xuri/excelize/v2"
)

// Sheet names of an exported workbook.
const (
	ResultsSheet  = "Results"
	FailuresSheet = "Failures"
)

// ErrNoResult is returned for a batch record without a result.
var ErrNoResult = errors.New("batch has no result")

// BatchXLSX renders a batch as a workbook: one row per document and one
// column per requested attribute on the Results sheet, and the dropped
// documents on the Failures sheet when there are any.
func BatchXLSX(record *core.BatchRecord) ([]byte, error) {
	if record == nil || record.Result == nil {
		return nil, ErrNoResult
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ResultsSheet); err != nil {
		return nil, err
	}
	if err := writeResults(f, attributeNames(record), record.Result); err != nil {
		return nil, fmt.Errorf("results sheet: %w", err)
	}

	if len(record.Result.Failures) > 0 || record.Result.Failure != nil {
		if _, err := f.NewSheet(FailuresSheet); err != nil {
			return nil, err
		}
		if err := writeFailures(f, record.Result); err != nil {
			return nil, fmt.Errorf("failures sheet: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

// attributeNames returns the column order: the request's attributes, or the
// answer keys of the first document for records without a request.
func attributeNames(record *core.BatchRecord) []string {
	var names []string
	if record.Request != nil {
		for _, a := range record.Request.Attributes {
			names = append(names, a.Name)
		}
		return names
	}
	if len(record.Result.Documents) > 0 {
		for name := range record.Result.Documents[0].Answer {
			names = append(names, name)
		}
	}
	return names
}

func writeResults(f *excelize.File, attributes []string, result *core.BatchResult) error {
	header := make([]any, 0, len(attributes)+1)
	header = append(header, "File")
	for _, name := range attributes {
		header = append(header, name)
	}
	if err := f.SetSheetRow(ResultsSheet, "A1", &header); err != nil {
		return err
	}

	for i, doc := range result.Documents {
		row := make([]any, 0, len(attributes)+1)
		row = append(row, doc.FileName)
		for _, name := range attributes {
			row = append(row, cellValue(doc.Answer[name]))
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(ResultsSheet, cell, &row); err != nil {
			return err
		}
	}

	_ = f.SetColWidth(ResultsSheet, "A", "A", 32)
	return f.SetPanes(ResultsSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func writeFailures(f *excelize.File, result *core.BatchResult) error {
	rows := [][]any{{"File", "Error"}}
	if result.Failure != nil {
		rows = append(rows, []any{"(batch)", result.Failure.Error + ": " + result.Failure.Cause})
	}
	for _, failure := range result.Failures {
		rows = append(rows, []any{failure.FileName, failure.Error})
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(FailuresSheet, cell, &row); err != nil {
			return err
		}
	}
	_ = f.SetColWidth(FailuresSheet, "A", "A", 32)
	_ = f.SetColWidth(FailuresSheet, "B", "B", 80)
	return nil
}

// cellValue keeps scalars as they are and renders everything else as JSON.
func cellValue(v any) any {
	switch v := v.(type) {
	case nil:
		return ""
	case string, bool, float64, float32, int, int64:
		return v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	}
}
