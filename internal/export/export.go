// =============================================================================
// ConNL - Record Export
// =============================================================================
//
// Writes transformed batches to files for inspection or hand-off, without
// touching the database:
//
//   CSV   one header row from the `csv` struct tags, then one line per record
//   XLSX  one sheet with the table column names as header
//
// File names come from a template, e.g. "{pipeline}_{year}_{timestamp}.csv".
//
// =============================================================================

package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/Kabrax96/ConNL-dev/internal/types"
	"github.com/Kabrax96/ConNL-dev/internal/xlsxparser"
)

// WriteCSV marshals records with a header taken from their csv tags.
func WriteCSV[T any](w io.Writer, records []T) error {
	if err := gocsv.Marshal(records, w); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return nil
}

// WriteXLSX writes records to a single-sheet workbook.
func WriteXLSX(w io.Writer, sheet string, header []string, records []types.Record) error {
	rows := make([][]any, len(records))
	for i, r := range records {
		rows[i] = r.Values()
	}
	return xlsxparser.WriteRows(w, sheet, header, rows)
}

// =============================================================================
// FILE HELPERS
// =============================================================================

// OutputFileName expands a file name template.
//
// PARAMETERS:
//   - format: template with placeholders
//     {timestamp} - YYYYMMDD_HHMMSS
//     {date}      - YYYYMMDD
//     plus one {key} per entry in params
//   - params: placeholder values
//   - now: time used for the date placeholders
//
// EXAMPLE:
//
//	format: "{pipeline}_{year}_{date}.csv"
//	params: {"pipeline": "balance_cp", "year": "2023"}
//	output: "balance_cp_2023_20240115.csv"
func OutputFileName(format string, params map[string]string, now time.Time) string {
	replacements := map[string]string{
		"{timestamp}": now.Format("20060102_150405"),
		"{date}":      now.Format("20060102"),
	}
	for key, value := range params {
		replacements["{"+key+"}"] = value
	}

	result := format
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}
	return result
}

// Create opens path for writing, creating parent directories.
func Create(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	return f, nil
}

// IsXLSX reports whether path names a workbook.
func IsXLSX(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".xlsx")
}
