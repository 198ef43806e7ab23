// =============================================================================
// ConNL - XLSX Grid Reader
// =============================================================================
//
// This module reads one sheet of a published CP workbook into a headerless
// types.Grid. No header detection happens here; the transform layer locates
// sections and columns positionally.
//
// CELL VALUES:
//   Cells are read raw (RawCellValue), so numeric cells come back as their
//   stored value ("1234.5") rather than the display format ("1,234.50").
//   Text cells such as "(50)" are left untouched for the amount normalizer.
//
// =============================================================================

package xlsxparser

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/Kabrax96/ConNL-dev/internal/types"
)

// =============================================================================
// READING
// =============================================================================

// ReadGrid reads the named sheet from an XLSX stream. An empty sheet name
// selects the first sheet.
//
// RETURNS:
//   - The sheet as a Grid.
//   - An error if the workbook cannot be opened or the sheet does not exist.
func ReadGrid(r io.Reader, sheet string) (*types.Grid, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
		if sheet == "" {
			return nil, fmt.Errorf("workbook has no sheets")
		}
	}

	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("sheet %q not found (available: %v)", sheet, f.GetSheetList())
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read rows of sheet %q: %w", sheet, err)
	}

	return types.NewGrid(rows), nil
}

// ReadGridBytes is ReadGrid over an in-memory workbook.
func ReadGridBytes(data []byte, sheet string) (*types.Grid, error) {
	return ReadGrid(bytes.NewReader(data), sheet)
}

// =============================================================================
// WRITING
// =============================================================================

// WriteGrid writes rows, starting at A1, into a new single-sheet workbook.
// Cells that parse as numbers are stored as numbers.
func WriteGrid(w io.Writer, sheet string, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	if sheet == "" {
		sheet = "Sheet1"
	}
	if sheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			return fmt.Errorf("failed to name sheet: %w", err)
		}
	}

	for r, row := range rows {
		for c, v := range row {
			if v == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			var value any = v
			if n, err := strconv.ParseFloat(v, 64); err == nil && !math.IsNaN(n) && !math.IsInf(n, 0) {
				value = n
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return fmt.Errorf("failed to set %s: %w", cell, err)
			}
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// WriteRows writes a header row and typed rows into a new workbook. Nil
// pointers are left blank; *float64 and *string values are dereferenced.
func WriteRows(w io.Writer, sheet string, header []string, rows [][]any) error {
	f := excelize.NewFile()
	defer f.Close()

	if sheet != "" && sheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			return fmt.Errorf("failed to name sheet: %w", err)
		}
	} else {
		sheet = "Sheet1"
	}

	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, row := range rows {
		vals := make([]any, len(row))
		for j, v := range row {
			vals[j] = deref(v)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &vals); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func deref(v any) any {
	switch x := v.(type) {
	case *float64:
		if x == nil {
			return nil
		}
		return *x
	case *string:
		if x == nil {
			return nil
		}
		return *x
	default:
		return v
	}
}
