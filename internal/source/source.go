// =============================================================================
// ConNL - Raw File Sources
// =============================================================================
//
// Raw CP workbooks live under one prefix per dataset, either in an S3 bucket
// or in a local directory with the same layout:
//
//   finanzas/Balance_Presupuestario_CP/raw/F4_Balance_Presupuestario_LDF_CP2023.xlsx
//   finanzas/Egresos_Detallado_CP/raw/F6_a_EAPED_Clas_Obj_Gas_LDF_CP2023.xlsx
//   finanzas/Ingresos_Detallado_CP/raw/F5_Edo_Ana_Ing_Det_LDF_CP2023.xlsx
//
// A missing file is reported as ErrNotFound, never as a panic, so callers
// can skip the year and continue.
//
// =============================================================================

package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/Kabrax96/ConNL-dev/internal/csvparser"
	"github.com/Kabrax96/ConNL-dev/internal/types"
	"github.com/Kabrax96/ConNL-dev/internal/xlsxparser"
	apperrors "github.com/Kabrax96/ConNL-dev/pkg/errors"
)

// ErrNotFound is returned when an object or file does not exist.
var ErrNotFound = errors.New("not found")

// Source reads raw objects by key.
type Source interface {
	// Open returns the full content of the object at key.
	Open(ctx context.Context, key string) ([]byte, error)
	// List returns every key under prefix.
	List(ctx context.Context, prefix string) ([]string, error)
	// Describe renders key as a human-readable location for logs.
	Describe(key string) string
}

// =============================================================================
// LAYOUT
// =============================================================================

// Layout describes where and how one dataset's yearly files are stored.
type Layout struct {
	// Prefix is the key prefix, with a trailing slash.
	Prefix string
	// Template is the file name with "{year}" as placeholder.
	Template string
	// Pattern matches a file name and captures the year in group 1.
	Pattern *regexp.Regexp
	// Sheet is the worksheet to read.
	Sheet string
}

// FileName returns the expected file name for year.
func (l Layout) FileName(year int) string {
	return strings.ReplaceAll(l.Template, "{year}", strconv.Itoa(year))
}

// Key returns the expected object key for year.
func (l Layout) Key(year int) string {
	return strings.TrimSuffix(l.Prefix, "/") + "/" + l.FileName(year)
}

// yearOf extracts the year from key's base name, or 0.
func (l Layout) yearOf(key string) int {
	m := l.Pattern.FindStringSubmatch(path.Base(key))
	if m == nil {
		return 0
	}
	y, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return y
}

// =============================================================================
// DISCOVERY
// =============================================================================

// FindYears lists the prefix and returns the distinct years, ascending.
func FindYears(ctx context.Context, src Source, l Layout) ([]int, error) {
	keys, err := src.List(ctx, l.Prefix)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CategorySource, apperrors.CodeListFailure,
			fmt.Sprintf("failed to list %s", src.Describe(l.Prefix)))
	}

	seen := make(map[int]bool)
	var years []int
	for _, k := range keys {
		if y := l.yearOf(k); y > 0 && !seen[y] {
			seen[y] = true
			years = append(years, y)
		}
	}
	sort.Ints(years)
	return years, nil
}

// LatestYear returns the most recent year available.
func LatestYear(ctx context.Context, src Source, l Layout) (int, error) {
	years, err := FindYears(ctx, src, l)
	if err != nil {
		return 0, err
	}
	if len(years) == 0 {
		return 0, apperrors.New(apperrors.CategorySource, apperrors.CodeNoYears,
			fmt.Sprintf("no file matching %s under %s", l.Template, src.Describe(l.Prefix)))
	}
	return years[len(years)-1], nil
}

// Locate resolves the key of year's file: the canonical key when it exists,
// otherwise the first listed key whose name matches the pattern for year.
func Locate(ctx context.Context, src Source, l Layout, year int) (string, error) {
	direct := l.Key(year)
	keys, err := src.List(ctx, l.Prefix)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.CategorySource, apperrors.CodeListFailure,
			fmt.Sprintf("failed to list %s", src.Describe(l.Prefix)))
	}

	var fallback string
	for _, k := range keys {
		if k == direct {
			return direct, nil
		}
		if fallback == "" && l.yearOf(k) == year {
			fallback = k
		}
	}
	if fallback != "" {
		return fallback, nil
	}
	return "", apperrors.Wrap(ErrNotFound, apperrors.CategorySource, apperrors.CodeNotFound,
		fmt.Sprintf("no file for year %d under %s", year, src.Describe(l.Prefix)))
}

// =============================================================================
// READING
// =============================================================================

// ReadGrid fetches key and parses the sheet. ".csv" keys are read as CSV;
// everything else as XLSX.
//
// RETURNS:
//   - The grid.
//   - A source error wrapping ErrNotFound when the object is missing, or a
//     source error with CodeUnreadable when it cannot be parsed.
func ReadGrid(ctx context.Context, src Source, key, sheet string, csvSettings csvparser.Settings) (*types.Grid, error) {
	data, err := src.Open(ctx, key)
	if err != nil {
		code := apperrors.CodeUnreadable
		if errors.Is(err, ErrNotFound) {
			code = apperrors.CodeNotFound
		}
		return nil, apperrors.Wrap(err, apperrors.CategorySource, code,
			fmt.Sprintf("failed to open %s", src.Describe(key)))
	}

	var g *types.Grid
	if strings.EqualFold(path.Ext(key), ".csv") {
		g, err = csvparser.ReadGrid(bytes.NewReader(data), csvSettings)
	} else {
		g, err = xlsxparser.ReadGridBytes(data, sheet)
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CategorySource, apperrors.CodeUnreadable,
			fmt.Sprintf("failed to parse %s", src.Describe(key)))
	}
	return g, nil
}
