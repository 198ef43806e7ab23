// =============================================================================
// ConNL - Section Location
// =============================================================================
//
// CP sheets split their line items into Section I (non-earmarked) and
// Section II (earmarked). Two strategies are used:
//
// FIXED OFFSET (expenditures, sheet "F6a COG"):
//   The header block has a stable height, so Section I starts at row 8. The
//   "II. Gasto Etiquetado" marker is mandatory; without it the file is
//   rejected with a structure error.
//
// FLEXIBLE SEARCH (revenue, sheet "F5 EAI"):
//   Header heights drift between years, so Section II is found by its title
//   text. A missing Section II is not an error: the whole sheet from the
//   default start row is treated as Section I.
//
// =============================================================================

package transform

import (
	"regexp"
	"strings"

	"github.com/Kabrax96/ConNL-dev/internal/types"
	apperrors "github.com/Kabrax96/ConNL-dev/pkg/errors"
)

const (
	// fixedSectionStart is the first data row of the expenditure sheet.
	fixedSectionStart = 8
	// fixedTextCol holds the concept text of the expenditure sheet.
	fixedTextCol = 1

	// flexibleSectionStart is the default first data row of the revenue sheet.
	flexibleSectionStart = 7
	titleScanCols        = 8
	markerScanCols       = 6
)

var (
	earmarkedSpendingMarker = regexp.MustCompile(`^\s*II\.\s*Gasto Etiquetado`)
	sectionTwoMarker        = regexp.MustCompile(`^\s*II\.`)

	earmarkedTransfersTitle = regexp.MustCompile(`(?i)Transferencias\s+Federales\s+Etiquetadas`)
	financingTitle          = regexp.MustCompile(`(?i)(Ingresos\s+)?Derivados\s+de\s+Financiamientos?`)
)

// firstMatchRow returns the first row in [start, Rows()) where any of the
// first maxCols columns matches re, or -1.
func firstMatchRow(g *types.Grid, re *regexp.Regexp, maxCols, start int) int {
	if start < 0 {
		start = 0
	}
	cols := min(maxCols, g.Cols())
	for r := start; r < g.Rows(); r++ {
		for c := 0; c < cols; c++ {
			if re.MatchString(g.Cell(r, c)) {
				return r
			}
		}
	}
	return -1
}

// LocateFixedSections splits the expenditure sheet at the mandatory
// "II. Gasto Etiquetado" marker.
//
// RETURNS:
//   - Section I: [8, marker)
//   - Section II: [marker+1, first blank concept row) or to end of grid
//   - A structure error when the marker is missing.
func LocateFixedSections(g *types.Grid, sheet string) ([]types.SectionBoundary, error) {
	marker := -1
	for r := 0; r < g.Rows(); r++ {
		if earmarkedSpendingMarker.MatchString(g.Cell(r, fixedTextCol)) {
			marker = r
			break
		}
	}
	if marker < 0 {
		return nil, apperrors.StructureError(apperrors.CodeMissingMarker, sheet,
			"header 'II. Gasto Etiquetado' not found")
	}

	endII := g.Rows()
	for r := marker + 1; r < g.Rows(); r++ {
		if g.Blank(r, fixedTextCol) {
			endII = r
			break
		}
	}

	return []types.SectionBoundary{
		{Section: types.SectionI, Start: fixedSectionStart, End: marker},
		{Section: types.SectionII, Start: marker + 1, End: endII},
	}, nil
}

// LocateFlexibleSections finds the revenue sheet sections by title text.
// The Section II title row itself belongs to neither section.
func LocateFlexibleSections(g *types.Grid) []types.SectionBoundary {
	start := firstMatchRow(g, earmarkedTransfersTitle, titleScanCols, flexibleSectionStart)
	if start < 0 {
		start = firstMatchRow(g, sectionTwoMarker, markerScanCols, flexibleSectionStart)
	}

	if start < 0 {
		return []types.SectionBoundary{
			{Section: types.SectionI, Start: flexibleSectionStart, End: g.Rows()},
		}
	}

	end := firstMatchRow(g, financingTitle, titleScanCols, start+1)
	if end < 0 {
		end = g.Rows()
	}

	return []types.SectionBoundary{
		{Section: types.SectionI, Start: flexibleSectionStart, End: start},
		{Section: types.SectionII, Start: start + 1, End: end},
	}
}

// isBlankConcept treats the literal renderings of a missing value as blank.
func isBlankConcept(s string) bool {
	switch strings.TrimSpace(s) {
	case "", "nan", "None":
		return true
	}
	return false
}
