package transform

import (
	"regexp"

	"github.com/Kabrax96/ConNL-dev/internal/types"
)

const (
	conceptSearchCols = 16
	amountSearchSpan  = 10
	amountMinRatio    = 0.20

	// NoColumn marks an amount role with no qualifying column.
	NoColumn = -1
)

// RevenueRoles are the amount roles of the revenue sheet, in column order.
var RevenueRoles = []string{
	"estimado",
	"ampliaciones_reducciones",
	"modificado",
	"devengado",
	"recaudado",
	"diferencia",
}

var (
	headerLike   = regexp.MustCompile(`^[A-Z]\.\s*`)
	lineItemLike = regexp.MustCompile(`^[a-z]\d+\)`)
)

// DetectConceptColumn picks the column, among the first maxCols, whose
// trimmed cells most often look like "A." headers or "a1)" line items.
// Ties go to the leftmost column. With no columns at all it returns 1.
func DetectConceptColumn(g *types.Grid, maxCols int) int {
	bestCol, bestScore := 1, -1
	cols := min(maxCols, g.Cols())
	for c := 0; c < cols; c++ {
		score := 0
		for r := 0; r < g.Rows(); r++ {
			s := g.Text(r, c)
			if headerLike.MatchString(s) {
				score++
			}
			if lineItemLike.MatchString(s) {
				score++
			}
		}
		if score > bestScore {
			bestCol, bestScore = c, score
		}
	}
	return bestCol
}

// DetectAmountColumns returns one column index per role for the rows of b.
// A column to the right of conceptCol qualifies when at least minRatio of
// its cells parse as amounts; the first len(roles) qualifying columns are
// assigned in order and the rest are NoColumn.
func DetectAmountColumns(g *types.Grid, b types.SectionBoundary, conceptCol, span int, minRatio float64, roles int) []int {
	out := make([]int, 0, roles)
	n := b.Len()
	if n > 0 {
		end := min(g.Cols(), conceptCol+1+span)
		for c := conceptCol + 1; c < end && len(out) < roles; c++ {
			parsed := 0
			for r := b.Start; r < b.End; r++ {
				if ParseAmount(g.Cell(r, c)) != nil {
					parsed++
				}
			}
			if float64(parsed)/float64(n) >= minRatio {
				out = append(out, c)
			}
		}
	}
	for len(out) < roles {
		out = append(out, NoColumn)
	}
	return out
}

// amountAt parses column c of row r, treating NoColumn as missing.
func amountAt(g *types.Grid, r, c int) *float64 {
	if c == NoColumn {
		return nil
	}
	return ParseAmount(g.Cell(r, c))
}
