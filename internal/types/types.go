// =============================================================================
// ConNL - Shared Types
// =============================================================================
//
// This package contains types shared across modules to avoid import cycles.
// Types defined here are used by:
//   - transform (produces records from grids)
//   - store (persists records)
//   - validation, export, pipeline
//
// =============================================================================

package types

import "strings"

// =============================================================================
// GRID
// =============================================================================

// Grid is a headerless, positionally addressed sheet. Rows may be ragged;
// blank and missing cells are both the empty string.
type Grid struct {
	rows [][]string
	cols int
}

// NewGrid copies rows into a Grid, trimming nothing.
func NewGrid(rows [][]string) *Grid {
	g := &Grid{rows: make([][]string, len(rows))}
	for i, r := range rows {
		g.rows[i] = append([]string(nil), r...)
		if len(r) > g.cols {
			g.cols = len(r)
		}
	}
	return g
}

// Rows returns the number of rows. A nil grid has zero rows.
func (g *Grid) Rows() int {
	if g == nil {
		return 0
	}
	return len(g.rows)
}

// Cols returns the width of the widest row.
func (g *Grid) Cols() int {
	if g == nil {
		return 0
	}
	return g.cols
}

// Cell returns the value at (r, c), or "" outside the grid.
func (g *Grid) Cell(r, c int) string {
	if g == nil || r < 0 || r >= len(g.rows) || c < 0 || c >= len(g.rows[r]) {
		return ""
	}
	return g.rows[r][c]
}

// Text returns the trimmed value at (r, c).
func (g *Grid) Text(r, c int) string {
	return strings.TrimSpace(g.Cell(r, c))
}

// Blank reports whether the cell at (r, c) is empty after trimming.
func (g *Grid) Blank(r, c int) bool {
	return g.Text(r, c) == ""
}

// Row returns a copy of row r padded to Cols().
func (g *Grid) Row(r int) []string {
	out := make([]string, g.Cols())
	for c := range out {
		out[c] = g.Cell(r, c)
	}
	return out
}

// Empty reports whether the grid has no non-blank cell.
func (g *Grid) Empty() bool {
	for r := 0; r < g.Rows(); r++ {
		for c := 0; c < g.Cols(); c++ {
			if !g.Blank(r, c) {
				return false
			}
		}
	}
	return true
}

// =============================================================================
// SECTIONS AND PERIODS
// =============================================================================

// Section tags the two mandated sub-groupings of a report sheet.
type Section string

const (
	SectionI  Section = "I"
	SectionII Section = "II"
)

// SectionBoundary is a half-open row range [Start, End) of one section.
type SectionBoundary struct {
	Section Section
	Start   int
	End     int
}

// Len returns the number of rows covered by the boundary.
func (b SectionBoundary) Len() int {
	if b.End <= b.Start {
		return 0
	}
	return b.End - b.Start
}

// CPLabel is the annual cumulative period tag.
const CPLabel = "CP"

// =============================================================================
// RECORDS
// =============================================================================

// Record is a row ready for persistence.
type Record interface {
	// Key returns the surrogate key.
	Key() string
	// Values returns column values in table column order.
	Values() []any
	// PeriodLabel and PeriodDate expose the period fields for validation.
	PeriodLabel() string
	PeriodDate() string
}

// BalanceRecord is one concept × amount-type row of the budget balance.
type BalanceRecord struct {
	SurrogateKey string   `csv:"surrogate_key"`
	Concept      string   `csv:"concept"`
	Sublabel     string   `csv:"sublabel"`
	YearQuarter  string   `csv:"year_quarter"`
	FullDate     string   `csv:"full_date"`
	Type         string   `csv:"type"`
	Amount       *float64 `csv:"amount"`
}

func (r BalanceRecord) Key() string         { return r.SurrogateKey }
func (r BalanceRecord) PeriodLabel() string { return r.YearQuarter }
func (r BalanceRecord) PeriodDate() string  { return r.FullDate }

func (r BalanceRecord) Values() []any {
	return []any{r.SurrogateKey, r.Concept, r.Sublabel, r.YearQuarter, r.FullDate, r.Type, r.Amount}
}

// ExpenditureRecord is one line item of the expenditure statement by object
// of spending.
type ExpenditureRecord struct {
	SurrogateKey            string   `csv:"surrogate_key"`
	Code                    string   `csv:"Codigo"`
	Concept                 string   `csv:"Concepto"`
	Aprobado                *float64 `csv:"Aprobado"`
	AmpliacionesReducciones *float64 `csv:"Ampliaciones/Reducciones"`
	Modificado              *float64 `csv:"Modificado"`
	Devengado               *float64 `csv:"Devengado"`
	Pagado                  *float64 `csv:"Pagado"`
	Subejercicio            *float64 `csv:"Subejercicio"`
	Fecha                   string   `csv:"Fecha"`
	Cuarto                  string   `csv:"Cuarto"`
	Seccion                 Section  `csv:"Seccion"`
}

func (r ExpenditureRecord) Key() string         { return r.SurrogateKey }
func (r ExpenditureRecord) PeriodLabel() string { return r.Cuarto }
func (r ExpenditureRecord) PeriodDate() string  { return r.Fecha }

func (r ExpenditureRecord) Values() []any {
	return []any{
		r.SurrogateKey, r.Code, r.Concept,
		r.Aprobado, r.AmpliacionesReducciones, r.Modificado, r.Devengado, r.Pagado, r.Subejercicio,
		r.Fecha, r.Cuarto, string(r.Seccion),
	}
}

// RevenueRecord is one line item of the detailed revenue statement.
type RevenueRecord struct {
	SurrogateKey            string   `csv:"surrogate_key"`
	Concepto                string   `csv:"concepto"`
	Estimado                *float64 `csv:"estimado"`
	AmpliacionesReducciones *float64 `csv:"ampliaciones_reducciones"`
	Modificado              *float64 `csv:"modificado"`
	Devengado               *float64 `csv:"devengado"`
	Recaudado               *float64 `csv:"recaudado"`
	Diferencia              *float64 `csv:"diferencia"`
	ClavePrimaria           *string  `csv:"clave_primaria"`
	ClaveSecundaria         *string  `csv:"clave_secundaria"`
	Fecha                   string   `csv:"fecha"`
	Cuarto                  string   `csv:"cuarto"`
	Seccion                 Section  `csv:"seccion"`
}

func (r RevenueRecord) Key() string         { return r.SurrogateKey }
func (r RevenueRecord) PeriodLabel() string { return r.Cuarto }
func (r RevenueRecord) PeriodDate() string  { return r.Fecha }

func (r RevenueRecord) Values() []any {
	return []any{
		r.SurrogateKey, r.Concepto,
		r.Estimado, r.AmpliacionesReducciones, r.Modificado, r.Devengado, r.Recaudado, r.Diferencia,
		r.ClavePrimaria, r.ClaveSecundaria,
		r.Fecha, r.Cuarto, string(r.Seccion),
	}
}

// Sectioned is implemented by records that belong to a report section.
type Sectioned interface {
	SectionTag() Section
}

func (r ExpenditureRecord) SectionTag() Section { return r.Seccion }
func (r RevenueRecord) SectionTag() Section     { return r.Seccion }
