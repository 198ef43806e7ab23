package transform

import (
	"regexp"
	"strings"

	"github.com/Kabrax96/ConNL-dev/internal/types"
)

var totalRow = regexp.MustCompile(`^\s*\([A-Z]\s*=`)

const freeDisposalRevenue = "ingresos de libre disposición"

type revenueRow struct {
	concept string
	amounts []*float64
	section types.Section
}

// excluded applies the revenue row filters: aggregate "(X=...)" totals, the
// bare "Ingresos de Libre Disposición" heading, and empty lines.
func (row revenueRow) excluded() bool {
	noAmounts := allNil(row.amounts...)
	switch {
	case totalRow.MatchString(row.concept):
		return true
	case noAmounts && foldText(row.concept) == freeDisposalRevenue:
		return true
	case noAmounts && isBlankConcept(row.concept):
		return true
	}
	return false
}

// Revenue parses the "F5 EAI" sheet. The concept column and the amount
// columns of each section are detected from the data. A missing Section II
// yields Section I records only.
func (t *Transformer) Revenue(g *types.Grid, year int) (Result[types.RevenueRecord], error) {
	if g.Empty() {
		return resultOf[types.RevenueRecord](nil), nil
	}

	fecha, found := StatementDate(g)
	if !found {
		fecha = YearEnd(year)
	}

	conceptCol := DetectConceptColumn(g, conceptSearchCols)
	log := t.log.WithField("year", year)
	log.Debugf("revenue: concept column %d", conceptCol)

	var rows []revenueRow
	for _, sec := range LocateFlexibleSections(g) {
		if sec.Len() == 0 {
			continue
		}
		cols := DetectAmountColumns(g, sec, conceptCol, amountSearchSpan, amountMinRatio, len(RevenueRoles))
		log.Debugf("revenue: section %s rows [%d,%d) amount columns %v", sec.Section, sec.Start, sec.End, cols)

		for r := sec.Start; r < sec.End; r++ {
			row := revenueRow{
				concept: g.Text(r, conceptCol),
				amounts: make([]*float64, len(cols)),
				section: sec.Section,
			}
			for i, c := range cols {
				row.amounts[i] = amountAt(g, r, c)
			}
			rows = append(rows, row)
		}
	}

	seen := make(map[string]bool)
	var out []types.RevenueRecord
	for _, row := range rows {
		if row.excluded() {
			continue
		}

		primary := PrimaryKeyCode(row.concept)
		secondary := SecondaryKeyCode(row.concept)
		if code := codeKey(primary, secondary); code != "" {
			k := string(row.section) + "|" + code
			if seen[k] {
				continue
			}
			seen[k] = true
		}

		key, err := t.newKey()
		if err != nil {
			return Result[types.RevenueRecord]{}, err
		}
		a := row.amounts
		out = append(out, types.RevenueRecord{
			SurrogateKey:            key,
			Concepto:                row.concept,
			Estimado:                a[0],
			AmpliacionesReducciones: a[1],
			Modificado:              a[2],
			Devengado:               a[3],
			Recaudado:               a[4],
			Diferencia:              a[5],
			ClavePrimaria:           primary,
			ClaveSecundaria:         secondary,
			Fecha:                   fecha,
			Cuarto:                  types.CPLabel,
			Seccion:                 row.section,
		})
	}

	log.Debugf("revenue: %d records", len(out))
	return resultOf(out), nil
}

func codeKey(primary, secondary *string) string {
	var b strings.Builder
	if primary != nil {
		b.WriteString(*primary)
	}
	if secondary != nil {
		b.WriteString(*secondary)
	}
	return b.String()
}
