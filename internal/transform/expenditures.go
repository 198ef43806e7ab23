package transform

import (
	"strings"

	"github.com/Kabrax96/ConNL-dev/internal/types"
)

// Aprobado through Subejercicio occupy six consecutive columns after the
// concept text.
const (
	expenditureFirstAmountCol = 2
	expenditureAmountCount    = 6
)

// Expenditures parses the "F6a COG" sheet. Line items must carry an "a1)"
// style code; duplicates within a section keep the first row. A sheet
// without the "II. Gasto Etiquetado" marker is rejected.
func (t *Transformer) Expenditures(g *types.Grid, year int) (Result[types.ExpenditureRecord], error) {
	if g.Empty() {
		return resultOf[types.ExpenditureRecord](nil), nil
	}

	sections, err := LocateFixedSections(g, SheetExpenditures)
	if err != nil {
		return Result[types.ExpenditureRecord]{}, err
	}

	fecha := YearEnd(year)
	var out []types.ExpenditureRecord
	for _, sec := range sections {
		seen := make(map[string]bool)
		for r := sec.Start; r < sec.End; r++ {
			concept := g.Cell(r, fixedTextCol)
			code := ExtractLineCode(concept)
			if code == nil || seen[*code] {
				continue
			}
			seen[*code] = true

			a := make([]*float64, expenditureAmountCount)
			for i := range a {
				a[i] = ParseAmount(g.Cell(r, expenditureFirstAmountCol+i))
			}

			key, err := t.newKey()
			if err != nil {
				return Result[types.ExpenditureRecord]{}, err
			}
			out = append(out, types.ExpenditureRecord{
				SurrogateKey:            key,
				Code:                    *code,
				Concept:                 strings.TrimSpace(concept),
				Aprobado:                a[0],
				AmpliacionesReducciones: a[1],
				Modificado:              a[2],
				Devengado:               a[3],
				Pagado:                  a[4],
				Subejercicio:            a[5],
				Fecha:                   fecha,
				Cuarto:                  types.CPLabel,
				Seccion:                 sec.Section,
			})
		}
	}

	t.log.WithField("year", year).Debugf("expenditures: %d records", len(out))
	return resultOf(out), nil
}
