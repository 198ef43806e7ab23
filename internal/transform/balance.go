package transform

import (
	"github.com/Kabrax96/ConNL-dev/internal/types"
)

const balanceTextCol = 1

// BalanceRoles are the amount columns of the balance sheet, in order, as
// they appear in the "type" column of the output.
var BalanceRoles = []string{"estimated_or_approved", "devengado", "recaudado_pagado"}

type balanceRow struct {
	code    string
	label   string
	amounts []*float64
}

// Balance reshapes the "F4 BAP" sheet into long format. Only rows whose text
// starts with a detailed code (A1., B2., ...) are kept, the first occurrence
// of each code wins, and each kept row yields one record per amount role.
// Records are ordered by role, then by sheet row.
func (t *Transformer) Balance(g *types.Grid, year int) (Result[types.BalanceRecord], error) {
	if g.Empty() {
		return resultOf[types.BalanceRecord](nil), nil
	}

	seen := make(map[string]bool)
	var rows []balanceRow
	for r := 0; r < g.Rows(); r++ {
		text := g.Cell(r, balanceTextCol)
		if !HasPeriodCode(text) {
			continue
		}
		code, label := SplitCodeLabel(text)
		if code == nil || seen[*code] {
			continue
		}
		seen[*code] = true

		amounts := make([]*float64, len(BalanceRoles))
		for i := range BalanceRoles {
			amounts[i] = ParseAmount(g.Cell(r, balanceTextCol+1+i))
		}
		rows = append(rows, balanceRow{code: *code, label: label, amounts: amounts})
	}

	yearQuarter := BalancePeriodLabel(year)
	fullDate := YearEnd(year)

	out := make([]types.BalanceRecord, 0, len(rows)*len(BalanceRoles))
	for i, role := range BalanceRoles {
		for _, row := range rows {
			key, err := t.newKey()
			if err != nil {
				return Result[types.BalanceRecord]{}, err
			}
			out = append(out, types.BalanceRecord{
				SurrogateKey: key,
				Concept:      row.code,
				Sublabel:     row.label,
				YearQuarter:  yearQuarter,
				FullDate:     fullDate,
				Type:         role,
				Amount:       row.amounts[i],
			})
		}
	}

	t.log.WithField("year", year).Debugf("balance: %d codes, %d records", len(rows), len(out))
	return resultOf(out), nil
}
