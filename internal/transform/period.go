package transform

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/Kabrax96/ConNL-dev/internal/types"
)

const (
	dateScanRows = 8
	dateScanCols = 12
)

var statementDate = regexp.MustCompile(`(?i)al\s+(\d{1,2})\s+de\s+(\w+)\s+de\s+(\d{4})`)

var spanishMonths = map[string]int{
	"enero": 1, "febrero": 2, "marzo": 3, "abril": 4,
	"mayo": 5, "junio": 6, "julio": 7, "agosto": 8,
	"septiembre": 9, "setiembre": 9, "octubre": 10, "noviembre": 11, "diciembre": 12,
}

// foldText lowercases and NFC-normalizes s so composed and decomposed
// accents compare equal.
func foldText(s string) string {
	return strings.ToLower(norm.NFC.String(strings.TrimSpace(s)))
}

// YearEnd returns "YYYY-12-31".
func YearEnd(year int) string {
	return fmt.Sprintf("%d-12-31", year)
}

// BalancePeriodLabel returns the balance sheet's period tag, "YYYY_CP".
func BalancePeriodLabel(year int) string {
	return fmt.Sprintf("%d_%s", year, types.CPLabel)
}

// StatementDate looks for "al 31 de diciembre de 2024" in the top rows of
// the sheet. Unknown month names fall back to December. Matches that are not
// calendar dates ("31 de junio") are ignored.
func StatementDate(g *types.Grid) (string, bool) {
	rows := min(dateScanRows, g.Rows())
	cols := min(dateScanCols, g.Cols())
	for r := 0; r < rows; r++ {
		parts := make([]string, cols)
		for c := 0; c < cols; c++ {
			parts[c] = g.Text(r, c)
		}
		m := statementDate.FindStringSubmatch(strings.Join(parts, " "))
		if m == nil {
			continue
		}
		day, _ := strconv.Atoi(m[1])
		year, _ := strconv.Atoi(m[3])
		month, ok := spanishMonths[foldText(m[2])]
		if !ok {
			month = 12
		}
		d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		if d.Year() != year || int(d.Month()) != month || d.Day() != day {
			continue
		}
		return d.Format(time.DateOnly), true
	}
	return "", false
}
