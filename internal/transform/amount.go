// =============================================================================
// ConNL - Amount Normalization
// =============================================================================
//
// Published CP sheets mix accounting conventions in the same column:
//   - "(50)"   parenthesized negatives
//   - "50-"    trailing minus
//   - "−50"    Unicode minus sign (U+2212)
//   - "$ 1,000" currency symbols, thousands separators and NBSP padding
//
// Sign conventions are normalized first, then the artifacts are stripped
// and the result is parsed. Anything that still fails to parse is "no
// value", never an error.
//
// =============================================================================

package transform

import (
	"strings"

	"github.com/shopspring/decimal"
)

const unicodeMinus = "\u2212"

var amountStripper = strings.NewReplacer(
	"$", "",
	",", "",
	" ", "",
	"\u00a0", "",
	"\u202f", "",
)

// NormalizeAmount canonicalizes the sign of an accounting-style amount.
// The second return is false when the cell holds no value.
//
// EXAMPLES:
//
//	"(50)" -> "-50"
//	"50-"  -> "-50"
//	"−50"  -> "-50"
func NormalizeAmount(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" || strings.EqualFold(s, "nan") {
		return "", false
	}

	s = strings.ReplaceAll(s, unicodeMinus, "-")

	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") && len(s) >= 2 {
		s = "-" + strings.TrimSpace(s[1:len(s)-1])
	}

	if strings.HasSuffix(s, "-") && !strings.HasPrefix(s, "-") {
		s = "-" + strings.TrimSpace(s[:len(s)-1])
	}

	return s, true
}

// CleanAmount strips currency and spacing artifacts and parses the result.
// It does not interpret accounting negatives; use ParseAmount for raw cells.
func CleanAmount(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") {
		return nil
	}
	s = amountStripper.Replace(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	f, _ := d.Float64()
	return &f
}

// ParseAmount normalizes then parses a raw cell. Nil means no value.
func ParseAmount(raw string) *float64 {
	s, ok := NormalizeAmount(raw)
	if !ok {
		return nil
	}
	return CleanAmount(s)
}

// allNil reports whether every amount is missing.
func allNil(amounts ...*float64) bool {
	for _, a := range amounts {
		if a != nil {
			return false
		}
	}
	return true
}
