package transform

import (
	"regexp"
	"strings"
)

var (
	// periodCode is the balance sheet's "A1. label" grammar.
	periodCode = regexp.MustCompile(`^(A[123]|B[12]|C[12]|E[12]|F[12]|G[12])\.\s*(.*)`)
	// periodCodePrefix is the row mask form of periodCode.
	periodCodePrefix = regexp.MustCompile(`^(A[123]|B[12]|C[12]|E[12]|F[12]|G[12])\.`)

	// lineCode is the "a1) label" grammar of expenditure line items.
	lineCode = regexp.MustCompile(`^\s*([A-Za-z])([0-9]+)\)`)

	primaryCode   = regexp.MustCompile(`^([A-Z])\.\s*`)
	secondaryCode = regexp.MustCompile(`^([a-z]\d+)\)`)
)

// SplitCodeLabel splits "A1. Ingresos de Libre Disposición" into ("A1",
// "Ingresos de Libre Disposición"). Unmatched text comes back unchanged with
// a nil code.
func SplitCodeLabel(text string) (*string, string) {
	m := periodCode.FindStringSubmatch(text)
	if m == nil {
		return nil, text
	}
	code := m[1]
	return &code, m[2]
}

// HasPeriodCode reports whether text starts with an allowed balance code.
func HasPeriodCode(text string) bool {
	return periodCodePrefix.MatchString(text)
}

// ExtractLineCode returns "A1" for "a1) Servicios personales", nil otherwise.
func ExtractLineCode(text string) *string {
	m := lineCode.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	code := strings.ToUpper(m[1]) + m[2]
	return &code
}

// PrimaryKeyCode returns the header code ("A.") of a revenue concept.
func PrimaryKeyCode(text string) *string {
	m := primaryCode.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return nil
	}
	code := m[1] + "."
	return &code
}

// SecondaryKeyCode returns the line-item code ("a1") of a revenue concept.
func SecondaryKeyCode(text string) *string {
	m := secondaryCode.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return nil
	}
	code := m[1]
	return &code
}
