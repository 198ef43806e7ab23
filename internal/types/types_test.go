package types

import "testing"

func TestGridBoundsChecked(t *testing.T) {
	g := NewGrid([][]string{
		{"", "A1. Ingresos", "100"},
		{"", " "},
	})

	tests := []struct {
		name string
		r, c int
		want string
	}{
		{"in range", 0, 1, "A1. Ingresos"},
		{"ragged row", 1, 2, ""},
		{"row past end", 5, 0, ""},
		{"negative col", 0, -1, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.Cell(tt.r, tt.c); got != tt.want {
				t.Errorf("Cell(%d,%d) = %q, want %q", tt.r, tt.c, got, tt.want)
			}
		})
	}

	if g.Rows() != 2 || g.Cols() != 3 {
		t.Errorf("dims = %dx%d, want 2x3", g.Rows(), g.Cols())
	}
	if !g.Blank(1, 1) {
		t.Error("whitespace cell should be blank")
	}
	if row := g.Row(1); len(row) != 3 {
		t.Errorf("Row should be padded to width, got %v", row)
	}
}

func TestNilGrid(t *testing.T) {
	var g *Grid
	if g.Rows() != 0 || g.Cols() != 0 || g.Cell(0, 0) != "" || !g.Empty() {
		t.Error("nil grid should behave as empty")
	}
}

func TestRecordValuesMatchColumns(t *testing.T) {
	amount := 5.0
	b := BalanceRecord{SurrogateKey: "k", Concept: "A1", Type: "devengado", Amount: &amount}
	if got := len(b.Values()); got != 7 {
		t.Errorf("balance values = %d, want 7", got)
	}
	e := ExpenditureRecord{SurrogateKey: "k", Seccion: SectionII}
	vals := e.Values()
	if len(vals) != 12 || vals[11] != "II" {
		t.Errorf("expenditure values = %v", vals)
	}
	r := RevenueRecord{SurrogateKey: "k"}
	if got := len(r.Values()); got != 13 {
		t.Errorf("revenue values = %d, want 13", got)
	}
}
