package xlsxparser

import (
	"bytes"
	"testing"
)

func TestWriteThenReadGrid(t *testing.T) {
	rows := [][]string{
		{"", "Balance Presupuestario - LDF"},
		{},
		{"", "A1. Ingresos de Libre Disposición", "1000", "(50)", "1234.5"},
		{"", "B1. Transferencias", "", "40"},
	}

	var buf bytes.Buffer
	if err := WriteGrid(&buf, "F4 BAP", rows); err != nil {
		t.Fatalf("WriteGrid() error = %v", err)
	}

	g, err := ReadGridBytes(buf.Bytes(), "F4 BAP")
	if err != nil {
		t.Fatalf("ReadGridBytes() error = %v", err)
	}

	tests := []struct {
		r, c int
		want string
	}{
		{0, 1, "Balance Presupuestario - LDF"},
		{1, 1, ""},
		{2, 1, "A1. Ingresos de Libre Disposición"},
		{2, 2, "1000"},
		{2, 3, "(50)"},
		{2, 4, "1234.5"},
		{3, 2, ""},
		{3, 3, "40"},
	}
	for _, tt := range tests {
		if got := g.Cell(tt.r, tt.c); got != tt.want {
			t.Errorf("Cell(%d,%d) = %q, want %q", tt.r, tt.c, got, tt.want)
		}
	}
	if g.Rows() != 4 {
		t.Errorf("Rows() = %d, want 4", g.Rows())
	}
}

func TestReadGridDefaultsToFirstSheet(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteGrid(&buf, "F6a COG", [][]string{{"x"}}); err != nil {
		t.Fatalf("WriteGrid() error = %v", err)
	}
	g, err := ReadGridBytes(buf.Bytes(), "")
	if err != nil {
		t.Fatalf("ReadGridBytes() error = %v", err)
	}
	if g.Cell(0, 0) != "x" {
		t.Errorf("Cell(0,0) = %q", g.Cell(0, 0))
	}
}

func TestReadGridErrors(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteGrid(&buf, "F5 EAI", [][]string{{"x"}}); err != nil {
		t.Fatalf("WriteGrid() error = %v", err)
	}

	tests := []struct {
		name  string
		data  []byte
		sheet string
	}{
		{"missing sheet", buf.Bytes(), "F4 BAP"},
		{"not a workbook", []byte("plain text"), "F4 BAP"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadGridBytes(tt.data, tt.sheet); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestWriteRowsDereferencesPointers(t *testing.T) {
	amount := 12.5
	code := "A."
	var buf bytes.Buffer
	err := WriteRows(&buf, "records", []string{"concepto", "estimado", "clave"}, [][]any{
		{"A. Impuestos", &amount, &code},
		{"Otros", (*float64)(nil), (*string)(nil)},
	})
	if err != nil {
		t.Fatalf("WriteRows() error = %v", err)
	}

	g, err := ReadGridBytes(buf.Bytes(), "records")
	if err != nil {
		t.Fatalf("ReadGridBytes() error = %v", err)
	}
	if g.Cell(0, 1) != "estimado" || g.Cell(1, 1) != "12.5" || g.Cell(1, 2) != "A." || g.Cell(2, 1) != "" {
		t.Errorf("unexpected grid: %v %v %v", g.Row(0), g.Row(1), g.Row(2))
	}
}
