package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Kabrax96/ConNL-dev/internal/types"
	"github.com/Kabrax96/ConNL-dev/internal/validation"
	"github.com/Kabrax96/ConNL-dev/internal/xlsxparser"
)

func ptr[T any](v T) *T { return &v }

func TestWriteCSV(t *testing.T) {
	records := []types.RevenueRecord{
		{
			SurrogateKey: "k1", Concepto: "Impuestos", Estimado: ptr(1000.5),
			ClavePrimaria: ptr("A."), Fecha: "2023-12-31", Cuarto: "CP", Seccion: types.SectionI,
		},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, records); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header and one row, got %q", buf.String())
	}
	wantHeader := "surrogate_key,concepto,estimado,ampliaciones_reducciones,modificado,devengado,recaudado,diferencia,clave_primaria,clave_secundaria,fecha,cuarto,seccion"
	if lines[0] != wantHeader {
		t.Errorf("header = %q", lines[0])
	}
	if want := "k1,Impuestos,1000.5,,,,,,A.,,2023-12-31,CP,I"; lines[1] != want {
		t.Errorf("row = %q, want %q", lines[1], want)
	}
}

func TestWriteXLSX(t *testing.T) {
	records := []types.Record{
		types.BalanceRecord{SurrogateKey: "k", Concept: "A1", Sublabel: "Ingresos", YearQuarter: "2023_CP", FullDate: "2023-12-31", Type: "devengado", Amount: ptr(-50.0)},
	}
	header := []string{"surrogate_key", "concept", "sublabel", "year_quarter", "full_date", "type", "amount"}

	var buf bytes.Buffer
	if err := WriteXLSX(&buf, "balance", header, records); err != nil {
		t.Fatalf("WriteXLSX() error = %v", err)
	}
	g, err := xlsxparser.ReadGrid(&buf, "balance")
	if err != nil {
		t.Fatalf("ReadGrid() error = %v", err)
	}
	if g.Rows() != 2 || g.Cell(0, 6) != "amount" || g.Cell(1, 6) != "-50" {
		t.Errorf("unexpected workbook content: %v / %v", g.Row(0), g.Row(1))
	}
}

func TestOutputFileName(t *testing.T) {
	now := time.Date(2024, 1, 15, 14, 30, 22, 0, time.UTC)
	tests := []struct {
		format string
		params map[string]string
		want   string
	}{
		{"{pipeline}_{year}_{date}.csv", map[string]string{"pipeline": "balance_cp", "year": "2023"}, "balance_cp_2023_20240115.csv"},
		{"run_{timestamp}.xlsx", nil, "run_20240115_143022.xlsx"},
		{"static.csv", nil, "static.csv"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			if got := OutputFileName(tt.format, tt.params, now); got != tt.want {
				t.Errorf("OutputFileName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWriteIssues(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2024, 1, 15, 14, 30, 22, 0, time.UTC)

	path, err := WriteIssues(dir, "egresos_cp", nil, now)
	if err != nil || path != "" {
		t.Errorf("no issues should write nothing, got %q, %v", path, err)
	}

	issues := []*validation.ValidationError{
		{Severity: "error", Field: "period_date", Value: "x", Rule: "date", Message: "bad", Index: 3, Key: "k3"},
	}
	path, err = WriteIssues(filepath.Join(dir, "reports"), "egresos_cp", issues, now)
	if err != nil {
		t.Fatalf("WriteIssues() error = %v", err)
	}
	if filepath.Base(path) != "egresos_cp_issues_20240115_143022.csv" {
		t.Errorf("unexpected path %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "error,3,k3,period_date,date,x,bad") {
		t.Errorf("unexpected report %q", data)
	}
	if !IsXLSX("a/B.XLSX") || IsXLSX("a.csv") {
		t.Error("IsXLSX mismatch")
	}
}
