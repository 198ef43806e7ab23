package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Kabrax96/ConNL-dev/internal/source"
	"github.com/Kabrax96/ConNL-dev/internal/store"
	"github.com/Kabrax96/ConNL-dev/internal/transform"
	"github.com/Kabrax96/ConNL-dev/internal/types"
	"github.com/Kabrax96/ConNL-dev/internal/xlsxparser"
	apperrors "github.com/Kabrax96/ConNL-dev/pkg/errors"
	"github.com/Kabrax96/ConNL-dev/pkg/logger"
)

// =============================================================================
// FAKES AND FIXTURES
// =============================================================================

type loadCall struct {
	table   string
	mode    store.Mode
	records []types.Record
}

type fakeLoader struct {
	calls   []loadCall
	ensured []string
	err     error
}

func (f *fakeLoader) EnsureTable(_ context.Context, table store.Table) error {
	f.ensured = append(f.ensured, table.Name)
	return nil
}

func (f *fakeLoader) Load(_ context.Context, table store.Table, records []types.Record, mode store.Mode) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.calls = append(f.calls, loadCall{table: table.Name, mode: mode, records: records})
	return int64(len(records)), nil
}

type fakeRuns struct {
	started []string
	status  string
	rows    int64
	logs    string
	failure error
}

func (f *fakeRuns) Start(_ context.Context, pipeline string) (string, error) {
	f.started = append(f.started, pipeline)
	return "run-1", nil
}

func (f *fakeRuns) Succeed(_ context.Context, _ string, rows int64, logs string) error {
	f.status, f.rows, f.logs = "success", rows, logs
	return nil
}

func (f *fakeRuns) Fail(_ context.Context, _ string, cause error, logs string) error {
	f.status, f.failure, f.logs = "failed", cause, logs
	return nil
}

func put(t *testing.T, root, key string, data []byte) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, data, 0644); err != nil {
		t.Fatal(err)
	}
}

func putWorkbook(t *testing.T, root string, ds Dataset, year int, rows [][]string) {
	t.Helper()
	var buf bytes.Buffer
	if err := xlsxparser.WriteGrid(&buf, ds.Layout.Sheet, rows); err != nil {
		t.Fatal(err)
	}
	put(t, root, ds.Layout.Key(year), buf.Bytes())
}

func balanceRows() [][]string {
	return [][]string{
		{"", "Balance Presupuestario - LDF"},
		{"", "A1. Ingresos de Libre Disposición", "1000", "(50)", "900"},
		{"", "B1. Transferencias Federales", "", "40", "40"},
	}
}

func expenditureRows(withMarker bool) [][]string {
	rows := make([][]string, 8)
	rows = append(rows, []string{"", "A1) Servicios personales", "100", "0", "100", "90", "85", "15"})
	if withMarker {
		rows = append(rows,
			[]string{"", "II. Gasto Etiquetado"},
			[]string{"", "C1) Inversion", "200", "10", "210", "150", "140", "70"},
		)
	}
	return rows
}

func newTestRunner(root string, loader Loader, runs RunRecorder, out *bytes.Buffer, opts Options) *Runner {
	tr := transform.New(&transform.SequenceKeys{Prefix: "k"}, nil)
	return NewRunner(source.NewLocal(root), loader, runs, tr, logger.DefaultConfig(), out, opts)
}

// =============================================================================
// SINGLE
// =============================================================================

func TestRunSingleLatestYear(t *testing.T) {
	root := t.TempDir()
	putWorkbook(t, root, Balance, 2021, balanceRows()[:2])
	putWorkbook(t, root, Balance, 2023, balanceRows())

	loader := &fakeLoader{}
	runs := &fakeRuns{}
	var out bytes.Buffer
	r := newTestRunner(root, loader, runs, &out, Options{})

	res, err := r.RunSingle(context.Background(), Balance, 0)
	if err != nil {
		t.Fatalf("RunSingle() error = %v", err)
	}
	if len(res.Years) != 1 || res.Years[0] != 2023 || res.Records != 6 || res.Loaded != 6 {
		t.Errorf("unexpected result %+v", res)
	}
	if len(loader.calls) != 1 || loader.calls[0].mode != store.ModeUpsert || loader.calls[0].table != store.BalanceTable.Name {
		t.Fatalf("unexpected load calls %+v", loader.calls)
	}

	if len(runs.started) != 1 || runs.started[0] != "balance_presupuestario_cp_single_pipeline" {
		t.Errorf("run started as %v", runs.started)
	}
	if runs.status != "success" || runs.rows != 6 {
		t.Errorf("run recorded as %s/%d", runs.status, runs.rows)
	}
	for _, code := range []string{"100 |", "110 | Latest CP year detected: 2023", "210 |", "310 | Transformed rows: 6", "410 |", "499 |"} {
		if !strings.Contains(runs.logs, code) {
			t.Errorf("logs missing %q", code)
		}
	}
	if !strings.Contains(out.String(), "499 |") {
		t.Error("log output should be teed to the base writer")
	}
}

func TestRunLogsCaptureTransformDetails(t *testing.T) {
	root := t.TempDir()
	putWorkbook(t, root, Balance, 2023, balanceRows())
	runs := &fakeRuns{}
	var base bytes.Buffer
	tr := transform.New(&transform.SequenceKeys{Prefix: "k"}, logger.Nop())
	cfg := &logger.Config{Level: logger.DebugLevel, Format: logger.TextFormat}
	r := NewRunner(source.NewLocal(root), &fakeLoader{}, runs, tr, cfg, &base, Options{})

	if _, err := r.RunSingle(context.Background(), Balance, 2023); err != nil {
		t.Fatalf("RunSingle() error = %v", err)
	}
	for _, want := range []string{"6 records\"", "component=transform", "pipeline=balance_presupuestario_cp_single_pipeline"} {
		if !strings.Contains(runs.logs, want) {
			t.Errorf("run logs missing %q:\n%s", want, runs.logs)
		}
	}
}

func TestRunSingleMissingYear(t *testing.T) {
	root := t.TempDir()
	putWorkbook(t, root, Balance, 2023, balanceRows())
	runs := &fakeRuns{}
	r := newTestRunner(root, &fakeLoader{}, runs, &bytes.Buffer{}, Options{})

	_, err := r.RunSingle(context.Background(), Balance, 2019)
	if !errors.Is(err, source.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if runs.status != "failed" || !strings.Contains(runs.logs, "500 |") {
		t.Errorf("failure not recorded: %s %q", runs.status, runs.logs)
	}
}

func TestRunSingleLoadFailure(t *testing.T) {
	root := t.TempDir()
	putWorkbook(t, root, Balance, 2023, balanceRows())
	loadErr := apperrors.LoadError("Single load (upsert)", store.BalanceTable.Name, errors.New("connection reset"))
	runs := &fakeRuns{}
	r := newTestRunner(root, &fakeLoader{err: loadErr}, runs, &bytes.Buffer{}, Options{CreateTables: true})

	_, err := r.RunSingle(context.Background(), Balance, 2023)
	if !apperrors.Is(err, apperrors.CategoryLoad) {
		t.Fatalf("expected load error, got %v", err)
	}
	if !strings.Contains(err.Error(), "Single load (upsert) failed: connection reset") {
		t.Errorf("unexpected message %q", err.Error())
	}
	if runs.failure != err {
		t.Errorf("recorded failure = %v", runs.failure)
	}
}

func TestRunWithoutDatabase(t *testing.T) {
	root := t.TempDir()
	putWorkbook(t, root, Balance, 2023, balanceRows())
	r := newTestRunner(root, nil, nil, &bytes.Buffer{}, Options{})

	_, err := r.RunSingle(context.Background(), Balance, 2023)
	if !apperrors.Is(err, apperrors.CategoryConfiguration) {
		t.Errorf("expected configuration error, got %v", err)
	}
}

func TestDryRunExport(t *testing.T) {
	root := t.TempDir()
	putWorkbook(t, root, Balance, 2023, balanceRows())
	outDir := t.TempDir()

	r := newTestRunner(root, nil, nil, &bytes.Buffer{}, Options{
		DryRun:     true,
		ExportPath: filepath.Join(outDir, "{dataset}_{year}.csv"),
	})

	res, err := r.RunSingle(context.Background(), Balance, 2023)
	if err != nil {
		t.Fatalf("RunSingle() error = %v", err)
	}
	if res.Loaded != 0 {
		t.Errorf("dry run loaded %d rows", res.Loaded)
	}
	if want := filepath.Join(outDir, "balance_2023.csv"); res.ExportPath != want {
		t.Errorf("ExportPath = %q, want %q", res.ExportPath, want)
	}
	data, err := os.ReadFile(res.ExportPath)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 7 || lines[0] != "surrogate_key,concept,sublabel,year_quarter,full_date,type,amount" {
		t.Errorf("unexpected export:\n%s", data)
	}
}

// =============================================================================
// BULK
// =============================================================================

func TestRunBulkSkipsBadYears(t *testing.T) {
	root := t.TempDir()
	putWorkbook(t, root, Expenditures, 2020, expenditureRows(true))
	putWorkbook(t, root, Expenditures, 2021, expenditureRows(false))
	put(t, root, Expenditures.Layout.Key(2022), []byte("not a workbook"))
	putWorkbook(t, root, Expenditures, 2023, expenditureRows(true))

	loader := &fakeLoader{}
	runs := &fakeRuns{}
	r := newTestRunner(root, loader, runs, &bytes.Buffer{}, Options{Mode: store.ModeInsert})

	res, err := r.RunBulk(context.Background(), Expenditures)
	if err != nil {
		t.Fatalf("RunBulk() error = %v", err)
	}
	if len(res.Years) != 2 || res.Years[0] != 2020 || res.Years[1] != 2023 {
		t.Errorf("Years = %v", res.Years)
	}
	if len(res.Skipped) != 2 || res.Skipped[0] != 2021 || res.Skipped[1] != 2022 {
		t.Errorf("Skipped = %v", res.Skipped)
	}
	if len(loader.calls) != 1 {
		t.Fatalf("expected one load, got %d", len(loader.calls))
	}
	call := loader.calls[0]
	if call.mode != store.ModeOverwrite || len(call.records) != 4 {
		t.Errorf("bulk load = %s with %d records", call.mode, len(call.records))
	}
	if runs.started[0] != "egresos_detallado_cp_bulk_pipeline" {
		t.Errorf("run name = %s", runs.started[0])
	}
	if !strings.Contains(runs.logs, "205 | Skipping year=2021") || !strings.Contains(runs.logs, "320 | Final concatenated rows: 4") {
		t.Errorf("unexpected logs:\n%s", runs.logs)
	}
}

func TestRunBulkNoParts(t *testing.T) {
	root := t.TempDir()
	putWorkbook(t, root, Expenditures, 2021, expenditureRows(false))
	runs := &fakeRuns{}
	r := newTestRunner(root, &fakeLoader{}, runs, &bytes.Buffer{}, Options{})

	_, err := r.RunBulk(context.Background(), Expenditures)
	appErr, ok := apperrors.As(err)
	if !ok || appErr.Code != apperrors.CodeNoParts {
		t.Fatalf("expected no-parts error, got %v", err)
	}
	if runs.status != "failed" {
		t.Errorf("run status = %s", runs.status)
	}
}

func TestRunBulkNoFiles(t *testing.T) {
	r := newTestRunner(t.TempDir(), &fakeLoader{}, nil, &bytes.Buffer{}, Options{})
	_, err := r.Run(context.Background(), Target{Dataset: Revenue, Bulk: true}, 0)
	appErr, ok := apperrors.As(err)
	if !ok || appErr.Code != apperrors.CodeNoYears {
		t.Fatalf("expected no-years error, got %v", err)
	}
}
