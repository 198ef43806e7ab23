package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Kabrax96/ConNL-dev/internal/pipeline"
	"github.com/Kabrax96/ConNL-dev/internal/xlsxparser"
	apperrors "github.com/Kabrax96/ConNL-dev/pkg/errors"
)

// execute runs the root command with fresh flag values.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	runMode, runYear, sourceKind, localRoot, loadMethod = "single", 0, "", "", ""
	dryRun, exportPath, issuesDir, createTables = false, "", "", false
	cfgFile, verbose = "", false

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if !strings.Contains(out, "Version:    dev") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestSelectDatasets(t *testing.T) {
	all, err := selectDatasets([]string{"all"})
	if err != nil || len(all) != 3 {
		t.Errorf("all = %d datasets, %v", len(all), err)
	}
	two, err := selectDatasets([]string{"balance", "ingresos"})
	if err != nil || len(two) != 2 || two[1].Name != "ingresos" {
		t.Errorf("selection = %v, %v", two, err)
	}
	if _, err := selectDatasets([]string{"deuda"}); !apperrors.Is(err, apperrors.CategoryConfiguration) {
		t.Errorf("unknown dataset error = %v", err)
	}
}

func TestRunDryRunLocal(t *testing.T) {
	root := t.TempDir()
	var buf bytes.Buffer
	err := xlsxparser.WriteGrid(&buf, pipeline.Balance.Layout.Sheet, [][]string{
		{"", "A1. Ingresos de Libre Disposición", "1000", "(50)", "900"},
	})
	if err != nil {
		t.Fatal(err)
	}
	key := filepath.Join(root, filepath.FromSlash(pipeline.Balance.Layout.Key(2023)))
	if err := os.MkdirAll(filepath.Dir(key), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(key, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "run", "balance", "--source", "local", "--local-root", root, "--dry-run")
	if err != nil {
		t.Fatalf("run error = %v\n%s", err, out)
	}
	if !strings.Contains(out, "✓ balance_cp_single years=[2023] records=3 loaded=0") {
		t.Errorf("unexpected summary:\n%s", out)
	}
}

func TestRunRejectsBadFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"mode", []string{"run", "balance", "--mode", "weekly", "--source", "local"}},
		{"load method", []string{"run", "balance", "--load-method", "merge", "--source", "local"}},
		{"dataset", []string{"run", "deuda", "--source", "local"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			if apperrors.ExitCode(err) != 4 {
				t.Errorf("expected configuration exit code, got %v", err)
			}
		})
	}
}
