package pipeline

import (
	"strings"
	"testing"

	apperrors "github.com/Kabrax96/ConNL-dev/pkg/errors"
)

func TestResolveTarget(t *testing.T) {
	s3Event := `{"Records":[{"eventSource":"aws:s3","s3":{"bucket":{"name":"centralfiles3"},"object":{"key":"finanzas/Ingresos_Detallado_CP/raw/F5_Edo_Ana_Ing_Det_LDF_CP2024+%281%29.xlsx"}}}]}`
	otherS3 := `{"Records":[{"eventSource":"aws:s3","s3":{"object":{"key":"finanzas/Otros/raw/x.xlsx"}}}],"pipeline":"balance_cp_bulk"}`

	tests := []struct {
		name     string
		event    string
		env      string
		want     string
		pipeline string
	}{
		{"s3 key prefix", s3Event, "egresos_cp_bulk", "ingresos_cp_single", "ingresos_detallado_cp_single_pipeline"},
		{"explicit payload", `{"pipeline":"egresos_cp_bulk"}`, "balance_cp_single", "egresos_cp_bulk", "egresos_detallado_cp_bulk_pipeline"},
		{"unmatched s3 falls back to payload", otherS3, "", "balance_cp_bulk", "balance_presupuestario_cp_bulk_pipeline"},
		{"env fallback", `{}`, "balance_cp_single", "balance_cp_single", "balance_presupuestario_cp_single_pipeline"},
		{"empty event", "", "ingresos_cp_bulk", "ingresos_cp_bulk", "ingresos_detallado_cp_bulk_pipeline"},
		{"non-object event", `"hello"`, "egresos_cp_single", "egresos_cp_single", "egresos_detallado_cp_single_pipeline"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveTarget([]byte(tt.event), tt.env)
			if err != nil {
				t.Fatalf("ResolveTarget() error = %v", err)
			}
			if got.String() != tt.want {
				t.Errorf("target = %s, want %s", got, tt.want)
			}
			if got.PipelineName() != tt.pipeline {
				t.Errorf("pipeline = %s, want %s", got.PipelineName(), tt.pipeline)
			}
		})
	}
}

func TestResolveTargetUnknown(t *testing.T) {
	_, err := ResolveTarget([]byte(`{"pipeline":"nope"}`), "")
	appErr, ok := apperrors.As(err)
	if !ok || appErr.Code != apperrors.CodeUnknownTarget {
		t.Fatalf("expected unknown target error, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "Unknown pipeline 'nope'. Valid: [egresos_cp_single, egresos_cp_bulk,") {
		t.Errorf("unexpected message %q", err.Error())
	}

	if _, err := ResolveTarget(nil, ""); !apperrors.Is(err, apperrors.CategoryConfiguration) {
		t.Errorf("empty target should be a configuration error, got %v", err)
	}
}

func TestTargetsAndLookup(t *testing.T) {
	if got := len(Targets()); got != 6 {
		t.Errorf("expected 6 targets, got %d", got)
	}
	for _, name := range []string{"balance", "EGRESOS", "ingresos"} {
		if _, err := Lookup(name); err != nil {
			t.Errorf("Lookup(%q) error = %v", name, err)
		}
	}
	if _, err := Lookup("deuda"); !apperrors.Is(err, apperrors.CategoryConfiguration) {
		t.Errorf("Lookup(deuda) error = %v", err)
	}
}
