package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestAppError(t *testing.T) {
	tests := []struct {
		name       string
		category   Category
		code       Code
		message    string
		cause      error
		expectCode int
	}{
		{
			name:       "source error",
			category:   CategorySource,
			code:       CodeNotFound,
			message:    "object not found",
			cause:      errors.New("NoSuchKey"),
			expectCode: 2,
		},
		{
			name:       "structure error",
			category:   CategoryStructure,
			code:       CodeMissingMarker,
			message:    "marker missing",
			expectCode: 3,
		},
		{
			name:       "configuration error",
			category:   CategoryConfiguration,
			code:       CodeInvalidConfig,
			message:    "bad load method",
			expectCode: 4,
		},
		{
			name:       "load error",
			category:   CategoryLoad,
			code:       CodeLoadFailed,
			message:    "upsert failed",
			cause:      errors.New("connection reset"),
			expectCode: 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err *AppError
			if tt.cause != nil {
				err = Wrap(tt.cause, tt.category, tt.code, tt.message)
			} else {
				err = New(tt.category, tt.code, tt.message)
			}

			if err.Category != tt.category {
				t.Errorf("expected category %s, got %s", tt.category, err.Category)
			}
			if err.Code != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, err.Code)
			}
			if err.ExitCode() != tt.expectCode {
				t.Errorf("expected exit code %d, got %d", tt.expectCode, err.ExitCode())
			}
			if !strings.HasPrefix(err.Error(), tt.message) {
				t.Errorf("expected error string to start with %q, got %q", tt.message, err.Error())
			}
			if tt.cause != nil && err.Unwrap() != tt.cause {
				t.Errorf("expected to unwrap to %v, got %v", tt.cause, err.Unwrap())
			}
			if len(err.StackTrace) == 0 {
				t.Error("expected a stack trace")
			}
		})
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(nil, CategoryLoad, CodeLoadFailed, "x") != nil {
		t.Error("Wrap(nil) should return nil")
	}
}

func TestLoadErrorMessage(t *testing.T) {
	err := LoadError("upsert", "t", errors.New("duplicate key"))
	if got := err.Error(); got != "upsert failed: duplicate key" {
		t.Errorf("unexpected message %q", got)
	}
	if err.Context["table"] != "t" {
		t.Errorf("expected table context, got %v", err.Context)
	}
}

func TestAsThroughWrapping(t *testing.T) {
	inner := StructureError(CodeMissingMarker, "F6a COG", "no section II marker")
	outer := fmt.Errorf("year 2021: %w", inner)

	if !Is(outer, CategoryStructure) {
		t.Error("expected structure category through fmt wrapping")
	}
	if Is(outer, CategoryLoad) {
		t.Error("did not expect load category")
	}
	if ExitCode(outer) != 3 {
		t.Errorf("expected exit code 3, got %d", ExitCode(outer))
	}
	if ExitCode(errors.New("plain")) != 1 {
		t.Error("plain errors should exit with 1")
	}
	if ExitCode(nil) != 0 {
		t.Error("nil should exit with 0")
	}
}
