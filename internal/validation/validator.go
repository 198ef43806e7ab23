// =============================================================================
// ConNL - Validation Engine
// =============================================================================
//
// Checks a transformed batch before it is loaded:
//   - Surrogate keys are present and unique within the batch
//   - Period label is set and carries the CP tag
//   - Period date parses as YYYY-MM-DD
//   - Sectioned records are tagged I or II
//
// ERROR HANDLING:
//   - Issues are collected, not returned on the first failure
//   - Each issue carries the record index and key for troubleshooting
//   - Warnings never block a load; any error does
//
// =============================================================================

package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/Kabrax96/ConNL-dev/internal/types"
	apperrors "github.com/Kabrax96/ConNL-dev/pkg/errors"
)

// Severity levels.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// ValidationError is a single issue found in a batch.
type ValidationError struct {
	// Severity is "error" (blocks the load) or "warning".
	Severity string

	// Field is the record field that failed.
	Field string

	// Value is the offending value.
	Value string

	// Rule names the violated check.
	Rule string

	Message string

	// Index is the record position in the batch.
	Index int

	// Key is the record's surrogate key, when it has one.
	Key string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] record %d (%s), field '%s': %s (value: '%s')",
		strings.ToUpper(e.Severity), e.Index, e.Key, e.Field, e.Message, e.Value)
}

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// ValidationResult summarizes a batch check.
type ValidationResult struct {
	// IsValid is true when there are no error-severity issues.
	IsValid bool

	Errors []*ValidationError

	ErrorCount   int
	WarningCount int

	RecordsValidated int
}

// Err returns a validation AppError listing the first issues, or nil when
// the batch is valid.
func (r *ValidationResult) Err() error {
	if r.IsValid {
		return nil
	}
	var msgs []string
	for _, e := range r.Errors {
		if e.Severity != SeverityError {
			continue
		}
		msgs = append(msgs, e.Error())
		if len(msgs) == 5 {
			break
		}
	}
	return apperrors.New(apperrors.CategoryValidation, apperrors.CodeInvalidRecord,
		fmt.Sprintf("%d invalid records: %s", r.ErrorCount, strings.Join(msgs, "; "))).
		WithContext("errors", r.ErrorCount)
}

// =============================================================================
// VALIDATOR
// =============================================================================

// ValidationOptions tunes the checks.
type ValidationOptions struct {
	// StopOnFirstError stops after the first error-severity issue.
	StopOnFirstError bool

	// TreatWarningsAsErrors makes warnings invalidate the batch.
	TreatWarningsAsErrors bool

	// WarnOnEmpty reports an empty batch as a warning.
	// Default: true
	WarnOnEmpty bool
}

// DefaultValidationOptions returns the default options.
func DefaultValidationOptions() ValidationOptions {
	return ValidationOptions{WarnOnEmpty: true}
}

// Validator checks record batches.
type Validator struct {
	options ValidationOptions
}

// NewValidator creates a Validator with default options.
func NewValidator() *Validator {
	return &Validator{options: DefaultValidationOptions()}
}

// NewValidatorWithOptions creates a Validator with custom options.
func NewValidatorWithOptions(options ValidationOptions) *Validator {
	return &Validator{options: options}
}

// ValidateAll checks every record and the batch as a whole.
func (v *Validator) ValidateAll(records []types.Record) *ValidationResult {
	result := &ValidationResult{
		IsValid:          true,
		Errors:           make([]*ValidationError, 0),
		RecordsValidated: len(records),
	}

	add := func(e *ValidationError) bool {
		result.Errors = append(result.Errors, e)
		if e.Severity == SeverityError {
			result.ErrorCount++
			result.IsValid = false
			return v.options.StopOnFirstError
		}
		result.WarningCount++
		if v.options.TreatWarningsAsErrors {
			result.IsValid = false
		}
		return false
	}

	if len(records) == 0 && v.options.WarnOnEmpty {
		add(&ValidationError{
			Severity: SeverityWarning,
			Rule:     "non_empty",
			Message:  "batch has no records",
			Index:    -1,
		})
		return result
	}

	seen := make(map[string]int, len(records))
	for i, rec := range records {
		for _, e := range v.ValidateRecord(i, rec) {
			if add(e) {
				return result
			}
		}

		key := rec.Key()
		if key == "" {
			continue
		}
		if first, dup := seen[key]; dup {
			stop := add(&ValidationError{
				Severity: SeverityError,
				Field:    "surrogate_key",
				Value:    key,
				Rule:     "unique",
				Message:  fmt.Sprintf("duplicate key, first seen at record %d", first),
				Index:    i,
				Key:      key,
			})
			if stop {
				return result
			}
			continue
		}
		seen[key] = i
	}

	return result
}

// ValidateRecord runs the per-record checks.
func (v *Validator) ValidateRecord(index int, rec types.Record) []*ValidationError {
	var errs []*ValidationError
	key := rec.Key()
	fail := func(field, value, rule, msg string) {
		errs = append(errs, &ValidationError{
			Severity: SeverityError,
			Field:    field,
			Value:    value,
			Rule:     rule,
			Message:  msg,
			Index:    index,
			Key:      key,
		})
	}

	if strings.TrimSpace(key) == "" {
		fail("surrogate_key", key, "required", "surrogate key is empty")
	}

	label := rec.PeriodLabel()
	switch {
	case strings.TrimSpace(label) == "":
		fail("period_label", label, "required", "period label is empty")
	case label != types.CPLabel && !strings.HasSuffix(label, "_"+types.CPLabel):
		fail("period_label", label, "format", "period label must carry the CP tag")
	}

	date := rec.PeriodDate()
	if _, err := time.Parse(time.DateOnly, date); err != nil {
		fail("period_date", date, "date", "period date is not YYYY-MM-DD")
	}

	if s, ok := rec.(types.Sectioned); ok {
		switch s.SectionTag() {
		case types.SectionI, types.SectionII:
		default:
			fail("section", string(s.SectionTag()), "enum", "section must be I or II")
		}
	}

	return errs
}
