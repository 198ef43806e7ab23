// =============================================================================
// ConNL - Transformation Engine
// =============================================================================
//
// The Transformer turns a raw, headerless sheet grid into typed records for
// one of the three CP datasets:
//
//   Balance       "F4 BAP"   long format, one row per concept and amount type
//   Expenditures  "F6a COG"  wide format, fixed-offset sections
//   Revenue       "F5 EAI"   wide format, detected columns and sections
//
// Every call is independent. The only side effect is drawing surrogate keys
// from the injected KeyGenerator.
//
// =============================================================================

package transform

import (
	"fmt"

	"github.com/Kabrax96/ConNL-dev/pkg/logger"
)

// Sheet names of the published CP workbooks.
const (
	SheetBalance      = "F4 BAP"
	SheetExpenditures = "F6a COG"
	SheetRevenue      = "F5 EAI"
)

// =============================================================================
// RESULT
// =============================================================================

// Status tells a successful result with rows apart from an empty one.
type Status int

const (
	StatusOK Status = iota
	StatusEmpty
)

func (s Status) String() string {
	if s == StatusEmpty {
		return "empty"
	}
	return "ok"
}

// Result is the outcome of a transform that did not fail.
type Result[T any] struct {
	Records []T
	Status  Status
}

func resultOf[T any](records []T) Result[T] {
	if len(records) == 0 {
		return Result[T]{Records: []T{}, Status: StatusEmpty}
	}
	return Result[T]{Records: records, Status: StatusOK}
}

// =============================================================================
// TRANSFORMER
// =============================================================================

// Transformer converts grids into records.
type Transformer struct {
	keys KeyGenerator
	log  logger.Logger
}

// New creates a Transformer. A nil KeyGenerator uses RandomKeys and a nil
// logger discards output.
func New(keys KeyGenerator, log logger.Logger) *Transformer {
	if keys == nil {
		keys = RandomKeys{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Transformer{keys: keys, log: log.WithComponent("transform")}
}

// WithLogger returns a Transformer sharing t's key source that logs to log.
func (t *Transformer) WithLogger(log logger.Logger) *Transformer {
	if log == nil {
		log = logger.Nop()
	}
	return &Transformer{keys: t.keys, log: log.WithComponent("transform")}
}

func (t *Transformer) newKey() (string, error) {
	k, err := t.keys.NewKey()
	if err != nil {
		return "", fmt.Errorf("surrogate key: %w", err)
	}
	return k, nil
}
