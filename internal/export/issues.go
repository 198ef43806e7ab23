package export

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/Kabrax96/ConNL-dev/internal/validation"
)

// issueRow is one line of a validation report.
type issueRow struct {
	Severity string `csv:"severity"`
	Index    int    `csv:"record"`
	Key      string `csv:"surrogate_key"`
	Field    string `csv:"field"`
	Rule     string `csv:"rule"`
	Value    string `csv:"value"`
	Message  string `csv:"message"`
}

// WriteIssues writes a CSV report of validation issues into dir and returns
// its path. Nothing is written when there are no issues.
func WriteIssues(dir, pipeline string, issues []*validation.ValidationError, now time.Time) (string, error) {
	if len(issues) == 0 {
		return "", nil
	}

	rows := make([]issueRow, len(issues))
	for i, e := range issues {
		rows[i] = issueRow{
			Severity: e.Severity,
			Index:    e.Index,
			Key:      e.Key,
			Field:    e.Field,
			Rule:     e.Rule,
			Value:    e.Value,
			Message:  e.Message,
		}
	}

	name := OutputFileName("{pipeline}_issues_{timestamp}.csv", map[string]string{"pipeline": pipeline}, now)
	path := filepath.Join(dir, name)
	f, err := Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := WriteCSV(f, rows); err != nil {
		return "", fmt.Errorf("failed to write issue report: %w", err)
	}
	return path, nil
}
