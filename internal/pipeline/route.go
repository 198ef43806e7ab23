package pipeline

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	apperrors "github.com/Kabrax96/ConNL-dev/pkg/errors"
)

// Target is a dataset plus a run mode, e.g. "ingresos_cp_bulk".
type Target struct {
	Dataset Dataset
	Bulk    bool
}

func (t Target) mode() string {
	if t.Bulk {
		return "bulk"
	}
	return "single"
}

// String returns the route name.
func (t Target) String() string {
	return fmt.Sprintf("%s_cp_%s", t.Dataset.Name, t.mode())
}

// PipelineName returns the run name used for logs and run metadata,
// e.g. "balance_presupuestario_cp_single_pipeline".
func (t Target) PipelineName() string {
	return fmt.Sprintf("%s_%s_pipeline", t.Dataset.Pipeline, t.mode())
}

// Targets returns every valid route name.
func Targets() []string {
	var out []string
	for _, d := range Datasets {
		out = append(out, Target{Dataset: d}.String(), Target{Dataset: d, Bulk: true}.String())
	}
	return out
}

// ParseTarget resolves a route name.
func ParseTarget(name string) (Target, error) {
	for _, d := range Datasets {
		for _, bulk := range []bool{false, true} {
			t := Target{Dataset: d, Bulk: bulk}
			if t.String() == name {
				return t, nil
			}
		}
	}
	return Target{}, apperrors.New(apperrors.CategoryConfiguration, apperrors.CodeUnknownTarget,
		fmt.Sprintf("Unknown pipeline '%s'. Valid: [%s]", name, strings.Join(Targets(), ", ")))
}

// invocation is the union of the payloads the handler accepts.
type invocation struct {
	Records  []events.S3EventRecord `json:"Records"`
	Pipeline string                 `json:"pipeline"`
}

// ResolveTarget picks the route for a Lambda invocation, in order:
//  1. an S3 event whose object key falls under a dataset prefix runs that
//     dataset's single pipeline
//  2. an explicit {"pipeline": "..."} payload
//  3. envTarget (PIPELINE_TARGET)
func ResolveTarget(event []byte, envTarget string) (Target, error) {
	var inv invocation
	if len(event) > 0 {
		// Unknown payload shapes fall through to envTarget.
		_ = json.Unmarshal(event, &inv)
	}

	if d, ok := routeS3(inv.Records); ok {
		return Target{Dataset: d}, nil
	}
	name := inv.Pipeline
	if name == "" {
		name = envTarget
	}
	return ParseTarget(strings.TrimSpace(name))
}

func routeS3(records []events.S3EventRecord) (Dataset, bool) {
	if len(records) == 0 || records[0].EventSource != "aws:s3" {
		return Dataset{}, false
	}
	key, err := url.QueryUnescape(records[0].S3.Object.Key)
	if err != nil {
		return Dataset{}, false
	}
	for _, d := range Datasets {
		if strings.HasPrefix(key, d.Layout.Prefix) {
			return d, true
		}
	}
	return Dataset{}, false
}
