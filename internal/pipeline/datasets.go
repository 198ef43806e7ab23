package pipeline

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/Kabrax96/ConNL-dev/internal/export"
	"github.com/Kabrax96/ConNL-dev/internal/source"
	"github.com/Kabrax96/ConNL-dev/internal/store"
	"github.com/Kabrax96/ConNL-dev/internal/transform"
	"github.com/Kabrax96/ConNL-dev/internal/types"
	apperrors "github.com/Kabrax96/ConNL-dev/pkg/errors"
)

// Batch is a transformed file, type-erased for loading.
type Batch struct {
	Records []types.Record
	Status  transform.Status
}

// Dataset binds one CP report to its files, transform and table.
type Dataset struct {
	// Name is the short name used on the command line and in targets.
	Name string
	// Title is used in log lines.
	Title string
	// Pipeline is the stem of the run names, e.g. "balance_presupuestario_cp".
	Pipeline string

	Layout source.Layout
	Table  store.Table

	transform func(*transform.Transformer, *types.Grid, int) (Batch, error)
	writeCSV  func(io.Writer, []types.Record) error
}

// Transform runs the dataset transform on g.
func (d Dataset) Transform(t *transform.Transformer, g *types.Grid, year int) (Batch, error) {
	return d.transform(t, g, year)
}

// WriteCSV exports records produced by this dataset.
func (d Dataset) WriteCSV(w io.Writer, records []types.Record) error {
	return d.writeCSV(w, records)
}

// define builds a Dataset around a typed transform.
func define[T types.Record](d Dataset, fn func(*transform.Transformer, *types.Grid, int) (transform.Result[T], error)) Dataset {
	d.transform = func(t *transform.Transformer, g *types.Grid, year int) (Batch, error) {
		res, err := fn(t, g, year)
		if err != nil {
			return Batch{}, err
		}
		records := make([]types.Record, len(res.Records))
		for i, r := range res.Records {
			records[i] = r
		}
		return Batch{Records: records, Status: res.Status}, nil
	}
	d.writeCSV = func(w io.Writer, records []types.Record) error {
		rows := make([]T, 0, len(records))
		for _, r := range records {
			typed, ok := r.(T)
			if !ok {
				return fmt.Errorf("%s export: unexpected record type %T", d.Name, r)
			}
			rows = append(rows, typed)
		}
		return export.WriteCSV(w, rows)
	}
	return d
}

// =============================================================================
// REGISTRY
// =============================================================================

// Balance is the budget balance report (F4).
var Balance = define(Dataset{
	Name:     "balance",
	Title:    "Balance Presupuestario CP",
	Pipeline: "balance_presupuestario_cp",
	Layout: source.Layout{
		Prefix:   "finanzas/Balance_Presupuestario_CP/raw/",
		Template: "F4_Balance_Presupuestario_LDF_CP{year}.xlsx",
		Pattern:  regexp.MustCompile(`(?i)F4_Balance_Presupuestario_LDF_CP(\d{4})\.xlsx$`),
		Sheet:    transform.SheetBalance,
	},
	Table: store.BalanceTable,
}, (*transform.Transformer).Balance)

// Expenditures is the expenditure report by object of spending (F6a).
var Expenditures = define(Dataset{
	Name:     "egresos",
	Title:    "Egresos Detallado CP",
	Pipeline: "egresos_detallado_cp",
	Layout: source.Layout{
		Prefix:   "finanzas/Egresos_Detallado_CP/raw/",
		Template: "F6_a_EAPED_Clas_Obj_Gas_LDF_CP{year}.xlsx",
		Pattern:  regexp.MustCompile(`(?i)F6_a_EAPED_Clas_Obj_Gas_LDF_CP(\d{4})\.xlsx$`),
		Sheet:    transform.SheetExpenditures,
	},
	Table: store.ExpenditureTable,
}, (*transform.Transformer).Expenditures)

// Revenue is the detailed revenue report (F5).
var Revenue = define(Dataset{
	Name:     "ingresos",
	Title:    "Ingresos Detallado CP",
	Pipeline: "ingresos_detallado_cp",
	Layout: source.Layout{
		Prefix:   "finanzas/Ingresos_Detallado_CP/raw/",
		Template: "F5_Edo_Ana_Ing_Det_LDF_CP{year}.xlsx",
		Pattern:  regexp.MustCompile(`(?i)F5_Edo_Ana_Ing_Det_LDF_CP(\d{4})\.xlsx$`),
		Sheet:    transform.SheetRevenue,
	},
	Table: store.RevenueTable,
}, (*transform.Transformer).Revenue)

// Datasets lists every dataset in routing order.
var Datasets = []Dataset{Expenditures, Revenue, Balance}

// Lookup finds a dataset by short name.
func Lookup(name string) (Dataset, error) {
	for _, d := range Datasets {
		if strings.EqualFold(d.Name, name) {
			return d, nil
		}
	}
	names := make([]string, len(Datasets))
	for i, d := range Datasets {
		names[i] = d.Name
	}
	return Dataset{}, apperrors.ConfigError("dataset", name, "use one of "+strings.Join(names, ", "))
}
