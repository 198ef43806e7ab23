package store

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// Column is one table column and its SQL type.
type Column struct {
	Name string
	Type string
}

// Table describes a target table. Columns are in the order of
// types.Record.Values.
type Table struct {
	Name    string
	Columns []Column
	// Key is the primary key column.
	Key string
}

func quote(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

// ColumnNames returns the unquoted column names.
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// CreateSQL returns CREATE TABLE IF NOT EXISTS for t.
func (t Table) CreateSQL() string {
	defs := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		def := quote(c.Name) + " " + c.Type
		if c.Name == t.Key {
			def += " PRIMARY KEY"
		}
		defs[i] = def
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", quote(t.Name), strings.Join(defs, ", "))
}

// InsertSQL returns a positional INSERT for one row.
func (t Table) InsertSQL() string {
	cols := make([]string, len(t.Columns))
	params := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = quote(c.Name)
		params[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quote(t.Name), strings.Join(cols, ", "), strings.Join(params, ", "))
}

// UpsertSQL returns an INSERT that updates every non-key column on key
// conflict.
func (t Table) UpsertSQL() string {
	var sets []string
	for _, c := range t.Columns {
		if c.Name == t.Key {
			continue
		}
		sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", quote(c.Name), quote(c.Name)))
	}
	return fmt.Sprintf("%s ON CONFLICT (%s) DO UPDATE SET %s",
		t.InsertSQL(), quote(t.Key), strings.Join(sets, ", "))
}

// TruncateSQL returns TRUNCATE for t.
func (t Table) TruncateSQL() string {
	return "TRUNCATE TABLE " + quote(t.Name)
}

// =============================================================================
// TARGET TABLES
// =============================================================================

const (
	text   = "TEXT"
	amount = "DOUBLE PRECISION"
)

// BalanceTable holds budget balance records.
var BalanceTable = Table{
	Name: "nuevo_leon_balance_presupuestario_cp",
	Key:  "surrogate_key",
	Columns: []Column{
		{"surrogate_key", text},
		{"concept", text},
		{"sublabel", text},
		{"year_quarter", text},
		{"full_date", text},
		{"type", text},
		{"amount", amount},
	},
}

// ExpenditureTable holds expenditure records by object of spending.
var ExpenditureTable = Table{
	Name: "nuevo_leon_egresos_detallado_cp",
	Key:  "surrogate_key",
	Columns: []Column{
		{"surrogate_key", text},
		{"Codigo", text},
		{"Concepto", text},
		{"Aprobado", amount},
		{"Ampliaciones/Reducciones", amount},
		{"Modificado", amount},
		{"Devengado", amount},
		{"Pagado", amount},
		{"Subejercicio", amount},
		{"Fecha", text},
		{"Cuarto", text},
		{"Seccion", text},
	},
}

// RevenueTable holds detailed revenue records.
var RevenueTable = Table{
	Name: "nuevo_leon_ingresos_detallado_cp",
	Key:  "surrogate_key",
	Columns: []Column{
		{"surrogate_key", text},
		{"concepto", text},
		{"estimado", amount},
		{"ampliaciones_reducciones", amount},
		{"modificado", amount},
		{"devengado", amount},
		{"recaudado", amount},
		{"diferencia", amount},
		{"clave_primaria", text},
		{"clave_secundaria", text},
		{"fecha", text},
		{"cuarto", text},
		{"seccion", text},
	},
}

// RunTable holds one row per pipeline run.
var RunTable = Table{
	Name: "pipeline_metadata_logs",
	Key:  "run_id",
	Columns: []Column{
		{"run_id", text},
		{"pipeline_name", text},
		{"status", text},
		{"started_at", "TIMESTAMPTZ"},
		{"finished_at", "TIMESTAMPTZ"},
		{"rows_loaded", "BIGINT"},
		{"message", text},
		{"logs", text},
	},
}
