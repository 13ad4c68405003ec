package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/fiscal-ledger/pkg/enums"
	"gorm.io/gorm"
)

const (
	TablePurchaseLines = "purchase_lines"
	TableSaleLines     = "sale_lines"
	TableInvoices      = "invoices"
)

// extendedColumns lists the fiscal columns that must all be present before a
// table is treated as extended.
var extendedColumns = map[string][]string{
	TablePurchaseLines: {"doc_type", "net", "tax", "withholding", "total", "due_on"},
	TableSaleLines:     {"doc_type", "net", "tax", "withholding", "total"},
	TableInvoices:      {"doc_type", "net", "tax", "withholding", "total", "due_on"},
}

// RequiredColumns returns the extended column set for table, or nil when the
// table has no extended layout.
func RequiredColumns(table string) []string {
	cols := extendedColumns[table]
	if cols == nil {
		return nil
	}
	out := make([]string, len(cols))
	copy(out, cols)
	return out
}

// Probe inspects live column metadata. It keeps no cache so that a migration
// applied while the process runs is picked up by the next operation.
type Probe struct{}

func NewProbe() *Probe {
	return &Probe{}
}

// Columns returns the lower-cased column names of table. It reads the result
// set description of an empty select, which both SQLite and Postgres report
// without touching any row.
func (p *Probe) Columns(ctx context.Context, db *gorm.DB, table string) (map[string]struct{}, error) {
	query := fmt.Sprintf("SELECT * FROM %s WHERE 1 = 0", db.Statement.Quote(table))
	rows, err := db.WithContext(ctx).Raw(query).Rows()
	if err != nil {
		return nil, fmt.Errorf("read columns of %s: %w", table, err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns of %s: %w", table, err)
	}
	cols := make(map[string]struct{}, len(names))
	for _, name := range names {
		cols[strings.ToLower(name)] = struct{}{}
	}
	return cols, rows.Err()
}

// SupportsExtended reports whether every extended fiscal column exists on table.
func (p *Probe) SupportsExtended(ctx context.Context, db *gorm.DB, table string) (bool, error) {
	required, ok := extendedColumns[table]
	if !ok {
		return false, fmt.Errorf("table %q has no extended layout", table)
	}
	cols, err := p.Columns(ctx, db, table)
	if err != nil {
		return false, err
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return false, nil
		}
	}
	return true, nil
}

func (p *Probe) Layout(ctx context.Context, db *gorm.DB, table string) (enums.SchemaLayout, error) {
	extended, err := p.SupportsExtended(ctx, db, table)
	if err != nil {
		return "", err
	}
	if extended {
		return enums.SchemaLayoutExtended, nil
	}
	return enums.SchemaLayoutLegacy, nil
}
