package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/fiscal-ledger/internal/fiscal"
	"github.com/angelmondragon/fiscal-ledger/internal/schema"
	"github.com/angelmondragon/fiscal-ledger/pkg/db/models"
	"github.com/angelmondragon/fiscal-ledger/pkg/enums"
	pkgerrors "github.com/angelmondragon/fiscal-ledger/pkg/errors"
	"github.com/angelmondragon/fiscal-ledger/pkg/pagination"
	"github.com/angelmondragon/fiscal-ledger/pkg/types"
	"gorm.io/gorm"
)

// LineStore persists lines for one table in one physical layout. Computed
// values are identical across implementations; only the destination
// columns differ.
type LineStore interface {
	Layout() enums.SchemaLayout
	Insert(ctx context.Context, tx *gorm.DB, rec lineRecord) (int64, error)
	Update(ctx context.Context, tx *gorm.DB, id int64, rec lineRecord) error
	Find(ctx context.Context, tx *gorm.DB, id int64) (*Line, error)
	Delete(ctx context.Context, tx *gorm.DB, id int64) error
	List(ctx context.Context, tx *gorm.DB, filter ListFilter) ([]Line, error)
	LastForProduct(ctx context.Context, tx *gorm.DB, product string) (*Line, error)
}

func tableFor(kind enums.LineKind) string {
	if kind == enums.LineKindSale {
		return schema.TableSaleLines
	}
	return schema.TablePurchaseLines
}

func newLineStore(kind enums.LineKind, extended bool) LineStore {
	table := tableFor(kind)
	if extended {
		return extendedLineStore{kind: kind, table: table, hasDueOn: kind == enums.LineKindPurchase}
	}
	return legacyLineStore{kind: kind, table: table}
}

type legacyLineStore struct {
	kind  enums.LineKind
	table string
}

func (s legacyLineStore) Layout() enums.SchemaLayout { return enums.SchemaLayoutLegacy }

func (s legacyLineStore) Insert(ctx context.Context, tx *gorm.DB, rec lineRecord) (int64, error) {
	row := legacyRow(rec)
	if err := tx.WithContext(ctx).Table(s.table).Create(&row).Error; err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert "+s.table)
	}
	return row.ID, nil
}

func (s legacyLineStore) Update(ctx context.Context, tx *gorm.DB, id int64, rec lineRecord) error {
	return updateRow(ctx, tx, s.table, id, legacyColumns(rec))
}

func (s legacyLineStore) Find(ctx context.Context, tx *gorm.DB, id int64) (*Line, error) {
	var row models.LedgerLine
	if err := tx.WithContext(ctx).Table(s.table).Where("id = ?", id).Take(&row).Error; err != nil {
		return nil, notFoundOr(err, s.kind, id)
	}
	line := s.toLine(row)
	return &line, nil
}

func (s legacyLineStore) Delete(ctx context.Context, tx *gorm.DB, id int64) error {
	return deleteRow(ctx, tx, s.table, s.kind, id)
}

func (s legacyLineStore) List(ctx context.Context, tx *gorm.DB, filter ListFilter) ([]Line, error) {
	var rows []models.LedgerLine
	if err := applyFilter(tx.WithContext(ctx).Table(s.table), filter).Find(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list "+s.table)
	}
	out := make([]Line, 0, len(rows))
	for _, row := range rows {
		out = append(out, s.toLine(row))
	}
	return out, nil
}

func (s legacyLineStore) LastForProduct(ctx context.Context, tx *gorm.DB, product string) (*Line, error) {
	lines, err := s.List(ctx, tx, ListFilter{Product: product, Limit: 1})
	if err != nil || len(lines) == 0 {
		return nil, err
	}
	return &lines[0], nil
}

func (s legacyLineStore) toLine(row models.LedgerLine) Line {
	return Line{
		ID:           row.ID,
		Kind:         s.kind,
		Layout:       enums.SchemaLayoutLegacy,
		Counterparty: row.Counterparty,
		Product:      row.Product,
		Quantity:     row.Quantity,
		UnitPrice:    row.UnitPrice,
		TaxRate:      row.TaxRate,
		Total:        row.Total,
		IssuedOn:     row.IssuedOn,
	}
}

type extendedLineStore struct {
	kind     enums.LineKind
	table    string
	hasDueOn bool
}

func (s extendedLineStore) Layout() enums.SchemaLayout { return enums.SchemaLayoutExtended }

func (s extendedLineStore) Insert(ctx context.Context, tx *gorm.DB, rec lineRecord) (int64, error) {
	row := models.ExtendedLedgerLine{
		LedgerLine:  legacyRow(rec),
		DocType:     rec.DocType,
		Net:         rec.Breakdown.Net,
		Tax:         rec.Breakdown.Tax,
		Withholding: rec.Breakdown.Withholding,
	}
	q := tx.WithContext(ctx).Table(s.table)
	if s.hasDueOn {
		if rec.DueOn != nil {
			row.DueOn = types.NewNullDate(*rec.DueOn)
		}
	} else {
		q = q.Omit("due_on")
	}
	if err := q.Create(&row).Error; err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert "+s.table)
	}
	return row.ID, nil
}

func (s extendedLineStore) Update(ctx context.Context, tx *gorm.DB, id int64, rec lineRecord) error {
	cols := legacyColumns(rec)
	cols["doc_type"] = rec.DocType
	cols["net"] = rec.Breakdown.Net
	cols["tax"] = rec.Breakdown.Tax
	cols["withholding"] = rec.Breakdown.Withholding
	if s.hasDueOn {
		due := types.NullDate{}
		if rec.DueOn != nil {
			due = types.NewNullDate(*rec.DueOn)
		}
		cols["due_on"] = due
	}
	return updateRow(ctx, tx, s.table, id, cols)
}

func (s extendedLineStore) Find(ctx context.Context, tx *gorm.DB, id int64) (*Line, error) {
	var row models.ExtendedLedgerLine
	if err := tx.WithContext(ctx).Table(s.table).Where("id = ?", id).Take(&row).Error; err != nil {
		return nil, notFoundOr(err, s.kind, id)
	}
	line := s.toLine(row)
	return &line, nil
}

func (s extendedLineStore) Delete(ctx context.Context, tx *gorm.DB, id int64) error {
	return deleteRow(ctx, tx, s.table, s.kind, id)
}

func (s extendedLineStore) List(ctx context.Context, tx *gorm.DB, filter ListFilter) ([]Line, error) {
	var rows []models.ExtendedLedgerLine
	if err := applyFilter(tx.WithContext(ctx).Table(s.table), filter).Find(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list "+s.table)
	}
	out := make([]Line, 0, len(rows))
	for _, row := range rows {
		out = append(out, s.toLine(row))
	}
	return out, nil
}

func (s extendedLineStore) LastForProduct(ctx context.Context, tx *gorm.DB, product string) (*Line, error) {
	lines, err := s.List(ctx, tx, ListFilter{Product: product, Limit: 1})
	if err != nil || len(lines) == 0 {
		return nil, err
	}
	return &lines[0], nil
}

func (s extendedLineStore) toLine(row models.ExtendedLedgerLine) Line {
	return Line{
		ID:           row.ID,
		Kind:         s.kind,
		Layout:       enums.SchemaLayoutExtended,
		Counterparty: row.Counterparty,
		Product:      row.Product,
		Quantity:     row.Quantity,
		UnitPrice:    row.UnitPrice,
		DocType:      row.DocType,
		TaxRate:      row.TaxRate,
		Breakdown: &fiscal.Breakdown{
			Net:         row.Net,
			Tax:         row.Tax,
			Withholding: row.Withholding,
			Total:       row.Total,
		},
		Total:    row.Total,
		IssuedOn: row.IssuedOn,
		DueOn:    row.DueOn.Ptr(),
	}
}

func legacyRow(rec lineRecord) models.LedgerLine {
	return models.LedgerLine{
		Counterparty: rec.Counterparty,
		Product:      rec.Product,
		Quantity:     rec.Quantity,
		UnitPrice:    rec.UnitPrice,
		TaxRate:      rec.TaxRate,
		Total:        rec.Breakdown.Total,
		IssuedOn:     rec.IssuedOn,
	}
}

func legacyColumns(rec lineRecord) map[string]any {
	return map[string]any{
		"counterparty": rec.Counterparty,
		"product":      rec.Product,
		"quantity":     rec.Quantity,
		"unit_price":   rec.UnitPrice,
		"tax_rate":     rec.TaxRate,
		"total":        rec.Breakdown.Total,
		"issued_on":    rec.IssuedOn,
	}
}

func updateRow(ctx context.Context, tx *gorm.DB, table string, id int64, cols map[string]any) error {
	res := tx.WithContext(ctx).Table(table).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "update "+table)
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeRecordNotFound, fmt.Sprintf("%s %d not found", table, id))
	}
	return nil
}

func deleteRow(ctx context.Context, tx *gorm.DB, table string, kind enums.LineKind, id int64) error {
	res := tx.WithContext(ctx).Table(table).Where("id = ?", id).Delete(&models.LedgerLine{})
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "delete "+table)
	}
	if res.RowsAffected == 0 {
		return lineNotFound(kind, id)
	}
	return nil
}

func applyFilter(q *gorm.DB, filter ListFilter) *gorm.DB {
	if filter.Product != "" {
		q = q.Where("product = ?", filter.Product)
	}
	if filter.Counterparty != "" {
		q = q.Where("counterparty = ?", filter.Counterparty)
	}
	if filter.From != nil {
		q = q.Where("issued_on >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("issued_on <= ?", *filter.To)
	}
	q = pagination.Params{Limit: filter.Limit, Offset: filter.Offset}.Apply(q)
	return q.Order("id DESC")
}

func notFoundOr(err error, kind enums.LineKind, id int64) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return lineNotFound(kind, id)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load "+tableFor(kind))
}

func lineNotFound(kind enums.LineKind, id int64) error {
	return pkgerrors.New(pkgerrors.CodeRecordNotFound, fmt.Sprintf("%s line %d not found", kind, id)).
		WithDetails(map[string]any{"kind": kind, "id": id})
}
