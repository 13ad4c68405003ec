package invoices

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/fiscal-ledger/internal/fiscal"
	"github.com/angelmondragon/fiscal-ledger/pkg/db/models"
	"github.com/angelmondragon/fiscal-ledger/pkg/enums"
	pkgerrors "github.com/angelmondragon/fiscal-ledger/pkg/errors"
	"github.com/angelmondragon/fiscal-ledger/pkg/types"
	"gorm.io/gorm"
)

type scope func(*gorm.DB) *gorm.DB

// invoiceStore reads and writes invoices in one physical layout.
type invoiceStore interface {
	Layout() enums.SchemaLayout
	Insert(ctx context.Context, tx *gorm.DB, rec invoiceRecord) (int64, error)
	Find(ctx context.Context, tx *gorm.DB, id int64) (*Invoice, error)
	List(ctx context.Context, tx *gorm.DB, filter scope) ([]Invoice, error)
	MarkOverdue(ctx context.Context, tx *gorm.DB, today types.Date) (int64, error)
}

func newInvoiceStore(extended bool) invoiceStore {
	if extended {
		return extendedStore{}
	}
	return legacyStore{}
}

type legacyStore struct{}

func (legacyStore) Layout() enums.SchemaLayout { return enums.SchemaLayoutLegacy }

func (legacyStore) Insert(ctx context.Context, tx *gorm.DB, rec invoiceRecord) (int64, error) {
	row := legacyRow(rec)
	if err := tx.WithContext(ctx).Create(&row).Error; err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert invoice")
	}
	return row.ID, nil
}

func (legacyStore) Find(ctx context.Context, tx *gorm.DB, id int64) (*Invoice, error) {
	var row models.Invoice
	if err := tx.WithContext(ctx).Where("id = ?", id).Take(&row).Error; err != nil {
		return nil, notFoundOr(err, id)
	}
	inv := fromLegacy(row)
	return &inv, nil
}

func (legacyStore) List(ctx context.Context, tx *gorm.DB, filter scope) ([]Invoice, error) {
	var rows []models.Invoice
	err := tx.WithContext(ctx).Model(&models.Invoice{}).
		Scopes(filter).
		Order("issued_on DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list invoices")
	}
	out := make([]Invoice, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromLegacy(row))
	}
	return out, nil
}

// MarkOverdue is a no-op without due dates.
func (legacyStore) MarkOverdue(context.Context, *gorm.DB, types.Date) (int64, error) {
	return 0, nil
}

type extendedStore struct{}

func (extendedStore) Layout() enums.SchemaLayout { return enums.SchemaLayoutExtended }

func (extendedStore) Insert(ctx context.Context, tx *gorm.DB, rec invoiceRecord) (int64, error) {
	row := models.ExtendedInvoice{
		Invoice:     legacyRow(rec),
		DocType:     rec.DocType,
		Net:         rec.Breakdown.Net,
		Tax:         rec.Breakdown.Tax,
		Withholding: rec.Breakdown.Withholding,
		Total:       rec.Breakdown.Total,
	}
	if rec.DueOn != nil {
		row.DueOn = types.NewNullDate(*rec.DueOn)
	}
	if err := tx.WithContext(ctx).Create(&row).Error; err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert invoice")
	}
	return row.ID, nil
}

func (extendedStore) Find(ctx context.Context, tx *gorm.DB, id int64) (*Invoice, error) {
	var row models.ExtendedInvoice
	if err := tx.WithContext(ctx).Where("id = ?", id).Take(&row).Error; err != nil {
		return nil, notFoundOr(err, id)
	}
	inv := fromExtended(row)
	return &inv, nil
}

func (extendedStore) List(ctx context.Context, tx *gorm.DB, filter scope) ([]Invoice, error) {
	var rows []models.ExtendedInvoice
	err := tx.WithContext(ctx).Model(&models.ExtendedInvoice{}).
		Scopes(filter).
		Order("COALESCE(due_on, issued_on) DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list invoices")
	}
	out := make([]Invoice, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromExtended(row))
	}
	return out, nil
}

// MarkOverdue flips every pending invoice due strictly before today in a
// single statement.
func (extendedStore) MarkOverdue(ctx context.Context, tx *gorm.DB, today types.Date) (int64, error) {
	res := tx.WithContext(ctx).Exec(`
		UPDATE invoices
		SET status = ?
		WHERE status = ?
		  AND due_on IS NOT NULL
		  AND due_on < ?
	`, enums.InvoiceStatusOverdue, enums.InvoiceStatusPending, today)
	if res.Error != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "mark overdue invoices")
	}
	return res.RowsAffected, nil
}

func legacyRow(rec invoiceRecord) models.Invoice {
	return models.Invoice{
		Number:       rec.Number,
		Counterparty: rec.Counterparty,
		Amount:       rec.Breakdown.Total,
		Status:       rec.Status,
		IssuedOn:     rec.IssuedOn,
		Direction:    rec.Direction,
	}
}

func fromLegacy(row models.Invoice) Invoice {
	return Invoice{
		ID:           row.ID,
		Layout:       enums.SchemaLayoutLegacy,
		Number:       row.Number,
		Counterparty: row.Counterparty,
		Direction:    row.Direction,
		Status:       row.Status,
		IssuedOn:     row.IssuedOn,
		Amount:       row.Amount,
	}
}

func fromExtended(row models.ExtendedInvoice) Invoice {
	inv := fromLegacy(row.Invoice)
	inv.Layout = enums.SchemaLayoutExtended
	inv.DocType = row.DocType
	inv.DueOn = row.DueOn.Ptr()
	inv.Breakdown = &fiscal.Breakdown{
		Net:         row.Net,
		Tax:         row.Tax,
		Withholding: row.Withholding,
		Total:       row.Total,
	}
	return inv
}

func notFoundOr(err error, id int64) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return invoiceNotFound(id)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load invoice")
}

func invoiceNotFound(id int64) error {
	return pkgerrors.New(pkgerrors.CodeRecordNotFound, fmt.Sprintf("invoice %d not found", id)).
		WithDetails(map[string]any{"id": id})
}
