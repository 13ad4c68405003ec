package invoices

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/fiscal-ledger/internal/fiscal"
	"github.com/angelmondragon/fiscal-ledger/internal/schema"
	"github.com/angelmondragon/fiscal-ledger/pkg/db/models"
	"github.com/angelmondragon/fiscal-ledger/pkg/enums"
	pkgerrors "github.com/angelmondragon/fiscal-ledger/pkg/errors"
	"github.com/angelmondragon/fiscal-ledger/pkg/logger"
	"github.com/angelmondragon/fiscal-ledger/pkg/metrics"
	"github.com/angelmondragon/fiscal-ledger/pkg/types"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type capabilityProbe interface {
	SupportsExtended(ctx context.Context, db *gorm.DB, table string) (bool, error)
}

// Service manages invoice creation and the status lifecycle.
type Service interface {
	CreateFromNet(ctx context.Context, input CreateFromNetInput) (int64, error)
	CreateWithAmounts(ctx context.Context, input CreateWithAmountsInput) (int64, error)
	CreateLegacy(ctx context.Context, input CreateLegacyInput) (int64, error)
	ChangeStatus(ctx context.Context, id int64, status enums.InvoiceStatus) error
	MarkOverdueAutomatically(ctx context.Context) (int64, error)
	Get(ctx context.Context, id int64) (*Invoice, error)
	ListByDirectionAndStatus(ctx context.Context, direction enums.InvoiceDirection, statuses []enums.InvoiceStatus) ([]Invoice, error)
	List(ctx context.Context, filter ListFilter) ([]Invoice, error)
	Delete(ctx context.Context, id int64) error
}

// ServiceParams wires the invoice service.
type ServiceParams struct {
	Tx         txRunner
	Calculator *fiscal.Calculator
	Probe      capabilityProbe
	Logger     *logger.Logger
	Metrics    *metrics.LedgerMetrics
	Now        func() time.Time
}

type service struct {
	tx      txRunner
	calc    *fiscal.Calculator
	probe   capabilityProbe
	logg    *logger.Logger
	metrics *metrics.LedgerMetrics
	now     func() time.Time
}

// NewService builds the invoice service.
func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Calculator == nil {
		return nil, fmt.Errorf("fiscal calculator required")
	}
	if params.Probe == nil {
		return nil, fmt.Errorf("schema probe required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		tx:      params.Tx,
		calc:    params.Calculator,
		probe:   params.Probe,
		logg:    params.Logger,
		metrics: params.Metrics,
		now:     now,
	}, nil
}

func (s *service) CreateFromNet(ctx context.Context, input CreateFromNetInput) (id int64, err error) {
	defer func() { s.metrics.ObserveOperation("invoice", "create_from_net", err) }()

	if err := validateHeader(input.Counterparty, input.Direction); err != nil {
		return 0, err
	}
	status, err := initialStatus(input.Status, enums.InvoiceStatusIssued)
	if err != nil {
		return 0, err
	}
	breakdown, err := s.calc.BreakdownFromNet(input.Net, input.DocType)
	if err != nil {
		return 0, err
	}
	issued := s.issueDate(input.IssuedOn)
	due := s.calc.DefaultDueDate(issued)
	if input.PaymentDays > 0 {
		due = fiscal.DueDate(issued, input.PaymentDays)
	}
	return s.create(ctx, invoiceRecord{
		Number:       strings.TrimSpace(input.Number),
		Counterparty: strings.TrimSpace(input.Counterparty),
		Direction:    input.Direction,
		Status:       status,
		IssuedOn:     issued,
		DueOn:        &due,
		DocType:      input.DocType,
		Breakdown:    breakdown,
	})
}

func (s *service) CreateWithAmounts(ctx context.Context, input CreateWithAmountsInput) (id int64, err error) {
	defer func() { s.metrics.ObserveOperation("invoice", "create_with_amounts", err) }()

	if err := validateHeader(input.Counterparty, input.Direction); err != nil {
		return 0, err
	}
	if input.DocType != nil && !input.DocType.IsValid() {
		return 0, pkgerrors.New(pkgerrors.CodeInvalidAmount, fmt.Sprintf("unsupported document type %q", *input.DocType))
	}
	status, err := initialStatus(input.Status, enums.InvoiceStatusPending)
	if err != nil {
		return 0, err
	}
	amounts := map[string]decimal.Decimal{
		"net":         input.Net,
		"tax":         input.Tax,
		"withholding": input.Withholding,
		"total":       input.Total,
	}
	for field, value := range amounts {
		if value.IsNegative() {
			return 0, pkgerrors.New(pkgerrors.CodeInvalidAmount, field+" cannot be negative").
				WithDetails(map[string]any{"field": field, "value": value.String()})
		}
	}
	issued := s.issueDate(input.IssuedOn)
	due := s.calc.DefaultDueDate(issued)
	if input.DueOn != nil {
		due = *input.DueOn
	}
	return s.create(ctx, invoiceRecord{
		Number:       strings.TrimSpace(input.Number),
		Counterparty: strings.TrimSpace(input.Counterparty),
		Direction:    input.Direction,
		Status:       status,
		IssuedOn:     issued,
		DueOn:        &due,
		DocType:      input.DocType,
		Breakdown: fiscal.Breakdown{
			Net:         s.calc.Round(input.Net),
			Tax:         s.calc.Round(input.Tax),
			Withholding: s.calc.Round(input.Withholding),
			Total:       s.calc.Round(input.Total),
		},
	})
}

// CreateLegacy stores a single amount as an issued invoice. On the extended
// layout the amount becomes the net and total with no tax and no due date.
func (s *service) CreateLegacy(ctx context.Context, input CreateLegacyInput) (id int64, err error) {
	defer func() { s.metrics.ObserveOperation("invoice", "create_legacy", err) }()

	if err := validateHeader(input.Counterparty, input.Direction); err != nil {
		return 0, err
	}
	if input.Amount.IsNegative() {
		return 0, pkgerrors.New(pkgerrors.CodeInvalidAmount, "amount cannot be negative")
	}
	amount := s.calc.Round(input.Amount)
	return s.create(ctx, invoiceRecord{
		Number:       strings.TrimSpace(input.Number),
		Counterparty: strings.TrimSpace(input.Counterparty),
		Direction:    input.Direction,
		Status:       enums.InvoiceStatusIssued,
		IssuedOn:     s.issueDate(input.IssuedOn),
		Breakdown: fiscal.Breakdown{
			Net:         amount,
			Tax:         decimal.Zero,
			Withholding: decimal.Zero,
			Total:       amount,
		},
	})
}

func (s *service) create(ctx context.Context, rec invoiceRecord) (int64, error) {
	var (
		id     int64
		layout enums.SchemaLayout
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		store, err := s.resolveStore(ctx, tx)
		if err != nil {
			return err
		}
		layout = store.Layout()
		id, err = store.Insert(ctx, tx, rec)
		return err
	})
	if err != nil {
		return 0, err
	}
	s.metrics.ObserveLayout(schema.TableInvoices, layout.String())

	logCtx := s.logg.WithInvoiceID(ctx, id)
	logCtx = s.logg.WithFields(logCtx, map[string]any{
		"direction": rec.Direction,
		"status":    rec.Status,
		"layout":    layout,
		"total":     rec.Breakdown.Total.String(),
	})
	s.logg.Info(logCtx, "invoice created")
	return id, nil
}

// ChangeStatus moves an invoice along the lifecycle. Setting the current
// status again is a no-op; leaving paid is rejected.
func (s *service) ChangeStatus(ctx context.Context, id int64, status enums.InvoiceStatus) (err error) {
	defer func() { s.metrics.ObserveOperation("invoice", "change_status", err) }()

	if !status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown invoice status %q", status))
	}
	var from enums.InvoiceStatus
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var row models.Invoice
		if err := tx.WithContext(ctx).Select("id", "status").Where("id = ?", id).Take(&row).Error; err != nil {
			return notFoundOr(err, id)
		}
		from = row.Status
		if from == status {
			return nil
		}
		if !from.CanTransitionTo(status) {
			return transitionConflict(id, from, status)
		}
		res := tx.WithContext(ctx).Model(&models.Invoice{}).
			Where("id = ? AND status = ?", id, from).
			Update("status", status)
		if res.Error != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "update invoice status")
		}
		if res.RowsAffected == 0 {
			return transitionConflict(id, from, status)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logCtx := s.logg.WithInvoiceID(ctx, id)
	logCtx = s.logg.WithFields(logCtx, map[string]any{"from": from, "to": status})
	s.logg.Info(logCtx, "invoice status changed")
	return nil
}

// MarkOverdueAutomatically moves every pending invoice whose due date is
// before today to overdue and returns how many rows changed.
func (s *service) MarkOverdueAutomatically(ctx context.Context) (count int64, err error) {
	defer func() { s.metrics.ObserveOperation("invoice", "mark_overdue", err) }()

	today := types.DateOf(s.now())
	var layout enums.SchemaLayout
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		store, err := s.resolveStore(ctx, tx)
		if err != nil {
			return err
		}
		layout = store.Layout()
		count, err = store.MarkOverdue(ctx, tx, today)
		return err
	})
	if err != nil {
		return 0, err
	}
	s.metrics.AddOverdue(count)

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"today":  today.String(),
		"layout": layout,
		"count":  count,
	})
	s.logg.Info(logCtx, "overdue sweep finished")
	return count, nil
}

func (s *service) Get(ctx context.Context, id int64) (*Invoice, error) {
	var inv *Invoice
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		store, err := s.resolveStore(ctx, tx)
		if err != nil {
			return err
		}
		inv, err = store.Find(ctx, tx, id)
		return err
	})
	return inv, err
}

// ListByDirectionAndStatus returns invoices of one direction in any of the
// given statuses, latest due first. No statuses yields no rows.
func (s *service) ListByDirectionAndStatus(ctx context.Context, direction enums.InvoiceDirection, statuses []enums.InvoiceStatus) ([]Invoice, error) {
	if !direction.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown invoice direction %q", direction))
	}
	if len(statuses) == 0 {
		return []Invoice{}, nil
	}
	var out []Invoice
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		store, err := s.resolveStore(ctx, tx)
		if err != nil {
			return err
		}
		out, err = store.List(ctx, tx, func(q *gorm.DB) *gorm.DB {
			return q.Where("direction = ? AND status IN ?", direction, statuses)
		})
		return err
	})
	return out, err
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]Invoice, error) {
	var out []Invoice
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		store, err := s.resolveStore(ctx, tx)
		if err != nil {
			return err
		}
		out, err = store.List(ctx, tx, filter.scope)
		return err
	})
	return out, err
}

func (s *service) Delete(ctx context.Context, id int64) (err error) {
	defer func() { s.metrics.ObserveOperation("invoice", "delete", err) }()

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		res := tx.WithContext(ctx).Where("id = ?", id).Delete(&models.Invoice{})
		if res.Error != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "delete invoice")
		}
		if res.RowsAffected == 0 {
			return invoiceNotFound(id)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logg.Info(s.logg.WithInvoiceID(ctx, id), "invoice deleted")
	return nil
}

func (s *service) resolveStore(ctx context.Context, tx *gorm.DB) (invoiceStore, error) {
	extended, err := s.probe.SupportsExtended(ctx, tx, schema.TableInvoices)
	if err != nil {
		return nil, err
	}
	return newInvoiceStore(extended), nil
}

func (s *service) issueDate(given *types.Date) types.Date {
	if given != nil && !given.IsZero() {
		return *given
	}
	return types.DateOf(s.now())
}

func validateHeader(counterparty string, direction enums.InvoiceDirection) error {
	if strings.TrimSpace(counterparty) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "counterparty is required").
			WithDetails(map[string]any{"fields": []string{"counterparty"}})
	}
	if !direction.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown invoice direction %q", direction))
	}
	return nil
}

func initialStatus(given, fallback enums.InvoiceStatus) (enums.InvoiceStatus, error) {
	if given == "" {
		return fallback, nil
	}
	if !given.IsValid() {
		return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown invoice status %q", given))
	}
	return given, nil
}

func transitionConflict(id int64, from, to enums.InvoiceStatus) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("invoice %d cannot move from %s to %s", id, from, to)).
		WithDetails(map[string]any{"id": id, "from": from, "to": to})
}
