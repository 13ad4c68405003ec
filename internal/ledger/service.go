package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/fiscal-ledger/internal/fiscal"
	"github.com/angelmondragon/fiscal-ledger/internal/stock"
	"github.com/angelmondragon/fiscal-ledger/pkg/enums"
	pkgerrors "github.com/angelmondragon/fiscal-ledger/pkg/errors"
	"github.com/angelmondragon/fiscal-ledger/pkg/logger"
	"github.com/angelmondragon/fiscal-ledger/pkg/metrics"
	"github.com/angelmondragon/fiscal-ledger/pkg/types"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type capabilityProbe interface {
	SupportsExtended(ctx context.Context, db *gorm.DB, table string) (bool, error)
}

// Service records purchases and sales and keeps product stock in step with
// them. Every write runs in a single transaction.
type Service interface {
	Create(ctx context.Context, kind enums.LineKind, input CreateLineInput) (int64, error)
	Edit(ctx context.Context, kind enums.LineKind, id int64, input EditLineInput) error
	Delete(ctx context.Context, kind enums.LineKind, id int64) error
	RegisterLegacy(ctx context.Context, kind enums.LineKind, input LegacyLineInput) (int64, error)
	EditLegacy(ctx context.Context, kind enums.LineKind, id int64, input LegacyLineInput) error
	Get(ctx context.Context, kind enums.LineKind, id int64) (*Line, error)
	List(ctx context.Context, kind enums.LineKind, filter ListFilter) ([]Line, error)
	LastPurchaseForProduct(ctx context.Context, product string) (*Line, error)
}

// ServiceParams wires the ledger service.
type ServiceParams struct {
	Tx         txRunner
	Calculator *fiscal.Calculator
	Probe      capabilityProbe
	Logger     *logger.Logger
	Metrics    *metrics.LedgerMetrics
	// StrictCounterparties rejects lines naming an unknown supplier or customer.
	StrictCounterparties bool
	Now                  func() time.Time
}

type service struct {
	tx      txRunner
	calc    *fiscal.Calculator
	probe   capabilityProbe
	logg    *logger.Logger
	metrics *metrics.LedgerMetrics
	strict  bool
	now     func() time.Time
}

// NewService builds the ledger service.
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
		strict:  params.StrictCounterparties,
		now:     now,
	}, nil
}

func (s *service) Create(ctx context.Context, kind enums.LineKind, input CreateLineInput) (id int64, err error) {
	defer func() { s.metrics.ObserveOperation(kind.String(), "create", err) }()

	rec, err := s.recordFromInput(kind, input)
	if err != nil {
		return 0, err
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		id, err = s.insert(ctx, tx, kind, rec)
		return err
	})
	if err != nil {
		return 0, err
	}
	s.logWrite(ctx, kind, id, "ledger line created", rec)
	return id, nil
}

func (s *service) RegisterLegacy(ctx context.Context, kind enums.LineKind, input LegacyLineInput) (id int64, err error) {
	defer func() { s.metrics.ObserveOperation(kind.String(), "register_legacy", err) }()

	rec, err := s.recordFromLegacyInput(kind, input)
	if err != nil {
		return 0, err
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		id, err = s.insert(ctx, tx, kind, rec)
		return err
	})
	if err != nil {
		return 0, err
	}
	s.logWrite(ctx, kind, id, "legacy ledger line registered", rec)
	return id, nil
}

func (s *service) Edit(ctx context.Context, kind enums.LineKind, id int64, input EditLineInput) (err error) {
	defer func() { s.metrics.ObserveOperation(kind.String(), "edit", err) }()

	rec, err := s.recordFromInput(kind, input)
	if err != nil {
		return err
	}
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.replace(ctx, tx, kind, id, rec)
	}); err != nil {
		return err
	}
	s.logWrite(ctx, kind, id, "ledger line edited", rec)
	return nil
}

func (s *service) EditLegacy(ctx context.Context, kind enums.LineKind, id int64, input LegacyLineInput) (err error) {
	defer func() { s.metrics.ObserveOperation(kind.String(), "edit_legacy", err) }()

	rec, err := s.recordFromLegacyInput(kind, input)
	if err != nil {
		return err
	}
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.replace(ctx, tx, kind, id, rec)
	}); err != nil {
		return err
	}
	s.logWrite(ctx, kind, id, "legacy ledger line edited", rec)
	return nil
}

func (s *service) Delete(ctx context.Context, kind enums.LineKind, id int64) (err error) {
	defer func() { s.metrics.ObserveOperation(kind.String(), "delete", err) }()

	if !kind.IsValid() {
		return invalidKind(kind)
	}
	var old *Line
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		store, err := s.resolveStore(ctx, tx, kind)
		if err != nil {
			return err
		}
		old, err = store.Find(ctx, tx, id)
		if err != nil {
			return err
		}
		if _, err := lockProducts(ctx, tx, old.Product); err != nil {
			return err
		}
		if err := stock.Adjust(ctx, tx, stock.ByName, old.Product, -old.StockEffect()); err != nil {
			return err
		}
		return store.Delete(ctx, tx, id)
	})
	if err != nil {
		return err
	}

	logCtx := s.logg.WithLine(ctx, kind.String(), id)
	logCtx = s.logg.WithFields(logCtx, map[string]any{
		"product":  old.Product,
		"quantity": old.Quantity,
	})
	s.logg.Info(logCtx, "ledger line deleted")
	return nil
}

func (s *service) Get(ctx context.Context, kind enums.LineKind, id int64) (*Line, error) {
	if !kind.IsValid() {
		return nil, invalidKind(kind)
	}
	var line *Line
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		store, err := s.resolveStore(ctx, tx, kind)
		if err != nil {
			return err
		}
		line, err = store.Find(ctx, tx, id)
		return err
	})
	return line, err
}

func (s *service) List(ctx context.Context, kind enums.LineKind, filter ListFilter) ([]Line, error) {
	if !kind.IsValid() {
		return nil, invalidKind(kind)
	}
	var lines []Line
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		store, err := s.resolveStore(ctx, tx, kind)
		if err != nil {
			return err
		}
		lines, err = store.List(ctx, tx, filter)
		return err
	})
	return lines, err
}

// LastPurchaseForProduct returns the most recent purchase of product, or nil
// when it was never purchased.
func (s *service) LastPurchaseForProduct(ctx context.Context, product string) (*Line, error) {
	product = strings.TrimSpace(product)
	if product == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is required")
	}
	var line *Line
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		store, err := s.resolveStore(ctx, tx, enums.LineKindPurchase)
		if err != nil {
			return err
		}
		line, err = store.LastForProduct(ctx, tx, product)
		return err
	})
	return line, err
}

func (s *service) insert(ctx context.Context, tx *gorm.DB, kind enums.LineKind, rec lineRecord) (int64, error) {
	store, err := s.resolveStore(ctx, tx, kind)
	if err != nil {
		return 0, err
	}
	if err := s.checkCounterparty(ctx, tx, kind, rec.Counterparty); err != nil {
		return 0, err
	}
	products, err := lockProducts(ctx, tx, rec.Product)
	if err != nil {
		return 0, err
	}
	if kind == enums.LineKindSale {
		if onHand := products[rec.Product].OnHand; rec.Quantity > onHand {
			return 0, stock.Insufficient(rec.Product, rec.Quantity, onHand)
		}
	}
	id, err := store.Insert(ctx, tx, rec)
	if err != nil {
		return 0, err
	}
	if err := stock.Adjust(ctx, tx, stock.ByName, rec.Product, kind.StockSign()*rec.Quantity); err != nil {
		return 0, err
	}
	s.metrics.ObserveLayout(tableFor(kind), store.Layout().String())
	return id, nil
}

// replace reverts the stored line's stock effect, checks the new values
// against the reverted stock, overwrites the row in place and applies the
// new effect.
func (s *service) replace(ctx context.Context, tx *gorm.DB, kind enums.LineKind, id int64, rec lineRecord) error {
	store, err := s.resolveStore(ctx, tx, kind)
	if err != nil {
		return err
	}
	old, err := store.Find(ctx, tx, id)
	if err != nil {
		return err
	}
	if err := s.checkCounterparty(ctx, tx, kind, rec.Counterparty); err != nil {
		return err
	}
	if _, err := lockProducts(ctx, tx, old.Product, rec.Product); err != nil {
		return err
	}
	if err := stock.Adjust(ctx, tx, stock.ByName, old.Product, -old.StockEffect()); err != nil {
		return err
	}
	if kind == enums.LineKindSale {
		reverted, err := lockProducts(ctx, tx, rec.Product)
		if err != nil {
			return err
		}
		if onHand := reverted[rec.Product].OnHand; rec.Quantity > onHand {
			return stock.Insufficient(rec.Product, rec.Quantity, onHand)
		}
	}
	if err := store.Update(ctx, tx, id, rec); err != nil {
		return err
	}
	if err := stock.Adjust(ctx, tx, stock.ByName, rec.Product, kind.StockSign()*rec.Quantity); err != nil {
		return err
	}
	s.metrics.ObserveLayout(tableFor(kind), store.Layout().String())
	return nil
}

func (s *service) resolveStore(ctx context.Context, tx *gorm.DB, kind enums.LineKind) (LineStore, error) {
	extended, err := s.probe.SupportsExtended(ctx, tx, tableFor(kind))
	if err != nil {
		return nil, err
	}
	return newLineStore(kind, extended), nil
}

func (s *service) checkCounterparty(ctx context.Context, tx *gorm.DB, kind enums.LineKind, name string) error {
	if !s.strict {
		return nil
	}
	table := "suppliers"
	if kind == enums.LineKindSale {
		table = "customers"
	}
	var count int64
	if err := tx.WithContext(ctx).Table(table).Where("name = ?", name).Count(&count).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check counterparty")
	}
	if count == 0 {
		return pkgerrors.New(pkgerrors.CodeCounterpartyNotFound, fmt.Sprintf("counterparty %q not found", name)).
			WithDetails(map[string]any{"counterparty": name, "table": table})
	}
	return nil
}

func (s *service) recordFromInput(kind enums.LineKind, input CreateLineInput) (lineRecord, error) {
	if err := validateCommon(kind, input.Counterparty, input.Product); err != nil {
		return lineRecord{}, err
	}
	breakdown, err := s.calc.ComputeBreakdown(input.Quantity, input.UnitPrice, input.DocType)
	if err != nil {
		return lineRecord{}, err
	}
	issued := s.issueDate(input.IssuedOn)
	rec := lineRecord{
		Counterparty: strings.TrimSpace(input.Counterparty),
		Product:      strings.TrimSpace(input.Product),
		Quantity:     input.Quantity,
		UnitPrice:    input.UnitPrice,
		DocType:      input.DocType,
		TaxRate:      s.calc.TaxRateFor(input.DocType),
		Breakdown:    breakdown,
		IssuedOn:     issued,
	}
	if kind == enums.LineKindPurchase {
		due := s.calc.DefaultDueDate(issued)
		if input.DueOn != nil {
			due = *input.DueOn
		}
		rec.DueOn = &due
	}
	return rec, nil
}

func (s *service) recordFromLegacyInput(kind enums.LineKind, input LegacyLineInput) (lineRecord, error) {
	if err := validateCommon(kind, input.Counterparty, input.Product); err != nil {
		return lineRecord{}, err
	}
	breakdown, err := s.calc.BreakdownWithRate(input.Quantity, input.UnitPrice, input.TaxRate)
	if err != nil {
		return lineRecord{}, err
	}
	rate, err := fiscal.NormalizeRate(input.TaxRate)
	if err != nil {
		return lineRecord{}, err
	}
	issued := s.issueDate(input.IssuedOn)
	rec := lineRecord{
		Counterparty: strings.TrimSpace(input.Counterparty),
		Product:      strings.TrimSpace(input.Product),
		Quantity:     input.Quantity,
		UnitPrice:    input.UnitPrice,
		TaxRate:      rate,
		Breakdown:    breakdown,
		IssuedOn:     issued,
	}
	if kind == enums.LineKindPurchase {
		due := s.calc.DefaultDueDate(issued)
		rec.DueOn = &due
	}
	return rec, nil
}

func (s *service) issueDate(given *types.Date) types.Date {
	if given != nil && !given.IsZero() {
		return *given
	}
	return types.DateOf(s.now())
}

func (s *service) logWrite(ctx context.Context, kind enums.LineKind, id int64, msg string, rec lineRecord) {
	logCtx := s.logg.WithLine(ctx, kind.String(), id)
	fields := map[string]any{
		"product":  rec.Product,
		"quantity": rec.Quantity,
		"total":    rec.Breakdown.Total.String(),
	}
	if rec.DocType != nil {
		fields["doc_type"] = rec.DocType.String()
	}
	s.logg.Info(s.logg.WithFields(logCtx, fields), msg)
}

func validateCommon(kind enums.LineKind, counterparty, product string) error {
	if !kind.IsValid() {
		return invalidKind(kind)
	}
	var missing []string
	if strings.TrimSpace(counterparty) == "" {
		missing = append(missing, "counterparty")
	}
	if strings.TrimSpace(product) == "" {
		missing = append(missing, "product")
	}
	if len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "missing required fields").
			WithDetails(map[string]any{"fields": missing})
	}
	return nil
}

func invalidKind(kind enums.LineKind) error {
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown line kind %q", kind))
}
