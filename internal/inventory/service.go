package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/fiscal-ledger/internal/stock"
	"github.com/angelmondragon/fiscal-ledger/pkg/db/models"
	"github.com/angelmondragon/fiscal-ledger/pkg/enums"
	pkgerrors "github.com/angelmondragon/fiscal-ledger/pkg/errors"
	"github.com/angelmondragon/fiscal-ledger/pkg/logger"
	"github.com/angelmondragon/fiscal-ledger/pkg/metrics"
	"github.com/angelmondragon/fiscal-ledger/pkg/pagination"
	"gorm.io/gorm"
)

// DefaultMethod is recorded when an adjustment does not name one.
const DefaultMethod = "manual"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// AdjustInput describes a manual stock adjustment keyed by internal code.
type AdjustInput struct {
	Code     string
	Quantity int
	Location string
	Method   string
}

// ListFilter narrows movement listings. Zero values are ignored.
type ListFilter struct {
	// Code matches internal codes case-insensitively as a substring.
	Code     string
	Movement enums.MovementType
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
}

// Service applies manual intakes and withdrawals outside of the purchase and
// sale ledger, keeping an append-only movement log.
type Service interface {
	Intake(ctx context.Context, input AdjustInput) (*models.InventoryMovement, error)
	Withdraw(ctx context.Context, input AdjustInput) (*models.InventoryMovement, error)
	List(ctx context.Context, filter ListFilter) ([]models.InventoryMovement, error)
}

type service struct {
	tx      txRunner
	logg    *logger.Logger
	metrics *metrics.LedgerMetrics
	now     func() time.Time
}

// NewService builds the inventory service. now defaults to time.Now.
func NewService(tx txRunner, logg *logger.Logger, m *metrics.LedgerMetrics, now func() time.Time) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if now == nil {
		now = time.Now
	}
	return &service{tx: tx, logg: logg, metrics: m, now: now}, nil
}

func (s *service) Intake(ctx context.Context, input AdjustInput) (mv *models.InventoryMovement, err error) {
	defer func() { s.metrics.ObserveOperation("inventory", "intake", err) }()
	return s.apply(ctx, enums.MovementTypeIntake, input)
}

func (s *service) Withdraw(ctx context.Context, input AdjustInput) (mv *models.InventoryMovement, err error) {
	defer func() { s.metrics.ObserveOperation("inventory", "withdraw", err) }()
	return s.apply(ctx, enums.MovementTypeWithdrawal, input)
}

func (s *service) apply(ctx context.Context, movement enums.MovementType, input AdjustInput) (*models.InventoryMovement, error) {
	code := strings.TrimSpace(input.Code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "internal code is required")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidAmount, "quantity must be positive").
			WithDetails(map[string]any{"quantity": input.Quantity})
	}
	method := strings.TrimSpace(input.Method)
	if method == "" {
		method = DefaultMethod
	}

	row := models.InventoryMovement{
		ProductCode: code,
		Movement:    movement,
		Quantity:    input.Quantity,
		Location:    strings.TrimSpace(input.Location),
		Method:      method,
		OccurredAt:  s.now().UTC(),
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		delta := input.Quantity
		if movement == enums.MovementTypeWithdrawal {
			delta = -delta
		}
		if err := stock.Adjust(ctx, tx, stock.ByInternalCode, code, delta); err != nil {
			return err
		}
		if err := tx.WithContext(ctx).Create(&row).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record inventory movement")
		}
		return nil
	})
	if err != nil {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"code":     code,
			"movement": movement,
			"quantity": input.Quantity,
			"error":    err.Error(),
		}), "inventory adjustment rejected")
		return nil, err
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"movement_id": row.ID,
		"code":        code,
		"movement":    movement,
		"quantity":    input.Quantity,
	}), "inventory adjusted")
	return &row, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]models.InventoryMovement, error) {
	if filter.Movement != "" && !filter.Movement.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid movement type %q", filter.Movement))
	}
	var out []models.InventoryMovement
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		q := tx.WithContext(ctx).Model(&models.InventoryMovement{})
		if code := strings.TrimSpace(filter.Code); code != "" {
			q = q.Where("LOWER(product_code) LIKE ?", "%"+strings.ToLower(code)+"%")
		}
		if filter.Movement != "" {
			q = q.Where("movement = ?", filter.Movement)
		}
		if filter.From != nil {
			q = q.Where("occurred_at >= ?", filter.From.UTC())
		}
		if filter.To != nil {
			q = q.Where("occurred_at <= ?", filter.To.UTC())
		}
		q = pagination.Params{Limit: filter.Limit, Offset: filter.Offset}.Apply(q)
		return q.Order("occurred_at DESC, id DESC").Find(&out).Error
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list inventory movements")
	}
	return out, nil
}
