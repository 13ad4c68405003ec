package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/fiscal-ledger/pkg/db"
	"github.com/angelmondragon/fiscal-ledger/pkg/db/models"
	pkgerrors "github.com/angelmondragon/fiscal-ledger/pkg/errors"
	"github.com/angelmondragon/fiscal-ledger/pkg/logger"
	"github.com/angelmondragon/fiscal-ledger/pkg/rut"
	"github.com/angelmondragon/fiscal-ledger/pkg/types"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DefaultLowStockLimit is the on-hand threshold used when none is given.
const DefaultLowStockLimit = 5

// CounterpartyKind selects customers or suppliers.
type CounterpartyKind string

const (
	CounterpartyCustomer CounterpartyKind = "customer"
	CounterpartySupplier CounterpartyKind = "supplier"
)

func (k CounterpartyKind) table() string {
	if k == CounterpartySupplier {
		return "suppliers"
	}
	return "customers"
}

// IsValid reports whether k is a known kind.
func (k CounterpartyKind) IsValid() bool {
	return k == CounterpartyCustomer || k == CounterpartySupplier
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ProductInput describes a new catalog product.
type ProductInput struct {
	Name          string
	Category      string
	PurchasePrice decimal.Decimal
	SalePrice     decimal.Decimal
	OnHand        int
	InternalCode  string
	ExternalCode  string
	TaxRate       *decimal.Decimal
	Location      string
	ExpiryDate    *types.Date
}

// CounterpartyInput describes a new customer or supplier.
type CounterpartyInput struct {
	Kind      CounterpartyKind
	Name      string
	TaxID     string
	Address   string
	Phone     string
	LegalName string
	Email     string
	Locality  string
}

// Service creates and looks up products and counterparties.
type Service interface {
	CreateProduct(ctx context.Context, input ProductInput) (*models.Product, error)
	FindProductByName(ctx context.Context, name string) (*models.Product, error)
	ProductExists(ctx context.Context, name string) (bool, error)
	ListProducts(ctx context.Context, search string) ([]models.Product, error)
	LowStock(ctx context.Context, limit int) ([]models.Product, error)
	CreateCounterparty(ctx context.Context, input CounterpartyInput) (int64, error)
	CounterpartyExists(ctx context.Context, kind CounterpartyKind, name string) (bool, error)
	ListCustomers(ctx context.Context) ([]models.Customer, error)
	ListSuppliers(ctx context.Context) ([]models.Supplier, error)
}

type service struct {
	repo       *Repository
	tx         txRunner
	logg       *logger.Logger
	defaultVAT decimal.Decimal
}

// NewService builds the catalog service. defaultVAT is stored on products
// created without an explicit rate.
func NewService(repo *Repository, tx txRunner, logg *logger.Logger, defaultVAT decimal.Decimal) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, logg: logg, defaultVAT: defaultVAT}, nil
}

func (s *service) CreateProduct(ctx context.Context, input ProductInput) (*models.Product, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if input.OnHand < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidAmount, "initial stock cannot be negative")
	}
	if input.PurchasePrice.IsNegative() || input.SalePrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidAmount, "prices cannot be negative")
	}
	product := &models.Product{
		Name:          name,
		Category:      strings.TrimSpace(input.Category),
		PurchasePrice: input.PurchasePrice,
		SalePrice:     input.SalePrice,
		OnHand:        input.OnHand,
		InternalCode:  optional(input.InternalCode),
		ExternalCode:  optional(input.ExternalCode),
		TaxRate:       s.defaultVAT,
		Location:      strings.TrimSpace(input.Location),
	}
	if input.TaxRate != nil {
		product.TaxRate = *input.TaxRate
	}
	if input.ExpiryDate != nil {
		product.ExpiryDate = types.NewNullDate(*input.ExpiryDate)
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		err := s.repo.WithTx(tx).CreateProduct(ctx, product)
		if db.IsUniqueViolation(err) {
			return pkgerrors.New(pkgerrors.CodeDuplicateName, "product name or internal code already in use").
				WithDetails(map[string]any{"name": name, "internal_code": input.InternalCode})
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithProductID(ctx, product.ID), "product created")
	return product, nil
}

func (s *service) FindProductByName(ctx context.Context, name string) (*models.Product, error) {
	product, err := s.repo.FindProductByName(ctx, strings.TrimSpace(name))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find product")
	}
	if product == nil {
		return nil, pkgerrors.New(pkgerrors.CodeProductNotFound, fmt.Sprintf("product %q not found", name))
	}
	return product, nil
}

func (s *service) ProductExists(ctx context.Context, name string) (bool, error) {
	product, err := s.repo.FindProductByName(ctx, strings.TrimSpace(name))
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find product")
	}
	return product != nil, nil
}

func (s *service) ListProducts(ctx context.Context, search string) ([]models.Product, error) {
	products, err := s.repo.ListProducts(ctx, search)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return products, nil
}

// LowStock lists products at or below limit; a non-positive limit uses
// DefaultLowStockLimit.
func (s *service) LowStock(ctx context.Context, limit int) ([]models.Product, error) {
	if limit <= 0 {
		limit = DefaultLowStockLimit
	}
	products, err := s.repo.LowStock(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "low stock")
	}
	return products, nil
}

// CreateCounterparty stores a customer or supplier after checking the RUT
// check digit. The RUT is stored normalized.
func (s *service) CreateCounterparty(ctx context.Context, input CounterpartyInput) (int64, error) {
	if !input.Kind.IsValid() {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown counterparty kind %q", input.Kind))
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "counterparty name is required")
	}
	taxID, err := rut.Validate(input.TaxID)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "invalid RUT check digit").
			WithDetails(map[string]any{"tax_id": input.TaxID})
	}

	var id int64
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		switch input.Kind {
		case CounterpartySupplier:
			row := &models.Supplier{
				Name:      name,
				TaxID:     taxID,
				Address:   strings.TrimSpace(input.Address),
				Phone:     strings.TrimSpace(input.Phone),
				LegalName: strings.TrimSpace(input.LegalName),
				Email:     strings.TrimSpace(input.Email),
				Locality:  strings.TrimSpace(input.Locality),
			}
			err = repo.CreateSupplier(ctx, row)
			id = row.ID
		default:
			row := &models.Customer{
				Name:    name,
				TaxID:   taxID,
				Address: strings.TrimSpace(input.Address),
				Phone:   strings.TrimSpace(input.Phone),
			}
			err = repo.CreateCustomer(ctx, row)
			id = row.ID
		}
		if db.IsUniqueViolation(err) {
			return pkgerrors.New(pkgerrors.CodeDuplicateName, "RUT already registered").
				WithDetails(map[string]any{"tax_id": rut.Format(taxID)})
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create counterparty")
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{"kind": input.Kind, "counterparty_id": id})
	s.logg.Info(logCtx, "counterparty created")
	return id, nil
}

func (s *service) CounterpartyExists(ctx context.Context, kind CounterpartyKind, name string) (bool, error) {
	if !kind.IsValid() {
		return false, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown counterparty kind %q", kind))
	}
	ok, err := s.repo.CounterpartyExists(ctx, kind, strings.TrimSpace(name))
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check counterparty")
	}
	return ok, nil
}

func (s *service) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	out, err := s.repo.ListCustomers(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list customers")
	}
	return out, nil
}

func (s *service) ListSuppliers(ctx context.Context) ([]models.Supplier, error) {
	out, err := s.repo.ListSuppliers(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list suppliers")
	}
	return out, nil
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
