package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/angelmondragon/fiscal-ledger/pkg/db/models"
	"gorm.io/gorm"
)

// Repository persists products and counterparties.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindProductByName returns nil when no product carries name.
func (r *Repository) FindProductByName(ctx context.Context, name string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).Where("name = ?", name).Take(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// ListProducts returns products whose name contains search, by name.
func (r *Repository) ListProducts(ctx context.Context, search string) ([]models.Product, error) {
	q := r.db.WithContext(ctx).Model(&models.Product{})
	if search = strings.TrimSpace(search); search != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}
	var products []models.Product
	if err := q.Order("name ASC").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// LowStock returns products with at most limit units on hand.
func (r *Repository) LowStock(ctx context.Context, limit int) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("on_hand <= ?", limit).
		Order("on_hand ASC, name ASC").
		Find(&products).Error
	return products, err
}

func (r *Repository) CreateCustomer(ctx context.Context, customer *models.Customer) error {
	return r.db.WithContext(ctx).Create(customer).Error
}

func (r *Repository) CreateSupplier(ctx context.Context, supplier *models.Supplier) error {
	return r.db.WithContext(ctx).Create(supplier).Error
}

// CounterpartyExists checks the customers or suppliers table by display name.
func (r *Repository) CounterpartyExists(ctx context.Context, kind CounterpartyKind, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Table(kind.table()).Where("name = ?", name).Count(&count).Error
	return count > 0, err
}

func (r *Repository) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	var out []models.Customer
	err := r.db.WithContext(ctx).Order("name ASC").Find(&out).Error
	return out, err
}

func (r *Repository) ListSuppliers(ctx context.Context) ([]models.Supplier, error) {
	var out []models.Supplier
	err := r.db.WithContext(ctx).Order("name ASC").Find(&out).Error
	return out, err
}
