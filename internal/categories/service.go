package categories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/fiscal-ledger/pkg/db"
	"github.com/angelmondragon/fiscal-ledger/pkg/db/models"
	pkgerrors "github.com/angelmondragon/fiscal-ledger/pkg/errors"
	"github.com/angelmondragon/fiscal-ledger/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service manages the category dimension. Products reference categories by
// name, so renames and deletes also touch products.
type Service interface {
	Create(ctx context.Context, name string) (int64, error)
	Rename(ctx context.Context, id int64, name string) error
	Delete(ctx context.Context, id int64, force bool) error
	List(ctx context.Context) ([]models.Category, error)
}

type service struct {
	tx   txRunner
	logg *logger.Logger
}

// NewService builds the category service.
func NewService(tx txRunner, logg *logger.Logger) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{tx: tx, logg: logg}, nil
}

// Create inserts a category. Creating an existing name returns the existing
// id instead of failing.
func (s *service) Create(ctx context.Context, name string) (int64, error) {
	name, err := cleanName(name)
	if err != nil {
		return 0, err
	}
	var id int64
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		row := models.Category{Name: name}
		res := tx.WithContext(ctx).
			Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
			Create(&row)
		if res.Error != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "create category")
		}
		if res.RowsAffected > 0 {
			id = row.ID
			return nil
		}
		existing, err := findByName(ctx, tx, name)
		if err != nil {
			return err
		}
		id = existing.ID
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"category_id": id, "name": name}), "category ensured")
	return id, nil
}

// Rename changes the category name and every product that referenced the
// old name, in one transaction.
func (s *service) Rename(ctx context.Context, id int64, name string) error {
	name, err := cleanName(name)
	if err != nil {
		return err
	}
	var old string
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		current, err := findByID(ctx, tx, id)
		if err != nil {
			return err
		}
		old = current.Name
		if old == name {
			return nil
		}
		err = tx.WithContext(ctx).Model(&models.Category{}).Where("id = ?", id).Update("name", name).Error
		if db.IsUniqueViolation(err) {
			return pkgerrors.New(pkgerrors.CodeDuplicateName, fmt.Sprintf("category %q already exists", name)).
				WithDetails(map[string]any{"name": name})
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rename category")
		}
		err = tx.WithContext(ctx).Model(&models.Product{}).Where("category = ?", old).Update("category", name).Error
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rename product categories")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"category_id": id, "from": old, "to": name}), "category renamed")
	return nil
}

// Delete removes a category. A category still used by products is only
// removed when force is set, which also clears it from those products.
func (s *service) Delete(ctx context.Context, id int64, force bool) error {
	var detached int64
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		current, err := findByID(ctx, tx, id)
		if err != nil {
			return err
		}
		var inUse int64
		if err := tx.WithContext(ctx).Model(&models.Product{}).Where("category = ?", current.Name).Count(&inUse).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count category products")
		}
		if inUse > 0 && !force {
			return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("category %q is used by %d products", current.Name, inUse)).
				WithDetails(map[string]any{"products": inUse})
		}
		if inUse > 0 {
			res := tx.WithContext(ctx).Model(&models.Product{}).Where("category = ?", current.Name).Update("category", "")
			if res.Error != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "detach products")
			}
			detached = res.RowsAffected
		}
		if err := tx.WithContext(ctx).Delete(&models.Category{}, id).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete category")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"category_id": id, "detached": detached}), "category deleted")
	return nil
}

func (s *service) List(ctx context.Context) ([]models.Category, error) {
	var out []models.Category
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.WithContext(ctx).Order("name ASC").Find(&out).Error
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	return out, nil
}

func findByID(ctx context.Context, tx *gorm.DB, id int64) (*models.Category, error) {
	var row models.Category
	err := tx.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeRecordNotFound, fmt.Sprintf("category %d not found", id))
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
	}
	return &row, nil
}

func findByName(ctx context.Context, tx *gorm.DB, name string) (*models.Category, error) {
	var row models.Category
	if err := tx.WithContext(ctx).Where("name = ?", name).Take(&row).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category by name")
	}
	return &row, nil
}

func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "category name is required")
	}
	return name, nil
}
