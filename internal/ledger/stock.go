package ledger

import (
	"context"
	"errors"
	"sort"

	"github.com/angelmondragon/fiscal-ledger/internal/stock"
	"github.com/angelmondragon/fiscal-ledger/pkg/db/models"
	pkgerrors "github.com/angelmondragon/fiscal-ledger/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// lockProducts loads and row-locks the named products in name order so two
// edits touching the same pair cannot deadlock.
func lockProducts(ctx context.Context, tx *gorm.DB, names ...string) (map[string]*models.Product, error) {
	unique := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		unique = append(unique, name)
	}
	sort.Strings(unique)

	out := make(map[string]*models.Product, len(unique))
	for _, name := range unique {
		var product models.Product
		err := tx.WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("name = ?", name).
			Take(&product).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, stock.NotFound(stock.ByName, name)
		}
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock product")
		}
		out[name] = &product
	}
	return out, nil
}
