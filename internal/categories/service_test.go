package categories

import (
	"context"
	"io"
	"testing"

	"github.com/angelmondragon/fiscal-ledger/pkg/db"
	"github.com/angelmondragon/fiscal-ledger/pkg/db/dbtest"
	"github.com/angelmondragon/fiscal-ledger/pkg/db/models"
	"github.com/angelmondragon/fiscal-ledger/pkg/enums"
	pkgerrors "github.com/angelmondragon/fiscal-ledger/pkg/errors"
	"github.com/angelmondragon/fiscal-ledger/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (Service, *db.Client) {
	t.Helper()
	client := dbtest.Open(t, enums.SchemaLayoutLegacy)
	svc, err := NewService(client, logger.New(logger.Options{ServiceName: "categories-test", Output: io.Discard}))
	require.NoError(t, err)
	return svc, client
}

func seedProduct(t *testing.T, client *db.Client, name, category string) {
	t.Helper()
	require.NoError(t, client.DB().Create(&models.Product{
		Name:     name,
		Category: category,
		TaxRate:  decimal.RequireFromString("0.19"),
	}).Error)
}

func productCategory(t *testing.T, client *db.Client, name string) string {
	t.Helper()
	var product models.Product
	require.NoError(t, client.DB().Where("name = ?", name).Take(&product).Error)
	return product.Category
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	require.Error(t, err)
	require.True(t, pkgerrors.HasCode(err, code), "expected %s, got %v", code, err)
}

func TestCreateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	first, err := svc.Create(ctx, "Bebidas")
	require.NoError(t, err)
	second, err := svc.Create(ctx, " Bebidas ")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = svc.Create(ctx, "")
	requireCode(t, err, pkgerrors.CodeValidation)
}

// Postgres aborts a transaction after any failed statement, so a duplicate
// create must reach the existing row without a single statement erroring.
func TestCreateDuplicateIssuesNoFailingStatement(t *testing.T) {
	ctx := context.Background()
	svc, client := newTestService(t)

	var failed []string
	record := func(tx *gorm.DB) {
		if tx.Error != nil {
			failed = append(failed, tx.Statement.SQL.String()+": "+tx.Error.Error())
		}
	}
	require.NoError(t, client.DB().Callback().Create().After("gorm:create").Register("categories_test:create_errors", record))
	require.NoError(t, client.DB().Callback().Query().After("gorm:query").Register("categories_test:query_errors", record))

	first, err := svc.Create(ctx, "Limpieza")
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		again, err := svc.Create(ctx, "Limpieza")
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Empty(t, failed)

	var count int64
	require.NoError(t, client.DB().Model(&models.Category{}).Where("name = ?", "Limpieza").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRenameCascadesToProducts(t *testing.T) {
	ctx := context.Background()
	svc, client := newTestService(t)

	id, err := svc.Create(ctx, "Bebidas")
	require.NoError(t, err)
	_, err = svc.Create(ctx, "Snacks")
	require.NoError(t, err)
	seedProduct(t, client, "Jugo", "Bebidas")
	seedProduct(t, client, "Papas", "Snacks")

	require.NoError(t, svc.Rename(ctx, id, "Liquidos"))
	assert.Equal(t, "Liquidos", productCategory(t, client, "Jugo"))
	assert.Equal(t, "Snacks", productCategory(t, client, "Papas"))

	err = svc.Rename(ctx, id, "Snacks")
	requireCode(t, err, pkgerrors.CodeDuplicateName)
	assert.Equal(t, "Liquidos", productCategory(t, client, "Jugo"))

	require.NoError(t, svc.Rename(ctx, id, "Liquidos"))

	err = svc.Rename(ctx, 999, "Otro")
	requireCode(t, err, pkgerrors.CodeRecordNotFound)
}

func TestDeleteReferencedCategory(t *testing.T) {
	ctx := context.Background()
	svc, client := newTestService(t)

	id, err := svc.Create(ctx, "Bebidas")
	require.NoError(t, err)
	seedProduct(t, client, "Jugo", "Bebidas")

	err = svc.Delete(ctx, id, false)
	requireCode(t, err, pkgerrors.CodeConflict)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.Delete(ctx, id, true))
	assert.Equal(t, "", productCategory(t, client, "Jugo"))

	list, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	err = svc.Delete(ctx, id, true)
	requireCode(t, err, pkgerrors.CodeRecordNotFound)
}

func TestDeleteUnusedCategory(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	id, err := svc.Create(ctx, "Temporal")
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, id, false))
}
