package ledger

import (
	"context"
	"io"
	"math/rand"
	"testing"
	"time"

	"github.com/angelmondragon/fiscal-ledger/internal/fiscal"
	"github.com/angelmondragon/fiscal-ledger/internal/schema"
	"github.com/angelmondragon/fiscal-ledger/pkg/db"
	"github.com/angelmondragon/fiscal-ledger/pkg/db/dbtest"
	"github.com/angelmondragon/fiscal-ledger/pkg/db/models"
	"github.com/angelmondragon/fiscal-ledger/pkg/enums"
	pkgerrors "github.com/angelmondragon/fiscal-ledger/pkg/errors"
	"github.com/angelmondragon/fiscal-ledger/pkg/logger"
	"github.com/angelmondragon/fiscal-ledger/pkg/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2025, 3, 10, 15, 4, 5, 0, time.UTC)

var layouts = []enums.SchemaLayout{enums.SchemaLayoutLegacy, enums.SchemaLayoutExtended}

type fixture struct {
	client *db.Client
	svc    Service
}

func newFixture(t *testing.T, layout enums.SchemaLayout, strict bool) fixture {
	t.Helper()
	client := dbtest.Open(t, layout)
	svc, err := NewService(ServiceParams{
		Tx:                   client,
		Calculator:           fiscal.NewCalculator(fiscal.DefaultConstants()),
		Probe:                schema.NewProbe(),
		Logger:               logger.New(logger.Options{ServiceName: "ledger-test", Output: io.Discard}),
		StrictCounterparties: strict,
		Now:                  func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	return fixture{client: client, svc: svc}
}

func (f fixture) seedProduct(t *testing.T, name string, onHand int) {
	t.Helper()
	require.NoError(t, f.client.DB().Create(&models.Product{
		Name:    name,
		OnHand:  onHand,
		TaxRate: decimal.RequireFromString("0.19"),
	}).Error)
}

func (f fixture) onHand(t *testing.T, name string) int {
	t.Helper()
	var product models.Product
	require.NoError(t, f.client.DB().Where("name = ?", name).Take(&product).Error)
	return product.OnHand
}

func docPtr(d enums.DocType) *enums.DocType { return &d }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func requireCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	require.Error(t, err)
	require.True(t, pkgerrors.HasCode(err, code), "expected %s, got %v", code, err)
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)

	client := dbtest.Open(t, enums.SchemaLayoutExtended)
	_, err = NewService(ServiceParams{Tx: client, Calculator: fiscal.NewCalculator(fiscal.DefaultConstants())})
	require.Error(t, err)
}

func TestCreatePurchaseAddsStock(t *testing.T) {
	for _, layout := range layouts {
		t.Run(layout.String(), func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t, layout, false)
			f.seedProduct(t, "Widget", 2)

			id, err := f.svc.Create(ctx, enums.LineKindPurchase, CreateLineInput{
				Counterparty: "Proveedora Sur",
				Product:      "Widget",
				Quantity:     3,
				UnitPrice:    dec("1000"),
				DocType:      docPtr(enums.DocTypeInvoice),
			})
			require.NoError(t, err)
			require.NotZero(t, id)
			assert.Equal(t, 5, f.onHand(t, "Widget"))

			line, err := f.svc.Get(ctx, enums.LineKindPurchase, id)
			require.NoError(t, err)
			assert.Equal(t, layout, line.Layout)
			assert.True(t, dec("3570").Equal(line.Total), "total %s", line.Total)
			assert.Equal(t, types.DateOf(fixedNow), line.IssuedOn)

			if layout == enums.SchemaLayoutLegacy {
				assert.Nil(t, line.Breakdown)
				assert.Nil(t, line.DocType)
				assert.Nil(t, line.DueOn)
				return
			}
			require.NotNil(t, line.Breakdown)
			assert.True(t, dec("3000").Equal(line.Breakdown.Net))
			assert.True(t, dec("570").Equal(line.Breakdown.Tax))
			assert.True(t, line.Breakdown.Withholding.IsZero())
			require.NotNil(t, line.DocType)
			assert.Equal(t, enums.DocTypeInvoice, *line.DocType)
			require.NotNil(t, line.DueOn)
			assert.Equal(t, types.DateOf(fixedNow).AddDays(30), *line.DueOn)
		})
	}
}

func TestCreateFeeReceiptSaleStoresWithholding(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, enums.SchemaLayoutExtended, false)
	f.seedProduct(t, "Consultoria", 1)

	id, err := f.svc.Create(ctx, enums.LineKindSale, CreateLineInput{
		Counterparty: "Cliente Uno",
		Product:      "Consultoria",
		Quantity:     1,
		UnitPrice:    dec("100000"),
		DocType:      docPtr(enums.DocTypeFeeReceipt),
	})
	require.NoError(t, err)

	line, err := f.svc.Get(ctx, enums.LineKindSale, id)
	require.NoError(t, err)
	require.NotNil(t, line.Breakdown)
	assert.True(t, dec("100000").Equal(line.Breakdown.Net))
	assert.True(t, line.Breakdown.Tax.IsZero())
	assert.True(t, dec("10750").Equal(line.Breakdown.Withholding))
	assert.True(t, dec("89250").Equal(line.Total))
	assert.True(t, line.TaxRate.IsZero())
	assert.Nil(t, line.DueOn)
	assert.Equal(t, 0, f.onHand(t, "Consultoria"))
}

func TestCreatePurchaseKeepsExplicitDueDate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, enums.SchemaLayoutExtended, false)
	f.seedProduct(t, "Widget", 0)

	issued := types.Date{Year: 2025, Month: time.January, Day: 31}
	due := types.Date{Year: 2025, Month: time.February, Day: 15}
	id, err := f.svc.Create(ctx, enums.LineKindPurchase, CreateLineInput{
		Counterparty: "Proveedora Sur",
		Product:      "Widget",
		Quantity:     1,
		UnitPrice:    dec("10"),
		IssuedOn:     &issued,
		DueOn:        &due,
	})
	require.NoError(t, err)

	line, err := f.svc.Get(ctx, enums.LineKindPurchase, id)
	require.NoError(t, err)
	assert.Equal(t, issued, line.IssuedOn)
	require.NotNil(t, line.DueOn)
	assert.Equal(t, due, *line.DueOn)
}

func TestCreateSaleRejectsInsufficientStock(t *testing.T) {
	for _, layout := range layouts {
		t.Run(layout.String(), func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t, layout, false)
			f.seedProduct(t, "Widget", 2)

			_, err := f.svc.Create(ctx, enums.LineKindSale, CreateLineInput{
				Counterparty: "Cliente Uno",
				Product:      "Widget",
				Quantity:     3,
				UnitPrice:    dec("500"),
			})
			requireCode(t, err, pkgerrors.CodeInsufficientStock)
			assert.Equal(t, 2, f.onHand(t, "Widget"))

			lines, err := f.svc.List(ctx, enums.LineKindSale, ListFilter{})
			require.NoError(t, err)
			assert.Empty(t, lines)
		})
	}
}

func TestCreateRejectsUnknownProduct(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, enums.SchemaLayoutExtended, false)

	_, err := f.svc.Create(ctx, enums.LineKindPurchase, CreateLineInput{
		Counterparty: "Proveedora Sur",
		Product:      "Ghost",
		Quantity:     1,
		UnitPrice:    dec("10"),
	})
	requireCode(t, err, pkgerrors.CodeProductNotFound)

	lines, err := f.svc.List(ctx, enums.LineKindPurchase, ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestCreateRejectsInvalidAmountsBeforeTouchingStore(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, enums.SchemaLayoutExtended, false)
	f.seedProduct(t, "Widget", 5)

	_, err := f.svc.Create(ctx, enums.LineKindSale, CreateLineInput{
		Counterparty: "Cliente Uno", Product: "Widget", Quantity: 0, UnitPrice: dec("10"),
	})
	requireCode(t, err, pkgerrors.CodeInvalidAmount)

	_, err = f.svc.Create(ctx, enums.LineKindSale, CreateLineInput{
		Counterparty: "Cliente Uno", Product: "Widget", Quantity: 1, UnitPrice: dec("-1"),
	})
	requireCode(t, err, pkgerrors.CodeInvalidAmount)

	_, err = f.svc.Create(ctx, enums.LineKindSale, CreateLineInput{
		Counterparty: " ", Product: "Widget", Quantity: 1, UnitPrice: dec("1"),
	})
	requireCode(t, err, pkgerrors.CodeValidation)

	_, err = f.svc.Create(ctx, enums.LineKind("transfer"), CreateLineInput{
		Counterparty: "x", Product: "Widget", Quantity: 1, UnitPrice: dec("1"),
	})
	requireCode(t, err, pkgerrors.CodeValidation)

	assert.Equal(t, 5, f.onHand(t, "Widget"))
}

func TestEditSaleRevalidatesAgainstRevertedStock(t *testing.T) {
	for _, layout := range layouts {
		t.Run(layout.String(), func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t, layout, false)
			f.seedProduct(t, "Widget", 10)

			input := CreateLineInput{
				Counterparty: "Cliente Uno",
				Product:      "Widget",
				Quantity:     3,
				UnitPrice:    dec("1000"),
				DocType:      docPtr(enums.DocTypeReceipt),
			}
			id, err := f.svc.Create(ctx, enums.LineKindSale, input)
			require.NoError(t, err)
			require.Equal(t, 7, f.onHand(t, "Widget"))

			input.Quantity = 1
			require.NoError(t, f.svc.Edit(ctx, enums.LineKindSale, id, input))
			assert.Equal(t, 9, f.onHand(t, "Widget"))

			// the whole reverted stock may be sold by the edited line
			input.Quantity = 10
			require.NoError(t, f.svc.Edit(ctx, enums.LineKindSale, id, input))
			assert.Equal(t, 0, f.onHand(t, "Widget"))

			input.Quantity = 11
			err = f.svc.Edit(ctx, enums.LineKindSale, id, input)
			requireCode(t, err, pkgerrors.CodeInsufficientStock)
			assert.Equal(t, 0, f.onHand(t, "Widget"))

			line, err := f.svc.Get(ctx, enums.LineKindSale, id)
			require.NoError(t, err)
			assert.Equal(t, 10, line.Quantity)
			assert.Equal(t, id, line.ID)
		})
	}
}

func TestEditSaleScenarioEndsAtEight(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, enums.SchemaLayoutExtended, false)
	f.seedProduct(t, "Widget", 10)

	input := CreateLineInput{Counterparty: "Cliente Uno", Product: "Widget", Quantity: 3, UnitPrice: dec("100")}
	id, err := f.svc.Create(ctx, enums.LineKindSale, input)
	require.NoError(t, err)

	input.Quantity = 1
	require.NoError(t, f.svc.Edit(ctx, enums.LineKindSale, id, input))

	_, err = f.svc.Create(ctx, enums.LineKindSale, input)
	require.NoError(t, err)
	assert.Equal(t, 8, f.onHand(t, "Widget"))
}

func TestEditMovesStockBetweenProducts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, enums.SchemaLayoutExtended, false)
	f.seedProduct(t, "Alpha", 0)
	f.seedProduct(t, "Beta", 0)

	input := CreateLineInput{Counterparty: "Proveedora Sur", Product: "Alpha", Quantity: 4, UnitPrice: dec("50")}
	id, err := f.svc.Create(ctx, enums.LineKindPurchase, input)
	require.NoError(t, err)

	input.Product = "Beta"
	input.Quantity = 6
	require.NoError(t, f.svc.Edit(ctx, enums.LineKindPurchase, id, input))

	assert.Equal(t, 0, f.onHand(t, "Alpha"))
	assert.Equal(t, 6, f.onHand(t, "Beta"))
}

func TestEditPurchaseFailsWhenUnitsWereAlreadySold(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, enums.SchemaLayoutExtended, false)
	f.seedProduct(t, "Widget", 0)

	purchase := CreateLineInput{Counterparty: "Proveedora Sur", Product: "Widget", Quantity: 5, UnitPrice: dec("50")}
	id, err := f.svc.Create(ctx, enums.LineKindPurchase, purchase)
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, enums.LineKindSale, CreateLineInput{
		Counterparty: "Cliente Uno", Product: "Widget", Quantity: 4, UnitPrice: dec("80"),
	})
	require.NoError(t, err)

	purchase.Quantity = 2
	err = f.svc.Edit(ctx, enums.LineKindPurchase, id, purchase)
	requireCode(t, err, pkgerrors.CodeInsufficientStock)
	assert.Equal(t, 1, f.onHand(t, "Widget"))

	err = f.svc.Delete(ctx, enums.LineKindPurchase, id)
	requireCode(t, err, pkgerrors.CodeInsufficientStock)
	assert.Equal(t, 1, f.onHand(t, "Widget"))
}

func TestEditMissingLine(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, enums.SchemaLayoutLegacy, false)
	f.seedProduct(t, "Widget", 1)

	err := f.svc.Edit(ctx, enums.LineKindSale, 404, CreateLineInput{
		Counterparty: "Cliente Uno", Product: "Widget", Quantity: 1, UnitPrice: dec("1"),
	})
	requireCode(t, err, pkgerrors.CodeRecordNotFound)
	assert.Equal(t, 1, f.onHand(t, "Widget"))
}

func TestDeleteRevertsStock(t *testing.T) {
	for _, layout := range layouts {
		t.Run(layout.String(), func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t, layout, false)
			f.seedProduct(t, "Widget", 10)

			id, err := f.svc.Create(ctx, enums.LineKindSale, CreateLineInput{
				Counterparty: "Cliente Uno", Product: "Widget", Quantity: 4, UnitPrice: dec("100"),
			})
			require.NoError(t, err)
			require.Equal(t, 6, f.onHand(t, "Widget"))

			require.NoError(t, f.svc.Delete(ctx, enums.LineKindSale, id))
			assert.Equal(t, 10, f.onHand(t, "Widget"))

			_, err = f.svc.Get(ctx, enums.LineKindSale, id)
			requireCode(t, err, pkgerrors.CodeRecordNotFound)

			err = f.svc.Delete(ctx, enums.LineKindSale, id)
			requireCode(t, err, pkgerrors.CodeRecordNotFound)
			assert.Equal(t, 10, f.onHand(t, "Widget"))
		})
	}
}

func TestRegisterLegacyNormalizesRate(t *testing.T) {
	for _, layout := range layouts {
		t.Run(layout.String(), func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t, layout, false)
			f.seedProduct(t, "Widget", 0)

			percent, err := f.svc.RegisterLegacy(ctx, enums.LineKindPurchase, LegacyLineInput{
				Counterparty: "Proveedora Sur", Product: "Widget", Quantity: 2, UnitPrice: dec("1000"), TaxRate: dec("19"),
			})
			require.NoError(t, err)
			fraction, err := f.svc.RegisterLegacy(ctx, enums.LineKindPurchase, LegacyLineInput{
				Counterparty: "Proveedora Sur", Product: "Widget", Quantity: 2, UnitPrice: dec("1000"), TaxRate: dec("0.19"),
			})
			require.NoError(t, err)
			assert.Equal(t, 4, f.onHand(t, "Widget"))

			for _, id := range []int64{percent, fraction} {
				line, err := f.svc.Get(ctx, enums.LineKindPurchase, id)
				require.NoError(t, err)
				assert.True(t, dec("2380").Equal(line.Total), "total %s", line.Total)
				assert.True(t, dec("0.19").Equal(line.TaxRate), "rate %s", line.TaxRate)
				assert.Nil(t, line.DocType)
				if line.Breakdown != nil {
					assert.True(t, line.Breakdown.Withholding.IsZero())
				}
			}

			_, err = f.svc.RegisterLegacy(ctx, enums.LineKindPurchase, LegacyLineInput{
				Counterparty: "Proveedora Sur", Product: "Widget", Quantity: 2, UnitPrice: dec("1000"), TaxRate: dec("150"),
			})
			requireCode(t, err, pkgerrors.CodeInvalidAmount)
		})
	}
}

func TestEditLegacyRecomputes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, enums.SchemaLayoutLegacy, false)
	f.seedProduct(t, "Widget", 5)

	input := LegacyLineInput{Counterparty: "Cliente Uno", Product: "Widget", Quantity: 2, UnitPrice: dec("100"), TaxRate: dec("19")}
	id, err := f.svc.RegisterLegacy(ctx, enums.LineKindSale, input)
	require.NoError(t, err)
	require.Equal(t, 3, f.onHand(t, "Widget"))

	input.Quantity = 5
	input.TaxRate = dec("0")
	require.NoError(t, f.svc.EditLegacy(ctx, enums.LineKindSale, id, input))
	assert.Equal(t, 0, f.onHand(t, "Widget"))

	line, err := f.svc.Get(ctx, enums.LineKindSale, id)
	require.NoError(t, err)
	assert.True(t, dec("500").Equal(line.Total))
}

func TestStrictCounterparties(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, enums.SchemaLayoutExtended, true)
	f.seedProduct(t, "Widget", 5)
	require.NoError(t, f.client.DB().Create(&models.Customer{Name: "Cliente Uno"}).Error)

	_, err := f.svc.Create(ctx, enums.LineKindSale, CreateLineInput{
		Counterparty: "Cliente Dos", Product: "Widget", Quantity: 1, UnitPrice: dec("10"),
	})
	requireCode(t, err, pkgerrors.CodeCounterpartyNotFound)

	// customers do not count as suppliers
	_, err = f.svc.Create(ctx, enums.LineKindPurchase, CreateLineInput{
		Counterparty: "Cliente Uno", Product: "Widget", Quantity: 1, UnitPrice: dec("10"),
	})
	requireCode(t, err, pkgerrors.CodeCounterpartyNotFound)

	_, err = f.svc.Create(ctx, enums.LineKindSale, CreateLineInput{
		Counterparty: "Cliente Uno", Product: "Widget", Quantity: 1, UnitPrice: dec("10"),
	})
	require.NoError(t, err)
	assert.Equal(t, 4, f.onHand(t, "Widget"))
}

func TestListFiltersAndLastPurchase(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, enums.SchemaLayoutExtended, false)
	f.seedProduct(t, "Alpha", 0)
	f.seedProduct(t, "Beta", 0)

	dates := []types.Date{
		{Year: 2025, Month: time.January, Day: 5},
		{Year: 2025, Month: time.February, Day: 5},
		{Year: 2025, Month: time.March, Day: 5},
	}
	var lastAlpha int64
	for i, d := range dates {
		d := d
		for _, product := range []string{"Alpha", "Beta"} {
			id, err := f.svc.Create(ctx, enums.LineKindPurchase, CreateLineInput{
				Counterparty: "Proveedora Sur",
				Product:      product,
				Quantity:     i + 1,
				UnitPrice:    dec("10"),
				IssuedOn:     &d,
			})
			require.NoError(t, err)
			if product == "Alpha" {
				lastAlpha = id
			}
		}
	}

	lines, err := f.svc.List(ctx, enums.LineKindPurchase, ListFilter{Product: "Alpha"})
	require.NoError(t, err)
	require.Len(t, lines, 3)
	assert.Greater(t, lines[0].ID, lines[1].ID)

	from := dates[1]
	lines, err = f.svc.List(ctx, enums.LineKindPurchase, ListFilter{From: &from, Limit: 3})
	require.NoError(t, err)
	assert.Len(t, lines, 3)

	to := dates[0]
	lines, err = f.svc.List(ctx, enums.LineKindPurchase, ListFilter{To: &to})
	require.NoError(t, err)
	assert.Len(t, lines, 2)

	last, err := f.svc.LastPurchaseForProduct(ctx, "Alpha")
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, lastAlpha, last.ID)
	assert.Equal(t, 3, last.Quantity)

	none, err := f.svc.LastPurchaseForProduct(ctx, "Gamma")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestWritesFollowLiveMigration(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, enums.SchemaLayoutLegacy, false)
	f.seedProduct(t, "Widget", 0)

	input := CreateLineInput{
		Counterparty: "Proveedora Sur",
		Product:      "Widget",
		Quantity:     1,
		UnitPrice:    dec("1000"),
		DocType:      docPtr(enums.DocTypeExemptInvoice),
	}
	legacyID, err := f.svc.Create(ctx, enums.LineKindPurchase, input)
	require.NoError(t, err)

	dbtest.Upgrade(t, f.client)

	extendedID, err := f.svc.Create(ctx, enums.LineKindPurchase, input)
	require.NoError(t, err)
	assert.Equal(t, 2, f.onHand(t, "Widget"))

	extended, err := f.svc.Get(ctx, enums.LineKindPurchase, extendedID)
	require.NoError(t, err)
	assert.Equal(t, enums.SchemaLayoutExtended, extended.Layout)
	require.NotNil(t, extended.Breakdown)
	assert.True(t, dec("1000").Equal(extended.Total))

	// rows written before the upgrade carry no fiscal columns
	old, err := f.svc.Get(ctx, enums.LineKindPurchase, legacyID)
	require.NoError(t, err)
	assert.True(t, dec("1000").Equal(old.Total))
	require.NotNil(t, old.Breakdown)
	assert.Nil(t, old.DocType)
}

func TestFailedWriteRollsBackEverything(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, enums.SchemaLayoutExtended, false)
	f.seedProduct(t, "Widget", 3)

	// a trigger that rejects the stock update after the line was inserted
	require.NoError(t, f.client.DB().Exec(`
		CREATE TRIGGER reject_stock BEFORE UPDATE OF on_hand ON products
		WHEN NEW.on_hand = 1
		BEGIN SELECT RAISE(ABORT, 'rejected'); END
	`).Error)

	_, err := f.svc.Create(ctx, enums.LineKindSale, CreateLineInput{
		Counterparty: "Cliente Uno", Product: "Widget", Quantity: 2, UnitPrice: dec("10"),
	})
	require.Error(t, err)
	assert.Equal(t, 3, f.onHand(t, "Widget"))

	lines, err := f.svc.List(ctx, enums.LineKindSale, ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, lines)
}

// TestStockMatchesSignedSumOfLines replays random creates, edits and deletes
// and checks that every product's stock equals its seed plus purchases minus
// sales still on record.
func TestStockMatchesSignedSumOfLines(t *testing.T) {
	for _, layout := range layouts {
		t.Run(layout.String(), func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t, layout, false)
			rng := rand.New(rand.NewSource(42))

			products := []string{"Alpha", "Beta", "Gamma"}
			seed := map[string]int{"Alpha": 5, "Beta": 0, "Gamma": 12}
			for _, p := range products {
				f.seedProduct(t, p, seed[p])
			}
			kinds := []enums.LineKind{enums.LineKindPurchase, enums.LineKindSale}
			var ids []struct {
				kind enums.LineKind
				id   int64
			}

			for i := 0; i < 150; i++ {
				kind := kinds[rng.Intn(len(kinds))]
				input := CreateLineInput{
					Counterparty: "Contraparte",
					Product:      products[rng.Intn(len(products))],
					Quantity:     1 + rng.Intn(6),
					UnitPrice:    decimal.NewFromInt(int64(rng.Intn(5000))),
				}
				switch op := rng.Intn(4); {
				case op <= 1 || len(ids) == 0:
					id, err := f.svc.Create(ctx, kind, input)
					if err != nil {
						requireCode(t, err, pkgerrors.CodeInsufficientStock)
						continue
					}
					ids = append(ids, struct {
						kind enums.LineKind
						id   int64
					}{kind, id})
				case op == 2:
					target := ids[rng.Intn(len(ids))]
					err := f.svc.Edit(ctx, target.kind, target.id, input)
					if err != nil {
						requireCode(t, err, pkgerrors.CodeInsufficientStock)
					}
				default:
					idx := rng.Intn(len(ids))
					target := ids[idx]
					err := f.svc.Delete(ctx, target.kind, target.id)
					if err != nil {
						requireCode(t, err, pkgerrors.CodeInsufficientStock)
						continue
					}
					ids = append(ids[:idx], ids[idx+1:]...)
				}
			}

			for _, p := range products {
				assert.Equal(t, seed[p]+signedSum(t, f.client.DB(), p), f.onHand(t, p), "product %s", p)
				assert.GreaterOrEqual(t, f.onHand(t, p), 0)
			}
		})
	}
}

func signedSum(t *testing.T, conn *gorm.DB, product string) int {
	t.Helper()
	var purchased, sold int
	require.NoError(t, conn.Table(schema.TablePurchaseLines).Where("product = ?", product).
		Select("COALESCE(SUM(quantity), 0)").Scan(&purchased).Error)
	require.NoError(t, conn.Table(schema.TableSaleLines).Where("product = ?", product).
		Select("COALESCE(SUM(quantity), 0)").Scan(&sold).Error)
	return purchased - sold
}
