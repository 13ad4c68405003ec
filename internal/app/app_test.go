package app

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/fiscal-ledger/internal/catalog"
	"github.com/angelmondragon/fiscal-ledger/internal/inventory"
	"github.com/angelmondragon/fiscal-ledger/pkg/config"
	"github.com/angelmondragon/fiscal-ledger/pkg/db/dbtest"
	"github.com/angelmondragon/fiscal-ledger/pkg/enums"
	"github.com/angelmondragon/fiscal-ledger/pkg/logger"
)

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test"},
		Fiscal: config.FiscalConfig{
			VATRate:            "0.19",
			WithholdingRate:    "0.1075",
			DefaultPaymentDays: 30,
		},
		Cron: config.CronConfig{Interval: time.Minute, LockKey: "ledger:test:lock", LockTTL: time.Minute},
	}
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "app-test", Output: io.Discard})
}

func TestNewServicesValidatesInputs(t *testing.T) {
	client := dbtest.Open(t, enums.SchemaLayoutExtended)

	_, err := NewServices(nil, testLogger(), client, nil)
	require.Error(t, err)
	_, err = NewServices(testConfig(), nil, client, nil)
	require.Error(t, err)
	_, err = NewServices(testConfig(), testLogger(), nil, nil)
	require.Error(t, err)

	cfg := testConfig()
	cfg.Fiscal.VATRate = "nope"
	_, err = NewServices(cfg, testLogger(), client, nil)
	require.Error(t, err)
}

func TestServicesShareOneStore(t *testing.T) {
	ctx := context.Background()
	client := dbtest.Open(t, enums.SchemaLayoutExtended)

	svcs, err := NewServices(testConfig(), testLogger(), client, prometheus.NewRegistry())
	require.NoError(t, err)
	assert.Equal(t, "0.19", svcs.Calculator.Constants().VATRate.String())

	_, err = svcs.Catalog.CreateProduct(ctx, catalog.ProductInput{Name: "Azucar", InternalCode: "AZ-1"})
	require.NoError(t, err)
	_, err = svcs.Inventory.Intake(ctx, inventory.AdjustInput{Code: "AZ-1", Quantity: 3})
	require.NoError(t, err)

	product, err := svcs.Catalog.FindProductByName(ctx, "Azucar")
	require.NoError(t, err)
	assert.Equal(t, 3, product.OnHand)
}

func TestSchedulerRunsRegisteredJobs(t *testing.T) {
	client := dbtest.Open(t, enums.SchemaLayoutExtended)
	reg := prometheus.NewRegistry()

	svcs, err := NewServices(testConfig(), testLogger(), client, nil)
	require.NoError(t, err)
	scheduler, err := NewScheduler(testConfig(), testLogger(), svcs, nil, reg)
	require.NoError(t, err)
	assert.Equal(t, time.Minute, scheduler.Interval())

	require.NoError(t, scheduler.RunOnce(context.Background()))

	count, err := testutil.GatherAndCount(reg, "ledger_job_success_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
