package app

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/fiscal-ledger/internal/catalog"
	"github.com/angelmondragon/fiscal-ledger/internal/categories"
	"github.com/angelmondragon/fiscal-ledger/internal/fiscal"
	"github.com/angelmondragon/fiscal-ledger/internal/inventory"
	"github.com/angelmondragon/fiscal-ledger/internal/invoices"
	"github.com/angelmondragon/fiscal-ledger/internal/ledger"
	"github.com/angelmondragon/fiscal-ledger/internal/schema"
	"github.com/angelmondragon/fiscal-ledger/pkg/config"
	"github.com/angelmondragon/fiscal-ledger/pkg/db"
	"github.com/angelmondragon/fiscal-ledger/pkg/logger"
	"github.com/angelmondragon/fiscal-ledger/pkg/metrics"
)

// Services is the set of domain services shared by the api, the cron worker
// and ledgerctl.
type Services struct {
	Calculator *fiscal.Calculator
	Metrics    *metrics.LedgerMetrics
	Ledger     ledger.Service
	Invoices   invoices.Service
	Catalog    catalog.Service
	Categories categories.Service
	Inventory  inventory.Service
}

// NewServices builds every domain service over one database client. A nil
// registerer disables metrics.
func NewServices(cfg *config.Config, logg *logger.Logger, client *db.Client, reg prometheus.Registerer) (*Services, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if client == nil {
		return nil, fmt.Errorf("db client required")
	}

	consts, err := fiscal.ConstantsFromConfig(cfg.Fiscal)
	if err != nil {
		return nil, fmt.Errorf("fiscal constants: %w", err)
	}
	calc := fiscal.NewCalculator(consts)
	probe := schema.NewProbe()

	ledgerMetrics := metrics.NewLedgerMetrics(reg)

	ledgerSvc, err := ledger.NewService(ledger.ServiceParams{
		Tx:                   client,
		Calculator:           calc,
		Probe:                probe,
		Logger:               logg,
		Metrics:              ledgerMetrics,
		StrictCounterparties: cfg.Fiscal.StrictCounterparties,
	})
	if err != nil {
		return nil, fmt.Errorf("ledger service: %w", err)
	}

	invoiceSvc, err := invoices.NewService(invoices.ServiceParams{
		Tx:         client,
		Calculator: calc,
		Probe:      probe,
		Logger:     logg,
		Metrics:    ledgerMetrics,
	})
	if err != nil {
		return nil, fmt.Errorf("invoice service: %w", err)
	}

	catalogSvc, err := catalog.NewService(catalog.NewRepository(client.DB()), client, logg, consts.VATRate)
	if err != nil {
		return nil, fmt.Errorf("catalog service: %w", err)
	}

	categorySvc, err := categories.NewService(client, logg)
	if err != nil {
		return nil, fmt.Errorf("category service: %w", err)
	}

	inventorySvc, err := inventory.NewService(client, logg, ledgerMetrics, nil)
	if err != nil {
		return nil, fmt.Errorf("inventory service: %w", err)
	}

	return &Services{
		Calculator: calc,
		Metrics:    ledgerMetrics,
		Ledger:     ledgerSvc,
		Invoices:   invoiceSvc,
		Catalog:    catalogSvc,
		Categories: categorySvc,
		Inventory:  inventorySvc,
	}, nil
}
