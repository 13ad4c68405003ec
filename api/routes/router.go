package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/fiscal-ledger/api/controllers"
	"github.com/angelmondragon/fiscal-ledger/api/middleware"
	"github.com/angelmondragon/fiscal-ledger/internal/catalog"
	"github.com/angelmondragon/fiscal-ledger/internal/categories"
	"github.com/angelmondragon/fiscal-ledger/internal/fiscal"
	"github.com/angelmondragon/fiscal-ledger/internal/inventory"
	"github.com/angelmondragon/fiscal-ledger/internal/invoices"
	"github.com/angelmondragon/fiscal-ledger/internal/ledger"
	"github.com/angelmondragon/fiscal-ledger/pkg/config"
	"github.com/angelmondragon/fiscal-ledger/pkg/enums"
	"github.com/angelmondragon/fiscal-ledger/pkg/logger"
)

// Dependencies are the services mounted by NewRouter. Redis may be nil.
type Dependencies struct {
	Config     *config.Config
	Logger     *logger.Logger
	DB         controllers.Pinger
	Redis      controllers.Pinger
	Gatherer   prometheus.Gatherer
	Calculator *fiscal.Calculator
	Ledger     ledger.Service
	Invoices   invoices.Service
	Catalog    catalog.Service
	Categories categories.Service
	Inventory  inventory.Service
}

func NewRouter(deps Dependencies) http.Handler {
	logg := deps.Logger
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(deps.Config.App.CORSOrigins),
	)

	ready := map[string]controllers.Pinger{"database": deps.DB}
	if deps.Redis != nil {
		ready["redis"] = deps.Redis
	}
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(deps.Config))
		r.Get("/ready", controllers.HealthReady(deps.Config, logg, ready))
	})
	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/fiscal", func(r chi.Router) {
			r.Get("/constants", controllers.FiscalConstants(deps.Calculator))
			r.Post("/quote", controllers.FiscalQuote(deps.Calculator, logg))
		})

		mountLines(r, "/purchases", deps.Ledger, enums.LineKindPurchase, logg)
		mountLines(r, "/sales", deps.Ledger, enums.LineKindSale, logg)

		r.Route("/invoices", func(r chi.Router) {
			r.Get("/", controllers.InvoiceList(deps.Invoices, logg))
			r.Post("/", controllers.InvoiceCreateFromNet(deps.Invoices, logg))
			r.Post("/amounts", controllers.InvoiceCreateWithAmounts(deps.Invoices, logg))
			r.Post("/legacy", controllers.InvoiceCreateLegacy(deps.Invoices, logg))
			r.Post("/overdue-sweep", controllers.InvoiceSweepOverdue(deps.Invoices, logg))
			r.Get("/{id}", controllers.InvoiceGet(deps.Invoices, logg))
			r.Patch("/{id}/status", controllers.InvoiceChangeStatus(deps.Invoices, logg))
			r.Delete("/{id}", controllers.InvoiceDelete(deps.Invoices, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(deps.Catalog, logg))
			r.Post("/", controllers.ProductCreate(deps.Catalog, logg))
			r.Get("/lookup", controllers.ProductLookup(deps.Catalog, logg))
			r.Get("/low-stock", controllers.ProductLowStock(deps.Catalog, logg))
		})
		r.Route("/customers", func(r chi.Router) {
			r.Get("/", controllers.CustomerList(deps.Catalog, logg))
			r.Post("/", controllers.CounterpartyCreate(deps.Catalog, catalog.CounterpartyCustomer, logg))
		})
		r.Route("/suppliers", func(r chi.Router) {
			r.Get("/", controllers.SupplierList(deps.Catalog, logg))
			r.Post("/", controllers.CounterpartyCreate(deps.Catalog, catalog.CounterpartySupplier, logg))
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", controllers.CategoryList(deps.Categories, logg))
			r.Post("/", controllers.CategoryCreate(deps.Categories, logg))
			r.Put("/{id}", controllers.CategoryRename(deps.Categories, logg))
			r.Delete("/{id}", controllers.CategoryDelete(deps.Categories, logg))
		})

		r.Route("/inventory", func(r chi.Router) {
			r.Get("/movements", controllers.InventoryMovements(deps.Inventory, logg))
			r.Post("/intake", controllers.InventoryAdjust(deps.Inventory, enums.MovementTypeIntake, logg))
			r.Post("/withdraw", controllers.InventoryAdjust(deps.Inventory, enums.MovementTypeWithdrawal, logg))
		})
	})

	return r
}

func mountLines(r chi.Router, path string, svc ledger.Service, kind enums.LineKind, logg *logger.Logger) {
	r.Route(path, func(r chi.Router) {
		r.Get("/", controllers.LineList(svc, kind, logg))
		r.Post("/", controllers.LineCreate(svc, kind, logg))
		r.Post("/legacy", controllers.LineRegisterLegacy(svc, kind, logg))
		if kind == enums.LineKindPurchase {
			r.Get("/last", controllers.LastPurchase(svc, logg))
		}
		r.Get("/{id}", controllers.LineGet(svc, kind, logg))
		r.Put("/{id}", controllers.LineEdit(svc, kind, logg))
		r.Put("/{id}/legacy", controllers.LineEditLegacy(svc, kind, logg))
		r.Delete("/{id}", controllers.LineDelete(svc, kind, logg))
	})
}
