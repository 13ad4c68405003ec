package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/fiscal-ledger/internal/catalog"
	"github.com/angelmondragon/fiscal-ledger/internal/categories"
	"github.com/angelmondragon/fiscal-ledger/internal/fiscal"
	"github.com/angelmondragon/fiscal-ledger/internal/inventory"
	"github.com/angelmondragon/fiscal-ledger/internal/invoices"
	"github.com/angelmondragon/fiscal-ledger/internal/ledger"
	"github.com/angelmondragon/fiscal-ledger/internal/schema"
	"github.com/angelmondragon/fiscal-ledger/pkg/config"
	"github.com/angelmondragon/fiscal-ledger/pkg/db/dbtest"
	"github.com/angelmondragon/fiscal-ledger/pkg/enums"
	"github.com/angelmondragon/fiscal-ledger/pkg/logger"
	"github.com/angelmondragon/fiscal-ledger/pkg/metrics"
)

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

func testConfig() *config.Config {
	return &config.Config{App: config.AppConfig{Env: "test"}}
}

func newTestRouter(t *testing.T, layout enums.SchemaLayout) http.Handler {
	t.Helper()
	client := dbtest.Open(t, layout)
	logg := logger.New(logger.Options{ServiceName: "routes-test", Output: io.Discard})
	reg := prometheus.NewRegistry()
	ledgerMetrics := metrics.NewLedgerMetrics(reg)
	calc := fiscal.NewCalculator(fiscal.DefaultConstants())
	probe := schema.NewProbe()
	now := func() time.Time { return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC) }

	ledgerSvc, err := ledger.NewService(ledger.ServiceParams{
		Tx: client, Calculator: calc, Probe: probe, Logger: logg, Metrics: ledgerMetrics, Now: now,
	})
	require.NoError(t, err)
	invoiceSvc, err := invoices.NewService(invoices.ServiceParams{
		Tx: client, Calculator: calc, Probe: probe, Logger: logg, Metrics: ledgerMetrics, Now: now,
	})
	require.NoError(t, err)
	catalogSvc, err := catalog.NewService(catalog.NewRepository(client.DB()), client, logg, calc.Constants().VATRate)
	require.NoError(t, err)
	categorySvc, err := categories.NewService(client, logg)
	require.NoError(t, err)
	inventorySvc, err := inventory.NewService(client, logg, ledgerMetrics, now)
	require.NoError(t, err)

	return NewRouter(Dependencies{
		Config:     testConfig(),
		Logger:     logg,
		DB:         client,
		Gatherer:   reg,
		Calculator: calc,
		Ledger:     ledgerSvc,
		Invoices:   invoiceSvc,
		Catalog:    catalogSvc,
		Categories: categorySvc,
		Inventory:  inventorySvc,
	})
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	return resp
}

func decodeData(t *testing.T, resp *httptest.ResponseRecorder, dest any) {
	t.Helper()
	envelope := struct {
		Data json.RawMessage `json:"data"`
	}{}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, dest))
}

func errorCode(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()
	envelope := struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}{}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	return envelope.Error.Code
}

func createdID(t *testing.T, resp *httptest.ResponseRecorder) int64 {
	t.Helper()
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	var out struct {
		ID int64 `json:"id"`
	}
	decodeData(t, resp, &out)
	return out.ID
}

func TestHealthEndpoints(t *testing.T) {
	h := newTestRouter(t, enums.SchemaLayoutExtended)

	resp := do(t, h, http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "test", resp.Header().Get("X-Ledger-Env"))

	resp = do(t, h, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"database":"ok"`)
}

func TestReadyReportsFailingDependency(t *testing.T) {
	h := NewRouter(Dependencies{
		Config: testConfig(),
		Logger: logger.New(logger.Options{ServiceName: "routes-test", Output: io.Discard}),
		DB:     failingPinger{},
	})
	resp := do(t, h, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
	assert.Equal(t, "DEPENDENCY_ERROR", errorCode(t, resp))
}

func TestPurchaseAndSaleFlow(t *testing.T) {
	h := newTestRouter(t, enums.SchemaLayoutExtended)

	resp := do(t, h, http.MethodPost, "/api/v1/products", map[string]any{"name": "Harina", "internal_code": "HAR-01"})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	purchaseID := createdID(t, do(t, h, http.MethodPost, "/api/v1/purchases", map[string]any{
		"counterparty": "Molino Sur",
		"product":      "Harina",
		"quantity":     3,
		"unit_price":   "1000",
		"doc_type":     "factura",
	}))

	resp = do(t, h, http.MethodGet, "/api/v1/purchases/"+itoa(purchaseID), nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var line ledger.Line
	decodeData(t, resp, &line)
	require.NotNil(t, line.Breakdown)
	assert.True(t, line.Breakdown.Net.Equal(decimal.NewFromInt(3000)))
	assert.True(t, line.Breakdown.Tax.Equal(decimal.NewFromInt(570)))
	assert.True(t, line.Breakdown.Total.Equal(decimal.NewFromInt(3570)))
	require.NotNil(t, line.DueOn)
	assert.Equal(t, "2025-07-15", line.DueOn.String())

	resp = do(t, h, http.MethodPost, "/api/v1/sales", map[string]any{
		"counterparty": "Panaderia Centro",
		"product":      "Harina",
		"quantity":     5,
		"unit_price":   "1500",
	})
	assert.Equal(t, http.StatusConflict, resp.Code)
	assert.Equal(t, "INSUFFICIENT_STOCK", errorCode(t, resp))

	saleID := createdID(t, do(t, h, http.MethodPost, "/api/v1/sales", map[string]any{
		"counterparty": "Panaderia Centro",
		"product":      "Harina",
		"quantity":     2,
		"unit_price":   "1500",
	}))

	resp = do(t, h, http.MethodGet, "/api/v1/products/lookup?name=Harina", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"OnHand":1`)

	resp = do(t, h, http.MethodDelete, "/api/v1/sales/"+itoa(saleID), nil)
	assert.Equal(t, http.StatusNoContent, resp.Code)

	resp = do(t, h, http.MethodGet, "/api/v1/purchases/last?product=Harina", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	decodeData(t, resp, &line)
	assert.Equal(t, purchaseID, line.ID)

	resp = do(t, h, http.MethodGet, "/api/v1/purchases/last?product=Sal", nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = do(t, h, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `ledger_operations_total{entity="sale",operation="create",outcome="INSUFFICIENT_STOCK"} 1`)
}

func TestLineValidationErrors(t *testing.T) {
	h := newTestRouter(t, enums.SchemaLayoutLegacy)

	resp := do(t, h, http.MethodPost, "/api/v1/purchases", map[string]any{
		"counterparty": "Molino Sur",
		"product":      "Harina",
		"quantity":     0,
		"unit_price":   "1000",
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "INVALID_AMOUNT", errorCode(t, resp))

	resp = do(t, h, http.MethodPost, "/api/v1/sales/legacy", map[string]any{
		"counterparty": "Panaderia",
		"product":      "Harina",
		"quantity":     -2,
		"unit_price":   "1000",
		"tax_rate":     "19",
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "INVALID_AMOUNT", errorCode(t, resp))

	resp = do(t, h, http.MethodPost, "/api/v1/purchases", map[string]any{
		"product":    "Harina",
		"quantity":   1,
		"unit_price": "1000",
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, resp))

	resp = do(t, h, http.MethodPost, "/api/v1/purchases", map[string]any{
		"counterparty": "Molino Sur",
		"product":      "Harina",
		"quantity":     1,
		"unit_price":   "1000",
		"doc_type":     "PROFORMA",
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = do(t, h, http.MethodPost, "/api/v1/purchases", map[string]any{
		"counterparty": "Molino Sur",
		"product":      "Fantasma",
		"quantity":     1,
		"unit_price":   "1000",
	})
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "PRODUCT_NOT_FOUND", errorCode(t, resp))

	resp = do(t, h, http.MethodDelete, "/api/v1/sales/abc", nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = do(t, h, http.MethodDelete, "/api/v1/sales/77", nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "RECORD_NOT_FOUND", errorCode(t, resp))
}

func TestInvoiceLifecycleEndpoints(t *testing.T) {
	h := newTestRouter(t, enums.SchemaLayoutExtended)

	id := createdID(t, do(t, h, http.MethodPost, "/api/v1/invoices/amounts", map[string]any{
		"number":       "F-10",
		"counterparty": "Comercial Sur",
		"direction":    "cliente",
		"net":          "1000",
		"tax":          "190",
		"total":        "1190",
		"due_on":       "2025-06-01",
	}))
	feeID := createdID(t, do(t, h, http.MethodPost, "/api/v1/invoices", map[string]any{
		"number":       "BH-1",
		"counterparty": "Asesorias Ltda",
		"direction":    "proveedor",
		"net":          "100000",
		"doc_type":     "BOLETA_HONORARIOS",
	}))

	resp := do(t, h, http.MethodGet, "/api/v1/invoices/"+itoa(feeID), nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var fee invoices.Invoice
	decodeData(t, resp, &fee)
	require.NotNil(t, fee.Breakdown)
	assert.True(t, fee.Breakdown.Withholding.Equal(decimal.NewFromInt(10750)))
	assert.True(t, fee.Breakdown.Total.Equal(decimal.NewFromInt(89250)))

	resp = do(t, h, http.MethodPost, "/api/v1/invoices/overdue-sweep", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"data":{"marked":1}}`, resp.Body.String())

	resp = do(t, h, http.MethodGet, "/api/v1/invoices?direction=cliente&status=vencida,pendiente", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var board []invoices.Invoice
	decodeData(t, resp, &board)
	require.Len(t, board, 1)
	assert.Equal(t, id, board[0].ID)

	resp = do(t, h, http.MethodPatch, "/api/v1/invoices/"+itoa(id)+"/status", map[string]any{"status": "pagada"})
	assert.Equal(t, http.StatusNoContent, resp.Code)

	resp = do(t, h, http.MethodPatch, "/api/v1/invoices/"+itoa(id)+"/status", map[string]any{"status": "pendiente"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.Equal(t, "STATE_CONFLICT", errorCode(t, resp))

	resp = do(t, h, http.MethodGet, "/api/v1/invoices?status=vencida,pendiente", nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = do(t, h, http.MethodDelete, "/api/v1/invoices/"+itoa(id), nil)
	assert.Equal(t, http.StatusNoContent, resp.Code)
}

func TestCategoryAndInventoryEndpoints(t *testing.T) {
	h := newTestRouter(t, enums.SchemaLayoutExtended)

	catID := createdID(t, do(t, h, http.MethodPost, "/api/v1/categories", map[string]any{"name": "Abarrotes"}))
	again := createdID(t, do(t, h, http.MethodPost, "/api/v1/categories", map[string]any{"name": "Abarrotes"}))
	assert.Equal(t, catID, again)

	resp := do(t, h, http.MethodPost, "/api/v1/products", map[string]any{
		"name": "Arroz", "internal_code": "ARZ-1", "category": "Abarrotes",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	resp = do(t, h, http.MethodDelete, "/api/v1/categories/"+itoa(catID), nil)
	assert.Equal(t, http.StatusConflict, resp.Code)
	resp = do(t, h, http.MethodDelete, "/api/v1/categories/"+itoa(catID)+"?force=true", nil)
	assert.Equal(t, http.StatusNoContent, resp.Code)

	resp = do(t, h, http.MethodPost, "/api/v1/inventory/intake", map[string]any{"code": "ARZ-1", "quantity": 4})
	assert.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	resp = do(t, h, http.MethodPost, "/api/v1/inventory/withdraw", map[string]any{"code": "ARZ-1", "quantity": 9})
	assert.Equal(t, http.StatusConflict, resp.Code)
	resp = do(t, h, http.MethodPost, "/api/v1/inventory/withdraw", map[string]any{"code": "ARZ-1", "quantity": 0})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "INVALID_AMOUNT", errorCode(t, resp))

	resp = do(t, h, http.MethodGet, "/api/v1/inventory/movements?type=entrada", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var movements []map[string]any
	decodeData(t, resp, &movements)
	assert.Len(t, movements, 1)

	resp = do(t, h, http.MethodGet, "/api/v1/products/low-stock?limit=5", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "Arroz")
}

func TestCounterpartyRequiresValidRUT(t *testing.T) {
	h := newTestRouter(t, enums.SchemaLayoutExtended)

	resp := do(t, h, http.MethodPost, "/api/v1/suppliers", map[string]any{"name": "Molino Sur", "tax_id": "12.345.678-9"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "must be a valid RUT")

	resp = do(t, h, http.MethodPost, "/api/v1/suppliers", map[string]any{"name": "Molino Sur", "tax_id": "12.345.678-5"})
	assert.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	resp = do(t, h, http.MethodGet, "/api/v1/suppliers", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "Molino Sur")
}

func TestFiscalQuote(t *testing.T) {
	h := newTestRouter(t, enums.SchemaLayoutExtended)

	resp := do(t, h, http.MethodPost, "/api/v1/fiscal/quote?issued_on=2025-01-31", map[string]any{
		"quantity": 3, "unit_net": "1000", "doc_type": "FACTURA",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	body := resp.Body.String()
	assert.True(t, strings.Contains(body, `"total":"3570"`), body)
	assert.Contains(t, body, `"due_on":"2025-03-02"`)

	resp = do(t, h, http.MethodPost, "/api/v1/fiscal/quote", map[string]any{"quantity": -1, "unit_net": "1000"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "INVALID_AMOUNT", errorCode(t, resp))

	resp = do(t, h, http.MethodGet, "/api/v1/fiscal/constants", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"vat_rate":"0.19"`)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
