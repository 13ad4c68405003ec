package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupEnv(t *testing.T) {
	t.Helper()
	t.Setenv("LEDGER_APP_ENV", "test")
	t.Setenv("LEDGER_LOG_LEVEL", "error")
	t.Setenv("LEDGER_DB_DRIVER", "sqlite")
	t.Setenv("LEDGER_DB_DSN", "")
	t.Setenv("LEDGER_DB_PATH", filepath.Join(t.TempDir(), "ledgerctl.db"))
	t.Setenv("LEDGER_REDIS_URL", "")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, args...)
	require.NoError(t, err, "ledgerctl %v", args)
	return out
}

func TestPurchaseAndSaleThroughCLI(t *testing.T) {
	setupEnv(t)
	mustRun(t, "migrate", "up")
	mustRun(t, "product", "add", "Harina", "--code", "HAR-01")

	out := mustRun(t, "purchase", "create",
		"--counterparty", "Molino Sur", "--product", "Harina",
		"--quantity", "4", "--unit-price", "1000", "--doc-type", "factura")
	var created struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	assert.Positive(t, created.ID)

	_, err := run(t, "sale", "create",
		"--counterparty", "Panaderia", "--product", "Harina",
		"--quantity", "9", "--unit-price", "1500")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INSUFFICIENT_STOCK")

	mustRun(t, "sale", "create",
		"--counterparty", "Panaderia", "--product", "Harina",
		"--quantity", "3", "--unit-price", "1500")

	out = mustRun(t, "product", "low-stock", "--limit", "1")
	assert.Contains(t, out, `"OnHand": 1`)

	out = mustRun(t, "purchase", "last", "Harina")
	assert.Contains(t, out, `"counterparty": "Molino Sur"`)
}

func TestInvoiceSweepAndCronThroughCLI(t *testing.T) {
	setupEnv(t)
	mustRun(t, "migrate", "up")

	mustRun(t, "invoice", "create",
		"--number", "F-1", "--counterparty", "Comercial Sur",
		"--net", "1000", "--issued-on", "2020-01-01")
	out := mustRun(t, "invoice", "list", "--direction", "cliente")
	assert.Contains(t, out, `"status": "emitida"`)

	out = mustRun(t, "invoice", "status", "1", "pendiente")
	assert.Empty(t, out)

	out = mustRun(t, "invoice", "sweep")
	assert.JSONEq(t, `{"marked":1}`, out)

	mustRun(t, "cron", "run-once")

	_, err := run(t, "invoice", "status", "1", "bogus")
	require.Error(t, err)
}

func TestCategoryAndInventoryThroughCLI(t *testing.T) {
	setupEnv(t)
	mustRun(t, "migrate", "up")

	first := mustRun(t, "category", "add", "Abarrotes")
	again := mustRun(t, "category", "add", "Abarrotes")
	assert.JSONEq(t, first, again)

	mustRun(t, "product", "add", "Arroz", "--code", "ARZ-1", "--category", "Abarrotes")
	mustRun(t, "category", "rename", "1", "Despensa")
	out := mustRun(t, "category", "list")
	assert.Contains(t, out, "Despensa")

	mustRun(t, "inventory", "intake", "ARZ-1", "5")
	_, err := run(t, "inventory", "withdraw", "ARZ-1", "6")
	require.Error(t, err)

	out = mustRun(t, "quote", "--quantity", "2", "--unit-net", "500")
	assert.Contains(t, out, `"total": "1190"`)
}
