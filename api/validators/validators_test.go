package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/fiscal-ledger/pkg/errors"
	"github.com/angelmondragon/fiscal-ledger/pkg/pagination"
)

func TestSanitizeStringKeepsRunesWhole(t *testing.T) {
	assert.Equal(t, "Panaderia", SanitizeString("  Panaderia  ", 0))
	assert.Equal(t, "Año", SanitizeString("Año Nuevo", 3))
	assert.Equal(t, "Ñuñoa", SanitizeString("Ñuñoa", 10))
}

type counterpartyBody struct {
	TaxID   string `json:"tax_id" validate:"required,rut"`
	DocType string `json:"doc_type" validate:"omitempty,doctype"`
}

func TestDecodeJSONBodyCustomTags(t *testing.T) {
	decode := func(body string) error {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		var dest counterpartyBody
		return DecodeJSONBody(req, &dest)
	}

	require.NoError(t, decode(`{"tax_id":"12.345.678-5","doc_type":"boleta"}`))

	err := decode(`{"tax_id":"12.345.678-9"}`)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Equal(t, map[string]string{"TaxID": "must be a valid RUT"}, typed.Details())

	err = decode(`{"tax_id":"12.345.678-5","doc_type":"PROFORMA"}`)
	require.Error(t, err)

	err = decode(`{"tax_id":"12.345.678-5","extra":1}`)
	require.Error(t, err)
}

func TestParsePage(t *testing.T) {
	page, err := ParsePage(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, pagination.Params{Limit: pagination.DefaultLimit}, page)

	page, err = ParsePage(httptest.NewRequest(http.MethodGet, "/?limit=10&offset=30", nil))
	require.NoError(t, err)
	assert.Equal(t, pagination.Params{Limit: 10, Offset: 30}, page)

	_, err = ParsePage(httptest.NewRequest(http.MethodGet, "/?limit=5000", nil))
	require.Error(t, err)
	_, err = ParsePage(httptest.NewRequest(http.MethodGet, "/?offset=x", nil))
	require.Error(t, err)
}

func TestParsePathID(t *testing.T) {
	withID := func(id string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", id)
		return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}

	id, err := ParsePathID(withID("42"), "id")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	_, err = ParsePathID(withID("0"), "id")
	require.Error(t, err)
	_, err = ParsePathID(withID("abc"), "id")
	require.Error(t, err)
}

func TestParseQueryDate(t *testing.T) {
	d, err := ParseQueryDate(httptest.NewRequest(http.MethodGet, "/?from=2025-03-01", nil), "from")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, "2025-03-01", d.String())

	d, err = ParseQueryDate(httptest.NewRequest(http.MethodGet, "/", nil), "from")
	require.NoError(t, err)
	assert.Nil(t, d)

	_, err = ParseQueryDate(httptest.NewRequest(http.MethodGet, "/?from=01-03-2025", nil), "from")
	require.Error(t, err)
}
