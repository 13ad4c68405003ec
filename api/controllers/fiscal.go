package controllers

import (
	"net/http"

	"github.com/angelmondragon/fiscal-ledger/api/responses"
	"github.com/angelmondragon/fiscal-ledger/api/validators"
	"github.com/angelmondragon/fiscal-ledger/internal/fiscal"
	"github.com/angelmondragon/fiscal-ledger/pkg/enums"
	pkgerrors "github.com/angelmondragon/fiscal-ledger/pkg/errors"
	"github.com/angelmondragon/fiscal-ledger/pkg/logger"
	"github.com/angelmondragon/fiscal-ledger/pkg/types"
	"github.com/shopspring/decimal"
)

type breakdownRequest struct {
	Quantity int             `json:"quantity"`
	UnitNet  decimal.Decimal `json:"unit_net"`
	DocType  string          `json:"doc_type" validate:"omitempty,doctype"`
}

type quoteResponse struct {
	Breakdown fiscal.Breakdown `json:"breakdown"`
	TaxRate   decimal.Decimal  `json:"tax_rate"`
	DueOn     *types.Date      `json:"due_on,omitempty"`
}

// FiscalQuote previews the breakdown of quantity × unit_net for a document
// type without writing anything. A quantity of zero is treated as one.
func FiscalQuote(calc *fiscal.Calculator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload breakdownRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		docType, err := enums.ParseOptionalDocType(payload.DocType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid doc_type"))
			return
		}
		qty := payload.Quantity
		if qty == 0 {
			qty = 1
		}
		breakdown, err := calc.ComputeBreakdown(qty, payload.UnitNet, docType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := quoteResponse{Breakdown: breakdown, TaxRate: calc.TaxRateFor(docType)}
		issued, err := validators.ParseQueryDate(r, "issued_on")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if issued != nil {
			due := calc.DefaultDueDate(*issued)
			out.DueOn = &due
		}
		responses.WriteSuccess(w, out)
	}
}

// FiscalConstants exposes the configured VAT, withholding and payment term.
func FiscalConstants(calc *fiscal.Calculator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := calc.Constants()
		responses.WriteSuccess(w, map[string]any{
			"vat_rate":             c.VATRate,
			"withholding_rate":     c.WithholdingRate,
			"default_payment_days": c.DefaultPaymentDays,
			"monetary_decimals":    c.MonetaryDecimals,
		})
	}
}
