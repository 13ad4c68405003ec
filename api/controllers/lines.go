package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/fiscal-ledger/api/responses"
	"github.com/angelmondragon/fiscal-ledger/api/validators"
	"github.com/angelmondragon/fiscal-ledger/internal/ledger"
	"github.com/angelmondragon/fiscal-ledger/pkg/enums"
	pkgerrors "github.com/angelmondragon/fiscal-ledger/pkg/errors"
	"github.com/angelmondragon/fiscal-ledger/pkg/logger"
	"github.com/angelmondragon/fiscal-ledger/pkg/types"
	"github.com/shopspring/decimal"
)

type lineRequest struct {
	Counterparty string          `json:"counterparty" validate:"required,max=200"`
	Product      string          `json:"product" validate:"required,max=200"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	DocType      string          `json:"doc_type" validate:"omitempty,doctype"`
	IssuedOn     *types.Date     `json:"issued_on"`
	DueOn        *types.Date     `json:"due_on"`
}

func (r lineRequest) toInput() (ledger.CreateLineInput, error) {
	docType, err := enums.ParseOptionalDocType(r.DocType)
	if err != nil {
		return ledger.CreateLineInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid doc_type")
	}
	return ledger.CreateLineInput{
		Counterparty: strings.TrimSpace(r.Counterparty),
		Product:      strings.TrimSpace(r.Product),
		Quantity:     r.Quantity,
		UnitPrice:    r.UnitPrice,
		DocType:      docType,
		IssuedOn:     r.IssuedOn,
		DueOn:        r.DueOn,
	}, nil
}

type legacyLineRequest struct {
	Counterparty string          `json:"counterparty" validate:"required,max=200"`
	Product      string          `json:"product" validate:"required,max=200"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	TaxRate      decimal.Decimal `json:"tax_rate"`
	IssuedOn     *types.Date     `json:"issued_on"`
}

func (r legacyLineRequest) toInput() ledger.LegacyLineInput {
	return ledger.LegacyLineInput{
		Counterparty: strings.TrimSpace(r.Counterparty),
		Product:      strings.TrimSpace(r.Product),
		Quantity:     r.Quantity,
		UnitPrice:    r.UnitPrice,
		TaxRate:      r.TaxRate,
		IssuedOn:     r.IssuedOn,
	}
}

// LineCreate records a purchase or sale priced by document type.
func LineCreate(svc ledger.Service, kind enums.LineKind, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload lineRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := svc.Create(r.Context(), kind, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, id)
	}
}

// LineEdit replaces a line and re-applies its stock effect.
func LineEdit(svc ledger.Service, kind enums.LineKind, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload lineRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Edit(r.Context(), kind, id, input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

func LineDelete(svc ledger.Service, kind enums.LineKind, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), kind, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// LineRegisterLegacy records a line priced with an explicit VAT rate.
func LineRegisterLegacy(svc ledger.Service, kind enums.LineKind, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload legacyLineRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := svc.RegisterLegacy(r.Context(), kind, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, id)
	}
}

func LineEditLegacy(svc ledger.Service, kind enums.LineKind, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload legacyLineRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.EditLegacy(r.Context(), kind, id, payload.toInput()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

func LineGet(svc ledger.Service, kind enums.LineKind, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		line, err := svc.Get(r.Context(), kind, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, line)
	}
}

// LineList supports product, counterparty, from, to, limit and offset
// query parameters.
func LineList(svc ledger.Service, kind enums.LineKind, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := lineFilterFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lines, err := svc.List(r.Context(), kind, filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, lines)
	}
}

// LastPurchase returns the most recent purchase of ?product=.
func LastPurchase(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		product := validators.SanitizeString(r.URL.Query().Get("product"), 200)
		if product == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product query parameter is required"))
			return
		}
		line, err := svc.LastPurchaseForProduct(r.Context(), product)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if line == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeRecordNotFound, "no purchases recorded for product"))
			return
		}
		responses.WriteSuccess(w, line)
	}
}

func lineFilterFromQuery(r *http.Request) (ledger.ListFilter, error) {
	q := r.URL.Query()
	page, err := validators.ParsePage(r)
	if err != nil {
		return ledger.ListFilter{}, err
	}
	from, err := validators.ParseQueryDate(r, "from")
	if err != nil {
		return ledger.ListFilter{}, err
	}
	to, err := validators.ParseQueryDate(r, "to")
	if err != nil {
		return ledger.ListFilter{}, err
	}
	return ledger.ListFilter{
		Product:      validators.SanitizeString(q.Get("product"), 200),
		Counterparty: validators.SanitizeString(q.Get("counterparty"), 200),
		From:         from,
		To:           to,
		Limit:        page.Limit,
		Offset:       page.Offset,
	}, nil
}
