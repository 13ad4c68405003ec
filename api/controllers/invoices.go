package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/fiscal-ledger/api/responses"
	"github.com/angelmondragon/fiscal-ledger/api/validators"
	"github.com/angelmondragon/fiscal-ledger/internal/invoices"
	"github.com/angelmondragon/fiscal-ledger/pkg/enums"
	pkgerrors "github.com/angelmondragon/fiscal-ledger/pkg/errors"
	"github.com/angelmondragon/fiscal-ledger/pkg/logger"
	"github.com/angelmondragon/fiscal-ledger/pkg/types"
	"github.com/shopspring/decimal"
)

type invoiceFromNetRequest struct {
	Number       string          `json:"number" validate:"required,max=64"`
	Counterparty string          `json:"counterparty" validate:"required,max=200"`
	Direction    string          `json:"direction" validate:"required"`
	Net          decimal.Decimal `json:"net"`
	DocType      string          `json:"doc_type" validate:"omitempty,doctype"`
	IssuedOn     *types.Date     `json:"issued_on"`
	PaymentDays  int             `json:"payment_days" validate:"gte=0,lte=3650"`
	Status       string          `json:"status"`
}

func (r invoiceFromNetRequest) toInput() (invoices.CreateFromNetInput, error) {
	direction, err := enums.ParseInvoiceDirection(r.Direction)
	if err != nil {
		return invoices.CreateFromNetInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid direction")
	}
	docType, err := enums.ParseOptionalDocType(r.DocType)
	if err != nil {
		return invoices.CreateFromNetInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid doc_type")
	}
	status, err := optionalStatus(r.Status)
	if err != nil {
		return invoices.CreateFromNetInput{}, err
	}
	return invoices.CreateFromNetInput{
		Number:       strings.TrimSpace(r.Number),
		Counterparty: strings.TrimSpace(r.Counterparty),
		Direction:    direction,
		Net:          r.Net,
		DocType:      docType,
		IssuedOn:     r.IssuedOn,
		PaymentDays:  r.PaymentDays,
		Status:       status,
	}, nil
}

type invoiceWithAmountsRequest struct {
	Number       string          `json:"number" validate:"required,max=64"`
	Counterparty string          `json:"counterparty" validate:"required,max=200"`
	Direction    string          `json:"direction" validate:"required"`
	DocType      string          `json:"doc_type" validate:"omitempty,doctype"`
	Net          decimal.Decimal `json:"net"`
	Tax          decimal.Decimal `json:"tax"`
	Withholding  decimal.Decimal `json:"withholding"`
	Total        decimal.Decimal `json:"total"`
	IssuedOn     *types.Date     `json:"issued_on"`
	DueOn        *types.Date     `json:"due_on"`
	Status       string          `json:"status"`
}

func (r invoiceWithAmountsRequest) toInput() (invoices.CreateWithAmountsInput, error) {
	direction, err := enums.ParseInvoiceDirection(r.Direction)
	if err != nil {
		return invoices.CreateWithAmountsInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid direction")
	}
	docType, err := enums.ParseOptionalDocType(r.DocType)
	if err != nil {
		return invoices.CreateWithAmountsInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid doc_type")
	}
	status, err := optionalStatus(r.Status)
	if err != nil {
		return invoices.CreateWithAmountsInput{}, err
	}
	return invoices.CreateWithAmountsInput{
		Number:       strings.TrimSpace(r.Number),
		Counterparty: strings.TrimSpace(r.Counterparty),
		Direction:    direction,
		DocType:      docType,
		Net:          r.Net,
		Tax:          r.Tax,
		Withholding:  r.Withholding,
		Total:        r.Total,
		IssuedOn:     r.IssuedOn,
		DueOn:        r.DueOn,
		Status:       status,
	}, nil
}

type invoiceLegacyRequest struct {
	Number       string          `json:"number" validate:"required,max=64"`
	Counterparty string          `json:"counterparty" validate:"required,max=200"`
	Direction    string          `json:"direction" validate:"required"`
	Amount       decimal.Decimal `json:"amount"`
	IssuedOn     *types.Date     `json:"issued_on"`
}

type invoiceStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// InvoiceCreateFromNet computes tax and withholding from the net amount.
func InvoiceCreateFromNet(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload invoiceFromNetRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := svc.CreateFromNet(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, id)
	}
}

// InvoiceCreateWithAmounts stores caller-computed amounts.
func InvoiceCreateWithAmounts(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload invoiceWithAmountsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := svc.CreateWithAmounts(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, id)
	}
}

func InvoiceCreateLegacy(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload invoiceLegacyRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		direction, err := enums.ParseInvoiceDirection(payload.Direction)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid direction"))
			return
		}
		id, err := svc.CreateLegacy(r.Context(), invoices.CreateLegacyInput{
			Number:       strings.TrimSpace(payload.Number),
			Counterparty: strings.TrimSpace(payload.Counterparty),
			Direction:    direction,
			Amount:       payload.Amount,
			IssuedOn:     payload.IssuedOn,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, id)
	}
}

// InvoiceChangeStatus applies a manual lifecycle transition.
func InvoiceChangeStatus(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload invoiceStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseInvoiceStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}
		if err := svc.ChangeStatus(r.Context(), id, status); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// InvoiceSweepOverdue runs the overdue sweep on demand.
func InvoiceSweepOverdue(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		count, err := svc.MarkOverdueAutomatically(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int64{"marked": count})
	}
}

func InvoiceGet(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		inv, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, inv)
	}
}

// InvoiceList filters by direction, counterparty and status. Several
// comma-separated statuses select the board view for one direction.
func InvoiceList(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var direction enums.InvoiceDirection
		if raw := strings.TrimSpace(q.Get("direction")); raw != "" {
			parsed, err := enums.ParseInvoiceDirection(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid direction"))
				return
			}
			direction = parsed
		}
		statuses, err := parseStatuses(q.Get("status"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if len(statuses) > 1 {
			if direction == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "direction is required with several statuses"))
				return
			}
			list, err := svc.ListByDirectionAndStatus(r.Context(), direction, statuses)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, list)
			return
		}

		page, err := validators.ParsePage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter := invoices.ListFilter{
			Direction:    direction,
			Counterparty: validators.SanitizeString(q.Get("counterparty"), 200),
			Limit:        page.Limit,
			Offset:       page.Offset,
		}
		if len(statuses) == 1 {
			filter.Status = statuses[0]
		}
		list, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func InvoiceDelete(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

func optionalStatus(raw string) (enums.InvoiceStatus, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	status, err := enums.ParseInvoiceStatus(raw)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
	}
	return status, nil
}

func parseStatuses(raw string) ([]enums.InvoiceStatus, error) {
	var out []enums.InvoiceStatus
	for _, part := range strings.Split(raw, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		status, err := enums.ParseInvoiceStatus(part)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
		}
		out = append(out, status)
	}
	return out, nil
}
