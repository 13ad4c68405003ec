package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/fiscal-ledger/api/responses"
	"github.com/angelmondragon/fiscal-ledger/api/validators"
	"github.com/angelmondragon/fiscal-ledger/internal/inventory"
	"github.com/angelmondragon/fiscal-ledger/pkg/enums"
	pkgerrors "github.com/angelmondragon/fiscal-ledger/pkg/errors"
	"github.com/angelmondragon/fiscal-ledger/pkg/logger"
)

type adjustRequest struct {
	Code     string `json:"code" validate:"required,max=64"`
	Quantity int    `json:"quantity"`
	Location string `json:"location" validate:"max=120"`
	Method   string `json:"method" validate:"max=60"`
}

func (r adjustRequest) toInput() inventory.AdjustInput {
	return inventory.AdjustInput{
		Code:     strings.TrimSpace(r.Code),
		Quantity: r.Quantity,
		Location: strings.TrimSpace(r.Location),
		Method:   strings.TrimSpace(r.Method),
	}
}

// InventoryAdjust applies an intake or withdrawal by internal code.
func InventoryAdjust(svc inventory.Service, movement enums.MovementType, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload adjustRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		apply := svc.Intake
		if movement == enums.MovementTypeWithdrawal {
			apply = svc.Withdraw
		}
		mv, err := apply(r.Context(), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, mv)
	}
}

// InventoryMovements lists the movement log. Supports code, type, from, to,
// limit and offset.
func InventoryMovements(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		filter := inventory.ListFilter{Code: validators.SanitizeString(q.Get("code"), 64)}
		if raw := strings.TrimSpace(q.Get("type")); raw != "" {
			movement, err := enums.ParseMovementType(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid movement type"))
				return
			}
			filter.Movement = movement
		}
		var err error
		if filter.From, err = validators.ParseQueryTime(r, "from"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filter.To, err = validators.ParseQueryTime(r, "to"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := validators.ParsePage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter.Limit, filter.Offset = page.Limit, page.Offset
		list, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
