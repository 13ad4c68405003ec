package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/fiscal-ledger/api/responses"
	"github.com/angelmondragon/fiscal-ledger/api/validators"
	"github.com/angelmondragon/fiscal-ledger/internal/catalog"
	pkgerrors "github.com/angelmondragon/fiscal-ledger/pkg/errors"
	"github.com/angelmondragon/fiscal-ledger/pkg/logger"
	"github.com/angelmondragon/fiscal-ledger/pkg/types"
	"github.com/shopspring/decimal"
)

type productCreateRequest struct {
	Name          string           `json:"name" validate:"required,max=200"`
	Category      string           `json:"category" validate:"max=120"`
	PurchasePrice decimal.Decimal  `json:"purchase_price"`
	SalePrice     decimal.Decimal  `json:"sale_price"`
	OnHand        int              `json:"on_hand" validate:"gte=0"`
	InternalCode  string           `json:"internal_code" validate:"max=64"`
	ExternalCode  string           `json:"external_code" validate:"max=64"`
	TaxRate       *decimal.Decimal `json:"tax_rate"`
	Location      string           `json:"location" validate:"max=120"`
	ExpiryDate    *types.Date      `json:"expiry_date"`
}

type counterpartyCreateRequest struct {
	Name      string `json:"name" validate:"required,max=200"`
	TaxID     string `json:"tax_id" validate:"required,rut"`
	Address   string `json:"address" validate:"max=300"`
	Phone     string `json:"phone" validate:"max=40"`
	LegalName string `json:"legal_name" validate:"max=200"`
	Email     string `json:"email" validate:"omitempty,email"`
	Locality  string `json:"locality" validate:"max=120"`
}

func ProductCreate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload productCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.CreateProduct(r.Context(), catalog.ProductInput{
			Name:          strings.TrimSpace(payload.Name),
			Category:      strings.TrimSpace(payload.Category),
			PurchasePrice: payload.PurchasePrice,
			SalePrice:     payload.SalePrice,
			OnHand:        payload.OnHand,
			InternalCode:  strings.TrimSpace(payload.InternalCode),
			ExternalCode:  strings.TrimSpace(payload.ExternalCode),
			TaxRate:       payload.TaxRate,
			Location:      strings.TrimSpace(payload.Location),
			ExpiryDate:    payload.ExpiryDate,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

// ProductList lists products, optionally filtered by ?search=.
func ProductList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		search := validators.SanitizeString(r.URL.Query().Get("search"), 200)
		products, err := svc.ListProducts(r.Context(), search)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, products)
	}
}

// ProductLookup finds a product by its exact ?name=.
func ProductLookup(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := validators.SanitizeString(r.URL.Query().Get("name"), 200)
		if name == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "name query parameter is required"))
			return
		}
		product, err := svc.FindProductByName(r.Context(), name)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// ProductLowStock lists products with at most ?limit= units on hand.
func ProductLowStock(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", catalog.DefaultLowStockLimit, 0, 1_000_000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		products, err := svc.LowStock(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, products)
	}
}

// CounterpartyCreate registers a customer or supplier. The tax id must carry
// a valid RUT check digit.
func CounterpartyCreate(svc catalog.Service, kind catalog.CounterpartyKind, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload counterpartyCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := svc.CreateCounterparty(r.Context(), catalog.CounterpartyInput{
			Kind:      kind,
			Name:      strings.TrimSpace(payload.Name),
			TaxID:     payload.TaxID,
			Address:   strings.TrimSpace(payload.Address),
			Phone:     strings.TrimSpace(payload.Phone),
			LegalName: strings.TrimSpace(payload.LegalName),
			Email:     strings.TrimSpace(payload.Email),
			Locality:  strings.TrimSpace(payload.Locality),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, id)
	}
}

func CustomerList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customers, err := svc.ListCustomers(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, customers)
	}
}

func SupplierList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		suppliers, err := svc.ListSuppliers(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, suppliers)
	}
}
