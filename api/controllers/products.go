package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/kitchenpos-backend/api/responses"
	"github.com/angelmondragon/kitchenpos-backend/api/validators"
	"github.com/angelmondragon/kitchenpos-backend/internal/products"
	"github.com/angelmondragon/kitchenpos-backend/pkg/logger"
)

type createProductRequest struct {
	Name               string           `json:"name" validate:"required,max=120"`
	Category           string           `json:"category" validate:"max=64"`
	Price              *decimal.Decimal `json:"price,omitempty"`
	PrepTimeMinutes    *int             `json:"prep_time_minutes,omitempty" validate:"omitempty,min=0,max=1440"`
	OverheadAllocation *decimal.Decimal `json:"overhead_allocation,omitempty"`
	TrackStock         bool             `json:"track_stock"`
	Quantity           int64            `json:"quantity" validate:"min=0"`
}

func (r createProductRequest) toInput() products.CreateProductInput {
	return products.CreateProductInput{
		Name:               validators.SanitizeString(r.Name, maxNameLen),
		Category:           validators.SanitizeString(r.Category, 64),
		Price:              orZero(r.Price),
		PrepTimeMinutes:    r.PrepTimeMinutes,
		OverheadAllocation: r.OverheadAllocation,
		TrackStock:         r.TrackStock,
		Quantity:           r.Quantity,
	}
}

type updateProductRequest struct {
	Name               *string          `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Category           *string          `json:"category,omitempty" validate:"omitempty,max=64"`
	Price              *decimal.Decimal `json:"price,omitempty"`
	PrepTimeMinutes    *int             `json:"prep_time_minutes,omitempty" validate:"omitempty,min=0,max=1440"`
	ClearPrepTime      bool             `json:"clear_prep_time"`
	OverheadAllocation *decimal.Decimal `json:"overhead_allocation,omitempty"`
	ClearOverhead      bool             `json:"clear_overhead_allocation"`
	TrackStock         *bool            `json:"track_stock,omitempty"`
	Quantity           *int64           `json:"quantity,omitempty" validate:"omitempty,min=0"`
	IsActive           *bool            `json:"is_active,omitempty"`
}

func (r updateProductRequest) toInput() products.UpdateProductInput {
	return products.UpdateProductInput{
		Name:               r.Name,
		Category:           r.Category,
		Price:              r.Price,
		PrepTimeMinutes:    r.PrepTimeMinutes,
		ClearPrepTime:      r.ClearPrepTime,
		OverheadAllocation: r.OverheadAllocation,
		ClearOverhead:      r.ClearOverhead,
		TrackStock:         r.TrackStock,
		Quantity:           r.Quantity,
		IsActive:           r.IsActive,
	}
}

// ProductList lists products filtered by active, needs_pricing, category and q.
func ProductList(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("product"))
			return
		}
		active, err := validators.ParseQueryBool(r, "active")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		needsPricing, err := validators.ParseQueryBool(r, "needs_pricing")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters := products.ListFilters{Active: active, NeedsPricing: needsPricing}
		if category := validators.ParseQueryString(r, "category", 64); category != nil {
			filters.Category = *category
		}
		if q := validators.ParseQueryString(r, "q", maxNameLen); q != nil {
			filters.Query = *q
		}
		list, err := svc.ListProducts(r.Context(), filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func ProductCreate(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("product"))
			return
		}
		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.CreateProduct(r.Context(), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, product)
	}
}

func ProductGet(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("product"))
			return
		}
		id, err := uuidParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.GetProduct(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func ProductUpdate(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("product"))
			return
		}
		id, err := uuidParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.UpdateProduct(r.Context(), id, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func ProductAvailability(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("product"))
			return
		}
		id, err := uuidParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Availability(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func ProductCost(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("product"))
			return
		}
		id, err := uuidParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		breakdown, err := svc.Cost(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, breakdown)
	}
}

// AvailabilityList reports availability for every active product.
func AvailabilityList(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("product"))
			return
		}
		list, err := svc.ListAvailability(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
