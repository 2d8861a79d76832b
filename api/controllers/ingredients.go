package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/kitchenpos-backend/api/responses"
	"github.com/angelmondragon/kitchenpos-backend/api/validators"
	"github.com/angelmondragon/kitchenpos-backend/internal/ingredients"
	pkgerrors "github.com/angelmondragon/kitchenpos-backend/pkg/errors"
	"github.com/angelmondragon/kitchenpos-backend/pkg/logger"
)

const maxNameLen = 120

type aliasRequest struct {
	Name               string           `json:"name" validate:"required,max=32"`
	BaseUnitMultiplier *decimal.Decimal `json:"base_unit_multiplier" validate:"required"`
	IsDefault          bool             `json:"is_default"`
}

func (a aliasRequest) toInput() ingredients.AliasInput {
	return ingredients.AliasInput{
		Name:               validators.SanitizeString(a.Name, 32),
		BaseUnitMultiplier: *a.BaseUnitMultiplier,
		IsDefault:          a.IsDefault,
	}
}

func aliasInputs(reqs []aliasRequest) []ingredients.AliasInput {
	out := make([]ingredients.AliasInput, 0, len(reqs))
	for _, a := range reqs {
		out = append(out, a.toInput())
	}
	return out
}

type createIngredientRequest struct {
	Name                   string           `json:"name" validate:"required,max=120"`
	Category               string           `json:"category" validate:"max=64"`
	Unit                   string           `json:"unit" validate:"max=32"`
	CostPerUnit            *decimal.Decimal `json:"cost_per_unit,omitempty"`
	BaseUnit               string           `json:"base_unit" validate:"max=32"`
	PackageUnit            string           `json:"package_unit" validate:"max=32"`
	PackageSize            *decimal.Decimal `json:"package_size,omitempty"`
	CostPerPackage         *decimal.Decimal `json:"cost_per_package,omitempty"`
	Quantity               *decimal.Decimal `json:"quantity,omitempty"`
	ParLevel               *decimal.Decimal `json:"par_level,omitempty"`
	Sellable               bool             `json:"sellable"`
	IsOverhead             bool             `json:"is_overhead"`
	OverheadPerTransaction *decimal.Decimal `json:"overhead_per_transaction,omitempty"`
	Aliases                []aliasRequest   `json:"aliases,omitempty" validate:"omitempty,dive"`
}

func orZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

func (r createIngredientRequest) toInput() ingredients.CreateInput {
	return ingredients.CreateInput{
		Name:                   validators.SanitizeString(r.Name, maxNameLen),
		Category:               validators.SanitizeString(r.Category, 64),
		Unit:                   validators.SanitizeString(r.Unit, 32),
		CostPerUnit:            orZero(r.CostPerUnit),
		BaseUnit:               validators.SanitizeString(r.BaseUnit, 32),
		PackageUnit:            validators.SanitizeString(r.PackageUnit, 32),
		PackageSize:            r.PackageSize,
		CostPerPackage:         r.CostPerPackage,
		Quantity:               orZero(r.Quantity),
		ParLevel:               orZero(r.ParLevel),
		Sellable:               r.Sellable,
		IsOverhead:             r.IsOverhead,
		OverheadPerTransaction: orZero(r.OverheadPerTransaction),
		Aliases:                aliasInputs(r.Aliases),
	}
}

type importIngredientsRequest struct {
	Ingredients []createIngredientRequest `json:"ingredients" validate:"required,min=1,max=500,dive"`
}

type updateIngredientRequest struct {
	Name                   *string          `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Category               *string          `json:"category,omitempty" validate:"omitempty,max=64"`
	Unit                   *string          `json:"unit,omitempty" validate:"omitempty,max=32"`
	BaseUnit               *string          `json:"base_unit,omitempty" validate:"omitempty,max=32"`
	PackageUnit            *string          `json:"package_unit,omitempty" validate:"omitempty,max=32"`
	CostPerUnit            *decimal.Decimal `json:"cost_per_unit,omitempty"`
	PackageSize            *decimal.Decimal `json:"package_size,omitempty"`
	CostPerPackage         *decimal.Decimal `json:"cost_per_package,omitempty"`
	Quantity               *decimal.Decimal `json:"quantity,omitempty"`
	ParLevel               *decimal.Decimal `json:"par_level,omitempty"`
	IsOverhead             *bool            `json:"is_overhead,omitempty"`
	OverheadPerTransaction *decimal.Decimal `json:"overhead_per_transaction,omitempty"`
	Sellable               *bool            `json:"sellable,omitempty"`
	Reason                 *string          `json:"reason,omitempty" validate:"omitempty,max=64"`
	ReasonNote             *string          `json:"reason_note,omitempty" validate:"omitempty,max=500"`
}

func (r updateIngredientRequest) toInput() ingredients.UpdateInput {
	return ingredients.UpdateInput{
		Name:                   r.Name,
		Category:               r.Category,
		Unit:                   r.Unit,
		BaseUnit:               r.BaseUnit,
		PackageUnit:            r.PackageUnit,
		CostPerUnit:            r.CostPerUnit,
		PackageSize:            r.PackageSize,
		CostPerPackage:         r.CostPerPackage,
		Quantity:               r.Quantity,
		ParLevel:               r.ParLevel,
		IsOverhead:             r.IsOverhead,
		OverheadPerTransaction: r.OverheadPerTransaction,
		Sellable:               r.Sellable,
		Reason:                 r.Reason,
		ReasonNote:             r.ReasonNote,
	}
}

type restockRequest struct {
	Quantity       *decimal.Decimal `json:"quantity" validate:"required"`
	CostPerPackage *decimal.Decimal `json:"cost_per_package,omitempty"`
	PackageSize    *decimal.Decimal `json:"package_size,omitempty"`
	Reason         *string          `json:"reason,omitempty" validate:"omitempty,max=64"`
	ReasonNote     *string          `json:"reason_note,omitempty" validate:"omitempty,max=500"`
}

type countRequest struct {
	Quantity   *decimal.Decimal `json:"quantity" validate:"required"`
	Reason     *string          `json:"reason,omitempty" validate:"omitempty,max=64"`
	ReasonNote *string          `json:"reason_note,omitempty" validate:"omitempty,max=500"`
}

type aliasesRequest struct {
	Aliases []aliasRequest `json:"aliases" validate:"omitempty,dive"`
}

type sellableRequest struct {
	Sellable *bool   `json:"sellable" validate:"required"`
	Category *string `json:"category_id,omitempty" validate:"omitempty,max=64"`
}

func serviceUnavailable(name string) error {
	return pkgerrors.New(pkgerrors.CodeInternal, name+" service unavailable")
}

// IngredientList lists ingredients filtered by active, sellable, category and q.
func IngredientList(svc ingredients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("ingredient"))
			return
		}
		active, err := validators.ParseQueryBool(r, "active")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sellable, err := validators.ParseQueryBool(r, "sellable")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter := ingredients.ListFilter{Active: active, Sellable: sellable}
		if category := validators.ParseQueryString(r, "category", 64); category != nil {
			filter.Category = *category
		}
		if q := validators.ParseQueryString(r, "q", maxNameLen); q != nil {
			filter.Search = *q
		}

		list, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func IngredientCreate(svc ingredients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("ingredient"))
			return
		}
		var payload createIngredientRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		created, err := svc.Create(r.Context(), payload.toInput(), actorFromRequest(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, created)
	}
}

// IngredientImport creates every ingredient in the payload or none of them.
func IngredientImport(svc ingredients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("ingredient"))
			return
		}
		var payload importIngredientsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		inputs := make([]ingredients.CreateInput, 0, len(payload.Ingredients))
		for _, item := range payload.Ingredients {
			inputs = append(inputs, item.toInput())
		}
		created, err := svc.Import(r.Context(), inputs, actorFromRequest(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, created)
	}
}

func IngredientGet(svc ingredients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("ingredient"))
			return
		}
		id, err := uuidParam(r, "ingredientId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ing, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ing)
	}
}

func IngredientUpdate(svc ingredients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("ingredient"))
			return
		}
		id, err := uuidParam(r, "ingredientId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updateIngredientRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Update(r.Context(), id, payload.toInput(), actorFromRequest(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// IngredientDelete soft deletes the ingredient. History rows are kept.
func IngredientDelete(svc ingredients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("ingredient"))
			return
		}
		id, err := uuidParam(r, "ingredientId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Deactivate(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func IngredientRestock(svc ingredients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("ingredient"))
			return
		}
		id, err := uuidParam(r, "ingredientId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload restockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Restock(r.Context(), id, ingredients.RestockInput{
			Quantity:       *payload.Quantity,
			CostPerPackage: payload.CostPerPackage,
			PackageSize:    payload.PackageSize,
			Reason:         payload.Reason,
			ReasonNote:     payload.ReasonNote,
		}, actorFromRequest(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// IngredientCount records a physical count as the new quantity.
func IngredientCount(svc ingredients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("ingredient"))
			return
		}
		id, err := uuidParam(r, "ingredientId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload countRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Count(r.Context(), id, ingredients.CountInput{
			Quantity:   *payload.Quantity,
			Reason:     payload.Reason,
			ReasonNote: payload.ReasonNote,
		}, actorFromRequest(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func IngredientSetAliases(svc ingredients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("ingredient"))
			return
		}
		id, err := uuidParam(r, "ingredientId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload aliasesRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ing, err := svc.SetAliases(r.Context(), id, aliasInputs(payload.Aliases))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ing)
	}
}

// IngredientSetSellable toggles the catalog link. A failed sync is reported
// in the result body, not as an error.
func IngredientSetSellable(svc ingredients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("ingredient"))
			return
		}
		id, err := uuidParam(r, "ingredientId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload sellableRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var category *string
		if payload.Category != nil {
			trimmed := validators.SanitizeString(*payload.Category, 64)
			if trimmed != "" {
				category = &trimmed
			}
		}
		result, err := svc.SetSellable(r.Context(), id, *payload.Sellable, category)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
