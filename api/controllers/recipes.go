package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/kitchenpos-backend/api/responses"
	"github.com/angelmondragon/kitchenpos-backend/api/validators"
	"github.com/angelmondragon/kitchenpos-backend/internal/recipes"
	pkgerrors "github.com/angelmondragon/kitchenpos-backend/pkg/errors"
	"github.com/angelmondragon/kitchenpos-backend/pkg/logger"
)

type recipeItemRequest struct {
	IngredientID string           `json:"ingredient_id" validate:"required"`
	Quantity     *decimal.Decimal `json:"quantity" validate:"required"`
	Unit         string           `json:"unit" validate:"max=32"`
}

type replaceRecipeRequest struct {
	Items []recipeItemRequest `json:"items" validate:"omitempty,max=100,dive"`
}

func (r replaceRecipeRequest) toInputs() ([]recipes.ItemInput, error) {
	items := make([]recipes.ItemInput, 0, len(r.Items))
	for i, item := range r.Items {
		id, err := uuid.Parse(item.IngredientID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid ingredient_id").
				WithDetails(map[string]any{"index": i})
		}
		items = append(items, recipes.ItemInput{
			IngredientID: id,
			Quantity:     *item.Quantity,
			Unit:         validators.SanitizeString(item.Unit, 32),
		})
	}
	return items, nil
}

func RecipeGet(svc recipes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("recipe"))
			return
		}
		productID, err := uuidParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		recipe, err := svc.Get(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, recipe)
	}
}

// RecipeReplace swaps the whole recipe and recosts the product.
func RecipeReplace(svc recipes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("recipe"))
			return
		}
		productID, err := uuidParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload replaceRecipeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items, err := payload.toInputs()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		recipe, err := svc.Replace(r.Context(), productID, items)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, recipe)
	}
}
