package recipes

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/kitchenpos-backend/internal/costing"
	"github.com/angelmondragon/kitchenpos-backend/internal/units"
	"github.com/angelmondragon/kitchenpos-backend/pkg/db/models"
)

// RecipeDTO is a product's recipe with its current cost breakdown.
type RecipeDTO struct {
	ProductID   uuid.UUID          `json:"product_id"`
	ProductName string             `json:"product_name"`
	Items       []RecipeItemDTO    `json:"items"`
	Cost        *costing.Breakdown `json:"cost"`
}

// RecipeItemDTO is one recipe line.
type RecipeItemDTO struct {
	ID             uuid.UUID       `json:"id"`
	IngredientID   uuid.UUID       `json:"ingredient_id"`
	IngredientName string          `json:"ingredient_name"`
	Quantity       decimal.Decimal `json:"quantity"`
	Unit           string          `json:"unit"`
	BaseQuantity   decimal.Decimal `json:"base_quantity"`
	BaseUnit       string          `json:"base_unit"`
	Active         bool            `json:"ingredient_active"`
}

// NewRecipeDTO maps stored items whose ingredients are preloaded.
func NewRecipeDTO(product *models.Product, items []models.RecipeItem, breakdown *costing.Breakdown) RecipeDTO {
	dto := RecipeDTO{
		ProductID:   product.ID,
		ProductName: product.Name,
		Items:       make([]RecipeItemDTO, 0, len(items)),
		Cost:        breakdown,
	}
	for _, item := range items {
		line := RecipeItemDTO{
			ID:           item.ID,
			IngredientID: item.IngredientID,
			Quantity:     item.Quantity,
			Unit:         item.Unit,
			BaseQuantity: item.BaseQuantity,
		}
		if item.Ingredient != nil {
			line.IngredientName = item.Ingredient.Name
			line.BaseUnit = units.FromIngredient(item.Ingredient).BaseUnit()
			line.Active = item.Ingredient.IsActive
		}
		dto.Items = append(dto.Items, line)
	}
	return dto
}
