package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RecipeItem is one ingredient line of a product recipe. BaseQuantity is the
// Quantity expressed in the ingredient's base unit.
type RecipeItem struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	ProductID    uuid.UUID       `gorm:"column:product_id;type:uuid;not null;uniqueIndex:ux_recipe_items_product_ingredient"`
	IngredientID uuid.UUID       `gorm:"column:ingredient_id;type:uuid;not null;uniqueIndex:ux_recipe_items_product_ingredient"`
	Quantity     decimal.Decimal `gorm:"column:quantity;type:numeric(14,4);not null"`
	Unit         string          `gorm:"column:unit;not null;default:''"`
	BaseQuantity decimal.Decimal `gorm:"column:base_quantity;type:numeric(14,4);not null"`
	Ingredient   *Ingredient     `gorm:"foreignKey:IngredientID"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (r *RecipeItem) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
