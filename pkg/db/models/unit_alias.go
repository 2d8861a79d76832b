package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// UnitAlias is a named unit for one ingredient, e.g. "slice" = 0.02 kg.
type UnitAlias struct {
	ID                 uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	IngredientID       uuid.UUID       `gorm:"column:ingredient_id;type:uuid;not null;uniqueIndex:ux_unit_aliases_ingredient_name"`
	Name               string          `gorm:"column:name;not null;uniqueIndex:ux_unit_aliases_ingredient_name"`
	BaseUnitMultiplier decimal.Decimal `gorm:"column:base_unit_multiplier;type:numeric(14,6);not null"`
	IsDefault          bool            `gorm:"column:is_default;not null;default:false"`
	CreatedAt          time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (a *UnitAlias) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
