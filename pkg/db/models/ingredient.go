package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/kitchenpos-backend/pkg/enums"
)

// Ingredient is a stocked raw material. Quantity is held in package units.
type Ingredient struct {
	ID       uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name     string    `gorm:"column:name;not null"`
	Category string    `gorm:"column:category;not null;default:''"`

	// Legacy single-unit pricing. A zero CostPerPackage with a positive
	// CostPerUnit marks a row that predates package pricing.
	Unit        string          `gorm:"column:unit;not null;default:''"`
	CostPerUnit decimal.Decimal `gorm:"column:cost_per_unit;type:numeric(14,4);not null"`

	BaseUnit        string          `gorm:"column:base_unit;not null;default:''"`
	PackageUnit     string          `gorm:"column:package_unit;not null;default:''"`
	PackageSize     decimal.Decimal `gorm:"column:package_size;type:numeric(14,4);not null"`
	CostPerPackage  decimal.Decimal `gorm:"column:cost_per_package;type:numeric(14,4);not null"`
	CostPerBaseUnit decimal.Decimal `gorm:"column:cost_per_base_unit;type:numeric(18,6);not null"`
	Quantity        decimal.Decimal `gorm:"column:quantity;type:numeric(24,12);not null"`
	ParLevel        decimal.Decimal `gorm:"column:par_level;type:numeric(14,4);not null"`

	Sellable        bool             `gorm:"column:sellable;not null;default:false"`
	LinkedProductID *uuid.UUID       `gorm:"column:linked_product_id;type:uuid;uniqueIndex:ux_ingredients_linked_product"`
	SyncStatus      enums.SyncStatus `gorm:"column:sync_status;not null;default:'synced'"`
	SyncError       *string          `gorm:"column:sync_error"`

	IsOverhead             bool            `gorm:"column:is_overhead;not null;default:false"`
	OverheadPerTransaction decimal.Decimal `gorm:"column:overhead_per_transaction;type:numeric(14,4);not null"`

	IsActive  bool        `gorm:"column:is_active;not null;default:true"`
	Aliases   []UnitAlias `gorm:"foreignKey:IngredientID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time   `gorm:"column:updated_at;autoUpdateTime"`
}

func (i *Ingredient) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	if i.SyncStatus == "" {
		i.SyncStatus = enums.SyncStatusSynced
	}
	return nil
}
