package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a sellable catalog row. Its stock is derived from a recipe, a
// linked ingredient, its own Quantity when TrackStock is set, or not tracked.
type Product struct {
	ID                 uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	Name               string              `gorm:"column:name;not null"`
	Category           string              `gorm:"column:category;not null;default:''"`
	Price              decimal.Decimal     `gorm:"column:price;type:numeric(12,2);not null"`
	PrepTimeMinutes    *int                `gorm:"column:prep_time_minutes"`
	OverheadAllocation decimal.NullDecimal `gorm:"column:overhead_allocation;type:numeric(12,2)"`
	TrackStock         bool                `gorm:"column:track_stock;not null;default:false"`
	Quantity           int64               `gorm:"column:quantity;not null;default:0"`
	SalesCount         int64               `gorm:"column:sales_count;not null;default:0"`
	NeedsPricing       bool                `gorm:"column:needs_pricing;not null;default:false"`
	LinkedIngredientID *uuid.UUID          `gorm:"column:linked_ingredient_id;type:uuid;uniqueIndex:ux_products_linked_ingredient"`

	TrueCost          decimal.NullDecimal `gorm:"column:true_cost;type:numeric(12,2)"`
	TrueMargin        decimal.NullDecimal `gorm:"column:true_margin;type:numeric(12,2)"`
	TrueMarginPercent decimal.NullDecimal `gorm:"column:true_margin_percent;type:numeric(7,1)"`
	CostedAt          *time.Time          `gorm:"column:costed_at"`

	IsActive    bool         `gorm:"column:is_active;not null;default:true"`
	RecipeItems []RecipeItem `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time    `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time    `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
