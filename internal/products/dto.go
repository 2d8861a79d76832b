package products

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/kitchenpos-backend/internal/availability"
	"github.com/angelmondragon/kitchenpos-backend/pkg/db/models"
)

// ProductDTO represents the catalog payload returned to clients.
type ProductDTO struct {
	ID                 uuid.UUID            `json:"id"`
	Name               string               `json:"name"`
	Category           string               `json:"category"`
	Price              decimal.Decimal      `json:"price"`
	PrepTimeMinutes    *int                 `json:"prep_time_minutes"`
	OverheadAllocation *decimal.Decimal     `json:"overhead_allocation"`
	TrackStock         bool                 `json:"track_stock"`
	Quantity           int64                `json:"quantity"`
	SalesCount         int64                `json:"sales_count"`
	NeedsPricing       bool                 `json:"needs_pricing"`
	LinkedIngredientID *uuid.UUID           `json:"linked_ingredient_id,omitempty"`
	TrueCost           *decimal.Decimal     `json:"true_cost"`
	TrueMargin         *decimal.Decimal     `json:"true_margin"`
	TrueMarginPercent  *decimal.Decimal     `json:"true_margin_percent"`
	CostedAt           *time.Time           `json:"costed_at,omitempty"`
	IsActive           bool                 `json:"is_active"`
	Availability       *availability.Result `json:"availability,omitempty"`
	CreatedAt          time.Time            `json:"created_at"`
	UpdatedAt          time.Time            `json:"updated_at"`
}

// NewProductDTO maps a stored product. avail may be nil.
func NewProductDTO(p *models.Product, avail *availability.Result) ProductDTO {
	return ProductDTO{
		ID:                 p.ID,
		Name:               p.Name,
		Category:           p.Category,
		Price:              p.Price,
		PrepTimeMinutes:    p.PrepTimeMinutes,
		OverheadAllocation: nullable(p.OverheadAllocation),
		TrackStock:         p.TrackStock,
		Quantity:           p.Quantity,
		SalesCount:         p.SalesCount,
		NeedsPricing:       p.NeedsPricing,
		LinkedIngredientID: p.LinkedIngredientID,
		TrueCost:           nullable(p.TrueCost),
		TrueMargin:         nullable(p.TrueMargin),
		TrueMarginPercent:  nullable(p.TrueMarginPercent),
		CostedAt:           p.CostedAt,
		IsActive:           p.IsActive,
		Availability:       avail,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}

func nullable(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}
