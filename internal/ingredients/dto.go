package ingredients

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/kitchenpos-backend/internal/availability"
	"github.com/angelmondragon/kitchenpos-backend/internal/units"
	"github.com/angelmondragon/kitchenpos-backend/pkg/db/models"
	"github.com/angelmondragon/kitchenpos-backend/pkg/enums"
	"github.com/angelmondragon/kitchenpos-backend/pkg/pagination"
)

// IngredientDTO is the ingredient payload returned to clients.
type IngredientDTO struct {
	ID                     uuid.UUID                `json:"id"`
	Name                   string                   `json:"name"`
	Category               string                   `json:"category"`
	Legacy                 bool                     `json:"legacy"`
	Unit                   string                   `json:"unit,omitempty"`
	CostPerUnit            decimal.Decimal          `json:"cost_per_unit"`
	BaseUnit               string                   `json:"base_unit"`
	PackageUnit            string                   `json:"package_unit"`
	PackageSize            decimal.Decimal          `json:"package_size"`
	CostPerPackage         decimal.Decimal          `json:"cost_per_package"`
	CostPerBaseUnit        decimal.Decimal          `json:"cost_per_base_unit"`
	Quantity               decimal.Decimal          `json:"quantity"`
	TotalBaseUnits         decimal.Decimal          `json:"total_base_units"`
	ParLevel               decimal.Decimal          `json:"par_level"`
	StockStatus            enums.AvailabilityStatus `json:"stock_status"`
	Sellable               bool                     `json:"sellable"`
	LinkedProductID        *uuid.UUID               `json:"linked_product_id,omitempty"`
	SyncStatus             enums.SyncStatus         `json:"sync_status"`
	SyncError              *string                  `json:"sync_error,omitempty"`
	IsOverhead             bool                     `json:"is_overhead"`
	OverheadPerTransaction decimal.Decimal          `json:"overhead_per_transaction"`
	IsActive               bool                     `json:"is_active"`
	Aliases                []UnitAliasDTO           `json:"aliases"`
	CreatedAt              time.Time                `json:"created_at"`
	UpdatedAt              time.Time                `json:"updated_at"`
}

// UnitAliasDTO exposes one named unit.
type UnitAliasDTO struct {
	ID                 uuid.UUID       `json:"id"`
	Name               string          `json:"name"`
	BaseUnitMultiplier decimal.Decimal `json:"base_unit_multiplier"`
	IsDefault          bool            `json:"is_default"`
}

// NewIngredientDTO maps the stored row, deriving the unit model fields and stock status.
func NewIngredientDTO(ing *models.Ingredient, thresholds availability.Thresholds) IngredientDTO {
	model := units.FromIngredient(ing)
	dto := IngredientDTO{
		ID:                     ing.ID,
		Name:                   ing.Name,
		Category:               ing.Category,
		Legacy:                 units.IsLegacy(ing),
		Unit:                   ing.Unit,
		CostPerUnit:            ing.CostPerUnit,
		BaseUnit:               model.BaseUnit(),
		PackageUnit:            model.PackageUnit(),
		PackageSize:            model.PackageSize(),
		CostPerPackage:         ing.CostPerPackage,
		CostPerBaseUnit:        ing.CostPerBaseUnit,
		Quantity:               ing.Quantity,
		TotalBaseUnits:         units.RoundBaseUnits(model.TotalBaseUnits(ing.Quantity)),
		ParLevel:               ing.ParLevel,
		StockStatus:            availability.StockStatus(ing.Quantity, ing.ParLevel, thresholds),
		Sellable:               ing.Sellable,
		LinkedProductID:        ing.LinkedProductID,
		SyncStatus:             ing.SyncStatus,
		SyncError:              ing.SyncError,
		IsOverhead:             ing.IsOverhead,
		OverheadPerTransaction: ing.OverheadPerTransaction,
		IsActive:               ing.IsActive,
		Aliases:                make([]UnitAliasDTO, 0, len(ing.Aliases)),
		CreatedAt:              ing.CreatedAt,
		UpdatedAt:              ing.UpdatedAt,
	}
	for _, alias := range ing.Aliases {
		dto.Aliases = append(dto.Aliases, UnitAliasDTO{
			ID:                 alias.ID,
			Name:               alias.Name,
			BaseUnitMultiplier: alias.BaseUnitMultiplier,
			IsDefault:          alias.IsDefault,
		})
	}
	return dto
}

// HistoryEntryDTO is one audited field change.
type HistoryEntryDTO struct {
	ID           uuid.UUID           `json:"id"`
	IngredientID uuid.UUID           `json:"ingredient_id"`
	ChangeID     uuid.UUID           `json:"change_id"`
	Field        enums.HistoryField  `json:"field"`
	OldValue     *string             `json:"old_value"`
	NewValue     *string             `json:"new_value"`
	Source       enums.HistorySource `json:"source"`
	Reason       *string             `json:"reason,omitempty"`
	ReasonNote   *string             `json:"reason_note,omitempty"`
	UserID       *string             `json:"user_id,omitempty"`
	UserName     *string             `json:"user_name,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
}

// NewHistoryEntryDTO maps a history row.
func NewHistoryEntryDTO(row models.IngredientHistory) HistoryEntryDTO {
	return HistoryEntryDTO{
		ID:           row.ID,
		IngredientID: row.IngredientID,
		ChangeID:     row.ChangeID,
		Field:        row.Field,
		OldValue:     row.OldValue,
		NewValue:     row.NewValue,
		Source:       row.Source,
		Reason:       row.Reason,
		ReasonNote:   row.ReasonNote,
		UserID:       row.UserID,
		UserName:     row.UserName,
		CreatedAt:    row.CreatedAt,
	}
}

// NewHistoryPage maps a page of history rows.
func NewHistoryPage(page pagination.Page[models.IngredientHistory]) pagination.Page[HistoryEntryDTO] {
	out := pagination.Page[HistoryEntryDTO]{
		Items:      make([]HistoryEntryDTO, 0, len(page.Items)),
		NextCursor: page.NextCursor,
	}
	for _, row := range page.Items {
		out.Items = append(out.Items, NewHistoryEntryDTO(row))
	}
	return out
}

// RestockResult is returned by Restock.
type RestockResult struct {
	Ingredient      IngredientDTO   `json:"ingredient"`
	ChangeID        *uuid.UUID      `json:"change_id,omitempty"`
	CostPerBaseUnit decimal.Decimal `json:"cost_per_base_unit"`
	Summary         string          `json:"summary"`
}
