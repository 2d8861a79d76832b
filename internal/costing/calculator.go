// Package costing computes the true cost and margin of a product from its
// recipe, labor time and overhead allocation.
package costing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/kitchenpos-backend/internal/units"
	"github.com/angelmondragon/kitchenpos-backend/pkg/db/models"
)

const (
	moneyPlaces   = 2
	percentPlaces = 1
)

var (
	minutesPerHour = decimal.NewFromInt(60)
	hundred        = decimal.NewFromInt(100)
)

// Line is one costed recipe component.
type Line struct {
	IngredientID    uuid.UUID
	IngredientName  string
	BaseUnit        string
	BaseQuantity    decimal.Decimal
	CostPerBaseUnit decimal.Decimal
}

// CostInput is everything Calculate needs. AvgHourlyLaborCost comes from configuration.
type CostInput struct {
	Price              decimal.Decimal
	PrepTimeMinutes    *int
	OverheadAllocation decimal.NullDecimal
	Lines              []Line
	AvgHourlyLaborCost decimal.Decimal
}

// LineCost is the cost of one recipe line.
type LineCost struct {
	IngredientID    uuid.UUID       `json:"ingredient_id"`
	IngredientName  string          `json:"ingredient_name"`
	BaseUnit        string          `json:"base_unit"`
	BaseQuantity    decimal.Decimal `json:"base_quantity"`
	CostPerBaseUnit decimal.Decimal `json:"cost_per_base_unit"`
	Cost            decimal.Decimal `json:"cost"`
}

// Breakdown is the rounded result of Calculate.
type Breakdown struct {
	FoodCost          decimal.Decimal `json:"food_cost"`
	LaborCost         decimal.Decimal `json:"labor_cost"`
	OverheadCost      decimal.Decimal `json:"overhead_cost"`
	TrueCost          decimal.Decimal `json:"true_cost"`
	TrueMargin        decimal.Decimal `json:"true_margin"`
	TrueMarginPercent decimal.Decimal `json:"true_margin_percent"`
	Lines             []LineCost      `json:"lines"`
}

// Calculate is pure: identical input yields identical output. Money is
// rounded to cents and the percentage to one decimal, once, from unrounded
// intermediates.
func Calculate(in CostInput) Breakdown {
	food := decimal.Zero
	lines := make([]LineCost, 0, len(in.Lines))
	for _, line := range in.Lines {
		cost := line.BaseQuantity.Mul(line.CostPerBaseUnit)
		food = food.Add(cost)
		lines = append(lines, LineCost{
			IngredientID:    line.IngredientID,
			IngredientName:  line.IngredientName,
			BaseUnit:        line.BaseUnit,
			BaseQuantity:    line.BaseQuantity,
			CostPerBaseUnit: line.CostPerBaseUnit.Round(units.CostPlaces),
			Cost:            cost.Round(moneyPlaces),
		})
	}

	labor := decimal.Zero
	if in.PrepTimeMinutes != nil && *in.PrepTimeMinutes > 0 {
		labor = decimal.NewFromInt(int64(*in.PrepTimeMinutes)).Div(minutesPerHour).Mul(in.AvgHourlyLaborCost)
	}

	overhead := decimal.Zero
	if in.OverheadAllocation.Valid {
		overhead = in.OverheadAllocation.Decimal
	}

	trueCost := food.Add(labor).Add(overhead)
	margin := in.Price.Sub(trueCost)
	percent := decimal.Zero
	if !in.Price.IsZero() {
		percent = margin.Div(in.Price).Mul(hundred)
	}

	return Breakdown{
		FoodCost:          food.Round(moneyPlaces),
		LaborCost:         labor.Round(moneyPlaces),
		OverheadCost:      overhead.Round(moneyPlaces),
		TrueCost:          trueCost.Round(moneyPlaces),
		TrueMargin:        margin.Round(moneyPlaces),
		TrueMarginPercent: percent.Round(percentPlaces),
		Lines:             lines,
	}
}

// InputFromProduct builds calculator input from a product whose recipe items
// have their ingredients preloaded.
func InputFromProduct(product *models.Product, avgHourlyLaborCost decimal.Decimal) CostInput {
	in := CostInput{
		Price:              product.Price,
		PrepTimeMinutes:    product.PrepTimeMinutes,
		OverheadAllocation: product.OverheadAllocation,
		AvgHourlyLaborCost: avgHourlyLaborCost,
	}
	for _, item := range product.RecipeItems {
		if item.Ingredient == nil {
			continue
		}
		model := units.FromIngredient(item.Ingredient)
		in.Lines = append(in.Lines, Line{
			IngredientID:    item.IngredientID,
			IngredientName:  item.Ingredient.Name,
			BaseUnit:        model.BaseUnit(),
			BaseQuantity:    item.BaseQuantity,
			CostPerBaseUnit: model.CostPerBaseUnit(),
		})
	}
	return in
}
