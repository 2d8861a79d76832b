package costing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func burgerInput() CostInput {
	prep := 6
	return CostInput{
		Price:              dec("150"),
		PrepTimeMinutes:    &prep,
		OverheadAllocation: decimal.NewNullDecimal(dec("5")),
		AvgHourlyLaborCost: dec("90"),
		Lines: []Line{
			{IngredientID: uuid.New(), IngredientName: "Ground Beef", BaseUnit: "kg", BaseQuantity: dec("0.15"), CostPerBaseUnit: dec("280")},
			{IngredientID: uuid.New(), IngredientName: "Bun", BaseUnit: "pc", BaseQuantity: dec("1"), CostPerBaseUnit: dec("120").Div(dec("12"))},
		},
	}
}

func TestCalculate(t *testing.T) {
	got := Calculate(burgerInput())

	assert.True(t, got.FoodCost.Equal(dec("52")), "food %s", got.FoodCost)
	assert.True(t, got.LaborCost.Equal(dec("9")), "labor %s", got.LaborCost)
	assert.True(t, got.OverheadCost.Equal(dec("5")), "overhead %s", got.OverheadCost)
	assert.True(t, got.TrueCost.Equal(dec("66")), "true cost %s", got.TrueCost)
	assert.True(t, got.TrueMargin.Equal(dec("84")), "margin %s", got.TrueMargin)
	assert.True(t, got.TrueMarginPercent.Equal(dec("56")), "percent %s", got.TrueMarginPercent)
	require.Len(t, got.Lines, 2)
	assert.True(t, got.Lines[0].Cost.Equal(dec("42")))
}

func TestCalculateIsIdempotent(t *testing.T) {
	in := burgerInput()
	first := Calculate(in)
	second := Calculate(in)
	assert.True(t, first.TrueCost.Equal(second.TrueCost))
	assert.True(t, first.TrueMargin.Equal(second.TrueMargin))
	assert.True(t, first.TrueMarginPercent.Equal(second.TrueMarginPercent))
}

func TestCalculateRoundsOnceFromUnroundedParts(t *testing.T) {
	prep := 7
	in := CostInput{
		Price:              dec("99.99"),
		PrepTimeMinutes:    &prep,
		AvgHourlyLaborCost: dec("100"),
		Lines: []Line{
			{BaseQuantity: dec("0.333"), CostPerBaseUnit: dec("10.005")},
			{BaseQuantity: dec("0.333"), CostPerBaseUnit: dec("10.005")},
		},
	}
	got := Calculate(in)

	// 6.66333 + 11.6666... = 18.3299966...
	assert.True(t, got.TrueCost.Equal(dec("18.33")), "true cost %s", got.TrueCost)
	assert.True(t, got.FoodCost.Equal(dec("6.66")), "food %s", got.FoodCost)
	assert.True(t, got.LaborCost.Equal(dec("11.67")), "labor %s", got.LaborCost)
	assert.True(t, got.TrueMarginPercent.Equal(dec("81.7")), "percent %s", got.TrueMarginPercent)
}

func TestCalculateZeroPriceAndMissingInputs(t *testing.T) {
	got := Calculate(CostInput{
		Price:              decimal.Zero,
		AvgHourlyLaborCost: dec("90"),
		Lines:              []Line{{BaseQuantity: dec("2"), CostPerBaseUnit: dec("3")}},
	})
	assert.True(t, got.LaborCost.IsZero())
	assert.True(t, got.OverheadCost.IsZero())
	assert.True(t, got.TrueCost.Equal(dec("6")))
	assert.True(t, got.TrueMargin.Equal(dec("-6")))
	assert.True(t, got.TrueMarginPercent.IsZero())

	zero := 0
	got = Calculate(CostInput{Price: dec("10"), PrepTimeMinutes: &zero, AvgHourlyLaborCost: dec("90")})
	assert.True(t, got.LaborCost.IsZero())
	assert.True(t, got.TrueMarginPercent.Equal(dec("100")))
}
