package availability

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/kitchenpos-backend/pkg/enums"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func stock(name, quantity, par, total string) IngredientStock {
	return IngredientStock{
		ID:             uuid.New(),
		Name:           name,
		Quantity:       dec(quantity),
		ParLevel:       dec(par),
		TotalBaseUnits: dec(total),
		IsActive:       true,
	}
}

func TestStockStatus(t *testing.T) {
	th := DefaultThresholds()
	cases := []struct {
		qty, par string
		want     enums.AvailabilityStatus
	}{
		{"0", "10", enums.AvailabilityOut},
		{"5", "0", enums.AvailabilityAvailable},
		{"2.5", "10", enums.AvailabilityCritical},
		{"2", "10", enums.AvailabilityCritical},
		{"5", "10", enums.AvailabilityLow},
		{"3", "10", enums.AvailabilityLow},
		{"6", "10", enums.AvailabilityAvailable},
	}
	for _, tc := range cases {
		got := StockStatus(dec(tc.qty), dec(tc.par), th)
		assert.Equal(t, tc.want, got, "qty=%s par=%s", tc.qty, tc.par)
	}
}

func TestEvaluate_RecipeMaxProducible(t *testing.T) {
	beef := stock("Ground Beef", "10", "10", "10")
	res := Evaluate(Input{Recipe: []Component{{Ingredient: beef, BaseQuantity: dec("0.15")}}}, DefaultThresholds())

	require.NotNil(t, res.MaxProducible)
	assert.Equal(t, int64(66), *res.MaxProducible)
	assert.Equal(t, enums.AvailabilityAvailable, res.Status)
	assert.Empty(t, res.MissingIngredients)
}

func TestEvaluate_RecipeMinimumAcrossItems(t *testing.T) {
	beef := stock("Ground Beef", "10", "0", "10")
	buns := stock("Buns", "2", "0", "24")
	res := Evaluate(Input{Recipe: []Component{
		{Ingredient: beef, BaseQuantity: dec("0.15")},
		{Ingredient: buns, BaseQuantity: dec("1")},
	}}, DefaultThresholds())

	require.NotNil(t, res.MaxProducible)
	assert.Equal(t, int64(24), *res.MaxProducible)
	assert.Equal(t, enums.AvailabilityAvailable, res.Status)
}

func TestEvaluate_RecipeMissingIngredientIsOut(t *testing.T) {
	cheese := stock("Cheese", "0.01", "1", "0.01")
	res := Evaluate(Input{Recipe: []Component{{Ingredient: cheese, BaseQuantity: dec("0.02")}}}, DefaultThresholds())

	assert.Equal(t, enums.AvailabilityOut, res.Status)
	require.Len(t, res.MissingIngredients, 1)
	assert.Equal(t, "Cheese", res.MissingIngredients[0].Name)
	assert.Empty(t, res.LowIngredients)
}

func TestEvaluate_RecipeCriticalBuffer(t *testing.T) {
	beef := stock("Ground Beef", "0.45", "0", "0.45")
	res := Evaluate(Input{Recipe: []Component{{Ingredient: beef, BaseQuantity: dec("0.15")}}}, DefaultThresholds())

	assert.Equal(t, int64(3), *res.MaxProducible)
	assert.Equal(t, enums.AvailabilityCritical, res.Status)
}

func TestEvaluate_RecipeLowAndCriticalIngredients(t *testing.T) {
	th := DefaultThresholds()
	low := stock("Lettuce", "4", "10", "400")
	res := Evaluate(Input{Recipe: []Component{{Ingredient: low, BaseQuantity: dec("10")}}}, th)
	assert.Equal(t, enums.AvailabilityLow, res.Status)
	require.Len(t, res.LowIngredients, 1)

	critical := stock("Tomato", "2", "10", "200")
	res = Evaluate(Input{Recipe: []Component{{Ingredient: critical, BaseQuantity: dec("10")}}}, th)
	assert.Equal(t, enums.AvailabilityCritical, res.Status)
}

func TestEvaluate_SkipsNonPositiveBaseQuantity(t *testing.T) {
	salt := stock("Salt", "1", "0", "1000")
	res := Evaluate(Input{Recipe: []Component{{Ingredient: salt, BaseQuantity: decimal.Zero}}}, DefaultThresholds())
	assert.Equal(t, enums.AvailabilityAvailable, res.Status)
	assert.Nil(t, res.MaxProducible)
}

func TestEvaluate_Linked(t *testing.T) {
	th := DefaultThresholds()
	cola := stock("Cola Can", "24", "48", "24")
	res := Evaluate(Input{Linked: &cola, TrackStock: true, Quantity: 100}, th)
	require.NotNil(t, res.MaxProducible)
	assert.Equal(t, int64(24), *res.MaxProducible)
	assert.Equal(t, enums.AvailabilityLow, res.Status)

	empty := stock("Cola Can", "0.5", "48", "0.5")
	res = Evaluate(Input{Linked: &empty}, th)
	assert.Equal(t, int64(0), *res.MaxProducible)
	assert.Equal(t, enums.AvailabilityOut, res.Status)

	inactive := stock("Cola Can", "24", "0", "24")
	inactive.IsActive = false
	res = Evaluate(Input{Linked: &inactive}, th)
	assert.Equal(t, enums.AvailabilityOut, res.Status)
}

func TestEvaluate_TrackStock(t *testing.T) {
	th := DefaultThresholds()
	cases := []struct {
		qty  int64
		want enums.AvailabilityStatus
	}{
		{0, enums.AvailabilityOut},
		{-2, enums.AvailabilityOut},
		{5, enums.AvailabilityLow},
		{6, enums.AvailabilityAvailable},
	}
	for _, tc := range cases {
		res := Evaluate(Input{TrackStock: true, Quantity: tc.qty}, th)
		assert.Equal(t, tc.want, res.Status, "qty=%d", tc.qty)
		require.NotNil(t, res.MaxProducible)
		assert.GreaterOrEqual(t, *res.MaxProducible, int64(0))
	}
}

func TestEvaluate_Untracked(t *testing.T) {
	res := Evaluate(Input{}, DefaultThresholds())
	assert.Equal(t, enums.AvailabilityAvailable, res.Status)
	assert.Nil(t, res.MaxProducible)
}

func TestEvaluate_LinkedWithRecipeTakesMinimum(t *testing.T) {
	th := DefaultThresholds()
	bun := stock("Burger Bun", "10", "0", "10")
	patty := stock("Beef Patty", "10", "0", "10")

	res := Evaluate(Input{Linked: &bun, Recipe: []Component{{Ingredient: patty, BaseQuantity: dec("0.15")}}}, th)
	require.NotNil(t, res.MaxProducible)
	assert.Equal(t, int64(10), *res.MaxProducible)
	assert.Equal(t, enums.AvailabilityAvailable, res.Status)

	emptyPatty := stock("Beef Patty", "0", "0", "0")
	res = Evaluate(Input{Linked: &bun, Recipe: []Component{{Ingredient: emptyPatty, BaseQuantity: dec("0.15")}}}, th)
	assert.Equal(t, int64(0), *res.MaxProducible)
	assert.Equal(t, enums.AvailabilityOut, res.Status)
	require.Len(t, res.MissingIngredients, 1)
	assert.Equal(t, emptyPatty.ID, res.MissingIngredients[0].ID)

	res = Evaluate(Input{Linked: &bun, Recipe: []Component{{Ingredient: bun, BaseQuantity: dec("0.5")}}}, th)
	assert.Equal(t, int64(6), *res.MaxProducible)
}
