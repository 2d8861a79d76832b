package recipes

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/kitchenpos-backend/internal/costing"
	"github.com/angelmondragon/kitchenpos-backend/internal/units"
	"github.com/angelmondragon/kitchenpos-backend/pkg/db"
	"github.com/angelmondragon/kitchenpos-backend/pkg/db/dbtest"
	"github.com/angelmondragon/kitchenpos-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/kitchenpos-backend/pkg/errors"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.New(t)
	client := db.Wrap(conn)
	costingSvc, err := costing.NewService(client, decimal.Zero, nil)
	require.NoError(t, err)
	svc, err := NewService(NewRepository(conn), client, costingSvc, nil)
	require.NoError(t, err)
	return svc, conn
}

func seedBeef(t *testing.T, conn *gorm.DB) *models.Ingredient {
	t.Helper()
	ing := &models.Ingredient{
		Name:           "Ground Beef",
		BaseUnit:       "kg",
		PackageUnit:    "kg",
		PackageSize:    dec("1"),
		CostPerPackage: dec("280"),
		Quantity:       dec("10"),
		ParLevel:       dec("5"),
		IsActive:       true,
	}
	units.RefreshCache(ing)
	require.NoError(t, conn.Create(ing).Error)
	require.NoError(t, conn.Create(&models.UnitAlias{IngredientID: ing.ID, Name: "g", BaseUnitMultiplier: dec("0.001")}).Error)
	return ing
}

func seedBun(t *testing.T, conn *gorm.DB) *models.Ingredient {
	t.Helper()
	ing := &models.Ingredient{
		Name:           "Burger Bun",
		BaseUnit:       "pc",
		PackageUnit:    "pack",
		PackageSize:    dec("6"),
		CostPerPackage: dec("48"),
		Quantity:       dec("4"),
		IsActive:       true,
	}
	units.RefreshCache(ing)
	require.NoError(t, conn.Create(ing).Error)
	return ing
}

func seedProduct(t *testing.T, conn *gorm.DB) *models.Product {
	t.Helper()
	product := &models.Product{Name: "Burger Steak", Price: dec("150"), IsActive: true}
	require.NoError(t, conn.Create(product).Error)
	return product
}

func reloadProduct(t *testing.T, conn *gorm.DB, id uuid.UUID) models.Product {
	t.Helper()
	var product models.Product
	require.NoError(t, conn.First(&product, "id = ?", id).Error)
	return product
}

func TestReplaceResolvesUnitsAndRecosts(t *testing.T) {
	svc, conn := newTestService(t)
	beef := seedBeef(t, conn)
	bun := seedBun(t, conn)
	product := seedProduct(t, conn)

	recipe, err := svc.Replace(context.Background(), product.ID, []ItemInput{
		{IngredientID: beef.ID, Quantity: dec("150"), Unit: "g"},
		{IngredientID: bun.ID, Quantity: dec("1")},
	})
	require.NoError(t, err)
	require.Len(t, recipe.Items, 2)

	byIngredient := map[uuid.UUID]RecipeItemDTO{}
	for _, item := range recipe.Items {
		byIngredient[item.IngredientID] = item
	}
	assert.True(t, byIngredient[beef.ID].BaseQuantity.Equal(dec("0.15")))
	assert.Equal(t, "kg", byIngredient[beef.ID].BaseUnit)
	assert.Equal(t, "Ground Beef", byIngredient[beef.ID].IngredientName)
	assert.True(t, byIngredient[bun.ID].BaseQuantity.Equal(dec("1")))

	require.NotNil(t, recipe.Cost)
	assert.True(t, recipe.Cost.FoodCost.Equal(dec("50")), "got %s", recipe.Cost.FoodCost)

	cached := reloadProduct(t, conn, product.ID)
	require.True(t, cached.TrueCost.Valid)
	assert.True(t, cached.TrueCost.Decimal.Equal(dec("50")))
	assert.True(t, cached.TrueMargin.Decimal.Equal(dec("100")))
}

func TestReplaceIsDestructive(t *testing.T) {
	svc, conn := newTestService(t)
	beef := seedBeef(t, conn)
	bun := seedBun(t, conn)
	product := seedProduct(t, conn)
	ctx := context.Background()

	_, err := svc.Replace(ctx, product.ID, []ItemInput{{IngredientID: beef.ID, Quantity: dec("0.15")}})
	require.NoError(t, err)
	recipe, err := svc.Replace(ctx, product.ID, []ItemInput{{IngredientID: bun.ID, Quantity: dec("1"), Unit: "pack"}})
	require.NoError(t, err)
	require.Len(t, recipe.Items, 1)
	assert.Equal(t, bun.ID, recipe.Items[0].IngredientID)
	assert.True(t, recipe.Items[0].BaseQuantity.Equal(dec("6")))

	var count int64
	require.NoError(t, conn.Model(&models.RecipeItem{}).Where("product_id = ?", product.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	cleared, err := svc.Replace(ctx, product.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, cleared.Items)
	assert.True(t, reloadProduct(t, conn, product.ID).TrueCost.Decimal.IsZero())
}

func TestReplaceRejectsDuplicateIngredient(t *testing.T) {
	svc, conn := newTestService(t)
	beef := seedBeef(t, conn)
	product := seedProduct(t, conn)

	_, err := svc.Replace(context.Background(), product.ID, []ItemInput{
		{IngredientID: beef.ID, Quantity: dec("0.1")},
		{IngredientID: beef.ID, Quantity: dec("0.2")},
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestReplaceFailureKeepsPreviousRecipe(t *testing.T) {
	svc, conn := newTestService(t)
	beef := seedBeef(t, conn)
	bun := seedBun(t, conn)
	product := seedProduct(t, conn)
	ctx := context.Background()

	_, err := svc.Replace(ctx, product.ID, []ItemInput{{IngredientID: beef.ID, Quantity: dec("0.15")}})
	require.NoError(t, err)

	_, err = svc.Replace(ctx, product.ID, []ItemInput{
		{IngredientID: bun.ID, Quantity: dec("1")},
		{IngredientID: beef.ID, Quantity: dec("2"), Unit: "cup"},
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	require.NoError(t, conn.Model(&models.Ingredient{}).Where("id = ?", bun.ID).Update("is_active", false).Error)
	_, err = svc.Replace(ctx, product.ID, []ItemInput{{IngredientID: bun.ID, Quantity: dec("1")}})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	recipe, err := svc.Get(ctx, product.ID)
	require.NoError(t, err)
	require.Len(t, recipe.Items, 1)
	assert.Equal(t, beef.ID, recipe.Items[0].IngredientID)
	assert.True(t, recipe.Cost.FoodCost.Equal(dec("42")))
}

func TestReplaceUnknownReferences(t *testing.T) {
	svc, conn := newTestService(t)
	beef := seedBeef(t, conn)
	product := seedProduct(t, conn)
	ctx := context.Background()

	_, err := svc.Replace(ctx, uuid.New(), []ItemInput{{IngredientID: beef.ID, Quantity: dec("1")}})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.Replace(ctx, product.ID, []ItemInput{{IngredientID: uuid.New(), Quantity: dec("1")}})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.Get(ctx, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
