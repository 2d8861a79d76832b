package products

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/kitchenpos-backend/internal/availability"
	"github.com/angelmondragon/kitchenpos-backend/internal/costing"
	"github.com/angelmondragon/kitchenpos-backend/internal/units"
	"github.com/angelmondragon/kitchenpos-backend/pkg/db"
	"github.com/angelmondragon/kitchenpos-backend/pkg/db/dbtest"
	"github.com/angelmondragon/kitchenpos-backend/pkg/db/models"
	"github.com/angelmondragon/kitchenpos-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/kitchenpos-backend/pkg/errors"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ptr[T any](v T) *T {
	return &v
}

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.New(t)
	client := db.Wrap(conn)
	costingSvc, err := costing.NewService(client, dec("18"), nil)
	require.NoError(t, err)
	availSvc, err := availability.NewService(conn, availability.DefaultThresholds())
	require.NoError(t, err)
	svc, err := NewService(NewRepository(conn), client, costingSvc, availSvc, nil)
	require.NoError(t, err)
	return svc, conn
}

func TestCreateProductWithoutPriceNeedsPricing(t *testing.T) {
	svc, _ := newTestService(t)

	dto, err := svc.CreateProduct(context.Background(), CreateProductInput{Name: "  Iced Tea ", Category: "drinks"})
	require.NoError(t, err)
	assert.Equal(t, "Iced Tea", dto.Name)
	assert.True(t, dto.NeedsPricing)
	assert.True(t, dto.IsActive)
	require.NotNil(t, dto.TrueCost)
	assert.True(t, dto.TrueCost.IsZero())
	assert.True(t, dto.TrueMarginPercent.IsZero())
	require.NotNil(t, dto.Availability)
	assert.Equal(t, enums.AvailabilityAvailable, dto.Availability.Status)
	assert.Nil(t, dto.Availability.MaxProducible)
}

func TestUpdateProductClearsNeedsPricingAndRecosts(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	created, err := svc.CreateProduct(ctx, CreateProductInput{Name: "Pancit"})
	require.NoError(t, err)

	updated, err := svc.UpdateProduct(ctx, created.ID, UpdateProductInput{
		Price:              ptr(dec("120")),
		PrepTimeMinutes:    ptr(20),
		OverheadAllocation: ptr(dec("4")),
	})
	require.NoError(t, err)
	assert.False(t, updated.NeedsPricing)
	require.NotNil(t, updated.TrueCost)
	assert.True(t, updated.TrueCost.Equal(dec("10")), "got %s", updated.TrueCost)
	assert.True(t, updated.TrueMargin.Equal(dec("110")))
	assert.True(t, updated.TrueMarginPercent.Equal(dec("91.7")))

	cleared, err := svc.UpdateProduct(ctx, created.ID, UpdateProductInput{ClearPrepTime: true, ClearOverhead: true})
	require.NoError(t, err)
	assert.Nil(t, cleared.PrepTimeMinutes)
	assert.Nil(t, cleared.OverheadAllocation)
	assert.True(t, cleared.TrueCost.IsZero())
}

func TestProductValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, CreateProductInput{Name: " "})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = svc.CreateProduct(ctx, CreateProductInput{Name: "Soup", Price: dec("-1")})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = svc.CreateProduct(ctx, CreateProductInput{Name: "Soup", PrepTimeMinutes: ptr(-5)})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.UpdateProduct(ctx, uuid.New(), UpdateProductInput{Name: ptr("Soup")})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	_, err = svc.GetProduct(ctx, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestProductAvailabilityFromRecipe(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	beef := &models.Ingredient{
		Name: "Ground Beef", BaseUnit: "kg", PackageUnit: "kg",
		PackageSize: dec("1"), CostPerPackage: dec("280"), Quantity: dec("10"), ParLevel: dec("5"), IsActive: true,
	}
	units.RefreshCache(beef)
	require.NoError(t, conn.Create(beef).Error)

	product, err := svc.CreateProduct(ctx, CreateProductInput{Name: "Burger Steak", Price: dec("150")})
	require.NoError(t, err)
	require.NoError(t, conn.Create(&models.RecipeItem{
		ProductID: product.ID, IngredientID: beef.ID, Quantity: dec("0.15"), Unit: "kg", BaseQuantity: dec("0.15"),
	}).Error)

	avail, err := svc.Availability(ctx, product.ID)
	require.NoError(t, err)
	require.NotNil(t, avail.MaxProducible)
	assert.EqualValues(t, 66, *avail.MaxProducible)
	assert.Equal(t, enums.AvailabilityAvailable, avail.Status)

	breakdown, err := svc.Cost(ctx, product.ID)
	require.NoError(t, err)
	assert.True(t, breakdown.FoodCost.Equal(dec("42")))

	all, err := svc.ListAvailability(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Burger Steak", all[0].ProductName)
}

func TestListProductsFilters(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.CreateProduct(ctx, CreateProductInput{Name: "Halo-Halo", Category: "dessert", Price: dec("95")})
	require.NoError(t, err)
	tea, err := svc.CreateProduct(ctx, CreateProductInput{Name: "Iced Tea", Category: "drinks", TrackStock: true, Quantity: 3})
	require.NoError(t, err)

	needsPricing, err := svc.ListProducts(ctx, ListFilters{NeedsPricing: ptr(true)})
	require.NoError(t, err)
	require.Len(t, needsPricing, 1)
	assert.Equal(t, tea.ID, needsPricing[0].ID)
	require.NotNil(t, needsPricing[0].Availability)
	assert.Equal(t, enums.AvailabilityLow, needsPricing[0].Availability.Status)

	_, err = svc.UpdateProduct(ctx, tea.ID, UpdateProductInput{IsActive: ptr(false)})
	require.NoError(t, err)
	active, err := svc.ListProducts(ctx, ListFilters{Active: ptr(true)})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Halo-Halo", active[0].Name)

	search, err := svc.ListProducts(ctx, ListFilters{Query: "halo"})
	require.NoError(t, err)
	require.Len(t, search, 1)
}
