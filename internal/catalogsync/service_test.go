package catalogsync

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/kitchenpos-backend/pkg/db"
	"github.com/angelmondragon/kitchenpos-backend/pkg/db/dbtest"
	"github.com/angelmondragon/kitchenpos-backend/pkg/db/models"
	"github.com/angelmondragon/kitchenpos-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/kitchenpos-backend/pkg/errors"
	"github.com/angelmondragon/kitchenpos-backend/pkg/metrics"
)

type failingRepository struct {
	Repository
}

func (f failingRepository) WithTx(tx *gorm.DB) Repository {
	return failingRepository{Repository: f.Repository.WithTx(tx)}
}

func (f failingRepository) CreateProduct(ctx context.Context, product *models.Product) error {
	return errors.New("catalog unavailable")
}

func seedIngredient(t *testing.T, conn *gorm.DB) *models.Ingredient {
	t.Helper()
	ing := &models.Ingredient{
		Name: "Bottled Water", Category: "drinks", BaseUnit: "bottle", PackageUnit: "case",
		PackageSize: decimal.NewFromInt(24), CostPerPackage: decimal.NewFromInt(240),
		Quantity: decimal.NewFromInt(3), IsActive: true,
	}
	require.NoError(t, conn.Create(ing).Error)
	return ing
}

func loadPair(t *testing.T, conn *gorm.DB, ingredientID uuid.UUID) (models.Ingredient, *models.Product) {
	t.Helper()
	var ing models.Ingredient
	require.NoError(t, conn.First(&ing, "id = ?", ingredientID).Error)
	if ing.LinkedProductID == nil {
		return ing, nil
	}
	var product models.Product
	require.NoError(t, conn.First(&product, "id = ?", *ing.LinkedProductID).Error)
	return ing, &product
}

func TestSetSellableCreatesLinkedProduct(t *testing.T) {
	conn := dbtest.New(t)
	svc, err := NewService(NewRepository(conn), db.Wrap(conn), nil, nil)
	require.NoError(t, err)
	ing := seedIngredient(t, conn)

	res, err := svc.SetSellable(context.Background(), ing.ID, true, nil)
	require.NoError(t, err)
	assert.True(t, res.ProductCreated)
	assert.Equal(t, enums.SyncStatusSynced, res.SyncStatus)

	stored, product := loadPair(t, conn, ing.ID)
	require.NotNil(t, product)
	assert.True(t, stored.Sellable)
	assert.Equal(t, *res.ProductID, product.ID)
	require.NotNil(t, product.LinkedIngredientID)
	assert.Equal(t, ing.ID, *product.LinkedIngredientID)
	assert.True(t, product.Price.IsZero())
	assert.True(t, product.NeedsPricing)
	assert.False(t, product.TrackStock)
	assert.Equal(t, "Bottled Water", product.Name)
}

func TestSetSellableUsesRequestedCategory(t *testing.T) {
	conn := dbtest.New(t)
	svc, err := NewService(NewRepository(conn), db.Wrap(conn), nil, nil)
	require.NoError(t, err)
	ing := seedIngredient(t, conn)
	ctx := context.Background()

	beverages := "beverages"
	_, err = svc.SetSellable(ctx, ing.ID, true, &beverages)
	require.NoError(t, err)
	_, product := loadPair(t, conn, ing.ID)
	require.NotNil(t, product)
	assert.Equal(t, "beverages", product.Category)

	cold := "cold drinks"
	_, err = svc.SetSellable(ctx, ing.ID, true, &cold)
	require.NoError(t, err)
	_, product = loadPair(t, conn, ing.ID)
	assert.Equal(t, "cold drinks", product.Category)

	_, err = svc.SetSellable(ctx, ing.ID, true, nil)
	require.NoError(t, err)
	_, product = loadPair(t, conn, ing.ID)
	assert.Equal(t, "cold drinks", product.Category)
}

func TestSetSellableRoundTripKeepsLinksSymmetric(t *testing.T) {
	conn := dbtest.New(t)
	svc, err := NewService(NewRepository(conn), db.Wrap(conn), nil, nil)
	require.NoError(t, err)
	ing := seedIngredient(t, conn)
	ctx := context.Background()

	first, err := svc.SetSellable(ctx, ing.ID, true, nil)
	require.NoError(t, err)
	productID := *first.ProductID

	_, err = svc.SetSellable(ctx, ing.ID, false, nil)
	require.NoError(t, err)
	stored, product := loadPair(t, conn, ing.ID)
	assert.Nil(t, product)
	assert.False(t, stored.Sellable)
	var unlinked models.Product
	require.NoError(t, conn.First(&unlinked, "id = ?", productID).Error)
	assert.Nil(t, unlinked.LinkedIngredientID)

	require.NoError(t, conn.Model(&models.Product{}).Where("id = ?", productID).
		Updates(map[string]any{"price": decimal.NewFromInt(25), "linked_ingredient_id": ing.ID}).Error)
	require.NoError(t, conn.Model(&models.Ingredient{}).Where("id = ?", ing.ID).
		Updates(map[string]any{"name": "Still Water"}).Error)

	again, err := svc.SetSellable(ctx, ing.ID, true, nil)
	require.NoError(t, err)
	assert.False(t, again.ProductCreated)
	assert.Equal(t, productID, *again.ProductID)
	_, product = loadPair(t, conn, ing.ID)
	require.NotNil(t, product)
	assert.Equal(t, "Still Water", product.Name)
	assert.False(t, product.NeedsPricing)
	assert.Equal(t, ing.ID, *product.LinkedIngredientID)

	var count int64
	require.NoError(t, conn.Model(&models.Product{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSetSellableRecordsFailureWithoutReturningIt(t *testing.T) {
	conn := dbtest.New(t)
	reg := prometheus.NewRegistry()
	svc, err := NewService(failingRepository{Repository: NewRepository(conn)}, db.Wrap(conn), nil, metrics.NewInventoryMetrics(reg))
	require.NoError(t, err)
	ing := seedIngredient(t, conn)

	res, err := svc.SetSellable(context.Background(), ing.ID, true, nil)
	require.NoError(t, err)
	assert.Equal(t, enums.SyncStatusError, res.SyncStatus)
	require.NotNil(t, res.SyncError)
	assert.Contains(t, *res.SyncError, "catalog unavailable")

	stored, product := loadPair(t, conn, ing.ID)
	assert.Nil(t, product)
	assert.True(t, stored.Sellable)
	assert.Equal(t, enums.SyncStatusError, stored.SyncStatus)
	require.NotNil(t, stored.SyncError)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	var failures float64
	for _, mf := range mfs {
		if mf.GetName() == "kitchenpos_catalog_sync_failures_total" {
			failures = mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	assert.Equal(t, float64(1), failures)
}

func TestSetSellableUnknownIngredient(t *testing.T) {
	conn := dbtest.New(t)
	svc, err := NewService(NewRepository(conn), db.Wrap(conn), nil, nil)
	require.NoError(t, err)

	_, err = svc.SetSellable(context.Background(), uuid.New(), true, nil)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
