package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/kitchenpos-backend/pkg/db"
	"github.com/angelmondragon/kitchenpos-backend/pkg/db/dbtest"
	"github.com/angelmondragon/kitchenpos-backend/pkg/db/models"
	"github.com/angelmondragon/kitchenpos-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/kitchenpos-backend/pkg/errors"
	"github.com/angelmondragon/kitchenpos-backend/pkg/pagination"
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
	svc, err := NewService(NewRepository(conn), db.Wrap(conn))
	require.NoError(t, err)
	return svc, conn
}

func seedIngredient(t *testing.T, conn *gorm.DB, quantity string) *models.Ingredient {
	t.Helper()
	ing := &models.Ingredient{
		Name:           "Ground Beef",
		BaseUnit:       "kg",
		PackageUnit:    "kg",
		PackageSize:    dec("1"),
		CostPerPackage: dec("280"),
		Quantity:       dec(quantity),
		ParLevel:       dec("20"),
		IsActive:       true,
	}
	require.NoError(t, conn.Create(ing).Error)
	return ing
}

func loadIngredient(t *testing.T, conn *gorm.DB, id uuid.UUID) models.Ingredient {
	t.Helper()
	var ing models.Ingredient
	require.NoError(t, conn.First(&ing, "id = ?", id).Error)
	return ing
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(nil, db.Wrap(dbtest.New(t)))
	require.Error(t, err)
	_, err = NewService(NewRepository(dbtest.New(t)), nil)
	require.Error(t, err)
}

func TestDiff(t *testing.T) {
	before := &models.Ingredient{Quantity: dec("10"), CostPerPackage: dec("280"), PackageSize: dec("1"), ParLevel: dec("20")}
	after := *before
	after.Quantity = dec("9.7")

	changes := Diff(before, &after)
	require.Len(t, changes, 1)
	assert.Equal(t, enums.HistoryFieldQuantity, changes[0].Field)
	assert.Equal(t, "10", *changes[0].OldValue)
	assert.Equal(t, "9.7", *changes[0].NewValue)

	assert.Empty(t, Diff(before, before))

	parOnly := *before
	parOnly.ParLevel = dec("35")
	assert.Empty(t, Diff(before, &parOnly))

	created := Diff(nil, before)
	require.Len(t, created, 3)
	for _, change := range created {
		assert.Nil(t, change.OldValue)
		assert.NotNil(t, change.NewValue)
	}
}

func TestApplyWritesOneRowPerChangedField(t *testing.T) {
	svc, conn := newTestService(t)
	ing := seedIngredient(t, conn, "10")
	ctx := context.Background()

	before := loadIngredient(t, conn, ing.ID)
	after := before
	after.Quantity = dec("15")
	after.CostPerPackage = dec("300")

	var res *Result
	err := db.Wrap(conn).WithTx(ctx, func(tx *gorm.DB) error {
		var applyErr error
		res, applyErr = svc.Apply(ctx, tx, ApplyInput{
			Before: &before,
			After:  &after,
			Source: enums.HistorySourceRestock,
			Actor:  Actor{UserID: ptr("u-1"), UserName: ptr("Ana")},
		})
		return applyErr
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, res.ChangeID)
	require.Len(t, res.Entries, 2)

	rows, err := svc.ListByChangeID(ctx, nil, res.ChangeID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.Equal(t, enums.HistorySourceRestock, row.Source)
		assert.Equal(t, "Ana", *row.UserName)
	}

	stored := loadIngredient(t, conn, ing.ID)
	assert.True(t, stored.Quantity.Equal(dec("15")))
	assert.True(t, stored.CostPerBaseUnit.Equal(dec("300")))
}

func TestApplyWithoutChangesWritesNothing(t *testing.T) {
	svc, conn := newTestService(t)
	ing := seedIngredient(t, conn, "10")
	ctx := context.Background()

	before := loadIngredient(t, conn, ing.ID)
	after := before
	after.Name = "Renamed"

	res, err := svc.Apply(ctx, nil, ApplyInput{Before: &before, After: &after, Source: enums.HistorySourceManualEdit})
	require.NoError(t, err)
	assert.Equal(t, uuid.Nil, res.ChangeID)

	var count int64
	require.NoError(t, conn.Model(&models.IngredientHistory{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestAdjustParLevelOnlyIsNotAudited(t *testing.T) {
	svc, conn := newTestService(t)
	ing := seedIngredient(t, conn, "10")

	res, err := svc.Adjust(context.Background(), AdjustInput{
		IngredientID: ing.ID,
		ParLevel:     ptr(dec("35")),
		Source:       enums.HistorySourceManualEdit,
	})
	require.NoError(t, err)
	assert.Equal(t, uuid.Nil, res.ChangeID)
	assert.Empty(t, res.Entries)
	assert.True(t, loadIngredient(t, conn, ing.ID).ParLevel.Equal(dec("35")))

	var count int64
	require.NoError(t, conn.Model(&models.IngredientHistory{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestAdjustRejectsMixedQuantityInputs(t *testing.T) {
	svc, conn := newTestService(t)
	ing := seedIngredient(t, conn, "10")

	_, err := svc.Adjust(context.Background(), AdjustInput{
		IngredientID:   ing.ID,
		QuantityDelta:  ptr(dec("-1")),
		BaseUnitsDelta: ptr(dec("-1")),
		Source:         enums.HistorySourceSale,
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestAdjustRejectsNegativeQuantityOutsideSales(t *testing.T) {
	svc, conn := newTestService(t)
	ing := seedIngredient(t, conn, "1")

	_, err := svc.Adjust(context.Background(), AdjustInput{
		IngredientID:  ing.ID,
		QuantityDelta: ptr(dec("-2")),
		Source:        enums.HistorySourceManualEdit,
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.True(t, loadIngredient(t, conn, ing.ID).Quantity.Equal(dec("1")))
}

func TestAdjustClampsSalesAtZero(t *testing.T) {
	svc, conn := newTestService(t)
	ing := seedIngredient(t, conn, "0.2")

	res, err := svc.Adjust(context.Background(), AdjustInput{
		IngredientID:  ing.ID,
		QuantityDelta: ptr(dec("-0.3")),
		Source:        enums.HistorySourceSale,
	})
	require.NoError(t, err)
	assert.True(t, res.Clamped)
	assert.True(t, res.After.Quantity.IsZero())
	require.Len(t, res.Entries, 1)
	assert.Equal(t, "0", *res.Entries[0].NewValue)
}

func TestAdjustRejectsInactiveIngredient(t *testing.T) {
	svc, conn := newTestService(t)
	ing := seedIngredient(t, conn, "5")
	require.NoError(t, conn.Model(&models.Ingredient{}).Where("id = ?", ing.ID).Update("is_active", false).Error)

	_, err := svc.Adjust(context.Background(), AdjustInput{
		IngredientID:  ing.ID,
		QuantityDelta: ptr(dec("1")),
		Source:        enums.HistorySourceRestock,
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestAdjustValidatesPackaging(t *testing.T) {
	svc, conn := newTestService(t)
	ing := seedIngredient(t, conn, "5")

	_, err := svc.Adjust(context.Background(), AdjustInput{
		IngredientID: ing.ID,
		PackageSize:  ptr(decimal.Zero),
		Source:       enums.HistorySourceRestock,
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.Adjust(context.Background(), AdjustInput{IngredientID: uuid.New(), Source: enums.HistorySourceRestock})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestListFiltersAndPaginates(t *testing.T) {
	svc, conn := newTestService(t)
	ing := seedIngredient(t, conn, "10")
	other := seedIngredient(t, conn, "3")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Adjust(ctx, AdjustInput{
			IngredientID:  ing.ID,
			QuantityDelta: ptr(dec("1")),
			Source:        enums.HistorySourceRestock,
			Actor:         Actor{UserID: ptr("u-1")},
		})
		require.NoError(t, err)
	}
	_, err := svc.Adjust(ctx, AdjustInput{
		IngredientID:  other.ID,
		QuantityDelta: ptr(dec("-1")),
		Source:        enums.HistorySourceInventoryCount,
	})
	require.NoError(t, err)

	first, err := svc.List(ctx, HistoryQuery{IngredientID: &ing.ID, Pagination: pagination.Params{Limit: 2}})
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	require.NotEmpty(t, first.NextCursor)

	second, err := svc.List(ctx, HistoryQuery{IngredientID: &ing.ID, Pagination: pagination.Params{Limit: 2, Cursor: first.NextCursor}})
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	assert.Empty(t, second.NextCursor)
	assert.Equal(t, "10", *second.Items[0].OldValue)

	source := enums.HistorySourceInventoryCount
	counted, err := svc.List(ctx, HistoryQuery{Source: &source})
	require.NoError(t, err)
	require.Len(t, counted.Items, 1)
	assert.Equal(t, other.ID, counted.Items[0].IngredientID)

	byUser, err := svc.List(ctx, HistoryQuery{UserID: ptr("u-1")})
	require.NoError(t, err)
	assert.Len(t, byUser.Items, 3)

	future := time.Now().Add(time.Hour)
	none, err := svc.List(ctx, HistoryQuery{From: &future})
	require.NoError(t, err)
	assert.Empty(t, none.Items)

	_, err = svc.List(ctx, HistoryQuery{Pagination: pagination.Params{Cursor: "%%%"}})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
