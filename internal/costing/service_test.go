package costing

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/kitchenpos-backend/pkg/db"
	"github.com/angelmondragon/kitchenpos-backend/pkg/db/dbtest"
	"github.com/angelmondragon/kitchenpos-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/kitchenpos-backend/pkg/errors"
)

func seedBurger(t *testing.T, conn *gorm.DB) *models.Product {
	t.Helper()
	beef := &models.Ingredient{
		Name: "Ground Beef", BaseUnit: "kg", PackageUnit: "kg",
		PackageSize: dec("1"), CostPerPackage: dec("280"), Quantity: dec("10"), IsActive: true,
	}
	require.NoError(t, conn.Create(beef).Error)
	prep := 6
	burger := &models.Product{
		Name: "Burger Steak", Price: dec("150"), PrepTimeMinutes: &prep,
		OverheadAllocation: decimal.NewNullDecimal(dec("5")), IsActive: true,
	}
	require.NoError(t, conn.Create(burger).Error)
	require.NoError(t, conn.Create(&models.RecipeItem{
		ProductID: burger.ID, IngredientID: beef.ID, Quantity: dec("0.15"), Unit: "kg", BaseQuantity: dec("0.15"),
	}).Error)
	return burger
}

func TestServiceRecostCachesSnapshot(t *testing.T) {
	conn := dbtest.New(t)
	svc, err := NewService(db.Wrap(conn), dec("90"), nil)
	require.NoError(t, err)
	burger := seedBurger(t, conn)
	ctx := context.Background()

	breakdown, err := svc.Recost(ctx, nil, burger.ID)
	require.NoError(t, err)
	assert.True(t, breakdown.TrueCost.Equal(dec("56")), "true cost %s", breakdown.TrueCost)

	var stored models.Product
	require.NoError(t, conn.First(&stored, "id = ?", burger.ID).Error)
	require.True(t, stored.TrueCost.Valid)
	assert.True(t, stored.TrueCost.Decimal.Equal(dec("56")))
	assert.True(t, stored.TrueMargin.Decimal.Equal(dec("94")))
	assert.NotNil(t, stored.CostedAt)

	again, err := svc.Cost(ctx, burger.ID)
	require.NoError(t, err)
	assert.True(t, again.TrueCost.Equal(breakdown.TrueCost))
	assert.True(t, again.TrueMarginPercent.Equal(breakdown.TrueMarginPercent))
}

func TestServiceRecomputeAll(t *testing.T) {
	conn := dbtest.New(t)
	svc, err := NewService(db.Wrap(conn), dec("90"), nil)
	require.NoError(t, err)
	seedBurger(t, conn)
	require.NoError(t, conn.Create(&models.Product{Name: "Water", Price: dec("20"), IsActive: true}).Error)

	summary, err := svc.RecomputeAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Processed)
	assert.Zero(t, summary.Failed)

	var costed int64
	require.NoError(t, conn.Model(&models.Product{}).Where("costed_at IS NOT NULL").Count(&costed).Error)
	assert.Equal(t, int64(2), costed)
}

func TestServiceCostNotFound(t *testing.T) {
	svc, err := NewService(dbtest.Client(t), decimal.Zero, nil)
	require.NoError(t, err)
	_, err = svc.Cost(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestServiceTransactionOverhead(t *testing.T) {
	conn := dbtest.New(t)
	svc, err := NewService(db.Wrap(conn), decimal.Zero, nil)
	require.NoError(t, err)
	require.NoError(t, conn.Create(&models.Ingredient{Name: "Napkins", IsOverhead: true, OverheadPerTransaction: dec("1.25"), IsActive: true, PackageSize: dec("1")}).Error)
	require.NoError(t, conn.Create(&models.Ingredient{Name: "Takeout Box", IsOverhead: true, OverheadPerTransaction: dec("3.5"), IsActive: true, PackageSize: dec("1")}).Error)
	require.NoError(t, conn.Create(&models.Ingredient{Name: "Beef", OverheadPerTransaction: dec("9"), IsActive: true, PackageSize: dec("1")}).Error)

	total, err := svc.TransactionOverhead(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, total.Equal(dec("4.75")), "overhead %s", total)
}

func TestNewServiceRejectsNegativeLabor(t *testing.T) {
	_, err := NewService(dbtest.Client(t), dec("-1"), nil)
	require.Error(t, err)
	_, err = NewService(nil, decimal.Zero, nil)
	require.Error(t, err)
}
