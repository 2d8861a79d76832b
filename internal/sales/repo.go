package sales

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/kitchenpos-backend/pkg/db"
	"github.com/angelmondragon/kitchenpos-backend/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a sales repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) NextOrderNumber(ctx context.Context) (int64, error) {
	var current int64
	if err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Select("COALESCE(MAX(order_number), 0)").
		Scan(&current).Error; err != nil {
		return 0, err
	}
	return current + 1, nil
}

func (r *repository) CreateTransaction(ctx context.Context, txn *models.Transaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *repository) FindTransaction(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	var txn models.Transaction
	err := r.db.WithContext(ctx).
		Preload("Items", func(tx *gorm.DB) *gorm.DB { return tx.Order("product_name ASC").Order("id ASC") }).
		Where("id = ?", id).
		First(&txn).Error
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *repository) FindTransactionForUpdate(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	var txn models.Transaction
	if err := db.ForUpdate(r.db.WithContext(ctx)).Where("id = ?", id).First(&txn).Error; err != nil {
		return nil, err
	}
	var items []models.TransactionItem
	if err := r.db.WithContext(ctx).Where("transaction_id = ?", id).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	txn.Items = items
	return &txn, nil
}

func (r *repository) UpdateTransaction(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).Model(&models.Transaction{}).Where("id = ?", id).Updates(updates).Error
}

func (r *repository) LoadProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Product, error) {
	out := make(map[uuid.UUID]*models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Product
	if err := r.db.WithContext(ctx).Preload("RecipeItems").Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		out[rows[i].ID] = &rows[i]
	}
	return out, nil
}

func (r *repository) AdjustProductStock(ctx context.Context, id uuid.UUID, quantityDelta, salesDelta int64) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"quantity":    gorm.Expr("quantity + ?", quantityDelta),
			"sales_count": gorm.Expr("sales_count + ?", salesDelta),
		}).Error
}

func (r *repository) LockIngredients(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Ingredient, error) {
	out := make(map[uuid.UUID]*models.Ingredient, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Ingredient
	if err := db.ForUpdate(r.db.WithContext(ctx)).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		out[rows[i].ID] = &rows[i]
	}
	return out, nil
}
