package sales

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/kitchenpos-backend/pkg/db/models"
)

// Repository defines persistence operations for the sale tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	NextOrderNumber(ctx context.Context) (int64, error)
	CreateTransaction(ctx context.Context, txn *models.Transaction) error
	FindTransaction(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	FindTransactionForUpdate(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	UpdateTransaction(ctx context.Context, id uuid.UUID, updates map[string]any) error
	// LoadProducts returns the products keyed by id with recipe items preloaded.
	LoadProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Product, error)
	// AdjustProductStock moves a tracked product's quantity and sales counter.
	AdjustProductStock(ctx context.Context, id uuid.UUID, quantityDelta, salesDelta int64) error
	// LockIngredients locks the ingredient rows in ascending id order.
	LockIngredients(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Ingredient, error)
}
