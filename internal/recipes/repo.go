package recipes

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/kitchenpos-backend/internal/repo"
	"github.com/angelmondragon/kitchenpos-backend/pkg/db/models"
)

// Repository persists recipe items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error)
	ListItems(ctx context.Context, productID uuid.UUID) ([]models.RecipeItem, error)
	LoadIngredients(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Ingredient, error)
	ReplaceItems(ctx context.Context, productID uuid.UUID, items []models.RecipeItem) error
}

type repository struct {
	repo.Base
}

// NewRepository binds a recipe repository to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: repo.NewBase(tx)}
}

func (r *repository) FindProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.DB(ctx).First(&product, "id = ?", productID).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) ListItems(ctx context.Context, productID uuid.UUID) ([]models.RecipeItem, error) {
	var items []models.RecipeItem
	if err := r.DB(ctx).
		Preload("Ingredient").
		Where("product_id = ?", productID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// LoadIngredients returns the requested ingredients keyed by id, aliases preloaded.
// Missing ids are absent from the map.
func (r *repository) LoadIngredients(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Ingredient, error) {
	out := make(map[uuid.UUID]*models.Ingredient, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Ingredient
	if err := r.DB(ctx).Preload("Aliases").Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		out[rows[i].ID] = &rows[i]
	}
	return out, nil
}

// ReplaceItems deletes every item of the product before inserting items.
func (r *repository) ReplaceItems(ctx context.Context, productID uuid.UUID, items []models.RecipeItem) error {
	conn := r.DB(ctx)
	if err := conn.Where("product_id = ?", productID).Delete(&models.RecipeItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	return conn.Create(&items).Error
}
