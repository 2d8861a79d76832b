package catalogsync

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/kitchenpos-backend/pkg/db/models"
)

// Repository is the persistence surface of the sync.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetIngredient(ctx context.Context, id uuid.UUID) (*models.Ingredient, error)
	// FindLinkedProduct returns the product pointing at ingredientID, or the
	// product ingredient points at. Nil when neither exists.
	FindLinkedProduct(ctx context.Context, ingredient *models.Ingredient) (*models.Product, error)
	CreateProduct(ctx context.Context, product *models.Product) error
	UpdateProduct(ctx context.Context, id uuid.UUID, updates map[string]any) error
	ClearProductLinks(ctx context.Context, ingredientID uuid.UUID) error
	UpdateIngredient(ctx context.Context, id uuid.UUID, updates map[string]any) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a sync repository bound to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) GetIngredient(ctx context.Context, id uuid.UUID) (*models.Ingredient, error) {
	var ingredient models.Ingredient
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&ingredient).Error; err != nil {
		return nil, err
	}
	return &ingredient, nil
}

func (r *repository) FindLinkedProduct(ctx context.Context, ingredient *models.Ingredient) (*models.Product, error) {
	var product models.Product
	if ingredient.LinkedProductID != nil {
		err := r.db.WithContext(ctx).Where("id = ?", *ingredient.LinkedProductID).First(&product).Error
		if err == nil {
			return &product, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	err := r.db.WithContext(ctx).Where("linked_ingredient_id = ?", ingredient.ID).First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) CreateProduct(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *repository) UpdateProduct(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Updates(updates).Error
}

func (r *repository) ClearProductLinks(ctx context.Context, ingredientID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("linked_ingredient_id = ?", ingredientID).
		Update("linked_ingredient_id", nil).Error
}

func (r *repository) UpdateIngredient(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).Model(&models.Ingredient{}).Where("id = ?", id).Updates(updates).Error
}
