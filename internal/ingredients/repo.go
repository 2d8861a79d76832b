package ingredients

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/kitchenpos-backend/pkg/db"
	"github.com/angelmondragon/kitchenpos-backend/pkg/db/models"
)

// Repository persists ingredient rows and their unit aliases. Audited stock
// fields are written through the ledger, never here.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, ingredient *models.Ingredient) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Ingredient, error)
	FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Ingredient, error)
	List(ctx context.Context, filter ListFilter) ([]models.Ingredient, error)
	UpdateFields(ctx context.Context, id uuid.UUID, updates map[string]any) error
	ReplaceAliases(ctx context.Context, ingredientID uuid.UUID, aliases []models.UnitAlias) error
	RecipeProductIDs(ctx context.Context, ingredientID uuid.UUID) ([]uuid.UUID, error)
}

// ListFilter narrows List. Nil fields are ignored.
type ListFilter struct {
	Active   *bool
	Sellable *bool
	Category string
	Search   string
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an ingredient repository bound to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, ingredient *models.Ingredient) error {
	return r.db.WithContext(ctx).Create(ingredient).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Ingredient, error) {
	var ingredient models.Ingredient
	if err := r.db.WithContext(ctx).
		Preload("Aliases", func(tx *gorm.DB) *gorm.DB { return tx.Order("name ASC") }).
		Where("id = ?", id).
		First(&ingredient).Error; err != nil {
		return nil, err
	}
	return &ingredient, nil
}

func (r *repository) FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Ingredient, error) {
	var ingredient models.Ingredient
	if err := db.ForUpdate(r.db.WithContext(ctx)).
		Where("id = ?", id).
		First(&ingredient).Error; err != nil {
		return nil, err
	}
	return &ingredient, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.Ingredient, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Ingredient{}).
		Preload("Aliases", func(tx *gorm.DB) *gorm.DB { return tx.Order("name ASC") })
	if filter.Active != nil {
		query = query.Where("is_active = ?", *filter.Active)
	}
	if filter.Sellable != nil {
		query = query.Where("sellable = ?", *filter.Sellable)
	}
	if category := strings.TrimSpace(filter.Category); category != "" {
		query = query.Where("category = ?", category)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	var rows []models.Ingredient
	if err := query.Order("name ASC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) UpdateFields(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Ingredient{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) ReplaceAliases(ctx context.Context, ingredientID uuid.UUID, aliases []models.UnitAlias) error {
	if err := r.db.WithContext(ctx).
		Where("ingredient_id = ?", ingredientID).
		Delete(&models.UnitAlias{}).Error; err != nil {
		return err
	}
	if len(aliases) == 0 {
		return nil
	}
	for i := range aliases {
		aliases[i].IngredientID = ingredientID
	}
	return r.db.WithContext(ctx).Create(&aliases).Error
}

func (r *repository) RecipeProductIDs(ctx context.Context, ingredientID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.RecipeItem{}).
		Distinct("product_id").
		Where("ingredient_id = ?", ingredientID).
		Pluck("product_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
