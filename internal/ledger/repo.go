package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/kitchenpos-backend/pkg/db"
	"github.com/angelmondragon/kitchenpos-backend/pkg/db/models"
	"github.com/angelmondragon/kitchenpos-backend/pkg/enums"
	"github.com/angelmondragon/kitchenpos-backend/pkg/pagination"
)

// Repository manages ingredient stock rows and their append-only history.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	LockIngredient(ctx context.Context, id uuid.UUID) (*models.Ingredient, error)
	UpdateStock(ctx context.Context, ingredient *models.Ingredient) error
	CreateEntries(ctx context.Context, entries []models.IngredientHistory) error
	List(ctx context.Context, query HistoryQuery) ([]models.IngredientHistory, error)
	ListByChangeID(ctx context.Context, changeID uuid.UUID) ([]models.IngredientHistory, error)
}

// HistoryQuery filters the history feed. Zero values are ignored.
type HistoryQuery struct {
	IngredientID *uuid.UUID
	Source       *enums.HistorySource
	UserID       *string
	ChangeID     *uuid.UUID
	From         *time.Time
	To           *time.Time
	Pagination   pagination.Params
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) LockIngredient(ctx context.Context, id uuid.UUID) (*models.Ingredient, error) {
	var ingredient models.Ingredient
	if err := db.ForUpdate(r.db.WithContext(ctx)).
		Where("id = ?", id).
		First(&ingredient).Error; err != nil {
		return nil, err
	}
	return &ingredient, nil
}

func (r *repository) UpdateStock(ctx context.Context, ingredient *models.Ingredient) error {
	return r.db.WithContext(ctx).
		Model(&models.Ingredient{}).
		Where("id = ?", ingredient.ID).
		Updates(map[string]any{
			"quantity":           ingredient.Quantity,
			"cost_per_package":   ingredient.CostPerPackage,
			"package_size":       ingredient.PackageSize,
			"cost_per_unit":      ingredient.CostPerUnit,
			"par_level":          ingredient.ParLevel,
			"cost_per_base_unit": ingredient.CostPerBaseUnit,
			"updated_at":         time.Now().UTC(),
		}).Error
}

func (r *repository) CreateEntries(ctx context.Context, entries []models.IngredientHistory) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&entries).Error
}

func (r *repository) List(ctx context.Context, query HistoryQuery) ([]models.IngredientHistory, error) {
	q := r.db.WithContext(ctx).Model(&models.IngredientHistory{})
	if query.IngredientID != nil {
		q = q.Where("ingredient_id = ?", *query.IngredientID)
	}
	if query.Source != nil {
		q = q.Where("source = ?", *query.Source)
	}
	if query.UserID != nil {
		q = q.Where("user_id = ?", *query.UserID)
	}
	if query.ChangeID != nil {
		q = q.Where("change_id = ?", *query.ChangeID)
	}
	if query.From != nil {
		q = q.Where("created_at >= ?", query.From.UTC())
	}
	if query.To != nil {
		q = q.Where("created_at <= ?", query.To.UTC())
	}

	cursor, err := pagination.ParseCursor(query.Pagination.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		at := cursor.CreatedAt.UTC()
		q = q.Where("(created_at < ?) OR (created_at = ? AND id < ?)", at, at, cursor.ID)
	}

	var rows []models.IngredientHistory
	if err := q.Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(query.Pagination.Limit)).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListByChangeID(ctx context.Context, changeID uuid.UUID) ([]models.IngredientHistory, error) {
	var rows []models.IngredientHistory
	if err := r.db.WithContext(ctx).
		Where("change_id = ?", changeID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
