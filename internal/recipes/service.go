// Package recipes reads and replaces the ingredient list of a product.
package recipes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/kitchenpos-backend/internal/costing"
	"github.com/angelmondragon/kitchenpos-backend/internal/units"
	"github.com/angelmondragon/kitchenpos-backend/pkg/db"
	"github.com/angelmondragon/kitchenpos-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/kitchenpos-backend/pkg/errors"
	"github.com/angelmondragon/kitchenpos-backend/pkg/logger"
)

// Service exposes recipe operations.
type Service interface {
	Get(ctx context.Context, productID uuid.UUID) (*RecipeDTO, error)
	Replace(ctx context.Context, productID uuid.UUID, items []ItemInput) (*RecipeDTO, error)
}

// ItemInput is one recipe line as entered. An empty Unit means the
// ingredient's base unit.
type ItemInput struct {
	IngredientID uuid.UUID
	Quantity     decimal.Decimal
	Unit         string
}

type service struct {
	repo     Repository
	dbClient *db.Client
	costing  costing.Service
	logg     *logger.Logger
}

// NewService wires the recipe service.
func NewService(repo Repository, dbClient *db.Client, costingSvc costing.Service, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("recipe repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if costingSvc == nil {
		return nil, fmt.Errorf("costing service required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, dbClient: dbClient, costing: costingSvc, logg: logg}, nil
}

func (s *service) Get(ctx context.Context, productID uuid.UUID) (*RecipeDTO, error) {
	product, err := s.repo.FindProduct(ctx, productID)
	if err != nil {
		return nil, notFoundOr(err, "product not found", "db: load product")
	}
	items, err := s.repo.ListItems(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list recipe items")
	}
	breakdown, err := s.costing.Cost(ctx, productID)
	if err != nil {
		return nil, err
	}
	dto := NewRecipeDTO(product, items, breakdown)
	return &dto, nil
}

// Replace swaps the whole recipe and refreshes the product's cached cost in
// the same transaction.
func (s *service) Replace(ctx context.Context, productID uuid.UUID, inputs []ItemInput) (*RecipeDTO, error) {
	ids, err := validateItems(inputs)
	if err != nil {
		return nil, err
	}

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if _, err := txRepo.FindProduct(ctx, productID); err != nil {
			return notFoundOr(err, "product not found", "db: load product")
		}
		ingredients, err := txRepo.LoadIngredients(ctx, ids)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load ingredients")
		}

		items := make([]models.RecipeItem, 0, len(inputs))
		for i, input := range inputs {
			ing, ok := ingredients[input.IngredientID]
			if !ok {
				return pkgerrors.New(pkgerrors.CodeNotFound, "ingredient not found").
					WithDetails(map[string]any{"index": i, "ingredient_id": input.IngredientID.String()})
			}
			if !ing.IsActive {
				return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("ingredient %q is inactive", ing.Name)).
					WithDetails(map[string]any{"index": i, "ingredient_id": ing.ID.String()})
			}
			baseQty, err := units.ResolveBaseQuantity(units.FromIngredient(ing), ing.Aliases, input.Quantity, input.Unit)
			if err != nil {
				if typed := pkgerrors.As(err); typed != nil {
					return typed.WithDetails(map[string]any{"index": i, "ingredient_id": ing.ID.String(), "unit": input.Unit})
				}
				return err
			}
			items = append(items, models.RecipeItem{
				ProductID:    productID,
				IngredientID: ing.ID,
				Quantity:     input.Quantity,
				Unit:         strings.TrimSpace(input.Unit),
				BaseQuantity: units.RoundQuantity(baseQty),
			})
		}

		if err := txRepo.ReplaceItems(ctx, productID, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: replace recipe items")
		}
		_, err = s.costing.Recost(ctx, tx, productID)
		return err
	}); err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace recipe")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{"product_id": productID.String(), "items": len(inputs)})
	s.logg.Info(logCtx, "recipe replaced")
	return s.Get(ctx, productID)
}

func validateItems(inputs []ItemInput) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(inputs))
	seen := make(map[uuid.UUID]struct{}, len(inputs))
	for i, input := range inputs {
		if input.IngredientID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "ingredient_id is required").
				WithDetails(map[string]any{"index": i})
		}
		if _, dup := seen[input.IngredientID]; dup {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "ingredient appears more than once").
				WithDetails(map[string]any{"index": i, "ingredient_id": input.IngredientID.String()})
		}
		seen[input.IngredientID] = struct{}{}
		if !input.Quantity.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be greater than zero").
				WithDetails(map[string]any{"index": i})
		}
		ids = append(ids, input.IngredientID)
	}
	return ids, nil
}

func notFoundOr(err error, notFoundMsg, dependencyMsg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFoundMsg)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, dependencyMsg)
}
