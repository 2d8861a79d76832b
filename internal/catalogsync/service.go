// Package catalogsync keeps sellable ingredients and their catalog products
// linked one to one.
package catalogsync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/kitchenpos-backend/pkg/db"
	"github.com/angelmondragon/kitchenpos-backend/pkg/db/models"
	"github.com/angelmondragon/kitchenpos-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/kitchenpos-backend/pkg/errors"
	"github.com/angelmondragon/kitchenpos-backend/pkg/logger"
	"github.com/angelmondragon/kitchenpos-backend/pkg/metrics"
)

// Service toggles the sellable flag and mirrors it onto the catalog.
type Service interface {
	// SetSellable records the flag and links or unlinks the product. A
	// non-nil category overrides the ingredient's category on the linked
	// product. Link failures are stored on the ingredient and reported in
	// Result, not returned as errors.
	SetSellable(ctx context.Context, ingredientID uuid.UUID, sellable bool, category *string) (*Result, error)
}

// Result describes the state after a sync attempt.
type Result struct {
	IngredientID   uuid.UUID        `json:"ingredient_id"`
	Sellable       bool             `json:"sellable"`
	ProductID      *uuid.UUID       `json:"product_id"`
	ProductCreated bool             `json:"product_created"`
	SyncStatus     enums.SyncStatus `json:"sync_status"`
	SyncError      *string          `json:"sync_error,omitempty"`
}

type service struct {
	repo     Repository
	dbClient *db.Client
	logg     *logger.Logger
	metrics  *metrics.InventoryMetrics
}

// NewService wires the sync service.
func NewService(repo Repository, dbClient *db.Client, logg *logger.Logger, m *metrics.InventoryMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog sync repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, dbClient: dbClient, logg: logg, metrics: m}, nil
}

func (s *service) SetSellable(ctx context.Context, ingredientID uuid.UUID, sellable bool, category *string) (*Result, error) {
	ingredient, err := s.repo.GetIngredient(ctx, ingredientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "ingredient not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load ingredient")
	}

	if err := s.repo.UpdateIngredient(ctx, ingredient.ID, map[string]any{"sellable": sellable}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update sellable flag")
	}
	ingredient.Sellable = sellable

	result := &Result{IngredientID: ingredient.ID, Sellable: sellable}
	linkErr := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if sellable {
			return s.link(ctx, txRepo, ingredient, category, result)
		}
		return s.unlink(ctx, txRepo, ingredient, result)
	})
	if linkErr == nil {
		result.SyncStatus = enums.SyncStatusSynced
		return result, nil
	}

	return s.recordFailure(ctx, ingredient, result, linkErr), nil
}

func (s *service) link(ctx context.Context, repo Repository, ingredient *models.Ingredient, category *string, result *Result) error {
	product, err := repo.FindLinkedProduct(ctx, ingredient)
	if err != nil {
		return fmt.Errorf("find linked product: %w", err)
	}

	if product != nil {
		updates := map[string]any{
			"name":                 ingredient.Name,
			"needs_pricing":        product.Price.IsZero(),
			"linked_ingredient_id": ingredient.ID,
			"is_active":            true,
		}
		if category != nil {
			updates["category"] = *category
		}
		if err := repo.UpdateProduct(ctx, product.ID, updates); err != nil {
			return fmt.Errorf("update linked product: %w", err)
		}
	} else {
		productCategory := ingredient.Category
		if category != nil {
			productCategory = *category
		}
		product = &models.Product{
			Name:               ingredient.Name,
			Category:           productCategory,
			Price:              decimal.Zero,
			NeedsPricing:       true,
			TrackStock:         false,
			LinkedIngredientID: &ingredient.ID,
			IsActive:           true,
		}
		if err := repo.CreateProduct(ctx, product); err != nil {
			return fmt.Errorf("create linked product: %w", err)
		}
		result.ProductCreated = true
	}

	if err := repo.UpdateIngredient(ctx, ingredient.ID, map[string]any{
		"linked_product_id": product.ID,
		"sync_status":       enums.SyncStatusSynced,
		"sync_error":        nil,
	}); err != nil {
		return fmt.Errorf("write back product link: %w", err)
	}
	result.ProductID = &product.ID
	return nil
}

func (s *service) unlink(ctx context.Context, repo Repository, ingredient *models.Ingredient, result *Result) error {
	if err := repo.ClearProductLinks(ctx, ingredient.ID); err != nil {
		return fmt.Errorf("clear product link: %w", err)
	}
	if err := repo.UpdateIngredient(ctx, ingredient.ID, map[string]any{
		"linked_product_id": nil,
		"sync_status":       enums.SyncStatusSynced,
		"sync_error":        nil,
	}); err != nil {
		return fmt.Errorf("clear ingredient link: %w", err)
	}
	result.ProductID = nil
	return nil
}

func (s *service) recordFailure(ctx context.Context, ingredient *models.Ingredient, result *Result, linkErr error) *Result {
	s.metrics.IncSyncFailure()
	logCtx := s.logg.WithIngredientID(ctx, ingredient.ID.String())
	logCtx = s.logg.WithField(logCtx, "error", linkErr.Error())
	s.logg.Warn(logCtx, "catalog sync failed")

	msg := linkErr.Error()
	if err := s.repo.UpdateIngredient(ctx, ingredient.ID, map[string]any{
		"sync_status": enums.SyncStatusError,
		"sync_error":  msg,
		"updated_at":  time.Now().UTC(),
	}); err != nil {
		s.logg.Error(logCtx, "failed to record catalog sync error", err)
	}

	result.SyncStatus = enums.SyncStatusError
	result.SyncError = &msg
	result.ProductID = ingredient.LinkedProductID
	result.ProductCreated = false
	return result
}
