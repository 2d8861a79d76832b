package costing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/kitchenpos-backend/pkg/db"
	"github.com/angelmondragon/kitchenpos-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/kitchenpos-backend/pkg/errors"
	"github.com/angelmondragon/kitchenpos-backend/pkg/logger"
)

// Service keeps the cached cost snapshot on products in line with their recipes.
type Service interface {
	// Cost computes the breakdown without writing.
	Cost(ctx context.Context, productID uuid.UUID) (*Breakdown, error)
	// Recost computes the breakdown and caches it on the product row, on the caller's transaction.
	Recost(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (*Breakdown, error)
	// RecomputeAll rebuilds the cache of every active product.
	RecomputeAll(ctx context.Context) (*RecomputeSummary, error)
	// TransactionOverhead sums the per-sale overhead of active overhead ingredients.
	TransactionOverhead(ctx context.Context, tx *gorm.DB) (decimal.Decimal, error)
}

// RecomputeSummary reports a RecomputeAll run.
type RecomputeSummary struct {
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
}

type service struct {
	dbClient  *db.Client
	laborCost decimal.Decimal
	logg      *logger.Logger
}

// NewService builds the costing service. avgHourlyLaborCost feeds the labor component.
func NewService(dbClient *db.Client, avgHourlyLaborCost decimal.Decimal, logg *logger.Logger) (Service, error) {
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if avgHourlyLaborCost.IsNegative() {
		return nil, fmt.Errorf("average hourly labor cost must not be negative")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{dbClient: dbClient, laborCost: avgHourlyLaborCost, logg: logg}, nil
}

func (s *service) conn(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.dbClient.DB().WithContext(ctx)
}

func (s *service) loadProduct(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := s.conn(ctx, tx).
		Preload("RecipeItems.Ingredient").
		Where("id = ?", productID).
		First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
	}
	return &product, nil
}

func (s *service) Cost(ctx context.Context, productID uuid.UUID) (*Breakdown, error) {
	product, err := s.loadProduct(ctx, nil, productID)
	if err != nil {
		return nil, err
	}
	breakdown := Calculate(InputFromProduct(product, s.laborCost))
	return &breakdown, nil
}

func (s *service) Recost(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (*Breakdown, error) {
	product, err := s.loadProduct(ctx, tx, productID)
	if err != nil {
		return nil, err
	}
	breakdown := Calculate(InputFromProduct(product, s.laborCost))
	now := time.Now().UTC()
	if err := s.conn(ctx, tx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Updates(map[string]any{
			"true_cost":           breakdown.TrueCost,
			"true_margin":         breakdown.TrueMargin,
			"true_margin_percent": breakdown.TrueMarginPercent,
			"costed_at":           now,
		}).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: cache product cost")
	}
	return &breakdown, nil
}

func (s *service) RecomputeAll(ctx context.Context) (*RecomputeSummary, error) {
	var ids []uuid.UUID
	if err := s.dbClient.DB().WithContext(ctx).
		Model(&models.Product{}).
		Where("is_active = ?", true).
		Order("id ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list products")
	}

	summary := &RecomputeSummary{}
	var errs error
	for _, id := range ids {
		err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
			_, err := s.Recost(ctx, tx, id)
			return err
		})
		if err != nil {
			summary.Failed++
			errs = multierr.Append(errs, fmt.Errorf("product %s: %w", id, err))
			continue
		}
		summary.Processed++
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{"processed": summary.Processed, "failed": summary.Failed})
	if errs != nil {
		s.logg.Error(logCtx, "recompute product costs finished with failures", errs)
		return summary, pkgerrors.Wrap(pkgerrors.CodeInternal, errs, "recompute product costs")
	}
	s.logg.Info(logCtx, "recomputed product costs")
	return summary, nil
}

func (s *service) TransactionOverhead(ctx context.Context, tx *gorm.DB) (decimal.Decimal, error) {
	var rows []models.Ingredient
	if err := s.conn(ctx, tx).
		Select("id", "overhead_per_transaction").
		Where("is_overhead = ? AND is_active = ?", true, true).
		Find(&rows).Error; err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load overhead ingredients")
	}
	total := decimal.Zero
	for _, row := range rows {
		total = total.Add(row.OverheadPerTransaction)
	}
	return total.Round(moneyPlaces), nil
}
