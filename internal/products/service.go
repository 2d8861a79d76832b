// Package products manages the sellable catalog rows that recipes, linked
// ingredients and sales refer to.
package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/kitchenpos-backend/internal/availability"
	"github.com/angelmondragon/kitchenpos-backend/internal/costing"
	"github.com/angelmondragon/kitchenpos-backend/pkg/db"
	"github.com/angelmondragon/kitchenpos-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/kitchenpos-backend/pkg/errors"
	"github.com/angelmondragon/kitchenpos-backend/pkg/logger"
)

// Service exposes catalog management operations.
type Service interface {
	CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	GetProduct(ctx context.Context, productID uuid.UUID) (*ProductDTO, error)
	ListProducts(ctx context.Context, filters ListFilters) ([]ProductDTO, error)
	Availability(ctx context.Context, productID uuid.UUID) (*availability.Result, error)
	ListAvailability(ctx context.Context) ([]availability.ProductAvailability, error)
	Cost(ctx context.Context, productID uuid.UUID) (*costing.Breakdown, error)
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Name               string
	Category           string
	Price              decimal.Decimal
	PrepTimeMinutes    *int
	OverheadAllocation *decimal.Decimal
	TrackStock         bool
	Quantity           int64
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	Name               *string
	Category           *string
	Price              *decimal.Decimal
	PrepTimeMinutes    *int
	ClearPrepTime      bool
	OverheadAllocation *decimal.Decimal
	ClearOverhead      bool
	TrackStock         *bool
	Quantity           *int64
	IsActive           *bool
}

// service implements the product service.
type service struct {
	repo         *Repository
	dbClient     *db.Client
	costing      costing.Service
	availability availability.Service
	logg         *logger.Logger
}

// NewService constructs a product service instance.
func NewService(repo *Repository, dbClient *db.Client, costingSvc costing.Service, availabilitySvc availability.Service, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if costingSvc == nil {
		return nil, fmt.Errorf("costing service required")
	}
	if availabilitySvc == nil {
		return nil, fmt.Errorf("availability service required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:         repo,
		dbClient:     dbClient,
		costing:      costingSvc,
		availability: availabilitySvc,
		logg:         logg,
	}, nil
}

// CreateProduct inserts the product and caches its first cost snapshot.
func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if err := validatePricing(&input.Price, input.PrepTimeMinutes, input.OverheadAllocation); err != nil {
		return nil, err
	}
	if input.Quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}

	product := &models.Product{
		Name:            name,
		Category:        strings.TrimSpace(input.Category),
		Price:           input.Price,
		PrepTimeMinutes: input.PrepTimeMinutes,
		TrackStock:      input.TrackStock,
		Quantity:        input.Quantity,
		NeedsPricing:    !input.Price.IsPositive(),
		IsActive:        true,
	}
	if input.OverheadAllocation != nil {
		product.OverheadAllocation = decimal.NewNullDecimal(*input.OverheadAllocation)
	}

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.WithTx(tx).CreateProduct(ctx, product); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert product")
		}
		_, err := s.costing.Recost(ctx, tx, product.ID)
		return err
	}); err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}

	s.logg.Info(s.logg.WithField(ctx, "product_id", product.ID.String()), "product created")
	return s.GetProduct(ctx, product.ID)
}

// UpdateProduct applies the changes and recosts when a cost input moved.
func (s *service) UpdateProduct(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
	}
	if err := validatePricing(input.Price, input.PrepTimeMinutes, input.OverheadAllocation); err != nil {
		return nil, err
	}
	if input.Quantity != nil && *input.Quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		product, err := txRepo.FindForUpdate(ctx, productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
		}

		updates, recost := applyUpdateToProduct(product, input)
		if err := txRepo.UpdateProduct(ctx, productID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update product")
		}
		if !recost {
			return nil
		}
		_, err = s.costing.Recost(ctx, tx, productID)
		return err
	}); err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}

	return s.GetProduct(ctx, productID)
}

// applyUpdateToProduct copies the requested changes onto product and returns
// the column updates plus whether a cost input changed.
func applyUpdateToProduct(product *models.Product, input UpdateProductInput) (map[string]any, bool) {
	updates := map[string]any{}
	recost := false
	if input.Name != nil {
		product.Name = strings.TrimSpace(*input.Name)
		updates["name"] = product.Name
	}
	if input.Category != nil {
		product.Category = strings.TrimSpace(*input.Category)
		updates["category"] = product.Category
	}
	if input.Price != nil && !input.Price.Equal(product.Price) {
		product.Price = *input.Price
		updates["price"] = product.Price
		recost = true
	}
	if product.Price.IsPositive() && product.NeedsPricing {
		product.NeedsPricing = false
		updates["needs_pricing"] = false
	}
	switch {
	case input.ClearPrepTime:
		if product.PrepTimeMinutes != nil {
			product.PrepTimeMinutes = nil
			updates["prep_time_minutes"] = nil
			recost = true
		}
	case input.PrepTimeMinutes != nil:
		if product.PrepTimeMinutes == nil || *product.PrepTimeMinutes != *input.PrepTimeMinutes {
			product.PrepTimeMinutes = input.PrepTimeMinutes
			updates["prep_time_minutes"] = *input.PrepTimeMinutes
			recost = true
		}
	}
	switch {
	case input.ClearOverhead:
		if product.OverheadAllocation.Valid {
			product.OverheadAllocation = decimal.NullDecimal{}
			updates["overhead_allocation"] = nil
			recost = true
		}
	case input.OverheadAllocation != nil:
		if !product.OverheadAllocation.Valid || !product.OverheadAllocation.Decimal.Equal(*input.OverheadAllocation) {
			product.OverheadAllocation = decimal.NewNullDecimal(*input.OverheadAllocation)
			updates["overhead_allocation"] = *input.OverheadAllocation
			recost = true
		}
	}
	if input.TrackStock != nil {
		product.TrackStock = *input.TrackStock
		updates["track_stock"] = product.TrackStock
	}
	if input.Quantity != nil {
		product.Quantity = *input.Quantity
		updates["quantity"] = product.Quantity
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
		updates["is_active"] = product.IsActive
	}
	return updates, recost
}

func validatePricing(price *decimal.Decimal, prepTime *int, overhead *decimal.Decimal) error {
	if price != nil && price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	if prepTime != nil && *prepTime < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "prep time cannot be negative")
	}
	if overhead != nil && overhead.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "overhead allocation cannot be negative")
	}
	return nil
}

func (s *service) GetProduct(ctx context.Context, productID uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
	}
	avail, err := s.availability.ForProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	dto := NewProductDTO(product, avail)
	return &dto, nil
}

func (s *service) ListProducts(ctx context.Context, filters ListFilters) ([]ProductDTO, error) {
	rows, err := s.repo.ListProducts(ctx, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list products")
	}
	results, err := s.availability.ForProducts(ctx, rows)
	if err != nil {
		return nil, err
	}
	out := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		avail, ok := results[rows[i].ID]
		var ref *availability.Result
		if ok {
			ref = &avail
		}
		out = append(out, NewProductDTO(&rows[i], ref))
	}
	return out, nil
}

func (s *service) Availability(ctx context.Context, productID uuid.UUID) (*availability.Result, error) {
	return s.availability.ForProduct(ctx, productID)
}

func (s *service) ListAvailability(ctx context.Context) ([]availability.ProductAvailability, error) {
	return s.availability.ForAll(ctx)
}

func (s *service) Cost(ctx context.Context, productID uuid.UUID) (*costing.Breakdown, error) {
	return s.costing.Cost(ctx, productID)
}
