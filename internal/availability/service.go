package availability

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/kitchenpos-backend/internal/units"
	"github.com/angelmondragon/kitchenpos-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/kitchenpos-backend/pkg/errors"
)

// Service reads products and ingredients and evaluates availability. It never writes.
type Service interface {
	Thresholds() Thresholds
	ForProduct(ctx context.Context, productID uuid.UUID) (*Result, error)
	ForProducts(ctx context.Context, products []models.Product) (map[uuid.UUID]Result, error)
	ForAll(ctx context.Context) ([]ProductAvailability, error)
}

// ProductAvailability pairs a product with its availability.
type ProductAvailability struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Result
}

type service struct {
	db         *gorm.DB
	thresholds Thresholds
}

// NewService builds an availability service over db.
func NewService(db *gorm.DB, thresholds Thresholds) (Service, error) {
	if db == nil {
		return nil, fmt.Errorf("db required")
	}
	if thresholds.CriticalStockRatio.GreaterThan(thresholds.LowStockRatio) {
		return nil, fmt.Errorf("critical stock ratio must not exceed low stock ratio")
	}
	return &service{db: db, thresholds: thresholds}, nil
}

func (s *service) Thresholds() Thresholds {
	return s.thresholds
}

func (s *service) ForProduct(ctx context.Context, productID uuid.UUID) (*Result, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).
		Preload("RecipeItems.Ingredient").
		Where("id = ?", productID).
		First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
	}
	results, err := s.evaluate(ctx, []models.Product{product})
	if err != nil {
		return nil, err
	}
	res := results[product.ID]
	return &res, nil
}

func (s *service) ForProducts(ctx context.Context, products []models.Product) (map[uuid.UUID]Result, error) {
	if len(products) == 0 {
		return map[uuid.UUID]Result{}, nil
	}
	ids := make([]uuid.UUID, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	var loaded []models.Product
	if err := s.db.WithContext(ctx).
		Preload("RecipeItems.Ingredient").
		Where("id IN ?", ids).
		Find(&loaded).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load products")
	}
	return s.evaluate(ctx, loaded)
}

func (s *service) ForAll(ctx context.Context) ([]ProductAvailability, error) {
	var products []models.Product
	if err := s.db.WithContext(ctx).
		Preload("RecipeItems.Ingredient").
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&products).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list products")
	}
	results, err := s.evaluate(ctx, products)
	if err != nil {
		return nil, err
	}
	out := make([]ProductAvailability, 0, len(products))
	for _, p := range products {
		out = append(out, ProductAvailability{ProductID: p.ID, ProductName: p.Name, Result: results[p.ID]})
	}
	return out, nil
}

func (s *service) evaluate(ctx context.Context, products []models.Product) (map[uuid.UUID]Result, error) {
	linkedIDs := make([]uuid.UUID, 0)
	for _, p := range products {
		if p.LinkedIngredientID != nil {
			linkedIDs = append(linkedIDs, *p.LinkedIngredientID)
		}
	}
	linked := map[uuid.UUID]*models.Ingredient{}
	if len(linkedIDs) > 0 {
		var ingredients []models.Ingredient
		if err := s.db.WithContext(ctx).Where("id IN ?", linkedIDs).Find(&ingredients).Error; err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load linked ingredients")
		}
		for i := range ingredients {
			linked[ingredients[i].ID] = &ingredients[i]
		}
	}

	results := make(map[uuid.UUID]Result, len(products))
	for i := range products {
		var ing *models.Ingredient
		if id := products[i].LinkedIngredientID; id != nil {
			ing = linked[*id]
		}
		results[products[i].ID] = Evaluate(InputFromProduct(&products[i], ing), s.thresholds)
	}
	return results, nil
}

// StockOf adapts a stored ingredient.
func StockOf(ing *models.Ingredient) IngredientStock {
	return IngredientStock{
		ID:             ing.ID,
		Name:           ing.Name,
		Quantity:       ing.Quantity,
		ParLevel:       ing.ParLevel,
		TotalBaseUnits: units.TotalBaseUnits(ing),
		IsActive:       ing.IsActive,
	}
}

// InputFromProduct builds calculator input from a product whose recipe items
// have their ingredients preloaded. linked is the product's linked
// ingredient, if any.
func InputFromProduct(product *models.Product, linked *models.Ingredient) Input {
	in := Input{TrackStock: product.TrackStock, Quantity: product.Quantity}
	if linked != nil {
		stock := StockOf(linked)
		in.Linked = &stock
	}
	for _, item := range product.RecipeItems {
		if item.Ingredient == nil {
			continue
		}
		in.Recipe = append(in.Recipe, Component{Ingredient: StockOf(item.Ingredient), BaseQuantity: item.BaseQuantity})
	}
	return in
}
