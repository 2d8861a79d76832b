// Package availability derives stock status and producible counts for
// products from their recipe, linked ingredient or own stock.
package availability

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/kitchenpos-backend/pkg/config"
	"github.com/angelmondragon/kitchenpos-backend/pkg/enums"
)

// Thresholds tunes the status ladder.
type Thresholds struct {
	LowStockRatio            decimal.Decimal
	CriticalStockRatio       decimal.Decimal
	CriticalProducibleBuffer int64
	ProductLowStockThreshold int64
}

// DefaultThresholds mirrors the configuration defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		LowStockRatio:            decimal.RequireFromString("0.5"),
		CriticalStockRatio:       decimal.RequireFromString("0.25"),
		CriticalProducibleBuffer: 3,
		ProductLowStockThreshold: 5,
	}
}

// ThresholdsFromConfig maps the inventory configuration section.
func ThresholdsFromConfig(cfg config.InventoryConfig) Thresholds {
	return Thresholds{
		LowStockRatio:            cfg.LowStockRatio,
		CriticalStockRatio:       cfg.CriticalStockRatio,
		CriticalProducibleBuffer: cfg.CriticalProducibleBuffer,
		ProductLowStockThreshold: int64(cfg.ProductLowStockThreshold),
	}
}

// IngredientStock is the slice of an ingredient the calculator reads.
type IngredientStock struct {
	ID             uuid.UUID
	Name           string
	Quantity       decimal.Decimal
	ParLevel       decimal.Decimal
	TotalBaseUnits decimal.Decimal
	IsActive       bool
}

// Component is one recipe line.
type Component struct {
	Ingredient   IngredientStock
	BaseQuantity decimal.Decimal
}

// Input describes one product. A linked product with a recipe draws one base
// unit of the linked ingredient per unit on top of its recipe lines. Linked
// and Recipe take precedence over TrackStock.
type Input struct {
	TrackStock bool
	Quantity   int64
	Linked     *IngredientStock
	Recipe     []Component
}

// IngredientRef names an ingredient in a result.
type IngredientRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Result is the availability of one product. MaxProducible is nil for
// untracked products.
type Result struct {
	Status             enums.AvailabilityStatus `json:"status"`
	MaxProducible      *int64                   `json:"max_producible"`
	MissingIngredients []IngredientRef          `json:"missing_ingredients"`
	LowIngredients     []IngredientRef          `json:"low_ingredients"`
}

// StockStatus classifies an ingredient by quantity against its par level.
func StockStatus(quantity, parLevel decimal.Decimal, t Thresholds) enums.AvailabilityStatus {
	if !quantity.IsPositive() {
		return enums.AvailabilityOut
	}
	if !parLevel.IsPositive() {
		return enums.AvailabilityAvailable
	}
	ratio := quantity.Div(parLevel)
	switch {
	case ratio.LessThanOrEqual(t.CriticalStockRatio):
		return enums.AvailabilityCritical
	case ratio.LessThanOrEqual(t.LowStockRatio):
		return enums.AvailabilityLow
	default:
		return enums.AvailabilityAvailable
	}
}

// Evaluate computes the availability of one product.
func Evaluate(in Input, t Thresholds) Result {
	if in.Linked != nil {
		if len(in.Recipe) == 0 {
			return evaluateLinked(*in.Linked, t)
		}
		res, _ := evaluateRecipe(withLinked(*in.Linked, in.Recipe), t)
		return res
	}
	if res, ok := evaluateRecipe(in.Recipe, t); ok {
		return res
	}
	if in.TrackStock {
		return evaluateTracked(in.Quantity, t)
	}
	return Result{
		Status:             enums.AvailabilityAvailable,
		MissingIngredients: []IngredientRef{},
		LowIngredients:     []IngredientRef{},
	}
}

func evaluateLinked(ing IngredientStock, t Thresholds) Result {
	res := Result{MissingIngredients: []IngredientRef{}, LowIngredients: []IngredientRef{}}
	maxProducible := int64(0)
	if ing.IsActive && ing.TotalBaseUnits.IsPositive() {
		maxProducible = ing.TotalBaseUnits.Floor().IntPart()
	}
	res.MaxProducible = &maxProducible
	ref := IngredientRef{ID: ing.ID, Name: ing.Name}
	if maxProducible == 0 {
		res.Status = enums.AvailabilityOut
		res.MissingIngredients = append(res.MissingIngredients, ref)
		return res
	}
	res.Status = StockStatus(ing.Quantity, ing.ParLevel, t)
	if res.Status == enums.AvailabilityLow || res.Status == enums.AvailabilityCritical {
		res.LowIngredients = append(res.LowIngredients, ref)
	}
	return res
}

// withLinked adds the linked ingredient as a one-base-unit line, merging it
// into an existing line for the same ingredient.
func withLinked(linked IngredientStock, recipe []Component) []Component {
	out := make([]Component, 0, len(recipe)+1)
	merged := false
	for _, c := range recipe {
		if c.Ingredient.ID == linked.ID {
			c.BaseQuantity = c.BaseQuantity.Add(decimal.NewFromInt(1))
			merged = true
		}
		out = append(out, c)
	}
	if !merged {
		out = append(out, Component{Ingredient: linked, BaseQuantity: decimal.NewFromInt(1)})
	}
	return out
}

func evaluateRecipe(components []Component, t Thresholds) (Result, bool) {
	res := Result{MissingIngredients: []IngredientRef{}, LowIngredients: []IngredientRef{}}
	var maxProducible *int64
	anyCritical := false

	for _, c := range components {
		if !c.BaseQuantity.IsPositive() {
			continue
		}
		ref := IngredientRef{ID: c.Ingredient.ID, Name: c.Ingredient.Name}
		total := c.Ingredient.TotalBaseUnits
		if !c.Ingredient.IsActive || total.IsNegative() {
			total = decimal.Zero
		}
		n := total.Div(c.BaseQuantity).Floor().IntPart()
		if maxProducible == nil || n < *maxProducible {
			maxProducible = &n
		}
		if total.LessThan(c.BaseQuantity) {
			res.MissingIngredients = append(res.MissingIngredients, ref)
			continue
		}
		switch StockStatus(c.Ingredient.Quantity, c.Ingredient.ParLevel, t) {
		case enums.AvailabilityCritical:
			anyCritical = true
			res.LowIngredients = append(res.LowIngredients, ref)
		case enums.AvailabilityLow:
			res.LowIngredients = append(res.LowIngredients, ref)
		}
	}
	if maxProducible == nil {
		return Result{}, false
	}

	res.MaxProducible = maxProducible
	switch {
	case *maxProducible <= 0:
		res.Status = enums.AvailabilityOut
	case *maxProducible <= t.CriticalProducibleBuffer || anyCritical:
		res.Status = enums.AvailabilityCritical
	case len(res.LowIngredients) > 0:
		res.Status = enums.AvailabilityLow
	default:
		res.Status = enums.AvailabilityAvailable
	}
	return res, true
}

func evaluateTracked(quantity int64, t Thresholds) Result {
	res := Result{MissingIngredients: []IngredientRef{}, LowIngredients: []IngredientRef{}}
	maxProducible := quantity
	if maxProducible < 0 {
		maxProducible = 0
	}
	res.MaxProducible = &maxProducible
	switch {
	case quantity <= 0:
		res.Status = enums.AvailabilityOut
	case quantity <= t.ProductLowStockThreshold:
		res.Status = enums.AvailabilityLow
	default:
		res.Status = enums.AvailabilityAvailable
	}
	return res
}
