// Package units converts ingredient quantities between package units, base
// units and per-ingredient aliases.
package units

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/kitchenpos-backend/pkg/db/models"
)

const (
	// QuantityPlaces is the precision stored for stock in package units. It
	// must hold a single base unit of a large package without loss.
	QuantityPlaces = 12
	// BaseUnitPlaces is the precision of stock expressed in base units.
	BaseUnitPlaces = 4
	// CostPlaces is the precision of the cached cost per base unit.
	CostPlaces = 6
)

// Model is the unit model of one ingredient. Legacy and Packaged are the
// only implementations.
type Model interface {
	BaseUnit() string
	PackageUnit() string
	PackageSize() decimal.Decimal
	CostPerBaseUnit() decimal.Decimal
	// TotalBaseUnits converts a stock quantity in package units to base units.
	TotalBaseUnits(quantity decimal.Decimal) decimal.Decimal
	// Packages converts base units back to package units.
	Packages(baseUnits decimal.Decimal) decimal.Decimal
}

// Legacy is a single-unit ingredient priced per unit. Its package size is 1.
type Legacy struct {
	Unit        string
	CostPerUnit decimal.Decimal
}

func (l Legacy) BaseUnit() string                 { return l.Unit }
func (l Legacy) PackageUnit() string              { return l.Unit }
func (l Legacy) PackageSize() decimal.Decimal     { return decimal.NewFromInt(1) }
func (l Legacy) CostPerBaseUnit() decimal.Decimal { return l.CostPerUnit }

func (l Legacy) TotalBaseUnits(quantity decimal.Decimal) decimal.Decimal {
	return quantity
}

func (l Legacy) Packages(baseUnits decimal.Decimal) decimal.Decimal {
	return baseUnits
}

// Packaged is an ingredient bought in packages of Size base units.
type Packaged struct {
	Base           string
	Package        string
	Size           decimal.Decimal
	CostPerPackage decimal.Decimal
}

func (p Packaged) BaseUnit() string             { return p.Base }
func (p Packaged) PackageUnit() string          { return p.Package }
func (p Packaged) PackageSize() decimal.Decimal { return p.Size }

func (p Packaged) CostPerBaseUnit() decimal.Decimal {
	if !p.Size.IsPositive() {
		return decimal.Zero
	}
	return p.CostPerPackage.Div(p.Size)
}

func (p Packaged) TotalBaseUnits(quantity decimal.Decimal) decimal.Decimal {
	return quantity.Mul(p.Size)
}

func (p Packaged) Packages(baseUnits decimal.Decimal) decimal.Decimal {
	if !p.Size.IsPositive() {
		return decimal.Zero
	}
	return baseUnits.Div(p.Size)
}

// IsLegacy reports whether the stored row predates package pricing: no
// package cost but a positive per-unit cost.
func IsLegacy(ing *models.Ingredient) bool {
	return ing.CostPerPackage.IsZero() && ing.CostPerUnit.IsPositive()
}

// FromIngredient builds the unit model for a stored ingredient. The legacy
// check runs first so old rows keep their per-unit cost.
func FromIngredient(ing *models.Ingredient) Model {
	if IsLegacy(ing) {
		return Legacy{Unit: ing.Unit, CostPerUnit: ing.CostPerUnit}
	}
	base := ing.BaseUnit
	if base == "" {
		base = ing.Unit
	}
	pkg := ing.PackageUnit
	if pkg == "" {
		pkg = base
	}
	size := ing.PackageSize
	if !size.IsPositive() {
		size = decimal.NewFromInt(1)
	}
	return Packaged{Base: base, Package: pkg, Size: size, CostPerPackage: ing.CostPerPackage}
}

// TotalBaseUnits is the ingredient's current stock in base units, rounded to
// BaseUnitPlaces so repeated package conversions do not drift.
func TotalBaseUnits(ing *models.Ingredient) decimal.Decimal {
	return RoundBaseUnits(FromIngredient(ing).TotalBaseUnits(ing.Quantity))
}

// DrawBaseUnits returns the package quantity left after removing baseUnits
// from ing, computed in base units. A negative result means the stock did
// not cover the draw.
func DrawBaseUnits(ing *models.Ingredient, baseUnits decimal.Decimal) decimal.Decimal {
	remaining := TotalBaseUnits(ing).Sub(baseUnits)
	return RoundQuantity(FromIngredient(ing).Packages(remaining))
}

// RefreshCache recomputes the cached cost per base unit on ing.
func RefreshCache(ing *models.Ingredient) {
	ing.CostPerBaseUnit = FromIngredient(ing).CostPerBaseUnit().Round(CostPlaces)
}

// RoundQuantity rounds to the stored quantity precision.
func RoundQuantity(d decimal.Decimal) decimal.Decimal {
	return d.Round(QuantityPlaces)
}

// RoundBaseUnits rounds a base-unit amount.
func RoundBaseUnits(d decimal.Decimal) decimal.Decimal {
	return d.Round(BaseUnitPlaces)
}
