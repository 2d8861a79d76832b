package units

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/kitchenpos-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/kitchenpos-backend/pkg/errors"
)

// ValidatePackaging checks package fields before they are written.
func ValidatePackaging(packageSize, costPerPackage decimal.Decimal) error {
	if !packageSize.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "package size must be greater than zero")
	}
	if costPerPackage.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "cost per package must not be negative")
	}
	return nil
}

// ResolveBaseQuantity converts quantity expressed in unit to base units. An
// empty unit means the base unit.
func ResolveBaseQuantity(model Model, aliases []models.UnitAlias, quantity decimal.Decimal, unit string) (decimal.Decimal, error) {
	if !quantity.IsPositive() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be greater than zero")
	}
	unit = strings.TrimSpace(unit)
	if unit == "" || strings.EqualFold(unit, model.BaseUnit()) {
		return quantity, nil
	}
	if _, ok := model.(Packaged); ok && strings.EqualFold(unit, model.PackageUnit()) {
		return quantity.Mul(model.PackageSize()), nil
	}
	for _, alias := range aliases {
		if strings.EqualFold(alias.Name, unit) {
			return quantity.Mul(alias.BaseUnitMultiplier), nil
		}
	}
	return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "unknown unit").
		WithDetails(map[string]any{"unit": unit, "base_unit": model.BaseUnit()})
}

// DefaultAlias returns the alias flagged as default, if any.
func DefaultAlias(aliases []models.UnitAlias) *models.UnitAlias {
	for i := range aliases {
		if aliases[i].IsDefault {
			return &aliases[i]
		}
	}
	return nil
}
