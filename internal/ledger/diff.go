package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/kitchenpos-backend/pkg/db/models"
	"github.com/angelmondragon/kitchenpos-backend/pkg/enums"
)

// Change is one audited field transition. A nil OldValue marks a field set
// for the first time.
type Change struct {
	Field    enums.HistoryField
	OldValue *string
	NewValue *string
}

func fieldValue(ing *models.Ingredient, field enums.HistoryField) decimal.Decimal {
	switch field {
	case enums.HistoryFieldQuantity:
		return ing.Quantity
	case enums.HistoryFieldCostPerPackage:
		return ing.CostPerPackage
	case enums.HistoryFieldPackageSize:
		return ing.PackageSize
	case enums.HistoryFieldCostPerUnit:
		return ing.CostPerUnit
	}
	return decimal.Zero
}

// Diff lists the audited fields that differ between before and after. With a
// nil before every non-zero field of after is reported.
func Diff(before, after *models.Ingredient) []Change {
	var changes []Change
	for _, field := range enums.AuditedFields {
		next := fieldValue(after, field)
		if before == nil {
			if next.IsZero() {
				continue
			}
			changes = append(changes, Change{Field: field, NewValue: formatValue(next)})
			continue
		}
		prev := fieldValue(before, field)
		if prev.Equal(next) {
			continue
		}
		changes = append(changes, Change{Field: field, OldValue: formatValue(prev), NewValue: formatValue(next)})
	}
	return changes
}

func formatValue(d decimal.Decimal) *string {
	s := d.String()
	return &s
}
