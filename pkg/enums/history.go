package enums

import "fmt"

// HistorySource records what caused an ingredient stock or cost change.
type HistorySource string

const (
	HistorySourceManualEdit     HistorySource = "manual_edit"
	HistorySourceSale           HistorySource = "sale"
	HistorySourceRestock        HistorySource = "restock"
	HistorySourceInventoryCount HistorySource = "inventory_count"
	HistorySourceImport         HistorySource = "import"
)

var validHistorySources = []HistorySource{
	HistorySourceManualEdit,
	HistorySourceSale,
	HistorySourceRestock,
	HistorySourceInventoryCount,
	HistorySourceImport,
}

// String implements fmt.Stringer.
func (s HistorySource) String() string {
	return string(s)
}

// IsValid reports whether the value is a known HistorySource.
func (s HistorySource) IsValid() bool {
	for _, candidate := range validHistorySources {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseHistorySource converts raw input into a HistorySource.
func ParseHistorySource(value string) (HistorySource, error) {
	for _, candidate := range validHistorySources {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid history source %q", value)
}

// HistoryField names an audited ingredient column.
type HistoryField string

const (
	HistoryFieldQuantity       HistoryField = "quantity"
	HistoryFieldCostPerPackage HistoryField = "cost_per_package"
	HistoryFieldPackageSize    HistoryField = "package_size"
	HistoryFieldCostPerUnit    HistoryField = "cost_per_unit"
)

// AuditedFields lists the ingredient columns that produce history rows, in write order.
var AuditedFields = []HistoryField{
	HistoryFieldQuantity,
	HistoryFieldCostPerPackage,
	HistoryFieldPackageSize,
	HistoryFieldCostPerUnit,
}

// String implements fmt.Stringer.
func (f HistoryField) String() string {
	return string(f)
}

// IsValid reports whether the value is an audited field.
func (f HistoryField) IsValid() bool {
	for _, candidate := range AuditedFields {
		if candidate == f {
			return true
		}
	}
	return false
}
