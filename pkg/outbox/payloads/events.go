package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/kitchenpos-backend/pkg/enums"
)

// SoldItem is one line of a settled sale.
type SoldItem struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// IngredientConsumption is the stock drawn from one ingredient by a sale.
type IngredientConsumption struct {
	IngredientID uuid.UUID       `json:"ingredient_id"`
	BaseUnits    decimal.Decimal `json:"base_units"`
	Packages     decimal.Decimal `json:"packages"`
	Clamped      bool            `json:"clamped"`
}

// TransactionSettledEvent is emitted once a sale has drawn down stock.
type TransactionSettledEvent struct {
	TransactionID uuid.UUID               `json:"transaction_id"`
	OrderNumber   int64                   `json:"order_number"`
	PaymentMethod enums.PaymentMethod     `json:"payment_method"`
	PaymentStatus enums.PaymentStatus     `json:"payment_status"`
	CustomerID    *uuid.UUID              `json:"customer_id,omitempty"`
	Total         decimal.Decimal         `json:"total"`
	OverheadCost  decimal.Decimal         `json:"overhead_cost"`
	ChangeID      *uuid.UUID              `json:"change_id,omitempty"`
	Items         []SoldItem              `json:"items"`
	Consumption   []IngredientConsumption `json:"consumption"`
	SettledAt     time.Time               `json:"settled_at"`
}

// TransactionCancelledEvent is emitted when a sale is cancelled or reversed.
type TransactionCancelledEvent struct {
	TransactionID    uuid.UUID               `json:"transaction_id"`
	OrderNumber      int64                   `json:"order_number"`
	FromStatus       enums.TransactionStatus `json:"from_status"`
	ReversalChangeID *uuid.UUID              `json:"reversal_change_id,omitempty"`
	CancelledAt      time.Time               `json:"cancelled_at"`
}

// IngredientRestockedEvent is emitted after a delivery is booked.
type IngredientRestockedEvent struct {
	IngredientID    uuid.UUID       `json:"ingredient_id"`
	Name            string          `json:"name"`
	ChangeID        uuid.UUID       `json:"change_id"`
	AddedPackages   decimal.Decimal `json:"added_packages"`
	Quantity        decimal.Decimal `json:"quantity"`
	CostPerBaseUnit decimal.Decimal `json:"cost_per_base_unit"`
}

// IngredientStockLowEvent is emitted when a sale moves an ingredient to a
// worse stock status.
type IngredientStockLowEvent struct {
	IngredientID uuid.UUID                `json:"ingredient_id"`
	Name         string                   `json:"name"`
	Status       enums.AvailabilityStatus `json:"status"`
	Quantity     decimal.Decimal          `json:"quantity"`
	ParLevel     decimal.Decimal          `json:"par_level"`
}
