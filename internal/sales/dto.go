package sales

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/kitchenpos-backend/pkg/db/models"
	"github.com/angelmondragon/kitchenpos-backend/pkg/enums"
)

// TransactionDTO is the sale payload returned to clients.
type TransactionDTO struct {
	ID                 uuid.UUID               `json:"id"`
	OrderNumber        int64                   `json:"order_number"`
	Status             enums.TransactionStatus `json:"status"`
	PaymentMethod      enums.PaymentMethod     `json:"payment_method"`
	PaymentStatus      enums.PaymentStatus     `json:"payment_status"`
	CustomerID         *uuid.UUID              `json:"customer_id,omitempty"`
	Total              decimal.Decimal         `json:"total"`
	OverheadCost       decimal.Decimal         `json:"overhead_cost"`
	SettlementChangeID *uuid.UUID              `json:"settlement_change_id,omitempty"`
	ReversalChangeID   *uuid.UUID              `json:"reversal_change_id,omitempty"`
	SettledAt          *time.Time              `json:"settled_at,omitempty"`
	PaymentConfirmedAt *time.Time              `json:"payment_confirmed_at,omitempty"`
	CancelledAt        *time.Time              `json:"cancelled_at,omitempty"`
	Items              []TransactionItemDTO    `json:"items"`
	// Clamped lists ingredients whose stock hit zero before the sale was fully
	// covered. Only set on the call that settled the sale.
	Clamped   []ClampedIngredient `json:"clamped,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
}

// TransactionItemDTO is one sold line.
type TransactionItemDTO struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// ClampedIngredient reports a shortfall absorbed by clamping stock at zero.
type ClampedIngredient struct {
	IngredientID uuid.UUID       `json:"ingredient_id"`
	Name         string          `json:"name"`
	Shortfall    decimal.Decimal `json:"shortfall_base_units"`
}

// NewTransactionDTO maps a stored sale.
func NewTransactionDTO(txn *models.Transaction) TransactionDTO {
	dto := TransactionDTO{
		ID:                 txn.ID,
		OrderNumber:        txn.OrderNumber,
		Status:             txn.Status,
		PaymentMethod:      txn.PaymentMethod,
		PaymentStatus:      txn.PaymentStatus,
		CustomerID:         txn.CustomerID,
		Total:              txn.Total,
		OverheadCost:       txn.OverheadCost,
		SettlementChangeID: txn.SettlementChangeID,
		ReversalChangeID:   txn.ReversalChangeID,
		SettledAt:          txn.SettledAt,
		PaymentConfirmedAt: txn.PaymentConfirmedAt,
		CancelledAt:        txn.CancelledAt,
		Items:              make([]TransactionItemDTO, 0, len(txn.Items)),
		CreatedAt:          txn.CreatedAt,
	}
	for _, item := range txn.Items {
		dto.Items = append(dto.Items, TransactionItemDTO{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineTotal:   item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))).Round(2),
		})
	}
	return dto
}
