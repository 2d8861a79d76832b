package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/kitchenpos-backend/pkg/enums"
)

// Transaction is a sale. SettlementChangeID points at the ingredient history
// written when the sale settled; ReversalChangeID at the rows that undid it.
type Transaction struct {
	ID                 uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber        int64                   `gorm:"column:order_number;not null;uniqueIndex:ux_transactions_order_number"`
	Status             enums.TransactionStatus `gorm:"column:status;not null"`
	PaymentMethod      enums.PaymentMethod     `gorm:"column:payment_method;not null"`
	PaymentStatus      enums.PaymentStatus     `gorm:"column:payment_status;not null"`
	CustomerID         *uuid.UUID              `gorm:"column:customer_id;type:uuid"`
	Total              decimal.Decimal         `gorm:"column:total;type:numeric(12,2);not null"`
	OverheadCost       decimal.Decimal         `gorm:"column:overhead_cost;type:numeric(12,2);not null"`
	SettlementChangeID *uuid.UUID              `gorm:"column:settlement_change_id;type:uuid"`
	ReversalChangeID   *uuid.UUID              `gorm:"column:reversal_change_id;type:uuid"`
	SettledAt          *time.Time              `gorm:"column:settled_at"`
	PaymentConfirmedAt *time.Time              `gorm:"column:payment_confirmed_at"`
	CancelledAt        *time.Time              `gorm:"column:cancelled_at"`
	Items              []TransactionItem       `gorm:"foreignKey:TransactionID;constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// TransactionItem is one product line of a sale.
type TransactionItem struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	TransactionID uuid.UUID       `gorm:"column:transaction_id;type:uuid;not null;index"`
	ProductID     uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	ProductName   string          `gorm:"column:product_name;not null"`
	Quantity      int             `gorm:"column:quantity;not null"`
	UnitPrice     decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
}

func (i *TransactionItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
