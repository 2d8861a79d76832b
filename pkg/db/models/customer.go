package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Customer carries the loyalty aggregates updated by settled sales.
type Customer struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name        string          `gorm:"column:name;not null"`
	Phone       *string         `gorm:"column:phone"`
	VisitCount  int64           `gorm:"column:visit_count;not null;default:0"`
	TotalSpent  decimal.Decimal `gorm:"column:total_spent;type:numeric(12,2);not null"`
	LastVisitAt *time.Time      `gorm:"column:last_visit_at"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
