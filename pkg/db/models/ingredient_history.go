package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/kitchenpos-backend/pkg/enums"
)

// IngredientHistory is one audited field change. Rows sharing a ChangeID were
// written by the same logical operation. The table is append-only.
type IngredientHistory struct {
	ID           uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	IngredientID uuid.UUID           `gorm:"column:ingredient_id;type:uuid;not null;index:ix_ingredient_history_ingredient_created,priority:1"`
	ChangeID     uuid.UUID           `gorm:"column:change_id;type:uuid;not null;index:ix_ingredient_history_change"`
	Field        enums.HistoryField  `gorm:"column:field;not null"`
	OldValue     *string             `gorm:"column:old_value"`
	NewValue     *string             `gorm:"column:new_value"`
	Source       enums.HistorySource `gorm:"column:source;not null"`
	Reason       *string             `gorm:"column:reason"`
	ReasonNote   *string             `gorm:"column:reason_note"`
	UserID       *string             `gorm:"column:user_id"`
	UserName     *string             `gorm:"column:user_name"`
	CreatedAt    time.Time           `gorm:"column:created_at;autoCreateTime;index:ix_ingredient_history_ingredient_created,priority:2"`
}

func (IngredientHistory) TableName() string {
	return "ingredient_history"
}

func (h *IngredientHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now().UTC()
	}
	return nil
}
