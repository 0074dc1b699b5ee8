package models

import (
	"time"

	"github.com/google/uuid"
)

// CartRow is one remote cart line. Rows for a user are always replaced as a
// set, so Position preserves the in-memory ordering.
type CartRow struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID       `gorm:"column:user_id;type:uuid;not null;index"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	Product   ProductSnapshot `gorm:"column:product;type:jsonb;not null"`
	Quantity  int             `gorm:"column:quantity;not null"`
	Size      string          `gorm:"column:size;not null"`
	Color     string          `gorm:"column:color;not null"`
	Position  int             `gorm:"column:position;not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (CartRow) TableName() string { return "cart_lines" }
