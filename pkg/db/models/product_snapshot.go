package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductSnapshot is the product as it looked when it was put in a cart.
// It is stored as JSON alongside remote cart rows and in the local cache.
type ProductSnapshot struct {
	ID        uuid.UUID        `json:"id"`
	Name      string           `json:"name"`
	Brand     string           `json:"brand"`
	Price     decimal.Decimal  `json:"price"`
	SalePrice *decimal.Decimal `json:"sale_price,omitempty"`
	Stock     int              `json:"stock"`
	ImageURL  *string          `json:"image_url,omitempty"`
}

func (s ProductSnapshot) EffectivePrice() decimal.Decimal {
	if s.SalePrice != nil {
		return *s.SalePrice
	}
	return s.Price
}

func (s ProductSnapshot) Value() (driver.Value, error) {
	payload, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(payload), nil
}

func (s *ProductSnapshot) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*s = ProductSnapshot{}
		return nil
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("ProductSnapshot: unsupported Scan type %T", src)
	}
}
