package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a sneaker listing in the catalog.
type Product struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	SKU         string           `gorm:"column:sku;not null;uniqueIndex"`
	Name        string           `gorm:"column:name;not null"`
	Brand       string           `gorm:"column:brand;not null"`
	Category    string           `gorm:"column:category;not null"`
	Description *string          `gorm:"column:description"`
	Price       decimal.Decimal  `gorm:"column:price;type:numeric(10,2);not null"`
	SalePrice   *decimal.Decimal `gorm:"column:sale_price;type:numeric(10,2)"`
	Stock       int              `gorm:"column:stock;not null;default:0"`
	Sizes       pq.StringArray   `gorm:"column:sizes;type:text[]"`
	Colors      pq.StringArray   `gorm:"column:colors;type:text[]"`
	ImageURL    *string          `gorm:"column:image_url"`
	IsActive    bool             `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// EffectivePrice prefers the sale price when one is set.
func (p Product) EffectivePrice() decimal.Decimal {
	if p.SalePrice != nil {
		return *p.SalePrice
	}
	return p.Price
}

// Snapshot captures the fields a cart line needs to render and price itself
// without another catalog read.
func (p Product) Snapshot() ProductSnapshot {
	return ProductSnapshot{
		ID:        p.ID,
		Name:      p.Name,
		Brand:     p.Brand,
		Price:     p.Price,
		SalePrice: p.SalePrice,
		Stock:     p.Stock,
		ImageURL:  p.ImageURL,
	}
}

// HasSize reports whether size is offered. Products without a size list accept any size.
func (p Product) HasSize(size string) bool {
	return len(p.Sizes) == 0 || contains(p.Sizes, size)
}

func (p Product) HasColor(color string) bool {
	return len(p.Colors) == 0 || contains(p.Colors, color)
}

func contains(values []string, needle string) bool {
	for _, v := range values {
		if v == needle {
			return true
		}
	}
	return false
}
