package product

import (
	"time"

	"github.com/angelmondragon/kickfinderz-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductDTO is the public catalog representation of a product.
type ProductDTO struct {
	ID             uuid.UUID        `json:"id"`
	SKU            string           `json:"sku"`
	Name           string           `json:"name"`
	Brand          string           `json:"brand"`
	Category       string           `json:"category"`
	Description    *string          `json:"description,omitempty"`
	Price          decimal.Decimal  `json:"price"`
	SalePrice      *decimal.Decimal `json:"sale_price,omitempty"`
	EffectivePrice decimal.Decimal  `json:"effective_price"`
	OnSale         bool             `json:"on_sale"`
	Stock          int              `json:"stock"`
	InStock        bool             `json:"in_stock"`
	Sizes          []string         `json:"sizes"`
	Colors         []string         `json:"colors"`
	ImageURL       *string          `json:"image_url,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
}

func NewProductDTO(p models.Product) ProductDTO {
	return ProductDTO{
		ID:             p.ID,
		SKU:            p.SKU,
		Name:           p.Name,
		Brand:          p.Brand,
		Category:       p.Category,
		Description:    p.Description,
		Price:          p.Price,
		SalePrice:      p.SalePrice,
		EffectivePrice: p.EffectivePrice(),
		OnSale:         p.SalePrice != nil,
		Stock:          p.Stock,
		InStock:        p.Stock > 0,
		Sizes:          nonNil(p.Sizes),
		Colors:         nonNil(p.Colors),
		ImageURL:       p.ImageURL,
		CreatedAt:      p.CreatedAt,
	}
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return append([]string(nil), values...)
}
