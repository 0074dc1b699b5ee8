package product

import (
	"github.com/angelmondragon/kickfinderz-backend/pkg/pagination"
	"github.com/shopspring/decimal"
)

// ListFilters describe the supported filter knobs for the browse endpoint.
type ListFilters struct {
	Brand    string           `json:"brand,omitempty"`
	Category string           `json:"category,omitempty"`
	PriceMin *decimal.Decimal `json:"price_min,omitempty"`
	PriceMax *decimal.Decimal `json:"price_max,omitempty"`
	OnSale   *bool            `json:"on_sale,omitempty"`
	InStock  bool             `json:"in_stock,omitempty"`
	Query    string           `json:"q,omitempty"`
}

// ListInput captures the inputs needed to paginate/filter the catalog.
type ListInput struct {
	Filters    ListFilters
	Pagination pagination.Params
}

// ListResult is one page of products plus the cursor for the next page.
type ListResult struct {
	Products   []ProductDTO `json:"products"`
	NextCursor string       `json:"next_cursor,omitempty"`
}
