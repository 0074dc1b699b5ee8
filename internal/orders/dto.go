package orders

import (
	"time"

	"github.com/angelmondragon/kickfinderz-backend/pkg/db/models"
	"github.com/angelmondragon/kickfinderz-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderLineView is the API shape of an order line.
type OrderLineView struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name,omitempty"`
	ImageURL    *string         `json:"image_url,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
	Size        string          `json:"size"`
	Color       string          `json:"color"`
}

// OrderView is the API shape of an order with its lines.
type OrderView struct {
	ID            uuid.UUID           `json:"id"`
	Status        enums.OrderStatus   `json:"status"`
	Total         decimal.Decimal     `json:"total"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	AddressID     uuid.UUID           `json:"address_id"`
	ItemCount     int                 `json:"item_count"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
	Lines         []OrderLineView     `json:"lines"`
}

func NewOrderView(order models.Order) OrderView {
	view := OrderView{
		ID:            order.ID,
		Status:        order.Status,
		Total:         order.Total,
		PaymentMethod: order.PaymentMethod,
		AddressID:     order.AddressID,
		CreatedAt:     order.CreatedAt,
		UpdatedAt:     order.UpdatedAt,
		Lines:         make([]OrderLineView, 0, len(order.Lines)),
	}
	for _, line := range order.Lines {
		lv := OrderLineView{
			ID:        line.ID,
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			LineTotal: line.LineTotal(),
			Size:      line.Size,
			Color:     line.Color,
		}
		if line.Product != nil {
			lv.ProductName = line.Product.Name
			lv.ImageURL = line.Product.ImageURL
		}
		view.ItemCount += line.Quantity
		view.Lines = append(view.Lines, lv)
	}
	return view
}

func NewOrderViews(orders []models.Order) []OrderView {
	out := make([]OrderView, 0, len(orders))
	for _, o := range orders {
		out = append(out, NewOrderView(o))
	}
	return out
}
