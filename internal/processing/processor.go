// Package processing hands freshly placed orders to the downstream order
// processing function. Checkout treats every failure here as advisory.
package processing

import (
	"context"
	"time"

	"github.com/angelmondragon/kickfinderz-backend/pkg/db/models"
	"github.com/angelmondragon/kickfinderz-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Ack is the acknowledgement returned by the processing function.
type Ack struct {
	Ref string
}

// Processor submits an order for processing.
type Processor interface {
	Process(ctx context.Context, order *models.Order) (Ack, error)
}

// OrderPlaced is the message body sent for each new order.
type OrderPlaced struct {
	Version       int                 `json:"version"`
	EventID       uuid.UUID           `json:"eventId"`
	OccurredAt    time.Time           `json:"occurredAt"`
	OrderID       uuid.UUID           `json:"orderId"`
	UserID        uuid.UUID           `json:"userId"`
	AddressID     uuid.UUID           `json:"addressId"`
	Total         decimal.Decimal     `json:"total"`
	PaymentMethod enums.PaymentMethod `json:"paymentMethod"`
}

const orderPlacedVersion = 1

func NewOrderPlaced(order *models.Order, now time.Time) OrderPlaced {
	return OrderPlaced{
		Version:       orderPlacedVersion,
		EventID:       uuid.New(),
		OccurredAt:    now.UTC(),
		OrderID:       order.ID,
		UserID:        order.UserID,
		AddressID:     order.AddressID,
		Total:         order.Total,
		PaymentMethod: order.PaymentMethod,
	}
}

// Noop acknowledges every order locally. Used when no processor is configured.
type Noop struct{}

func (Noop) Process(_ context.Context, order *models.Order) (Ack, error) {
	return Ack{Ref: "noop-" + order.ID.String()}, nil
}

// Func adapts a function to Processor.
type Func func(ctx context.Context, order *models.Order) (Ack, error)

func (f Func) Process(ctx context.Context, order *models.Order) (Ack, error) {
	return f(ctx, order)
}
