package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/kickfinderz-backend/internal/cart"
	"github.com/angelmondragon/kickfinderz-backend/internal/identity"
	"github.com/angelmondragon/kickfinderz-backend/internal/orders"
	"github.com/angelmondragon/kickfinderz-backend/internal/processing"
	"github.com/angelmondragon/kickfinderz-backend/pkg/db"
	"github.com/angelmondragon/kickfinderz-backend/pkg/db/models"
	"github.com/angelmondragon/kickfinderz-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/kickfinderz-backend/pkg/errors"
	"github.com/angelmondragon/kickfinderz-backend/pkg/logger"
	"github.com/angelmondragon/kickfinderz-backend/pkg/notify"
	"github.com/google/uuid"
)

const defaultProcessorTimeout = 5 * time.Second

// Checkout outcomes reported to metrics.
const (
	OutcomeSuccess     = "success"
	OutcomeRejected    = "rejected"
	OutcomeOrderFailed = "order_failed"
	OutcomeLinesFailed = "lines_failed"
)

// Cart is the slice of cart.Store checkout depends on.
type Cart interface {
	Identity() identity.Identity
	Lines() []cart.Line
	RemoveOrdered(ctx context.Context, ordered []cart.Line) error
}

// AddressVerifier confirms an address belongs to the user placing the order.
type AddressVerifier interface {
	Owns(ctx context.Context, userID, addressID uuid.UUID) (bool, error)
}

type outcomeRecorder interface {
	IncCheckout(outcome string)
}

// Input carries the shopper's checkout choices.
type Input struct {
	PaymentMethod enums.PaymentMethod
	AddressID     uuid.UUID
}

// Service turns a cart into an order.
type Service interface {
	Checkout(ctx context.Context, c Cart, input Input) (*models.Order, error)
}

type ServiceParams struct {
	Orders           orders.Repository
	Processor        processing.Processor
	Addresses        AddressVerifier
	Logger           *logger.Logger
	Metrics          outcomeRecorder
	ProcessorTimeout time.Duration
}

type service struct {
	orders           orders.Repository
	processor        processing.Processor
	addresses        AddressVerifier
	logg             *logger.Logger
	metrics          outcomeRecorder
	processorTimeout time.Duration
}

// NewService builds the checkout service. Addresses and Metrics are optional.
func NewService(params ServiceParams) (Service, error) {
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Processor == nil {
		return nil, fmt.Errorf("order processor required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	timeout := params.ProcessorTimeout
	if timeout <= 0 {
		timeout = defaultProcessorTimeout
	}
	return &service{
		orders:           params.Orders,
		processor:        params.Processor,
		addresses:        params.Addresses,
		logg:             params.Logger,
		metrics:          params.Metrics,
		processorTimeout: timeout,
	}, nil
}

// Checkout writes the order row, asks the processor to pick it up, writes one
// order line per cart line and finally takes the ordered lines out of the
// cart. Lines added while checkout runs stay in the cart. The steps are not
// transactional: a failure while writing lines leaves the order row in place
// and the cart untouched.
func (s *service) Checkout(ctx context.Context, c Cart, input Input) (*models.Order, error) {
	notifier := notify.FromContext(ctx)

	lines, userID, err := s.validate(ctx, c, input)
	if err != nil {
		s.record(OutcomeRejected)
		notifier.Notify(notify.LevelError, pkgerrors.UserMessage(err))
		return nil, err
	}
	ctx = s.logg.WithUserID(ctx, userID.String())

	order := &models.Order{
		UserID:        userID,
		AddressID:     input.AddressID,
		Total:         cart.Total(lines),
		Status:        enums.OrderStatusProcessing,
		PaymentMethod: input.PaymentMethod,
	}
	if _, err := s.orders.Create(ctx, order); err != nil {
		s.record(OutcomeOrderFailed)
		s.logg.Error(ctx, "failed to create order", err)
		notifier.Notify(notify.LevelError, "We couldn't place your order. Please try again.")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to create order")
	}
	ctx = s.logg.WithOrderID(ctx, order.ID.String())

	s.process(ctx, order)

	orderLines := buildOrderLines(order.ID, lines)
	if err := s.orders.CreateLines(ctx, orderLines); err != nil {
		s.record(OutcomeLinesFailed)
		s.logg.Error(ctx, "failed to create order lines; order left without lines", err)
		if db.IsForeignKeyViolation(err) {
			notifier.Notify(notify.LevelError, "An item in your cart is no longer available. Your cart has not been changed.")
		} else {
			notifier.Notify(notify.LevelError, "We couldn't finish placing your order. Your cart has not been changed.")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodePartialFailure, err, "order was created but its items could not be saved").
			WithDetails(map[string]any{"order_id": order.ID})
	}
	order.Lines = orderLines

	if err := c.RemoveOrdered(ctx, lines); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "order placed but the cart could not be fully purged")
	}

	s.record(OutcomeSuccess)
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"total":      order.Total.StringFixed(2),
		"line_count": len(orderLines),
	}), "order placed")
	notifier.Notify(notify.LevelSuccess, "Your order has been placed")
	return order, nil
}

func (s *service) validate(ctx context.Context, c Cart, input Input) ([]cart.Line, uuid.UUID, error) {
	if c == nil {
		return nil, uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "your cart is empty")
	}
	id := c.Identity()
	if !id.IsAuthenticated() {
		return nil, uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to check out")
	}
	lines := c.Lines()
	if len(lines) == 0 {
		return nil, uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "your cart is empty")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "choose a payment method")
	}
	if input.AddressID == uuid.Nil {
		return nil, uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "choose a shipping address")
	}
	if s.addresses != nil {
		owned, err := s.addresses.Owns(ctx, id.UserID, input.AddressID)
		if err != nil {
			return nil, uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to verify address")
		}
		if !owned {
			return nil, uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "choose a shipping address")
		}
	}
	return lines, id.UserID, nil
}

// process is advisory; a failure is logged and checkout carries on.
func (s *service) process(ctx context.Context, order *models.Order) {
	pctx, cancel := context.WithTimeout(ctx, s.processorTimeout)
	defer cancel()

	ack, err := s.processor.Process(pctx, order)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "order processing call failed; continuing checkout")
		return
	}
	ref := strings.TrimSpace(ack.Ref)
	if ref == "" {
		return
	}
	if err := s.orders.SetProcessingRef(ctx, order.ID, ref); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "processing_ref", ref), "failed to store processing ref")
		return
	}
	order.ProcessingRef = &ref
}

func (s *service) record(outcome string) {
	if s.metrics != nil {
		s.metrics.IncCheckout(outcome)
	}
}

func buildOrderLines(orderID uuid.UUID, lines []cart.Line) []models.OrderLine {
	out := make([]models.OrderLine, 0, len(lines))
	for _, l := range lines {
		out = append(out, models.OrderLine{
			ID:        uuid.New(),
			OrderID:   orderID,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice(),
			Size:      l.Size,
			Color:     l.Color,
		})
	}
	return out
}
