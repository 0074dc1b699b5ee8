package processing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/angelmondragon/kickfinderz-backend/pkg/db/models"
	"github.com/angelmondragon/kickfinderz-backend/pkg/logger"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	defaultPublishTimeout = 5 * time.Second
	eventTypeOrderPlaced  = "order_placed"
)

type publisher interface {
	Publish(context.Context, *gcppubsub.Message) publishResult
}

type publishResult interface {
	Get(context.Context) (string, error)
}

// PubSubProcessor publishes an OrderPlaced message and waits for the server
// message id, which becomes the acknowledgement ref.
type PubSubProcessor struct {
	pub     publisher
	logg    *logger.Logger
	timeout time.Duration
	now     func() time.Time
}

func NewPubSubProcessor(p *gcppubsub.Publisher, logg *logger.Logger, timeout time.Duration) (*PubSubProcessor, error) {
	if p == nil {
		return nil, errors.New("pubsub publisher required")
	}
	return newPubSubProcessor(&gcpPublisher{Publisher: p}, logg, timeout)
}

func newPubSubProcessor(pub publisher, logg *logger.Logger, timeout time.Duration) (*PubSubProcessor, error) {
	if pub == nil {
		return nil, errors.New("publisher required")
	}
	if logg == nil {
		return nil, errors.New("logger required")
	}
	if timeout <= 0 {
		timeout = defaultPublishTimeout
	}
	return &PubSubProcessor{pub: pub, logg: logg, timeout: timeout, now: time.Now}, nil
}

func (p *PubSubProcessor) Process(ctx context.Context, order *models.Order) (Ack, error) {
	if order == nil {
		return Ack{}, errors.New("order required")
	}
	body, err := json.Marshal(NewOrderPlaced(order, p.now()))
	if err != nil {
		return Ack{}, fmt.Errorf("encode order placed: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	msg := &gcppubsub.Message{
		Data: body,
		Attributes: map[string]string{
			"event_type": eventTypeOrderPlaced,
			"order_id":   order.ID.String(),
		},
	}
	res := p.pub.Publish(ctx, msg)
	if res == nil {
		return Ack{}, errors.New("publisher unavailable")
	}
	serverID, err := res.Get(ctx)
	if err != nil {
		return Ack{}, classifyPublishError(err)
	}
	return Ack{Ref: serverID}, nil
}

// Stop flushes pending messages on the underlying publisher.
func (p *PubSubProcessor) Stop() {
	if gp, ok := p.pub.(*gcpPublisher); ok && gp.Publisher != nil {
		gp.Publisher.Stop()
	}
}

// ErrPermanent marks publish failures that retrying will not fix.
var ErrPermanent = errors.New("permanent publish failure")

func classifyPublishError(err error) error {
	switch status.Code(err) {
	case codes.NotFound, codes.PermissionDenied, codes.InvalidArgument, codes.FailedPrecondition:
		return fmt.Errorf("%w: %v", ErrPermanent, err)
	}
	return fmt.Errorf("publish order placed: %w", err)
}

type gcpPublisher struct {
	*gcppubsub.Publisher
}

func (p *gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	if p == nil || p.Publisher == nil {
		return nil
	}
	return p.Publisher.Publish(ctx, msg)
}
