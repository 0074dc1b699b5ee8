package orders

import (
	"context"
	"fmt"

	"github.com/angelmondragon/kickfinderz-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/kickfinderz-backend/pkg/errors"
	"github.com/angelmondragon/kickfinderz-backend/pkg/logger"
	"github.com/angelmondragon/kickfinderz-backend/pkg/notify"
	"github.com/google/uuid"
)

const historyLoadFailed = "We couldn't load your orders. Please try again."

// Reader serves a user's order history. Results are never paginated.
type Reader struct {
	repo Repository
	logg *logger.Logger
}

func NewReader(repo Repository, logg *logger.Logger) (*Reader, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Reader{repo: repo, logg: logg}, nil
}

// FetchOrders returns every order for userID newest first, each with its
// lines. Failures are logged and reported to the notifier carried by ctx.
func (r *Reader) FetchOrders(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to see your orders")
	}
	ctx = r.logg.WithUserID(ctx, userID.String())

	orders, err := r.repo.ListByUser(ctx, userID)
	if err != nil {
		r.logg.Error(ctx, "failed to load order history", err)
		notify.FromContext(ctx).Notify(notify.LevelError, historyLoadFailed)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load orders")
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return orders, nil
}

// History is FetchOrders without the error: an empty list stands in for a
// failed read.
func (r *Reader) History(ctx context.Context, userID uuid.UUID) []models.Order {
	orders, err := r.FetchOrders(ctx, userID)
	if err != nil {
		return []models.Order{}
	}
	return orders
}
