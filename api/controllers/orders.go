package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/kickfinderz-backend/api/responses"
	"github.com/angelmondragon/kickfinderz-backend/internal/orders"
	"github.com/angelmondragon/kickfinderz-backend/pkg/db/models"
	"github.com/angelmondragon/kickfinderz-backend/pkg/logger"
	"github.com/angelmondragon/kickfinderz-backend/pkg/notify"
	"github.com/google/uuid"
)

type orderHistory interface {
	FetchOrders(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
}

// OrdersList returns the caller's full order history, newest first.
func OrdersList(reader orderHistory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		buf := notify.NewBuffer(0)
		list, err := reader.FetchOrders(notify.WithNotifier(r.Context(), buf), userID)
		if err != nil {
			responses.WriteErrorWithNotices(r.Context(), logg, w, err, buf.Drain())
			return
		}
		responses.WriteSuccessWithNotices(w, http.StatusOK, orders.NewOrderViews(list), buf.Drain())
	}
}
