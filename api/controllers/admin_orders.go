package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/kickfinderz-backend/api/responses"
	"github.com/angelmondragon/kickfinderz-backend/api/validators"
	"github.com/angelmondragon/kickfinderz-backend/internal/orders"
	"github.com/angelmondragon/kickfinderz-backend/pkg/config"
	"github.com/angelmondragon/kickfinderz-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/kickfinderz-backend/pkg/errors"
	"github.com/angelmondragon/kickfinderz-backend/pkg/logger"
	"github.com/google/uuid"
)

type orphanReconciler interface {
	ReconcileOrphans(ctx context.Context, olderThan time.Duration) ([]uuid.UUID, error)
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=processing shipped delivered cancelled"`
}

func AdminUpdateOrderStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body updateStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseOrderStatus(body.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status"))
			return
		}

		order, err := svc.UpdateStatus(r.Context(), orderID, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"id":         order.ID,
			"status":     order.Status,
			"updated_at": order.UpdatedAt,
		})
	}
}

// AdminReconcileOrphans cancels processing orders that never got their lines.
// older_than_minutes overrides the configured minimum age.
func AdminReconcileOrphans(cfg *config.Config, reconciler orphanReconciler, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defaultMinutes := int(cfg.Cron.OrphanMaxAge / time.Minute)
		if defaultMinutes < 1 {
			defaultMinutes = 1
		}
		minutes, err := validators.ParseQueryInt(r, "older_than_minutes", defaultMinutes, 1, 60*24*30)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ids, err := reconciler.ReconcileOrphans(r.Context(), time.Duration(minutes)*time.Minute)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if ids == nil {
			ids = []uuid.UUID{}
		}
		responses.WriteSuccess(w, map[string]any{
			"cancelled_order_ids": ids,
			"count":               len(ids),
		})
	}
}
