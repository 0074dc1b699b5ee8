package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/kickfinderz-backend/api/responses"
	"github.com/angelmondragon/kickfinderz-backend/api/validators"
	"github.com/angelmondragon/kickfinderz-backend/internal/checkout"
	"github.com/angelmondragon/kickfinderz-backend/internal/orders"
	"github.com/angelmondragon/kickfinderz-backend/pkg/enums"
	"github.com/angelmondragon/kickfinderz-backend/pkg/logger"
	"github.com/angelmondragon/kickfinderz-backend/pkg/notify"
	"github.com/google/uuid"
)

type checkoutRequest struct {
	PaymentMethod string `json:"payment_method" validate:"required,oneof=card paypal apple_pay cash_on_delivery"`
	AddressID     string `json:"address_id" validate:"required,uuid"`
}

// Checkout places an order from the caller's cart. Notices raised by the
// checkout steps and by the cart are returned with the response.
func Checkout(svc checkout.Service, registry cartRegistry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body checkoutRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		store, err := resolveCart(r, registry)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		buf := notify.NewBuffer(0)
		ctx := notify.WithNotifier(r.Context(), buf)
		order, err := svc.Checkout(ctx, store, checkout.Input{
			PaymentMethod: enums.PaymentMethod(strings.TrimSpace(body.PaymentMethod)),
			AddressID:     uuid.MustParse(body.AddressID),
		})
		notices := append(buf.Drain(), store.Notices()...)
		if err != nil {
			responses.WriteErrorWithNotices(r.Context(), logg, w, err, notices)
			return
		}
		responses.WriteSuccessWithNotices(w, http.StatusCreated, orders.NewOrderView(*order), notices)
	}
}
