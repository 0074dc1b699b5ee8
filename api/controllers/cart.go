package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/kickfinderz-backend/api/responses"
	"github.com/angelmondragon/kickfinderz-backend/api/validators"
	"github.com/angelmondragon/kickfinderz-backend/internal/cart"
	"github.com/angelmondragon/kickfinderz-backend/internal/identity"
	"github.com/angelmondragon/kickfinderz-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/kickfinderz-backend/pkg/errors"
	"github.com/angelmondragon/kickfinderz-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type cartRegistry interface {
	For(ctx context.Context, id identity.Identity) (*cart.Store, error)
}

type productLookup interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type addLineRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,min=1,max=99"`
	Size      string `json:"size" validate:"required,max=16"`
	Color     string `json:"color" validate:"required,max=32"`
}

type updateLineRequest struct {
	Quantity *int `json:"quantity" validate:"required,max=99"`
}

type cartLineView struct {
	cart.Line
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type cartView struct {
	Lines []cartLineView  `json:"lines"`
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
}

func newCartView(store *cart.Store) cartView {
	lines := store.Lines()
	out := make([]cartLineView, 0, len(lines))
	for _, l := range lines {
		out = append(out, cartLineView{Line: l, UnitPrice: l.UnitPrice(), Subtotal: l.Subtotal()})
	}
	return cartView{Lines: out, Total: cart.Total(lines), Count: cart.Count(lines)}
}

func resolveCart(r *http.Request, registry cartRegistry) (*cart.Store, error) {
	store, err := registry.For(r.Context(), identity.FromContext(r.Context()))
	if pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		return nil, err
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load cart")
	}
	return store, nil
}

func CartFetch(registry cartRegistry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := resolveCart(r, registry)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessWithNotices(w, http.StatusOK, newCartView(store), store.Notices())
	}
}

// CartAddLine adds a product to the cart. The request is refused when the
// cart would hold more of the product variant than is in stock.
func CartAddLine(registry cartRegistry, products productLookup, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body addLineRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		store, err := resolveCart(r, registry)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := products.GetProduct(r.Context(), uuid.MustParse(body.ProductID))
		if err != nil {
			responses.WriteErrorWithNotices(r.Context(), logg, w, err, store.Notices())
			return
		}

		size := strings.TrimSpace(body.Size)
		color := strings.TrimSpace(body.Color)
		if err := checkVariant(*product, size, color); err != nil {
			responses.WriteErrorWithNotices(r.Context(), logg, w, err, store.Notices())
			return
		}

		inCart := 0
		for _, l := range store.Lines() {
			if l.ProductID == product.ID && l.Size == size && l.Color == color {
				inCart = l.Quantity
				break
			}
		}
		if err := checkStock(*product, inCart+body.Quantity); err != nil {
			responses.WriteErrorWithNotices(r.Context(), logg, w, err, store.Notices())
			return
		}

		if err := store.AddToCart(r.Context(), *product, body.Quantity, size, color); err != nil {
			responses.WriteErrorWithNotices(r.Context(), logg, w, err, store.Notices())
			return
		}
		responses.WriteSuccessWithNotices(w, http.StatusCreated, newCartView(store), store.Notices())
	}
}

// CartUpdateLine sets a line quantity. Zero removes the line; increases are
// checked against current stock.
func CartUpdateLine(registry cartRegistry, products productLookup, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lineID, err := validators.ParseUUIDParam(r, "lineId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body updateLineRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		store, err := resolveCart(r, registry)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		for _, l := range store.Lines() {
			if l.ID != lineID || *body.Quantity <= l.Quantity {
				continue
			}
			product, err := products.GetProduct(r.Context(), l.ProductID)
			if err != nil {
				responses.WriteErrorWithNotices(r.Context(), logg, w, err, store.Notices())
				return
			}
			if err := checkStock(*product, *body.Quantity); err != nil {
				responses.WriteErrorWithNotices(r.Context(), logg, w, err, store.Notices())
				return
			}
		}

		if err := store.UpdateLine(r.Context(), lineID, *body.Quantity); err != nil {
			responses.WriteErrorWithNotices(r.Context(), logg, w, err, store.Notices())
			return
		}
		responses.WriteSuccessWithNotices(w, http.StatusOK, newCartView(store), store.Notices())
	}
}

func CartRemoveLine(registry cartRegistry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lineID, err := validators.ParseUUIDParam(r, "lineId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		store, err := resolveCart(r, registry)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := store.RemoveLine(r.Context(), lineID); err != nil {
			responses.WriteErrorWithNotices(r.Context(), logg, w, err, store.Notices())
			return
		}
		responses.WriteSuccessWithNotices(w, http.StatusOK, newCartView(store), store.Notices())
	}
}

func CartClear(registry cartRegistry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := resolveCart(r, registry)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		// The cart is empty in memory either way; a failed cache purge is
		// reported to the shopper through the store's notices.
		if err := store.Clear(r.Context()); err != nil {
			logg.Warn(r.Context(), "cart cleared with a stale local cache entry")
		}
		responses.WriteSuccessWithNotices(w, http.StatusOK, newCartView(store), store.Notices())
	}
}

// checkVariant rejects a size or color the product does not list.
func checkVariant(product models.Product, size, color string) error {
	if !product.HasSize(size) {
		return pkgerrors.New(pkgerrors.CodeValidation, "size not available for "+product.Name).
			WithDetails(map[string]any{"size": size, "available": []string(product.Sizes)})
	}
	if !product.HasColor(color) {
		return pkgerrors.New(pkgerrors.CodeValidation, "color not available for "+product.Name).
			WithDetails(map[string]any{"color": color, "available": []string(product.Colors)})
	}
	return nil
}

func checkStock(product models.Product, wanted int) error {
	if wanted <= product.Stock {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict, "not enough stock for "+product.Name).
		WithDetails(map[string]any{"product_id": product.ID, "available": product.Stock, "requested": wanted})
}
