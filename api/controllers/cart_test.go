package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/angelmondragon/kickfinderz-backend/api/middleware"
	"github.com/angelmondragon/kickfinderz-backend/internal/identity"
	"github.com/angelmondragon/kickfinderz-backend/pkg/config"
	"github.com/angelmondragon/kickfinderz-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cartBody struct {
	Lines []struct {
		ID        string          `json:"id"`
		ProductID string          `json:"product_id"`
		Quantity  int             `json:"quantity"`
		Size      string          `json:"size"`
		UnitPrice decimal.Decimal `json:"unit_price"`
		Subtotal  decimal.Decimal `json:"subtotal"`
	} `json:"lines"`
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
}

func cartRouter(t *testing.T, products catalog) http.Handler {
	t.Helper()
	reg := newCartRegistry(t, nil)
	logg := logger.Nop()
	r := chi.NewRouter()
	r.Get("/cart", CartFetch(reg, logg))
	r.Post("/cart/lines", CartAddLine(reg, products, logg))
	r.Patch("/cart/lines/{lineId}", CartUpdateLine(reg, products, logg))
	r.Delete("/cart/lines/{lineId}", CartRemoveLine(reg, logg))
	r.Delete("/cart", CartClear(reg, logg))
	return r
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func cartOf(t *testing.T, rec *httptest.ResponseRecorder) (cartBody, envelope) {
	t.Helper()
	env := decode(t, rec)
	var body cartBody
	require.NoError(t, json.Unmarshal(env.Data, &body))
	return body, env
}

func TestCartAddMergesAndReportsTotals(t *testing.T) {
	aj1 := sneaker("Air Jordan 1", "180.00", 5)
	h := cartRouter(t, catalog{aj1.ID: aj1})
	guest := identity.Guest("guest-1")

	add := `{"product_id":"` + aj1.ID.String() + `","quantity":2,"size":"10","color":"black"}`
	rec := serve(h, as(jsonRequest(http.MethodPost, "/cart/lines", add), guest))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body, env := cartOf(t, rec)
	require.Len(t, body.Lines, 1)
	require.Len(t, env.Notices, 1)
	assert.Equal(t, "Added Air Jordan 1 to cart", env.Notices[0].Message)

	add = `{"product_id":"` + aj1.ID.String() + `","quantity":1,"size":"10","color":"black"}`
	rec = serve(h, as(jsonRequest(http.MethodPost, "/cart/lines", add), guest))
	require.Equal(t, http.StatusCreated, rec.Code)
	body, _ = cartOf(t, rec)
	require.Len(t, body.Lines, 1)
	assert.Equal(t, 3, body.Lines[0].Quantity)
	assert.Equal(t, 3, body.Count)
	assert.True(t, body.Total.Equal(decimal.RequireFromString("540")))
	assert.True(t, body.Lines[0].Subtotal.Equal(body.Total))

	rec = serve(h, as(httptest.NewRequest(http.MethodGet, "/cart", nil), identity.Guest("someone-else")))
	require.Equal(t, http.StatusOK, rec.Code)
	body, _ = cartOf(t, rec)
	assert.Empty(t, body.Lines)
}

func TestCartAddRejectsQuantityAboveStock(t *testing.T) {
	dunk := sneaker("Dunk Low", "110.00", 2)
	h := cartRouter(t, catalog{dunk.ID: dunk})
	guest := identity.Guest("guest-2")

	add := `{"product_id":"` + dunk.ID.String() + `","quantity":2,"size":"9","color":"black"}`
	require.Equal(t, http.StatusCreated, serve(h, as(jsonRequest(http.MethodPost, "/cart/lines", add), guest)).Code)

	add = `{"product_id":"` + dunk.ID.String() + `","quantity":1,"size":"9","color":"black"}`
	rec := serve(h, as(jsonRequest(http.MethodPost, "/cart/lines", add), guest))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	env := decode(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "STATE_CONFLICT", env.Error.Code)
}

func TestCartAddTrimsVariantBeforeStockCheck(t *testing.T) {
	dunk := sneaker("Dunk Low", "110.00", 2)
	h := cartRouter(t, catalog{dunk.ID: dunk})
	guest := identity.Guest("guest-trim")

	add := `{"product_id":"` + dunk.ID.String() + `","quantity":2,"size":"9","color":"black"}`
	require.Equal(t, http.StatusCreated, serve(h, as(jsonRequest(http.MethodPost, "/cart/lines", add), guest)).Code)

	add = `{"product_id":"` + dunk.ID.String() + `","quantity":1,"size":" 9 ","color":"black "}`
	rec := serve(h, as(jsonRequest(http.MethodPost, "/cart/lines", add), guest))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())

	add = `{"product_id":"` + dunk.ID.String() + `","quantity":1,"size":"12","color":"black"}`
	rec = serve(h, as(jsonRequest(http.MethodPost, "/cart/lines", add), guest))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)

	body, _ := cartOf(t, serve(h, as(httptest.NewRequest(http.MethodGet, "/cart", nil), guest)))
	require.Len(t, body.Lines, 1)
	assert.Equal(t, 2, body.Count)
}

func TestCartClientsWithoutTokenGetSeparateCarts(t *testing.T) {
	aj1 := sneaker("Air Jordan 1", "180.00", 5)
	h := middleware.OptionalAuth(config.JWTConfig{Secret: "secret", Issuer: "kf"}, nil, logger.Nop())(cartRouter(t, catalog{aj1.ID: aj1}))

	add := `{"product_id":"` + aj1.ID.String() + `","quantity":2,"size":"10","color":"black"}`
	rec := serve(h, jsonRequest(http.MethodPost, "/cart/lines", add))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	tokenA := rec.Header().Get(middleware.GuestTokenHeader)
	require.NotEmpty(t, tokenA)

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/cart", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEqual(t, tokenA, rec.Header().Get(middleware.GuestTokenHeader))
	body, env := cartOf(t, rec)
	assert.Empty(t, body.Lines)
	assert.Empty(t, env.Notices)

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set(middleware.GuestTokenHeader, tokenA)
	body, _ = cartOf(t, serve(h, req))
	require.Len(t, body.Lines, 1)
	assert.Equal(t, 2, body.Count)
}

func TestCartRequiresIdentity(t *testing.T) {
	h := cartRouter(t, catalog{})
	rec := serve(h, httptest.NewRequest(http.MethodGet, "/cart", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCartAddValidatesBody(t *testing.T) {
	h := cartRouter(t, catalog{})
	rec := serve(h, as(jsonRequest(http.MethodPost, "/cart/lines", `{"quantity":1}`), identity.Guest("g")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(h, as(jsonRequest(http.MethodPost, "/cart/lines",
		`{"product_id":"6c1f7c1e-1a58-4a31-b6f2-3f0f8a4b9d10","quantity":1,"size":"9","color":"black"}`), identity.Guest("g")))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCartUpdateAndRemoveLine(t *testing.T) {
	boost := sneaker("Ultraboost 22", "190.00", 4)
	h := cartRouter(t, catalog{boost.ID: boost})
	guest := identity.Guest("guest-3")

	add := `{"product_id":"` + boost.ID.String() + `","quantity":1,"size":"9","color":"black"}`
	body, _ := cartOf(t, serve(h, as(jsonRequest(http.MethodPost, "/cart/lines", add), guest)))
	lineID := body.Lines[0].ID

	rec := serve(h, as(jsonRequest(http.MethodPatch, "/cart/lines/"+lineID, `{"quantity":9}`), guest))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = serve(h, as(jsonRequest(http.MethodPatch, "/cart/lines/"+lineID, `{"quantity":4}`), guest))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body, _ = cartOf(t, rec)
	assert.Equal(t, 4, body.Count)

	rec = serve(h, as(jsonRequest(http.MethodPatch, "/cart/lines/"+lineID, `{}`), guest))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(h, as(httptest.NewRequest(http.MethodDelete, "/cart/lines/"+lineID, nil), guest))
	require.Equal(t, http.StatusOK, rec.Code)
	body, env := cartOf(t, rec)
	assert.Empty(t, body.Lines)
	require.NotEmpty(t, env.Notices)
	assert.Equal(t, "Removed Ultraboost 22 from cart", env.Notices[len(env.Notices)-1].Message)

	rec = serve(h, as(httptest.NewRequest(http.MethodDelete, "/cart/lines/"+lineID, nil), guest))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCartUpdateToZeroRemoves(t *testing.T) {
	samba := sneaker("Samba OG", "100.00", 3)
	h := cartRouter(t, catalog{samba.ID: samba})
	guest := identity.Guest("guest-4")

	add := `{"product_id":"` + samba.ID.String() + `","quantity":2,"size":"10","color":"black"}`
	body, _ := cartOf(t, serve(h, as(jsonRequest(http.MethodPost, "/cart/lines", add), guest)))

	rec := serve(h, as(jsonRequest(http.MethodPatch, "/cart/lines/"+body.Lines[0].ID, `{"quantity":0}`), guest))
	require.Equal(t, http.StatusOK, rec.Code)
	body, _ = cartOf(t, rec)
	assert.Empty(t, body.Lines)
	assert.True(t, body.Total.IsZero())
}

func TestCartClear(t *testing.T) {
	samba := sneaker("Samba OG", "100.00", 3)
	h := cartRouter(t, catalog{samba.ID: samba})
	guest := identity.Guest("guest-5")

	add := `{"product_id":"` + samba.ID.String() + `","quantity":1,"size":"10","color":"black"}`
	serve(h, as(jsonRequest(http.MethodPost, "/cart/lines", add), guest))

	rec := serve(h, as(httptest.NewRequest(http.MethodDelete, "/cart", nil), guest))
	require.Equal(t, http.StatusOK, rec.Code)
	body, _ := cartOf(t, rec)
	assert.Equal(t, 0, body.Count)
}
