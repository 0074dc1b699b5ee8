package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/angelmondragon/kickfinderz-backend/internal/address"
	"github.com/angelmondragon/kickfinderz-backend/internal/auth"
	"github.com/angelmondragon/kickfinderz-backend/internal/cart"
	"github.com/angelmondragon/kickfinderz-backend/internal/checkout"
	"github.com/angelmondragon/kickfinderz-backend/internal/orders"
	"github.com/angelmondragon/kickfinderz-backend/internal/processing"
	product "github.com/angelmondragon/kickfinderz-backend/internal/products"
	pkgAuth "github.com/angelmondragon/kickfinderz-backend/pkg/auth"
	"github.com/angelmondragon/kickfinderz-backend/pkg/config"
	"github.com/angelmondragon/kickfinderz-backend/pkg/db"
	"github.com/angelmondragon/kickfinderz-backend/pkg/db/dbtest"
	"github.com/angelmondragon/kickfinderz-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/kickfinderz-backend/pkg/errors"
	"github.com/angelmondragon/kickfinderz-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubSessionManager struct{}

func (stubSessionManager) HasSession(context.Context, string) (bool, error) {
	return true, nil
}

type stubAuthService struct{}

func (stubAuthService) Register(context.Context, auth.RegisterRequest) (*auth.LoginResponse, error) {
	return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
}

func (stubAuthService) Login(context.Context, auth.LoginRequest) (*auth.LoginResponse, error) {
	return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
}

func (stubAuthService) AdminLogin(context.Context, auth.LoginRequest) (*auth.LoginResponse, error) {
	return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
}

func (stubAuthService) Logout(context.Context, string) error {
	return nil
}

var testConfig = &config.Config{
	App: config.AppConfig{Env: "test", CORSOrigins: "*"},
	JWT: config.JWTConfig{Secret: "router-secret", Issuer: "kickfinderz", ExpirationMinutes: 15},
	Cron: config.CronConfig{OrphanMaxAge: time.Hour},
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logg := logger.Nop()
	conn := dbtest.Open(t)

	productSvc, err := product.NewService(product.NewRepository(conn))
	require.NoError(t, err)

	carts, err := cart.NewRegistry(cart.RegistryConfig{
		Cache:  cart.NewMemoryCache(),
		Remote: cart.NewRepository(conn),
		Logger: logg,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = carts.Close(context.Background()) })

	orderRepo := orders.NewRepository(conn)
	checkoutSvc, err := checkout.NewService(checkout.ServiceParams{
		Orders:    orderRepo,
		Processor: processing.Noop{},
		Logger:    logg,
	})
	require.NoError(t, err)
	reader, err := orders.NewReader(orderRepo, logg)
	require.NoError(t, err)
	ordersSvc, err := orders.NewService(orderRepo, logg)
	require.NoError(t, err)
	reconciler, err := orders.NewReconciler(orderRepo, logg)
	require.NoError(t, err)
	addressSvc, err := address.NewService(address.NewRepository(conn), db.Wrap(conn))
	require.NoError(t, err)

	return NewRouter(
		testConfig,
		logg,
		stubPinger{},
		stubPinger{},
		nil,
		stubSessionManager{},
		stubAuthService{},
		productSvc,
		carts,
		checkoutSvc,
		reader,
		ordersSvc,
		reconciler,
		addressSvc,
	)
}

func bearer(t *testing.T, role enums.UserRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(testConfig.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Email:  "sam@example.com",
		Role:   role,
		JTI:    "jti-1",
	})
	require.NoError(t, err)
	return "Bearer " + token
}

func do(h http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthRoutes(t *testing.T) {
	h := newTestRouter(t)
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/health/live", nil).Code)
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/health/ready", nil).Code)
}

func TestPublicCatalogAndGuestCart(t *testing.T) {
	h := newTestRouter(t)
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/api/v1/products", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(h, http.MethodGet, "/api/v1/products/"+uuid.NewString(), nil).Code)

	rec := do(h, http.MethodGet, "/api/v1/cart", map[string]string{"X-Guest-Token": "guest-abc"})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(h, http.MethodGet, "/api/v1/cart", map[string]string{"Authorization": "Bearer not-a-token"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticatedRoutesRequireToken(t *testing.T) {
	h := newTestRouter(t)
	assert.Equal(t, http.StatusUnauthorized, do(h, http.MethodGet, "/api/v1/orders", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, do(h, http.MethodPost, "/api/v1/checkout", nil).Code)

	rec := do(h, http.MethodGet, "/api/v1/orders", map[string]string{"Authorization": bearer(t, enums.UserRoleCustomer)})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(h, http.MethodGet, "/api/v1/addresses", map[string]string{"Authorization": bearer(t, enums.UserRoleCustomer)})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	h := newTestRouter(t)
	rec := do(h, http.MethodPost, "/api/admin/v1/orders/reconcile", map[string]string{"Authorization": bearer(t, enums.UserRoleCustomer)})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(h, http.MethodPost, "/api/admin/v1/orders/reconcile", map[string]string{"Authorization": bearer(t, enums.UserRoleAdmin)})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestAuthRoutesDelegateToService(t *testing.T) {
	h := newTestRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	req.Body = http.NoBody
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, http.StatusOK, do(h, http.MethodPost, "/api/v1/auth/logout", map[string]string{"Authorization": "Bearer abc"}).Code)
	assert.Equal(t, http.StatusUnauthorized, do(h, http.MethodPost, "/api/v1/auth/logout", nil).Code)
}
