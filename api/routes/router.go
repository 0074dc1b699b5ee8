package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/kickfinderz-backend/api/controllers"
	"github.com/angelmondragon/kickfinderz-backend/api/middleware"
	"github.com/angelmondragon/kickfinderz-backend/internal/address"
	"github.com/angelmondragon/kickfinderz-backend/internal/auth"
	"github.com/angelmondragon/kickfinderz-backend/internal/cart"
	checkoutsvc "github.com/angelmondragon/kickfinderz-backend/internal/checkout"
	"github.com/angelmondragon/kickfinderz-backend/internal/orders"
	products "github.com/angelmondragon/kickfinderz-backend/internal/products"
	"github.com/angelmondragon/kickfinderz-backend/pkg/auth/session"
	"github.com/angelmondragon/kickfinderz-backend/pkg/config"
	"github.com/angelmondragon/kickfinderz-backend/pkg/enums"
	"github.com/angelmondragon/kickfinderz-backend/pkg/logger"
)

// rateLimiter is satisfied by *redis.Client.
type rateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisP controllers.Pinger,
	limiter rateLimiter,
	sessionManager session.AccessSessionChecker,
	authService auth.Service,
	productService products.Service,
	carts *cart.Registry,
	checkoutService checkoutsvc.Service,
	history *orders.Reader,
	ordersSvc orders.Service,
	reconciler *orders.Reconciler,
	addressService address.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    dbP,
			"redis": redisP,
		}))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, limiter, logg)).Post("/login", controllers.AuthLogin(authService, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, limiter, logg)).Post("/register", controllers.AuthRegister(authService, logg))
		r.Post("/logout", controllers.AuthLogout(authService, logg))
	})

	r.Route("/api/admin/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, limiter, logg)).Post("/login", controllers.AdminAuthLogin(authService, logg))
	})

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", controllers.ProductList(productService, logg))
		r.Get("/{productId}", controllers.ProductDetail(productService, logg))
	})

	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Use(middleware.OptionalAuth(cfg.JWT, sessionManager, logg))
		r.Get("/", controllers.CartFetch(carts, logg))
		r.Delete("/", controllers.CartClear(carts, logg))
		r.Post("/lines", controllers.CartAddLine(carts, productService, logg))
		r.Patch("/lines/{lineId}", controllers.CartUpdateLine(carts, productService, logg))
		r.Delete("/lines/{lineId}", controllers.CartRemoveLine(carts, logg))
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessionManager, logg))
		r.Post("/api/v1/checkout", controllers.Checkout(checkoutService, carts, logg))
		r.Get("/api/v1/orders", controllers.OrdersList(history, logg))
		r.Route("/api/v1/addresses", func(r chi.Router) {
			r.Get("/", controllers.AddressList(addressService, logg))
			r.Post("/", controllers.AddressCreate(addressService, logg))
		})
	})

	r.Route("/api/admin/v1/orders", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessionManager, logg))
		r.Use(middleware.RequireRole(enums.UserRoleAdmin, logg))
		r.Patch("/{orderId}/status", controllers.AdminUpdateOrderStatus(ordersSvc, logg))
		r.Post("/reconcile", controllers.AdminReconcileOrphans(cfg, reconciler, logg))
	})

	return r
}
