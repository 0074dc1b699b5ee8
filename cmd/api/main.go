package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/kickfinderz-backend/api/routes"
	"github.com/angelmondragon/kickfinderz-backend/internal/address"
	"github.com/angelmondragon/kickfinderz-backend/internal/auth"
	"github.com/angelmondragon/kickfinderz-backend/internal/cart"
	"github.com/angelmondragon/kickfinderz-backend/internal/checkout"
	"github.com/angelmondragon/kickfinderz-backend/internal/identity"
	"github.com/angelmondragon/kickfinderz-backend/internal/orders"
	"github.com/angelmondragon/kickfinderz-backend/internal/processing"
	product "github.com/angelmondragon/kickfinderz-backend/internal/products"
	"github.com/angelmondragon/kickfinderz-backend/internal/users"
	"github.com/angelmondragon/kickfinderz-backend/pkg/auth/session"
	"github.com/angelmondragon/kickfinderz-backend/pkg/config"
	"github.com/angelmondragon/kickfinderz-backend/pkg/db"
	"github.com/angelmondragon/kickfinderz-backend/pkg/instance"
	"github.com/angelmondragon/kickfinderz-backend/pkg/logger"
	"github.com/angelmondragon/kickfinderz-backend/pkg/metrics"
	"github.com/angelmondragon/kickfinderz-backend/pkg/migrate"
	"github.com/angelmondragon/kickfinderz-backend/pkg/pubsub"
	"github.com/angelmondragon/kickfinderz-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(ctx, "failed to create session manager", err)
		os.Exit(1)
	}

	cartMetrics := metrics.NewCartMetrics(prometheus.DefaultRegisterer)
	hub := identity.NewHub()

	carts, err := cart.NewRegistry(cart.RegistryConfig{
		Cache:       cart.NewRedisCache(redisClient, cfg.Cart.CacheTTL),
		Remote:      cart.NewRepository(dbClient.DB()),
		Logger:      logg,
		Metrics:     cartMetrics,
		SyncTimeout: cfg.Cart.SyncTimeout,
	})
	if err != nil {
		logg.Error(ctx, "failed to create cart registry", err)
		os.Exit(1)
	}
	carts.Attach(hub)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       users.NewRepository(dbClient.DB()),
		SessionManager: sessionManager,
		Identities:     hub,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create auth service", err)
		os.Exit(1)
	}

	productService, err := product.NewService(product.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(ctx, "failed to create product service", err)
		os.Exit(1)
	}

	addressService, err := address.NewService(address.NewRepository(dbClient.DB()), dbClient)
	if err != nil {
		logg.Error(ctx, "failed to create address service", err)
		os.Exit(1)
	}

	processor, closeProcessor, err := buildProcessor(ctx, cfg, logg)
	if err != nil {
		logg.Error(ctx, "failed to create order processor", err)
		os.Exit(1)
	}
	defer closeProcessor()

	orderRepo := orders.NewRepository(dbClient.DB())
	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Orders:           orderRepo,
		Processor:        processor,
		Addresses:        addressService,
		Logger:           logg,
		Metrics:          cartMetrics,
		ProcessorTimeout: cfg.Checkout.ProcessorTimeout,
	})
	if err != nil {
		logg.Error(ctx, "failed to create checkout service", err)
		os.Exit(1)
	}
	history, err := orders.NewReader(orderRepo, logg)
	if err != nil {
		logg.Error(ctx, "failed to create order reader", err)
		os.Exit(1)
	}
	ordersService, err := orders.NewService(orderRepo, logg)
	if err != nil {
		logg.Error(ctx, "failed to create orders service", err)
		os.Exit(1)
	}
	reconciler, err := orders.NewReconciler(orderRepo, logg)
	if err != nil {
		logg.Error(ctx, "failed to create order reconciler", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":       cfg.App.Env,
		"addr":      addr,
		"instance":  instance.ID(),
		"processor": cfg.FeatureFlags.Processor,
	})
	logg.Info(ctx, "starting api server")

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", routes.NewRouter(
		cfg,
		logg,
		dbClient,
		redisClient,
		redisClient,
		sessionManager,
		authService,
		productService,
		carts,
		checkoutService,
		history,
		ordersService,
		reconciler,
		addressService,
	))
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		evictIdleCarts(gctx, logg, carts, cfg.Cart)
		return nil
	})

	if err := g.Wait(); err != nil {
		logg.Error(ctx, "api server stopped unexpectedly", err)
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := carts.Close(closeCtx); err != nil {
		logg.Error(ctx, "failed to flush carts on shutdown", err)
	}
	logg.Info(ctx, "api server shut down")
}

// buildProcessor picks the order processor named by the feature flag. The
// returned func releases whatever the processor holds.
func buildProcessor(ctx context.Context, cfg *config.Config, logg *logger.Logger) (processing.Processor, func(), error) {
	switch strings.ToLower(strings.TrimSpace(cfg.FeatureFlags.Processor)) {
	case "pubsub":
		client, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			return nil, nil, err
		}
		proc, err := processing.NewPubSubProcessor(client.OrdersPublisher(), logg, cfg.Checkout.ProcessorTimeout)
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		return proc, func() {
			proc.Stop()
			if err := client.Close(); err != nil {
				logg.Error(context.Background(), "error closing pubsub client", err)
			}
		}, nil
	default:
		return processing.Noop{}, func() {}, nil
	}
}

func evictIdleCarts(ctx context.Context, logg *logger.Logger, carts *cart.Registry, cfg config.CartConfig) {
	if cfg.EvictInterval <= 0 || cfg.IdleTTL <= 0 {
		return
	}
	ticker := time.NewTicker(cfg.EvictInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := carts.EvictIdle(ctx, cfg.IdleTTL); n > 0 {
				logg.Debug(logg.WithField(ctx, "evicted", n), "evicted idle carts")
			}
		}
	}
}
