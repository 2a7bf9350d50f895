// Command server runs the multi-tenant commerce API: tenant onboarding,
// user management, product catalog, and order management behind
// tenant-context resolution, per-tenant rate limiting, and tier-aware
// storage routing.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/tenantkit/pkg/config"
	"github.com/dmitrymomot/tenantkit/pkg/events"
	"github.com/dmitrymomot/tenantkit/pkg/httpserver"
	"github.com/dmitrymomot/tenantkit/pkg/limits"
	"github.com/dmitrymomot/tenantkit/pkg/logger"
	"github.com/dmitrymomot/tenantkit/pkg/pg"
	"github.com/dmitrymomot/tenantkit/pkg/queue"
	"github.com/dmitrymomot/tenantkit/pkg/ratelimit"
	"github.com/dmitrymomot/tenantkit/pkg/redis"
	"github.com/dmitrymomot/tenantkit/pkg/requestid"
	"github.com/dmitrymomot/tenantkit/pkg/tenant"
	"github.com/dmitrymomot/tenantkit/svc/order"
	"github.com/dmitrymomot/tenantkit/svc/product"
	tenantsvc "github.com/dmitrymomot/tenantkit/svc/tenant"
	"github.com/dmitrymomot/tenantkit/svc/user"
)

type appConfig struct {
	HTTP  httpserver.Config
	PG    pg.Config
	Redis redis.Config
	SNS   events.SNSConfig

	LogLevel    slog.Level `env:"LOG_LEVEL" envDefault:"info"`
	EventsTopic bool       `env:"EVENTS_ENABLED" envDefault:"false"` // publish order events to SNS
}

func main() {
	ctx := context.Background()

	var cfg appConfig
	config.MustLoad(&cfg)

	log := logger.New(
		logger.WithLevel(cfg.LogLevel),
		logger.WithContextExtractors(
			requestid.LoggerExtractor(),
			tenant.LoggerExtractor(),
		),
	)
	slog.SetDefault(log)

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg appConfig, log *slog.Logger) error {
	provider, err := pg.NewProvider(ctx, cfg.PG)
	if err != nil {
		return err
	}
	defer provider.Close()

	if err := pg.Migrate(ctx, provider.Shared(), cfg.PG, log); err != nil {
		return err
	}

	redisClient, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	tenantStore := tenantsvc.NewPGStore(provider.Shared())
	enforcer := limits.NewEnforcer(tenantStore)
	recordCache := tenant.NewRedisCache(redisClient, "tenant:")

	enqueuer, err := queue.NewEnqueuer(queue.NewMemoryStorage())
	if err != nil {
		return err
	}

	tenantService := tenantsvc.NewService(tenantStore, enqueuer,
		tenantsvc.WithLogger(log),
		tenantsvc.WithRecordCache(recordCache),
	)

	orderOpts := []order.ServiceOption{order.WithLogger(log)}
	if cfg.EventsTopic {
		topic, err := events.NewSNSPublisher(ctx, cfg.SNS)
		if err != nil {
			return err
		}
		orderOpts = append(orderOpts, order.WithPublisher(order.NewSNSPublisher(topic)))
	}
	orderService := order.NewService(order.NewPGRepository(provider), enforcer, orderOpts...)
	productService := product.NewService(product.NewPGRepository(provider), enforcer, product.WithLogger(log))
	userService := user.NewService(user.NewPGRepository(provider), enforcer, user.WithLogger(log))

	limiter, err := ratelimit.NewLimiter(ratelimit.NewRedisStore(redisClient))
	if err != nil {
		return err
	}

	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", httpserver.HealthCheckHandler(log))
	r.Get("/readyz", httpserver.HealthCheckHandler(log,
		pg.Healthcheck(provider.Shared()),
		redis.Healthcheck(redisClient),
	))

	r.Group(func(r chi.Router) {
		// Tenant sign-up happens before a tenant exists, so resolution and
		// record loading are skipped for it; every other route requires a
		// resolved, active tenant within its hourly call budget.
		skipPaths := []string{"/tenants/register"}
		r.Use(tenant.Middleware(tenant.DefaultResolver(),
			tenant.WithSkipPaths(skipPaths...),
		))
		r.Use(tenant.RecordLoader(tenantStore,
			tenant.WithCache(recordCache),
			tenant.WithSkipPaths(skipPaths...),
		))
		r.Use(ratelimit.Middleware(limiter, tenantStore, log))

		r.Mount("/tenants", tenantsvc.Router(tenantService))
		r.Mount("/products", product.Router(productService))
		r.Mount("/orders", order.Router(orderService))
		r.Mount("/users", user.Router(userService))
	})

	return httpserver.New(cfg.HTTP, log).Run(ctx, r)
}
