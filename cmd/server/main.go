package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tallybook/tallybook/modules/identity"
	"github.com/tallybook/tallybook/modules/ledger"
	"github.com/tallybook/tallybook/modules/profile"
	"github.com/tallybook/tallybook/modules/subscription"
	"github.com/tallybook/tallybook/pkg/billing"
	"github.com/tallybook/tallybook/pkg/config"
	"github.com/tallybook/tallybook/pkg/httpserver"
	"github.com/tallybook/tallybook/pkg/logger"
	"github.com/tallybook/tallybook/pkg/pg"
	"github.com/tallybook/tallybook/pkg/plan"
	"github.com/tallybook/tallybook/pkg/quota"
	"github.com/tallybook/tallybook/pkg/ratelimit"
	redispkg "github.com/tallybook/tallybook/pkg/redis"
)

type appConfig struct {
	Logger   logger.Config
	HTTP     httpserver.Config
	PG       pg.Config
	Redis    redispkg.Config
	Paddle   billing.PaddleConfig
	Identity identity.Config
	Billing  subscription.Config
	Rate     ratelimit.Config

	// PlanCatalogPath points at a YAML plan catalog. Empty means the
	// built-in defaults (free: 5 per resource per week, pro: unlimited).
	PlanCatalogPath string `env:"PLAN_CATALOG_PATH"`
}

func main() {
	var cfg appConfig
	config.MustLoad(&cfg)

	log := logger.NewFromConfig(cfg.Logger, logger.WithService("tallybook"))
	slog.SetDefault(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx, cfg, log); err != nil {
		log.ErrorContext(ctx, "server exited with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg appConfig, log *slog.Logger) error {
	pool, err := pg.Connect(ctx, cfg.PG)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, cfg.PG, log); err != nil {
		return err
	}

	healthchecks := []func(context.Context) error{pg.Healthcheck(pool)}

	// Redis only backs the billing-endpoint rate limiter; losing it
	// degrades to per-instance in-memory limiting instead of failing boot.
	var rlStore ratelimit.Store
	if redisClient, err := redispkg.Connect(ctx, cfg.Redis); err != nil {
		log.WarnContext(ctx, "redis unavailable, using in-memory rate limiting", slog.Any("error", err))
		rlStore = ratelimit.NewMemoryStore()
	} else {
		defer redisClient.Close()
		rlStore = ratelimit.NewRedisStore(redisClient, "rl:billing")
		healthchecks = append(healthchecks, redispkg.Healthcheck(redisClient))
	}

	catalog, err := planCatalog(ctx, cfg.PlanCatalogPath)
	if err != nil {
		return err
	}

	paddleProvider, err := billing.NewPaddleProvider(cfg.Paddle)
	if err != nil {
		return err
	}

	identityProvider, err := identity.NewHTTPProvider(cfg.Identity)
	if err != nil {
		return err
	}

	profileStore := profile.NewRepository(pool)
	ledgerRepo := ledger.NewRepository(pool)

	quotaSvc := quota.NewService(catalog, ledger.Counters(ledgerRepo), profile.TierResolver(profileStore))
	ledgerSvc := ledger.NewService(ledgerRepo, quotaSvc)

	reconciler := subscription.NewReconciler(paddleProvider, profileStore,
		subscription.WithReconcileTimeout(cfg.Billing.ReconcileTimeout),
		subscription.WithReconcilerLogger(log))
	checkout := subscription.NewCheckoutService(paddleProvider, reconciler, catalog,
		subscription.WithSuccessURL(cfg.Billing.CheckoutSuccessURL),
		subscription.WithPostCheckoutDelay(cfg.Billing.CheckoutSettleDelay),
		subscription.WithCheckoutLogger(log))

	active := subscription.NewActiveSet(2 * cfg.Billing.PollInterval)
	poller := subscription.NewPoller(reconciler, active.Source(), cfg.Billing.PollInterval, log)
	go func() {
		if err := poller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.ErrorContext(ctx, "subscription poller stopped", slog.Any("error", err))
		}
	}()

	provision := func(ctx context.Context, session identity.Session) error {
		if _, err := profileStore.Ensure(ctx, session.OwnerID, session.Email); err != nil {
			return err
		}
		active.Touch(subscription.Owner{ID: session.OwnerID, Email: session.Email})
		return nil
	}

	limiter := ratelimit.New(rlStore, cfg.Rate)
	rateKey := func(r *http.Request) string {
		if session, ok := identity.GetSessionFromContext(r.Context()); ok {
			return session.OwnerID.String()
		}
		return ""
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Get("/health", httpserver.HealthCheckHandler(log, healthchecks...))

	r.Group(func(r chi.Router) {
		r.Use(identity.Middleware(identityProvider, provision, log))
		r.Mount("/profile", profile.NewRouter(profileStore, log))
		r.With(ratelimit.Middleware(limiter, rateKey)).
			Mount("/billing", subscription.NewRouter(reconciler, checkout, log))
		r.Mount("/", ledger.NewRouter(ledgerSvc, log))
	})

	return httpserver.New(cfg.HTTP, log).Run(ctx, r)
}

func planCatalog(ctx context.Context, path string) (*plan.Catalog, error) {
	source := plan.NewStaticSource(plan.DefaultCatalog())
	if path != "" {
		source = plan.NewFileSource(path)
	}
	return source.Load(ctx)
}
