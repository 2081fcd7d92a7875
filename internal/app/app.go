package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"

	"github.com/utafrali/storefront/internal/cartstate"
	"github.com/utafrali/storefront/internal/config"
	"github.com/utafrali/storefront/internal/domain"
	handler "github.com/utafrali/storefront/internal/handler/http"
	"github.com/utafrali/storefront/internal/locale"
	"github.com/utafrali/storefront/internal/media"
	"github.com/utafrali/storefront/internal/normalize"
	redisrepo "github.com/utafrali/storefront/internal/repository/redis"
	"github.com/utafrali/storefront/internal/storefront"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/health"
	"github.com/utafrali/storefront/pkg/httpclient"
	"github.com/utafrali/storefront/pkg/tracing"
)

// Version is reported in traces.
const Version = "0.1.0"

// persistTimeout bounds each write of the locale preference or cart snapshot.
const persistTimeout = 2 * time.Second

// App wires together all dependencies of one storefront session.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	rdb        *redis.Client
	locales    *locale.State
	localePref *redisrepo.LocaleStore
	snapshots  *redisrepo.CartSnapshotRepository
	norm       *normalize.Normalizer
	breaker    *httpclient.CircuitBreakerClient
	client     *storefront.Client
	cart       *cartstate.Controller
	health     *health.Handler
	httpServer *http.Server

	shutdownTracer func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
// Redis is optional: when it cannot be reached the session runs without a
// persisted locale or cart snapshot.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}

	shutdownTracer, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    "storefront",
		ServiceVersion: Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SampleRate:     cfg.TraceSampleRate,
		Enabled:        cfg.TracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}
	a.shutdownTracer = shutdownTracer

	def, supported := cfg.Locales()
	a.locales = locale.NewState(def, supported)

	a.connectRedis(ctx)
	if a.rdb != nil {
		a.localePref = redisrepo.NewLocaleStore(a.rdb, cfg.DeviceID)
		a.snapshots = redisrepo.NewCartSnapshotRepository(a.rdb, cfg.DeviceID, cfg.SnapshotTTL)
		if err := a.locales.Restore(ctx, a.localePref); err != nil {
			logger.Warn("restore locale preference failed", slog.String("error", err.Error()))
		}
	}

	images, err := media.NewResolver(cfg.APIBaseURL)
	if err != nil {
		return nil, fmt.Errorf("build image resolver: %w", err)
	}
	a.norm = normalize.New(def, images, normalize.WithSupportedLocales(supported))

	session := storefront.NewSessionToken(cfg.APIToken)
	if sub := session.Subject(); sub != "" {
		a.logger.Info("api session loaded", slog.String("subject", sub))
	}

	// Transport: retrying client behind a circuit breaker.
	httpClient := httpclient.New(httpclient.Config{
		Timeout:           cfg.RequestTimeout,
		MaxRetries:        cfg.MaxRetries,
		RetryWaitMin:      cfg.RetryWaitMin,
		RetryWaitMax:      cfg.RetryWaitMax,
		MaxConnsPerHost:   10,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.Burst,
	},
		storefront.AcceptLanguage(a.locales),
		storefront.BearerAuth(session),
		storefront.CorrelationID(),
		storefront.TraceContext(),
	)
	a.breaker = httpclient.NewCircuitBreakerClient(httpClient, httpclient.CircuitBreakerConfig{
		Name:         "storefront-api",
		MaxRequests:  cfg.CBMaxRequests,
		Interval:     cfg.CBInterval,
		Timeout:      cfg.CBTimeout,
		FailureRatio: cfg.CBFailureRatio,
		MinRequests:  cfg.CBMinRequests,
	}, logger)
	a.client = storefront.NewClient(a.breaker, cfg.APIBaseURL, a.norm, a.locales)

	a.cart = cartstate.NewController(a.client, a.norm.WithLocale(a.locales.Current()), logger)
	a.seedCart(ctx)
	a.cart.Subscribe(a.saveSnapshot)
	a.locales.Subscribe(a.switchLocale)

	a.health = health.NewHandler()
	a.health.Register("storefront_api", func(context.Context) error {
		if a.breaker.State() == gobreaker.StateOpen {
			return errors.New("circuit breaker is open")
		}
		return nil
	})
	if a.rdb != nil {
		a.health.RegisterOptional("redis", func(ctx context.Context) error {
			return a.rdb.Ping(ctx).Err()
		})
	}

	a.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      handler.NewRouter(a.cart, a.locales, a.health, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return a, nil
}

// Client returns the storefront API client, normalizing in the active locale.
func (a *App) Client() *storefront.Client { return a.client }

// Cart returns the cart controller of this session.
func (a *App) Cart() *cartstate.Controller { return a.cart }

// Locales returns the session's locale state.
func (a *App) Locales() *locale.State { return a.locales }

// Handler returns the diagnostics HTTP handler.
func (a *App) Handler() http.Handler { return a.httpServer.Handler }

func (a *App) connectRedis(ctx context.Context) {
	if a.cfg.RedisAddr == "" {
		a.logger.Info("redis disabled, locale and cart snapshot will not persist")
		return
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     a.cfg.RedisAddr,
		Password: a.cfg.RedisPass,
		DB:       a.cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		a.logger.Warn("redis unavailable, continuing without persistence",
			slog.String("addr", a.cfg.RedisAddr),
			slog.String("error", err.Error()),
		)
		_ = rdb.Close()
		return
	}
	a.logger.Info("connected to Redis",
		slog.String("addr", a.cfg.RedisAddr),
		slog.Int("db", a.cfg.RedisDB),
	)
	a.rdb = rdb
}

// seedCart shows the last saved cart until the first fetch completes.
func (a *App) seedCart(ctx context.Context) {
	if a.snapshots == nil {
		return
	}
	raw, err := a.snapshots.Get(ctx)
	switch {
	case err == nil:
		a.cart.Seed(raw)
		a.logger.Debug("cart seeded from snapshot")
	case errors.Is(err, apperrors.ErrNotFound):
	default:
		a.logger.Warn("load cart snapshot failed", slog.String("error", err.Error()))
	}
}

// saveSnapshot persists carts the server has confirmed. Optimistic
// intermediate carts are skipped.
func (a *App) saveSnapshot(cart domain.Cart) {
	if a.snapshots == nil || !a.cart.Settled() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := a.snapshots.Save(ctx, cart); err != nil {
		a.logger.Warn("save cart snapshot failed", slog.String("error", err.Error()))
	}
}

// switchLocale follows a locale change: persist the preference, normalize
// future cart responses in the new locale and refetch the cart so item copy
// is localized.
func (a *App) switchLocale(loc locale.Locale) {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.RequestTimeout+persistTimeout)
	defer cancel()

	log := a.logger.With(slog.String("locale", loc.String()))
	if a.localePref != nil {
		if err := a.localePref.Save(ctx, loc); err != nil {
			log.Warn("save locale preference failed", slog.String("error", err.Error()))
		}
	}

	a.cart.SetNormalizer(a.norm.WithLocale(loc))
	if err := a.cart.Refresh(ctx); err != nil {
		log.Warn("refresh cart after locale change failed", slog.String("error", err.Error()))
	}
}

// Run starts the diagnostics server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	if err := a.cart.Refresh(ctx); err != nil {
		a.logger.Warn("initial cart fetch failed", slog.String("error", err.Error()))
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("starting diagnostics server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
	}

	if err := a.shutdownTracer(shutdownCtx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
	}

	a.logger.Debug("application shutdown complete")
	return nil
}
