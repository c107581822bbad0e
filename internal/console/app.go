// Package console wires the session manager, the backend client and the
// entity services into one App, and serves them over echo.
package console

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/ehr/hospital-console/internal/config"
	"github.com/ehr/hospital-console/internal/domain/admin"
	"github.com/ehr/hospital-console/internal/domain/billing"
	"github.com/ehr/hospital-console/internal/domain/dashboard"
	"github.com/ehr/hospital-console/internal/domain/documents"
	"github.com/ehr/hospital-console/internal/domain/encounter"
	"github.com/ehr/hospital-console/internal/domain/identity"
	"github.com/ehr/hospital-console/internal/domain/scheduling"
	"github.com/ehr/hospital-console/internal/platform/analytics"
	"github.com/ehr/hospital-console/internal/platform/apiclient"
	"github.com/ehr/hospital-console/internal/platform/db"
	"github.com/ehr/hospital-console/internal/platform/live"
	"github.com/ehr/hospital-console/internal/platform/session"
	"github.com/ehr/hospital-console/internal/platform/telemetry"
)

// App is one console process: a single session shared by every surface.
type App struct {
	Config    *config.Config
	Logger    zerolog.Logger
	Store     session.Store
	Client    *apiclient.Client
	Session   *session.Manager
	Telemetry *telemetry.Provider
	Usage     *analytics.UsageTracker
	Live      *live.Hub

	Identity     *identity.Service
	Appointments *scheduling.Service
	Stays        *encounter.Service
	Documents    *documents.Service
	Billing      *billing.Service
	Users        *admin.Service
	Dashboard    *dashboard.Service

	checks  map[string]db.Check
	closers []func()
}

type Option func(*options)

type options struct {
	store     session.Store
	telemetry *telemetry.Provider
}

// WithStore bypasses SESSION_STORE; tests pass a MemoryStore.
func WithStore(s session.Store) Option {
	return func(o *options) { o.store = s }
}

func WithTelemetry(p *telemetry.Provider) Option {
	return func(o *options) { o.telemetry = p }
}

// NewApp opens the session store, builds the backend client and restores any
// stored session. Close releases the store connections.
func NewApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	app := &App{
		Config: cfg,
		Logger: logger,
		Usage:  analytics.NewUsageTracker(0),
		Live:   live.NewHub(logger.With().Str("component", "live").Logger()),
		checks: map[string]db.Check{},
	}
	app.Telemetry = o.telemetry
	if app.Telemetry == nil {
		app.Telemetry = telemetry.NewProvider(true)
	}

	app.Store = o.store
	if app.Store == nil {
		if err := app.openStore(ctx); err != nil {
			return nil, err
		}
	}
	app.checks["session_store"] = func(ctx context.Context) error {
		if _, err := app.Store.Get(ctx, session.KeyToken); err != nil && !errors.Is(err, session.ErrNotFound) {
			return err
		}
		return nil
	}

	clientOpts := []apiclient.Option{
		apiclient.WithTimeout(cfg.HTTPTimeout),
		apiclient.WithTokenSource(session.StoreTokens{Store: app.Store}),
		apiclient.WithLogger(logger.With().Str("component", "apiclient").Logger()),
		apiclient.WithRecorder(app.Telemetry),
	}
	if cfg.RateLimitRPS > 0 {
		clientOpts = append(clientOpts, apiclient.WithLimiter(rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)))
	}
	// A 401 from /auth/login is a rejected credential, not an expired session,
	// so the login client carries no unauthorized hook.
	loginClient := apiclient.New(cfg.APIBaseURL, clientOpts...)
	app.Client = apiclient.New(cfg.APIBaseURL, append(clientOpts,
		apiclient.WithUnauthorizedHandler(func(ctx context.Context) {
			if app.Session == nil {
				return
			}
			if err := app.Session.Logout(ctx); err != nil {
				logger.Error().Err(err).Msg("logout after 401 failed")
			}
		}))...)

	mgr, err := session.NewManager(ctx, app.Store, loginClient,
		session.WithLogger(logger.With().Str("component", "session").Logger()),
		session.WithEvents(app.Telemetry))
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("restore session: %w", err)
	}
	app.Session = mgr

	relayCtx, stopRelay := context.WithCancel(context.Background())
	profiles, unsubscribe := mgr.Subscribe()
	go app.Live.RelaySession(relayCtx, profiles)
	app.closers = append(app.closers, func() {
		stopRelay()
		unsubscribe()
	})

	app.Identity = identity.NewService(app.Client)
	app.Appointments = scheduling.NewService(app.Client)
	app.Stays = encounter.NewService(app.Client)
	app.Documents = documents.NewService(app.Client)
	app.Billing = billing.NewService(app.Client)
	app.Users = admin.NewService(app.Client)
	app.Dashboard = dashboard.NewService(app.Client)
	return app, nil
}

func (a *App) openStore(ctx context.Context) error {
	cfg := a.Config
	switch cfg.SessionStore {
	case config.StoreMemory:
		a.Store = session.NewMemoryStore()
	case config.StoreFile:
		a.Store = session.NewFileStore(cfg.SessionFile)
	case config.StoreRedis:
		rs, err := session.NewRedisStore(ctx, cfg.RedisURL, cfg.SessionKeyPrefix)
		if err != nil {
			return err
		}
		a.Store = rs
		a.checks["redis"] = rs.Ping
		a.closers = append(a.closers, func() { rs.Close() })
	case config.StorePostgres:
		pool, err := OpenPool(ctx, cfg)
		if err != nil {
			return err
		}
		a.Store = session.NewPGStore(pool)
		a.checks["database"] = db.PoolCheck(pool)
		a.closers = append(a.closers, pool.Close)
	default:
		return fmt.Errorf("unknown session store %q", cfg.SessionStore)
	}
	a.Logger.Debug().Str("store", cfg.SessionStore).Msg("session store ready")
	return nil
}

// OpenPool connects to DATABASE_URL with the configured schema and sizing.
func OpenPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	return db.NewPool(ctx, cfg.DatabaseURL, cfg.DBSchema, cfg.DBMaxConns, cfg.DBMinConns)
}

// HealthChecks returns the probes served at /health.
func (a *App) HealthChecks() map[string]db.Check {
	out := make(map[string]db.Check, len(a.checks))
	for k, v := range a.checks {
		out[k] = v
	}
	return out
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
