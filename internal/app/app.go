// Package app wires configuration, the session backend, the REST client,
// the store and the optional realtime feed into one object the CLI drives.
package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"talent-sync/internal/api"
	"talent-sync/internal/common/config"
	commonhttp "talent-sync/internal/common/http"
	"talent-sync/internal/common/logger"
	"talent-sync/internal/common/observability"
	"talent-sync/internal/realtime"
	"talent-sync/internal/session"
	"talent-sync/internal/slices/auth"
	"talent-sync/internal/store"
)

// Options overrides pieces New would otherwise build from cfg.
type Options struct {
	Config     *config.Config
	Logger     logger.Logger
	Session    session.Store
	Transport  commonhttp.Options
	Registerer prometheus.Registerer
	Now        func() time.Time
}

type App struct {
	cfg      *config.Config
	logger   logger.Logger
	sessions session.Store
	client   *api.Client
	store    *store.Store[RootState]
	obs      *observability.Observability
	realtime *realtime.Subscriber
	now      func() time.Time
}

func New(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	return NewWithOptions(ctx, Options{Config: cfg, Logger: log})
}

func NewWithOptions(ctx context.Context, opts Options) (*App, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	sessions := opts.Session
	if sessions == nil {
		var err error
		sessions, err = session.Open(ctx, cfg, log)
		if err != nil {
			return nil, fmt.Errorf("failed to open session store: %w", err)
		}
	}

	transport := opts.Transport
	if transport.Timeout == 0 {
		transport.Timeout = cfg.API.RequestTimeout()
	}
	if transport.RateLimit == 0 {
		transport.RateLimit = cfg.API.RateLimit
		transport.RateBurst = cfg.API.RateBurst
	}
	if transport.Logger == nil {
		transport.Logger = log
	}

	client := api.New(api.Options{
		BaseURL: cfg.API.BaseURL,
		HTTP:    commonhttp.NewClientWithOptions(transport),
		Session: sessions,
		Logger:  log,
	})

	a := &App{
		cfg:      cfg,
		logger:   log,
		sessions: sessions,
		client:   client,
		store:    store.New(InitialState(), Reduce, log),
		obs:      observability.New(cfg.App.Name, observability.Options{Registerer: opts.Registerer, Logger: log}),
		now:      now,
	}

	client.OnUnauthorized(func(context.Context) {
		a.store.Dispatch(auth.SessionExpired())
	})

	if cfg.Realtime.Enabled {
		url := cfg.Realtime.URL
		if url == "" {
			url = realtime.DeriveURL(cfg.API.BaseURL)
		}
		a.realtime = realtime.New(realtime.Options{
			URL:          url,
			Session:      sessions,
			Dispatcher:   a.store,
			MaxRetries:   cfg.Realtime.MaxRetries,
			InitialDelay: config.GetDuration(cfg.Realtime.InitialDelay),
			Logger:       log,
		})
	}

	log.Info("Client initialized", map[string]interface{}{
		"baseUrl":  cfg.API.BaseURL,
		"session":  cfg.Session.Backend,
		"realtime": cfg.Realtime.Enabled,
	})
	return a, nil
}

func (a *App) State() RootState { return a.store.GetState() }

func (a *App) Subscribe(fn store.Listener[RootState]) func() { return a.store.Subscribe(fn) }

func (a *App) Dispatch(action store.Action) { a.store.Dispatch(action) }

func (a *App) API() *api.Client { return a.client }

func (a *App) runtime() store.Runtime {
	return store.Runtime{Dispatcher: a.store, Observability: a.obs, Logger: a.logger}
}

// RealtimeEnabled reports whether StartRealtime has anything to run.
func (a *App) RealtimeEnabled() bool { return a.realtime != nil }

// StartRealtime blocks on the realtime feed until ctx ends.
func (a *App) StartRealtime(ctx context.Context) error {
	if a.realtime == nil {
		return nil
	}
	return a.realtime.Run(ctx)
}

func (a *App) Close() error {
	a.obs.Shutdown()
	if closer, ok := a.sessions.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
