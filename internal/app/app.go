package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/NordCoder/Krymon/internal/domain/service"
	"github.com/NordCoder/Krymon/internal/services/api"
	"github.com/NordCoder/Krymon/internal/services/poller"
	"github.com/NordCoder/Krymon/internal/services/prober"
	"github.com/NordCoder/Krymon/internal/services/registry"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const DefaultPeriod = 60 * time.Second

type Config struct {
	HTTPAddr     string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	Period      time.Duration
	Concurrency int

	CORSOrigins []string
	RateLimit   float64
	RateBurst   int
}

// App binds the registry, the poll loop and the HTTP API into one process.
type App struct {
	log      *zap.Logger
	cfg      Config
	registry *registry.Usecase
	runner   *poller.Runner
	handler  http.Handler

	mu      sync.Mutex
	running bool
	ln      net.Listener
	srv     *http.Server
	cancel  context.CancelFunc
	done    chan struct{}
}

func New(log *zap.Logger, cfg Config, store service.Store, p prober.Prober, metrics prometheus.Registerer) *App {
	if cfg.Period <= 0 {
		cfg.Period = DefaultPeriod
	}
	if metrics == nil {
		metrics = prometheus.DefaultRegisterer
	}

	reg := registry.New(store)
	runner := poller.New(log.Named("poller"), poller.NewUC(reg, p, cfg.Concurrency), cfg.Period, metrics)
	handler := api.NewRouter(log.Named("api"), api.NewServer(log.Named("api"), reg), api.RouterConfig{
		CORSOrigins: cfg.CORSOrigins,
		RateLimit:   cfg.RateLimit,
		RateBurst:   cfg.RateBurst,
		Metrics:     metrics,
	})

	return &App{
		log:      log,
		cfg:      cfg,
		registry: reg,
		runner:   runner,
		handler:  handler,
	}
}

func (a *App) Registry() *registry.Usecase { return a.registry }

// Start binds the HTTP listener and begins polling. Calling Start on a
// running App succeeds without doing anything.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.running {
		return nil
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", a.cfg.HTTPAddr)
	if err != nil {
		a.log.Error("failed to start", zap.String("addr", a.cfg.HTTPAddr), zap.Error(err))
		return fmt.Errorf("listen %s: %w", a.cfg.HTTPAddr, err)
	}

	srv := &http.Server{
		Handler:           a.handler,
		ReadTimeout:       a.cfg.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      a.cfg.WriteTimeout,
		IdleTimeout:       a.cfg.IdleTimeout,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("http server error", zap.Error(err))
		}
	}()

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = a.runner.Run(runCtx)
	}()

	a.ln, a.srv, a.cancel, a.done = ln, srv, cancel, done
	a.running = true
	a.log.Info("listening on", zap.String("addr", ln.Addr().String()), zap.Duration("period", a.cfg.Period))
	return nil
}

// Stop halts polling, waits for an in-flight cycle and drains the HTTP
// server within ctx.
func (a *App) Stop(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.running {
		return nil
	}
	a.running = false

	a.cancel()
	err := a.srv.Shutdown(ctx)

	select {
	case <-a.done:
	case <-ctx.Done():
		err = errors.Join(err, fmt.Errorf("poll loop still running: %w", ctx.Err()))
	}
	a.log.Info("stopped")
	return err
}

// Addr is the bound listener address, empty when not running.
func (a *App) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.running {
		return ""
	}
	return a.ln.Addr().String()
}
