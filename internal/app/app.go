// Package app assembles the avatar bot: configuration, infrastructure,
// conversation core and the Telegram adapter.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/m3rciful/avatarbot/core/bootstrap"
	corecmd "github.com/m3rciful/avatarbot/core/cmd"
	coredatabase "github.com/m3rciful/avatarbot/core/database"
	"github.com/m3rciful/avatarbot/core/logger"
	coretelegram "github.com/m3rciful/avatarbot/core/telegram"
	"github.com/m3rciful/avatarbot/core/telegram/router"
	tgsender "github.com/m3rciful/avatarbot/core/telegram/sender"
	"github.com/m3rciful/avatarbot/internal/conversation"
	"github.com/m3rciful/avatarbot/internal/health"
	"github.com/m3rciful/avatarbot/internal/journal"
	"github.com/m3rciful/avatarbot/internal/render"
	"github.com/m3rciful/avatarbot/internal/session"
)

const (
	renderRetries = 2
	renderBackoff = 500 * time.Millisecond
	sendRetries   = 2
)

// Renderer resolves render requests into images.
type Renderer interface {
	Fetch(ctx context.Context, req conversation.RenderRequest) (render.Image, error)
}

// App is the assembled bot.
type App struct {
	cfg        *Config
	infra      *bootstrap.Result
	dispatcher *conversation.Dispatcher
	renderer   Renderer
	journal    journal.Recorder
	out        outbox

	sender    atomic.Pointer[tgsender.Dispatcher]
	health    *health.Server
	healthErr chan error
	closeOnce sync.Once
}

// Bootstrap initializes logging, the optional journal database and the
// conversation core. It matches corecmd.Options.Bootstrap.
func Bootstrap(ctx context.Context, carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
	cfg, ok := carrier.(*Config)
	if !ok || cfg == nil {
		return nil, fmt.Errorf("app: unexpected config type %T", carrier)
	}

	var db *coredatabase.Config
	if cfg.Journal.Enabled {
		db = &cfg.Journal.Database
	}
	infra, err := bootstrap.Run(ctx, bootstrap.Options{Config: &cfg.Config, Database: db})
	if err != nil {
		return nil, err
	}

	renderer, err := render.New(render.Options{
		BaseURL: cfg.Avatar.BaseURL,
		Format:  cfg.Avatar.Format,
		Timeout: cfg.Avatar.FetchTimeout(),
	}, coretelegram.BuildHTTPClient(coretelegram.HTTPClientOptions{
		Timeout:         cfg.Avatar.FetchTimeout(),
		ResponseTimeout: cfg.Avatar.FetchTimeout(),
		MaxRetries:      renderRetries,
		RetryBackoff:    renderBackoff,
	}))
	if err != nil {
		_ = infra.Close()
		return nil, err
	}

	var rec journal.Recorder = journal.NopRecorder{}
	if infra.DB != nil {
		pg, err := journal.NewPostgres(infra.DB)
		if err != nil {
			_ = infra.Close()
			return nil, err
		}
		rec = pg
	}

	a, err := New(cfg, Deps{Renderer: renderer, Journal: rec})
	if err != nil {
		_ = infra.Close()
		return nil, err
	}
	a.infra = infra
	logger.Info(ctx, "app", "bootstrap",
		slog.Bool("journal", infra.DB != nil),
		slog.Bool("health", cfg.Health.Listen != ""),
		slog.String("render_base", cfg.Avatar.BaseURL),
	)
	return a, nil
}

// Deps are the collaborators New wires into the App. Nil fields get defaults.
type Deps struct {
	Store    session.Store
	Renderer Renderer
	Journal  journal.Recorder
	out      outbox
}

// New assembles an App from an already loaded configuration.
func New(cfg *Config, deps Deps) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: nil config")
	}
	if deps.Renderer == nil {
		return nil, errors.New("app: nil renderer")
	}
	if deps.Store == nil {
		deps.Store = session.NewMemoryStore()
	}
	if deps.Journal == nil {
		deps.Journal = journal.NopRecorder{}
	}
	if deps.out == nil {
		deps.out = telegramOutbox{}
	}

	d, err := conversation.NewDispatcher(deps.Store, conversation.Options{MenuColumns: cfg.Avatar.MenuColumns})
	if err != nil {
		return nil, err
	}
	return &App{
		cfg:        cfg,
		dispatcher: d,
		renderer:   deps.Renderer,
		journal:    deps.Journal,
		out:        deps.out,
	}, nil
}

// TelegramRunOptions implements corecmd.TelegramApp.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := coretelegram.NewRegistry()
	for _, cmd := range a.dispatcher.Commands() {
		if err := reg.RegisterCommand(coretelegram.Command{Name: cmd.Keyword, Description: cmd.Description}); err != nil {
			return coretelegram.RunOptions{}, err
		}
	}

	return coretelegram.RunOptions{
		Config:            &a.cfg.Config,
		Registry:          reg,
		DispatcherOptions: tgsender.Options{MaxRetries: sendRetries},
		Middlewares:       coretelegram.DefaultMiddlewares(&a.cfg.Config, a.onLimited),
		Routes: []coretelegram.Route{
			router.TextRoute(a.handleText),
			router.CallbackRoute(a.handleCallback),
		},
		OnStart: a.start,
		OnStop:  a.stop,
	}, nil
}

func (a *App) start(ctx context.Context, rt coretelegram.Runtime) error {
	a.sender.Store(rt.Dispatcher)
	if a.cfg.Health.Listen == "" {
		return nil
	}
	srv, err := health.Listen(a.cfg.Health.Listen, a)
	if err != nil {
		return fmt.Errorf("app: health listen: %w", err)
	}
	a.health = srv
	a.healthErr = make(chan error, 1)
	go func() { a.healthErr <- srv.Serve(ctx) }()
	return nil
}

func (a *App) stop(ctx context.Context, _ coretelegram.Runtime) error {
	if a.health == nil {
		return nil
	}
	if err := a.health.Shutdown(ctx); err != nil {
		return fmt.Errorf("app: health shutdown: %w", err)
	}
	return <-a.healthErr
}

// Close releases the journal database.
func (a *App) Close() error {
	var err error
	a.closeOnce.Do(func() { err = a.infra.Close() })
	return err
}

// Sessions reports the number of known users.
func (a *App) Sessions() int { return a.dispatcher.Sessions() }

// SendErrors reports outbound sends that failed after retries.
func (a *App) SendErrors() uint64 {
	if d := a.sender.Load(); d != nil {
		return d.ErrorCount()
	}
	return 0
}
