// Package app wires the command pipeline shared by every transport.
package app

import (
	"context"
	"errors"
	"fmt"

	"cyborgian/internal/bot"
	"cyborgian/internal/command"
	"cyborgian/internal/commands"
	"cyborgian/internal/config"
	"cyborgian/internal/dispatch"
	"cyborgian/internal/metrics"
	"cyborgian/internal/response"
	"cyborgian/internal/storage"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type App struct {
	Config     *config.Config
	Store      *storage.Storage
	Metrics    *metrics.Metrics
	Dispatcher *dispatch.Dispatcher
	Registry   *command.Registry
	Service    *bot.Service

	log zerolog.Logger
}

// New opens storage and registers every command. newBuilder selects the
// reply rendering of the transport.
func New(cfg *config.Config, log zerolog.Logger, newBuilder func() *response.Builder) (*App, error) {
	store, err := storage.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	m := metrics.New()
	d := dispatch.New(dispatch.Config{
		BaseURL:   cfg.APIBaseURL,
		UserAgent: cfg.UserAgent,
		Interval:  cfg.APIInterval,
		Metrics:   m,
		Logger:    log,
	})

	reg := command.NewRegistry(
		command.WithLogger(log),
		command.WithMiddleware(
			command.WithTracing(),
			command.WithLogging(log),
			command.WithMetrics(m),
		),
	)
	for _, desc := range commands.Descriptors(commands.Deps{
		Config:     cfg,
		Dispatcher: d,
		NewBuilder: newBuilder,
		Commands:   reg,
		Usage:      store,
		Logger:     log,
	}) {
		if err := reg.Register(desc); err != nil {
			return nil, errors.Join(fmt.Errorf("register %s: %w", desc.Name(), err), store.Close())
		}
	}

	svc := bot.New(bot.Config{
		Registry:       reg,
		Usage:          store,
		Stoppers:       []bot.Stopper{d},
		PrimaryGuildID: cfg.PrimaryGuildID,
		Logger:         log,
	})
	log.Info().Int("commands", reg.Len()).Msg("Commands registered")

	return &App{
		Config:     cfg,
		Store:      store,
		Metrics:    m,
		Dispatcher: d,
		Registry:   reg,
		Service:    svc,
		log:        log,
	}, nil
}

// Start runs the dispatcher and, if configured, the metrics server in g.
func (a *App) Start(ctx context.Context, g *errgroup.Group) {
	g.Go(func() error { return a.Dispatcher.Start(ctx) })
	if a.Config.MetricsAddr != "" {
		g.Go(func() error { return metrics.Serve(ctx, a.Config.MetricsAddr, a.Metrics, a.log) })
	}
}

// Close stops the service, waiting for in-flight messages, and closes
// storage.
func (a *App) Close() error {
	a.Service.Shutdown()
	return a.Store.Close()
}
