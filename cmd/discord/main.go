// cmd/discord/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"cyborgian/internal/app"
	"cyborgian/internal/config"
	"cyborgian/internal/discord"
	"cyborgian/internal/logging"
	"cyborgian/internal/response"
	v "cyborgian/internal/version"

	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.New()
	if err != nil {
		return err
	}
	if err := cfg.ValidateDiscord(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, closer, err := logging.Setup(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		return err
	}
	defer closer.Close()
	log.Info().Str("version", v.Version).Msgf("Starting %v bot...", v.AppName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(cfg, log, response.NewEmbed)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close storage")
		}
	}()

	bot, err := discord.New(cfg, a.Registry, a.Service, log)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	a.Start(ctx, g)
	g.Go(func() error { return bot.Run(ctx) })

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Discord bot error")
		return err
	}
	log.Info().Msg("Discord bot exited cleanly")
	return nil
}
