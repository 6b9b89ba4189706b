package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"cyborgian/internal/app"
	"cyborgian/internal/config"
	"cyborgian/internal/console"
	"cyborgian/internal/logging"
	"cyborgian/internal/response"
	v "cyborgian/internal/version"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := rootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	var logLevel string
	root := &cobra.Command{
		Use:   "cli",
		Short: "Run " + v.AppName + " commands from the terminal",
		Long: `Reads one command per line from standard input, without the separator,
and prints the replies. Type "quit" to exit.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConsole(cmd.Context(), logLevel)
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override LOG_LEVEL")
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n", v.AppName, v.Version, v.GoVersion)
		},
	})
	return root
}

func runConsole(ctx context.Context, logLevel string) error {
	cfg, err := config.New()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	log, closer, err := logging.Setup(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(cfg, log, response.NewPlain)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	a.Start(gctx, g)

	fmt.Printf("%s %s console. Type \"quit\" to exit.\n", v.AppName, v.Version)
	runErr := console.Run(ctx, os.Stdin, os.Stdout, a.Service)
	cancel()
	return errors.Join(runErr, g.Wait())
}
