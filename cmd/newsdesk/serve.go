package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/poiesic/newsdesk/server"
	"github.com/urfave/cli/v2"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Serve the HTTP API",
		Action: serveAction,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "address",
				Usage: "Listen address; overrides server.address",
			},
			&cli.BoolFlag{
				Name:  "feeds",
				Usage: "Also poll the configured feeds on their schedules",
			},
		},
	}
}

func serveAction(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := loadedConfig(c)
	address := cfg.Server.Address
	if c.IsSet("address") {
		address = c.String("address")
	}

	desk, err := openDesk(ctx, c)
	if err != nil {
		return err
	}
	defer desk.Close()

	srv, err := server.New(desk, server.WithRecorder(desk.Metrics()), server.WithLogger(slog.Default()))
	if err != nil {
		return err
	}
	srv.Configure(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout)

	if c.Bool("feeds") && len(cfg.Feeds.Sources) > 0 {
		poller, err := desk.FeedPoller()
		if err != nil {
			return err
		}
		go func() {
			if err := poller.Run(ctx); err != nil {
				slog.Error("feed poller stopped", "err", err)
			}
		}()
	}

	errs := make(chan error, 1)
	go func() {
		errs <- srv.Start(address)
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down", "timeout", cfg.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return <-errs
}
