package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/desertthunder/tunebot/internal/bot"
	"github.com/desertthunder/tunebot/internal/repositories"
	"github.com/desertthunder/tunebot/internal/server"
	"github.com/desertthunder/tunebot/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve runs the webhook server connected to the chat gateway.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	gatewayURL := cmd.String("gateway")

	config, err := r.loadConfig(configPath)
	if err != nil {
		return err
	}
	if gatewayURL == "" {
		return fmt.Errorf("%w: --gateway base URL is required", shared.ErrMissingArgument)
	}

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	transport := server.NewGatewayTransport(gatewayURL, config.Server.Secret, r.httpClient)

	dispatcher := bot.NewDispatcher(bot.Opts{
		Search:    r.search,
		Downloads: r.downloads,
		Cache:     r.cache,
		Users:     repositories.NewUserRepository(db),
		History:   repositories.NewHistoryRepository(db),
		Transport: transport,
		Logger:    r.logger,
		Limit:     config.Search.ResultLimit,
	})

	router := server.NewBasicRouter()
	router.Use(server.LoggingMiddleware(r.logger))
	router.Use(server.SecretMiddleware(config.Server.Secret))
	router.Handler(server.NewWebhookHandler(dispatcher, r.logger))

	srv := server.NewServer(config.Server.Host, config.Server.Port, router, r.logger)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errs := make(chan error, 1)
	go func() { errs <- srv.Start() }()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	r.logger.Info("shutting down")
	r.downloads.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
