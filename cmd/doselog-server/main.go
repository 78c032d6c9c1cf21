package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/at-ishikawa/doselog/internal/bootstrap"
	"github.com/at-ishikawa/doselog/internal/config"
	"github.com/at-ishikawa/doselog/internal/database"
	"github.com/at-ishikawa/doselog/internal/entry"
	"github.com/at-ishikawa/doselog/internal/server"
	"github.com/at-ishikawa/doselog/internal/sleep"
	"github.com/at-ishikawa/doselog/internal/supplement"
	"github.com/at-ishikawa/doselog/internal/tag"
)

var configFile string

func main() {
	rootCmd := &cobra.Command{
		Use:           "doselog-server",
		Short:         "Daily supplement journal HTTP server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	}
	rootCmd.Flags().StringVar(&configFile, "config", "", "config file path")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	app := bootstrap.New(logger)

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loadConfig() > %w", err)
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("database.Open() > %w", err)
	}
	app.AddShutdownHook("database", func(ctx context.Context) error {
		return db.Close()
	})

	sleepService := newSleepService(cfg.Sleep, logger)
	supplementRepository := supplement.NewDBSupplementRepository(db)
	handler := server.NewHandler(
		supplementRepository,
		entry.NewDBEntryRepository(db),
		tag.NewDBTagRepository(db),
		sleepService,
		logger,
	)

	srv := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: server.CORSMiddleware(
			cfg.Server.CORS.AllowedOrigins,
			h2c.NewHandler(handler.Routes(), &http2.Server{}),
		),
	}
	app.AddShutdownHook("server", srv.Shutdown)

	return app.Run(ctx, func(ctx context.Context) error {
		logger.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
}

func newSleepService(cfg config.SleepConfig, logger *slog.Logger) *sleep.Service {
	return sleep.NewService(
		cfg.ActiveSource,
		sleep.NewFileTokenStore(cfg.TokenFile),
		logger,
		sleep.NewFitbitClient(cfg.Fitbit, cfg.RedirectBaseURL, sleep.DefaultMaxRetryAttempts),
		sleep.NewWhoopClient(cfg.Whoop, cfg.RedirectBaseURL, sleep.DefaultMaxRetryAttempts),
	)
}

func loadConfig() (*config.Config, error) {
	loader, err := config.NewConfigLoader(configFile)
	if err != nil {
		return nil, fmt.Errorf("config.NewConfigLoader() > %w", err)
	}
	return loader.Load()
}
