// @title			VoxTask API
// @version		1.0
// @description	Task lifecycle orchestrator routing email and voice events through an auditable state machine.
// @BasePath		/api/v1

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/voxtask/voxtask/internal/config"
	"github.com/voxtask/voxtask/internal/database"
	"github.com/voxtask/voxtask/internal/handler"
	"github.com/voxtask/voxtask/internal/inbox"
	"github.com/voxtask/voxtask/internal/logger"
	"github.com/voxtask/voxtask/internal/repository"
	"github.com/voxtask/voxtask/internal/service"
)

func main() {
	app := &cli.App{
		Name:  "voxtask",
		Usage: "Task lifecycle orchestrator for email and voice channels",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Value:   "info",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:     "database-url",
				Aliases:  []string{"d"},
				Value:    config.DefaultDatabaseURL,
				Usage:    "PostgreSQL database URL",
				EnvVars:  []string{"DATABASE_URL"},
				Required: true,
			},
			&cli.StringFlag{
				Name:    "imap-host",
				Usage:   "IMAP server host (leave empty to disable inbox polling)",
				EnvVars: []string{"IMAP_HOST"},
			},
			&cli.IntFlag{
				Name:    "imap-port",
				Value:   config.DefaultIMAPPort,
				Usage:   "IMAP server port",
				EnvVars: []string{"IMAP_PORT"},
			},
			&cli.StringFlag{
				Name:    "imap-username",
				Usage:   "IMAP account username",
				EnvVars: []string{"IMAP_USERNAME"},
			},
			&cli.StringFlag{
				Name:    "imap-password",
				Usage:   "IMAP account password",
				EnvVars: []string{"IMAP_PASSWORD"},
			},
			&cli.IntFlag{
				Name:    "imap-fetch-limit",
				Value:   config.DefaultFetchLimit,
				Usage:   "Maximum unseen messages fetched per poll",
				EnvVars: []string{"IMAP_FETCH_LIMIT"},
			},
			&cli.IntFlag{
				Name:    "inbox-workers",
				Value:   config.DefaultInboxWorkers,
				Usage:   "Concurrent workers ingesting polled messages",
				EnvVars: []string{"INBOX_WORKERS"},
			},
			&cli.DurationFlag{
				Name:    "poll-timeout",
				Value:   config.DefaultPollTimeout,
				Usage:   "Deadline for a single inbox poll",
				EnvVars: []string{"POLL_TIMEOUT"},
			},
		},
		Before: func(c *cli.Context) error {
			logger.Setup(logger.ParseLevel(c.String("log-level")))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Start the web server",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "port",
						Aliases: []string{"p"},
						Value:   config.DefaultPort,
						Usage:   "HTTP server port",
						EnvVars: []string{"PORT"},
					},
				},
				Action: runServe,
			},
			{
				Name:   "poll-inbox",
				Usage:  "Fetch unseen inbox messages once and ingest them",
				Action: runPollInbox,
			},
		},
		Action: runServe,
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func buildConfig(c *cli.Context) config.Config {
	return config.Config{
		Port:        c.String("port"),
		DatabaseURL: c.String("database-url"),
		IMAP: config.IMAPConfig{
			Host:        c.String("imap-host"),
			Port:        c.Int("imap-port"),
			Username:    c.String("imap-username"),
			Password:    c.String("imap-password"),
			PollTimeout: c.Duration("poll-timeout"),
			FetchLimit:  c.Int("imap-fetch-limit"),
			Workers:     c.Int("inbox-workers"),
		},
	}
}

func runServe(c *cli.Context) error {
	ctx := c.Context

	cfg := buildConfig(c)
	if cfg.Port == "" {
		cfg.Port = config.DefaultPort
	}

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := database.RunMigrations(ctx, db.Pool()); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	h := handler.New(db.Pool(), cfg)

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "server_addr", "http://localhost:"+cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-done:
		slog.Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

func runPollInbox(c *cli.Context) error {
	ctx := c.Context

	cfg := buildConfig(c)
	if !cfg.IMAP.Configured() {
		return fmt.Errorf("inbox polling requires --imap-host, --imap-username and --imap-password")
	}

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := database.RunMigrations(ctx, db.Pool()); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	taskRepo := repository.NewTaskRepository(db.Pool())
	logRepo := repository.NewTaskLogRepository(db.Pool())
	orchestrator := service.NewOrchestrator(db.Pool(), taskRepo, logRepo)
	poller := inbox.NewPoller(cfg.IMAP, orchestrator)

	report, err := poller.Poll(ctx)
	if err != nil {
		return fmt.Errorf("inbox poll failed: %w", err)
	}

	slog.Info("poll-inbox done",
		"fetched", report.Fetched,
		"ingested", report.Ingested,
		"skipped", report.Skipped)
	return nil
}
