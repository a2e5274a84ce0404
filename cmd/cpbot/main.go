package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/spacey745/cpbot/internal/config"
	"github.com/spacey745/cpbot/internal/constants"
	"github.com/spacey745/cpbot/internal/database"
	"github.com/spacey745/cpbot/internal/retry"
	"github.com/spacey745/cpbot/internal/service"
	"github.com/spacey745/cpbot/internal/tracing"
	"github.com/spacey745/cpbot/pkg/telegram"
)

var (
	// Version information (set at build time)
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"

	// CLI flags
	verbose    = flag.Bool("verbose", false, "Enable verbose logging (includes sensitive information)")
	configPath = flag.String("config", "config.json", "Path to configuration file")
	version    = flag.Bool("version", false, "Show version information")
)

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("cpbot %s\nBuild Time: %s\nGit Commit: %s\n", Version, BuildTime, GitCommit)
		os.Exit(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logrus.Fatalf("Application error: %v", err)
	}
}

func run(ctx context.Context) error {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	logger.WithFields(logrus.Fields{
		"version": Version,
		"build":   BuildTime,
		"commit":  GitCommit,
	}).Info("Starting cpbot")

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
		logger.Info("Verbose logging enabled - sensitive information will be logged")
	} else {
		level, err := logrus.ParseLevel(cfg.LogLevel)
		if err != nil {
			logger.Warnf("Invalid log level %q, defaulting to info", cfg.LogLevel)
			level = logrus.InfoLevel
		}
		logger.SetLevel(level)
	}

	tracingManager := tracing.NewTracingManager(cfg.Tracing, logger)
	if err := tracingManager.Initialize(ctx); err != nil {
		logger.Warnf("Failed to initialize tracing: %v", err)
	}
	defer func() {
		if err := tracingManager.Shutdown(context.Background()); err != nil {
			logger.Warnf("Failed to shutdown tracing: %v", err)
		}
	}()

	// Initialize database with exponential backoff retry
	var db *database.Database
	backoff := retry.NewBackoff(retry.BackoffConfig{
		InitialDelay: time.Duration(cfg.Retry.InitialBackoffMs) * time.Millisecond,
		MaxDelay:     time.Duration(cfg.Retry.MaxBackoffMs) * time.Millisecond,
		Multiplier:   2.0,
		MaxAttempts:  constants.DefaultDatabaseRetryAttempts,
		Jitter:       true,
	})

	err = backoff.Retry(ctx, func() error {
		var initErr error
		db, initErr = database.New(cfg.Database.Path)
		if initErr != nil {
			logger.Warnf("Failed to initialize database: %v", initErr)
		}
		return initErr
	})
	if err != nil {
		return fmt.Errorf("failed to initialize database after retries: %w", err)
	}
	defer db.Close()

	token, err := config.BotToken()
	if err != nil {
		return err
	}

	client, err := telegram.NewClient(token, cfg.Telegram.WebhookSecret, logger)
	if err != nil {
		return fmt.Errorf("failed to create telegram client: %w", err)
	}

	me, err := client.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve bot account: %w", err)
	}
	logger.WithField("username", me.Username).Info("Bot account resolved")

	router := service.NewRouter(cfg.Chats)
	notifier := service.NewMasterNotifier(client, cfg.Chats.MasterChatID, me.Username, logger)
	users := service.NewUserService(db, cfg.StoreUserDetails, logger)
	forwarder := service.NewForwarder(client, db, router, notifier, logger)
	editor := service.NewEditor(client, db, router, logger)
	relay := service.NewRelay(client, db, users, forwarder, editor, router, notifier, logger, service.RelayOptions{
		BotID:   me.ID,
		BotName: me.Username,
		Strings: cfg.Strings,
	})

	client.SetUpdateHandler(relay.HandleUpdate)

	var webhookHandler http.HandlerFunc
	if !cfg.Telegram.Polling {
		webhookHandler = client.WebhookHandler()
	}

	server := NewServer(webhookHandler, logger)
	serverErrCh := make(chan error, constants.ServerErrorChannelSize)
	go func() {
		if err := server.Start(); err != nil {
			serverErrCh <- fmt.Errorf("server error: %w", err)
		}
	}()

	if cfg.Telegram.Polling {
		go client.Start(ctx)
	} else {
		if err := client.RegisterWebhook(ctx, cfg.Telegram.WebhookURL); err != nil {
			return err
		}
		go client.StartWebhook(ctx)
	}

	select {
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	case err := <-serverErrCh:
		logger.Error(err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.DefaultGracefulShutdownSec*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server gracefully: %w", err)
	}

	logger.Info("Server shutdown completed")
	return nil
}
