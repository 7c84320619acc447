package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"

	"wydatki/internal/backend"
	"wydatki/internal/bot"
	"wydatki/internal/config"
	"wydatki/internal/conversation"
	"wydatki/internal/core"
	apphttp "wydatki/internal/http"
	"wydatki/internal/log"
	"wydatki/internal/notify"
	"wydatki/internal/paycycle"
	"wydatki/internal/report"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()

	logger := log.New(log.Config{
		Level:     cfg.SlogLevel(),
		Component: log.ComponentApp,
		Output:    os.Stdout,
	})
	log.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	loc, _ := cfg.Location()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	be, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Slog()).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.LogError(ctx, "Failed to initialize backend", err, log.OpStartup, log.LogFields{"backend": cfg.DataBackend})
		os.Exit(1)
	}
	defer func() {
		if err := be.Cleanup(); err != nil {
			logger.LogError(context.Background(), "Backend cleanup failed", err, log.OpShutdown, nil)
		}
	}()

	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		logger.LogError(ctx, "Failed to connect to Telegram", err, log.OpStartup, nil)
		_ = be.Cleanup()
		os.Exit(1)
	}
	logger.Info("Authorized on Telegram", "bot", api.Self.UserName)

	calc := paycycle.NewCalculator(loc, nil)
	machine := conversation.NewMachine(be.Service, conversation.Options{
		Now:        calc.Now,
		PendingTTL: cfg.PendingTTL,
	})
	aggregator := report.NewAggregator(be.Store, calc, report.Options{
		HistoryLimit: cfg.HistoryLimit,
		Currency:     cfg.Currency,
		Logger:       logger.WithComponent(log.ComponentReport).Slog(),
	})
	broadcaster := notify.NewBroadcaster(bot.NewSender(api), be.Service, cfg.AllowedUsers, notify.Options{
		Currency:    cfg.Currency,
		Concurrency: cfg.BroadcastConcurrency,
		Logger:      logger.WithComponent(log.ComponentNotify).Slog(),
	})
	b := bot.New(api, bot.Deps{
		Categories:   core.NewCategories(cfg.Categories),
		AllowedUsers: cfg.AllowedUsers,
		Machine:      machine,
		Reports:      aggregator,
		Broadcaster:  broadcaster,
		Logger:       logger,
	})

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Status{
		Backend: be.Type.String(),
		Pending: machine.Pending,
	}, logger)
	go func() {
		logger.Info("Starting keep-alive server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
			stop()
		}
	}()

	updateCfg := tgbotapi.NewUpdate(0)
	updateCfg.Timeout = 60
	updates := api.GetUpdatesChan(updateCfg)

	logger.Info("Starting wydatki bot",
		"backend", be.Type.String(),
		"timezone", loc.String(),
		"users", len(cfg.AllowedUsers))
	b.Run(ctx, updates)

	logger.Info("Shutdown signal received")
	api.StopReceivingUpdates()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.LogError(shutdownCtx, "Server shutdown error", err, log.OpShutdown, nil)
	}
	logger.Info("Bot stopped gracefully")
}
