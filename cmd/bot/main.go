package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"studybot/internal/ai"
	"studybot/internal/bot"
	"studybot/internal/bot/handlers"
	"studybot/internal/config"
	"studybot/internal/database"
	"studybot/internal/delivery"
	"studybot/internal/reminders"
	"studybot/internal/repository"
	"studybot/internal/scheduler"
	"studybot/internal/syllabus"
	"studybot/internal/timeparse"
	"studybot/internal/usage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.DatabaseURI == "" {
		log.Fatal("DATABASE_URI is required")
	}
	if cfg.TelegramToken == "" {
		log.Fatal("TELEGRAM_TOKEN is required")
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.New(ctx, cfg.DatabaseURI)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("connected to database")

	if err := db.Migrate(ctx, logger); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		logger.Fatal("failed to create telegram api", zap.Error(err))
	}

	// AI features are optional: without a key /ask and /upload degrade
	// gracefully while reminders keep working.
	var aiClient *ai.Client
	var syllabusParser *syllabus.Parser
	if cfg.OpenAIAPIKey != "" {
		aiClient = ai.New(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)
		syllabusParser = syllabus.New(aiClient, logger)
		logger.Info("ai client initialized", zap.String("model", cfg.OpenAIModel))
	} else {
		logger.Warn("ai client not configured, question and document features disabled")
	}

	reminderRepo := repository.NewReminderRepository(db)
	usageRepo := repository.NewUsageRepository(db)
	settingsRepo := repository.NewUserSettingsRepository(db, cfg.DefaultTimezone)
	paymentRepo := repository.NewPaymentRepository(db)

	sched := scheduler.New(logger)
	svc := reminders.NewService(reminderRepo, sched, logger)
	notifier := bot.NewNotifier(api)
	deliveryHandler := delivery.New(notifier, svc, logger)
	sched.SetFireFunc(deliveryHandler.OnDue)

	restored, err := svc.RestoreAll(ctx)
	if err != nil {
		logger.Fatal("failed to restore reminders", zap.Error(err))
	}
	logger.Info("reminders restored", zap.Int("count", restored))
	go sched.Start(ctx)

	sweeper := delivery.NewPremiumSweeper(settingsRepo, notifier, logger)
	maint, err := scheduler.NewMaintenance(logger, cfg.PremiumSweepRule, sweeper.Run)
	if err != nil {
		logger.Fatal("failed to build premium sweep schedule", zap.Error(err))
	}
	go maint.Start(ctx)

	h := handlers.New(handlers.Deps{
		API:         api,
		Reminders:   svc,
		Limiter:     usage.NewLimiter(usageRepo),
		Delivery:    deliveryHandler,
		Parser:      timeparse.New(),
		Settings:    settingsRepo,
		Payments:    paymentRepo,
		AI:          aiClient,
		Syllabus:    syllabusParser,
		Logger:      logger,
		AdminChatID: cfg.AdminChatID,
	})

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutting down")
		cancel()
	}()

	b := bot.New(api, h, logger)
	logger.Info("starting bot")
	if err := b.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("bot stopped", zap.Error(err))
	}
}
