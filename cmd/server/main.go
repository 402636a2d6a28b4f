package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/campusmind/support_server/internal/app"
	"github.com/campusmind/support_server/internal/assistant"
	"github.com/campusmind/support_server/internal/config"
	"github.com/campusmind/support_server/internal/controller/httpapi"
	"github.com/campusmind/support_server/internal/controller/telegram"
	"github.com/campusmind/support_server/internal/notify"
	"github.com/campusmind/support_server/internal/repository"
	"github.com/campusmind/support_server/internal/repository/base"
	"github.com/campusmind/support_server/internal/service"
	"github.com/go-telegram/bot"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, envFile, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := app.NewLogger(cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if !envFile {
		logger.Info("No .env file found, using environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("Server stopped with error", zap.Error(err))
	}
	logger.Info("Server stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("Starting support server",
		zap.String("environment", cfg.Environment),
		zap.String("timezone", cfg.Location.String()),
		zap.Int("horizon_days", cfg.HorizonDays),
		zap.Bool("telegram", cfg.TelegramToken != ""),
		zap.Bool("gemini", cfg.GeminiAPIKey != ""))

	pool, err := pgxpool.New(ctx, cfg.GetDBDSN())
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	migrator, err := app.NewMigrator(pool, cfg.MigrationsDir, logger)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	err = migrator.Run(ctx)
	_ = migrator.Close()
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	db := base.NewRepository(pool)
	profileRepo := repository.NewProfileRepository(db)
	ruleRepo := repository.NewAvailabilityRepository(db, logger)
	slotRepo := repository.NewSlotRepository(db, cfg.Location)
	bookingRepo := repository.NewBookingRepository(db, cfg.Location)
	screeningRepo := repository.NewScreeningRepository(db)
	forumRepo := repository.NewForumRepository(db)
	resourceRepo := repository.NewResourceRepository(db)

	calendar := service.NewCalendar(cfg.Location, cfg.HorizonDays)

	var (
		telegramBot *bot.Bot
		botUsername string
		notifier    service.Notifier = notify.NewLog(logger)
	)
	if cfg.TelegramToken != "" {
		telegramBot, err = bot.New(cfg.TelegramToken)
		if err != nil {
			return fmt.Errorf("create telegram bot: %w", err)
		}
		me, err := telegramBot.GetMe(ctx)
		if err != nil {
			return fmt.Errorf("get telegram bot info: %w", err)
		}
		botUsername = me.Username
		notifier = notify.NewTelegram(telegramBot, profileRepo, logger)
	}

	var generator service.Generator
	if cfg.GeminiAPIKey != "" {
		gemini, err := assistant.NewGemini(ctx, assistant.Config{
			APIKey: cfg.GeminiAPIKey,
			Model:  cfg.GeminiModel,
		}, logger)
		if err != nil {
			return fmt.Errorf("create gemini client: %w", err)
		}
		generator = gemini
	}

	profileService := service.NewProfileService(profileRepo, logger)
	availabilityService := service.NewAvailabilityService(db, profileRepo, ruleRepo, slotRepo, calendar, logger)
	bookingService := service.NewBookingService(db, slotRepo, bookingRepo, notifier, calendar, logger)

	router := httpapi.NewRouter(httpapi.Deps{
		Profiles:     profileService,
		Availability: availabilityService,
		Slots:        service.NewSlotService(slotRepo, calendar, logger),
		Bookings:     bookingService,
		Screenings:   service.NewScreeningService(screeningRepo, logger),
		Forum:        service.NewForumService(forumRepo, logger),
		Chat:         service.NewChatService(generator, logger),
		Resources:    service.NewResourceService(resourceRepo, logger),
		Calendar:     calendar,
		BotUsername:  botUsername,
	}, []byte(cfg.JWTSecret), logger)

	scheduler := app.NewScheduler(availabilityService, cfg.RefreshInterval, logger)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	if telegramBot != nil {
		botController := telegram.NewBotController(telegramBot, profileService, bookingService, logger)
		if err := botController.RegisterHandlers(ctx); err != nil {
			return fmt.Errorf("register bot handlers: %w", err)
		}
		go botController.Start(ctx)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := router.Start(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("start http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := router.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}
