package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-group-warden/internal/application"
	"telegram-group-warden/internal/config"
	pg "telegram-group-warden/internal/infra/db/postgres"
	httpops "telegram-group-warden/internal/infra/http"
	"telegram-group-warden/internal/infra/logging"
	"telegram-group-warden/internal/infra/metrics"
	red "telegram-group-warden/internal/infra/redis"
	"telegram-group-warden/internal/infra/sched"
	tele "telegram-group-warden/internal/infra/telegram"
	"telegram-group-warden/internal/infra/worker"
	"telegram-group-warden/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}

	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connect failed")
	}
	defer func() { _ = redisClient.Close() }()
	rateLimiter := red.NewRateLimiter(redisClient)

	// ---- Telegram ----
	botAPI, err := tgbotapi.NewBotAPI(cfg.Bot.Token)
	if err != nil {
		logger.Fatal().Err(err).Msg("telegram auth failed")
	}
	logger.Info().Str("username", botAPI.Self.UserName).Msg("authorized on telegram")
	botClient := tele.NewClient(botAPI)
	priv := tele.NewPrivilegeResolver(botAPI, redisClient, cfg.Bot.SudoIDs, logger)

	// ---- Repositories ----
	settingsRepo := pg.NewSettingsRepoCacheDecorator(pg.NewPostgresSettingsRepo(pool), redisClient, cfg.Redis.TTL)
	historyRepo := pg.NewPostgresMessageHistoryRepo(pool)
	stepRepo := pg.NewPostgresStepHistoryRepo(pool)

	// ---- Background machinery ----
	bgPool := worker.NewPool(cfg.Bot.Workers, logger)
	bgPool.Start(ctx)
	defer bgPool.Stop()

	queue, err := sched.NewDeferredQueue(logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("scheduler init failed")
	}
	queue.Start()
	defer func() { _ = queue.Shutdown() }()

	txManager := pg.NewTxManager(pool)

	// ---- Use cases ----
	settingsUC := usecase.NewSettingsUseCase(settingsRepo, txManager, priv, logger)
	lifecycleUC := usecase.NewLifecycleUseCase(botClient, queue, historyRepo, stepRepo, cfg.Verification.KickDelay, logger)
	deliveryUC := usecase.NewDeliveryUseCase(botClient, lifecycleUC, settingsUC, bgPool, cfg.EventLog.ChannelID, logger)
	verificationUC := usecase.NewVerificationUseCase(settingsUC, deliveryUC, lifecycleUC, priv, botClient, stepRepo, cfg.Verification.KickDelay, logger)
	callbackUC := usecase.NewCallbackUseCase(deliveryUC, lifecycleUC, cfg.Verification.MuteDuration, logger)
	builder := usecase.NewContextBuilder(priv, botClient.Username())

	facade := application.NewBotFacade(
		builder, settingsUC, deliveryUC, verificationUC, callbackUC, lifecycleUC,
		priv, bgPool, cfg.Verification.StaleUpdateAge, logger,
	)

	// Catches deletions whose deadline passed while the process was down.
	sweeper := sched.NewSweepWorker(time.Minute, lifecycleUC, logger)
	go func() { _ = sweeper.Run(ctx) }()

	// ---- Update polling ----
	if strings.ToLower(cfg.Bot.Mode) != "polling" && cfg.Bot.Mode != "" {
		logger.Warn().Str("mode", cfg.Bot.Mode).Msg("unsupported bot mode, falling back to polling")
	}
	poller := tele.NewPoller(botAPI, facade, rateLimiter, cfg.Flood, cfg.Bot.Workers, logger)
	go func() {
		if err := poller.StartPolling(ctx); err != nil {
			logger.Error().Err(err).Msg("polling stopped")
		}
	}()

	// ---- Ops server ----
	opsServer := httpops.NewServer(cfg, pool, redisClient, logger)
	go func() {
		if err := opsServer.Start(); err != nil {
			logger.Error().Err(err).Msg("ops server stopped")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()
	poller.StopPolling()
	_ = opsServer.Shutdown(context.Background())
}
