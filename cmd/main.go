package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/stockroomapp/stockroom_bot/config"
	"github.com/stockroomapp/stockroom_bot/data"
	"github.com/stockroomapp/stockroom_bot/data/cache"
	"github.com/stockroomapp/stockroom_bot/data/repository/postgres"
	"github.com/stockroomapp/stockroom_bot/data/session"
	"github.com/stockroomapp/stockroom_bot/data/settings"
	"github.com/stockroomapp/stockroom_bot/internal/externalApi/cloudStorageApi/googleDriveApi"
	"github.com/stockroomapp/stockroom_bot/internal/externalApi/yahooApi"
	"github.com/stockroomapp/stockroom_bot/internal/poller"
	"github.com/stockroomapp/stockroom_bot/internal/portfolio"
	"github.com/stockroomapp/stockroom_bot/internal/reportGenerator/xlsxGenerator"
	"github.com/stockroomapp/stockroom_bot/internal/scheduler"
	"github.com/stockroomapp/stockroom_bot/internal/service/stockroomService"
	"github.com/stockroomapp/stockroom_bot/internal/tgbot"
	"github.com/stockroomapp/stockroom_bot/internal/transport/telegram"
	"github.com/stockroomapp/stockroom_bot/utils"
)

func main() {
	cfg := config.MustLoad()

	setupLogger(cfg)

	slog.Debug("config", slog.Any("cfg", cfg))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pgClient := data.NewPostgresClient(cfg)
	defer pgClient.Close()

	pgRepo := postgres.NewPostgres(cfg, pgClient)

	redisClient := data.NewRedisClient(cfg)
	defer redisClient.Close()

	redisCache := cache.NewRedisCache(redisClient, cfg)
	redisSettings := settings.NewRedisSettings(redisClient)
	redisSession := session.NewRedisSession(redisClient, cfg)

	store := portfolio.NewStore()

	stockroomSrv := stockroomService.New(cfg, pgRepo, redisCache, redisSettings, store)
	stockroomSrv.SetReportGenerator(xlsxGenerator.New())
	stockroomSrv.SetCloudStorage(googleDriveApi.New(ctx, cfg))

	quotePoller := poller.New(cfg.Poller, yahooApi.New(cfg), store, stockroomSrv, slog.Default())
	stockroomSrv.SetPollTrigger(quotePoller)

	tgController := telegram.NewController(cfg, stockroomSrv, redisSession)

	tgBot := tgbot.New(cfg, tgController, redisSession)
	stockroomSrv.SetNotifier(tgBot)

	if err := stockroomSrv.Bootstrap(utils.NewCtxWithRqID()); err != nil {
		slog.Error("bootstrap failed", slog.String("err", err.Error()))
		panic(err)
	}

	stockroomSrv.WatchAlerts(ctx)
	go quotePoller.Run(ctx)

	sched := scheduler.New()
	sched.NewIntervalJob("sweep due events", stockroomSrv.SweepDueEvents, cfg.Jobs.EventSweepInterval, true)
	sched.NewCrontabJob("cloud backup", func(ctx context.Context) error {
		_, err := stockroomSrv.BackupToDrive(ctx)
		return err
	}, cfg.Jobs.BackupCrontab, false)
	sched.Start()
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer stopCancel()
		if err := sched.Stop(stopCtx); err != nil {
			slog.Error("scheduler shutdown", slog.String("err", err.Error()))
		}
	}()

	tgBot.Start()
	defer tgBot.Stop()

	// Waiting interruption signal
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	<-interrupt
}

func setupLogger(cfg *config.Config) {
	var logLevel slog.Level

	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warning":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(log)
}
