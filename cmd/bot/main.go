package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finintelbot/config"
	"finintelbot/internal/bot"
	"finintelbot/internal/broadcast"
	"finintelbot/internal/feed"
	"finintelbot/internal/logger"
	"finintelbot/internal/metrics"
	"finintelbot/internal/notification"
	"finintelbot/internal/scheduler"
	"finintelbot/internal/store"
	redisstore "finintelbot/internal/store/redis"
	sqlitestore "finintelbot/internal/store/sqlite"
	"finintelbot/internal/strategy"
	"finintelbot/pkg/chartapi"

	goredis "github.com/go-redis/redis/v8"
)

const (
	newsFetchPerFeed = 20
	newsMaxPerCycle  = 10
	newsFreshness    = 48 * time.Hour
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	log.Println("[bot] starting...")

	// ---- Load config from env ----
	cfg := config.Load()

	logger.Init("finintelbot", logger.ParseLevel(os.Getenv("LOG_LEVEL")))

	// ---- Session window (validates TZ and HH:MM up front) ----
	window, err := strategy.NewSessionWindow(cfg.SessionStart, cfg.SessionEnd, cfg.TZ)
	if err != nil {
		log.Fatalf("[bot] bad session config: %v", err)
	}

	// ---- Setup metrics & health ----
	prom := metrics.NewMetrics()
	health := metrics.NewHealthStatus()
	metricsSrv := metrics.NewServer(cfg.MetricsAddr, health)
	metricsSrv.Start()

	// ---- Setup context for graceful shutdown ----
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// ---- Dedup store (sqlite, optionally fronted by redis) ----
	sqlStore, err := sqlitestore.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("[bot] sqlite init failed: %v", err)
	}
	health.SetSQLiteOK(true)

	var dedup store.Dedup = sqlStore
	var redisClient *goredis.Client
	if cfg.RedisAddr != "" {
		health.SetRedisEnabled(true)
		cache, err := redisstore.New(redisstore.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		}, sqlStore)
		if err != nil {
			log.Printf("[bot] WARNING: redis init failed: %v (continuing without cache)", err)
		} else {
			dedup = cache
			redisClient = cache.Client()
		}
	}
	defer dedup.Close()
	log.Println("[bot] dedup store ready")

	// ---- Delivery targets ----
	var targets []notification.Notifier
	for _, chatID := range cfg.TelegramTargets {
		targets = append(targets, notification.NewTelegramNotifier(cfg.TelegramBotToken, chatID, false))
	}
	if cfg.WebhookURL != "" {
		targets = append(targets, notification.NewWebhookNotifier(cfg.WebhookURL))
	}

	// ---- Sources ----
	rss := feed.NewFetcher(cfg.RSSURLs, newsFetchPerFeed)
	candles := chartapi.New(chartapi.Config{
		Symbol:   cfg.Symbol,
		Interval: cfg.Interval,
		Range:    cfg.Lookback,
	})
	generator := strategy.NewGenerator(cfg.Symbol, window)

	// ---- Orchestrator ----
	orch := broadcast.New(broadcast.Config{
		FreshnessWindow: newsFreshness,
		MaxPerCycle:     newsMaxPerCycle,
		SignalEnabled:   cfg.SignalEnable,
		Loc:             window.Location(),
	}, dedup, rss, candles, generator, targets, prom)

	// ---- Scheduler ----
	sched := scheduler.New()
	sched.Add(scheduler.Job{
		Name:  "news",
		Every: time.Duration(cfg.RefreshMinutes) * time.Minute,
		Run: func(ctx context.Context) {
			orch.RunNewsCycle(ctx)
			health.SetLastNewsCycle(time.Now())
		},
	})
	sched.Add(scheduler.Job{
		Name:  "signal",
		Every: time.Duration(cfg.SignalRefreshMinutes) * time.Minute,
		Run: func(ctx context.Context) {
			orch.RunSignalCycle(ctx)
			health.SetLastSignalCycle(time.Now())
		},
	})
	sched.Start(ctx)

	// ---- Liveness probes ----
	health.StartLivenessChecker(ctx, sqlStore.DB(), redisClient, 30*time.Second)

	// ---- Inbound commands ----
	go bot.NewCommandLoop(cfg.TelegramBotToken).Run(ctx)

	slog.Info("bot running",
		"targets", len(targets),
		"feeds", len(cfg.RSSURLs),
		"signal_enabled", cfg.SignalEnable,
		"symbol", cfg.Symbol)

	// ---- Wait for shutdown ----
	sig := <-sigCh
	log.Printf("[bot] received %v, shutting down...", sig)
	cancel()
	sched.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	metricsSrv.Stop(shutdownCtx)

	log.Println("[bot] bye")
}
