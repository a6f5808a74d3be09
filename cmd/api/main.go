package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LJTian/NewsMailer/internal/api"
	"github.com/LJTian/NewsMailer/internal/collector"
	"github.com/LJTian/NewsMailer/internal/config"
	"github.com/LJTian/NewsMailer/internal/logger"
	"github.com/LJTian/NewsMailer/internal/notifier"
	"github.com/LJTian/NewsMailer/internal/pipeline"
	"github.com/LJTian/NewsMailer/internal/processor"
	"github.com/LJTian/NewsMailer/internal/runlock"
	"github.com/LJTian/NewsMailer/internal/scheduler"
	"github.com/gin-gonic/gin"
)

func main() {
	logger.New(os.Getenv("LOG_LEVEL"))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config failed", "error", err)
		os.Exit(1)
	}
	logger.New(cfg.LogLevel)

	p := pipeline.New(
		collector.NewGNewsFetcher(cfg.GNewsEndpoint, cfg.GNewsAPIKey, cfg.GNewsLang),
		processor.NewSimpleProcessor(),
		notifier.New(cfg.MailTo, newSender(cfg)),
	)

	// 配置了 Redis 时用分布式锁，保证多副本也不会重叠运行
	var locker runlock.Locker = runlock.NewLocalLocker()
	if cfg.RedisAddr != "" {
		rdb := runlock.Dial(cfg.RedisAddr)
		defer rdb.Close()
		locker = runlock.NewRedisLocker(rdb, cfg.RunLockTTL)
	}

	s, err := scheduler.New(scheduler.Options{
		Interval:      cfg.Interval,
		StartAt:       cfg.StartAt,
		OverlapPolicy: cfg.OverlapPolicy,
	}, p, locker)
	if err != nil {
		slog.Error("init scheduler failed", "error", err)
		os.Exit(1)
	}
	s.Start()

	// 运维 API
	r := gin.Default()
	if cfg.BasicAuthUser != "" && cfg.BasicAuthPass != "" {
		r.Use(api.BasicAuthMiddleware(cfg.BasicAuthUser, cfg.BasicAuthPass))
	}
	api.NewServer(s, p).RegisterRoutes(r)

	srv := &http.Server{Addr: ":" + cfg.AppPort, Handler: r}
	go func() {
		slog.Info("starting api server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server exit", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Warn("api server shutdown", "error", err)
	}
	// 等待进行中的一轮跑完
	s.Stop()
}

func newSender(cfg *config.Config) notifier.Sender {
	if cfg.DryRun {
		return notifier.DryRunSender{}
	}
	return notifier.NewSMTPSender(notifier.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPass,
		From:     cfg.MailFrom,
	})
}
