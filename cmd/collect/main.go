package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/LJTian/NewsMailer/internal/collector"
	"github.com/LJTian/NewsMailer/internal/config"
	"github.com/LJTian/NewsMailer/internal/logger"
	"github.com/LJTian/NewsMailer/internal/notifier"
	"github.com/LJTian/NewsMailer/internal/pipeline"
	"github.com/LJTian/NewsMailer/internal/processor"
)

// 只执行一轮流水线后退出：适合手动触发或交给外部的定时系统调度
func main() {
	logger.New(os.Getenv("LOG_LEVEL"))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config failed", "error", err)
		os.Exit(1)
	}
	logger.New(cfg.LogLevel)

	var sender notifier.Sender = notifier.DryRunSender{}
	if !cfg.DryRun {
		sender = notifier.NewSMTPSender(notifier.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPass,
			From:     cfg.MailFrom,
		})
	}

	p := pipeline.New(
		collector.NewGNewsFetcher(cfg.GNewsEndpoint, cfg.GNewsAPIKey, cfg.GNewsLang),
		processor.NewSimpleProcessor(),
		notifier.New(cfg.MailTo, sender),
	)

	if _, err := p.Run(context.Background()); err != nil {
		os.Exit(1)
	}
}
