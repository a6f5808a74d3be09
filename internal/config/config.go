package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var (
	ErrMissingAPIKey      = errors.New("GNEWS_API_KEY is required")
	ErrMissingEndpoint    = errors.New("GNEWS_ENDPOINT is required")
	ErrMissingRecipient   = errors.New("MAIL_TO is required")
	ErrMissingSMTPHost    = errors.New("SMTP_HOST is required unless DRY_RUN is set")
	ErrInvalidInterval    = errors.New("SCHEDULE_INTERVAL must be positive")
	ErrInvalidOverlap     = errors.New("OVERLAP_POLICY must be one of: skip, queue")
	ErrInvalidStartLayout = errors.New("SCHEDULE_START must be RFC3339 or 2006-01-02")
)

const (
	OverlapSkip  = "skip"
	OverlapQueue = "queue"
)

type Config struct {
	AppPort string

	// 可选的站点访问密码（Basic Auth），/health 不受影响
	BasicAuthUser string
	BasicAuthPass string

	GNewsEndpoint string
	GNewsAPIKey   string
	GNewsLang     string

	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	MailFrom string
	MailTo   string
	DryRun   bool

	Interval      time.Duration
	StartAt       time.Time
	OverlapPolicy string

	// 多副本部署时用 Redis 做运行锁，留空则只做进程内互斥
	RedisAddr  string
	RunLockTTL time.Duration

	LogLevel string
}

// Load 从环境变量读取配置；若当前目录存在 .env 会先加载
func Load() (*Config, error) {
	_ = godotenv.Load()

	start, err := parseStart(getEnv("SCHEDULE_START", "2025-01-21"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		AppPort:       getEnv("APP_PORT", "9000"),
		BasicAuthUser: os.Getenv("APP_BASIC_USER"),
		BasicAuthPass: os.Getenv("APP_BASIC_PASS"),
		GNewsEndpoint: getEnv("GNEWS_ENDPOINT", "https://gnews.io/api/v4/top-headlines"),
		GNewsAPIKey:   os.Getenv("GNEWS_API_KEY"),
		GNewsLang:     getEnv("GNEWS_LANG", "en"),
		SMTPHost:      os.Getenv("SMTP_HOST"),
		SMTPPort:      getEnvInt("SMTP_PORT", 587),
		SMTPUser:      os.Getenv("SMTP_USER"),
		SMTPPass:      os.Getenv("SMTP_PASS"),
		MailTo:        os.Getenv("MAIL_TO"),
		DryRun:        getEnvBool("DRY_RUN", false),
		Interval:      getEnvDuration("SCHEDULE_INTERVAL", 6*time.Hour),
		StartAt:       start,
		OverlapPolicy: strings.ToLower(getEnv("OVERLAP_POLICY", OverlapSkip)),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RunLockTTL:    getEnvDuration("RUN_LOCK_TTL", 30*time.Minute),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
	}
	// 发件人缺省与 SMTP 账号一致
	cfg.MailFrom = getEnv("SMTP_FROM", cfg.SMTPUser)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	slog.Info("config loaded",
		"port", cfg.AppPort,
		"interval", cfg.Interval,
		"start", cfg.StartAt.Format(time.RFC3339),
		"overlap", cfg.OverlapPolicy,
		"dry_run", cfg.DryRun,
	)
	return cfg, nil
}

// Validate 检查运行流水线所必需的配置项
func (c *Config) Validate() error {
	if c.GNewsAPIKey == "" {
		return ErrMissingAPIKey
	}
	if c.GNewsEndpoint == "" {
		return ErrMissingEndpoint
	}
	if c.MailTo == "" {
		return ErrMissingRecipient
	}
	if c.SMTPHost == "" && !c.DryRun {
		return ErrMissingSMTPHost
	}
	if c.Interval <= 0 {
		return ErrInvalidInterval
	}
	if c.OverlapPolicy != OverlapSkip && c.OverlapPolicy != OverlapQueue {
		return ErrInvalidOverlap
	}
	return nil
}

func parseStart(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", v, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidStartLayout, v)
	}
	return t, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("invalid int env, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("invalid bool env, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("invalid duration env, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}
