package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
// Constructed once at startup and passed around by value reference; never
// mutated afterwards.
type Config struct {
	// Telegram
	TelegramBotToken string
	TelegramTargets  []string

	// News
	RSSURLs        []string
	RefreshMinutes int

	// Signals
	SignalEnable         bool
	SignalRefreshMinutes int
	Symbol               string
	Interval             string
	Lookback             string
	SessionStart         string // HH:MM in TZ
	SessionEnd           string // HH:MM in TZ

	// Infrastructure
	TZ            string
	DBPath        string
	MetricsAddr   string
	RedisAddr     string // empty = cache disabled
	RedisPassword string
	WebhookURL    string // optional extra delivery target
}

// Load reads configuration from the environment (and a .env file when
// present) with sensible defaults. Missing required values are fatal;
// the process must not start misconfigured.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		TelegramBotToken: mustEnv("TELEGRAM_BOT_TOKEN"),
		TelegramTargets:  mustEnvList("TELEGRAM_TARGETS"),

		RSSURLs:        splitList(os.Getenv("RSS_URLS")),
		RefreshMinutes: getEnvInt("REFRESH_MINUTES", 10),

		SignalEnable:         getEnvBool("SIGNAL_ENABLE", true),
		SignalRefreshMinutes: getEnvInt("SIGNAL_REFRESH_MINUTES", 5),
		Symbol:               getEnv("SYMBOL", "YM=F"),
		Interval:             getEnv("INTERVAL", "5m"),
		Lookback:             getEnv("LOOKBACK", "2d"),
		SessionStart:         getEnv("SESSION_START", "09:30"),
		SessionEnd:           getEnv("SESSION_END", "16:00"),

		TZ:            getEnv("TZ", "America/New_York"),
		DBPath:        getEnv("DB_PATH", "data/state.db"),
		MetricsAddr:   getEnv("METRICS_ADDR", ":9090"),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		WebhookURL:    getEnv("WEBHOOK_URL", ""),
	}
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("[config] required env var %s not set", key)
	}
	return v
}

func mustEnvList(key string) []string {
	vals := splitList(mustEnv(key))
	if len(vals) == 0 {
		log.Fatalf("[config] required env var %s is empty", key)
	}
	return vals
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Fatalf("[config] invalid value for %s: %q", key, v)
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	log.Fatalf("[config] invalid value for %s: %q", key, v)
	return false
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
