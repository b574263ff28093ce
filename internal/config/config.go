package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/LJTian/OpportunityHub/internal/collector"
)

type Config struct {
	AppPort string

	// DeliveryKind log / webhook / kafka
	DeliveryKind   string
	DeliveryTarget string
	KafkaBrokers   []string

	FetchPeriod  time.Duration
	FetchTimeout time.Duration
	// ResultLimit 每个数据源的条数上限，0 表示使用各数据源自己的默认值
	ResultLimit int
	TitleMaxLen int
	UserAgent   string
	// StartupDelay 首轮采集延迟，负数表示启动时不采集
	StartupDelay time.Duration

	// LedgerDriver file / postgres
	LedgerDriver string
	LedgerPath   string
	PostgresDSN  string
	RedisAddr    string

	FeedSources []collector.FeedSource
}

func Load() *Config {
	cfg := &Config{
		AppPort:        getEnv("APP_PORT", "9000"),
		DeliveryKind:   strings.ToLower(getEnv("DELIVERY_KIND", "log")),
		DeliveryTarget: getEnv("DELIVERY_TARGET", ""),
		KafkaBrokers:   splitList(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
		FetchPeriod:    getDuration("FETCH_PERIOD", 2*time.Hour),
		FetchTimeout:   getDuration("FETCH_TIMEOUT", 15*time.Second),
		ResultLimit:    getInt("FETCH_RESULT_LIMIT", 0),
		TitleMaxLen:    getInt("TITLE_MAX_LEN", 150),
		UserAgent:      getEnv("FETCH_USER_AGENT", collector.DefaultUserAgent),
		StartupDelay:   getStartupDelay("STARTUP_DELAY", 15*time.Second),
		LedgerDriver:   strings.ToLower(getEnv("LEDGER_DRIVER", "file")),
		LedgerPath:     getEnv("LEDGER_PATH", "posted_opportunities.json"),
		PostgresDSN:    getEnv("POSTGRES_DSN", "host=localhost user=opportunityhub password=opportunityhub dbname=opportunityhub port=5432 sslmode=disable TimeZone=UTC"),
		RedisAddr:      getEnv("REDIS_ADDR", ""),
		FeedSources:    parseFeedSources(getEnv("FEED_SOURCES", "")),
	}

	log.Printf("config loaded: port=%s delivery=%s period=%s timeout=%s ledger=%s feeds=%d",
		cfg.AppPort, cfg.DeliveryKind, cfg.FetchPeriod, cfg.FetchTimeout, cfg.LedgerDriver, len(cfg.FeedSources))
	return cfg
}

// FetchOptions 各数据源共用的请求参数
func (c *Config) FetchOptions() collector.Options {
	return collector.Options{
		UserAgent: c.UserAgent,
		Timeout:   c.FetchTimeout,
		Limit:     c.ResultLimit,
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 0 {
		log.Printf("warn: invalid %s=%q, use default %d", key, v, def)
		return def
	}
	return n
}

func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil || d <= 0 {
		log.Printf("warn: invalid %s=%q, use default %s", key, v, def)
		return def
	}
	return d
}

// getStartupDelay 与 getDuration 相同，但允许 0 和负数
func getStartupDelay(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		log.Printf("warn: invalid %s=%q, use default %s", key, v, def)
		return def
	}
	return d
}

func splitList(s, sep string) []string {
	var out []string
	for _, p := range strings.Split(s, sep) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseFeedSources 解析 "名称|类型|地址;名称|类型|地址"，格式不对的条目跳过
func parseFeedSources(s string) []collector.FeedSource {
	var out []collector.FeedSource
	for _, item := range splitList(s, ";") {
		parts := strings.Split(item, "|")
		if len(parts) != 3 {
			log.Printf("warn: skip feed source %q, want name|type|url", item)
			continue
		}
		src := collector.FeedSource{
			Name: strings.TrimSpace(parts[0]),
			Type: strings.TrimSpace(parts[1]),
			URL:  strings.TrimSpace(parts[2]),
		}
		if src.Name == "" || src.URL == "" {
			log.Printf("warn: skip feed source %q, name and url are required", item)
			continue
		}
		out = append(out, src)
	}
	return out
}
