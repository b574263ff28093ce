package app

import (
	"fmt"
	"io"
	"log"

	"github.com/LJTian/OpportunityHub/internal/collector"
	"github.com/LJTian/OpportunityHub/internal/config"
	"github.com/LJTian/OpportunityHub/internal/notify"
	"github.com/LJTian/OpportunityHub/internal/processor"
	"github.com/LJTian/OpportunityHub/internal/scheduler"
	"github.com/LJTian/OpportunityHub/internal/storage"
)

// App 按配置装配好的各组件，cmd/api 与 cmd/collect 共用
type App struct {
	Ledger    storage.Ledger
	Scheduler *scheduler.Scheduler

	closers []io.Closer
}

func New(cfg *config.Config) (*App, error) {
	a := &App{}

	ledger, err := newLedger(cfg)
	if err != nil {
		return nil, err
	}
	a.Ledger = ledger
	if c, ok := ledger.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}

	deliverer, err := newDeliverer(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	if c, ok := deliverer.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}

	// 注册采集器：内置数据源在前，配置的 feed 在后
	opts := cfg.FetchOptions()
	fetchers := collector.DefaultFetchers(opts)
	fetchers = append(fetchers, collector.FeedFetchers(cfg.FeedSources, opts)...)

	agg := processor.NewAggregator(cfg.FetchTimeout, cfg.ResultLimit, cfg.TitleMaxLen)
	s, err := scheduler.New(scheduler.Options{
		Period:       cfg.FetchPeriod,
		Target:       cfg.DeliveryTarget,
		StartupDelay: cfg.StartupDelay,
	}, fetchers, agg, ledger, deliverer)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init scheduler: %w", err)
	}
	a.Scheduler = s

	return a, nil
}

func newLedger(cfg *config.Config) (storage.Ledger, error) {
	switch cfg.LedgerDriver {
	case "postgres":
		store, err := storage.NewStore(cfg.PostgresDSN, cfg.RedisAddr)
		if err != nil {
			return nil, fmt.Errorf("init store: %w", err)
		}
		return store, nil
	case "file", "":
		return storage.NewFileLedger(cfg.LedgerPath), nil
	default:
		return nil, fmt.Errorf("unknown ledger driver %q", cfg.LedgerDriver)
	}
}

func newDeliverer(cfg *config.Config) (notify.Deliverer, error) {
	switch cfg.DeliveryKind {
	case "webhook":
		return notify.NewWebhookDeliverer(), nil
	case "kafka":
		k, err := notify.NewKafkaDeliverer(cfg.KafkaBrokers)
		if err != nil {
			return nil, err
		}
		return k, nil
	case "log", "":
		return notify.LogDeliverer{}, nil
	default:
		return nil, fmt.Errorf("unknown delivery kind %q", cfg.DeliveryKind)
	}
}

func (a *App) Close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			log.Printf("warn: close: %v", err)
		}
	}
}
