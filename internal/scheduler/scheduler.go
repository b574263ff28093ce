package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/LJTian/OpportunityHub/internal/collector"
	"github.com/LJTian/OpportunityHub/internal/notify"
	"github.com/LJTian/OpportunityHub/internal/processor"
	"github.com/LJTian/OpportunityHub/internal/storage"
	"github.com/robfig/cron/v3"
)

// ErrBusy 已有一轮采集在执行时，手动触发会被直接拒绝（不排队）
var ErrBusy = errors.New("scheduler: a fetch cycle is already running")

// DefaultPeriod 定时采集周期
const DefaultPeriod = 2 * time.Hour

type Trigger string

const (
	TriggerTimer    Trigger = "timer"
	TriggerOnDemand Trigger = "on_demand"
)

type Outcome string

const (
	OutcomeDelivered         Outcome = "delivered"
	OutcomeNothingNew        Outcome = "nothing_new"
	OutcomeNotConfigured     Outcome = "not_configured"
	OutcomeLedgerUnavailable Outcome = "ledger_unavailable"
	// OutcomeDeliveryFailed 有新机会但全部投递失败，下一轮会重试
	OutcomeDeliveryFailed Outcome = "delivery_failed"
)

// Report 一轮采集的结果。LedgerErrors 为投递成功但写账本失败的条数，这些条目下一轮会被重复投递。
type Report struct {
	Trigger      Trigger                  `json:"trigger"`
	Outcome      Outcome                  `json:"outcome"`
	StartedAt    time.Time                `json:"startedAt"`
	FinishedAt   time.Time                `json:"finishedAt"`
	Fetched      int                      `json:"fetched"`
	NetNew       int                      `json:"netNew"`
	Delivered    int                      `json:"delivered"`
	Failed       int                      `json:"failed"`
	LedgerErrors int                      `json:"ledgerErrors"`
	Warnings     []string                 `json:"warnings,omitempty"`
	Sources      []processor.SourceReport `json:"sources,omitempty"`
}

type Options struct {
	Period time.Duration
	Target string
	// StartupDelay Start 之后首轮采集的延迟，<0 表示不做首轮采集
	StartupDelay time.Duration
}

type Scheduler struct {
	cron       *cron.Cron
	period     time.Duration
	fetchers   []collector.Fetcher
	aggregator *processor.Aggregator
	ledger     storage.Ledger
	deliverer  notify.Deliverer

	startupDelay time.Duration

	// runMu 保证同一时刻只有一轮采集
	runMu   sync.Mutex
	running atomic.Bool

	mu     sync.RWMutex
	target string
	last   *Report

	now func() time.Time
}

func New(opts Options, fetchers []collector.Fetcher, agg *processor.Aggregator, ledger storage.Ledger, deliverer notify.Deliverer) (*Scheduler, error) {
	if opts.Period <= 0 {
		opts.Period = DefaultPeriod
	}
	if agg == nil {
		return nil, errors.New("scheduler: nil aggregator")
	}
	if ledger == nil {
		return nil, errors.New("scheduler: nil ledger")
	}
	if deliverer == nil {
		return nil, errors.New("scheduler: nil deliverer")
	}

	logger := cron.VerbosePrintfLogger(log.New(os.Stderr, "cron: ", log.LstdFlags))
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	s := &Scheduler{
		cron:         c,
		period:       opts.Period,
		fetchers:     fetchers,
		aggregator:   agg,
		ledger:       ledger,
		deliverer:    deliverer,
		startupDelay: opts.StartupDelay,
		target:       opts.Target,
		now:          time.Now,
	}

	if _, err := c.AddFunc(fmt.Sprintf("@every %s", opts.Period), s.tick); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	if s.startupDelay < 0 {
		return
	}
	// 延迟执行首轮采集，避免与启动时的其他初始化争抢资源
	time.AfterFunc(s.startupDelay, s.tick)
}

// Stop 停止定时器并等待正在执行的定时任务结束
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) tick() {
	if _, err := s.RunOnce(context.Background(), TriggerTimer); err != nil {
		if errors.Is(err, ErrBusy) {
			log.Println("collect job skipped: previous cycle still running")
			return
		}
		log.Printf("collect job error: %v", err)
	}
}

// SetTarget 更新投递目标，下一轮采集开始时生效
func (s *Scheduler) SetTarget(target string) {
	s.mu.Lock()
	s.target = target
	s.mu.Unlock()
	log.Printf("delivery target set to %q", target)
}

func (s *Scheduler) Target() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.target
}

func (s *Scheduler) Running() bool {
	return s.running.Load()
}

func (s *Scheduler) Period() time.Duration {
	return s.period
}

// LastReport 返回最近一轮采集的结果，尚未执行过时返回 nil
func (s *Scheduler) LastReport() *Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return nil
	}
	r := *s.last
	return &r
}

// SourceNames 按注册顺序返回数据源名称
func (s *Scheduler) SourceNames() []string {
	names := make([]string, 0, len(s.fetchers))
	for _, f := range s.fetchers {
		names = append(names, f.Name())
	}
	return names
}

// Preview 只采集与聚合，不过滤账本、不投递
func (s *Scheduler) Preview(ctx context.Context, limit int) []collector.Opportunity {
	items, _ := s.aggregator.Gather(ctx, s.fetchers)
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

// RunOnce 执行一轮 采集 → 去重 → 投递 → 记账。已有一轮在执行时返回 ErrBusy。
// 一轮开始后总会执行完，调用方取消 ctx 不会中断投递和记账；各数据源仍受 Aggregator 的超时约束。
func (s *Scheduler) RunOnce(ctx context.Context, trigger Trigger) (rep Report, err error) {
	if !s.runMu.TryLock() {
		return Report{}, ErrBusy
	}
	defer s.runMu.Unlock()

	ctx = context.WithoutCancel(ctx)

	s.running.Store(true)
	defer s.running.Store(false)

	rep = Report{Trigger: trigger, StartedAt: s.now()}
	defer func() {
		rep.FinishedAt = s.now()
		s.mu.Lock()
		last := rep
		s.last = &last
		s.mu.Unlock()
	}()

	log.Printf("start collect job (%s)...", trigger)

	target := s.Target()
	if target == "" {
		rep.Outcome = OutcomeNotConfigured
		log.Println("collect job skipped: no delivery target configured")
		return rep, nil
	}

	items, sources := s.aggregator.Gather(ctx, s.fetchers)
	rep.Fetched = len(items)
	rep.Sources = sources

	fresh, ferr := processor.Filter(ctx, items, s.ledger)
	if ferr != nil {
		rep.Outcome = OutcomeLedgerUnavailable
		rep.Warnings = append(rep.Warnings, ferr.Error())
		log.Printf("warn: collect job aborted before delivery: %v", ferr)
		return rep, nil
	}
	rep.NetNew = len(fresh)

	if len(fresh) == 0 {
		rep.Outcome = OutcomeNothingNew
		log.Printf("collect job done, fetched=%d, nothing new", rep.Fetched)
		return rep, nil
	}

	for _, opp := range fresh {
		if err := s.deliverer.Deliver(ctx, target, opp); err != nil {
			rep.Failed++
			log.Printf("deliver %s failed: %v", opp.Link, err)
			continue
		}
		rep.Delivered++

		if err := s.ledger.Append(ctx, storage.NewEntry(opp, s.now())); err != nil {
			rep.LedgerErrors++
			msg := fmt.Sprintf("ledger append %s: %v (will be re-delivered next cycle)", opp.Link, err)
			rep.Warnings = append(rep.Warnings, msg)
			log.Printf("warn: %s", msg)
		}
	}

	rep.Outcome = OutcomeDelivered
	if rep.Delivered == 0 {
		rep.Outcome = OutcomeDeliveryFailed
	}
	log.Printf("collect job done, fetched=%d new=%d delivered=%d failed=%d",
		rep.Fetched, rep.NetNew, rep.Delivered, rep.Failed)
	return rep, nil
}

// Status 供命令/接口层查询的只读状态
type Status struct {
	Target     string   `json:"target"`
	LedgerSize int      `json:"ledgerSize"`
	Running    bool     `json:"running"`
	Period     string   `json:"period"`
	Sources    []string `json:"sources"`
	LastRun    *Report  `json:"lastRun,omitempty"`
}

func (s *Scheduler) Status(ctx context.Context) (Status, error) {
	n, err := s.ledger.Len(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("scheduler: ledger size: %w", err)
	}
	return Status{
		Target:     s.Target(),
		LedgerSize: n,
		Running:    s.Running(),
		Period:     s.period.String(),
		Sources:    s.SourceNames(),
		LastRun:    s.LastReport(),
	}, nil
}
