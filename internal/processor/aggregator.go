package processor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/LJTian/OpportunityHub/internal/collector"
	"golang.org/x/sync/errgroup"
)

// SourceReport 单个数据源在一轮采集中的结果
type SourceReport struct {
	Name    string        `json:"name"`
	Count   int           `json:"count"`
	Dropped int           `json:"dropped"`
	Error   string        `json:"error,omitempty"`
	Elapsed time.Duration `json:"elapsed"`
}

// Aggregator 并发执行所有数据源并合并结果，单个数据源失败不影响其他数据源
type Aggregator struct {
	// Timeout 单个数据源的超时时间，超时后该数据源视为空结果
	Timeout     time.Duration
	Limit       int
	TitleMaxLen int
}

func NewAggregator(timeout time.Duration, limit, titleMaxLen int) *Aggregator {
	return &Aggregator{Timeout: timeout, Limit: limit, TitleMaxLen: titleMaxLen}
}

// Gather 返回按注册顺序合并、按链接去重后的机会列表
func (a *Aggregator) Gather(ctx context.Context, fetchers []collector.Fetcher) ([]collector.Opportunity, []SourceReport) {
	log.Println("start gather opportunities...")

	var g errgroup.Group
	results := make([][]collector.Opportunity, len(fetchers))
	reports := make([]SourceReport, len(fetchers))

	for i, f := range fetchers {
		i, f := i, f // per-iteration copies (pre-Go 1.22 loop semantics)
		g.Go(func() error {
			start := time.Now()
			items, err := a.fetchOne(ctx, f)
			reports[i] = SourceReport{Name: f.Name(), Elapsed: time.Since(start)}
			if err != nil {
				// 尽力而为：不取消其他数据源
				log.Printf("warn: %v", err)
				reports[i].Error = err.Error()
				return nil
			}

			kept := make([]collector.Opportunity, 0, len(items))
			for _, it := range items {
				if a.Limit > 0 && len(kept) >= a.Limit {
					break
				}
				norm, ok := Normalize(it, a.TitleMaxLen)
				if !ok {
					reports[i].Dropped++
					continue
				}
				if norm.Source == "" {
					norm.Source = f.Name()
				}
				kept = append(kept, norm)
			}
			results[i] = kept
			reports[i].Count = len(kept)
			log.Printf("%s done, fetched=%d kept=%d", f.Name(), len(items), len(kept))
			return nil
		})
	}
	_ = g.Wait()

	var all []collector.Opportunity
	for _, items := range results {
		all = append(all, items...)
	}
	unique := Dedupe(all)

	log.Printf("gather done, total=%d unique=%d", len(all), len(unique))
	return unique, reports
}

// fetchOne 在独立的超时上下文中执行数据源，并把 panic 转成 FetchError。
// colly 的 Visit 不接受 ctx，超时后 SiteFetcher 仍会在后台跑到自身的请求超时为止，结果直接丢弃。
func (a *Aggregator) fetchOne(ctx context.Context, f collector.Fetcher) ([]collector.Opportunity, error) {
	fctx := ctx
	if a.Timeout > 0 {
		var cancel context.CancelFunc
		fctx, cancel = context.WithTimeout(ctx, a.Timeout)
		defer cancel()
	}

	type result struct {
		items []collector.Opportunity
		err   error
	}
	done := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		items, err := f.Fetch(fctx)
		done <- result{items: items, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return nil, asFetchError(f.Name(), r.err)
		}
		return r.items, nil
	case <-fctx.Done():
		// 不遵守 ctx 的数据源会在后台自行结束，结果被丢弃
		return nil, asFetchError(f.Name(), fctx.Err())
	}
}

func asFetchError(name string, err error) error {
	var fe *collector.FetchError
	if errors.As(err, &fe) {
		return fe
	}
	return &collector.FetchError{Source: name, Err: err}
}
