package collector

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/gocolly/colly/v2"
)

// SiteFetcher 抓取单个列表页，并交给 Strategy 解析
type SiteFetcher struct {
	name     string
	pageURL  string
	strategy Strategy
	opts     Options
}

func NewSiteFetcher(name, pageURL string, strategy Strategy, opts Options) *SiteFetcher {
	return &SiteFetcher{
		name:     name,
		pageURL:  pageURL,
		strategy: strategy,
		opts:     opts.withDefaults(),
	}
}

func (f *SiteFetcher) Name() string {
	return f.name
}

func (f *SiteFetcher) Fetch(ctx context.Context) ([]Opportunity, error) {
	log.Printf("fetch %s...", f.name)

	if err := ctx.Err(); err != nil {
		return nil, &FetchError{Source: f.name, Err: err}
	}

	u, err := url.Parse(f.pageURL)
	if err != nil || u.Hostname() == "" {
		return nil, &FetchError{Source: f.name, Err: fmt.Errorf("invalid page url %q", f.pageURL)}
	}

	c := colly.NewCollector(
		colly.AllowedDomains(u.Hostname()),
		colly.UserAgent(f.opts.UserAgent),
	)
	c.SetRequestTimeout(f.opts.Timeout)

	var results []Opportunity

	// 整页只回调一次，具体的容器/标题/链接规则由 strategy 决定
	c.OnHTML("html", func(e *colly.HTMLElement) {
		results = append(results, f.strategy.Extract(e.DOM, e.Request.URL)...)
	})

	// Visit 不感知 ctx，只受 SetRequestTimeout 约束
	if err := c.Visit(f.pageURL); err != nil {
		return nil, &FetchError{Source: f.name, Err: err}
	}

	if err := ctx.Err(); err != nil {
		return nil, &FetchError{Source: f.name, Err: err}
	}

	if limit := f.opts.Limit; limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	if len(results) == 0 {
		log.Printf("fetch %s got 0 items", f.name)
	}
	return results, nil
}

// linkContains 生成只保留包含指定片段的链接过滤器
func linkContains(fragment string) func(string) bool {
	return func(link string) bool {
		return strings.Contains(strings.ToLower(link), fragment)
	}
}
