package collector

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/mmcdole/gofeed"
)

const feedDefaultLimit = 15

// FeedSource 通过 RSS/Atom 暴露机会列表的数据源配置
type FeedSource struct {
	Name string
	Type string
	URL  string
}

// FeedFetcher 抓取 RSS/Atom 列表，每个条目视为一条机会
type FeedFetcher struct {
	src  FeedSource
	opts Options
}

func NewFeedFetcher(src FeedSource, opts Options) *FeedFetcher {
	return &FeedFetcher{src: src, opts: opts.withDefaults()}
}

func (f *FeedFetcher) Name() string {
	return f.src.Name
}

func (f *FeedFetcher) Fetch(ctx context.Context) ([]Opportunity, error) {
	log.Printf("fetch feed %s...", f.src.Name)

	ctx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	parser := gofeed.NewParser()
	parser.UserAgent = f.opts.UserAgent
	parser.Client = &http.Client{Timeout: f.opts.Timeout}

	feed, err := parser.ParseURLWithContext(f.src.URL, ctx)
	if err != nil {
		return nil, &FetchError{Source: f.src.Name, Err: err}
	}

	limit := f.opts.limitOr(feedDefaultLimit)
	results := make([]Opportunity, 0, min(len(feed.Items), limit))
	for _, item := range feed.Items {
		if len(results) >= limit {
			break
		}
		title := cleanText(item.Title)
		link := strings.TrimSpace(item.Link)
		if title == "" || link == "" {
			continue
		}

		opp := Opportunity{
			Title:  title,
			Link:   link,
			Type:   f.src.Type,
			Source: f.src.Name,
		}
		if len(item.Categories) > 0 {
			opp.RawData = map[string]any{"categories": item.Categories}
		}
		results = append(results, opp)
	}

	if len(results) == 0 {
		log.Printf("fetch feed %s got 0 items", f.src.Name)
	}
	return results, nil
}

// FeedFetchers 为每个配置的 feed 构造一个 Fetcher
func FeedFetchers(sources []FeedSource, opts Options) []Fetcher {
	out := make([]Fetcher, 0, len(sources))
	for _, src := range sources {
		out = append(out, NewFeedFetcher(src, opts))
	}
	return out
}
