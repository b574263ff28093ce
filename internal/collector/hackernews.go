package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sort"
	"sync"
	"time"
)

const (
	hnBaseURL          = "https://hacker-news.firebaseio.com/v0"
	hnItemPageURL      = "https://news.ycombinator.com/item?id=%d"
	hnMaxItems         = 15
	hnMaxResponseBytes = 1 << 20 // 1MB
	hnConcurrency      = 5
)

// HackerNewsJobsFetcher 通过官方 Firebase API 抓取 Hacker News 的招聘帖（YC 创业公司为主）
type HackerNewsJobsFetcher struct {
	BaseURL string
	opts    Options
}

func NewHackerNewsJobsFetcher(opts Options) *HackerNewsJobsFetcher {
	return &HackerNewsJobsFetcher{BaseURL: hnBaseURL, opts: opts.withDefaults()}
}

func (h *HackerNewsJobsFetcher) Name() string {
	return "HackerNews"
}

type hnItem struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
	Score int    `json:"score"`
	By    string `json:"by"`
	Time  int64  `json:"time"`
	Type  string `json:"type"`
}

func (h *HackerNewsJobsFetcher) Fetch(ctx context.Context) ([]Opportunity, error) {
	log.Println("fetch Hacker News job stories...")

	client := &http.Client{Timeout: h.opts.Timeout}

	var ids []int
	if err := h.getJSON(ctx, client, h.BaseURL+"/jobstories.json", &ids); err != nil {
		return nil, &FetchError{Source: h.Name(), Err: fmt.Errorf("job stories: %w", err)}
	}

	if limit := h.opts.limitOr(hnMaxItems); len(ids) > limit {
		ids = ids[:limit]
	}

	type indexedItem struct {
		idx  int
		item hnItem
	}

	var (
		mu    sync.Mutex
		wg    sync.WaitGroup
		sem   = make(chan struct{}, hnConcurrency)
		items = make([]indexedItem, 0, len(ids))
	)

	for i, id := range ids {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx, id int) {
			defer wg.Done()
			defer func() { <-sem }()

			var it hnItem
			if err := h.getJSON(ctx, client, fmt.Sprintf("%s/item/%d.json", h.BaseURL, id), &it); err != nil {
				log.Printf("hackernews: fetch item %d: %v", id, err)
				return
			}
			if it.Title == "" || it.Type != "job" {
				return
			}

			mu.Lock()
			items = append(items, indexedItem{idx: idx, item: it})
			mu.Unlock()
		}(i, id)
	}
	wg.Wait()

	// 并发返回顺序不确定，按接口给出的排名恢复顺序
	sort.Slice(items, func(i, j int) bool { return items[i].idx < items[j].idx })

	results := make([]Opportunity, 0, len(items))
	for _, ii := range items {
		it := ii.item
		link := it.URL
		if link == "" {
			link = fmt.Sprintf(hnItemPageURL, it.ID)
		}
		results = append(results, Opportunity{
			Title:  it.Title,
			Link:   link,
			Type:   TypeJob,
			Source: h.Name(),
			RawData: map[string]any{
				"hn_id":     it.ID,
				"author":    it.By,
				"posted_at": time.Unix(it.Time, 0).UTC().Format(time.RFC3339),
				"rank":      ii.idx + 1,
			},
		})
	}

	if len(results) == 0 {
		log.Println("hackernews: no job stories fetched")
	}
	return results, nil
}

func (h *HackerNewsJobsFetcher) getJSON(ctx context.Context, client *http.Client, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", h.opts.UserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(io.LimitReader(resp.Body, hnMaxResponseBytes)).Decode(v)
}
