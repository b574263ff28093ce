package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newCardServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua != "test-agent" {
			t.Errorf("User-Agent = %q, want %q", ua, "test-agent")
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSiteFetcherResolvesAgainstPage(t *testing.T) {
	srv := newCardServer(t, http.StatusOK, `<html><body>
<div class="internship-card"><h3>Backend Intern - Go</h3><a href="/internship/detail/1">view</a></div>
<div class="internship-card"><h3>Frontend Intern</h3><a href="/internship/detail/2">view</a></div>
</body></html>`)

	f := NewSiteFetcher("Internshala", srv.URL+"/", &CardStrategy{
		Container: "div[class*='internship']",
		Title:     "h2, h3, h4, a",
		Type:      TypeInternship,
		Source:    "Internshala",
	}, Options{UserAgent: "test-agent", Timeout: 5 * time.Second})

	out, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 items, got %d", len(out))
	}
	if out[0].Link != srv.URL+"/internship/detail/1" {
		t.Fatalf("link = %q", out[0].Link)
	}
}

func TestSiteFetcherReturnsFetchErrorOnHTTPError(t *testing.T) {
	srv := newCardServer(t, http.StatusInternalServerError, "boom")

	f := NewSiteFetcher("Broken", srv.URL, &CardStrategy{Container: "div", Title: "h3"},
		Options{UserAgent: "test-agent", Timeout: 5 * time.Second})

	out, err := f.Fetch(context.Background())
	if err == nil {
		t.Fatalf("expected error, got %d items", len(out))
	}
	var fe *FetchError
	if !errors.As(err, &fe) || fe.Source != "Broken" {
		t.Fatalf("expected FetchError for Broken, got %v", err)
	}
}

func TestSiteFetcherCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := NewSiteFetcher("Any", "https://example.com/", &CardStrategy{Container: "div", Title: "h3"}, Options{})
	if _, err := f.Fetch(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestDefaultFetchersOrder(t *testing.T) {
	fs := DefaultFetchers(Options{})
	want := []string{"Unstop", "Devpost", "Internshala", "AngelList", "HackerNews"}
	if len(fs) != len(want) {
		t.Fatalf("expected %d fetchers, got %d", len(want), len(fs))
	}
	for i, name := range want {
		if fs[i].Name() != name {
			t.Fatalf("fetchers[%d] = %q, want %q", i, fs[i].Name(), name)
		}
	}
}

func TestPerSourceLimitDefaults(t *testing.T) {
	limitOf := func(f *SiteFetcher) int {
		return f.strategy.(*CardStrategy).Limit
	}

	// 未设置全局上限时使用各数据源自己的默认值
	if got := limitOf(NewWellfoundFetcher(Options{})); got != 10 {
		t.Fatalf("Wellfound default limit = %d, want 10", got)
	}
	if got := limitOf(NewUnstopFetcher(Options{})); got != 15 {
		t.Fatalf("Unstop default limit = %d, want 15", got)
	}
	if got := limitOf(NewWellfoundFetcher(Options{Limit: 4})); got != 4 {
		t.Fatalf("global limit should override, got %d", got)
	}
}
