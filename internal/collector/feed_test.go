package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const rssBody = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Hacks</title>
<item><title>Global AI Hackathon</title><link>https://hacks.example/ai</link><category>ai</category></item>
<item><title></title><link>https://hacks.example/empty</link></item>
<item><title>Climate Jam</title><link>https://hacks.example/climate</link></item>
<item><title>Third One</title><link>https://hacks.example/third</link></item>
</channel></rss>`

func TestFeedFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(rssBody))
	}))
	defer srv.Close()

	f := NewFeedFetcher(FeedSource{Name: "HackFeed", Type: TypeHackathon, URL: srv.URL},
		Options{Timeout: 5 * time.Second, Limit: 2})

	out, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 items (limit), got %d", len(out))
	}
	if out[0].Title != "Global AI Hackathon" || out[1].Link != "https://hacks.example/climate" {
		t.Fatalf("unexpected items: %+v", out)
	}
	if out[0].Source != "HackFeed" || out[0].Type != TypeHackathon {
		t.Fatalf("source/type = %q/%q", out[0].Source, out[0].Type)
	}
}

func TestFeedFetcherBadFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not a feed"))
	}))
	defer srv.Close()

	f := NewFeedFetcher(FeedSource{Name: "Bad", URL: srv.URL}, Options{Timeout: 5 * time.Second})
	if _, err := f.Fetch(context.Background()); err == nil {
		t.Fatalf("expected parse error")
	}
}
