package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHackerNewsJobsFetcher(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/jobstories.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[3, 1, 2]`)
	})
	mux.HandleFunc("/item/3.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":3,"title":"Acme (YC W24) is hiring Go engineers","url":"https://acme.dev/jobs","type":"job","time":1700000000}`)
	})
	mux.HandleFunc("/item/1.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":1,"title":"Beta is hiring","type":"job","time":1700000000}`)
	})
	mux.HandleFunc("/item/2.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":2,"title":"Not a job","type":"story"}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := NewHackerNewsJobsFetcher(Options{Timeout: 5 * time.Second})
	f.BaseURL = srv.URL

	out, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 job items, got %d: %+v", len(out), out)
	}
	if out[0].Link != "https://acme.dev/jobs" {
		t.Fatalf("rank order not preserved: %+v", out)
	}
	if out[1].Link != "https://news.ycombinator.com/item?id=1" {
		t.Fatalf("missing url should fall back to item page: %q", out[1].Link)
	}
	if out[0].Type != TypeJob || out[0].Source != "HackerNews" {
		t.Fatalf("type/source = %q/%q", out[0].Type, out[0].Source)
	}
}

func TestHackerNewsJobsFetcherListError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := NewHackerNewsJobsFetcher(Options{Timeout: 5 * time.Second})
	f.BaseURL = srv.URL
	if _, err := f.Fetch(context.Background()); err == nil {
		t.Fatalf("expected error on 503")
	}
}
