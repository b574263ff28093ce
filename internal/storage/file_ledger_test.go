package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/LJTian/OpportunityHub/internal/collector"
)

func newTestLedger(t *testing.T) *FileLedger {
	t.Helper()
	return NewFileLedger(filepath.Join(t.TempDir(), "posted_opportunities.json"))
}

func TestFileLedgerMissingFileIsEmpty(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	ok, err := l.Contains(ctx, "https://x/a")
	if err != nil || ok {
		t.Fatalf("Contains on missing file = %v, %v; want false, nil", ok, err)
	}
	if n, _ := l.Len(ctx); n != 0 {
		t.Fatalf("Len = %d, want 0", n)
	}
}

func TestFileLedgerAppendRoundTrip(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	deadline := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	at := time.Date(2025, 5, 1, 10, 30, 0, 0, time.UTC)
	opp := collector.Opportunity{
		Title:    "Hack A",
		Link:     "https://x/a",
		Type:     collector.TypeHackathon,
		Source:   "Devpost",
		Deadline: &deadline,
		RawData:  map[string]any{"rank": 1},
	}
	if err := l.Append(ctx, NewEntry(opp, at)); err != nil {
		t.Fatalf("Append error: %v", err)
	}

	// 重新打开，模拟进程重启
	reopened := NewFileLedger(l.Path())
	entries, err := reopened.Entries(ctx, 0)
	if err != nil {
		t.Fatalf("Entries error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Title != "Hack A" || e.Link != "https://x/a" || e.Type != collector.TypeHackathon || e.Source != "Devpost" {
		t.Fatalf("entry fields lost: %+v", e)
	}
	if e.Deadline == nil || !e.Deadline.Equal(deadline) || !e.DeliveredAt.Equal(at) {
		t.Fatalf("timestamps lost: deadline=%v deliveredAt=%v", e.Deadline, e.DeliveredAt)
	}
	if ok, _ := reopened.Contains(ctx, "https://x/a"); !ok {
		t.Fatalf("Contains should be true after append")
	}
}

func TestFileLedgerRejectsDuplicateLinks(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := l.Append(ctx, Entry{Title: "Hack A", Link: "https://x/a"}); err != nil {
			t.Fatalf("Append error: %v", err)
		}
	}
	if err := l.Append(ctx, Entry{Title: "Hack B", Link: "https://x/b"}); err != nil {
		t.Fatalf("Append error: %v", err)
	}

	if n, _ := l.Len(ctx); n != 2 {
		t.Fatalf("Len = %d, want 2", n)
	}
	links, _ := l.Links(ctx)
	if _, ok := links["https://x/a"]; !ok || len(links) != 2 {
		t.Fatalf("unexpected links: %v", links)
	}
}

func TestFileLedgerCorruptFileTreatedAsEmptyAndPreserved(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	if err := os.WriteFile(l.Path(), []byte(`[{"title": "half`), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	if ok, err := l.Contains(ctx, "https://x/a"); ok || err != nil {
		t.Fatalf("Contains on corrupt file = %v, %v; want false, nil", ok, err)
	}
	if links, err := l.Links(ctx); err != nil || len(links) != 0 {
		t.Fatalf("Links on corrupt file = %v, %v", links, err)
	}

	if err := l.Append(ctx, Entry{Title: "Hack A", Link: "https://x/a"}); err != nil {
		t.Fatalf("Append error: %v", err)
	}

	bs, err := os.ReadFile(l.Path())
	if err != nil {
		t.Fatalf("read ledger: %v", err)
	}
	var entries []Entry
	if err := json.Unmarshal(bs, &entries); err != nil || len(entries) != 1 {
		t.Fatalf("ledger after rewrite = %s (%v)", bs, err)
	}

	matches, _ := filepath.Glob(l.Path() + ".corrupt-*")
	if len(matches) != 1 {
		t.Fatalf("expected corrupt copy to be kept, got %v", matches)
	}
}

func TestFileLedgerEntriesNewestFirst(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, link := range []string{"https://x/1", "https://x/2", "https://x/3"} {
		e := Entry{Title: "t", Link: link, DeliveredAt: base.Add(time.Duration(i) * time.Hour)}
		if err := l.Append(ctx, e); err != nil {
			t.Fatalf("Append error: %v", err)
		}
	}

	entries, _ := l.Entries(ctx, 2)
	if len(entries) != 2 || entries[0].Link != "https://x/3" || entries[1].Link != "https://x/2" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestFileLedgerLeavesNoTempFiles(t *testing.T) {
	l := newTestLedger(t)
	if err := l.Append(context.Background(), Entry{Title: "t", Link: "https://x/1"}); err != nil {
		t.Fatalf("Append error: %v", err)
	}
	names, _ := os.ReadDir(filepath.Dir(l.Path()))
	for _, n := range names {
		if strings.Contains(n.Name(), ".tmp-") {
			t.Fatalf("temp file left behind: %s", n.Name())
		}
	}
}
