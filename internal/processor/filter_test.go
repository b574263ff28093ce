package processor

import (
	"context"
	"errors"
	"testing"

	"github.com/LJTian/OpportunityHub/internal/collector"
)

type staticLinks struct {
	links map[string]struct{}
	err   error
	reads int
}

func (s *staticLinks) Links(ctx context.Context) (map[string]struct{}, error) {
	s.reads++
	return s.links, s.err
}

func TestFilterSetDifferencePreservesOrder(t *testing.T) {
	items := []collector.Opportunity{opp("C", "https://x/c"), opp("A", "https://x/a"), opp("B", "https://x/b")}
	ledger := &staticLinks{links: map[string]struct{}{"https://x/a": {}}}

	out, err := Filter(context.Background(), items, ledger)
	if err != nil {
		t.Fatalf("Filter error: %v", err)
	}
	if len(out) != 2 || out[0].Link != "https://x/c" || out[1].Link != "https://x/b" {
		t.Fatalf("unexpected filter output: %+v", out)
	}
	if ledger.reads != 1 {
		t.Fatalf("ledger read %d times, want 1", ledger.reads)
	}
}

func TestFilterPropagatesLedgerError(t *testing.T) {
	ledger := &staticLinks{err: errors.New("db down")}
	if _, err := Filter(context.Background(), []collector.Opportunity{opp("A", "https://x/a")}, ledger); err == nil {
		t.Fatalf("expected error")
	}
}
