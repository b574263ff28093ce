package processor

import (
	"context"
	"fmt"

	"github.com/LJTian/OpportunityHub/internal/collector"
)

// LinkSet 账本的只读视图：一次性返回所有已投递链接
type LinkSet interface {
	Links(ctx context.Context) (map[string]struct{}, error)
}

// Filter 返回链接不在账本中的条目，保持聚合器输出顺序。账本在这里只读取一次。
func Filter(ctx context.Context, items []collector.Opportunity, ledger LinkSet) ([]collector.Opportunity, error) {
	seen, err := ledger.Links(ctx)
	if err != nil {
		return nil, fmt.Errorf("filter: read ledger: %w", err)
	}

	out := make([]collector.Opportunity, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it.Link]; ok {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}
