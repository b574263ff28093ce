package storage

import (
	"context"
	"time"

	"github.com/LJTian/OpportunityHub/internal/collector"
)

// Entry 账本中的一条投递记录，写入后不再修改
type Entry struct {
	Title       string         `json:"title"`
	Link        string         `json:"link"`
	Type        string         `json:"type"`
	Source      string         `json:"source,omitempty"`
	Deadline    *time.Time     `json:"deadline"`
	DeliveredAt time.Time      `json:"posted_at"`
	Extra       map[string]any `json:"extra,omitempty"`
}

// NewEntry 由一条已成功投递的机会生成账本记录
func NewEntry(opp collector.Opportunity, deliveredAt time.Time) Entry {
	return Entry{
		Title:       opp.Title,
		Link:        opp.Link,
		Type:        opp.Type,
		Source:      opp.Source,
		Deadline:    opp.Deadline,
		DeliveredAt: deliveredAt.UTC(),
		Extra:       opp.RawData,
	}
}

// Ledger 已投递机会的持久化记录，以 Link 为唯一键，只追加不删除
type Ledger interface {
	Contains(ctx context.Context, link string) (bool, error)
	Links(ctx context.Context) (map[string]struct{}, error)
	// Append 追加一条记录，Link 已存在时不做任何修改
	Append(ctx context.Context, e Entry) error
	// Entries 按投递时间倒序返回，limit<=0 表示全部
	Entries(ctx context.Context, limit int) ([]Entry, error)
	Len(ctx context.Context) (int, error)
}

var (
	_ Ledger = (*FileLedger)(nil)
	_ Ledger = (*Store)(nil)
)
