package notify

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/LJTian/OpportunityHub/internal/collector"
)

// Deliverer 把一条机会投递到目标（频道 / webhook / topic），返回 nil 表示投递成功
type Deliverer interface {
	Deliver(ctx context.Context, target string, opp collector.Opportunity) error
}

// LogDeliverer 只打印日志，适合本地调试
type LogDeliverer struct{}

func (LogDeliverer) Deliver(ctx context.Context, target string, opp collector.Opportunity) error {
	log.Printf("deliver to %s: [%s] %s (%s) %s", target, opp.Source, opp.Title, opp.Type, opp.Link)
	return nil
}

// describe 生成消息正文：类型、来源，以及可选的截止时间
func describe(opp collector.Opportunity) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Type:** %s\n**Source:** %s", opp.Type, opp.Source)
	if opp.Deadline != nil {
		fmt.Fprintf(&b, "\n**Deadline:** %s", opp.Deadline.Format("2006-01-02"))
	}
	return b.String()
}
