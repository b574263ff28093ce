package processor

import (
	"net/url"
	"strings"

	"github.com/LJTian/OpportunityHub/internal/collector"
)

// DefaultTitleMaxLen 标题最大字符数，保证下游展示不被截断报错
const DefaultTitleMaxLen = 150

// Normalize 做最基础的数据清洗：压缩空白、按 rune 截断标题、校验链接为绝对 http(s) 地址。
// 返回 false 表示该条目应被丢弃。
func Normalize(opp collector.Opportunity, titleMaxLen int) (collector.Opportunity, bool) {
	if titleMaxLen <= 0 {
		titleMaxLen = DefaultTitleMaxLen
	}

	opp.Title = truncateRunes(strings.Join(strings.Fields(opp.Title), " "), titleMaxLen)
	if opp.Title == "" {
		return opp, false
	}

	link, ok := normalizeLink(opp.Link)
	if !ok {
		return opp, false
	}
	opp.Link = link
	return opp, true
}

func normalizeLink(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", false
	}
	return u.String(), true
}

// truncateRunes 按 rune 数截断，避免把多字节字符截成非法 UTF-8
func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= limit {
		return s
	}
	return strings.TrimSpace(string(rs[:limit]))
}

// Dedupe 按链接去重，保留第一次出现的条目
func Dedupe(items []collector.Opportunity) []collector.Opportunity {
	out := make([]collector.Opportunity, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		if _, ok := seen[it.Link]; ok {
			continue
		}
		seen[it.Link] = struct{}{}
		out = append(out, it)
	}
	return out
}
