package collector

import (
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Strategy 从一页内容中提取零到多个候选机会
type Strategy interface {
	Extract(root *goquery.Selection, base *url.URL) []Opportunity
}

const defaultMinTitleLen = 5

// CardStrategy 基于“卡片”容器的通用解析：容器内第一个标题元素作为标题，第一个带 href 的链接作为地址。
// 页面结构随时可能调整，这里只做尽力而为的解析，解析不到的卡片直接跳过。
type CardStrategy struct {
	Container string
	Title     string
	// Deadline 可选，匹配到的元素优先取 datetime 属性，其次取文本
	Deadline    string
	Type        string
	Source      string
	MinTitleLen int
	Limit       int
	// LinkFilter 可选，返回 false 的链接会被丢弃
	LinkFilter func(link string) bool
}

func (s *CardStrategy) Extract(root *goquery.Selection, base *url.URL) []Opportunity {
	minLen := s.MinTitleLen
	if minLen <= 0 {
		minLen = defaultMinTitleLen
	}

	cards := root.Find(s.Container)
	if s.Limit > 0 && cards.Length() > s.Limit {
		cards = cards.Slice(0, s.Limit)
	}

	out := make([]Opportunity, 0, cards.Length())
	cards.Each(func(_ int, card *goquery.Selection) {
		titleSel := card.Find(s.Title).First()
		if titleSel.Length() == 0 {
			return
		}
		title := cleanText(titleSel.Text())
		if len([]rune(title)) < minLen {
			return
		}

		href, ok := card.Find("a[href]").First().Attr("href")
		if !ok {
			return
		}
		link := resolveLink(base, href)
		if link == "" {
			return
		}
		if s.LinkFilter != nil && !s.LinkFilter(link) {
			return
		}

		opp := Opportunity{
			Title:  title,
			Link:   link,
			Type:   s.Type,
			Source: s.Source,
		}
		if s.Deadline != "" {
			opp.Deadline = parseDeadline(card.Find(s.Deadline).First())
		}
		out = append(out, opp)
	})
	return out
}

// resolveLink 将相对地址补全为绝对地址，非 http(s) 链接返回空串
func resolveLink(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	if u.Host == "" {
		return ""
	}
	return u.String()
}

var deadlineLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"Jan 2, 2006",
	"02 Jan 2006",
	"2 Jan 2006",
}

func parseDeadline(sel *goquery.Selection) *time.Time {
	if sel.Length() == 0 {
		return nil
	}
	candidates := make([]string, 0, 2)
	if v, ok := sel.Attr("datetime"); ok {
		candidates = append(candidates, strings.TrimSpace(v))
	}
	candidates = append(candidates, cleanText(sel.Text()))

	for _, c := range candidates {
		if c == "" {
			continue
		}
		for _, layout := range deadlineLayouts {
			if t, err := time.Parse(layout, c); err == nil {
				t = t.UTC()
				return &t
			}
		}
	}
	return nil
}

func cleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.Join(strings.Fields(s), " ")
}
