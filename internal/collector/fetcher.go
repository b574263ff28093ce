package collector

import (
	"context"
	"fmt"
	"time"
)

// 各数据源共用的类型标签
const (
	TypeHackathon   = "Hackathon"
	TypeCompetition = "Hackathon/Competition"
	TypeInternship  = "Internship"
	TypeJob         = "Job/Startup"
)

// DefaultUserAgent 所有抓取请求统一携带的标识
const DefaultUserAgent = "OpportunityHubBot/1.0 (+https://github.com/LJTian/OpportunityHub)"

// Opportunity 统一采集后的机会条目，Link 作为去重的身份键
type Opportunity struct {
	Title    string
	Link     string
	Type     string
	Source   string
	Deadline *time.Time
	RawData  map[string]any
}

// Fetcher 抽象每一个数据源
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context) ([]Opportunity, error)
}

// Options 控制单个数据源的请求行为
type Options struct {
	UserAgent string
	Timeout   time.Duration
	// Limit 单次最多返回的条数，<=0 表示使用数据源自身的默认值
	Limit int
}

func (o Options) withDefaults() Options {
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	if o.Timeout <= 0 {
		o.Timeout = 15 * time.Second
	}
	return o
}

func (o Options) limitOr(def int) int {
	if o.Limit > 0 {
		return o.Limit
	}
	return def
}

// FetchError 单个数据源的失败，聚合器据此记录日志并视为空结果
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
