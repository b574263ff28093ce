package collector

const (
	unstopURL      = "https://unstop.com/hackathons"
	devpostURL     = "https://devpost.com/hackathons?category=upcoming"
	internshalaURL = "https://internshala.com/"
	wellfoundURL   = "https://wellfound.com/jobs"
)

// NewUnstopFetcher 抓取 Unstop 黑客松/竞赛
func NewUnstopFetcher(opts Options) *SiteFetcher {
	return NewSiteFetcher("Unstop", unstopURL, &CardStrategy{
		Container: "div[class*='challenge'], div[class*='opportunity']",
		Title:     "h2, h3, h4, a",
		Deadline:  "time",
		Type:      TypeCompetition,
		Source:    "Unstop",
		Limit:     opts.limitOr(15),
	}, opts)
}

// NewDevpostFetcher 抓取 Devpost 即将开始的黑客松，只保留 devpost 站内链接
func NewDevpostFetcher(opts Options) *SiteFetcher {
	return NewSiteFetcher("Devpost", devpostURL, &CardStrategy{
		Container:  "div[class*='challenge']",
		Title:      "h2, h3, a",
		Deadline:   "time",
		Type:       TypeHackathon,
		Source:     "Devpost",
		Limit:      opts.limitOr(15),
		LinkFilter: linkContains("devpost"),
	}, opts)
}

// NewInternshalaFetcher 抓取 Internshala 首页的实习列表
func NewInternshalaFetcher(opts Options) *SiteFetcher {
	return NewSiteFetcher("Internshala", internshalaURL, &CardStrategy{
		Container: "div[class*='internship'], article[class*='internship'], div[class*='listing'], article[class*='listing']",
		Title:     "h2, h3, h4, a",
		Type:      TypeInternship,
		Source:    "Internshala",
		Limit:     opts.limitOr(15),
	}, opts)
}

// NewWellfoundFetcher 抓取 Wellfound（原 AngelList）创业公司职位
func NewWellfoundFetcher(opts Options) *SiteFetcher {
	return NewSiteFetcher("AngelList", wellfoundURL, &CardStrategy{
		Container: "div[class*='job'], article[class*='job'], div[class*='listing'], article[class*='listing']",
		Title:     "h2, h3, h4, a",
		Type:      TypeJob,
		Source:    "AngelList",
		Limit:     opts.limitOr(10),
	}, opts)
}

// DefaultFetchers 按注册顺序返回内置数据源；顺序决定同一链接去重时保留哪一条
func DefaultFetchers(opts Options) []Fetcher {
	return []Fetcher{
		NewUnstopFetcher(opts),
		NewDevpostFetcher(opts),
		NewInternshalaFetcher(opts),
		NewWellfoundFetcher(opts),
		NewHackerNewsJobsFetcher(opts),
	}
}
