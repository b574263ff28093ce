package storage

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// ledgerLinksKey Redis 中缓存已投递链接的集合
	ledgerLinksKey = "opportunity:ledger:links"
	// linkCacheTTL 缓存标记的有效期，过期后下一次读取从数据库全量回填
	linkCacheTTL = 6 * time.Hour

	linkCacheBatch = 500
)

// linkCache 用 Redis SET 缓存账本中的全部链接，数据库仍是唯一的事实来源。
// 集合只有在 warm 标记存在时才被当作完整结果使用。
type linkCache struct {
	rdb *redis.Client
	key string
	ttl time.Duration
}

func newLinkCache(rdb *redis.Client) *linkCache {
	if rdb == nil {
		return nil
	}
	return &linkCache{rdb: rdb, key: ledgerLinksKey, ttl: linkCacheTTL}
}

func (c *linkCache) warmKey() string {
	return c.key + ":warm"
}

// load 缓存有效时直接从 Redis 返回；否则调用 fill 读数据库并回填缓存。
// Redis 出错时退回数据库，不影响结果。
func (c *linkCache) load(ctx context.Context, fill func(context.Context) ([]string, error)) (map[string]struct{}, error) {
	if c != nil {
		if links, ok := c.members(ctx); ok {
			return toLinkSet(links), nil
		}
	}

	links, err := fill(ctx)
	if err != nil {
		return nil, err
	}
	if c != nil {
		c.populate(ctx, links)
	}
	return toLinkSet(links), nil
}

func (c *linkCache) members(ctx context.Context) ([]string, bool) {
	n, err := c.rdb.Exists(ctx, c.warmKey()).Result()
	if err != nil {
		log.Printf("warn: redis link cache check failed: %v", err)
		return nil, false
	}
	if n == 0 {
		return nil, false
	}
	links, err := c.rdb.SMembers(ctx, c.key).Result()
	if err != nil {
		log.Printf("warn: redis link cache read failed: %v", err)
		return nil, false
	}
	return links, true
}

func (c *linkCache) populate(ctx context.Context, links []string) {
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for start := 0; start < len(links); start += linkCacheBatch {
			end := min(start+linkCacheBatch, len(links))
			members := make([]any, 0, end-start)
			for _, l := range links[start:end] {
				members = append(members, l)
			}
			pipe.SAdd(ctx, c.key, members...)
		}
		pipe.Set(ctx, c.warmKey(), "1", c.ttl)
		return nil
	})
	if err != nil {
		log.Printf("warn: redis link cache fill failed: %v", err)
	}
}

// contains 只在缓存有效且命中时返回 true
func (c *linkCache) contains(ctx context.Context, link string) bool {
	if c == nil {
		return false
	}
	ok, err := c.rdb.SIsMember(ctx, c.key, link).Result()
	return err == nil && ok
}

// add 记录新写入数据库的链接；写缓存失败时让缓存失效，避免漏掉这条链接
func (c *linkCache) add(ctx context.Context, link string) {
	if c == nil {
		return
	}
	if err := c.rdb.SAdd(ctx, c.key, link).Err(); err != nil {
		log.Printf("warn: redis cache ledger link failed: %v", err)
		if err := c.rdb.Del(ctx, c.warmKey()).Err(); err != nil {
			log.Printf("warn: redis link cache invalidate failed: %v", err)
		}
	}
}

func toLinkSet(links []string) map[string]struct{} {
	set := make(map[string]struct{}, len(links))
	for _, l := range links {
		set[l] = struct{}{}
	}
	return set
}
