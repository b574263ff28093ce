package storage

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// LedgerEntry 账本表，URL 唯一索引保证同一机会只投递一次
type LedgerEntry struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	Link        string            `gorm:"size:1024;uniqueIndex" json:"link"`
	Title       string            `gorm:"size:512" json:"title"`
	Type        string            `gorm:"size:64;index" json:"type"`
	Source      string            `gorm:"size:64;index" json:"source"`
	Deadline    *time.Time        `json:"deadline"`
	DeliveredAt time.Time         `gorm:"index" json:"deliveredAt"`
	ExtraData   datatypes.JSONMap `gorm:"type:jsonb" json:"extraData"`

	CreatedAt time.Time `json:"createdAt"`
}

type Store struct {
	DB    *gorm.DB
	Redis *redis.Client

	cache *linkCache
}

func NewStore(dsn, redisAddr string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&LedgerEntry{}); err != nil {
		return nil, err
	}

	var rdb *redis.Client
	if redisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr: redisAddr,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Printf("warn: redis ping failed: %v", err)
		}
	}

	return &Store{DB: db, Redis: rdb, cache: newLinkCache(rdb)}, nil
}

// toValidUTF8 将字符串规范为合法 UTF-8，避免 PostgreSQL invalid byte sequence 错误
func toValidUTF8(s string) string {
	return strings.ToValidUTF8(s, "\uFFFD")
}

func (s *Store) Contains(ctx context.Context, link string) (bool, error) {
	// 缓存只用于加速命中；未命中时以数据库为准
	if s.cache.contains(ctx, link) {
		return true, nil
	}

	var n int64
	if err := s.DB.WithContext(ctx).Model(&LedgerEntry{}).Where("link = ?", link).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// Links 每轮采集读一次；Redis 缓存有效时不访问数据库
func (s *Store) Links(ctx context.Context) (map[string]struct{}, error) {
	return s.cache.load(ctx, s.pluckLinks)
}

func (s *Store) pluckLinks(ctx context.Context) ([]string, error) {
	var links []string
	if err := s.DB.WithContext(ctx).Model(&LedgerEntry{}).Pluck("link", &links).Error; err != nil {
		return nil, err
	}
	return links, nil
}

// Append 以 link 作为幂等键，已存在时忽略
func (s *Store) Append(ctx context.Context, e Entry) error {
	if e.Link == "" {
		return errors.New("ledger: append: empty link")
	}
	if e.DeliveredAt.IsZero() {
		e.DeliveredAt = time.Now().UTC()
	}

	row := &LedgerEntry{
		Link:        e.Link,
		Title:       toValidUTF8(e.Title),
		Type:        e.Type,
		Source:      e.Source,
		Deadline:    e.Deadline,
		DeliveredAt: e.DeliveredAt,
		ExtraData:   datatypes.JSONMap(e.Extra),
	}
	if err := s.DB.WithContext(ctx).Where("link = ?", e.Link).FirstOrCreate(row).Error; err != nil {
		return err
	}

	s.cache.add(ctx, e.Link)
	return nil
}

func (s *Store) Entries(ctx context.Context, limit int) ([]Entry, error) {
	q := s.DB.WithContext(ctx).Model(&LedgerEntry{}).Order("delivered_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []LedgerEntry
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]Entry, 0, len(rows))
	for _, r := range rows {
		out = append(out, Entry{
			Title:       r.Title,
			Link:        r.Link,
			Type:        r.Type,
			Source:      r.Source,
			Deadline:    r.Deadline,
			DeliveredAt: r.DeliveredAt,
			Extra:       map[string]any(r.ExtraData),
		})
	}
	return out, nil
}

func (s *Store) Len(ctx context.Context) (int, error) {
	var n int64
	if err := s.DB.WithContext(ctx).Model(&LedgerEntry{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return int(n), nil
}

// Close 释放数据库与 Redis 连接
func (s *Store) Close() error {
	if s.Redis != nil {
		_ = s.Redis.Close()
	}
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
