package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

const lockRetryDelay = 50 * time.Millisecond

// FileLedger 以 JSON 数组文件保存账本。
// 读取时文件缺失或损坏都视为空账本；写入时整体重写到临时文件再 rename，避免写到一半的文件被后续读取。
type FileLedger struct {
	path string
	mu   sync.Mutex
	lock *flock.Flock
}

func NewFileLedger(path string) *FileLedger {
	return &FileLedger{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

func (l *FileLedger) Path() string {
	return l.path
}

// load 读取当前账本；corrupt 表示文件存在但无法解析
func (l *FileLedger) load() (entries []Entry, corrupt bool) {
	bs, err := os.ReadFile(l.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("warn: ledger read %s failed, treat as empty: %v", l.path, err)
		}
		return nil, false
	}
	if len(bs) == 0 {
		return nil, false
	}
	if err := json.Unmarshal(bs, &entries); err != nil {
		log.Printf("warn: ledger %s is corrupt, treat as empty: %v", l.path, err)
		return nil, true
	}
	return entries, false
}

func (l *FileLedger) Contains(ctx context.Context, link string) (bool, error) {
	entries, _ := l.load()
	for _, e := range entries {
		if e.Link == link {
			return true, nil
		}
	}
	return false, nil
}

func (l *FileLedger) Links(ctx context.Context) (map[string]struct{}, error) {
	entries, _ := l.load()
	set := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		set[e.Link] = struct{}{}
	}
	return set, nil
}

func (l *FileLedger) Entries(ctx context.Context, limit int) ([]Entry, error) {
	entries, _ := l.load()
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].DeliveredAt.After(entries[j].DeliveredAt)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (l *FileLedger) Len(ctx context.Context) (int, error) {
	entries, _ := l.load()
	return len(entries), nil
}

func (l *FileLedger) Append(ctx context.Context, e Entry) error {
	if e.Link == "" {
		return errors.New("ledger: append: empty link")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// 进程内用 mutex，进程间（api 与 collect 共用一个文件）用文件锁
	locked, err := l.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("ledger: lock %s: %w", l.path, err)
	}
	if !locked {
		return fmt.Errorf("ledger: lock %s: not acquired", l.path)
	}
	defer func() { _ = l.lock.Unlock() }()

	entries, corrupt := l.load()
	for _, existing := range entries {
		if existing.Link == e.Link {
			return nil
		}
	}
	if corrupt {
		l.preserveCorrupt()
	}

	if e.DeliveredAt.IsZero() {
		e.DeliveredAt = time.Now().UTC()
	}
	entries = append(entries, e)

	if err := l.writeAtomic(entries); err != nil {
		return fmt.Errorf("ledger: write %s: %w", l.path, err)
	}
	return nil
}

// preserveCorrupt 重写前把损坏的文件另存，便于人工恢复历史记录
func (l *FileLedger) preserveCorrupt() {
	backup := fmt.Sprintf("%s.corrupt-%d", l.path, time.Now().Unix())
	if err := os.Rename(l.path, backup); err != nil {
		log.Printf("warn: ledger keep corrupt copy failed: %v", err)
		return
	}
	log.Printf("ledger: corrupt file moved to %s", backup)
}

func (l *FileLedger) writeAtomic(entries []Entry) error {
	bs, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(l.path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(bs); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, l.path)
}
