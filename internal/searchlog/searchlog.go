// Package searchlog remembers the most recent searches for the admin panel.
package searchlog

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dharmasatrya/skybound/internal/models"
)

const (
	MaxEntries      = 100
	DefaultRedisKey = "search:logs"
)

type Entry struct {
	models.SearchParams
	Timestamp time.Time `json:"timestamp"`
}

// Log returns entries newest first and never holds more than MaxEntries.
type Log interface {
	Record(ctx context.Context, params models.SearchParams) error
	Recent(ctx context.Context, limit int) ([]Entry, error)
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > MaxEntries {
		return MaxEntries
	}
	return limit
}

type MemoryLog struct {
	mu      sync.Mutex
	entries []Entry
	now     func() time.Time
}

func NewMemoryLog() *MemoryLog {
	return &MemoryLog{now: time.Now}
}

func (l *MemoryLog) Record(ctx context.Context, params models.SearchParams) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := Entry{SearchParams: params, Timestamp: l.now().UTC()}
	l.entries = append([]Entry{entry}, l.entries...)
	if len(l.entries) > MaxEntries {
		l.entries = l.entries[:MaxEntries]
	}
	return nil
}

func (l *MemoryLog) Recent(ctx context.Context, limit int) ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	limit = clampLimit(limit)
	if limit > len(l.entries) {
		limit = len(l.entries)
	}
	out := make([]Entry, limit)
	copy(out, l.entries[:limit])
	return out, nil
}

type RedisLog struct {
	client *redis.Client
	key    string
}

func NewRedisLog(client *redis.Client, key string) *RedisLog {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisLog{client: client, key: key}
}

func (l *RedisLog) Record(ctx context.Context, params models.SearchParams) error {
	data, err := json.Marshal(Entry{SearchParams: params, Timestamp: time.Now().UTC()})
	if err != nil {
		return err
	}

	_, err = l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, l.key, data)
		pipe.LTrim(ctx, l.key, 0, MaxEntries-1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("record search: %w", err)
	}
	return nil
}

func (l *RedisLog) Recent(ctx context.Context, limit int) ([]Entry, error) {
	raw, err := l.client.LRange(ctx, l.key, 0, int64(clampLimit(limit)-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read search log: %w", err)
	}

	entries := make([]Entry, 0, len(raw))
	for _, r := range raw {
		var e Entry
		if err := json.Unmarshal([]byte(r), &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}
