package lecture

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when no lecture exists for the requested id.
var ErrNotFound = errors.New("lecture not found")

// Store persists generated lectures so the UI can re-fetch them and request
// playback by id.
type Store interface {
	Put(ctx context.Context, lec *Lecture) error
	Get(ctx context.Context, id string) (*Lecture, error)
}

// RedisStore keeps lectures as TTL-bounded JSON values in Redis.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to Redis using a redis:// URL.
func NewRedisStore(url string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	return &RedisStore{
		client: redis.NewClient(opts),
		ttl:    ttl,
	}, nil
}

func lectureKey(id string) string {
	return "lecture:" + id
}

// Put stores the lecture under its id.
func (s *RedisStore) Put(ctx context.Context, lec *Lecture) error {
	data, err := json.Marshal(lec)
	if err != nil {
		return fmt.Errorf("failed to marshal lecture: %w", err)
	}
	if err := s.client.Set(ctx, lectureKey(lec.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store lecture %s: %w", lec.ID, err)
	}
	return nil
}

// Get fetches a lecture by id.
func (s *RedisStore) Get(ctx context.Context, id string) (*Lecture, error) {
	data, err := s.client.Get(ctx, lectureKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch lecture %s: %w", id, err)
	}

	var lec Lecture
	if err := json.Unmarshal(data, &lec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal lecture %s: %w", id, err)
	}
	return &lec, nil
}

// Ping verifies the Redis connection; used by the readiness endpoint.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// MemoryStore is the fallback store used when Redis is not configured.
// Entries live for the process lifetime; fine for development.
type MemoryStore struct {
	mu       sync.RWMutex
	lectures map[string]*Lecture
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{lectures: make(map[string]*Lecture)}
}

// Put stores the lecture under its id.
func (s *MemoryStore) Put(ctx context.Context, lec *Lecture) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lectures[lec.ID] = lec
	return nil
}

// Get fetches a lecture by id.
func (s *MemoryStore) Get(ctx context.Context, id string) (*Lecture, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lec, ok := s.lectures[id]
	if !ok {
		return nil, ErrNotFound
	}
	return lec, nil
}
