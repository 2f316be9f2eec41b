package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"commust/internal/model"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Context identifies the visitor a request acts for.
// StoreKey addresses the stored state; VisitorID is the anonymous id mixed into the cart hash.
type Context struct {
	StoreKey  string
	VisitorID string
}

// NewContext mints identifiers for a first-time visitor.
func NewContext() Context {
	return Context{StoreKey: uuid.NewString(), VisitorID: uuid.NewString()}
}

// Store persists per-session cart state. Load returns an empty state for unknown keys.
type Store interface {
	Load(ctx context.Context, key string) (*model.CartState, error)
	Save(ctx context.Context, key string, state *model.CartState) error
}

const keyPrefix = "commust:session:"

type redisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisStore keeps each session as a JSON document with a sliding TTL.
func NewRedisStore(client redis.UniversalClient, ttl time.Duration) Store {
	return &redisStore{client: client, ttl: ttl}
}

func (s *redisStore) Load(ctx context.Context, key string) (*model.CartState, error) {
	raw, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return &model.CartState{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	var state model.CartState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &state, nil
}

func (s *redisStore) Save(ctx context.Context, key string, state *model.CartState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+key, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Connect parses a redis:// URL and verifies the server answers.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

type memoryEntry struct {
	raw     []byte
	expires time.Time
}

type memoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore keeps sessions in process memory. Used when no Redis is configured.
func NewMemoryStore(ttl time.Duration) Store {
	return &memoryStore{entries: make(map[string]memoryEntry), ttl: ttl, now: time.Now}
}

func (s *memoryStore) Load(_ context.Context, key string) (*model.CartState, error) {
	s.mu.Lock()
	e, ok := s.entries[key]
	if ok && s.ttl > 0 && s.now().After(e.expires) {
		delete(s.entries, key)
		ok = false
	}
	s.mu.Unlock()

	if !ok {
		return &model.CartState{}, nil
	}
	var state model.CartState
	if err := json.Unmarshal(e.raw, &state); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &state, nil
}

func (s *memoryStore) Save(_ context.Context, key string, state *model.CartState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	s.mu.Lock()
	now := s.now()
	s.sweep(now)
	s.entries[key] = memoryEntry{raw: raw, expires: now.Add(s.ttl)}
	s.mu.Unlock()
	return nil
}

// sweep drops expired sessions. Callers hold s.mu.
func (s *memoryStore) sweep(now time.Time) {
	if s.ttl <= 0 {
		return
	}
	for key, e := range s.entries {
		if now.After(e.expires) {
			delete(s.entries, key)
		}
	}
}
