package assistant

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// MemorySize is the number of messages kept per user, three exchanges.
	MemorySize = 6
	MemoryTTL  = 24 * time.Hour
)

// Memory keeps the recent conversation of each user.
type Memory interface {
	Load(ctx context.Context, userID uuid.UUID) ([]Message, error)
	Append(ctx context.Context, userID uuid.UUID, msgs ...Message) error
}

// LocalMemory is an in-process Memory.
type LocalMemory struct {
	mu    sync.Mutex
	size  int
	users map[uuid.UUID][]Message
}

func NewLocalMemory(size int) *LocalMemory {
	if size <= 0 {
		size = MemorySize
	}
	return &LocalMemory{size: size, users: make(map[uuid.UUID][]Message)}
}

func (m *LocalMemory) Load(_ context.Context, userID uuid.UUID) ([]Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.users[userID]...), nil
}

func (m *LocalMemory) Append(_ context.Context, userID uuid.UUID, msgs ...Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	history := append(m.users[userID], msgs...)
	if len(history) > m.size {
		history = append([]Message(nil), history[len(history)-m.size:]...)
	}
	m.users[userID] = history
	return nil
}

// RedisMemory stores each user's history as a capped redis list.
type RedisMemory struct {
	Client *redis.Client
	Size   int
	TTL    time.Duration
	Prefix string
}

// NewRedisMemory parses a redis:// URL.
func NewRedisMemory(url string) (*RedisMemory, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &RedisMemory{
		Client: redis.NewClient(opts),
		Size:   MemorySize,
		TTL:    MemoryTTL,
		Prefix: "warung:chat:",
	}, nil
}

func (m *RedisMemory) key(userID uuid.UUID) string {
	return m.Prefix + userID.String()
}

func (m *RedisMemory) Load(ctx context.Context, userID uuid.UUID) ([]Message, error) {
	raw, err := m.Client.LRange(ctx, m.key(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("load chat memory: %w", err)
	}
	out := make([]Message, 0, len(raw))
	for _, item := range raw {
		var msg Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			continue
		}
		out = append(out, msg)
	}
	return out, nil
}

// Append pushes msgs to the tail, trims to the newest Size entries and
// refreshes the expiry.
func (m *RedisMemory) Append(ctx context.Context, userID uuid.UUID, msgs ...Message) error {
	if len(msgs) == 0 {
		return nil
	}
	values := make([]any, 0, len(msgs))
	for _, msg := range msgs {
		b, err := json.Marshal(msg)
		if err != nil {
			return err
		}
		values = append(values, string(b))
	}
	key := m.key(userID)
	pipe := m.Client.TxPipeline()
	pipe.RPush(ctx, key, values...)
	pipe.LTrim(ctx, key, int64(-m.Size), -1)
	pipe.Expire(ctx, key, m.TTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append chat memory: %w", err)
	}
	return nil
}

func (m *RedisMemory) Ping(ctx context.Context) error {
	return m.Client.Ping(ctx).Err()
}

func (m *RedisMemory) Close() error {
	return m.Client.Close()
}
