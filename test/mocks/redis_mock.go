package mocks

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// MockRedisClient is an in-memory stand-in for the Redis commands the login
// limiter uses. Expiry is checked against Now, which tests may replace.
type MockRedisClient struct {
	mu   sync.RWMutex
	data map[string]mockRedisValue

	Now func() time.Time

	// Error injection
	GetError    error
	IncrError   error
	ExpireError error
	DelError    error

	ExpireCalls []time.Duration
}

type mockRedisValue struct {
	value     string
	expiresAt time.Time
}

func NewMockRedisClient() *MockRedisClient {
	return &MockRedisClient{
		data: make(map[string]mockRedisValue),
		Now:  time.Now,
	}
}

func (m *MockRedisClient) live(key string) (mockRedisValue, bool) {
	val, ok := m.data[key]
	if !ok {
		return val, false
	}
	if !val.expiresAt.IsZero() && !m.Now().Before(val.expiresAt) {
		return val, false
	}
	return val, true
}

func (m *MockRedisClient) Get(ctx context.Context, key string) *redis.StringCmd {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cmd := redis.NewStringCmd(ctx)
	if m.GetError != nil {
		cmd.SetErr(m.GetError)
		return cmd
	}
	val, ok := m.live(key)
	if !ok {
		cmd.SetErr(redis.Nil)
		return cmd
	}
	cmd.SetVal(val.value)
	return cmd
}

func (m *MockRedisClient) Incr(ctx context.Context, key string) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()

	cmd := redis.NewIntCmd(ctx)
	if m.IncrError != nil {
		cmd.SetErr(m.IncrError)
		return cmd
	}
	val, ok := m.live(key)
	if !ok {
		val = mockRedisValue{value: "0"}
	}
	n, err := strconv.ParseInt(val.value, 10, 64)
	if err != nil {
		cmd.SetErr(err)
		return cmd
	}
	n++
	val.value = strconv.FormatInt(n, 10)
	m.data[key] = val
	cmd.SetVal(n)
	return cmd
}

func (m *MockRedisClient) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	m.mu.Lock()
	defer m.mu.Unlock()

	cmd := redis.NewBoolCmd(ctx)
	m.ExpireCalls = append(m.ExpireCalls, expiration)
	if m.ExpireError != nil {
		cmd.SetErr(m.ExpireError)
		return cmd
	}
	val, ok := m.live(key)
	if !ok {
		cmd.SetVal(false)
		return cmd
	}
	val.expiresAt = m.Now().Add(expiration)
	m.data[key] = val
	cmd.SetVal(true)
	return cmd
}

func (m *MockRedisClient) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()

	cmd := redis.NewIntCmd(ctx)
	if m.DelError != nil {
		cmd.SetErr(m.DelError)
		return cmd
	}
	var deleted int64
	for _, key := range keys {
		if _, ok := m.data[key]; ok {
			delete(m.data, key)
			deleted++
		}
	}
	cmd.SetVal(deleted)
	return cmd
}

func (m *MockRedisClient) Ping(ctx context.Context) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	cmd.SetVal("PONG")
	return cmd
}

func (m *MockRedisClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string]mockRedisValue)
	m.Now = time.Now
	m.GetError, m.IncrError, m.ExpireError, m.DelError = nil, nil, nil, nil
	m.ExpireCalls = nil
}

// SetKey directly sets a key (for test setup).
func (m *MockRedisClient) SetKey(key, value string, expiration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var expiresAt time.Time
	if expiration > 0 {
		expiresAt = m.Now().Add(expiration)
	}
	m.data[key] = mockRedisValue{value: value, expiresAt: expiresAt}
}

// HasKey reports whether a live key exists (for test assertions).
func (m *MockRedisClient) HasKey(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.live(key)
	return ok
}
