package cache

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"codegen-backend/internal/models"

	"github.com/redis/go-redis/v9"
)

// Cache keys
const (
	SuperConfigKey = "codegen:super_config"
	LockKeyFmt     = "codegen:lock:%s"
)

var client *redis.Client

// Init initializes the Redis connection. On failure the client stays nil and
// every helper in this package degrades to a no-op.
func Init(addr, password string, db int) error {
	client = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		// Close the failed client and set to nil for graceful degradation
		client.Close()
		client = nil
		return err
	}
	return nil
}

// GetClient returns the Redis client
func GetClient() *redis.Client {
	return client
}

// Close shuts the client down if one was opened
func Close() {
	if client == nil {
		return
	}
	client.Close()
	client = nil
}

// IsHealthy returns true if Redis connection is working
func IsHealthy() bool {
	if client == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return client.Ping(ctx).Err() == nil
}

// GetCached returns cached data for a key
func GetCached(ctx context.Context, key string) ([]byte, bool) {
	if client == nil {
		return nil, false
	}
	data, err := client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

// SetCached stores data with a TTL
func SetCached(ctx context.Context, key string, data []byte, ttl time.Duration) {
	if client == nil {
		return
	}
	client.Set(ctx, key, data, ttl)
}

// InvalidateKeys removes specific cache keys
func InvalidateKeys(ctx context.Context, keys ...string) {
	if client == nil || len(keys) == 0 {
		return
	}
	client.Del(ctx, keys...)
}

// GetCachedSuperConfig returns the cached configuration snapshot
func GetCachedSuperConfig(ctx context.Context) (*models.SuperConfig, bool) {
	data, ok := GetCached(ctx, SuperConfigKey)
	if !ok {
		return nil, false
	}
	var cfg models.SuperConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		log.Printf("[Redis] Dropping unreadable config snapshot: %v", err)
		InvalidateKeys(ctx, SuperConfigKey)
		return nil, false
	}
	return &cfg, true
}

func CacheSuperConfig(ctx context.Context, cfg *models.SuperConfig, ttl time.Duration) {
	if client == nil || cfg == nil {
		return
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		return
	}
	SetCached(ctx, SuperConfigKey, data, ttl)
}

// InvalidateSuperConfig is called whenever total_code_generated changes
func InvalidateSuperConfig(ctx context.Context) {
	InvalidateKeys(ctx, SuperConfigKey)
}

// ============================================
// Advisory run lock
// ============================================

// Compare-and-delete so a lock that expired and was taken by another
// process is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

var ErrNoClient = errors.New("redis client not initialized")

// RedisLock is a cross-process advisory lock keyed by name. Acquire uses
// SET NX PX with a random token; Release deletes only our own token.
type RedisLock struct {
	rdb *redis.Client
	ttl time.Duration

	mu     sync.Mutex
	tokens map[string]string
}

// NewRedisLock binds a lock to the package client; nil when Redis is off
func NewRedisLock(ttl time.Duration) *RedisLock {
	if client == nil {
		return nil
	}
	return &RedisLock{rdb: client, ttl: ttl, tokens: make(map[string]string)}
}

func (l *RedisLock) Acquire(ctx context.Context, name string) (bool, error) {
	if l == nil || l.rdb == nil {
		return false, ErrNoClient
	}

	token, err := newToken()
	if err != nil {
		return false, err
	}

	ok, err := l.rdb.SetNX(ctx, fmt.Sprintf(LockKeyFmt, name), token, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock %s: %w", name, err)
	}
	if !ok {
		return false, nil
	}

	l.mu.Lock()
	l.tokens[name] = token
	l.mu.Unlock()
	return true, nil
}

func (l *RedisLock) Release(ctx context.Context, name string) error {
	if l == nil || l.rdb == nil {
		return ErrNoClient
	}

	l.mu.Lock()
	token, ok := l.tokens[name]
	delete(l.tokens, name)
	l.mu.Unlock()
	if !ok {
		return nil
	}

	if err := releaseScript.Run(ctx, l.rdb, []string{fmt.Sprintf(LockKeyFmt, name)}, token).Err(); err != nil {
		return fmt.Errorf("failed to release lock %s: %w", name, err)
	}
	return nil
}

func newToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate lock token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
