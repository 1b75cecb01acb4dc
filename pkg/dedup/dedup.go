package dedup

import (
	"context"
	"sync"
	"time"

	"github.com/AzielCF/az-bot/infrastructure/valkey"
	"github.com/jellydator/ttlcache/v3"
)

// Store remembers message keys for a while so replayed deliveries can be dropped.
type Store interface {
	// Seen marks key as delivered and reports whether it already was.
	Seen(ctx context.Context, key string) (bool, error)
}

// Key builds the dedup key of one message.
func Key(chatJID, messageID string) string {
	return chatJID + "|" + messageID
}

// MemoryStore is the single-process Store, used when Valkey is not enabled.
// Expired keys are evicted by the cache's own loop until Close.
type MemoryStore struct {
	cache *ttlcache.Cache[string, struct{}]
	once  sync.Once
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	cache := ttlcache.New[string, struct{}](
		ttlcache.WithTTL[string, struct{}](ttl),
		ttlcache.WithDisableTouchOnHit[string, struct{}](),
	)
	go cache.Start()
	return &MemoryStore{cache: cache}
}

func (s *MemoryStore) Seen(ctx context.Context, key string) (bool, error) {
	_, found := s.cache.GetOrSet(key, struct{}{})
	return found, nil
}

func (s *MemoryStore) Len() int {
	return s.cache.Len()
}

// Cleanup evicts expired keys now instead of waiting for the cache loop.
func (s *MemoryStore) Cleanup() {
	s.cache.DeleteExpired()
}

// Close stops the eviction loop. Seen keeps working afterwards.
func (s *MemoryStore) Close() {
	s.once.Do(s.cache.Stop)
}

// ValkeyStore shares the dedup window between processes using SET NX EX.
type ValkeyStore struct {
	client *valkey.Client
	ttl    time.Duration
}

func NewValkeyStore(client *valkey.Client, ttl time.Duration) *ValkeyStore {
	return &ValkeyStore{client: client, ttl: ttl}
}

func (s *ValkeyStore) Seen(ctx context.Context, key string) (bool, error) {
	stored, err := s.client.SetNX(ctx, s.client.Key("dedup", key), "1", s.ttl)
	if err != nil {
		return false, err
	}
	return !stored, nil
}
