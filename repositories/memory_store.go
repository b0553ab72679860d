package repositories

import (
	"context"
	"sync"
	"time"

	"disasterguardian/interfaces"
)

type expiringValue struct {
	value     string
	count     int64
	expiresAt time.Time
}

// ttlMap is the single-instance stand-in for Redis keys with expiry.
type ttlMap struct {
	mu    sync.Mutex
	items map[string]*expiringValue
	now   func() time.Time
}

func newTTLMap() *ttlMap {
	return &ttlMap{items: make(map[string]*expiringValue), now: time.Now}
}

// get returns the live entry for key; callers hold mu.
func (m *ttlMap) get(key string) (*expiringValue, bool) {
	item, ok := m.items[key]
	if !ok {
		return nil, false
	}
	if m.now().After(item.expiresAt) {
		delete(m.items, key)
		return nil, false
	}
	return item, true
}

// prune drops expired entries that were never read again.
func (m *ttlMap) prune() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for key, item := range m.items {
		if now.After(item.expiresAt) {
			delete(m.items, key)
		}
	}
}

// MemoryOTPStore is used when Redis is not configured.
type MemoryOTPStore struct {
	secrets  *ttlMap
	attempts *ttlMap
}

func NewMemoryOTPStore() *MemoryOTPStore {
	return &MemoryOTPStore{secrets: newTTLMap(), attempts: newTTLMap()}
}

func (s *MemoryOTPStore) Save(_ context.Context, key, secret string, ttl time.Duration) error {
	s.secrets.mu.Lock()
	s.secrets.items[key] = &expiringValue{value: secret, expiresAt: s.secrets.now().Add(ttl)}
	s.secrets.mu.Unlock()

	s.attempts.mu.Lock()
	delete(s.attempts.items, key)
	s.attempts.mu.Unlock()
	return nil
}

func (s *MemoryOTPStore) Get(_ context.Context, key string) (string, error) {
	s.secrets.mu.Lock()
	defer s.secrets.mu.Unlock()

	item, ok := s.secrets.get(key)
	if !ok {
		return "", interfaces.ErrNotFound
	}
	return item.value, nil
}

func (s *MemoryOTPStore) Delete(_ context.Context, key string) error {
	s.secrets.mu.Lock()
	delete(s.secrets.items, key)
	s.secrets.mu.Unlock()

	s.attempts.mu.Lock()
	delete(s.attempts.items, key)
	s.attempts.mu.Unlock()
	return nil
}

func (s *MemoryOTPStore) IncrementAttempts(_ context.Context, key string, ttl time.Duration) (int64, error) {
	s.attempts.mu.Lock()
	defer s.attempts.mu.Unlock()

	item, ok := s.attempts.get(key)
	if !ok {
		item = &expiringValue{}
		s.attempts.items[key] = item
	}
	item.count++
	item.expiresAt = s.attempts.now().Add(ttl)
	return item.count, nil
}

func (s *MemoryOTPStore) Prune() {
	s.secrets.prune()
	s.attempts.prune()
}

type MemoryRevocationStore struct {
	revoked *ttlMap
}

func NewMemoryRevocationStore() *MemoryRevocationStore {
	return &MemoryRevocationStore{revoked: newTTLMap()}
}

func (s *MemoryRevocationStore) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	s.revoked.mu.Lock()
	s.revoked.items[tokenID] = &expiringValue{expiresAt: s.revoked.now().Add(ttl)}
	s.revoked.mu.Unlock()
	return nil
}

func (s *MemoryRevocationStore) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	s.revoked.mu.Lock()
	defer s.revoked.mu.Unlock()

	_, ok := s.revoked.get(tokenID)
	return ok, nil
}

func (s *MemoryRevocationStore) Prune() {
	s.revoked.prune()
}

var (
	_ interfaces.OTPStore        = (*RedisOTPStore)(nil)
	_ interfaces.OTPStore        = (*MemoryOTPStore)(nil)
	_ interfaces.RevocationStore = (*RedisRevocationStore)(nil)
	_ interfaces.RevocationStore = (*MemoryRevocationStore)(nil)
)
