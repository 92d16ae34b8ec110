package memory

import (
	"context"
	"sort"
	"sync"

	"token-badge-registry/internal/domain"
	"token-badge-registry/internal/storage"
)

// BadgeStore is an in-memory implementation of storage.BadgeStore.
type BadgeStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Badge // keyed by address
}

// NewBadgeStore creates a new in-memory badge store.
func NewBadgeStore() *BadgeStore {
	return &BadgeStore{
		data: make(map[string]*domain.Badge),
	}
}

// Verify interface compliance at compile time.
var _ storage.BadgeStore = (*BadgeStore)(nil)

// Insert adds a new badge row. Returns ErrDuplicateKey if the address or the
// (config, mint) pair already exists.
func (s *BadgeStore) Insert(_ context.Context, b *domain.Badge) error {
	if b == nil || b.Address == "" || b.Config == "" || b.Mint == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[b.Address]; exists {
		return storage.ErrDuplicateKey
	}
	for _, existing := range s.data {
		if existing.Config == b.Config && existing.Mint == b.Mint {
			return storage.ErrDuplicateKey
		}
	}

	// Store a copy to prevent external mutation
	badgeCopy := *b
	s.data[b.Address] = &badgeCopy
	return nil
}

// GetByAddress retrieves a badge by its PDA. Returns ErrNotFound if not exists.
func (s *BadgeStore) GetByAddress(_ context.Context, address string) (*domain.Badge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, exists := s.data[address]
	if !exists {
		return nil, storage.ErrNotFound
	}

	badgeCopy := *b
	return &badgeCopy, nil
}

// GetByConfigAndMint retrieves the badge for a (config, mint) pair.
func (s *BadgeStore) GetByConfigAndMint(_ context.Context, config, mint string) (*domain.Badge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, b := range s.data {
		if b.Config == config && b.Mint == mint {
			badgeCopy := *b
			return &badgeCopy, nil
		}
	}

	return nil, storage.ErrNotFound
}

// ListByConfig retrieves all badges under a configuration scope.
func (s *BadgeStore) ListByConfig(_ context.Context, config string) ([]*domain.Badge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Badge
	for _, b := range s.data {
		if b.Config == config {
			badgeCopy := *b
			result = append(result, &badgeCopy)
		}
	}

	// Sort by mint ASC
	sort.Slice(result, func(i, j int) bool {
		return result[i].Mint < result[j].Mint
	})

	return result, nil
}

// ListByMint retrieves all badges certifying a mint.
func (s *BadgeStore) ListByMint(_ context.Context, mint string) ([]*domain.Badge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Badge
	for _, b := range s.data {
		if b.Mint == mint {
			badgeCopy := *b
			result = append(result, &badgeCopy)
		}
	}

	// Sort by config ASC
	sort.Slice(result, func(i, j int) bool {
		return result[i].Config < result[j].Config
	})

	return result, nil
}

// ListAll retrieves every badge row.
func (s *BadgeStore) ListAll(_ context.Context) ([]*domain.Badge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Badge, 0, len(s.data))
	for _, b := range s.data {
		badgeCopy := *b
		result = append(result, &badgeCopy)
	}

	// Sort by address ASC
	sort.Slice(result, func(i, j int) bool {
		return result[i].Address < result[j].Address
	})

	return result, nil
}

// Delete removes a badge row. Returns ErrNotFound if the row does not exist.
func (s *BadgeStore) Delete(_ context.Context, address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[address]; !exists {
		return storage.ErrNotFound
	}

	delete(s.data, address)
	return nil
}
