package memory

import (
	"context"
	"sync"

	"gamesage/internal/domain/inference"
)

// Store backs the memory driver. Repositories lock mu themselves unless the
// call runs inside this store's TxManager, which already holds it.
type Store struct {
	mu         sync.RWMutex
	rules      map[int64]inference.Rule
	nextRuleID int64
	candidates map[int64]inference.Candidate
}

func NewStore() *Store {
	return &Store{
		rules:      make(map[int64]inference.Rule),
		candidates: make(map[int64]inference.Candidate),
	}
}

type txKey struct{}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

func (s *Store) write(ctx context.Context, fn func()) {
	if !s.inTx(ctx) {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	fn()
}

func (s *Store) read(ctx context.Context, fn func()) {
	if !s.inTx(ctx) {
		s.mu.RLock()
		defer s.mu.RUnlock()
	}
	fn()
}
