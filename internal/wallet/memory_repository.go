package wallet

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryRepository struct {
	mu        sync.RWMutex
	byProfile map[string]Wallet
}

// NewMemoryRepository constructs an in-memory repository for tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{byProfile: make(map[string]Wallet)}
}

func (r *memoryRepository) Create(_ context.Context, w Wallet) (Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w.ID = uuid.NewString()
	w.CreatedAt = time.Now().UTC()
	if _, exists := r.byProfile[w.ProfileID]; !exists {
		r.byProfile[w.ProfileID] = w
	}
	return w, nil
}

func (r *memoryRepository) GetByProfileID(_ context.Context, profileID string) (Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.byProfile[profileID]
	if !ok {
		return Wallet{}, ErrNotFound
	}
	return w, nil
}

func (r *memoryRepository) ProfilesWithWallets(_ context.Context, profileIDs []string) (map[string]bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]bool, len(profileIDs))
	for _, id := range profileIDs {
		if _, ok := r.byProfile[id]; ok {
			out[id] = true
		}
	}
	return out, nil
}
