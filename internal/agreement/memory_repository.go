package agreement

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryRepository struct {
	mu   sync.RWMutex
	rows []Agreement
}

// NewMemoryRepository builds an in-memory agreement store for testing.
func NewMemoryRepository() Repository {
	return &memoryRepository{}
}

func (r *memoryRepository) Create(_ context.Context, a Agreement) (Agreement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a.ID = uuid.NewString()
	a.CreatedAt = time.Now().UTC()
	r.rows = append(r.rows, a)
	return a, nil
}

func (r *memoryRepository) ListForProfile(_ context.Context, profileID string) ([]Agreement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Agreement
	for _, a := range r.rows {
		if a.DepositorProfileID == profileID || a.BeneficiaryProfileID == profileID {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
