package profile

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryRepository struct {
	mu      sync.RWMutex
	byOwner map[string]Profile
}

// NewMemoryRepository builds an in-memory profile store for testing.
func NewMemoryRepository() Repository {
	return &memoryRepository{byOwner: make(map[string]Profile)}
}

func (r *memoryRepository) Upsert(_ context.Context, p Profile) (Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byOwner[p.AuthUserID]; ok {
		existing.Email = p.Email
		existing.Name = p.Name
		existing.CompanyName = p.CompanyName
		r.byOwner[p.AuthUserID] = existing
		return existing, nil
	}
	p.ID = uuid.NewString()
	p.CreatedAt = time.Now().UTC()
	r.byOwner[p.AuthUserID] = p
	return p, nil
}

func (r *memoryRepository) Get(_ context.Context, id string) (Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.byOwner {
		if p.ID == id {
			return p, nil
		}
	}
	return Profile{}, ErrNotFound
}

func (r *memoryRepository) GetByAuthUserID(_ context.Context, authUserID string) (Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byOwner[authUserID]
	if !ok {
		return Profile{}, ErrNotFound
	}
	return p, nil
}

func (r *memoryRepository) ListOthers(_ context.Context, authUserID string) ([]Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Profile
	for owner, p := range r.byOwner {
		if owner != authUserID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
