package memory

import (
	"context"
	"sync"

	"github.com/AnkitRegmi1/TruSwap/internal/repository"
)

// ProfileStateRepository keeps the profile state in two in-memory maps.
// Used for tests and for degraded startup when Redis is unreachable; state
// then lives only as long as the process.
type ProfileStateRepository struct {
	mu      sync.RWMutex
	profile map[string]string
	session map[string]string
}

func NewProfileStateRepository() *ProfileStateRepository {
	return &ProfileStateRepository{
		profile: make(map[string]string),
		session: make(map[string]string),
	}
}

var _ repository.ProfileStateRepository = (*ProfileStateRepository)(nil)

func (r *ProfileStateRepository) Get(ctx context.Context, key string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	val, ok := r.profile[key]
	if !ok {
		return "", repository.ErrNotFound
	}
	return val, nil
}

func (r *ProfileStateRepository) Set(ctx context.Context, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.profile[key] = value
	return nil
}

func (r *ProfileStateRepository) Delete(ctx context.Context, keys ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, k := range keys {
		delete(r.profile, k)
	}
	return nil
}

func (r *ProfileStateRepository) Keys(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.profile))
	for k := range r.profile {
		keys = append(keys, k)
	}
	return keys, nil
}

func (r *ProfileStateRepository) GetSession(ctx context.Context, key string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	val, ok := r.session[key]
	if !ok {
		return "", repository.ErrNotFound
	}
	return val, nil
}

func (r *ProfileStateRepository) SetSession(ctx context.Context, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.session[key] = value
	return nil
}

func (r *ProfileStateRepository) DeleteSession(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.session, key)
	return nil
}

func (r *ProfileStateRepository) ClearSession(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.session = make(map[string]string)
	return nil
}
