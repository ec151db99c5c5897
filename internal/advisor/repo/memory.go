package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mandry-ai/server/internal/advisor/model"
)

// MemoryProfileRepository is a map-backed repository for tests and local
// runs without Redis. Profiles are copied on the way in and out so callers
// never share memory with the store.
type MemoryProfileRepository struct {
	mu       sync.RWMutex
	profiles map[string][]byte
}

func NewMemoryProfileRepository() *MemoryProfileRepository {
	return &MemoryProfileRepository{profiles: map[string][]byte{}}
}

func (m *MemoryProfileRepository) Get(_ context.Context, userID string) (*model.Profile, error) {
	m.mu.RLock()
	raw, ok := m.profiles[userID]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	var profile model.Profile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return nil, fmt.Errorf("unmarshal profile %s: %w", userID, err)
	}
	return &profile, nil
}

func (m *MemoryProfileRepository) GetOrCreate(ctx context.Context, userID string) (*model.Profile, bool, error) {
	profile, err := m.Get(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	if profile != nil {
		return profile, false, nil
	}
	profile = model.NewProfile(userID)
	if err := m.Save(ctx, profile); err != nil {
		return nil, false, err
	}
	return profile, true, nil
}

func (m *MemoryProfileRepository) Save(_ context.Context, profile *model.Profile) error {
	raw, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	m.mu.Lock()
	m.profiles[profile.UserID] = raw
	m.mu.Unlock()
	return nil
}

func (m *MemoryProfileRepository) Clear(_ context.Context, userID string) error {
	m.mu.Lock()
	delete(m.profiles, userID)
	m.mu.Unlock()
	return nil
}

var _ ProfileRepository = (*MemoryProfileRepository)(nil)
