package sessions

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mbolis/quest-editor/model"
	"github.com/mbolis/quest-editor/navigation"
)

// Manager starts, loads and saves navigation sessions on a Store.
type Manager struct {
	store Store
	ttl   time.Duration
}

func NewManager(store Store, ttl time.Duration) *Manager {
	return &Manager{store: store, ttl: ttl}
}

// Start opens a session on survey under a fresh id and stores it.
func (m *Manager) Start(ctx context.Context, survey *model.Survey, opts ...navigation.Option) (*navigation.Session, error) {
	s, err := navigation.New(uuid.NewString(), survey, opts...)
	if err != nil {
		return nil, err
	}
	if err := m.Save(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (m *Manager) Load(ctx context.Context, id string, opts ...navigation.Option) (*navigation.Session, error) {
	data, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s, err := navigation.Restore(data, opts...)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", id, err)
	}
	return s, nil
}

// Save stores s, refreshing its TTL. Concurrent saves of the same session
// are not merged: the last one wins.
func (m *Manager) Save(ctx context.Context, s *navigation.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return m.store.Put(ctx, s.ID(), data, m.ttl)
}

func (m *Manager) Delete(ctx context.Context, id string) error {
	return m.store.Delete(ctx, id)
}
