// Package memory keeps messages and profiles in process. Used for dev and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dkeye/hotspot/internal/core"
	"github.com/dkeye/hotspot/internal/domain"
)

type Store struct {
	mu       sync.RWMutex
	messages map[domain.RoomName][]domain.Message
	profiles map[domain.UserID]domain.Profile
	last     time.Time
}

func New() *Store {
	return &Store{
		messages: make(map[domain.RoomName][]domain.Message),
		profiles: make(map[domain.UserID]domain.Profile),
	}
}

func (s *Store) Append(ctx context.Context, m domain.Message) (domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return domain.Message{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	// keep creation times non-decreasing across appends
	if now.Before(s.last) {
		now = s.last
	}
	s.last = now
	m.ID = core.NewMessageID()
	m.CreatedAt = now
	s.messages[m.Room] = append(s.messages[m.Room], m)
	return m, nil
}

func (s *Store) Recent(ctx context.Context, room domain.RoomName, limit int) ([]domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := s.messages[room]
	if limit > 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}
	out := make([]domain.Message, len(all))
	copy(out, all)
	return out, nil
}

func (s *Store) Profile(ctx context.Context, id domain.UserID) (domain.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[id]
	if !ok {
		return domain.Profile{}, core.ErrNotFound
	}
	return p, nil
}

func (s *Store) PutProfile(ctx context.Context, p domain.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.ID] = p
	return nil
}

func (s *Store) Close() error { return nil }
