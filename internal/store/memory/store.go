package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/zhouzirui/dsa-tutor/backend/internal/model/chat"
	"github.com/zhouzirui/dsa-tutor/backend/internal/model/user"
	"github.com/zhouzirui/dsa-tutor/backend/internal/store"
)

var _ store.Store = (*Store)(nil)

// Store keeps users and sessions in process memory. Suitable for local runs and tests.
type Store struct {
	mu       sync.RWMutex
	users    map[string]user.User
	sessions map[string]chat.Session
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{
		users:    make(map[string]user.User),
		sessions: make(map[string]chat.Session),
	}
}

func (s *Store) CreateUser(_ context.Context, u user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; ok {
		return store.ErrConflict
	}
	if s.duplicates(u) {
		return store.ErrConflict
	}
	s.users[u.ID] = u
	return nil
}

func (s *Store) GetUser(_ context.Context, id string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return user.User{}, store.ErrNotFound
	}
	return u, nil
}

func (s *Store) GetUserByGuestID(_ context.Context, guestID string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if guestID != "" && u.GuestID == guestID {
			return u, nil
		}
	}
	return user.User{}, store.ErrNotFound
}

func (s *Store) UpdateUser(_ context.Context, u user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; !ok {
		return store.ErrNotFound
	}
	if s.duplicates(u) {
		return store.ErrConflict
	}
	s.users[u.ID] = u
	return nil
}

func (s *Store) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.users, id)
	s.deleteSessionsLocked(id)
	return nil
}

func (s *Store) DeleteInactiveGuests(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted int64
	for id, u := range s.users {
		if u.IsGuest && u.LastActive.Before(before) {
			delete(s.users, id)
			s.deleteSessionsLocked(id)
			deleted++
		}
	}
	return deleted, nil
}

// duplicates reports whether another user already holds u's email or guest id. Empty values never clash.
func (s *Store) duplicates(u user.User) bool {
	for id, other := range s.users {
		if id == u.ID {
			continue
		}
		if u.Email != "" && other.Email == u.Email {
			return true
		}
		if u.GuestID != "" && other.GuestID == u.GuestID {
			return true
		}
	}
	return false
}

func (s *Store) CreateSession(_ context.Context, session *chat.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session.Version = 1
	s.sessions[session.ID] = session.Clone()
	return nil
}

func (s *Store) GetSession(_ context.Context, id string) (chat.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return chat.Session{}, store.ErrNotFound
	}
	return session.Clone(), nil
}

func (s *Store) ListSessionsByOwner(_ context.Context, ownerID string, limit int) ([]chat.Session, error) {
	s.mu.RLock()
	result := make([]chat.Session, 0)
	for _, session := range s.sessions {
		if session.OwnerID == ownerID {
			result = append(result, session.Clone())
		}
	}
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if !a.LastMessageAt.Equal(b.LastMessageAt) {
			return a.LastMessageAt.After(b.LastMessageAt)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) SaveSession(_ context.Context, session *chat.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.sessions[session.ID]
	if !ok {
		return store.ErrNotFound
	}
	if current.Version != session.Version {
		return store.ErrVersionConflict
	}

	session.Version++
	session.UpdatedAt = time.Now().UTC()
	s.sessions[session.ID] = session.Clone()
	return nil
}

func (s *Store) DeleteSession(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.sessions, id)
	return nil
}

func (s *Store) DeleteSessionsByOwner(_ context.Context, ownerID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteSessionsLocked(ownerID), nil
}

func (s *Store) deleteSessionsLocked(ownerID string) int64 {
	var deleted int64
	for id, session := range s.sessions {
		if session.OwnerID == ownerID {
			delete(s.sessions, id)
			deleted++
		}
	}
	return deleted
}

func (s *Store) Close() error { return nil }
