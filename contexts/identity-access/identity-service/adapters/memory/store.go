package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"paideia/contexts/identity-access/identity-service/domain/entities"
	domainerrors "paideia/contexts/identity-access/identity-service/domain/errors"
)

// Store is an in-memory adapter implementing the identity repository port.
// It is intended for tests and local development wiring.
type Store struct {
	mu sync.RWMutex

	usersByID  map[string]entities.User
	sessions   map[string]entities.Session
	fixedNow   time.Time
	nowIsFixed bool
}

func NewStore() *Store {
	return &Store{
		usersByID: make(map[string]entities.User),
		sessions:  make(map[string]entities.Session),
	}
}

// SeedUser inserts or replaces a user row. Tests use this to stand in for
// the profile-lifecycle service owning user writes.
func (s *Store) SeedUser(user entities.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.APIKey != "" && user.APIKeyIndex == "" {
		user.APIKeyIndex = entities.APIKeyIndex(user.APIKey)
	}
	s.usersByID[user.ID] = user
}

// FixNow pins the clock so session expiry is deterministic in tests.
func (s *Store) FixNow(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fixedNow = now.UTC()
	s.nowIsFixed = true
}

func (s *Store) Now() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.nowIsFixed {
		return s.fixedNow
	}
	return time.Now().UTC()
}

func (s *Store) FindUserByID(_ context.Context, userID string) (entities.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.usersByID[strings.TrimSpace(userID)]
	if !ok {
		return entities.User{}, domainerrors.ErrUserNotFound
	}
	return user, nil
}

func (s *Store) FindUserByEmail(_ context.Context, email string) (entities.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.usersByID {
		if strings.ToLower(user.Email) == email {
			return user, nil
		}
	}
	return entities.User{}, domainerrors.ErrUserNotFound
}

func (s *Store) FindUserByAPIKeyIndex(_ context.Context, index string) (entities.User, error) {
	index = strings.TrimSpace(index)
	if index == "" {
		return entities.User{}, domainerrors.ErrUserNotFound
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.usersByID {
		if user.APIKeyIndex == index {
			return user, nil
		}
	}
	return entities.User{}, domainerrors.ErrUserNotFound
}

func (s *Store) CreateSession(_ context.Context, session entities.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.Token] = session
	return nil
}

func (s *Store) FindSession(_ context.Context, token string) (entities.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[strings.TrimSpace(token)]
	if !ok {
		return entities.Session{}, domainerrors.ErrSessionNotFound
	}
	return session, nil
}

func (s *Store) DeleteSession(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, strings.TrimSpace(token))
	return nil
}
