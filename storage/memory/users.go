package memorystore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/open-rails/signon/core"
)

// Users is an in-memory core.UserStore for tests and the devserver.
type Users struct {
	mu   sync.Mutex
	byID map[string]*core.UserRecord
}

func NewUsers() *Users {
	return &Users{byID: make(map[string]*core.UserRecord)}
}

func (s *Users) CreateUser(ctx context.Context, u *core.UserRecord) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[u.ID]; ok {
		return core.ErrUserExists
	}
	for _, existing := range s.byID {
		if existing.Email == u.Email {
			return core.ErrUserExists
		}
	}
	cp := *u
	s.byID[u.ID] = &cp
	return nil
}

func (s *Users) GetUser(ctx context.Context, id string) (*core.UserRecord, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (s *Users) GetUserByEmail(ctx context.Context, email string) (*core.UserRecord, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *Users) SetUserStatus(ctx context.Context, id string, status core.UserStatus) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.byID[id]; ok {
		u.Status = status
	}
	return nil
}

func (s *Users) ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]string, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for id, u := range s.byID {
		if u.Status == core.UserPending && u.CreatedAt.Before(cutoff) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (s *Users) DeleteUser(ctx context.Context, id string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, id)
	return nil
}
