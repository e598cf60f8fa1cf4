package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bbp-platform/user-service/internal/user/domain"
	userrepo "github.com/bbp-platform/user-service/internal/user/repository"
)

type mockRepo struct {
	createFunc          func(ctx context.Context, user domain.User) error
	findByEmailFunc     func(ctx context.Context, email string) (domain.User, error)
	findByIDFunc        func(ctx context.Context, id domain.ID) (domain.User, error)
	updateLastLoginFunc func(ctx context.Context, id domain.ID, at time.Time) error
	pingFunc            func(ctx context.Context) error
}

func (m *mockRepo) Create(ctx context.Context, user domain.User) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, user)
	}
	return nil
}

func (m *mockRepo) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	if m.findByEmailFunc != nil {
		return m.findByEmailFunc(ctx, email)
	}
	return domain.User{}, userrepo.ErrUserNotFound
}

func (m *mockRepo) FindByID(ctx context.Context, id domain.ID) (domain.User, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return domain.User{}, userrepo.ErrUserNotFound
}

func (m *mockRepo) UpdateLastLogin(ctx context.Context, id domain.ID, at time.Time) error {
	if m.updateLastLoginFunc != nil {
		return m.updateLastLoginFunc(ctx, id, at)
	}
	return nil
}

func (m *mockRepo) Ping(ctx context.Context) error {
	if m.pingFunc != nil {
		return m.pingFunc(ctx)
	}
	return nil
}

// memoryRepo enforces email uniqueness like the real store's constraint.
type memoryRepo struct {
	mu    sync.Mutex
	users map[domain.ID]domain.User
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{users: map[domain.ID]domain.User{}}
}

func (m *memoryRepo) Create(ctx context.Context, user domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == user.Email {
			return userrepo.ErrEmailAlreadyExists
		}
	}
	m.users[user.ID] = user
	return nil
}

func (m *memoryRepo) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if user.Email == email {
			return user, nil
		}
	}
	return domain.User{}, userrepo.ErrUserNotFound
}

func (m *memoryRepo) FindByID(ctx context.Context, id domain.ID) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return domain.User{}, userrepo.ErrUserNotFound
	}
	return user, nil
}

func (m *memoryRepo) UpdateLastLogin(ctx context.Context, id domain.ID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return userrepo.ErrUserNotFound
	}
	user.LastLoginAt = &at
	m.users[id] = user
	return nil
}

func (m *memoryRepo) Ping(ctx context.Context) error {
	return nil
}

type mockHasher struct{}

func (mockHasher) Hash(password string) (string, error) {
	return "hashed:" + password, nil
}

func (mockHasher) Compare(hash string, password string) error {
	if hash != "hashed:"+password {
		return errors.New("hash mismatch")
	}
	return nil
}

type mockIDGenerator struct {
	newIDFunc func() (string, error)
}

func (m *mockIDGenerator) NewID() (string, error) {
	if m.newIDFunc != nil {
		return m.newIDFunc()
	}
	return "user-123", nil
}
