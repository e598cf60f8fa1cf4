package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bbp-platform/user-service/internal/user/domain"
)

var (
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailAlreadyExists comes from the unique constraint on email. The
	// constraint, not the service's advisory pre-check, is what guarantees
	// uniqueness under concurrent registration.
	ErrEmailAlreadyExists = errors.New("email already registered")
)

type Repository interface {
	Create(ctx context.Context, user domain.User) error
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	FindByID(ctx context.Context, id domain.ID) (domain.User, error)
	UpdateLastLogin(ctx context.Context, id domain.ID, at time.Time) error
	Ping(ctx context.Context) error
}
