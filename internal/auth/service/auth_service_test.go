package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bbp-platform/user-service/internal/common/clock"
	commoncrypto "github.com/bbp-platform/user-service/internal/common/crypto"
	"github.com/bbp-platform/user-service/internal/common/logger"
	"github.com/bbp-platform/user-service/internal/storage/pool"
	"github.com/bbp-platform/user-service/internal/user/domain"
	userrepo "github.com/bbp-platform/user-service/internal/user/repository"
)

func newTestService(t *testing.T, repo userrepo.Repository) (*AuthService, *clock.MockClock) {
	t.Helper()

	log, err := logger.New("", "test", "CRITICAL")
	if err != nil {
		t.Fatalf("failed to build logger: %v", err)
	}

	clk := clock.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	tokens := NewTokenIssuer(testSecret, 24*time.Hour, clk)
	svc := NewAuthService(repo, mockHasher{}, &mockIDGenerator{}, tokens, clk, log)
	return svc, clk
}

func TestRegister_Success(t *testing.T) {
	var created domain.User
	repo := &mockRepo{
		createFunc: func(ctx context.Context, user domain.User) error {
			created = user
			return nil
		},
	}
	svc, _ := newTestService(t, repo)

	id, err := svc.Register(context.Background(), RegisterInput{
		Username: "johndoe",
		Email:    "john@example.com",
		Password: "SecurePass123",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if id != "user-123" {
		t.Errorf("expected generated id, got %s", id)
	}
	if created.PasswordHash == "SecurePass123" {
		t.Error("password must be stored hashed")
	}
	if created.Email != "john@example.com" {
		t.Errorf("unexpected stored email %s", created.Email)
	}
	if created.RegisteredAt.IsZero() {
		t.Error("RegisteredAt must be set at creation")
	}
	if created.LastLoginAt != nil {
		t.Error("LastLoginAt must be unset at creation")
	}
}

func TestRegister_WeakPassword(t *testing.T) {
	svc, _ := newTestService(t, &mockRepo{})

	tests := []struct {
		password string
		wantErr  error
	}{
		{"short1A", ErrPasswordTooShort},
		{"alllowercase1", ErrPasswordNoUppercase},
		{"NoDigitsHere", ErrPasswordNoDigit},
	}

	for _, tt := range tests {
		_, err := svc.Register(context.Background(), RegisterInput{
			Username: "johndoe",
			Email:    "john@example.com",
			Password: tt.password,
		})
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("password %q: expected %v, got %v", tt.password, tt.wantErr, err)
		}
	}
}

func TestRegister_DuplicateEmail_Precheck(t *testing.T) {
	repo := &mockRepo{
		findByEmailFunc: func(ctx context.Context, email string) (domain.User, error) {
			return domain.User{ID: "existing", Email: email}, nil
		},
	}
	svc, _ := newTestService(t, repo)

	_, err := svc.Register(context.Background(), RegisterInput{
		Username: "janedoe",
		Email:    "john@example.com",
		Password: "SecurePass123",
	})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestRegister_DuplicateEmail_ConstraintWinsTheRace(t *testing.T) {
	// The pre-check sees nothing, but a concurrent insert got there first:
	// the store's unique constraint still rejects the write.
	repo := &mockRepo{
		createFunc: func(ctx context.Context, user domain.User) error {
			return userrepo.ErrEmailAlreadyExists
		},
	}
	svc, _ := newTestService(t, repo)

	_, err := svc.Register(context.Background(), RegisterInput{
		Username: "janedoe",
		Email:    "john@example.com",
		Password: "SecurePass123",
	})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestRegister_StorageUnavailable(t *testing.T) {
	repo := &mockRepo{
		findByEmailFunc: func(ctx context.Context, email string) (domain.User, error) {
			return domain.User{}, pool.ErrStorageUnavailable
		},
	}
	svc, _ := newTestService(t, repo)

	_, err := svc.Register(context.Background(), RegisterInput{
		Username: "johndoe",
		Email:    "john@example.com",
		Password: "SecurePass123",
	})
	if !errors.Is(err, ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
}

func TestLogin_UniformErrorForUnknownEmailAndWrongPassword(t *testing.T) {
	repo := &mockRepo{
		findByEmailFunc: func(ctx context.Context, email string) (domain.User, error) {
			if email == "john@example.com" {
				return domain.User{
					ID:           "user-123",
					Email:        email,
					PasswordHash: "hashed:SecurePass123",
				}, nil
			}
			return domain.User{}, userrepo.ErrUserNotFound
		},
	}
	svc, _ := newTestService(t, repo)

	_, errUnknown := svc.Login(context.Background(), LoginInput{
		Email:    "nobody@example.com",
		Password: "SecurePass123",
	})
	_, errWrongPassword := svc.Login(context.Background(), LoginInput{
		Email:    "john@example.com",
		Password: "WrongPassword123",
	})

	if !errors.Is(errUnknown, ErrInvalidCredentials) {
		t.Fatalf("unknown email: expected ErrInvalidCredentials, got %v", errUnknown)
	}
	if !errors.Is(errWrongPassword, ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", errWrongPassword)
	}
	if errUnknown.Error() != errWrongPassword.Error() {
		t.Error("both failures must present the identical error shape")
	}
}

func TestLogin_Success(t *testing.T) {
	var updatedID domain.ID
	var updatedAt time.Time
	repo := &mockRepo{
		findByEmailFunc: func(ctx context.Context, email string) (domain.User, error) {
			return domain.User{
				ID:           "user-123",
				Username:     "johndoe",
				Email:        email,
				PasswordHash: "hashed:SecurePass123",
			}, nil
		},
		updateLastLoginFunc: func(ctx context.Context, id domain.ID, at time.Time) error {
			updatedID = id
			updatedAt = at
			return nil
		},
	}
	svc, clk := newTestService(t, repo)

	result, err := svc.Login(context.Background(), LoginInput{
		Email:    "john@example.com",
		Password: "SecurePass123",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if updatedID != "user-123" {
		t.Errorf("expected last login update for user-123, got %s", updatedID)
	}
	if !updatedAt.Equal(clk.Now().UTC()) {
		t.Errorf("expected last login at %v, got %v", clk.Now().UTC(), updatedAt)
	}
	if result.User.ID != "user-123" || result.User.Username != "johndoe" {
		t.Errorf("unexpected user summary %+v", result.User)
	}

	userID, err := svc.Authenticate(context.Background(), "Bearer "+result.Token)
	if err != nil {
		t.Fatalf("issued token must authenticate, got %v", err)
	}
	if userID != "user-123" {
		t.Errorf("expected token subject user-123, got %s", userID)
	}
}

func TestAuthenticate_MissingToken(t *testing.T) {
	svc, _ := newTestService(t, &mockRepo{})

	for _, header := range []string{"", "Bearer", "Bearer ", "Basic abc", "token xyz"} {
		_, err := svc.Authenticate(context.Background(), header)
		if !errors.Is(err, ErrMissingToken) {
			t.Errorf("header %q: expected ErrMissingToken, got %v", header, err)
		}
	}
}

func TestAuthenticate_ExpiredToken(t *testing.T) {
	svc, clk := newTestService(t, &mockRepo{})

	token, err := svc.tokens.Issue("user-123", "john@example.com")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	clk.Advance(25 * time.Hour)
	_, err = svc.Authenticate(context.Background(), "Bearer "+token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestLogout(t *testing.T) {
	svc, clk := newTestService(t, &mockRepo{})

	token, err := svc.tokens.Issue("user-123", "john@example.com")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if err := svc.Logout(context.Background(), "Bearer "+token); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if err := svc.Logout(context.Background(), ""); !errors.Is(err, ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken, got %v", err)
	}

	clk.Advance(25 * time.Hour)
	if err := svc.Logout(context.Background(), "Bearer "+token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestGetProfile_NotFound(t *testing.T) {
	svc, _ := newTestService(t, &mockRepo{})

	token, err := svc.tokens.Issue("vanished", "gone@example.com")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	_, err = svc.GetProfile(context.Background(), "Bearer "+token)
	if !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}
}

func TestHealthCheck(t *testing.T) {
	healthy := &mockRepo{}
	svc, _ := newTestService(t, healthy)
	if err := svc.HealthCheck(context.Background()); err != nil {
		t.Fatalf("expected healthy, got %v", err)
	}

	down := &mockRepo{
		pingFunc: func(ctx context.Context) error {
			return pool.ErrStorageUnavailable
		},
	}
	svc, _ = newTestService(t, down)
	if err := svc.HealthCheck(context.Background()); !errors.Is(err, ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
}

func TestEndToEnd_RegisterLoginProfile(t *testing.T) {
	repo := newMemoryRepo()
	log, err := logger.New("", "test", "CRITICAL")
	if err != nil {
		t.Fatalf("failed to build logger: %v", err)
	}
	clk := clock.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	tokens := NewTokenIssuer(testSecret, 24*time.Hour, clk)

	ids := []string{"id-1", "id-2"}
	gen := &mockIDGenerator{newIDFunc: func() (string, error) {
		id := ids[0]
		if len(ids) > 1 {
			ids = ids[1:]
		}
		return id, nil
	}}

	svc := NewAuthService(repo, &commoncrypto.BcryptHasher{}, gen, tokens, clk, log)
	ctx := context.Background()

	id, err := svc.Register(ctx, RegisterInput{
		Username: "johndoe",
		Email:    "john@example.com",
		Password: "SecurePass123",
	})
	if err != nil {
		t.Fatalf("register: expected no error, got %v", err)
	}

	_, err = svc.Register(ctx, RegisterInput{
		Username: "janedoe",
		Email:    "john@example.com",
		Password: "SecurePass123",
	})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("duplicate register: expected ErrEmailTaken, got %v", err)
	}

	result, err := svc.Login(ctx, LoginInput{
		Email:    "john@example.com",
		Password: "SecurePass123",
	})
	if err != nil {
		t.Fatalf("login: expected no error, got %v", err)
	}
	if string(result.User.ID) != id {
		t.Errorf("login: expected user id %s, got %s", id, result.User.ID)
	}

	_, err = svc.Login(ctx, LoginInput{
		Email:    "john@example.com",
		Password: "WrongPassword123",
	})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}

	profile, err := svc.GetProfile(ctx, "Bearer "+result.Token)
	if err != nil {
		t.Fatalf("profile: expected no error, got %v", err)
	}
	if string(profile.ID) != id || profile.Email != "john@example.com" {
		t.Errorf("profile: unexpected record %+v", profile)
	}
	if profile.LastLoginAt == nil {
		t.Error("profile: LastLoginAt must be set after login")
	}

	_, err = svc.GetProfile(ctx, "")
	if !errors.Is(err, ErrMissingToken) {
		t.Fatalf("no token: expected ErrMissingToken, got %v", err)
	}
}
