package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bbp-platform/user-service/internal/common/clock"
	commoncrypto "github.com/bbp-platform/user-service/internal/common/crypto"
	"github.com/bbp-platform/user-service/internal/common/logger"
	"github.com/bbp-platform/user-service/internal/observability/metrics"
	"github.com/bbp-platform/user-service/internal/storage/pool"
	"github.com/bbp-platform/user-service/internal/user/domain"
	userrepo "github.com/bbp-platform/user-service/internal/user/repository"
)

const bearerPrefix = "Bearer "

// AuthService composes the hasher, token issuer and account store into the
// operations the routing layer calls.
type AuthService struct {
	repo        userrepo.Repository
	hasher      commoncrypto.PasswordHasher
	idGenerator commoncrypto.IDGenerator
	tokens      *TokenIssuer
	clock       clock.Clock
	log         *logger.Logger
}

func NewAuthService(
	repo userrepo.Repository,
	hasher commoncrypto.PasswordHasher,
	idGenerator commoncrypto.IDGenerator,
	tokens *TokenIssuer,
	clk clock.Clock,
	log *logger.Logger,
) *AuthService {
	return &AuthService{
		repo:        repo,
		hasher:      hasher,
		idGenerator: idGenerator,
		tokens:      tokens,
		clock:       clk,
		log:         log,
	}
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

type LoginInput struct {
	Email    string
	Password string
}

type LoginResult struct {
	Token string
	User  domain.Summary
}

// Register validates the credential, checks the email (advisory), hashes and
// inserts. The store's unique constraint remains the authoritative guard
// against a race between the pre-check and the insert.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (string, error) {
	if err := validateCredentials(input.Username, input.Password); err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"email":  input.Email,
			"action": "register_validation_failed",
		}).Warnf("register validation failed: %v", err)
		metrics.RegistrationsTotal.WithLabelValues("validation_failed").Inc()
		return "", err
	}

	if _, err := s.repo.FindByEmail(ctx, input.Email); err == nil {
		metrics.RegistrationsTotal.WithLabelValues("conflict").Inc()
		return "", ErrEmailTaken
	} else if !errors.Is(err, userrepo.ErrUserNotFound) {
		return "", s.storageError(ctx, "register_precheck_failed", err)
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"action": "register_hash_failed",
		}).Errorf("register failed: password hash error: %v", err)
		return "", ErrInternal.WithCause(err)
	}

	id, err := s.idGenerator.NewID()
	if err != nil {
		return "", ErrInternal.WithCause(err)
	}

	user := domain.User{
		ID:           domain.ID(id),
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		RegisteredAt: s.clock.Now().UTC(),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, userrepo.ErrEmailAlreadyExists) {
			s.log.WithFields(ctx, logger.Fields{
				"action": "register_email_exists",
			}).Warn("register failed: email already registered")
			metrics.RegistrationsTotal.WithLabelValues("conflict").Inc()
			return "", ErrEmailTaken
		}
		return "", s.storageError(ctx, "register_insert_failed", err)
	}

	s.log.WithFields(ctx, logger.Fields{
		"user_id": id,
		"action":  "register_success",
	}).Info("register success")
	metrics.RegistrationsTotal.WithLabelValues("success").Inc()

	return id, nil
}

// Login returns the same ErrInvalidCredentials for an unknown email and a
// wrong password so the response never reveals whether an account exists.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (LoginResult, error) {
	user, err := s.repo.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, userrepo.ErrUserNotFound) {
			s.log.WithFields(ctx, logger.Fields{
				"action": "login_unknown_email",
			}).Warn("login failed: unknown email")
			metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, s.storageError(ctx, "login_lookup_failed", err)
	}

	if err := s.hasher.Compare(user.PasswordHash, input.Password); err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"user_id": string(user.ID),
			"action":  "login_invalid_password",
		}).Warn("login failed: invalid password")
		metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		return LoginResult{}, ErrInvalidCredentials
	}

	if err := s.repo.UpdateLastLogin(ctx, user.ID, s.clock.Now().UTC()); err != nil {
		return LoginResult{}, s.storageError(ctx, "login_update_failed", err)
	}

	token, err := s.tokens.Issue(string(user.ID), user.Email)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"user_id": string(user.ID),
			"action":  "login_token_issue_failed",
		}).Errorf("login failed: token issue error: %v", err)
		return LoginResult{}, ErrInternal.WithCause(err)
	}

	s.log.WithFields(ctx, logger.Fields{
		"user_id": string(user.ID),
		"action":  "login_success",
	}).Info("login success")
	metrics.LoginsTotal.WithLabelValues("success").Inc()

	return LoginResult{Token: token, User: user.Summary()}, nil
}

// Authenticate resolves the Authorization header value to a user id.
func (s *AuthService) Authenticate(ctx context.Context, authorization string) (domain.ID, error) {
	token, err := bearerToken(authorization)
	if err != nil {
		return "", err
	}

	claims, err := s.tokens.Resolve(token)
	if err != nil {
		return "", err
	}

	return domain.ID(claims.UserID), nil
}

// Logout only checks the token is well-formed and unexpired. Sessions are
// stateless, so there is nothing server-side to revoke.
func (s *AuthService) Logout(ctx context.Context, authorization string) error {
	_, err := s.Authenticate(ctx, authorization)
	if err != nil {
		return err
	}

	s.log.WithFields(ctx, logger.Fields{
		"action": "logout_success",
	}).Info("logout success")
	return nil
}

func (s *AuthService) GetProfile(ctx context.Context, authorization string) (domain.User, error) {
	userID, err := s.Authenticate(ctx, authorization)
	if err != nil {
		return domain.User{}, err
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, userrepo.ErrUserNotFound) {
			return domain.User{}, ErrProfileNotFound
		}
		return domain.User{}, s.storageError(ctx, "profile_lookup_failed", err)
	}

	return user, nil
}

func (s *AuthService) HealthCheck(ctx context.Context) error {
	if err := s.repo.Ping(ctx); err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"action": "health_check_failed",
		}).Errorf("health check failed: %v", err)
		return ErrStorageUnavailable.WithCause(err)
	}
	return nil
}

func bearerToken(authorization string) (string, error) {
	if !strings.HasPrefix(authorization, bearerPrefix) {
		return "", ErrMissingToken
	}
	token := strings.TrimPrefix(authorization, bearerPrefix)
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}

func (s *AuthService) storageError(ctx context.Context, action string, err error) error {
	s.log.WithFields(ctx, logger.Fields{
		"action": action,
	}).Errorf("storage operation failed: %v", err)

	if errors.Is(err, pool.ErrStorageUnavailable) ||
		errors.Is(err, pool.ErrAcquireTimeout) ||
		errors.Is(err, pool.ErrPoolClosed) {
		return ErrStorageUnavailable.WithCause(err)
	}
	return ErrInternal.WithCause(err)
}
