package service

import (
	"net/http"

	commonerrors "github.com/bbp-platform/user-service/internal/common/errors"
)

var (
	// Login failures share one error on purpose: the response must not
	// reveal whether the email exists.
	ErrInvalidCredentials = commonerrors.NewDomainError(
		"INVALID_CREDENTIALS",
		commonerrors.CategoryUnauthorized,
		http.StatusUnauthorized,
		"invalid credentials",
	)

	ErrEmailTaken = commonerrors.NewDomainError(
		"EMAIL_TAKEN",
		commonerrors.CategoryConflict,
		http.StatusConflict,
		"email already registered",
	)

	ErrMissingToken = commonerrors.NewDomainError(
		"MISSING_TOKEN",
		commonerrors.CategoryUnauthorized,
		http.StatusUnauthorized,
		"missing or invalid authorization header",
	)

	ErrTokenExpired = commonerrors.NewDomainError(
		"TOKEN_EXPIRED",
		commonerrors.CategoryUnauthorized,
		http.StatusUnauthorized,
		"token has expired",
	)

	ErrTokenInvalid = commonerrors.NewDomainError(
		"TOKEN_INVALID",
		commonerrors.CategoryUnauthorized,
		http.StatusUnauthorized,
		"invalid token",
	)

	ErrProfileNotFound = commonerrors.NewDomainError(
		"USER_NOT_FOUND",
		commonerrors.CategoryNotFound,
		http.StatusNotFound,
		"user not found",
	)

	ErrStorageUnavailable = commonerrors.NewDomainError(
		"STORAGE_UNAVAILABLE",
		commonerrors.CategoryExternal,
		http.StatusServiceUnavailable,
		"database unavailable",
	)

	ErrInternal = commonerrors.NewDomainError(
		"INTERNAL",
		commonerrors.CategoryInternal,
		http.StatusInternalServerError,
		"an unexpected error occurred",
	)
)

var (
	ErrUsernameLength = commonerrors.NewDomainError(
		"USERNAME_LENGTH",
		commonerrors.CategoryValidation,
		http.StatusUnprocessableEntity,
		"username must be between 3 and 50 characters",
	)

	ErrPasswordTooShort = commonerrors.NewDomainError(
		"PASSWORD_TOO_SHORT",
		commonerrors.CategoryValidation,
		http.StatusUnprocessableEntity,
		"password must be at least 8 characters",
	)

	ErrPasswordTooLong = commonerrors.NewDomainError(
		"PASSWORD_TOO_LONG",
		commonerrors.CategoryValidation,
		http.StatusUnprocessableEntity,
		"password must be at most 72 characters",
	)

	ErrPasswordNoUppercase = commonerrors.NewDomainError(
		"PASSWORD_NO_UPPERCASE",
		commonerrors.CategoryValidation,
		http.StatusUnprocessableEntity,
		"password must contain at least one uppercase letter",
	)

	ErrPasswordNoDigit = commonerrors.NewDomainError(
		"PASSWORD_NO_DIGIT",
		commonerrors.CategoryValidation,
		http.StatusUnprocessableEntity,
		"password must contain at least one number",
	)
)
