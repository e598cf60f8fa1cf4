package service

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateCredentials(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{"valid", "johndoe", "SecurePass123", nil},
		{"username too short", "jd", "SecurePass123", ErrUsernameLength},
		{"username too long", strings.Repeat("a", 51), "SecurePass123", ErrUsernameLength},
		{"password too short", "johndoe", "Short1", ErrPasswordTooShort},
		{"password too long", "johndoe", "A1" + strings.Repeat("a", 80), ErrPasswordTooLong},
		{"no uppercase", "johndoe", "securepass123", ErrPasswordNoUppercase},
		{"no digit", "johndoe", "SecurePassword", ErrPasswordNoDigit},
		{"minimum valid", "abc", "Abcdefg1", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateCredentials(tt.username, tt.password)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}
