package crypto

import (
	"strings"
	"testing"
)

func TestBcryptHasher_HashAndCompare(t *testing.T) {
	hasher := &BcryptHasher{}

	hash, err := hasher.Hash("SecurePass123")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if hash == "SecurePass123" {
		t.Fatal("hash must not equal the plaintext password")
	}

	if err := hasher.Compare(hash, "SecurePass123"); err != nil {
		t.Errorf("expected matching password to verify, got %v", err)
	}
}

func TestBcryptHasher_Compare_WrongPassword(t *testing.T) {
	hasher := &BcryptHasher{}

	hash, err := hasher.Hash("SecurePass123")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if err := hasher.Compare(hash, "WrongPassword123"); err == nil {
		t.Error("expected wrong password to fail verification")
	}
}

func TestBcryptHasher_Hash_NonDeterministic(t *testing.T) {
	hasher := &BcryptHasher{}

	first, err := hasher.Hash("SecurePass123")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	second, err := hasher.Hash("SecurePass123")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if first == second {
		t.Error("expected salted hashes to differ between calls")
	}
}

func TestBcryptHasher_Compare_MalformedHash(t *testing.T) {
	hasher := &BcryptHasher{}

	for _, malformed := range []string{"", "not-a-bcrypt-hash", "$2a$xx$garbage"} {
		if err := hasher.Compare(malformed, "SecurePass123"); err == nil {
			t.Errorf("expected malformed hash %q to fail verification", malformed)
		}
	}
}

func TestBcryptHasher_Hash_TooLong(t *testing.T) {
	hasher := &BcryptHasher{}

	if _, err := hasher.Hash(strings.Repeat("a", 100)); err == nil {
		t.Error("expected error for password beyond the bcrypt length bound")
	}
}
