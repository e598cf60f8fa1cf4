package domain

import "time"

type ID string

// User is the persisted identity record. PasswordHash never leaves the
// service layer.
type User struct {
	ID           ID
	Username     string
	Email        string
	PasswordHash string
	RegisteredAt time.Time
	LastLoginAt  *time.Time
}

// Summary is the projection returned alongside a login token.
type Summary struct {
	ID       ID
	Username string
	Email    string
}

func (u User) Summary() Summary {
	return Summary{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
	}
}
