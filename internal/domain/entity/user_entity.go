package entity

import (
	"time"

	"github.com/oksasatya/go-account-service/pkg/helpers"
)

// User is the aggregate root for the account domain.
// The plaintext password is never held here; only its salted PBKDF2 hash.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Hash      string    `json:"-"`
	Salt      string    `json:"-"`
	Image     string    `json:"image,omitempty"`
	Deleted   bool      `json:"deleted"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SetPassword replaces Salt and Hash with a fresh derivation of plain.
func (u *User) SetPassword(plain string) error {
	salt, hash, err := helpers.HashPassword(plain)
	if err != nil {
		return err
	}
	u.Salt, u.Hash = salt, hash
	return nil
}

// ValidPassword reports whether plain matches the stored hash.
func (u *User) ValidPassword(plain string) bool {
	if u.Salt == "" || u.Hash == "" {
		return false
	}
	return helpers.VerifyPassword(plain, u.Salt, u.Hash)
}
