package helpers

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"

	"golang.org/x/crypto/pbkdf2"
)

// PBKDF2 parameters. Stored hashes are only verifiable with these exact values.
const (
	PasswordSaltBytes  = 16
	PasswordIterations = 10000
	PasswordKeyLen     = 512
)

// HashPassword generates a random salt and derives the password hash from it.
// Both values are hex encoded.
func HashPassword(plain string) (salt string, hash string, err error) {
	b := make([]byte, PasswordSaltBytes)
	if _, err := rand.Read(b); err != nil {
		return "", "", err
	}
	salt = hex.EncodeToString(b)
	return salt, DerivePasswordHash(plain, salt), nil
}

// DerivePasswordHash is PBKDF2-HMAC-SHA512 over plain and the hex salt string.
func DerivePasswordHash(plain, salt string) string {
	key := pbkdf2.Key([]byte(plain), []byte(salt), PasswordIterations, PasswordKeyLen, sha512.New)
	return hex.EncodeToString(key)
}

// VerifyPassword compares a derived hash against the stored one
func VerifyPassword(plain, salt, hash string) bool {
	candidate := DerivePasswordHash(plain, salt)
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(hash)) == 1
}
