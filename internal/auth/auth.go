// Package auth gates the admin data editor behind a single static password,
// stored as a bcrypt hash rather than plaintext.
package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrWrongPassword is returned when the password does not match the hash.
var ErrWrongPassword = errors.New("auth: wrong password")

// Gate verifies the admin password against a configured bcrypt hash.
type Gate struct {
	hash string
}

// New builds a gate for the configured hash. An empty hash means the editor
// is open; callers should log that condition.
func New(hash string) *Gate {
	return &Gate{hash: hash}
}

// Open reports whether the gate accepts any password.
func (g *Gate) Open() bool {
	return g.hash == ""
}

// Verify checks the password. An open gate accepts anything.
func (g *Gate) Verify(password string) error {
	if g.Open() {
		return nil
	}
	if err := bcrypt.CompareHashAndPassword([]byte(g.hash), []byte(password)); err != nil {
		return ErrWrongPassword
	}
	return nil
}

// Hash produces a bcrypt hash suitable for SHIFTALLOC_ADMIN_HASH.
func Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
