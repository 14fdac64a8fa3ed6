package session

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/abansal0486/parking-admin/config"
)

// ErrInvalidCredentials is returned for an unknown operator or a wrong password.
var ErrInvalidCredentials = errors.New("invalid username or password")

// Authenticator checks operator passwords against bcrypt hashes.
type Authenticator struct {
	hashes map[string][]byte
}

// NewAuthenticator indexes the configured operators by username.
func NewAuthenticator(operators []config.OperatorConfig) *Authenticator {
	a := &Authenticator{hashes: make(map[string][]byte, len(operators))}
	for _, op := range operators {
		a.hashes[op.Username] = []byte(op.PasswordHash)
	}
	return a
}

// Verify returns ErrInvalidCredentials unless password matches username's hash.
func (a *Authenticator) Verify(username, password string) error {
	hash, ok := a.hashes[username]
	if !ok || username == "" {
		return ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// Len is the number of configured operators.
func (a *Authenticator) Len() int {
	return len(a.hashes)
}
