// Package domain contains entities without behavior, just meta-data.
package domain

import (
	"errors"

	"github.com/google/uuid"
)

const (
	MaxUsernameLen = 36
	MinPasswordLen = 8
)

var (
	ErrUsernameEmpty      = errors.New("username empty")
	ErrUsernameTooLong    = errors.New("username too long")
	ErrAccountExists      = errors.New("username or email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type AccountID string

// Account is a registered user record. It exists only so that the HTTP
// surface has something to authenticate; the signaling core identifies
// participants by connection handle, never by account.
type Account struct {
	ID           AccountID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash []byte    `json:"-"`
}

// NewAccount builds an account with a fresh id. The password hash is set by
// the store, which owns the hashing scheme.
func NewAccount(username, email string) (*Account, error) {
	if len(username) == 0 {
		return nil, ErrUsernameEmpty
	}
	if len(username) > MaxUsernameLen {
		return nil, ErrUsernameTooLong
	}
	return &Account{
		ID:       AccountID(uuid.NewString()),
		Username: username,
		Email:    email,
	}, nil
}
