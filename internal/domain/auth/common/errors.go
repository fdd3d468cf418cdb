// Package common holds auth errors shared across layers.
package common

import "errors"

var (
	ErrUserNotFound          = errors.New("user not found")
	ErrUserAlreadyExists     = errors.New("user already exists")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrSessionNotFound       = errors.New("session not found")
	ErrOAuthIdentityNotFound = errors.New("oauth identity not found")
)
