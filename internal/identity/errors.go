package identity

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrEmptyAuthHeader    = errors.New("empty authorization header")
)
