package service

import "errors"

var (
	// ErrInvalidInput marks a request the caller must correct
	ErrInvalidInput = errors.New("invalid input")
	// ErrUserExists is returned when registering a taken username
	ErrUserExists = errors.New("username already exists")
	// ErrInvalidCredentials is returned for an unknown user or wrong password
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrInvalidToken is returned for a malformed, forged or expired token
	ErrInvalidToken = errors.New("invalid token")
	// ErrEmptyCatalog is returned when the product file has no rows
	ErrEmptyCatalog = errors.New("catalog has no products")
	// ErrUnimputable is returned when a missing value has no column statistic to fall back on
	ErrUnimputable = errors.New("missing value with no data to impute from")
)
