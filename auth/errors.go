package auth

import "errors"

var (
	ErrInvalidCredentials      = errors.New("invalid credentials")
	ErrTokenExpired            = errors.New("token has expired")
	ErrTokenInvalid            = errors.New("token is invalid")
	ErrUnexpectedSigningMethod = errors.New("unexpected signing method")
	ErrPasswordTooShort        = errors.New("password must be at least 8 characters")
)
