package auth

import "errors"

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrInvalidPassword  = errors.New("invalid password")
	ErrUserExists       = errors.New("user already exists")
	ErrUsernameRequired = errors.New("username is required")
	ErrPasswordRequired = errors.New("password is required")
	ErrPasswordTooLong  = errors.New("password exceeds maximum length of 72 bytes")
	ErrProviderFailure  = errors.New("authentication provider failure")
	ErrUnknownStrategy  = errors.New("unknown authentication strategy")
	ErrNotAuthenticated = errors.New("authentication required")
)
