package oauth2

import "errors"

var (
	ErrProviderNotFound = errors.New("provider not registered")
	ErrProviderTimeout  = errors.New("provider request timed out")
	ErrExchangeFailed   = errors.New("authorization code exchange failed")
)
