package services

import "errors"

var (
	// ErrConfiguration means the app credentials themselves are unusable.
	ErrConfiguration = errors.New("github app credentials are invalid")
	// ErrAuthentication means GitHub rejected the app assertion or token.
	ErrAuthentication = errors.New("github app authentication failed")
	// ErrTransient covers network failures and 5xx answers from GitHub.
	ErrTransient = errors.New("github api is unavailable")
)
