package services

import "errors"

// Handlers map these with errors.Is; wrapped causes go into "details".
var (
	ErrValidation            = errors.New("validation failed")
	ErrIdentifierRequired    = errors.New("userId is required when not logged in")
	ErrLocationNotFound      = errors.New("location not found")
	ErrAuthorizationRequired = errors.New("authentication required")
	ErrPersistence           = errors.New("persistence failure")

	ErrAccountNotFound = errors.New("account not found")
	ErrInvalidToken    = errors.New("invalid or expired token")
	ErrInvalidState    = errors.New("invalid or expired oauth state")
)
