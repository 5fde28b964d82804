package services

import "errors"

// Errors shared across services and the HTTP/realtime error mapping.
var (
	// Validation errors, rejected before the store is touched.
	ErrValidationFailed = errors.New("validation failed")
	ErrInvalidPosition  = errors.New("position must be between 0 and 8")

	// State conflicts: expected, user-facing, safe to retry after a refresh.
	ErrMatchNotJoinable = errors.New("match is not available for joining")
	ErrMatchNotPlayable = errors.New("match is not in playing state")
	ErrOutOfTurn        = errors.New("not your turn")
	ErrCellOccupied     = errors.New("cell is already occupied")
	ErrMoveConflict     = errors.New("a concurrent move was committed first")

	// Authentication and authorization.
	ErrInvalidCredentials = errors.New("invalid nickname or password")
	ErrNicknameTaken      = errors.New("nickname is already taken")
	ErrAccessDenied       = errors.New("access denied")

	// Missing resources.
	ErrMatchNotFound = errors.New("match not found")
	ErrUserNotFound  = errors.New("user not found")
)
