package domain

import "errors"

var (
	// Connection lifecycle
	ErrConnectionNotFound  = errors.New("connection not found")
	ErrDuplicateConnection = errors.New("connection already exists")
	ErrInvalidTransition   = errors.New("invalid connection transition")

	// Voting
	ErrRoundNotFound = errors.New("voting round not found")
	ErrAlreadyVoted  = errors.New("user already voted in this round")
	ErrRoundClosed   = errors.New("voting round is closed")
	ErrInvalidOption = errors.New("option is not part of this round")

	// Mission responses
	ErrMissionNotFound  = errors.New("mission not found")
	ErrInvalidResponse  = errors.New("response does not match mission schema")
	ErrAlreadyResponded = errors.New("user already responded to this mission")

	// Users and profiles
	ErrUserNotFound    = errors.New("user not found")
	ErrProfileNotFound = errors.New("profile not found")
	ErrEmailTaken      = errors.New("email already registered")

	// Auth
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrSessionNotFound    = errors.New("session not found")
	ErrForbidden          = errors.New("forbidden")
)
