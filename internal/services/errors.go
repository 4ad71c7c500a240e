package services

import "errors"

var (
	ErrCandidateNotFound  = errors.New("candidate not found")
	ErrSessionNotFound    = errors.New("interview session not found")
	ErrJobNotFound        = errors.New("upload job not found")
	ErrInvalidAnswer      = errors.New("invalid answer")
	ErrSessionInactive    = errors.New("interview session is no longer active")
	ErrSessionActive      = errors.New("interview session is still active")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUsernameTaken      = errors.New("username already taken")
)
