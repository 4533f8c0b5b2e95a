package services

import "errors"

var (
	ErrWheelNotFound        = errors.New("wheel not found")
	ErrSessionRequired      = errors.New("missing session id")
	ErrInvalidSession       = errors.New("invalid session")
	ErrSessionWheelMismatch = errors.New("session does not belong to this wheel")
	ErrAlreadySpun          = errors.New("this session has already spun")
	ErrNoEligibleSegments   = errors.New("no segments available for your entry, please try again later")
	ErrAlreadyWon           = errors.New("this device has already spun this wheel")
	ErrResultNotFound       = errors.New("session not found")

	ErrInvalidInput  = errors.New("invalid input")
	ErrMissingFields = errors.New("missing required fields")
	ErrRouteTaken    = errors.New("this URL is already in use, please choose a different one")

	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAccessDenied       = errors.New("access denied")
	ErrLoginNotFound      = errors.New("login not found")
	ErrUsernameTaken      = errors.New("username already exists")
)
