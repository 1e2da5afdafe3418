package services

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidOperation   = errors.New("invalid operation")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrAlreadyExists      = errors.New("already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInactiveAccount    = errors.New("user account is disabled")
	ErrInvalidImageURL    = errors.New("url does not match a valid image extension")
	ErrImageUnavailable   = errors.New("image could not be downloaded")
)
