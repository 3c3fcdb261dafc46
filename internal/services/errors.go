package services

import (
	"errors"

	"yogastudio/internal/repository"
)

var (
	ErrNotFound     = repository.ErrNotFound
	ErrConflict     = repository.ErrDuplicate
	ErrValidation   = errors.New("validation failed")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrQRExpired    = errors.New("qr code has expired")
	ErrQRExhausted  = errors.New("qr code usage limit reached")
	ErrOutOfRange   = errors.New("check-in location is outside the allowed area")
)
