package core

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidType   = errors.New("file is not an image")
	ErrTooLarge      = errors.New("file exceeds the maximum upload size")
	ErrMissingName   = errors.New("first and last name are required")
	ErrMissingPhoto  = errors.New("a photo is required")
	ErrNotFound      = errors.New("not found")
	ErrQuotaExceeded = errors.New("storage quota exceeded")
)

type (
	// ValidationError rejects user input before any state is mutated.
	ValidationError struct {
		Field  string
		Reason error
	}

	// DecodeError means the bytes were accepted but could not be decoded as an image.
	DecodeError struct {
		Err error
	}

	// RenderError wraps any failure while rasterising a badge.
	RenderError struct {
		Err error
	}

	// PersistenceError is reported as a warning; the in-memory collection stays valid.
	PersistenceError struct {
		Err error
	}

	// RemoteUnavailableError triggers the local fallback and is never shown to the user.
	RemoteUnavailableError struct {
		Endpoint   string
		StatusCode int
		Err        error
	}
)

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %v", e.Reason)
	}
	return fmt.Sprintf("validation failed for %s: %v", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Reason }

func (e *DecodeError) Error() string { return fmt.Sprintf("failed to decode image: %v", e.Err) }

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *RenderError) Error() string { return fmt.Sprintf("failed to render badge: %v", e.Err) }

func (e *RenderError) Unwrap() error { return e.Err }

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist gallery: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *RemoteUnavailableError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("remote gallery %s answered with status %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("remote gallery %s unreachable: %v", e.Endpoint, e.Err)
}

func (e *RemoteUnavailableError) Unwrap() error { return e.Err }
