package booking

import (
	"errors"
	"fmt"

	"roombooking-backend/internal/conflict"
)

var (
	ErrConflict          = errors.New("reservation conflict")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrRoomInactive      = errors.New("room is not active")
	ErrTooLong           = errors.New("reservation exceeds maximum duration")
	ErrInPast            = errors.New("reservation starts in the past")
)

// ConflictError reports the reservations that block a request.
type ConflictError struct {
	Result conflict.Result
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("reservation conflicts with %d existing reservation(s)", e.Result.ConflictCount)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}
