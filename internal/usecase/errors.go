package usecase

import (
	"errors"
	"fmt"

	"github.com/tallink-tennis/fuss-tracker/internal/domain/attendance"
	"github.com/tallink-tennis/fuss-tracker/internal/domain/feedback"
	"github.com/tallink-tennis/fuss-tracker/internal/domain/group"
	"github.com/tallink-tennis/fuss-tracker/internal/domain/schedule"
	"github.com/tallink-tennis/fuss-tracker/internal/mirror"
)

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrForbidden             = errors.New("forbidden")
	ErrConflict              = errors.New("conflict")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)

// classify maps domain and mirror errors onto the usecase sentinels.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mirror.ErrPlayerNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, mirror.ErrPlayerExists):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	case errors.Is(err, mirror.ErrWriterClosed):
		return fmt.Errorf("%w: %v", ErrDependencyUnavailable, err)
	case errors.Is(err, group.ErrInvalidTag),
		errors.Is(err, attendance.ErrInvalidMark),
		errors.Is(err, attendance.ErrInvalidEffort),
		errors.Is(err, feedback.ErrOutOfRange),
		errors.Is(err, schedule.ErrInvalidTimeRange):
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	default:
		return err
	}
}
