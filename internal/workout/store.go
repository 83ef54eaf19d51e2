package workout

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by a Store when no row matches the owner-scoped
// lookup.
var ErrNotFound = errors.New("not found")

// Details is a partial update of a completed session's descriptive fields.
type Details struct {
	Name        *string
	Description *string
	Visibility  *Visibility
}

// Store persists sessions. Every method that touches a session filters by
// owner in the same statement that reads or writes it.
type Store interface {
	// ActiveSession returns the user's newest in-progress session.
	ActiveSession(ctx context.Context, userID string) (*Session, error)

	// UpsertActive creates the user's in-progress session or replaces the
	// exercises and superset groups of the existing one, atomically.
	UpsertActive(ctx context.Context, userID string, ch ActiveChange) (*Session, error)

	// ModifyActive locks the user's in-progress session, applies fn and
	// writes the result back in one transaction. An error from fn aborts
	// the transaction and is returned unchanged.
	ModifyActive(ctx context.Context, userID string, now time.Time, fn func(*Session) error) (*Session, error)

	// CloseActive moves the in-progress session to status, stamping endTime.
	CloseActive(ctx context.Context, userID string, status Status, endTime time.Time) (*Session, error)

	// UpdateDetails patches a completed, non-routine session.
	UpdateDetails(ctx context.Context, userID string, id uuid.UUID, d Details, now time.Time) (*Session, error)

	// DeleteSession removes a session in any status.
	DeleteSession(ctx context.Context, userID string, id uuid.UUID) error

	// InsertRoutine stores a new routine.
	InsertRoutine(ctx context.Context, s *Session) error

	// ReplaceRoutine overwrites the name and content of a routine.
	ReplaceRoutine(ctx context.Context, userID string, id uuid.UUID, name string, exercises []ExerciseEntry, groups []SupersetGroup, now time.Time) (*Session, error)

	// ListHistory returns completed non-routine sessions, newest end first.
	ListHistory(ctx context.Context, userID string, limit int) ([]Session, error)

	// ListRoutines returns routines, newest created first.
	ListRoutines(ctx context.Context, userID string) ([]Session, error)

	// LookupExercises returns the catalog records for the ids that exist.
	LookupExercises(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Exercise, error)

	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error
}
