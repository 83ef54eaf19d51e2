package workout

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/claude/liftlog/internal/apperr"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Service runs the session lifecycle for authenticated callers. Every method
// takes the caller's user id and never reads or writes another user's rows.
type Service struct {
	store Store
	clock clockwork.Clock
	log   *slog.Logger
}

// NewService creates a Service.
func NewService(store Store, clock clockwork.Clock, log *slog.Logger) *Service {
	return &Service{store: store, clock: clock, log: log}
}

// Ping checks the underlying store.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// GetActive returns the caller's in-progress session, or nil if there is none.
func (s *Service) GetActive(ctx context.Context, userID string) (*Session, error) {
	sess, err := s.store.ActiveSession(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Internal("error fetching workout", err)
	}
	return s.expand(ctx, sess)
}

// SaveActive creates the caller's in-progress session or replaces the
// content of the existing one.
func (s *Service) SaveActive(ctx context.Context, userID string, in ActiveInput) (*Session, error) {
	ch, err := buildActive(in, s.now())
	if err != nil {
		return nil, err
	}
	sess, err := s.store.UpsertActive(ctx, userID, ch)
	if err != nil {
		return nil, apperr.Internal("error saving workout", err)
	}
	s.log.Debug("active workout saved", "user", userID, "workout", sess.ID, "exercises", len(sess.Exercises))
	return s.expand(ctx, sess)
}

// UpdateSets replaces the sets of one exercise in the caller's in-progress
// session.
func (s *Service) UpdateSets(ctx context.Context, userID string, in SetsInput) (*Session, error) {
	ref := in.ExerciseID.Ref()
	sess, err := s.store.ModifyActive(ctx, userID, s.now(), func(sess *Session) error {
		i := sess.FindExercise(ref)
		if i < 0 {
			return apperr.NotFound("exercise not found in workout").With("exerciseId", ref.String())
		}
		sess.Exercises[i].Sets = PatchSets(sess.Exercises[i].Sets, in.Sets)
		return nil
	})
	switch {
	case errors.Is(err, ErrNotFound):
		return nil, apperr.NotFound("no active workout found")
	case apperr.IsType(err, apperr.TypeNotFound):
		return nil, err
	case err != nil:
		return nil, apperr.Internal("error updating exercise sets", err)
	}
	return s.expand(ctx, sess)
}

// Finish completes the caller's in-progress session.
func (s *Service) Finish(ctx context.Context, userID string) (*Session, error) {
	sess, err := s.store.CloseActive(ctx, userID, StatusCompleted, s.now())
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NotFound("no active workout found")
	}
	if err != nil {
		return nil, apperr.Internal("error finishing workout", err)
	}
	s.log.Info("workout finished", "user", userID, "workout", sess.ID)
	return s.expand(ctx, sess)
}

// Discard abandons the caller's in-progress session. Having none is not an
// error.
func (s *Service) Discard(ctx context.Context, userID string) error {
	sess, err := s.store.CloseActive(ctx, userID, StatusDiscarded, s.now())
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return apperr.Internal("error discarding workout", err)
	}
	s.log.Info("workout discarded", "user", userID, "workout", sess.ID)
	return nil
}

// UpdateDetails patches name, description and visibility of a completed
// workout owned by the caller.
func (s *Service) UpdateDetails(ctx context.Context, userID string, in DetailsInput) (*Session, error) {
	if strings.TrimSpace(in.WorkoutID) == "" {
		return nil, apperr.Validation("workout ID is required")
	}
	if in.Visibility != nil && !in.Visibility.Valid() {
		return nil, apperr.Validation("visibility must be Everyone or Private")
	}
	id, ok := parseID(in.WorkoutID)
	if !ok {
		return nil, apperr.NotFound("completed workout not found")
	}
	d := Details{Name: in.Name, Description: in.Description, Visibility: in.Visibility}
	sess, err := s.store.UpdateDetails(ctx, userID, id, d, s.now())
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NotFound("completed workout not found")
	}
	if err != nil {
		return nil, apperr.Internal("error updating workout details", err)
	}
	return s.expand(ctx, sess)
}

// Delete removes a session owned by the caller, whatever its status.
func (s *Service) Delete(ctx context.Context, userID, workoutID string) error {
	if strings.TrimSpace(workoutID) == "" {
		return apperr.Validation("workout ID is required")
	}
	id, ok := parseID(workoutID)
	if !ok {
		return apperr.NotFound("workout not found")
	}
	err := s.store.DeleteSession(ctx, userID, id)
	if errors.Is(err, ErrNotFound) {
		return apperr.NotFound("workout not found")
	}
	if err != nil {
		return apperr.Internal("error deleting workout", err)
	}
	return nil
}

// SaveRoutine stores a new routine. Routines never occupy the active slot.
func (s *Service) SaveRoutine(ctx context.Context, userID string, in RoutineInput) (*Session, error) {
	name, exercises, groups, err := buildRoutine(in)
	if err != nil {
		return nil, err
	}
	now := s.now()
	sess := &Session{
		ID:             uuid.New(),
		UserID:         userID,
		Name:           name,
		Visibility:     VisibilityEveryone,
		Exercises:      exercises,
		SupersetGroups: groups,
		Status:         StatusCompleted,
		IsRoutine:      true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.InsertRoutine(ctx, sess); err != nil {
		return nil, apperr.Internal("error saving routine", err)
	}
	return s.expand(ctx, sess)
}

// UpdateRoutine overwrites a routine owned by the caller.
func (s *Service) UpdateRoutine(ctx context.Context, userID string, in RoutineInput) (*Session, error) {
	if strings.TrimSpace(in.RoutineID) == "" {
		return nil, apperr.Validation("routine ID is required")
	}
	name, exercises, groups, err := buildRoutine(in)
	if err != nil {
		return nil, err
	}
	id, ok := parseID(in.RoutineID)
	if !ok {
		return nil, apperr.NotFound("routine not found")
	}
	sess, err := s.store.ReplaceRoutine(ctx, userID, id, name, exercises, groups, s.now())
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NotFound("routine not found")
	}
	if err != nil {
		return nil, apperr.Internal("error updating routine", err)
	}
	return s.expand(ctx, sess)
}

// ListHistory returns the caller's most recently finished workouts.
func (s *Service) ListHistory(ctx context.Context, userID string) ([]Session, error) {
	sessions, err := s.store.ListHistory(ctx, userID, HistoryLimit)
	if err != nil {
		return nil, apperr.Internal("error fetching workout history", err)
	}
	return s.expandAll(ctx, sessions)
}

// ListRoutines returns all of the caller's routines.
func (s *Service) ListRoutines(ctx context.Context, userID string) ([]Session, error) {
	routines, err := s.store.ListRoutines(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("error fetching routines", err)
	}
	return s.expandAll(ctx, routines)
}

func (s *Service) now() time.Time {
	return s.clock.Now().UTC()
}

func (s *Service) expand(ctx context.Context, sess *Session) (*Session, error) {
	catalog, err := s.store.LookupExercises(ctx, sess.refs())
	if err != nil {
		return nil, apperr.Internal("error loading exercises", err)
	}
	sess.expand(catalog)
	return sess, nil
}

func (s *Service) expandAll(ctx context.Context, sessions []Session) ([]Session, error) {
	var ids []uuid.UUID
	for i := range sessions {
		ids = append(ids, sessions[i].refs()...)
	}
	catalog, err := s.store.LookupExercises(ctx, ids)
	if err != nil {
		return nil, apperr.Internal("error loading exercises", err)
	}
	for i := range sessions {
		sessions[i].expand(catalog)
	}
	if sessions == nil {
		sessions = []Session{}
	}
	return sessions, nil
}

func parseID(s string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(s))
	return id, err == nil
}
