package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/workout"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ActiveSession returns the user's newest in-progress session.
func (db *DB) ActiveSession(ctx context.Context, userID string) (*workout.Session, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT `+sessionColumns+`
		 FROM workouts
		 WHERE user_id = $1 AND status = 'in-progress'
		 ORDER BY created_at DESC
		 LIMIT 1`,
		userID)
	s, err := scanSession(row)
	if err != nil {
		return nil, fmt.Errorf("querying active workout: %w", err)
	}
	return s, nil
}

// UpsertActive inserts the user's in-progress session or updates the existing
// one in a single statement. The partial unique index on
// (user_id) WHERE status = 'in-progress' makes the conflict target.
func (db *DB) UpsertActive(ctx context.Context, userID string, ch workout.ActiveChange) (*workout.Session, error) {
	exercises, err := encodeExercises(ch.Exercises)
	if err != nil {
		return nil, err
	}
	groups, err := encodeGroups(ch.SupersetGroups)
	if err != nil {
		return nil, err
	}

	row := db.Pool.QueryRow(ctx,
		`INSERT INTO workouts (id, user_id, name, exercises, superset_groups, duration_sec,
		 start_time, status, is_routine, created_at, updated_at)
		 VALUES ($1, $2, $3, $4::jsonb, $5::jsonb, COALESCE($6::int, 0),
		 COALESCE($7::timestamptz, $8), 'in-progress', FALSE, $8, $8)
		 ON CONFLICT (user_id) WHERE status = 'in-progress' DO UPDATE SET
			exercises = EXCLUDED.exercises,
			superset_groups = EXCLUDED.superset_groups,
			duration_sec = COALESCE($6::int, workouts.duration_sec),
			start_time = COALESCE($7::timestamptz, workouts.start_time),
			updated_at = $8
		 RETURNING `+sessionColumns,
		uuid.New(), userID, workout.DefaultName, string(exercises), string(groups),
		ch.Duration, ch.StartTime, ch.Now)
	s, err := scanSession(row)
	if err != nil {
		return nil, fmt.Errorf("upserting active workout: %w", err)
	}
	return s, nil
}

// ModifyActive locks the in-progress row for the duration of fn.
func (db *DB) ModifyActive(ctx context.Context, userID string, now time.Time, fn func(*workout.Session) error) (*workout.Session, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx,
		`SELECT `+sessionColumns+`
		 FROM workouts
		 WHERE user_id = $1 AND status = 'in-progress'
		 ORDER BY created_at DESC
		 LIMIT 1
		 FOR UPDATE`,
		userID)
	s, err := scanSession(row)
	if err != nil {
		return nil, fmt.Errorf("locking active workout: %w", err)
	}

	if err := fn(s); err != nil {
		return nil, err
	}

	exercises, err := encodeExercises(s.Exercises)
	if err != nil {
		return nil, err
	}
	groups, err := encodeGroups(s.SupersetGroups)
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx,
		`UPDATE workouts SET exercises = $2::jsonb, superset_groups = $3::jsonb, updated_at = $4
		 WHERE id = $1`,
		s.ID, string(exercises), string(groups), now); err != nil {
		return nil, fmt.Errorf("updating active workout: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing active workout: %w", err)
	}
	s.UpdatedAt = now
	return s, nil
}

// CloseActive moves the in-progress session to a terminal status.
func (db *DB) CloseActive(ctx context.Context, userID string, status workout.Status, endTime time.Time) (*workout.Session, error) {
	row := db.Pool.QueryRow(ctx,
		`UPDATE workouts SET status = $2, end_time = $3, updated_at = $3
		 WHERE user_id = $1 AND status = 'in-progress'
		 RETURNING `+sessionColumns,
		userID, string(status), endTime)
	s, err := scanSession(row)
	if err != nil {
		return nil, fmt.Errorf("closing active workout: %w", err)
	}
	return s, nil
}

// UpdateDetails patches a completed, non-routine session.
func (db *DB) UpdateDetails(ctx context.Context, userID string, id uuid.UUID, d workout.Details, now time.Time) (*workout.Session, error) {
	var visibility *string
	if d.Visibility != nil {
		v := string(*d.Visibility)
		visibility = &v
	}
	row := db.Pool.QueryRow(ctx,
		`UPDATE workouts SET
			name = COALESCE($3, name),
			description = COALESCE($4, description),
			visibility = COALESCE($5, visibility),
			updated_at = $6
		 WHERE id = $1 AND user_id = $2 AND status = 'completed' AND NOT is_routine
		 RETURNING `+sessionColumns,
		id, userID, d.Name, d.Description, visibility, now)
	s, err := scanSession(row)
	if err != nil {
		return nil, fmt.Errorf("updating workout details: %w", err)
	}
	return s, nil
}

// DeleteSession removes a session owned by userID.
func (db *DB) DeleteSession(ctx context.Context, userID string, id uuid.UUID) error {
	tag, err := db.Pool.Exec(ctx,
		`DELETE FROM workouts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting workout: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return workout.ErrNotFound
	}
	return nil
}

// InsertRoutine stores a new routine.
func (db *DB) InsertRoutine(ctx context.Context, s *workout.Session) error {
	exercises, err := encodeExercises(s.Exercises)
	if err != nil {
		return err
	}
	groups, err := encodeGroups(s.SupersetGroups)
	if err != nil {
		return err
	}
	_, err = db.Pool.Exec(ctx,
		`INSERT INTO workouts (id, user_id, name, description, visibility, exercises, superset_groups,
		 duration_sec, status, is_routine, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7::jsonb, 0, 'completed', TRUE, $8, $8)`,
		s.ID, s.UserID, s.Name, s.Description, string(s.Visibility),
		string(exercises), string(groups), s.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting routine: %w", err)
	}
	return nil
}

// ReplaceRoutine overwrites the name and content of a routine.
func (db *DB) ReplaceRoutine(ctx context.Context, userID string, id uuid.UUID, name string, exercises []workout.ExerciseEntry, groups []workout.SupersetGroup, now time.Time) (*workout.Session, error) {
	ex, err := encodeExercises(exercises)
	if err != nil {
		return nil, err
	}
	gr, err := encodeGroups(groups)
	if err != nil {
		return nil, err
	}
	row := db.Pool.QueryRow(ctx,
		`UPDATE workouts SET name = $3, exercises = $4::jsonb, superset_groups = $5::jsonb, updated_at = $6
		 WHERE id = $1 AND user_id = $2 AND is_routine
		 RETURNING `+sessionColumns,
		id, userID, name, string(ex), string(gr), now)
	s, err := scanSession(row)
	if err != nil {
		return nil, fmt.Errorf("updating routine: %w", err)
	}
	return s, nil
}

// ListHistory returns completed non-routine sessions, newest end first.
func (db *DB) ListHistory(ctx context.Context, userID string, limit int) ([]workout.Session, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+sessionColumns+`
		 FROM workouts
		 WHERE user_id = $1 AND status = 'completed' AND NOT is_routine
		 ORDER BY end_time DESC NULLS LAST
		 LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying workout history: %w", err)
	}
	defer rows.Close()
	return scanSessions(rows)
}

// ListRoutines returns routines, newest created first.
func (db *DB) ListRoutines(ctx context.Context, userID string) ([]workout.Session, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+sessionColumns+`
		 FROM workouts
		 WHERE user_id = $1 AND is_routine
		 ORDER BY created_at DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("querying routines: %w", err)
	}
	defer rows.Close()
	return scanSessions(rows)
}

func scanSession(row pgx.Row) (*workout.Session, error) {
	var r models.SessionRow
	err := row.Scan(&r.ID, &r.UserID, &r.Name, &r.Description, &r.Visibility,
		&r.Exercises, &r.SupersetGroups, &r.DurationSec, &r.StartTime, &r.EndTime,
		&r.Status, &r.IsRoutine, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, workout.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return toSession(r)
}

func scanSessions(rows pgx.Rows) ([]workout.Session, error) {
	result := []workout.Session{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning workout: %w", err)
		}
		result = append(result, *s)
	}
	return result, rows.Err()
}
