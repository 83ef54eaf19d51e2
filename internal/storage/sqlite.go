package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/workout"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// sqliteTime is a fixed-width UTC layout so stored timestamps sort as text.
const sqliteTime = "2006-01-02T15:04:05.000000000Z"

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS exercises (
		id            TEXT PRIMARY KEY,
		name          TEXT NOT NULL,
		description   TEXT NOT NULL DEFAULT '',
		muscle_groups TEXT NOT NULL DEFAULT '[]',
		equipment     TEXT NOT NULL DEFAULT 'bodyweight',
		difficulty    TEXT NOT NULL DEFAULT 'beginner',
		video_url     TEXT NOT NULL DEFAULT '',
		gif_url       TEXT NOT NULL DEFAULT '',
		thumbnail_url TEXT NOT NULL DEFAULT '',
		is_custom     INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS workouts (
		id              TEXT PRIMARY KEY,
		user_id         TEXT NOT NULL,
		name            TEXT NOT NULL DEFAULT 'Quick Start Workout',
		description     TEXT NOT NULL DEFAULT '',
		visibility      TEXT NOT NULL DEFAULT 'Everyone' CHECK (visibility IN ('Everyone', 'Private')),
		exercises       TEXT NOT NULL DEFAULT '[]',
		superset_groups TEXT NOT NULL DEFAULT '[]',
		duration_sec    INTEGER NOT NULL DEFAULT 0,
		start_time      TEXT,
		end_time        TEXT,
		status          TEXT NOT NULL DEFAULT 'in-progress' CHECK (status IN ('in-progress', 'completed', 'discarded')),
		is_routine      INTEGER NOT NULL DEFAULT 0,
		created_at      TEXT NOT NULL,
		updated_at      TEXT NOT NULL,
		CHECK (is_routine = 0 OR status = 'completed')
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS workouts_one_active_idx ON workouts (user_id) WHERE status = 'in-progress'`,
	`CREATE INDEX IF NOT EXISTS workouts_user_status_idx ON workouts (user_id, status)`,
	`CREATE INDEX IF NOT EXISTS workouts_user_created_idx ON workouts (user_id, created_at)`,
}

// SQLite implements workout.Store on an embedded SQLite database. A single
// connection serializes writers, so a transaction holds the database for
// its whole read-modify-write.
type SQLite struct {
	db *sql.DB
}

var _ workout.Store = (*SQLite)(nil)

// OpenSQLite opens (or creates) the database at path. ":memory:" opens a
// private in-memory database.
func OpenSQLite(path string) (*SQLite, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating database dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, stmt := range sqliteSchema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating schema: %w", err)
		}
	}
	return &SQLite{db: db}, nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Ping checks the connection.
func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type sqlQueryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ActiveSession returns the user's newest in-progress session.
func (s *SQLite) ActiveSession(ctx context.Context, userID string) (*workout.Session, error) {
	sess, err := s.activeSession(ctx, s.db, userID)
	if err != nil {
		return nil, fmt.Errorf("querying active workout: %w", err)
	}
	return sess, nil
}

func (s *SQLite) activeSession(ctx context.Context, q sqlQueryer, userID string) (*workout.Session, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+sessionColumns+`
		 FROM workouts
		 WHERE user_id = ? AND status = 'in-progress'
		 ORDER BY created_at DESC
		 LIMIT 1`,
		userID)
	return scanSQLiteSession(row)
}

// UpsertActive inserts or updates the user's in-progress session in one
// statement, using the partial unique index as conflict target.
func (s *SQLite) UpsertActive(ctx context.Context, userID string, ch workout.ActiveChange) (*workout.Session, error) {
	exercises, err := encodeExercises(ch.Exercises)
	if err != nil {
		return nil, err
	}
	groups, err := encodeGroups(ch.SupersetGroups)
	if err != nil {
		return nil, err
	}

	duration := sql.NullInt64{}
	if ch.Duration != nil {
		duration = sql.NullInt64{Int64: int64(*ch.Duration), Valid: true}
	}
	start := nullTime(ch.StartTime)
	now := ch.Now.UTC().Format(sqliteTime)

	row := s.db.QueryRowContext(ctx,
		`INSERT INTO workouts (id, user_id, name, exercises, superset_groups, duration_sec,
		 start_time, status, is_routine, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, COALESCE(?, 0), COALESCE(?, ?), 'in-progress', 0, ?, ?)
		 ON CONFLICT (user_id) WHERE status = 'in-progress' DO UPDATE SET
			exercises = excluded.exercises,
			superset_groups = excluded.superset_groups,
			duration_sec = COALESCE(?, workouts.duration_sec),
			start_time = COALESCE(?, workouts.start_time),
			updated_at = excluded.updated_at
		 RETURNING `+sessionColumns,
		uuid.New().String(), userID, workout.DefaultName, string(exercises), string(groups),
		duration, start, now, now, now,
		duration, start)
	sess, err := scanSQLiteSession(row)
	if err != nil {
		return nil, fmt.Errorf("upserting active workout: %w", err)
	}
	return sess, nil
}

// ModifyActive applies fn to the in-progress session inside a transaction.
func (s *SQLite) ModifyActive(ctx context.Context, userID string, now time.Time, fn func(*workout.Session) error) (*workout.Session, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	sess, err := s.activeSession(ctx, tx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading active workout: %w", err)
	}
	if err := fn(sess); err != nil {
		return nil, err
	}

	exercises, err := encodeExercises(sess.Exercises)
	if err != nil {
		return nil, err
	}
	groups, err := encodeGroups(sess.SupersetGroups)
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE workouts SET exercises = ?, superset_groups = ?, updated_at = ? WHERE id = ?`,
		string(exercises), string(groups), now.UTC().Format(sqliteTime), sess.ID.String()); err != nil {
		return nil, fmt.Errorf("updating active workout: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing active workout: %w", err)
	}
	sess.UpdatedAt = now.UTC()
	return sess, nil
}

// CloseActive moves the in-progress session to a terminal status.
func (s *SQLite) CloseActive(ctx context.Context, userID string, status workout.Status, endTime time.Time) (*workout.Session, error) {
	end := endTime.UTC().Format(sqliteTime)
	row := s.db.QueryRowContext(ctx,
		`UPDATE workouts SET status = ?, end_time = ?, updated_at = ?
		 WHERE user_id = ? AND status = 'in-progress'
		 RETURNING `+sessionColumns,
		string(status), end, end, userID)
	sess, err := scanSQLiteSession(row)
	if err != nil {
		return nil, fmt.Errorf("closing active workout: %w", err)
	}
	return sess, nil
}

// UpdateDetails patches a completed, non-routine session.
func (s *SQLite) UpdateDetails(ctx context.Context, userID string, id uuid.UUID, d workout.Details, now time.Time) (*workout.Session, error) {
	var visibility *string
	if d.Visibility != nil {
		v := string(*d.Visibility)
		visibility = &v
	}
	row := s.db.QueryRowContext(ctx,
		`UPDATE workouts SET
			name = COALESCE(?, name),
			description = COALESCE(?, description),
			visibility = COALESCE(?, visibility),
			updated_at = ?
		 WHERE id = ? AND user_id = ? AND status = 'completed' AND is_routine = 0
		 RETURNING `+sessionColumns,
		nullString(d.Name), nullString(d.Description), nullString(visibility),
		now.UTC().Format(sqliteTime), id.String(), userID)
	sess, err := scanSQLiteSession(row)
	if err != nil {
		return nil, fmt.Errorf("updating workout details: %w", err)
	}
	return sess, nil
}

// DeleteSession removes a session owned by userID.
func (s *SQLite) DeleteSession(ctx context.Context, userID string, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM workouts WHERE id = ? AND user_id = ?`, id.String(), userID)
	if err != nil {
		return fmt.Errorf("deleting workout: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting workout: %w", err)
	}
	if n == 0 {
		return workout.ErrNotFound
	}
	return nil
}

// InsertRoutine stores a new routine.
func (s *SQLite) InsertRoutine(ctx context.Context, sess *workout.Session) error {
	exercises, err := encodeExercises(sess.Exercises)
	if err != nil {
		return err
	}
	groups, err := encodeGroups(sess.SupersetGroups)
	if err != nil {
		return err
	}
	created := sess.CreatedAt.UTC().Format(sqliteTime)
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO workouts (id, user_id, name, description, visibility, exercises, superset_groups,
		 duration_sec, status, is_routine, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 0, 'completed', 1, ?, ?)`,
		sess.ID.String(), sess.UserID, sess.Name, sess.Description, string(sess.Visibility),
		string(exercises), string(groups), created, created)
	if err != nil {
		return fmt.Errorf("inserting routine: %w", err)
	}
	return nil
}

// ReplaceRoutine overwrites the name and content of a routine.
func (s *SQLite) ReplaceRoutine(ctx context.Context, userID string, id uuid.UUID, name string, exercises []workout.ExerciseEntry, groups []workout.SupersetGroup, now time.Time) (*workout.Session, error) {
	ex, err := encodeExercises(exercises)
	if err != nil {
		return nil, err
	}
	gr, err := encodeGroups(groups)
	if err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx,
		`UPDATE workouts SET name = ?, exercises = ?, superset_groups = ?, updated_at = ?
		 WHERE id = ? AND user_id = ? AND is_routine = 1
		 RETURNING `+sessionColumns,
		name, string(ex), string(gr), now.UTC().Format(sqliteTime), id.String(), userID)
	sess, err := scanSQLiteSession(row)
	if err != nil {
		return nil, fmt.Errorf("updating routine: %w", err)
	}
	return sess, nil
}

// ListHistory returns completed non-routine sessions, newest end first.
func (s *SQLite) ListHistory(ctx context.Context, userID string, limit int) ([]workout.Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sessionColumns+`
		 FROM workouts
		 WHERE user_id = ? AND status = 'completed' AND is_routine = 0
		 ORDER BY end_time IS NULL, end_time DESC
		 LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying workout history: %w", err)
	}
	defer rows.Close()
	return scanSQLiteSessions(rows)
}

// ListRoutines returns routines, newest created first.
func (s *SQLite) ListRoutines(ctx context.Context, userID string) ([]workout.Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sessionColumns+`
		 FROM workouts
		 WHERE user_id = ? AND is_routine = 1
		 ORDER BY created_at DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("querying routines: %w", err)
	}
	defer rows.Close()
	return scanSQLiteSessions(rows)
}

// LookupExercises returns the catalog records for the ids that exist.
func (s *SQLite) LookupExercises(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]workout.Exercise, error) {
	result := make(map[uuid.UUID]workout.Exercise, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id.String()
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, muscle_groups, equipment, difficulty,
		 video_url, gif_url, thumbnail_url, is_custom
		 FROM exercises
		 WHERE id IN (`+strings.Join(placeholders, ",")+`)`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("querying exercises: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			r      models.ExerciseRow
			id     string
			groups string
		)
		if err := rows.Scan(&id, &r.Name, &r.Description, &groups, &r.Equipment,
			&r.Difficulty, &r.VideoURL, &r.GifURL, &r.ThumbnailURL, &r.IsCustom); err != nil {
			return nil, fmt.Errorf("scanning exercise: %w", err)
		}
		if r.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parsing exercise id %q: %w", id, err)
		}
		if err := json.Unmarshal([]byte(groups), &r.MuscleGroups); err != nil {
			return nil, fmt.Errorf("decoding muscle groups of %s: %w", id, err)
		}
		result[r.ID] = toExercise(r)
	}
	return result, rows.Err()
}

// PutExercise inserts or replaces a catalog record.
func (s *SQLite) PutExercise(ctx context.Context, e workout.Exercise) error {
	groups, err := json.Marshal(nonNil(e.MuscleGroups))
	if err != nil {
		return fmt.Errorf("encoding muscle groups: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO exercises (id, name, description, muscle_groups, equipment, difficulty,
		 video_url, gif_url, thumbnail_url, is_custom)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID.String(), e.Name, e.Description, string(groups), e.Equipment, e.Difficulty,
		e.VideoURL, e.GifURL, e.ThumbnailURL, e.IsCustom)
	if err != nil {
		return fmt.Errorf("upserting exercise: %w", err)
	}
	return nil
}

type sqlScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteSession(row sqlScanner) (*workout.Session, error) {
	var (
		r                 models.SessionRow
		id                string
		exercises, groups string
		start, end        sql.NullString
		created, updated  string
	)
	err := row.Scan(&id, &r.UserID, &r.Name, &r.Description, &r.Visibility,
		&exercises, &groups, &r.DurationSec, &start, &end,
		&r.Status, &r.IsRoutine, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, workout.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if r.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parsing workout id %q: %w", id, err)
	}
	r.Exercises = []byte(exercises)
	r.SupersetGroups = []byte(groups)
	if r.StartTime, err = parseNullTime(start); err != nil {
		return nil, err
	}
	if r.EndTime, err = parseNullTime(end); err != nil {
		return nil, err
	}
	if r.CreatedAt, err = time.Parse(sqliteTime, created); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if r.UpdatedAt, err = time.Parse(sqliteTime, updated); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return toSession(r)
}

func scanSQLiteSessions(rows *sql.Rows) ([]workout.Session, error) {
	result := []workout.Session{}
	for rows.Next() {
		s, err := scanSQLiteSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning workout: %w", err)
		}
		result = append(result, *s)
	}
	return result, rows.Err()
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(sqliteTime), Valid: true}
}

func parseNullTime(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid {
		return nil, nil
	}
	t, err := time.Parse(sqliteTime, ns.String)
	if err != nil {
		return nil, fmt.Errorf("parsing timestamp %q: %w", ns.String, err)
	}
	return &t, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
