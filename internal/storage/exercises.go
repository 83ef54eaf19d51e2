package storage

import (
	"context"
	"fmt"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/workout"
	"github.com/google/uuid"
)

// LookupExercises returns the catalog records for the ids that exist.
func (db *DB) LookupExercises(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]workout.Exercise, error) {
	result := make(map[uuid.UUID]workout.Exercise, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	rows, err := db.Pool.Query(ctx,
		`SELECT id, name, description, muscle_groups, equipment, difficulty,
		 video_url, gif_url, thumbnail_url, is_custom
		 FROM exercises
		 WHERE id = ANY($1)`,
		ids)
	if err != nil {
		return nil, fmt.Errorf("querying exercises: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r models.ExerciseRow
		if err := rows.Scan(&r.ID, &r.Name, &r.Description, &r.MuscleGroups, &r.Equipment,
			&r.Difficulty, &r.VideoURL, &r.GifURL, &r.ThumbnailURL, &r.IsCustom); err != nil {
			return nil, fmt.Errorf("scanning exercise: %w", err)
		}
		result[r.ID] = toExercise(r)
	}
	return result, rows.Err()
}

// PutExercise inserts or replaces a catalog record.
func (db *DB) PutExercise(ctx context.Context, e workout.Exercise) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO exercises (id, name, description, muscle_groups, equipment, difficulty,
		 video_url, gif_url, thumbnail_url, is_custom)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		 ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, description = EXCLUDED.description,
			muscle_groups = EXCLUDED.muscle_groups, equipment = EXCLUDED.equipment,
			difficulty = EXCLUDED.difficulty, video_url = EXCLUDED.video_url,
			gif_url = EXCLUDED.gif_url, thumbnail_url = EXCLUDED.thumbnail_url,
			is_custom = EXCLUDED.is_custom`,
		e.ID, e.Name, e.Description, nonNil(e.MuscleGroups), e.Equipment, e.Difficulty,
		e.VideoURL, e.GifURL, e.ThumbnailURL, e.IsCustom)
	if err != nil {
		return fmt.Errorf("upserting exercise: %w", err)
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
