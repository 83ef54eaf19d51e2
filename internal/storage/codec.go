package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/workout"
)

const sessionColumns = `id, user_id, name, description, visibility, exercises, superset_groups,
	duration_sec, start_time, end_time, status, is_routine, created_at, updated_at`

func encodeExercises(entries []workout.ExerciseEntry) ([]byte, error) {
	docs := make([]models.EntryDoc, len(entries))
	for i, e := range entries {
		sets := make([]models.SetDoc, len(e.Sets))
		for j, s := range e.Sets {
			sets[j] = models.SetDoc(s)
		}
		docs[i] = models.EntryDoc{
			ExerciseID: e.ExerciseID.String(),
			Order:      e.Order,
			Notes:      e.Notes,
			Sets:       sets,
		}
	}
	b, err := json.Marshal(docs)
	if err != nil {
		return nil, fmt.Errorf("encoding exercises: %w", err)
	}
	return b, nil
}

func encodeGroups(groups []workout.SupersetGroup) ([]byte, error) {
	docs := make([]models.GroupDoc, len(groups))
	for i, g := range groups {
		ids := make([]string, len(g.ExerciseIDs))
		for j, r := range g.ExerciseIDs {
			ids[j] = r.String()
		}
		docs[i] = models.GroupDoc{ExerciseIDs: ids}
	}
	b, err := json.Marshal(docs)
	if err != nil {
		return nil, fmt.Errorf("encoding superset groups: %w", err)
	}
	return b, nil
}

func toSession(row models.SessionRow) (*workout.Session, error) {
	var entries []models.EntryDoc
	if len(row.Exercises) > 0 {
		if err := json.Unmarshal(row.Exercises, &entries); err != nil {
			return nil, fmt.Errorf("decoding exercises of %s: %w", row.ID, err)
		}
	}
	var groups []models.GroupDoc
	if len(row.SupersetGroups) > 0 {
		if err := json.Unmarshal(row.SupersetGroups, &groups); err != nil {
			return nil, fmt.Errorf("decoding superset groups of %s: %w", row.ID, err)
		}
	}

	s := &workout.Session{
		ID:             row.ID,
		UserID:         row.UserID,
		Name:           row.Name,
		Description:    row.Description,
		Visibility:     workout.Visibility(row.Visibility),
		Exercises:      make([]workout.ExerciseEntry, len(entries)),
		SupersetGroups: make([]workout.SupersetGroup, len(groups)),
		Duration:       row.DurationSec,
		StartTime:      utcPtr(row.StartTime),
		EndTime:        utcPtr(row.EndTime),
		Status:         workout.Status(row.Status),
		IsRoutine:      row.IsRoutine,
		CreatedAt:      row.CreatedAt.UTC(),
		UpdatedAt:      row.UpdatedAt.UTC(),
	}
	for i, e := range entries {
		sets := make([]workout.Set, len(e.Sets))
		for j, sd := range e.Sets {
			sets[j] = workout.Set(sd)
		}
		s.Exercises[i] = workout.ExerciseEntry{
			ExerciseID: workout.ResolveRef(e.ExerciseID),
			Order:      e.Order,
			Notes:      e.Notes,
			Sets:       sets,
		}
	}
	for i, g := range groups {
		refs := make([]workout.ExerciseRef, len(g.ExerciseIDs))
		for j, id := range g.ExerciseIDs {
			refs[j] = workout.ResolveRef(id)
		}
		s.SupersetGroups[i] = workout.SupersetGroup{ExerciseIDs: refs}
	}
	return s, nil
}

func toExercise(row models.ExerciseRow) workout.Exercise {
	groups := row.MuscleGroups
	if groups == nil {
		groups = []string{}
	}
	return workout.Exercise{
		ID:           row.ID,
		Name:         row.Name,
		Description:  row.Description,
		MuscleGroups: groups,
		Equipment:    row.Equipment,
		Difficulty:   row.Difficulty,
		VideoURL:     row.VideoURL,
		GifURL:       row.GifURL,
		ThumbnailURL: row.ThumbnailURL,
		IsCustom:     row.IsCustom,
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
