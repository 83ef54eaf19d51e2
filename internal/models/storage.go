package models

import (
	"time"

	"github.com/google/uuid"
)

// SessionRow is a row of the workouts table. Exercises and SupersetGroups
// hold the JSON documents stored in their columns.
type SessionRow struct {
	ID             uuid.UUID
	UserID         string
	Name           string
	Description    string
	Visibility     string
	Exercises      []byte
	SupersetGroups []byte
	DurationSec    int
	StartTime      *time.Time
	EndTime        *time.Time
	Status         string
	IsRoutine      bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// EntryDoc is the stored form of one exercise entry.
type EntryDoc struct {
	ExerciseID string   `json:"exerciseId"`
	Order      int      `json:"order"`
	Notes      string   `json:"notes"`
	Sets       []SetDoc `json:"sets"`
}

// SetDoc is the stored form of one set. Absent rep-range bounds are omitted.
type SetDoc struct {
	SetNumber int     `json:"setNumber"`
	Previous  string  `json:"previous"`
	Kg        float64 `json:"kg"`
	Reps      int     `json:"reps"`
	MinReps   *int    `json:"minReps,omitempty"`
	MaxReps   *int    `json:"maxReps,omitempty"`
	Completed bool    `json:"completed"`
}

// GroupDoc is the stored form of one superset group.
type GroupDoc struct {
	ExerciseIDs []string `json:"exerciseIds"`
}

// ExerciseRow is a row of the exercises catalog table.
type ExerciseRow struct {
	ID           uuid.UUID
	Name         string
	Description  string
	MuscleGroups []string
	Equipment    string
	Difficulty   string
	VideoURL     string
	GifURL       string
	ThumbnailURL string
	IsCustom     bool
}
