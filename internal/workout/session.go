// Package workout implements the workout session lifecycle: normalizing
// client payloads into sessions, keeping a single in-progress session per
// user, and archiving sessions as history or reusable routines.
package workout

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a session.
type Status string

const (
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusDiscarded  Status = "discarded"
)

// Visibility controls who may see a completed session.
type Visibility string

const (
	VisibilityEveryone Visibility = "Everyone"
	VisibilityPrivate  Visibility = "Private"
)

// Valid reports whether v is a known visibility.
func (v Visibility) Valid() bool {
	return v == VisibilityEveryone || v == VisibilityPrivate
}

const (
	// DefaultName is given to sessions started without a name.
	DefaultName = "Quick Start Workout"
	// HistoryLimit bounds the number of sessions ListHistory returns.
	HistoryLimit = 50
)

// Set is one set of an exercise entry. MinReps and MaxReps are nil when no
// rep-range target is known.
type Set struct {
	SetNumber int     `json:"setNumber"`
	Previous  string  `json:"previous"`
	Kg        float64 `json:"kg"`
	Reps      int     `json:"reps"`
	MinReps   *int    `json:"minReps,omitempty"`
	MaxReps   *int    `json:"maxReps,omitempty"`
	Completed bool    `json:"completed"`
}

// Exercise is a catalog record used to expand references for display.
type Exercise struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	MuscleGroups []string  `json:"muscleGroups"`
	Equipment    string    `json:"equipment"`
	Difficulty   string    `json:"difficulty"`
	VideoURL     string    `json:"videoUrl,omitempty"`
	GifURL       string    `json:"gifUrl,omitempty"`
	ThumbnailURL string    `json:"thumbnailUrl,omitempty"`
	IsCustom     bool      `json:"isCustom"`
}

// ExerciseEntry places one exercise inside a session.
type ExerciseEntry struct {
	ExerciseID ExerciseRef `json:"exerciseId"`
	Order      int         `json:"order"`
	Notes      string      `json:"notes"`
	Sets       []Set       `json:"sets"`

	// Exercise is the expanded catalog record, nil when unresolved.
	Exercise *Exercise `json:"exercise,omitempty"`
}

// SupersetGroup lists exercises performed back-to-back.
type SupersetGroup struct {
	ExerciseIDs []ExerciseRef `json:"exerciseIds"`

	// Exercises holds the expanded records in ExerciseIDs order; entries for
	// unresolved references are nil.
	Exercises []*Exercise `json:"exercises,omitempty"`
}

// Session is a workout (dated history) or a routine (reusable template).
type Session struct {
	ID             uuid.UUID       `json:"id"`
	UserID         string          `json:"userId"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Visibility     Visibility      `json:"visibility"`
	Exercises      []ExerciseEntry `json:"exercises"`
	SupersetGroups []SupersetGroup `json:"supersetGroups"`
	Duration       int             `json:"duration"`
	StartTime      *time.Time      `json:"startTime,omitempty"`
	EndTime        *time.Time      `json:"endTime,omitempty"`
	Status         Status          `json:"status"`
	IsRoutine      bool            `json:"isRoutine"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// FindExercise returns the index of the entry referencing ref, or -1.
func (s *Session) FindExercise(ref ExerciseRef) int {
	for i, ex := range s.Exercises {
		if ex.ExerciseID.Equal(ref) {
			return i
		}
	}
	return -1
}

// refs returns every resolved identifier referenced by the session.
func (s *Session) refs() []uuid.UUID {
	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID
	add := func(r ExerciseRef) {
		if id, ok := r.ID(); ok && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, ex := range s.Exercises {
		add(ex.ExerciseID)
	}
	for _, g := range s.SupersetGroups {
		for _, r := range g.ExerciseIDs {
			add(r)
		}
	}
	return ids
}

// expand attaches catalog records to every resolved reference.
func (s *Session) expand(catalog map[uuid.UUID]Exercise) {
	lookup := func(r ExerciseRef) *Exercise {
		id, ok := r.ID()
		if !ok {
			return nil
		}
		if e, ok := catalog[id]; ok {
			return &e
		}
		return nil
	}
	for i := range s.Exercises {
		s.Exercises[i].Exercise = lookup(s.Exercises[i].ExerciseID)
	}
	for i := range s.SupersetGroups {
		g := &s.SupersetGroups[i]
		g.Exercises = make([]*Exercise, len(g.ExerciseIDs))
		for j, r := range g.ExerciseIDs {
			g.Exercises[j] = lookup(r)
		}
	}
}
