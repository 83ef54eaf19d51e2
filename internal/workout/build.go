package workout

import (
	"strings"
	"time"

	"github.com/claude/liftlog/internal/apperr"
)

// BuildExercises converts client entries into exercise entries. Order comes
// from the position in the slice; any client-supplied order is ignored.
func BuildExercises(in []ExerciseInput) []ExerciseEntry {
	out := make([]ExerciseEntry, len(in))
	for i, ex := range in {
		notes := ""
		if ex.Notes != nil {
			notes = *ex.Notes
		}
		out[i] = ExerciseEntry{
			ExerciseID: ex.Ref(),
			Order:      i,
			Notes:      notes,
			Sets:       NormalizeSets(ex.Sets),
		}
	}
	return out
}

// BuildSupersetGroups converts client groups into the canonical shape,
// resolving each member independently.
func BuildSupersetGroups(in []SupersetInput) []SupersetGroup {
	out := make([]SupersetGroup, len(in))
	for i, g := range in {
		ids := make([]ExerciseRef, len(g.ExerciseIDs))
		for j, r := range g.ExerciseIDs {
			ids[j] = r.Ref()
		}
		out[i] = SupersetGroup{ExerciseIDs: ids}
	}
	return out
}

// ParseTimestamp parses a client timestamp in RFC 3339 or YYYY-MM-DD form.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, apperr.Validation("invalid startTime").With("startTime", s)
	}
	return t, nil
}

// ActiveChange is the normalized form of a SaveActive payload handed to the
// store. Duration and StartTime are nil when the client did not send them;
// a newly created session then gets duration 0 and starts at Now.
type ActiveChange struct {
	Exercises      []ExerciseEntry
	SupersetGroups []SupersetGroup
	Duration       *int
	StartTime      *time.Time
	Now            time.Time
}

// buildActive normalizes a SaveActive payload.
func buildActive(in ActiveInput, now time.Time) (ActiveChange, error) {
	ch := ActiveChange{
		Exercises:      BuildExercises(in.Exercises),
		SupersetGroups: BuildSupersetGroups(in.SupersetGroups),
		Now:            now,
	}
	if d, ok := in.Duration.Int(); ok {
		ch.Duration = &d
	}
	if in.StartTime != nil && strings.TrimSpace(*in.StartTime) != "" {
		t, err := ParseTimestamp(*in.StartTime)
		if err != nil {
			return ActiveChange{}, err
		}
		t = t.UTC()
		ch.StartTime = &t
	}
	return ch, nil
}

// buildRoutine validates and normalizes a routine payload.
func buildRoutine(in RoutineInput) (name string, exercises []ExerciseEntry, groups []SupersetGroup, err error) {
	name = strings.TrimSpace(in.Name)
	if name == "" {
		return "", nil, nil, apperr.Validation("routine name is required")
	}
	if len(in.Exercises) == 0 {
		return "", nil, nil, apperr.Validation("at least one exercise is required")
	}
	return name, BuildExercises(in.Exercises), BuildSupersetGroups(in.SupersetGroups), nil
}
