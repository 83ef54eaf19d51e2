package workout

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Number is a JSON number that may also arrive as a numeric string. It
// remembers whether the client supplied it at all.
type Number struct {
	v  float64
	ok bool
}

// NumberOf returns a supplied Number.
func NumberOf(v float64) Number {
	return Number{v: v, ok: true}
}

// Value returns the number and whether it was supplied.
func (n Number) Value() (float64, bool) {
	return n.v, n.ok
}

// Int returns the number truncated to an int and whether it was supplied.
func (n Number) Int() (int, bool) {
	return int(n.v), n.ok
}

// UnmarshalJSON implements json.Unmarshaler. Strings that do not parse as a
// number leave the Number unset.
func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*n = Number{}
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			*n = NumberOf(v)
		}
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*n = NumberOf(v)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.ok {
		return []byte("null"), nil
	}
	return json.Marshal(n.v)
}

// Reps is the reps field of a set payload: either a count or legacy text
// such as "8-12".
type Reps struct {
	count  Number
	text   string
	isText bool
}

// RepsCount returns a numeric Reps.
func RepsCount(n int) Reps {
	return Reps{count: NumberOf(float64(n))}
}

// RepsText returns a textual Reps.
func RepsText(s string) Reps {
	return Reps{text: s, isText: true}
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Reps) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*r = Reps{}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*r = RepsText(s)
		return nil
	}
	return r.count.UnmarshalJSON(b)
}

// MarshalJSON implements json.Marshaler.
func (r Reps) MarshalJSON() ([]byte, error) {
	if r.isText {
		return json.Marshal(r.text)
	}
	return r.count.MarshalJSON()
}

// SetInput is a set as sent by a client.
type SetInput struct {
	SetNumber Number  `json:"setNumber"`
	Previous  *string `json:"previous,omitempty"`
	Kg        Number  `json:"kg"`
	Reps      Reps    `json:"reps"`
	MinReps   Number  `json:"minReps"`
	MaxReps   Number  `json:"maxReps"`
	Completed bool    `json:"completed"`
}

// omitsRange reports whether the payload carried no rep-range information.
func (in SetInput) omitsRange() bool {
	_, hasMin := in.MinReps.Value()
	_, hasMax := in.MaxReps.Value()
	legacy := in.Reps.isText && strings.Contains(in.Reps.text, repsSeparator)
	return !hasMin && !hasMax && !legacy
}

// ExerciseInput is an exercise entry as sent by a client. The exercise may
// be identified by the entry's own id, by an embedded exercise object, or by
// exerciseId (a string or a populated object).
type ExerciseInput struct {
	UnderscoreID RefInput   `json:"_id"`
	ID           RefInput   `json:"id"`
	Exercise     RefInput   `json:"exercise"`
	ExerciseID   RefInput   `json:"exerciseId"`
	Notes        *string    `json:"notes"`
	Sets         []SetInput `json:"sets"`
}

// Ref resolves the entry's exercise reference using the fixed precedence
// _id, id, exercise, exerciseId.
func (in ExerciseInput) Ref() ExerciseRef {
	for _, c := range []RefInput{in.UnderscoreID, in.ID, in.Exercise, in.ExerciseID} {
		if c.IsSet() {
			return c.Ref()
		}
	}
	return Raw("")
}

// SupersetInput is a superset group as sent by a client: either a bare array
// of references or an object with an exerciseIds array.
type SupersetInput struct {
	ExerciseIDs []RefInput
}

// UnmarshalJSON implements json.Unmarshaler.
func (in *SupersetInput) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*in = SupersetInput{}
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		return nil
	case b[0] == '[':
		return json.Unmarshal(b, &in.ExerciseIDs)
	default:
		var obj struct {
			ExerciseIDs []RefInput `json:"exerciseIds"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return err
		}
		in.ExerciseIDs = obj.ExerciseIDs
		return nil
	}
}

// ActiveInput is the payload of SaveActive.
type ActiveInput struct {
	Exercises      []ExerciseInput `json:"exercises"`
	SupersetGroups []SupersetInput `json:"supersetGroups"`
	Duration       Number          `json:"duration"`
	StartTime      *string         `json:"startTime"`
}

// SetsInput is the payload of UpdateSets.
type SetsInput struct {
	ExerciseID RefInput   `json:"exerciseId"`
	Sets       []SetInput `json:"sets"`
}

// DetailsInput is the payload of UpdateDetails. Nil fields are left as they are.
type DetailsInput struct {
	WorkoutID   string      `json:"workoutId"`
	Name        *string     `json:"name"`
	Description *string     `json:"description"`
	Visibility  *Visibility `json:"visibility"`
}

// RoutineInput is the payload of SaveRoutine and UpdateRoutine.
type RoutineInput struct {
	RoutineID      string          `json:"routineId,omitempty"`
	Name           string          `json:"name"`
	Exercises      []ExerciseInput `json:"exercises"`
	SupersetGroups []SupersetInput `json:"supersetGroups"`
}
