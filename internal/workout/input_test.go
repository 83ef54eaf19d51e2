package workout

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/claude/liftlog/internal/apperr"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	benchID = "6f1c7a52-58e4-4f0e-9a43-4d2a9f0a1b01"
	squatID = "0b7d3e9c-1f2a-4c5d-8e6f-7a8b9c0d1e02"
)

func TestExerciseInputRefPrecedence(t *testing.T) {
	bench := Resolved(uuid.MustParse(benchID))
	squat := Resolved(uuid.MustParse(squatID))

	tests := []struct {
		name string
		raw  string
		want ExerciseRef
	}{
		{"underscore id wins", `{"_id":"` + benchID + `","id":"` + squatID + `","exerciseId":"` + squatID + `"}`, bench},
		{"id before exercise", `{"id":"` + benchID + `","exercise":{"_id":"` + squatID + `"}}`, bench},
		{"embedded exercise object", `{"exercise":{"_id":"` + benchID + `","name":"Bench"}}`, bench},
		{"exercise object with id", `{"exercise":{"id":"` + squatID + `"}}`, squat},
		{"plain exerciseId", `{"exerciseId":"` + squatID + `"}`, squat},
		{"populated exerciseId", `{"exerciseId":{"_id":"` + benchID + `","name":"Bench"}}`, bench},
		{"null candidates are skipped", `{"_id":null,"id":"","exerciseId":"` + squatID + `"}`, squat},
		{"uppercase uuid resolves", `{"exerciseId":"` + "6F1C7A52-58E4-4F0E-9A43-4D2A9F0A1B01" + `"}`, bench},
		{"unknown format passes through", `{"exerciseId":"ex-42"}`, Raw("ex-42")},
		{"numeric id passes through", `{"exerciseId":42}`, Raw("42")},
		{"nothing supplied", `{"sets":[]}`, Raw("")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var in ExerciseInput
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &in))
			got := in.Ref()
			assert.True(t, tt.want.Equal(got), "want %q, got %q", tt.want, got)
		})
	}
}

func TestSupersetInputShapes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"bare array", `[["` + benchID + `","` + squatID + `"]]`, []string{benchID, squatID}},
		{"object form", `[{"exerciseIds":["` + benchID + `","` + squatID + `"]}]`, []string{benchID, squatID}},
		{"populated members", `[[{"_id":"` + benchID + `"},"` + squatID + `"]]`, []string{benchID, squatID}},
		{"mixed members", `[{"exerciseIds":["` + benchID + `","legacy"]}]`, []string{benchID, "legacy"}},
		{"null member", `[["` + benchID + `",null]]`, []string{benchID, ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var in []SupersetInput
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &in))
			groups := BuildSupersetGroups(in)
			require.Len(t, groups, 1)

			got := make([]string, len(groups[0].ExerciseIDs))
			for i, r := range groups[0].ExerciseIDs {
				got[i] = r.String()
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSupersetGroupJSONIsCanonical(t *testing.T) {
	var in []SupersetInput
	require.NoError(t, json.Unmarshal([]byte(`[["`+benchID+`"]]`), &in))

	b, err := json.Marshal(BuildSupersetGroups(in))
	require.NoError(t, err)
	assert.JSONEq(t, `[{"exerciseIds":["`+benchID+`"]}]`, string(b))
}

func TestBuildExercisesAssignsOrder(t *testing.T) {
	var in []ExerciseInput
	require.NoError(t, json.Unmarshal([]byte(`[
		{"exerciseId":"`+squatID+`","order":7,"notes":"slow","sets":[{"setNumber":1,"reps":5}]},
		{"exerciseId":"`+benchID+`","order":3}
	]`), &in))

	got := BuildExercises(in)
	require.Len(t, got, 2)
	assert.Equal(t, 0, got[0].Order)
	assert.Equal(t, 1, got[1].Order)
	assert.Equal(t, "slow", got[0].Notes)
	assert.Equal(t, "", got[1].Notes)
	assert.Len(t, got[0].Sets, 1)
	assert.NotNil(t, got[1].Sets)
	assert.Empty(t, got[1].Sets)
}

func TestNumberUnmarshal(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
		ok   bool
	}{
		{`12`, 12, true},
		{`"7.5"`, 7.5, true},
		{`" 3 "`, 3, true},
		{`null`, 0, false},
		{`"abc"`, 0, false},
	}
	for _, tt := range tests {
		var n Number
		require.NoError(t, json.Unmarshal([]byte(tt.raw), &n), tt.raw)
		v, ok := n.Value()
		assert.Equal(t, tt.ok, ok, tt.raw)
		assert.Equal(t, tt.want, v, tt.raw)
	}

	var n Number
	assert.Error(t, json.Unmarshal([]byte(`true`), &n))
}

func TestParseTimestamp(t *testing.T) {
	got, err := ParseTimestamp("2026-03-01T09:30:00+02:00")
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2026, 3, 1, 7, 30, 0, 0, time.UTC)))

	got, err = ParseTimestamp("2026-03-01")
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)))

	_, err = ParseTimestamp("yesterday")
	assert.True(t, apperr.IsType(err, apperr.TypeValidation))
}

func TestBuildActive(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	var in ActiveInput
	require.NoError(t, json.Unmarshal([]byte(`{"exercises":[],"duration":"120"}`), &in))
	ch, err := buildActive(in, now)
	require.NoError(t, err)
	require.NotNil(t, ch.Duration)
	assert.Equal(t, 120, *ch.Duration)
	assert.Nil(t, ch.StartTime)
	assert.Equal(t, now, ch.Now)

	require.NoError(t, json.Unmarshal([]byte(`{"startTime":"not a time"}`), &in))
	_, err = buildActive(in, now)
	assert.True(t, apperr.IsType(err, apperr.TypeValidation))
}

func TestBuildRoutineValidation(t *testing.T) {
	_, _, _, err := buildRoutine(RoutineInput{Name: "  ", Exercises: []ExerciseInput{{}}})
	assert.True(t, apperr.IsType(err, apperr.TypeValidation))

	_, _, _, err = buildRoutine(RoutineInput{Name: "Push"})
	assert.True(t, apperr.IsType(err, apperr.TypeValidation))

	name, ex, groups, err := buildRoutine(RoutineInput{Name: " Push ", Exercises: []ExerciseInput{{ExerciseID: NewRefInput(benchID)}}})
	require.NoError(t, err)
	assert.Equal(t, "Push", name)
	require.Len(t, ex, 1)
	assert.True(t, ex[0].ExerciseID.IsResolved())
	assert.Empty(t, groups)
}

func TestExerciseRefJSON(t *testing.T) {
	entry := ExerciseEntry{ExerciseID: ResolveRef(benchID), Sets: []Set{}}
	b, err := json.Marshal(entry)
	require.NoError(t, err)
	assert.JSONEq(t, `{"exerciseId":"`+benchID+`","order":0,"notes":"","sets":[]}`, string(b))

	var back ExerciseEntry
	require.NoError(t, json.Unmarshal(b, &back))
	assert.True(t, back.ExerciseID.Equal(entry.ExerciseID))
}
