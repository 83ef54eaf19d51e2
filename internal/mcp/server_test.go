package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/claude/liftlog/internal/workout"
	"github.com/mark3labs/mcp-go/mcp"
)

type fakeSource struct {
	active   *workout.Session
	history  []workout.Session
	routines []workout.Session
	err      error
	gotUser  string
}

func (f *fakeSource) GetActive(_ context.Context, userID string) (*workout.Session, error) {
	f.gotUser = userID
	return f.active, f.err
}

func (f *fakeSource) ListHistory(_ context.Context, userID string) ([]workout.Session, error) {
	f.gotUser = userID
	return f.history, f.err
}

func (f *fakeSource) ListRoutines(_ context.Context, userID string) ([]workout.Session, error) {
	f.gotUser = userID
	return f.routines, f.err
}

func newHandlers(ds DataSource) *handlers {
	return &handlers{ds: ds, log: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func callTool(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

// resultText returns the text content of a tool result.
func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	for _, c := range res.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	t.Fatal("result has no text content")
	return ""
}

// TestUserIDFromContext verifies the user ID round-trips through the context
// and that an empty context reports no user.
func TestUserIDFromContext(t *testing.T) {
	if _, ok := UserIDFromContext(context.Background()); ok {
		t.Error("UserIDFromContext(empty) reported a user")
	}
	id, ok := UserIDFromContext(WithUserID(context.Background(), "alice"))
	if !ok || id != "alice" {
		t.Errorf("UserIDFromContext = %q, %v; want alice, true", id, ok)
	}
	if _, ok := UserIDFromContext(WithUserID(context.Background(), "")); ok {
		t.Error("empty user ID reported as set")
	}
}

func TestGetActiveWorkoutTool(t *testing.T) {
	ds := &fakeSource{active: &workout.Session{Name: "Leg day", Status: workout.StatusInProgress}}
	h := newHandlers(ds)

	res, err := h.getActiveWorkout(WithUserID(context.Background(), "alice"), callTool(nil))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(t, res))
	}
	if ds.gotUser != "alice" {
		t.Errorf("user = %q, want alice", ds.gotUser)
	}
	if !strings.Contains(resultText(t, res), `"Leg day"`) {
		t.Errorf("result = %s", resultText(t, res))
	}

	ds.active = nil
	res, _ = h.getActiveWorkout(WithUserID(context.Background(), "alice"), callTool(nil))
	if res.IsError || !strings.Contains(resultText(t, res), "No workout") {
		t.Errorf("result = %s", resultText(t, res))
	}
}

func TestToolsRequireUser(t *testing.T) {
	h := newHandlers(&fakeSource{})
	for name, fn := range map[string]func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error){
		"get_active_workout":  h.getActiveWorkout,
		"get_workout_history": h.getWorkoutHistory,
		"list_routines":       h.listRoutines,
	} {
		res, err := fn(context.Background(), callTool(nil))
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if !res.IsError {
			t.Errorf("%s: expected tool error without user", name)
		}
	}
}

func TestGetWorkoutHistoryTool(t *testing.T) {
	day := func(d int) *time.Time {
		ts := time.Date(2026, 3, d, 10, 0, 0, 0, time.UTC)
		return &ts
	}
	ds := &fakeSource{history: []workout.Session{
		{Name: "third", EndTime: day(5)},
		{Name: "second", EndTime: day(3)},
		{Name: "first", EndTime: day(1)},
	}}
	h := newHandlers(ds)
	ctx := WithUserID(context.Background(), "alice")

	decode := func(res *mcp.CallToolResult) []workout.Session {
		t.Helper()
		var out []workout.Session
		if err := json.Unmarshal([]byte(resultText(t, res)), &out); err != nil {
			t.Fatal(err)
		}
		return out
	}

	res, _ := h.getWorkoutHistory(ctx, callTool(nil))
	if got := decode(res); len(got) != 3 {
		t.Errorf("got %d workouts, want 3", len(got))
	}

	res, _ = h.getWorkoutHistory(ctx, callTool(map[string]any{"since": "2026-03-02"}))
	if got := decode(res); len(got) != 2 || got[1].Name != "second" {
		t.Errorf("since filter: %+v", got)
	}

	res, _ = h.getWorkoutHistory(ctx, callTool(map[string]any{"limit": float64(1)}))
	if got := decode(res); len(got) != 1 || got[0].Name != "third" {
		t.Errorf("limit: %+v", got)
	}

	res, _ = h.getWorkoutHistory(ctx, callTool(map[string]any{"since": "last week"}))
	if !res.IsError {
		t.Error("expected error for invalid since")
	}
}

func TestListRoutinesToolError(t *testing.T) {
	h := newHandlers(&fakeSource{err: errors.New("db down")})
	res, err := h.listRoutines(WithUserID(context.Background(), "alice"), callTool(nil))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Error("expected tool error when the data source fails")
	}
}

func TestRoutinesResource(t *testing.T) {
	ds := &fakeSource{routines: []workout.Session{{Name: "Push", IsRoutine: true}}}
	h := newHandlers(ds)

	var req mcp.ReadResourceRequest
	req.Params.URI = "liftlog://routines"
	contents, err := h.routines(WithUserID(context.Background(), "alice"), req)
	if err != nil {
		t.Fatal(err)
	}
	if len(contents) != 1 {
		t.Fatalf("got %d contents, want 1", len(contents))
	}
	text, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("contents[0] is %T", contents[0])
	}
	if text.URI != "liftlog://routines" || !strings.Contains(text.Text, `"Push"`) {
		t.Errorf("contents = %+v", text)
	}

	if _, err := h.routines(context.Background(), req); err == nil {
		t.Error("expected error without user")
	}
}

func TestParseFlexTime(t *testing.T) {
	got, err := parseFlexTime("2024-06-15T10:30:00Z")
	if err != nil {
		t.Fatal(err)
	}
	if got.Hour() != 10 || got.Minute() != 30 {
		t.Errorf("got %v, want 10:30", got)
	}
	if _, err := parseFlexTime("2024-01-31"); err != nil {
		t.Errorf("date-only: %v", err)
	}
	if _, err := parseFlexTime("not-a-date"); err == nil {
		t.Error("expected error for invalid date")
	}
}
