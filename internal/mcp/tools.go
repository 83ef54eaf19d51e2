package mcp

import (
	"context"
	"time"

	"github.com/claude/liftlog/internal/workout"
	"github.com/mark3labs/mcp-go/mcp"
)

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse("2006-01-02", s)
	if err == nil {
		return t, nil
	}
	return time.Time{}, err
}

// filterHistory keeps sessions that ended at or after since, then caps the
// result at limit (0 means no cap). History arrives newest first.
func filterHistory(sessions []workout.Session, since time.Time, limit int) []workout.Session {
	out := make([]workout.Session, 0, len(sessions))
	for _, s := range sessions {
		if !since.IsZero() && (s.EndTime == nil || s.EndTime.Before(since)) {
			continue
		}
		out = append(out, s)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// --- Tool definitions ---

var toolGetActiveWorkout = mcp.NewTool("get_active_workout",
	mcp.WithDescription("Get the in-progress workout with its exercises, sets (weight, reps, target rep range, completion) and superset groups. Returns null when no workout is running."),
)

var toolGetWorkoutHistory = mcp.NewTool("get_workout_history",
	mcp.WithDescription("List finished workouts, newest first (at most 50). Each workout includes its exercises with every set performed."),
	mcp.WithString("since", mcp.Description("Only include workouts that ended on or after this date (ISO 8601 or YYYY-MM-DD).")),
	mcp.WithNumber("limit", mcp.Description("Maximum number of workouts to return.")),
)

var toolListRoutines = mcp.NewTool("list_routines",
	mcp.WithDescription("List saved routines (reusable workout templates) with their exercises, target rep ranges and superset groups."),
)

// --- Tool handlers ---

func (h *handlers) getActiveWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid, ok := UserIDFromContext(ctx)
	if !ok {
		return mcp.NewToolResultError("no authenticated user"), nil
	}

	sess, err := h.ds.GetActive(ctx, uid)
	if err != nil {
		h.log.Error("mcp get_active_workout", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if sess == nil {
		return mcp.NewToolResultText("No workout is in progress."), nil
	}

	result, err := mcp.NewToolResultJSON(sess)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getWorkoutHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid, ok := UserIDFromContext(ctx)
	if !ok {
		return mcp.NewToolResultError("no authenticated user"), nil
	}

	var since time.Time
	if s := req.GetString("since", ""); s != "" {
		t, err := parseFlexTime(s)
		if err != nil {
			return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
		}
		since = t
	}
	limit := req.GetInt("limit", 0)
	if limit < 0 {
		return mcp.NewToolResultError("limit must not be negative"), nil
	}

	sessions, err := h.ds.ListHistory(ctx, uid)
	if err != nil {
		h.log.Error("mcp get_workout_history", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(filterHistory(sessions, since, limit))
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) listRoutines(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid, ok := UserIDFromContext(ctx)
	if !ok {
		return mcp.NewToolResultError("no authenticated user"), nil
	}

	routines, err := h.ds.ListRoutines(ctx, uid)
	if err != nil {
		h.log.Error("mcp list_routines", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(routines)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
