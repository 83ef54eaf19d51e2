package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/claude/liftlog/internal/workout"
	"github.com/google/uuid"
)

// newTestServer creates an httptest server that routes requests to handler functions
// keyed by path. Verifies the HTTP client sends correct paths and headers.
func newTestServer(t *testing.T, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-API-Key"); got != "k" {
			t.Errorf("X-API-Key=%q, want k", got)
		}
		if got := r.Header.Get("X-User-ID"); got != "alice" {
			t.Errorf("X-User-ID=%q, want alice", got)
		}
		h, ok := handlers[r.URL.Path]
		if !ok {
			t.Errorf("unexpected request path: %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
}

func writeTestJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Fatal(err)
	}
}

func testSession(name string) workout.Session {
	end := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return workout.Session{
		ID:     uuid.New(),
		UserID: "alice",
		Name:   name,
		Exercises: []workout.ExerciseEntry{{
			ExerciseID: workout.ResolveRef("6f1c7a52-58e4-4f0e-9a43-4d2a9f0a1b01"),
			Sets:       []workout.Set{{SetNumber: 1, Previous: "-", Kg: 80, Reps: 8}},
		}},
		SupersetGroups: []workout.SupersetGroup{},
		Status:         workout.StatusCompleted,
		EndTime:        &end,
	}
}

// TestGetActive verifies the active workout is decoded, including its
// exercise references.
func TestGetActive(t *testing.T) {
	want := testSession("Morning")
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/workouts/active": func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, want)
		},
	})
	defer ts.Close()

	sess, err := NewHTTPClient(ts.URL+"/", "k").GetActive(context.Background(), "alice")
	if err != nil {
		t.Fatal(err)
	}
	if sess == nil {
		t.Fatal("got nil session")
	}
	if sess.ID != want.ID {
		t.Errorf("id=%s, want %s", sess.ID, want.ID)
	}
	if !sess.Exercises[0].ExerciseID.IsResolved() {
		t.Error("exercise reference was not resolved")
	}
}

// TestGetActiveNone verifies a JSON null body maps to a nil session.
func TestGetActiveNone(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/workouts/active": func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, nil)
		},
	})
	defer ts.Close()

	sess, err := NewHTTPClient(ts.URL, "k").GetActive(context.Background(), "alice")
	if err != nil {
		t.Fatal(err)
	}
	if sess != nil {
		t.Errorf("got %+v, want nil", sess)
	}
}

// TestListHistoryAndRoutines verifies both list endpoints are called and decoded.
func TestListHistoryAndRoutines(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/workouts/history": func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, []workout.Session{testSession("A"), testSession("B")})
		},
		"/api/v1/routines": func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, []workout.Session{})
		},
	})
	defer ts.Close()

	client := NewHTTPClient(ts.URL, "k")
	history, err := client.ListHistory(context.Background(), "alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 2 || history[1].Name != "B" {
		t.Errorf("history = %+v", history)
	}

	routines, err := client.ListRoutines(context.Background(), "alice")
	if err != nil {
		t.Fatal(err)
	}
	if routines == nil || len(routines) != 0 {
		t.Errorf("routines = %#v, want empty slice", routines)
	}
}

// TestHTTPError verifies non-200 responses are surfaced with status and body.
func TestHTTPError(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/routines": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"invalid API key"}`, http.StatusForbidden)
		},
	})
	defer ts.Close()

	_, err := NewHTTPClient(ts.URL, "k").ListRoutines(context.Background(), "alice")
	if err == nil {
		t.Fatal("expected error for 403 response")
	}
	if !strings.Contains(err.Error(), "403") {
		t.Errorf("error = %q, want it to mention 403", err)
	}
}
