package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"tailscale.com/client/tailscale/apitype"
	"tailscale.com/tailcfg"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// captureUser runs mw and returns the status and the user id seen by the
// next handler.
func captureUser(t *testing.T, mw func(http.Handler) http.Handler, req *http.Request) (int, string) {
	t.Helper()
	var got string
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = userIDFromContext(r)
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec.Code, got
}

// TestDevIdentity verifies that the dev identity middleware assigns the
// configured user to every request.
func TestDevIdentity(t *testing.T) {
	code, user := captureUser(t, DevIdentity("local"), httptest.NewRequest(http.MethodGet, "/", nil))
	if code != http.StatusOK {
		t.Errorf("status = %d, want 200", code)
	}
	if user != "local" {
		t.Errorf("userID = %q, want %q", user, "local")
	}
}

// TestDevIdentityUserInfo verifies that DevIdentity stores UserInfo
// alongside the user ID.
func TestDevIdentityUserInfo(t *testing.T) {
	var gotInfo UserInfo
	handler := DevIdentity("local")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotInfo, _ = userInfoFromContext(r)
		w.WriteHeader(http.StatusOK)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if gotInfo.Login != "local" {
		t.Errorf("login = %q, want %q", gotInfo.Login, "local")
	}
	if gotInfo.DisplayName != "Local Dev User" {
		t.Errorf("displayName = %q, want %q", gotInfo.DisplayName, "Local Dev User")
	}
}

// TestUserIDFromContextDefault verifies that no identity means no user.
func TestUserIDFromContextDefault(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if id := userIDFromContext(req); id != "" {
		t.Errorf("userIDFromContext without context value = %q, want empty", id)
	}
	if _, ok := userInfoFromContext(req); ok {
		t.Error("userInfoFromContext without context value reported ok")
	}
}

// TestUserInfoFromContextSet verifies UserInfo is extracted from context when set.
func TestUserInfoFromContextSet(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = withIdentity(req, UserInfo{Login: "alice@example.com", DisplayName: "Alice"})

	info, ok := userInfoFromContext(req)
	if !ok {
		t.Fatal("userInfoFromContext reported !ok")
	}
	if info.Login != "alice@example.com" {
		t.Errorf("login = %q, want %q", info.Login, "alice@example.com")
	}
	if id := userIDFromContext(req); id != "alice@example.com" {
		t.Errorf("userID = %q, want %q", id, "alice@example.com")
	}
}

func TestMustUserIDRejectsAnonymous(t *testing.T) {
	rec := httptest.NewRecorder()
	if _, ok := mustUserID(rec, httptest.NewRequest(http.MethodGet, "/", nil)); ok {
		t.Fatal("mustUserID accepted a request without identity")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAPIKeyIdentity(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		user     string
		wantCode int
		wantUser string
	}{
		{"valid", "secret", "alice", http.StatusOK, "alice"},
		{"missing key", "", "alice", http.StatusUnauthorized, ""},
		{"wrong key", "nope", "alice", http.StatusForbidden, ""},
		{"missing user", "secret", "", http.StatusUnauthorized, ""},
		{"blank user", "secret", "   ", http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.key != "" {
				req.Header.Set("X-API-Key", tt.key)
			}
			if tt.user != "" {
				req.Header.Set("X-User-ID", tt.user)
			}
			code, user := captureUser(t, APIKeyIdentity("secret"), req)
			if code != tt.wantCode {
				t.Errorf("status = %d, want %d", code, tt.wantCode)
			}
			if user != tt.wantUser {
				t.Errorf("user = %q, want %q", user, tt.wantUser)
			}
		})
	}
}

type fakeWhoIs struct {
	resp *apitype.WhoIsResponse
	err  error
	addr string
}

func (f *fakeWhoIs) WhoIs(_ context.Context, remoteAddr string) (*apitype.WhoIsResponse, error) {
	f.addr = remoteAddr
	return f.resp, f.err
}

func TestTailscaleIdentity(t *testing.T) {
	lc := &fakeWhoIs{resp: &apitype.WhoIsResponse{
		UserProfile: &tailcfg.UserProfile{LoginName: "alice@example.com", DisplayName: "Alice"},
	}}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "100.64.0.7:51234"

	code, user := captureUser(t, TailscaleIdentity(lc, discardLogger()), req)
	if code != http.StatusOK {
		t.Errorf("status = %d, want 200", code)
	}
	if user != "alice@example.com" {
		t.Errorf("user = %q, want %q", user, "alice@example.com")
	}
	if lc.addr != "100.64.0.7:51234" {
		t.Errorf("whois addr = %q", lc.addr)
	}
}

func TestTailscaleIdentityRejects(t *testing.T) {
	tests := []struct {
		name string
		lc   *fakeWhoIs
	}{
		{"whois error", &fakeWhoIs{err: errors.New("no such peer")}},
		{"tagged node", &fakeWhoIs{resp: &apitype.WhoIsResponse{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, user := captureUser(t, TailscaleIdentity(tt.lc, discardLogger()), httptest.NewRequest(http.MethodGet, "/", nil))
			if code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", code)
			}
			if user != "" {
				t.Errorf("next handler ran with user %q", user)
			}
		})
	}
}

// TestRequestLogging verifies that the logging middleware calls the next handler and records status.
func TestRequestLogging(t *testing.T) {
	handler := RequestLogging(discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rec.Code)
	}
}

// TestCORSHeaders verifies that CORS headers are set on responses.
func TestCORSHeaders(t *testing.T) {
	handler := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("CORS origin = %q, want *", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Headers"); got != "Content-Type, X-API-Key, X-User-ID" {
		t.Errorf("CORS headers = %q", got)
	}
}

// TestCORSPreflight verifies that OPTIONS requests get 204 with CORS headers.
func TestCORSPreflight(t *testing.T) {
	handler := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler should not be called for OPTIONS")
	}))

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
}
