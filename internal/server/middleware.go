package server

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/claude/liftlog/internal/apperr"
	"tailscale.com/client/tailscale/apitype"
)

type ctxKey int

const (
	userIDKey ctxKey = iota
	userInfoKey
)

// UserInfo describes the caller as shown by /api/v1/me.
type UserInfo struct {
	Login       string `json:"login"`
	DisplayName string `json:"display_name"`
}

// withIdentity stores the caller in the request context. The login doubles
// as the owner id of every workout row.
func withIdentity(r *http.Request, info UserInfo) *http.Request {
	ctx := context.WithValue(r.Context(), userIDKey, info.Login)
	ctx = context.WithValue(ctx, userInfoKey, info)
	return r.WithContext(ctx)
}

// userIDFromContext returns the caller set by an identity middleware, or ""
// when none ran.
func userIDFromContext(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}

// userInfoFromContext returns the caller's UserInfo, falling back to the
// login alone when only the id is known.
func userInfoFromContext(r *http.Request) (UserInfo, bool) {
	if info, ok := r.Context().Value(userInfoKey).(UserInfo); ok {
		return info, true
	}
	if id := userIDFromContext(r); id != "" {
		return UserInfo{Login: id, DisplayName: id}, true
	}
	return UserInfo{}, false
}

// mustUserID returns the caller id or writes a 401 and returns false.
func mustUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := userIDFromContext(r)
	if id == "" {
		writeJSON(w, http.StatusUnauthorized, apperr.Unauthorized("authentication required").ToResponse())
		return "", false
	}
	return id, true
}

// DevIdentity returns middleware that treats every request as coming from
// user. Intended for local development without Tailscale.
func DevIdentity(user string) func(http.Handler) http.Handler {
	info := UserInfo{Login: user, DisplayName: "Local Dev User"}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, withIdentity(r, info))
		})
	}
}

// APIKeyIdentity returns middleware that validates the X-API-Key header and
// takes the caller from X-User-ID. A trusted client (such as the MCP bridge)
// acts on behalf of the user it names.
func APIKeyIdentity(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-API-Key")
			if key == "" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing API key"})
				return
			}
			if key != apiKey {
				writeJSON(w, http.StatusForbidden, map[string]string{"error": "invalid API key"})
				return
			}
			user := strings.TrimSpace(r.Header.Get("X-User-ID"))
			if user == "" {
				writeJSON(w, http.StatusUnauthorized, apperr.Unauthorized("missing X-User-ID header").ToResponse())
				return
			}
			next.ServeHTTP(w, withIdentity(r, UserInfo{Login: user, DisplayName: user}))
		})
	}
}

// whoIser resolves a tailnet peer address to its owner. Satisfied by
// *local.Client from tsnet.
type whoIser interface {
	WhoIs(ctx context.Context, remoteAddr string) (*apitype.WhoIsResponse, error)
}

// TailscaleIdentity returns middleware that identifies callers by their
// Tailscale login. Requests from unknown peers or tagged nodes without a
// user profile are rejected.
func TailscaleIdentity(lc whoIser, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			who, err := lc.WhoIs(r.Context(), r.RemoteAddr)
			if err != nil {
				log.Warn("tailscale whois failed", "remote", r.RemoteAddr, "error", err)
				writeJSON(w, http.StatusUnauthorized, apperr.Unauthorized("unknown tailnet peer").ToResponse())
				return
			}
			if who.UserProfile == nil || who.UserProfile.LoginName == "" {
				writeJSON(w, http.StatusUnauthorized, apperr.Unauthorized("peer has no user identity").ToResponse())
				return
			}
			info := UserInfo{Login: who.UserProfile.LoginName, DisplayName: who.UserProfile.DisplayName}
			if info.DisplayName == "" {
				info.DisplayName = info.Login
			}
			next.ServeHTTP(w, withIdentity(r, info))
		})
	}
}

// RequestLogging returns middleware that logs each request.
func RequestLogging(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			log.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.status,
				"duration", time.Since(start).String(),
			)
		})
	}
}

// CORS adds permissive CORS headers for local development.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-API-Key, X-User-ID")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusWriter wraps ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
