package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tallink-tennis/fuss-tracker/internal/domain/auth"
	idgen "github.com/tallink-tennis/fuss-tracker/internal/platform/id"
)

type staticResolver map[string]auth.Session

func (s staticResolver) Resolve(_ context.Context, token string) auth.Session {
	if sess, ok := s[token]; ok {
		return sess
	}
	return auth.LoggedOut{}
}

func TestRequireSession(t *testing.T) {
	resolver := staticResolver{
		"p": auth.Player{Name: "Mari"},
		"c": auth.Coach{},
	}

	var seen auth.Session
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = sessionFromContext(r.Context())
		if tokenFromContext(r.Context()) == "" {
			t.Errorf("token missing from context")
		}
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name   string
		header string
		roles  []auth.Role
		want   int
	}{
		{name: "missing header", want: http.StatusUnauthorized},
		{name: "basic scheme", header: "Basic p", want: http.StatusUnauthorized},
		{name: "unknown token", header: "Bearer x", want: http.StatusUnauthorized},
		{name: "any role", header: "Bearer p", want: http.StatusNoContent},
		{name: "role allowed", header: "bearer c", roles: coachRoles, want: http.StatusNoContent},
		{name: "role denied", header: "Bearer p", roles: coachRoles, want: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, "/v1/x", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			RequireSession(resolver, tt.roles, next).ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("status %d want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusNoContent && seen == nil {
				t.Fatalf("next handler not reached")
			}
			if tt.want != http.StatusNoContent && seen != nil {
				t.Fatalf("next handler reached with %v", seen)
			}
		})
	}
}

func TestSessionFromContext_DefaultsToLoggedOut(t *testing.T) {
	if got := sessionFromContext(context.Background()).Role(); got != auth.RoleLoggedOut {
		t.Fatalf("expected logged out, got %s", got)
	}
}

func TestRequestID(t *testing.T) {
	var got string
	handler := RequestID(idgen.NewRandomGenerator("req_"), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = requestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if got != "abc-123" || rec.Header().Get(requestIDHeader) != "abc-123" {
		t.Fatalf("caller id not propagated: ctx=%q header=%q", got, rec.Header().Get(requestIDHeader))
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if got == "" || got == "abc-123" || rec.Header().Get(requestIDHeader) != got {
		t.Fatalf("expected a generated id, got ctx=%q header=%q", got, rec.Header().Get(requestIDHeader))
	}
}
