package middlewares

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"QuickBill305/api"
	"QuickBill305/internal/feeimport"
	"QuickBill305/internal/session"
	"QuickBill305/internal/validation"
)

func stubSessions(t *testing.T, sessions map[string]session.Session) {
	t.Helper()
	prev := lookupSession
	lookupSession = func(id string) (session.Session, bool) {
		s, ok := sessions[id]
		return s, ok
	}
	t.Cleanup(func() { lookupSession = prev })
}

func loaderFor(results map[string]*validation.ValidationResult) UserLoader {
	return func(_ context.Context, userID string) (*validation.ValidationResult, error) {
		if res, ok := results[userID]; ok {
			cp := *res
			return &cp, nil
		}
		return nil, validation.ErrUserNotFound
	}
}

func runMiddleware(t *testing.T, load UserLoader, req *http.Request) (*httptest.ResponseRecorder, *feeimport.ActorContext) {
	t.Helper()
	var got *feeimport.ActorContext
	h := PreValidationMiddleware(load, 1<<20)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a, ok := api.ActorFromCtx(r.Context()); ok {
			got = &a
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec, got
}

func TestPreValidationResolvesActor(t *testing.T) {
	stubSessions(t, map[string]session.Session{"s1": {ID: "s1", UserID: "u1", Role: "clerk"}})
	load := loaderFor(map[string]*validation.ValidationResult{
		"u1": {UserID: "u1", Role: "clerk", Active: true, Permissions: []string{feeimport.PermissionImport}},
	})

	req := httptest.NewRequest(http.MethodGet, "/fees/notifications", nil)
	req.Header.Set(validation.SessionHeader, "s1")
	rec, actor := runMiddleware(t, load, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body)
	}
	if actor == nil || actor.UserID != "u1" || !actor.Can(feeimport.PermissionImport) {
		t.Fatalf("actor = %+v", actor)
	}
}

func TestPreValidationRejects(t *testing.T) {
	stubSessions(t, map[string]session.Session{
		"live":     {ID: "live", UserID: "u1"},
		"orphan":   {ID: "orphan", UserID: "gone"},
		"disabled": {ID: "disabled", UserID: "u2"},
	})
	load := loaderFor(map[string]*validation.ValidationResult{
		"u1": {UserID: "u1", Active: true},
		"u2": {UserID: "u2", Active: false},
	})

	cases := []struct {
		name    string
		session string
		want    int
	}{
		{"no session", "", http.StatusUnauthorized},
		{"expired session", "stale", http.StatusUnauthorized},
		{"user deleted", "orphan", http.StatusUnauthorized},
		{"user disabled", "disabled", http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/fees/import", strings.NewReader("action=upload"))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			if tc.session != "" {
				req.Header.Set(validation.SessionHeader, tc.session)
			}
			rec, actor := runMiddleware(t, load, req)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
			if actor != nil {
				t.Fatal("handler ran")
			}
			var body map[string]interface{}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if body["success"] != false || body["error"] == "" {
				t.Fatalf("body = %v", body)
			}
		})
	}
}

func TestPreValidationStoreFailure(t *testing.T) {
	stubSessions(t, map[string]session.Session{"s1": {ID: "s1", UserID: "u1"}})
	load := func(context.Context, string) (*validation.ValidationResult, error) {
		return nil, errors.New("connection refused")
	}
	req := httptest.NewRequest(http.MethodGet, "/fees/notifications", nil)
	req.Header.Set(validation.SessionHeader, "s1")
	rec, _ := runMiddleware(t, load, req)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestAdminOverride(t *testing.T) {
	t.Setenv("ENABLE_ADMIN_OVERRIDE", "true")
	t.Setenv("ADMIN_USER_IDS", " root , ops")
	t.Setenv("ADMIN_ROLES", "Treasurer")

	byUser := &validation.ValidationResult{UserID: "ops", Active: true}
	if !applyAdminOverride(byUser) || len(byUser.Permissions) != 1 {
		t.Fatalf("user override: %+v", byUser)
	}
	byRole := &validation.ValidationResult{UserID: "u9", Role: "treasurer", Active: true}
	if !applyAdminOverride(byRole) {
		t.Fatal("role override not applied")
	}
	if applyAdminOverride(byRole) {
		t.Fatal("permission granted twice")
	}
	other := &validation.ValidationResult{UserID: "u3", Role: "clerk", Active: true}
	if applyAdminOverride(other) || len(other.Permissions) != 0 {
		t.Fatalf("clerk got override: %+v", other)
	}

	t.Setenv("ENABLE_ADMIN_OVERRIDE", "false")
	if applyAdminOverride(&validation.ValidationResult{UserID: "root"}) {
		t.Fatal("override applied while disabled")
	}
}
