package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/kickoff/internal/auth"
)

// --- モック定義 ---

type mockAuthenticator struct {
	handleCallbackFn func(ctx context.Context, code, state string) (string, error)
	ttl              time.Duration
}

func (m *mockAuthenticator) HandleCallback(ctx context.Context, code, state string) (string, error) {
	if m.handleCallbackFn != nil {
		return m.handleCallbackFn(ctx, code, state)
	}
	return "", nil
}

func (m *mockAuthenticator) SessionTTL() time.Duration {
	return m.ttl
}

// --- テスト ---

func TestAuthHandler_Callback_SetsCookieAndRedirects(t *testing.T) {
	svc := &mockAuthenticator{
		handleCallbackFn: func(ctx context.Context, code, state string) (string, error) {
			if code != "auth-code" || state != "c3RhdGU=" {
				t.Errorf("code=%q state=%q", code, state)
			}
			return "signed-token", nil
		},
		ttl: 24 * time.Hour,
	}
	h := NewAuthHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/oauth/callback?code=auth-code&state=c3RhdGU=", nil)
	w := httptest.NewRecorder()
	h.Callback(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusFound)
	}
	if loc := resp.Header.Get("Location"); loc != "/" {
		t.Errorf("Location = %q, want /", loc)
	}

	var session *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == auth.CookieName {
			session = c
		}
	}
	if session == nil {
		t.Fatal("session cookie should be set")
	}
	if session.Value != "signed-token" {
		t.Errorf("cookie value = %q", session.Value)
	}
	if session.MaxAge != 86400 {
		t.Errorf("MaxAge = %d, want 86400", session.MaxAge)
	}
	if !session.HttpOnly {
		t.Error("session cookie should be HttpOnly")
	}
}

func TestAuthHandler_Callback_MissingParams(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"no params", ""},
		{"code only", "?code=abc"},
		{"state only", "?state=abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			svc := &mockAuthenticator{
				handleCallbackFn: func(ctx context.Context, code, state string) (string, error) {
					called = true
					return "", nil
				},
			}
			h := NewAuthHandler(svc)

			req := httptest.NewRequest(http.MethodGet, "/api/oauth/callback"+tt.query, nil)
			w := httptest.NewRecorder()
			h.Callback(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}
			if called {
				t.Error("HandleCallback should not be called")
			}
		})
	}
}

func TestAuthHandler_Callback_Failure(t *testing.T) {
	svc := &mockAuthenticator{
		handleCallbackFn: func(ctx context.Context, code, state string) (string, error) {
			return "", errors.New("token exchange: upstream said no")
		},
	}
	h := NewAuthHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/oauth/callback?code=a&state=b", nil)
	w := httptest.NewRecorder()
	h.Callback(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["error"] != "OAuth callback failed" {
		t.Errorf("error = %q, upstream detail must not leak", body["error"])
	}
	if len(w.Result().Cookies()) != 0 {
		t.Error("no cookie should be set on failure")
	}
}
