package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/kickoff/internal/model"
)

// TestWriteErrorResponse_WritesUnifiedFormat は統一エラーフォーマットでレスポンスが書き込まれることを検証する。
func TestWriteErrorResponse_WritesUnifiedFormat(t *testing.T) {
	w := httptest.NewRecorder()

	WriteErrorResponse(w, model.NewValidationError(map[string]string{"title": "required"}))

	resp := w.Result()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want %q", ct, "application/json")
	}

	var body ErrorEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	if body.Error.Code != model.ErrCodeBadRequest {
		t.Errorf("code = %q, want %q", body.Error.Code, model.ErrCodeBadRequest)
	}
	if body.Error.Category != "validation" {
		t.Errorf("category = %q, want %q", body.Error.Category, "validation")
	}
	if body.Error.Fields["title"] != "required" {
		t.Errorf("fields = %v, want title=required", body.Error.Fields)
	}
}

// TestWriteErrorResponse_StatusFromCode はエラーコードに応じたステータスが設定されることを検証する。
func TestWriteErrorResponse_StatusFromCode(t *testing.T) {
	tests := []struct {
		name   string
		err    *model.APIError
		status int
	}{
		{"unauthorized", model.NewUnauthorizedError(""), http.StatusUnauthorized},
		{"forbidden", model.NewForbiddenError(""), http.StatusForbidden},
		{"not found", model.NewNotFoundError("投稿", 3), http.StatusNotFound},
		{"method", model.NewMethodNotSupportedError("GET", "news.create"), http.StatusMethodNotAllowed},
		{"rate limited", model.NewTooManyRequestsError(), http.StatusTooManyRequests},
		{"internal", model.NewInternalError(), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteErrorResponse(w, tt.err)
			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
		})
	}
}

// TestWriteInternalServerError_HidesDetails は内部エラーで詳細が返らないことを検証する。
func TestWriteInternalServerError_HidesDetails(t *testing.T) {
	w := httptest.NewRecorder()
	WriteInternalServerError(w)

	var body ErrorEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	if body.Error.Code != model.ErrCodeInternal {
		t.Errorf("code = %q, want %q", body.Error.Code, model.ErrCodeInternal)
	}
	if body.Error.Fields != nil {
		t.Errorf("fields should be omitted, got %v", body.Error.Fields)
	}
}
