// Package handler はHTTPハンドラーとプロシージャ定義を提供する。
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hitoshi/kickoff/internal/auth"
)

// AuthHandler はOAuthコールバックのHTTPハンドラー。
type AuthHandler struct {
	service Authenticator
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service Authenticator) *AuthHandler {
	return &AuthHandler{service: service}
}

// Callback はOAuthコールバックを処理する。
// GET /api/oauth/callback?code=xxx&state=yyy
//
// stateはIdP側で検証されるリダイレクトURIのため、ここでは存在のみ確認する。
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" || state == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "code and state are required",
		})
		return
	}

	token, err := h.service.HandleCallback(r.Context(), code, state)
	if err != nil {
		slog.Error("oauth callback failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "OAuth callback failed",
		})
		return
	}

	http.SetCookie(w, auth.SessionCookie(r, token, h.service.SessionTTL()))
	http.Redirect(w, r, "/", http.StatusFound)
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}
