package middleware

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/kickoff/internal/model"
)

const (
	// csrfCookieName はCSRFトークンを保持するCookieの名前。
	// フロントエンドからJavaScriptで読み取れるよう、HttpOnlyではない。
	csrfCookieName = "csrf_token"

	// csrfHeaderName はミューテーション送信時にトークンを載せるヘッダー名。
	csrfHeaderName = "X-CSRF-Token"

	// DefaultCSRFTokenTTL はCSRFトークンCookieの既定の有効期間。
	DefaultCSRFTokenTTL = 24 * time.Hour
)

// CSRFConfig はCSRFミドルウェアの設定。
type CSRFConfig struct {
	CookieSecure bool
	CookieDomain string
	TTL          time.Duration // 0の場合はDefaultCSRFTokenTTL
}

func (c CSRFConfig) cookie(token string) *http.Cookie {
	ttl := c.TTL
	if ttl <= 0 {
		ttl = DefaultCSRFTokenTTL
	}
	return &http.Cookie{
		Name:     csrfCookieName,
		Value:    token,
		Path:     "/",
		Domain:   c.CookieDomain,
		MaxAge:   int(ttl / time.Second),
		HttpOnly: false,
		Secure:   c.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}

// NewCSRFMiddleware はダブルサブミットCookie方式のCSRF検証ミドルウェアを返す。
// クエリ（GET, HEAD, OPTIONS）は検証せず、トークンCookieがなければ発行する。
// ミューテーション（POST等）はCookieとX-CSRF-Tokenヘッダーの一致を必須とし、不一致はFORBIDDENとなる。
func NewCSRFMiddleware(config CSRFConfig) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isSafeMethod(r.Method) {
				if _, err := r.Cookie(csrfCookieName); err != nil {
					http.SetCookie(w, config.cookie(generateCSRFToken()))
				}
				next.ServeHTTP(w, r)
				return
			}

			if reason := verifyCSRFToken(r); reason != "" {
				slog.Warn("CSRF validation failed",
					slog.String("reason", reason),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
				)
				WriteErrorResponse(w, model.NewForbiddenError("CSRFトークンの検証に失敗しました。"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// verifyCSRFToken は検証に失敗した理由を返す。成功時は空文字。
func verifyCSRFToken(r *http.Request) string {
	cookie, err := r.Cookie(csrfCookieName)
	if err != nil || cookie.Value == "" {
		return "missing cookie token"
	}
	header := r.Header.Get(csrfHeaderName)
	if header == "" {
		return "missing header token"
	}
	if subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(header)) != 1 {
		return "token mismatch"
	}
	return ""
}

// NewCSRFTokenHandler はCSRFトークン取得エンドポイントのハンドラーを返す。
// GET /api/csrf-token
// 既存のCSRFトークンCookieがある場合はそれを返し、なければ新規生成する。
func NewCSRFTokenHandler(config CSRFConfig) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := ""
		if cookie, err := r.Cookie(csrfCookieName); err == nil {
			token = cookie.Value
		}
		if token == "" {
			token = generateCSRFToken()
			http.SetCookie(w, config.cookie(token))
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		json.NewEncoder(w).Encode(map[string]string{"token": token})
	})
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}

// generateCSRFToken はcrypto/randから26文字のbase32トークンを生成する。
func generateCSRFToken() string {
	return rand.Text()
}
