package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// CookieName はセッショントークンを保持するCookie名。
	CookieName = "app_session_id"

	// DefaultSessionTTL はセッショントークンのデフォルト有効期間（1年）。
	DefaultSessionTTL = 365 * 24 * time.Hour
)

// SessionPayload はセッショントークンから取り出したユーザー識別情報。
type SessionPayload struct {
	OpenID string
	AppID  string
	Name   string
}

// SessionOptions はセッショントークン発行時のオプション。
type SessionOptions struct {
	Name string
	TTL  time.Duration // 0の場合はDefaultSessionTTL
}

// Sessions はHS256署名のセッショントークンを発行・検証する。
type Sessions struct {
	secret []byte
	appID  string
	now    func() time.Time
}

// NewSessions はSessionsを生成する。
func NewSessions(secret, appID string) *Sessions {
	return &Sessions{
		secret: []byte(secret),
		appID:  appID,
		now:    time.Now,
	}
}

// CreateSessionToken はOpenIDに対するセッショントークンを発行する。
func (s *Sessions) CreateSessionToken(openID string, opts SessionOptions) (string, error) {
	if openID == "" {
		return "", errors.New("open id is required")
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	now := s.now()
	claims := jwt.MapClaims{
		"sub":    openID,
		"openId": openID,
		"appId":  s.appID,
		"name":   opts.Name,
		"iat":    now.Unix(),
		"exp":    now.Add(ttl).Unix(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return token, nil
}

// VerifySession はセッショントークンを検証し、ペイロードを返す。
// 署名不正、アルゴリズム不一致、期限切れ、必須クレーム欠落の場合はnilを返す。
// 失敗理由はログにのみ出力する。
func (s *Sessions) VerifySession(tokenString string) *SessionPayload {
	if tokenString == "" {
		return nil
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		slog.Warn("session verification failed", slog.String("error", errString(err)))
		return nil
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		slog.Warn("session verification failed", slog.String("error", "unexpected claims type"))
		return nil
	}

	openID, _ := claims["openId"].(string)
	appID, _ := claims["appId"].(string)
	name, _ := claims["name"].(string)
	if openID == "" || appID == "" {
		slog.Warn("session payload missing required fields")
		return nil
	}

	return &SessionPayload{OpenID: openID, AppID: appID, Name: name}
}

func errString(err error) string {
	if err == nil {
		return "invalid token"
	}
	return err.Error()
}

// isSecureRequest はTLS終端またはプロキシ経由のHTTPSリクエストかを判定する。
func isSecureRequest(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	for _, proto := range r.Header.Values("X-Forwarded-Proto") {
		if strings.Contains(strings.ToLower(proto), "https") {
			return true
		}
	}
	return false
}

// SessionCookie はセッションCookieを生成する。
func SessionCookie(r *http.Request, token string, maxAge time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteNoneMode,
	}
}

// ClearSessionCookie はセッションCookieを削除するCookieを生成する。
func ClearSessionCookie(r *http.Request) *http.Cookie {
	c := SessionCookie(r, "", 0)
	c.MaxAge = -1
	return c
}
