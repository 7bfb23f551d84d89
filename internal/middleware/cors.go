package middleware

import (
	"net/http"
	"strings"
)

// corsAllowedMethods はRPCとアップロードで使うメソッドのみ。
const corsAllowedMethods = "GET, POST, OPTIONS"

// NewCORSMiddleware は許可オリジンに対するCORSミドルウェアを返す。
// allowedOriginはカンマ区切りで複数指定できる。
// リクエストのOriginが許可リストにあればそれを返し、Originがなければ先頭の許可オリジンを返す。
// credentials送信と共存するため、ワイルドカード(*)は使用しない。
func NewCORSMiddleware(allowedOrigin string) func(next http.Handler) http.Handler {
	origins := parseOrigins(allowedOrigin)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("Vary", "Origin")

			if origin, ok := matchOrigin(origins, r.Header.Get("Origin")); ok {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", corsAllowedMethods)
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+csrfHeaderName)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Set("Access-Control-Max-Age", "86400")
			}

			// OPTIONSプリフライトリクエストには204で応答
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func parseOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// matchOrigin はCORSヘッダーに載せるオリジンを決める。
// 許可リストにないOriginからのリクエストにはヘッダーを付けない。
func matchOrigin(origins []string, requestOrigin string) (string, bool) {
	if len(origins) == 0 {
		return "", false
	}
	if requestOrigin == "" {
		return origins[0], true
	}
	for _, o := range origins {
		if strings.EqualFold(o, requestOrigin) {
			return requestOrigin, true
		}
	}
	return "", false
}
