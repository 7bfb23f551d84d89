// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"net/http"

	"github.com/hitoshi/kickoff/internal/auth"
	"github.com/hitoshi/kickoff/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// userContextKey はリクエストコンテキストに認証済みユーザーを格納するためのキー。
var userContextKey = contextKey("user")

// UserResolver はリクエストから認証結果を得るインターフェース。
// auth.Serviceが満たす。
type UserResolver interface {
	Resolve(ctx context.Context, r *http.Request) auth.Result
}

// NewAuthContextMiddleware はセッションCookieからユーザーを解決し、
// リクエストコンテキストに注入するミドルウェアを返す。
// 認証に失敗してもリクエストは拒否せず、ユーザーなしで処理を継続する。
// 認可は各プロシージャの権限レベルで判定する。
func NewAuthContextMiddleware(resolver UserResolver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := resolver.Resolve(r.Context(), r).Optional()
			if user == nil {
				next.ServeHTTP(w, r)
				return
			}
			recordLogUser(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
		})
	}
}

// UserFromContext はリクエストコンテキストから認証済みユーザーを取得する。
// 未認証の場合はnilを返す。
func UserFromContext(ctx context.Context) *model.User {
	user, _ := ctx.Value(userContextKey).(*model.User)
	return user
}

// ContextWithUser はコンテキストにユーザーを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}
