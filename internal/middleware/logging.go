package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hitoshi/kickoff/internal/model"
)

// RequestIDHeader はリクエストIDを受け渡すヘッダー名。
const RequestIDHeader = "X-Request-ID"

var (
	requestIDContextKey  = contextKey("request_id")
	requestLogContextKey = contextKey("request_log")
)

// requestLog はログミドルウェアより内側で確定する値を受け取る。
// AuthContextMiddlewareが解決したユーザーをここに書き込む。
type requestLog struct {
	user *model.User
}

func recordLogUser(ctx context.Context, user *model.User) {
	if rl, ok := ctx.Value(requestLogContextKey).(*requestLog); ok {
		rl.user = user
	}
}

// RequestIDFromContext はリクエストIDを返す。ログミドルウェアを通っていない場合は空文字。
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDContextKey).(string)
	return id
}

// requestID は受信したX-Request-IDがUUIDならそれを使い、そうでなければ新規発行する。
func requestID(r *http.Request) string {
	if v := r.Header.Get(RequestIDHeader); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			return id.String()
		}
	}
	return uuid.NewString()
}

// NewLoggingMiddleware はリクエストごとにhttp_requestログを1件出力するミドルウェアを返す。
// ログにはrequest_id、method、path、status、duration_msと、該当する場合はprocedureとuser_idを含む。
// 5xxはERROR、4xxはWARN、それ以外はINFOで出力する。
func NewLoggingMiddleware(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			id := requestID(r)
			w.Header().Set(RequestIDHeader, id)
			rl := &requestLog{}
			ctx := context.WithValue(r.Context(), requestIDContextKey, id)
			r = r.WithContext(context.WithValue(ctx, requestLogContextKey, rl))

			rec := newStatusRecorder(w)
			next.ServeHTTP(rec, r)

			args := []any{
				slog.String("request_id", id),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.statusCode),
				slog.Float64("duration_ms", float64(time.Since(start).Nanoseconds())/float64(time.Millisecond)),
			}
			// ルーティング後に確定するURLパラメータ
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if proc := rctx.URLParam("procedure"); proc != "" {
					args = append(args, slog.String("procedure", proc))
				}
			}
			user := rl.user
			if user == nil {
				user = UserFromContext(r.Context())
			}
			if user != nil {
				args = append(args, slog.Int64("user_id", user.ID))
			}

			level := slog.LevelInfo
			switch {
			case rec.statusCode >= 500:
				level = slog.LevelError
			case rec.statusCode >= 400:
				level = slog.LevelWarn
			}

			logger.Log(r.Context(), level, "http_request", args...)
		})
	}
}
