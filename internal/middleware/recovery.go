package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"
)

// NewRecoveryMiddleware はハンドラー内のpanicを回収し、INTERNAL_SERVER_ERRORを返すミドルウェアを生成する。
// panicの内容とスタックはログにのみ出力し、レスポンスには含めない。
// http.ErrAbortHandlerは接続中断の合図のため再度panicさせる。
func NewRecoveryMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				attrs := []any{
					slog.Any("panic", rec),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
				}
				// 内側のログミドルウェアが設定したIDはレスポンスヘッダーから拾う
				if id := w.Header().Get(RequestIDHeader); id != "" {
					attrs = append(attrs, slog.String("request_id", id))
				}
				attrs = append(attrs, slog.String("stack", string(debug.Stack())))
				slog.Error("panic recovered", attrs...)

				WriteInternalServerError(w)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
