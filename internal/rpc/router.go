package rpc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/kickoff/internal/metrics"
	"github.com/hitoshi/kickoff/internal/middleware"
	"github.com/hitoshi/kickoff/internal/model"
)

// ProcedureParam はchiルートでプロシージャ名を受け取るURLパラメータ名。
const ProcedureParam = "procedure"

// MaxInputBytes はミューテーション入力の上限バイト数。
// 写真のbase64アップロードを受け付けるため大きめに取る。
const MaxInputBytes = 50 << 20

// codeOK は成功時にメトリクスへ記録するコード。
const codeOK = "OK"

// SubmissionLimiter は書き込み系プロシージャのレート制限を判定する。
// middleware.RateLimiterが満たす。
type SubmissionLimiter interface {
	AllowSubmission(r *http.Request) bool
	SubmissionRetryAfter() int
}

// Router はプロシージャ名で呼び出しを振り分けるHTTPハンドラー。
type Router struct {
	procedures map[string]Procedure
	limiter    SubmissionLimiter
	metrics    metrics.MetricsCollector
}

// NewRouter はRouterを生成する。limiterがnilの場合はレート制限を行わない。
func NewRouter(limiter SubmissionLimiter, collector metrics.MetricsCollector) *Router {
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	return &Router{
		procedures: make(map[string]Procedure),
		limiter:    limiter,
		metrics:    collector,
	}
}

// Register はプロシージャを登録する。名前の重複は設定ミスのためpanicする。
func (rt *Router) Register(procs ...Procedure) {
	for _, p := range procs {
		if _, exists := rt.procedures[p.Name()]; exists {
			panic(fmt.Sprintf("rpc: duplicate procedure %q", p.Name()))
		}
		rt.procedures[p.Name()] = p
	}
}

// Names は登録済みのプロシージャ名を昇順で返す。
func (rt *Router) Names() []string {
	names := make([]string, 0, len(rt.procedures))
	for name := range rt.procedures {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup は名前からプロシージャを取得する。
func (rt *Router) Lookup(name string) (Procedure, bool) {
	p, ok := rt.procedures[name]
	return p, ok
}

// successEnvelope は成功レスポンスの形式 {"result":{"data":...}}。
type successEnvelope struct {
	Result struct {
		Data any `json:"data"`
	} `json:"result"`
}

// ServeHTTP はプロシージャを解決し、権限判定・入力検証・本体呼び出しを行う。
// GET /api/trpc/{procedure}?input=...
// POST /api/trpc/{procedure}
func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, ProcedureParam)

	proc, ok := rt.procedures[name]
	if !ok {
		rt.metrics.RecordProcedureCall(name, model.ErrCodeNotFound)
		middleware.WriteErrorResponse(w, model.NewProcedureNotFoundError(name))
		return
	}

	if r.Method != proc.Kind().method() {
		rt.fail(w, proc, model.NewMethodNotSupportedError(r.Method, name))
		return
	}

	start := time.Now()
	defer func() {
		rt.metrics.RecordProcedureLatency(name, time.Since(start))
	}()

	user := middleware.UserFromContext(r.Context())
	if apiErr := authorize(proc.Tier(), user); apiErr != nil {
		rt.fail(w, proc, apiErr)
		return
	}

	if proc.RateLimited() && rt.limiter != nil && !rt.limiter.AllowSubmission(r) {
		slog.Warn("rate limit exceeded",
			slog.String("procedure", name),
			slog.String("client", middleware.ClientKey(r)),
		)
		rt.metrics.RecordProcedureCall(name, model.ErrCodeTooManyRequests)
		middleware.WriteRateLimitResponse(w, rt.limiter.SubmissionRetryAfter())
		return
	}

	raw, err := readInput(w, r, proc.Kind())
	if err != nil {
		rt.fail(w, proc, model.NewBadRequestError("入力の形式が正しくありません。"))
		return
	}

	call := &Call{User: user, Request: r, ResponseWriter: w}
	out, err := proc.invoke(r.Context(), call, raw)
	if err != nil {
		var apiErr *model.APIError
		if !errors.As(err, &apiErr) {
			slog.Error("procedure failed",
				slog.String("procedure", name),
				slog.String("request_id", middleware.RequestIDFromContext(r.Context())),
				slog.String("error", err.Error()),
			)
			apiErr = model.NewInternalError()
		}
		rt.fail(w, proc, apiErr)
		return
	}

	rt.metrics.RecordProcedureCall(name, codeOK)

	var env successEnvelope
	env.Result.Data = out
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		slog.Error("failed to encode procedure result",
			slog.String("procedure", name),
			slog.String("error", err.Error()),
		)
	}
}

func (rt *Router) fail(w http.ResponseWriter, proc Procedure, apiErr *model.APIError) {
	rt.metrics.RecordProcedureCall(proc.Name(), apiErr.Code)
	middleware.WriteErrorResponse(w, apiErr)
}

// authorize はTierに対してユーザーが呼び出し可能かを判定する。
// 管理者専用でユーザーがいない場合はUNAUTHORIZED、権限不足はFORBIDDENとなる。
func authorize(tier Tier, user *model.User) *model.APIError {
	switch tier {
	case TierProtected:
		if user == nil {
			return model.NewUnauthorizedError("")
		}
	case TierAdmin:
		if user == nil {
			return model.NewUnauthorizedError("")
		}
		if !user.IsAdmin() {
			return model.NewForbiddenError("")
		}
	}
	return nil
}

// readInput はクエリではinputパラメータ、ミューテーションではボディから入力JSONを取り出す。
// {"json": ...} で包まれた入力は中身を取り出す。
func readInput(w http.ResponseWriter, r *http.Request, kind Kind) (json.RawMessage, error) {
	var raw []byte
	if kind == KindQuery {
		raw = []byte(r.URL.Query().Get("input"))
	} else {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxInputBytes))
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		raw = body
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil
	}
	if !json.Valid(raw) {
		return nil, errors.New("input is not valid JSON")
	}
	return unwrapJSON(raw), nil
}

// unwrapJSON は {"json": X} または {"json": X, "meta": ...} の形式ならXを返す。
func unwrapJSON(raw json.RawMessage) json.RawMessage {
	if raw[0] != '{' {
		return raw
	}
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return raw
	}
	inner, ok := wrapper["json"]
	if !ok {
		return raw
	}
	for key := range wrapper {
		if key != "json" && key != "meta" {
			return raw
		}
	}
	return inner
}
