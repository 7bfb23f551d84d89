package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/kickoff/internal/metrics"
	"github.com/hitoshi/kickoff/internal/middleware"
	"github.com/hitoshi/kickoff/internal/rpc"
	"github.com/hitoshi/kickoff/internal/security"
	"github.com/hitoshi/kickoff/internal/storage"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	UserResolver      middleware.UserResolver
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter // 必須
	CSRFEnabled       bool
	CSRFConfig        middleware.CSRFConfig
	HSTS              bool

	// ログ・メトリクス
	Logger   *slog.Logger
	Metrics  metrics.MetricsCollector
	Gatherer prometheus.Gatherer

	// 認証（OAuthコールバック）
	Authenticator Authenticator

	// プロシージャ本体
	Services *Services

	// 補助エンドポイント
	Uploader   storage.Uploader
	Sanitizer  security.ContentSanitizer
	FeedConfig FeedConfig
	DB         Pinger
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Metrics → Logging → AuthContext → RateLimit(General) [→ CSRF]
//
// /health と /metrics はミドルウェアチェーンの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	collector := deps.Metrics
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware(deps.HSTS))

	healthHandler := NewHealthHandler(deps.DB)
	r.Get("/health", healthHandler.Health)
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	authHandler := NewAuthHandler(deps.Authenticator)
	uploadHandler := NewUploadHandler(deps.Uploader, collector)
	feedHandler := NewFeedHandler(deps.Services.News, deps.Sanitizer, deps.FeedConfig)

	procedures := rpc.NewRouter(deps.RateLimiter, collector)
	procedures.Register(Procedures(deps.Services)...)

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
		r.Use(middleware.NewMetricsMiddleware(collector))
		r.Use(middleware.NewLoggingMiddleware(logger))
		r.Use(middleware.NewAuthContextMiddleware(deps.UserResolver))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// OAuthコールバックはIdPからのリダイレクトのためCSRF検証の対象外
		r.Get("/api/oauth/callback", authHandler.Callback)
		r.Get("/api/rss", feedHandler.RSS)
		r.Get("/api/atom", feedHandler.Atom)

		if deps.CSRFEnabled {
			r.Method(http.MethodGet, "/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig))
		}

		r.Group(func(r chi.Router) {
			if deps.CSRFEnabled {
				r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))
			}

			r.Post("/api/upload", uploadHandler.Upload)
			r.Handle("/api/trpc/{"+rpc.ProcedureParam+"}", procedures)
		})
	})

	return r
}
