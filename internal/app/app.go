package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/time/rate"

	"github.com/hitoshi/kickoff/internal/admin"
	"github.com/hitoshi/kickoff/internal/auth"
	"github.com/hitoshi/kickoff/internal/bbs"
	"github.com/hitoshi/kickoff/internal/cleanup"
	"github.com/hitoshi/kickoff/internal/config"
	"github.com/hitoshi/kickoff/internal/contact"
	"github.com/hitoshi/kickoff/internal/database"
	"github.com/hitoshi/kickoff/internal/handler"
	"github.com/hitoshi/kickoff/internal/logger"
	"github.com/hitoshi/kickoff/internal/match"
	"github.com/hitoshi/kickoff/internal/metrics"
	"github.com/hitoshi/kickoff/internal/middleware"
	"github.com/hitoshi/kickoff/internal/news"
	"github.com/hitoshi/kickoff/internal/notification"
	"github.com/hitoshi/kickoff/internal/photo"
	"github.com/hitoshi/kickoff/internal/repository"
	"github.com/hitoshi/kickoff/internal/schedule"
	"github.com/hitoshi/kickoff/internal/security"
	"github.com/hitoshi/kickoff/internal/storage"
)

// forgeRequestTimeout はストレージ・通知サービスへのリクエストタイムアウト。
const forgeRequestTimeout = 30 * time.Second

// Init はアプリケーションの初期化を行う。
// .envファイルがあれば読み込み、JSON構造化ログをセットアップしてから環境変数の設定を読み込む。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. .envの読み込み（既存の環境変数は上書きしない）
	if err := config.LoadDotEnv(); err != nil {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	// 2. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefaultLevel(w, os.Getenv("LOG_LEVEL"))

	// 3. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "3000"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.Bool("production", cfg.Production),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	case CommandCleanup:
		return runCleanup(cfg)
	default:
		return runServe(cfg)
	}
}

// Server はワイヤリング済みのHTTPハンドラーと後始末に必要な依存をまとめる。
type Server struct {
	Handler http.Handler

	db      *database.Client
	limiter *middleware.RateLimiter
}

// Close はレートリミッタのクリーンアップを止め、DB接続を閉じる。
func (s *Server) Close() error {
	s.limiter.Stop()
	return s.db.Close()
}

// NewServer は設定から全依存関係をワイヤリングしたServerを構築する。
// DBには接続しない。接続は最初のリクエストで遅延して行う。
func NewServer(cfg *config.Config, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}

	// 1. DBクライアント（遅延接続）
	db := database.NewClient(cfg.DatabaseURL)
	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL is not set; reads return empty results and writes fail")
	}

	// 2. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	newsRepo := repository.NewPostgresNewsRepo(db)
	matchRepo := repository.NewPostgresMatchResultRepo(db)
	scheduleRepo := repository.NewPostgresScheduleRepo(db)
	photoRepo := repository.NewPostgresPhotoRepo(db)
	contactRepo := repository.NewPostgresContactRepo(db)
	postRepo := repository.NewPostgresBbsPostRepo(db)
	commentRepo := repository.NewPostgresBbsCommentRepo(db)
	adminRepo := repository.NewPostgresAdminPasswordRepo(db)

	// 3. メトリクス
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)

	// 4. 外部サービスクライアント
	forgeHTTP := &http.Client{Timeout: forgeRequestTimeout}
	uploader := storage.NewClient(forgeHTTP, cfg.ForgeAPIURL, cfg.ForgeAPIKey, log)
	notifier := notification.NewClient(forgeHTTP, cfg.ForgeAPIURL, cfg.ForgeAPIKey, log)
	sanitizer := security.NewContentSanitizer()

	// 5. 認証
	sessions := auth.NewSessions(cfg.JWTSecret, cfg.AppID)
	idp := auth.NewOAuthClient(cfg.OAuthServerURL, cfg.AppID).WithTimeout(cfg.OAuthTimeout)
	authService := auth.NewService(sessions, idp, userRepo, auth.ServiceConfig{
		OwnerOpenID: cfg.OwnerOpenID,
		SessionTTL:  cfg.SessionMaxAge,
	}, collector)

	// 6. ドメインサービス
	adminService := admin.NewService(adminRepo, cfg.AdminPassword)
	if cfg.Production && adminService.UsingDefault() {
		log.Warn("ADMIN_PASSWORD is not set; the default admin password is in use")
	}

	services := &handler.Services{
		News:     news.NewService(newsRepo, sanitizer),
		Matches:  match.NewService(matchRepo),
		Schedule: schedule.NewService(scheduleRepo),
		Photos:   photo.NewService(photoRepo, uploader, collector),
		Bbs:      bbs.NewService(postRepo, commentRepo, sanitizer),
		Contact:  contact.NewService(contactRepo, notifier, collector, log),
		Admin:    adminService,
	}

	// 7. ルーターの構築
	limiter := middleware.NewRateLimiter(rateLimiterConfig(cfg))

	router := handler.NewRouter(&handler.RouterDeps{
		UserResolver:      authService,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       limiter,
		CSRFEnabled:       cfg.CSRFEnabled,
		CSRFConfig: middleware.CSRFConfig{
			CookieSecure: cfg.CookieSecure(),
			CookieDomain: cfg.CookieDomain,
		},
		HSTS:          cfg.Production,
		Logger:        log,
		Metrics:       collector,
		Gatherer:      registry,
		Authenticator: authService,
		Services:      services,
		Uploader:      uploader,
		Sanitizer:     sanitizer,
		FeedConfig: handler.FeedConfig{
			SiteTitle:   cfg.SiteTitle,
			BaseURL:     cfg.BaseURL,
			Description: cfg.SiteDescription,
		},
		DB: db,
	})

	return &Server{
		Handler: router,
		db:      db,
		limiter: limiter,
	}
}

// rateLimiterConfig は1分あたりのリクエスト数の設定をreq/secに変換する。
func rateLimiterConfig(cfg *config.Config) middleware.RateLimiterConfig {
	rl := middleware.DefaultRateLimiterConfig()
	if cfg.RateLimitGeneral > 0 {
		rl.GeneralRate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
		rl.GeneralBurst = cfg.RateLimitGeneral
	}
	if cfg.RateLimitSubmission > 0 {
		rl.SubmissionRate = rate.Limit(float64(cfg.RateLimitSubmission) / 60.0)
		rl.SubmissionBurst = cfg.RateLimitSubmission
	}
	return rl
}

// runServe はAPIサーバーモードで起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	srv := NewServer(cfg, slog.Default())
	defer srv.Close()

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           srv.Handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server listen error: %w", err)
	case <-stop:
	}
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("migration requires DATABASE_URL")
	}

	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	v, err := database.RunMigrations(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully",
		slog.Uint64("schema_version", uint64(v.Version)),
	)
	return nil
}

// runCleanup は孤立した掲示板コメントを一度だけ削除する。
func runCleanup(cfg *config.Config) error {
	db := database.NewClient(cfg.DatabaseURL)
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	job := cleanup.NewJob(repository.NewPostgresBbsCommentRepo(db), slog.Default())
	if _, err := job.Run(ctx); err != nil {
		return fmt.Errorf("cleanup failed: %w", err)
	}
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	target := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(target)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLのパスワードをマスクする。
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	u.RawQuery = ""
	return u.Redacted()
}
