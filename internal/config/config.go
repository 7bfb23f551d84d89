package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Application
	AppID      string
	Production bool

	// Session
	JWTSecret     string
	SessionMaxAge time.Duration

	// Database（未設定の場合、読み取りは空の結果、書き込みはエラーとなる）
	DatabaseURL string

	// OAuth
	OAuthServerURL string
	OAuthTimeout   time.Duration
	OwnerOpenID    string

	// Forge API（ストレージ・オーナー通知）
	ForgeAPIURL string
	ForgeAPIKey string

	// Admin
	AdminPassword string

	// Rate Limit（1分あたりのリクエスト数）
	RateLimitGeneral    int
	RateLimitSubmission int

	// Server
	ServerPort string
	BaseURL    string

	// Feed
	SiteTitle       string
	SiteDescription string

	// CORS / CSRF
	CORSAllowedOrigin string
	CSRFEnabled       bool
	CookieDomain      string

	// Logging
	LogLevel string
}

const (
	defaultSiteTitle       = "キックオフFC"
	defaultSiteDescription = "キックオフFCからのお知らせ"
)

// LoadDotEnv は存在する.envファイルを読み込む。
// 既に設定されている環境変数は上書きしない。ファイルが無い場合は何もしない。
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.AppID = os.Getenv("VITE_APP_ID")
	if cfg.AppID == "" {
		missing = append(missing, "VITE_APP_ID")
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.Production = getEnvString("NODE_ENV", "") == "production" || getEnvString("APP_ENV", "") == "production"
	cfg.SessionMaxAge = time.Duration(getEnvInt("SESSION_MAX_AGE", int((365*24*time.Hour)/time.Second))) * time.Second
	cfg.DatabaseURL = getEnvString("DATABASE_URL", "")
	cfg.OAuthServerURL = getEnvString("OAUTH_SERVER_URL", "")
	cfg.OAuthTimeout = getEnvDuration("OAUTH_TIMEOUT", 30*time.Second)
	cfg.OwnerOpenID = getEnvString("OWNER_OPEN_ID", "")
	cfg.ForgeAPIURL = strings.TrimRight(getEnvString("BUILT_IN_FORGE_API_URL", ""), "/")
	cfg.ForgeAPIKey = getEnvString("BUILT_IN_FORGE_API_KEY", "")
	cfg.AdminPassword = getEnvString("ADMIN_PASSWORD", "")
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitSubmission = getEnvInt("RATE_LIMIT_SUBMISSION", 5)
	cfg.ServerPort = getEnvString("SERVER_PORT", "3000")
	cfg.BaseURL = strings.TrimRight(getEnvString("BASE_URL", "http://localhost:3000"), "/")
	cfg.SiteTitle = getEnvString("SITE_TITLE", defaultSiteTitle)
	cfg.SiteDescription = getEnvString("SITE_DESCRIPTION", defaultSiteDescription)
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:5173")
	cfg.CSRFEnabled = getEnvBool("CSRF_ENABLED", cfg.Production)
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")

	return cfg, nil
}

// CookieSecure はCookieにSecure属性を付けるべきかを返す。
func (c *Config) CookieSecure() bool {
	return strings.HasPrefix(c.BaseURL, "https://")
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
