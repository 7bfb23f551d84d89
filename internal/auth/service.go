// Package auth はセッショントークン、OAuthコールバック、リクエスト認証を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/kickoff/internal/metrics"
	"github.com/hitoshi/kickoff/internal/model"
	"github.com/hitoshi/kickoff/internal/repository"
)

var (
	// ErrInvalidSession はセッションCookieが存在しないか検証に失敗したことを示す。
	ErrInvalidSession = errors.New("invalid session cookie")

	// ErrUserSync は初回認証時のIdPからのユーザー同期に失敗したことを示す。
	ErrUserSync = errors.New("failed to sync user info")
)

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	OwnerOpenID string
	SessionTTL  time.Duration // 0の場合はDefaultSessionTTL
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	sessions *Sessions
	idp      IdentityProvider
	userRepo repository.UserRepository
	config   ServiceConfig
	metrics  metrics.MetricsCollector
	now      func() time.Time
}

// NewService はServiceを生成する。collectorがnilの場合はメトリクスを記録しない。
func NewService(
	sessions *Sessions,
	idp IdentityProvider,
	userRepo repository.UserRepository,
	config ServiceConfig,
	collector metrics.MetricsCollector,
) *Service {
	if config.SessionTTL <= 0 {
		config.SessionTTL = DefaultSessionTTL
	}
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	return &Service{
		sessions: sessions,
		idp:      idp,
		userRepo: userRepo,
		config:   config,
		metrics:  collector,
		now:      time.Now,
	}
}

// SessionTTL はセッションCookieの有効期間を返す。
func (s *Service) SessionTTL() time.Duration {
	return s.config.SessionTTL
}

// Result はリクエスト認証の結果を表す。
type Result struct {
	User *model.User
	Err  error
}

// Optional は認証結果を任意のユーザーに変換する。失敗時はnilを返す。
func (r Result) Optional() *model.User {
	if r.Err != nil {
		return nil
	}
	return r.User
}

// Resolve はリクエストを認証し、結果を返す。
// 未認証リクエストも処理を継続できるよう、エラーは結果に保持して返す。
func (s *Service) Resolve(ctx context.Context, r *http.Request) Result {
	user, err := s.AuthenticateRequest(ctx, r)
	switch {
	case err == nil:
		s.metrics.RecordAuthOutcome(metrics.AuthOutcomeAuthenticated)
	case errors.Is(err, ErrInvalidSession):
		if _, cookieErr := r.Cookie(CookieName); cookieErr != nil {
			s.metrics.RecordAuthOutcome(metrics.AuthOutcomeAnonymous)
		} else {
			s.metrics.RecordAuthOutcome(metrics.AuthOutcomeInvalid)
		}
	case errors.Is(err, ErrUserSync):
		s.metrics.RecordAuthOutcome(metrics.AuthOutcomeSyncFailed)
		slog.Warn("user sync failed during authentication", slog.String("error", err.Error()))
	default:
		s.metrics.RecordAuthOutcome(metrics.AuthOutcomeError)
		slog.Error("request authentication failed", slog.String("error", err.Error()))
	}
	return Result{User: user, Err: err}
}

// AuthenticateRequest はセッションCookieからユーザーを特定する。
//
//  1. Cookieを検証する
//  2. OpenIDでユーザーを検索する
//  3. 未登録ならIdPからプロフィールを取得して登録する（失敗時はErrUserSync）
//  4. 最終ログイン日時を更新する
//  5. 最新のユーザーを読み直して返す
func (s *Service) AuthenticateRequest(ctx context.Context, r *http.Request) (*model.User, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return nil, ErrInvalidSession
	}

	session := s.sessions.VerifySession(cookie.Value)
	if session == nil {
		return nil, ErrInvalidSession
	}

	user, err := s.userRepo.FindByOpenID(ctx, session.OpenID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	now := s.now()

	if user == nil {
		info, err := s.idp.GetUserInfoWithJWT(ctx, cookie.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUserSync, err)
		}
		if err := s.upsertFromUserInfo(ctx, info, now); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUserSync, err)
		}
	} else {
		if err := s.userRepo.Upsert(ctx, &model.UserUpsert{
			OpenID:       session.OpenID,
			Role:         s.roleFor(session.OpenID),
			LastSignedIn: &now,
		}); err != nil {
			return nil, fmt.Errorf("failed to update last signed in: %w", err)
		}
	}

	user, err = s.userRepo.FindByOpenID(ctx, session.OpenID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user not found after upsert", ErrUserSync)
	}
	return user, nil
}

// HandleCallback はOAuthコールバックを処理し、セッショントークンを発行する。
// stateはbase64エンコードされたリダイレクトURI。
func (s *Service) HandleCallback(ctx context.Context, code, state string) (string, error) {
	tokenResp, err := s.idp.ExchangeCode(ctx, code, state)
	if err != nil {
		return "", fmt.Errorf("failed to exchange code: %w", err)
	}

	info, err := s.idp.GetUserInfo(ctx, tokenResp.AccessToken)
	if err != nil {
		return "", fmt.Errorf("failed to get user info: %w", err)
	}

	if err := s.upsertFromUserInfo(ctx, info, s.now()); err != nil {
		return "", fmt.Errorf("failed to upsert user: %w", err)
	}

	token, err := s.sessions.CreateSessionToken(info.OpenID, SessionOptions{
		Name: info.Name,
		TTL:  s.config.SessionTTL,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create session token: %w", err)
	}

	slog.Info("user signed in via oauth",
		slog.String("open_id", info.OpenID),
		slog.String("login_method", DeriveLoginMethod(info)),
	)
	return token, nil
}

func (s *Service) upsertFromUserInfo(ctx context.Context, info *UserInfo, now time.Time) error {
	name := info.Name
	email := info.Email
	loginMethod := DeriveLoginMethod(info)

	return s.userRepo.Upsert(ctx, &model.UserUpsert{
		OpenID:       info.OpenID,
		Name:         &name,
		Email:        &email,
		LoginMethod:  &loginMethod,
		Role:         s.roleFor(info.OpenID),
		LastSignedIn: &now,
	})
}

// roleFor はオーナーのOpenIDの場合に管理者ロールを返す。それ以外は既存ロールを維持する。
func (s *Service) roleFor(openID string) *model.Role {
	if s.config.OwnerOpenID != "" && openID == s.config.OwnerOpenID {
		role := model.RoleAdmin
		return &role
	}
	return nil
}
