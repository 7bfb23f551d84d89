// Package admin は管理画面のパスワード認証を提供する。
//
// パスワードはbcryptハッシュとしてadmin_passwordテーブルに1行で保持する。
// 行が存在しない間は設定値（ADMIN_PASSWORD、未設定ならDefaultPassword）が有効となる。
package admin

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/kickoff/internal/model"
	"github.com/hitoshi/kickoff/internal/repository"
)

const (
	// DefaultPassword は初期パスワード。本番環境では必ず変更すること。
	DefaultPassword = "admin1234"

	// MinPasswordLength は新しいパスワードの最小文字数。
	MinPasswordLength = 4
)

// Service は管理者パスワードのサービス層。
type Service struct {
	repo     repository.AdminPasswordRepository
	fallback string
	cost     int
}

// NewService はServiceを生成する。fallbackが空の場合はDefaultPasswordを使う。
func NewService(repo repository.AdminPasswordRepository, fallback string) *Service {
	if fallback == "" {
		fallback = DefaultPassword
	}
	return &Service{
		repo:     repo,
		fallback: fallback,
		cost:     bcrypt.DefaultCost,
	}
}

// UsingDefault は初期パスワードのまま運用されているかを返す。
// ハッシュが保存済みかどうかは考慮しない。
func (s *Service) UsingDefault() bool {
	return s.fallback == DefaultPassword
}

// Verify はパスワードを検証する。一致しない場合はUNAUTHORIZEDを返す。
func (s *Service) Verify(ctx context.Context, password string) error {
	ok, err := s.matches(ctx, password)
	if err != nil {
		return err
	}
	if !ok {
		return model.NewUnauthorizedError("パスワードが正しくありません。")
	}
	return nil
}

// Change は現在のパスワードを確認したうえで新しいパスワードに変更する。
func (s *Service) Change(ctx context.Context, current, next string) error {
	ok, err := s.matches(ctx, current)
	if err != nil {
		return err
	}
	if !ok {
		return model.NewUnauthorizedError("現在のパスワードが正しくありません。")
	}

	if utf8.RuneCountInString(next) < MinPasswordLength {
		return model.NewValidationError(map[string]string{
			"newPassword": fmt.Sprintf("%d文字以上で入力してください。", MinPasswordLength),
		})
	}
	if next == current {
		return model.NewBadRequestError("新しいパスワードは現在のパスワードと異なるものにしてください。")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), s.cost)
	if err != nil {
		return fmt.Errorf("パスワードのハッシュ化に失敗しました: %w", err)
	}
	if err := s.repo.SetHash(ctx, string(hash)); err != nil {
		return fmt.Errorf("パスワードの保存に失敗しました: %w", err)
	}
	return nil
}

func (s *Service) matches(ctx context.Context, password string) (bool, error) {
	hash, err := s.repo.GetHash(ctx)
	if err != nil {
		return false, fmt.Errorf("パスワードの取得に失敗しました: %w", err)
	}

	if hash == "" {
		return subtle.ConstantTimeCompare([]byte(password), []byte(s.fallback)) == 1, nil
	}

	err = bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("パスワードの照合に失敗しました: %w", err)
	}
	return true, nil
}
