// Package news はお知らせ記事のドメインロジックを提供する。
package news

import (
	"context"
	"errors"
	"fmt"

	"github.com/hitoshi/kickoff/internal/model"
	"github.com/hitoshi/kickoff/internal/repository"
	"github.com/hitoshi/kickoff/internal/security"
)

// FeedSize はRSS/Atomに含める最新記事数。
const FeedSize = 20

const resourceName = "お知らせ"

// Service はお知らせのサービス層。
type Service struct {
	repo      repository.NewsRepository
	sanitizer security.ContentSanitizer
}

// NewService はServiceを生成する。
func NewService(repo repository.NewsRepository, sanitizer security.ContentSanitizer) *Service {
	return &Service{
		repo:      repo,
		sanitizer: sanitizer,
	}
}

// List は条件に一致するお知らせを新しい順に返す。
// 学年は空または"all"で絞り込みなしとなる。
func (s *Service) List(ctx context.Context, filter model.NewsFilter) ([]*model.News, error) {
	if !model.IsGradeFilter(filter.Grade) {
		return nil, model.NewValidationError(map[string]string{"grade": "学年の指定が正しくありません。"})
	}
	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("お知らせ一覧の取得に失敗しました: %w", err)
	}
	return items, nil
}

// Latest はフィード配信用に最新のお知らせを返す。
func (s *Service) Latest(ctx context.Context) ([]*model.News, error) {
	return s.List(ctx, model.NewsFilter{Limit: FeedSize})
}

// Get は指定IDのお知らせを返す。存在しない場合はNOT_FOUNDとなる。
func (s *Service) Get(ctx context.Context, id int64) (*model.News, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("お知らせの取得に失敗しました: %w", err)
	}
	if item == nil {
		return nil, model.NewNotFoundError(resourceName, id)
	}
	return item, nil
}

// Create はお知らせを作成し、採番されたIDを返す。本文は保存前にサニタイズする。
func (s *Service) Create(ctx context.Context, in *model.NewsInput) (int64, error) {
	in.Content = s.sanitizer.Sanitize(in.Content)
	if in.Category == "" {
		in.Category = model.NewsCategoryNotice
	}
	id, err := s.repo.Create(ctx, in)
	if err != nil {
		return 0, fmt.Errorf("お知らせの作成に失敗しました: %w", err)
	}
	return id, nil
}

// Update は指定されたフィールドのみを更新する。
func (s *Service) Update(ctx context.Context, id int64, patch *model.NewsPatch) error {
	if patch.Content != nil {
		sanitized := s.sanitizer.Sanitize(*patch.Content)
		patch.Content = &sanitized
	}
	if err := s.repo.Update(ctx, id, patch); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewNotFoundError(resourceName, id)
		}
		return fmt.Errorf("お知らせの更新に失敗しました: %w", err)
	}
	return nil
}

// Delete はお知らせを削除する。
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewNotFoundError(resourceName, id)
		}
		return fmt.Errorf("お知らせの削除に失敗しました: %w", err)
	}
	return nil
}
