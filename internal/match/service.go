// Package match は試合結果と戦績集計のドメインロジックを提供する。
package match

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/hitoshi/kickoff/internal/model"
	"github.com/hitoshi/kickoff/internal/repository"
)

const resourceName = "試合結果"

// Service は試合結果のサービス層。
type Service struct {
	repo repository.MatchResultRepository
}

// NewService はServiceを生成する。
func NewService(repo repository.MatchResultRepository) *Service {
	return &Service{repo: repo}
}

// List は条件に一致する試合結果を試合日の新しい順に返す。
func (s *Service) List(ctx context.Context, filter model.MatchResultFilter) ([]*model.MatchResult, error) {
	if !model.IsGradeFilter(filter.Grade) {
		return nil, model.NewValidationError(map[string]string{"grade": "学年の指定が正しくありません。"})
	}
	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		return nil, model.NewValidationError(map[string]string{"endDate": "終了日は開始日以降を指定してください。"})
	}
	results, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("試合結果一覧の取得に失敗しました: %w", err)
	}
	return results, nil
}

// Create は試合結果を登録し、採番されたIDを返す。
func (s *Service) Create(ctx context.Context, in *model.MatchResultInput) (int64, error) {
	if in.MatchType == "" {
		in.MatchType = model.MatchTypeOfficial
	}
	id, err := s.repo.Create(ctx, in)
	if err != nil {
		return 0, fmt.Errorf("試合結果の登録に失敗しました: %w", err)
	}
	return id, nil
}

// Update は指定されたフィールドのみを更新する。
func (s *Service) Update(ctx context.Context, id int64, patch *model.MatchResultPatch) error {
	if err := s.repo.Update(ctx, id, patch); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewNotFoundError(resourceName, id)
		}
		return fmt.Errorf("試合結果の更新に失敗しました: %w", err)
	}
	return nil
}

// Delete は試合結果を削除する。
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewNotFoundError(resourceName, id)
		}
		return fmt.Errorf("試合結果の削除に失敗しました: %w", err)
	}
	return nil
}

// Statistics は戦績を集計する。gradeが空または"all"の場合は全学年を対象とする。
func (s *Service) Statistics(ctx context.Context, grade string) (*model.MatchStatistics, error) {
	results, err := s.List(ctx, model.MatchResultFilter{Grade: grade})
	if err != nil {
		return nil, err
	}
	return Summarize(results), nil
}

// Summarize は試合結果の一覧から戦績を算出する。
// 勝率は勝利数÷試合数のパーセンテージを小数第1位で丸めた値で、試合がない場合は0。
func Summarize(results []*model.MatchResult) *model.MatchStatistics {
	stats := &model.MatchStatistics{}
	for _, r := range results {
		stats.Total++
		stats.GoalsFor += r.OurScore
		stats.GoalsAgainst += r.OpponentScore
		switch r.Outcome() {
		case "win":
			stats.Wins++
		case "loss":
			stats.Losses++
		default:
			stats.Draws++
		}
	}
	if stats.Total > 0 {
		rate := float64(stats.Wins) / float64(stats.Total) * 100
		stats.WinRate = math.Round(rate*10) / 10
	}
	return stats
}
