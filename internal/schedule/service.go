// Package schedule は練習・試合予定のドメインロジックを提供する。
//
// 予定は1〜5個の学年タグを持ち、保存時はカンマ区切りの文字列になる。
// 一覧の学年絞り込みは部分一致で行うため、学年タグ同士が部分文字列にならないことが前提となる。
package schedule

import (
	"context"
	"errors"
	"fmt"

	"github.com/hitoshi/kickoff/internal/model"
	"github.com/hitoshi/kickoff/internal/repository"
)

const resourceName = "スケジュール"

// Service はスケジュールのサービス層。
type Service struct {
	repo repository.ScheduleRepository
}

// NewService はServiceを生成する。
func NewService(repo repository.ScheduleRepository) *Service {
	return &Service{repo: repo}
}

// ParseGrades は入力された学年リストを検証する。
// 不正な場合はgradesフィールドの検証エラーを返す。
func ParseGrades(values []string) (model.GradeSet, error) {
	set, err := model.ParseGradeSet(values)
	if err != nil {
		return nil, model.NewValidationError(map[string]string{"grades": err.Error()})
	}
	return set, nil
}

// List は条件をすべてANDで結合し、開催日の新しい順に返す。
func (s *Service) List(ctx context.Context, filter model.ScheduleFilter) ([]*model.Schedule, error) {
	if !model.IsGradeFilter(filter.Grade) {
		return nil, model.NewValidationError(map[string]string{"grade": "学年の指定が正しくありません。"})
	}
	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		return nil, model.NewValidationError(map[string]string{"endDate": "終了日は開始日以降を指定してください。"})
	}
	schedules, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("スケジュール一覧の取得に失敗しました: %w", err)
	}
	return schedules, nil
}

// Create は予定を登録し、登録後の行を取得し直して返す。
// 登録と再取得は別の呼び出しで、トランザクションは使わない。
func (s *Service) Create(ctx context.Context, in *model.ScheduleInput) (*model.Schedule, error) {
	if len(in.Grades) == 0 {
		return nil, model.NewValidationError(map[string]string{"grades": "学年を1つ以上指定してください。"})
	}
	if in.EventType == "" {
		in.EventType = model.EventTypePractice
	}

	id, err := s.repo.Create(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("スケジュールの登録に失敗しました: %w", err)
	}

	created, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("登録したスケジュールの取得に失敗しました: %w", err)
	}
	if created == nil {
		return nil, fmt.Errorf("登録したスケジュールが見つかりません: id=%d", id)
	}
	return created, nil
}

// Update は指定されたフィールドのみを更新する。Gradesが空の場合は学年を変更しない。
func (s *Service) Update(ctx context.Context, id int64, patch *model.SchedulePatch) error {
	if err := s.repo.Update(ctx, id, patch); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewNotFoundError(resourceName, id)
		}
		return fmt.Errorf("スケジュールの更新に失敗しました: %w", err)
	}
	return nil
}

// Delete は予定を削除する。
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewNotFoundError(resourceName, id)
		}
		return fmt.Errorf("スケジュールの削除に失敗しました: %w", err)
	}
	return nil
}
