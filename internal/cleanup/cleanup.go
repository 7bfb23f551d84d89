// Package cleanup は投稿が削除された掲示板コメント（孤立コメント）の一括削除ジョブを提供する。
// 投稿削除時にはコメントを同時に削除しないため、このジョブで後から整理する。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// OrphanDeleter は孤立コメントを削除するインターフェース。
// repository.BbsCommentRepositoryが満たす。
type OrphanDeleter interface {
	DeleteOrphans(ctx context.Context) (int64, error)
}

// Job は孤立コメントの削除ジョブ。
// 一度だけ実行するコマンドとして設計されており、何度実行しても結果は変わらない。
type Job struct {
	comments OrphanDeleter
	logger   *slog.Logger
}

// NewJob はJobを生成する。
func NewJob(comments OrphanDeleter, logger *slog.Logger) *Job {
	if logger == nil {
		logger = slog.Default()
	}
	return &Job{
		comments: comments,
		logger:   logger,
	}
}

// Run は孤立コメントを削除し、削除件数を返す。
// 削除対象がない場合でもエラーにならない。
func (j *Job) Run(ctx context.Context) (int64, error) {
	start := time.Now()

	deleted, err := j.comments.DeleteOrphans(ctx)
	if err != nil {
		j.logger.Error("孤立コメントの削除に失敗しました",
			slog.String("error", err.Error()),
		)
		return 0, fmt.Errorf("孤立コメントの削除に失敗: %w", err)
	}

	j.logger.Info("孤立コメントの削除が完了しました",
		slog.Int64("deleted_count", deleted),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
	return deleted, nil
}
