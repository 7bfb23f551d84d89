// Package repository はデータ永続化のインターフェースとPostgreSQL実装を提供する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/kickoff/internal/model"
)

// ErrNotFound は更新・削除対象の行が存在しないことを示す。
var ErrNotFound = errors.New("record not found")

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByOpenID はOpenIDでユーザーを検索する。見つからない場合はnilを返す。
	// 結果が書き込みの判断に使われるため、ストア不在はエラーとして返す。
	FindByOpenID(ctx context.Context, openID string) (*model.User, error)

	// Upsert はOpenIDをキーにユーザーを作成または更新する。
	// nilのフィールドは既存の値を維持する。
	Upsert(ctx context.Context, u *model.UserUpsert) error
}

// NewsRepository はお知らせの永続化インターフェース。
type NewsRepository interface {
	List(ctx context.Context, filter model.NewsFilter) ([]*model.News, error)
	// FindByID は指定IDのお知らせを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.News, error)
	Create(ctx context.Context, in *model.NewsInput) (int64, error)
	Update(ctx context.Context, id int64, patch *model.NewsPatch) error
	Delete(ctx context.Context, id int64) error
}

// MatchResultRepository は試合結果の永続化インターフェース。
type MatchResultRepository interface {
	List(ctx context.Context, filter model.MatchResultFilter) ([]*model.MatchResult, error)
	FindByID(ctx context.Context, id int64) (*model.MatchResult, error)
	Create(ctx context.Context, in *model.MatchResultInput) (int64, error)
	Update(ctx context.Context, id int64, patch *model.MatchResultPatch) error
	Delete(ctx context.Context, id int64) error
}

// ScheduleRepository はスケジュールの永続化インターフェース。
type ScheduleRepository interface {
	// List はフィルタ条件をすべてANDで結合し、開催日の新しい順に返す。
	List(ctx context.Context, filter model.ScheduleFilter) ([]*model.Schedule, error)
	FindByID(ctx context.Context, id int64) (*model.Schedule, error)
	Create(ctx context.Context, in *model.ScheduleInput) (int64, error)
	Update(ctx context.Context, id int64, patch *model.SchedulePatch) error
	Delete(ctx context.Context, id int64) error
}

// PhotoRepository は写真の永続化インターフェース。
type PhotoRepository interface {
	List(ctx context.Context, filter model.PhotoFilter) ([]*model.Photo, error)
	FindByID(ctx context.Context, id int64) (*model.Photo, error)
	Create(ctx context.Context, photo *model.Photo) (int64, error)
	Delete(ctx context.Context, id int64) error
}

// ContactRepository はお問い合わせの永続化インターフェース。
type ContactRepository interface {
	List(ctx context.Context) ([]*model.Contact, error)
	Create(ctx context.Context, contact *model.Contact) (int64, error)
}

// BbsPostRepository は掲示板投稿の永続化インターフェース。
type BbsPostRepository interface {
	List(ctx context.Context) ([]*model.BbsPost, error)
	FindByID(ctx context.Context, id int64) (*model.BbsPost, error)
	// ListStrict とFindByIDStrict は書き込み前の存在確認用。ストア不在を空の結果にせずエラーで返す。
	ListStrict(ctx context.Context) ([]*model.BbsPost, error)
	FindByIDStrict(ctx context.Context, id int64) (*model.BbsPost, error)
	Create(ctx context.Context, post *model.BbsPost) (int64, error)
	// Delete は投稿のみを削除する。コメントは残り、孤立コメントとして別途削除される。
	Delete(ctx context.Context, id int64) error
}

// BbsCommentRepository は掲示板コメントの永続化インターフェース。
type BbsCommentRepository interface {
	List(ctx context.Context) ([]*model.BbsComment, error)
	// ListStrict は削除前の存在確認用。ストア不在をエラーで返す。
	ListStrict(ctx context.Context) ([]*model.BbsComment, error)
	ListByPost(ctx context.Context, postID int64) ([]*model.BbsComment, error)
	Create(ctx context.Context, comment *model.BbsComment) (int64, error)
	Delete(ctx context.Context, id int64) error
	// DeleteOrphans は存在しない投稿を参照するコメントを削除し、削除件数を返す。
	DeleteOrphans(ctx context.Context) (int64, error)
}

// AdminPasswordRepository は管理者パスワードハッシュの永続化インターフェース。
type AdminPasswordRepository interface {
	// GetHash は保存済みのハッシュを返す。未設定の場合は空文字を返す。
	GetHash(ctx context.Context) (string, error)
	// SetHash はハッシュを保存する（常に1行のみ）。
	SetHash(ctx context.Context, hash string) error
}
