package handler

import (
	"context"
	"time"

	"github.com/hitoshi/kickoff/internal/admin"
	"github.com/hitoshi/kickoff/internal/auth"
	"github.com/hitoshi/kickoff/internal/bbs"
	"github.com/hitoshi/kickoff/internal/contact"
	"github.com/hitoshi/kickoff/internal/match"
	"github.com/hitoshi/kickoff/internal/model"
	"github.com/hitoshi/kickoff/internal/news"
	"github.com/hitoshi/kickoff/internal/photo"
	"github.com/hitoshi/kickoff/internal/schedule"
)

// NewsService はお知らせプロシージャが必要とするサービスインターフェース。
type NewsService interface {
	List(ctx context.Context, filter model.NewsFilter) ([]*model.News, error)
	Latest(ctx context.Context) ([]*model.News, error)
	Get(ctx context.Context, id int64) (*model.News, error)
	Create(ctx context.Context, in *model.NewsInput) (int64, error)
	Update(ctx context.Context, id int64, patch *model.NewsPatch) error
	Delete(ctx context.Context, id int64) error
}

// MatchService は試合結果プロシージャが必要とするサービスインターフェース。
type MatchService interface {
	List(ctx context.Context, filter model.MatchResultFilter) ([]*model.MatchResult, error)
	Create(ctx context.Context, in *model.MatchResultInput) (int64, error)
	Update(ctx context.Context, id int64, patch *model.MatchResultPatch) error
	Delete(ctx context.Context, id int64) error
	Statistics(ctx context.Context, grade string) (*model.MatchStatistics, error)
}

// ScheduleService はスケジュールプロシージャが必要とするサービスインターフェース。
type ScheduleService interface {
	List(ctx context.Context, filter model.ScheduleFilter) ([]*model.Schedule, error)
	Create(ctx context.Context, in *model.ScheduleInput) (*model.Schedule, error)
	Update(ctx context.Context, id int64, patch *model.SchedulePatch) error
	Delete(ctx context.Context, id int64) error
}

// PhotoService は写真プロシージャが必要とするサービスインターフェース。
type PhotoService interface {
	List(ctx context.Context, filter model.PhotoFilter) ([]*model.Photo, error)
	Get(ctx context.Context, id int64) (*model.Photo, error)
	Upload(ctx context.Context, in *photo.UploadInput) (*model.Photo, error)
	Delete(ctx context.Context, id int64) error
}

// BbsService は掲示板プロシージャが必要とするサービスインターフェース。
type BbsService interface {
	ListPosts(ctx context.Context) ([]*model.BbsPost, error)
	CreatePost(ctx context.Context, user *model.User, title, content string) (*model.BbsPost, error)
	DeletePost(ctx context.Context, user *model.User, id int64) error
	ListComments(ctx context.Context, postID int64) ([]*model.BbsComment, error)
	CreateComment(ctx context.Context, user *model.User, postID int64, content string) (*model.BbsComment, error)
	DeleteComment(ctx context.Context, user *model.User, id int64) error
}

// ContactService はお問い合わせプロシージャが必要とするサービスインターフェース。
type ContactService interface {
	Submit(ctx context.Context, in *contact.SubmitInput) (int64, error)
	List(ctx context.Context) ([]*model.Contact, error)
}

// AdminService は管理者パスワードプロシージャが必要とするサービスインターフェース。
type AdminService interface {
	Verify(ctx context.Context, password string) error
	Change(ctx context.Context, current, next string) error
}

// Authenticator はOAuthコールバックが必要とする認証サービスインターフェース。
type Authenticator interface {
	HandleCallback(ctx context.Context, code, state string) (string, error)
	SessionTTL() time.Duration
}

// compile-time interface check
var (
	_ NewsService     = (*news.Service)(nil)
	_ MatchService    = (*match.Service)(nil)
	_ ScheduleService = (*schedule.Service)(nil)
	_ PhotoService    = (*photo.Service)(nil)
	_ BbsService      = (*bbs.Service)(nil)
	_ ContactService  = (*contact.Service)(nil)
	_ AdminService    = (*admin.Service)(nil)
	_ Authenticator   = (*auth.Service)(nil)
)
