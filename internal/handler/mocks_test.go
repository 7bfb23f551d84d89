package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/kickoff/internal/auth"
	"github.com/hitoshi/kickoff/internal/contact"
	"github.com/hitoshi/kickoff/internal/model"
	"github.com/hitoshi/kickoff/internal/photo"
	"github.com/hitoshi/kickoff/internal/storage"
)

// --- モック定義 ---

// cookieResolver はセッションCookieの値からユーザーを引くUserResolverのモック。
type cookieResolver map[string]*model.User

func (m cookieResolver) Resolve(ctx context.Context, r *http.Request) auth.Result {
	c, err := r.Cookie(auth.CookieName)
	if err != nil {
		return auth.Result{Err: auth.ErrInvalidSession}
	}
	user, ok := m[c.Value]
	if !ok {
		return auth.Result{Err: auth.ErrInvalidSession}
	}
	return auth.Result{User: user}
}

type mockNewsService struct {
	listFn   func(ctx context.Context, filter model.NewsFilter) ([]*model.News, error)
	latestFn func(ctx context.Context) ([]*model.News, error)
	getFn    func(ctx context.Context, id int64) (*model.News, error)
	createFn func(ctx context.Context, in *model.NewsInput) (int64, error)
	updateFn func(ctx context.Context, id int64, patch *model.NewsPatch) error
	deleteFn func(ctx context.Context, id int64) error
}

func (m *mockNewsService) List(ctx context.Context, filter model.NewsFilter) ([]*model.News, error) {
	if m.listFn != nil {
		return m.listFn(ctx, filter)
	}
	return []*model.News{}, nil
}

func (m *mockNewsService) Latest(ctx context.Context) ([]*model.News, error) {
	if m.latestFn != nil {
		return m.latestFn(ctx)
	}
	return []*model.News{}, nil
}

func (m *mockNewsService) Get(ctx context.Context, id int64) (*model.News, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, model.NewNotFoundError("お知らせ", id)
}

func (m *mockNewsService) Create(ctx context.Context, in *model.NewsInput) (int64, error) {
	if m.createFn != nil {
		return m.createFn(ctx, in)
	}
	return 1, nil
}

func (m *mockNewsService) Update(ctx context.Context, id int64, patch *model.NewsPatch) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, patch)
	}
	return nil
}

func (m *mockNewsService) Delete(ctx context.Context, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

type mockMatchService struct {
	listFn       func(ctx context.Context, filter model.MatchResultFilter) ([]*model.MatchResult, error)
	createFn     func(ctx context.Context, in *model.MatchResultInput) (int64, error)
	statisticsFn func(ctx context.Context, grade string) (*model.MatchStatistics, error)
}

func (m *mockMatchService) List(ctx context.Context, filter model.MatchResultFilter) ([]*model.MatchResult, error) {
	if m.listFn != nil {
		return m.listFn(ctx, filter)
	}
	return []*model.MatchResult{}, nil
}

func (m *mockMatchService) Create(ctx context.Context, in *model.MatchResultInput) (int64, error) {
	if m.createFn != nil {
		return m.createFn(ctx, in)
	}
	return 1, nil
}

func (m *mockMatchService) Update(ctx context.Context, id int64, patch *model.MatchResultPatch) error {
	return nil
}

func (m *mockMatchService) Delete(ctx context.Context, id int64) error {
	return nil
}

func (m *mockMatchService) Statistics(ctx context.Context, grade string) (*model.MatchStatistics, error) {
	if m.statisticsFn != nil {
		return m.statisticsFn(ctx, grade)
	}
	return &model.MatchStatistics{}, nil
}

type mockScheduleService struct {
	listFn   func(ctx context.Context, filter model.ScheduleFilter) ([]*model.Schedule, error)
	createFn func(ctx context.Context, in *model.ScheduleInput) (*model.Schedule, error)
	updateFn func(ctx context.Context, id int64, patch *model.SchedulePatch) error
}

func (m *mockScheduleService) List(ctx context.Context, filter model.ScheduleFilter) ([]*model.Schedule, error) {
	if m.listFn != nil {
		return m.listFn(ctx, filter)
	}
	return []*model.Schedule{}, nil
}

func (m *mockScheduleService) Create(ctx context.Context, in *model.ScheduleInput) (*model.Schedule, error) {
	if m.createFn != nil {
		return m.createFn(ctx, in)
	}
	return &model.Schedule{ID: 1, Grades: in.Grades.String()}, nil
}

func (m *mockScheduleService) Update(ctx context.Context, id int64, patch *model.SchedulePatch) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, patch)
	}
	return nil
}

func (m *mockScheduleService) Delete(ctx context.Context, id int64) error {
	return nil
}

type mockPhotoService struct {
	uploadFn func(ctx context.Context, in *photo.UploadInput) (*model.Photo, error)
}

func (m *mockPhotoService) List(ctx context.Context, filter model.PhotoFilter) ([]*model.Photo, error) {
	return []*model.Photo{}, nil
}

func (m *mockPhotoService) Get(ctx context.Context, id int64) (*model.Photo, error) {
	return &model.Photo{ID: id}, nil
}

func (m *mockPhotoService) Upload(ctx context.Context, in *photo.UploadInput) (*model.Photo, error) {
	if m.uploadFn != nil {
		return m.uploadFn(ctx, in)
	}
	return &model.Photo{ID: 1, Title: in.Title}, nil
}

func (m *mockPhotoService) Delete(ctx context.Context, id int64) error {
	return nil
}

type mockBbsService struct {
	createPostFn func(ctx context.Context, user *model.User, title, content string) (*model.BbsPost, error)
	deletePostFn func(ctx context.Context, user *model.User, id int64) error
}

func (m *mockBbsService) ListPosts(ctx context.Context) ([]*model.BbsPost, error) {
	return []*model.BbsPost{}, nil
}

func (m *mockBbsService) CreatePost(ctx context.Context, user *model.User, title, content string) (*model.BbsPost, error) {
	if m.createPostFn != nil {
		return m.createPostFn(ctx, user, title, content)
	}
	return &model.BbsPost{ID: 1, AuthorID: user.ID, Title: title, Content: content}, nil
}

func (m *mockBbsService) DeletePost(ctx context.Context, user *model.User, id int64) error {
	if m.deletePostFn != nil {
		return m.deletePostFn(ctx, user, id)
	}
	return nil
}

func (m *mockBbsService) ListComments(ctx context.Context, postID int64) ([]*model.BbsComment, error) {
	return []*model.BbsComment{}, nil
}

func (m *mockBbsService) CreateComment(ctx context.Context, user *model.User, postID int64, content string) (*model.BbsComment, error) {
	return &model.BbsComment{ID: 1, PostID: postID, AuthorID: user.ID, Content: content}, nil
}

func (m *mockBbsService) DeleteComment(ctx context.Context, user *model.User, id int64) error {
	return nil
}

type mockContactService struct {
	submitFn func(ctx context.Context, in *contact.SubmitInput) (int64, error)
}

func (m *mockContactService) Submit(ctx context.Context, in *contact.SubmitInput) (int64, error) {
	if m.submitFn != nil {
		return m.submitFn(ctx, in)
	}
	return 1, nil
}

func (m *mockContactService) List(ctx context.Context) ([]*model.Contact, error) {
	return []*model.Contact{}, nil
}

type mockAdminService struct {
	verifyFn func(ctx context.Context, password string) error
	changeFn func(ctx context.Context, current, next string) error
}

func (m *mockAdminService) Verify(ctx context.Context, password string) error {
	if m.verifyFn != nil {
		return m.verifyFn(ctx, password)
	}
	return nil
}

func (m *mockAdminService) Change(ctx context.Context, current, next string) error {
	if m.changeFn != nil {
		return m.changeFn(ctx, current, next)
	}
	return nil
}

type mockUploader struct {
	putFn func(ctx context.Context, key string, data []byte, contentType string) (*storage.Object, error)
}

func (m *mockUploader) Put(ctx context.Context, key string, data []byte, contentType string) (*storage.Object, error) {
	if m.putFn != nil {
		return m.putFn(ctx, key, data, contentType)
	}
	return &storage.Object{Key: key, URL: "https://cdn.example.com/" + key}, nil
}

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(ctx context.Context) error {
	return m.err
}

func newMockServices() *Services {
	return &Services{
		News:     &mockNewsService{},
		Matches:  &mockMatchService{},
		Schedule: &mockScheduleService{},
		Photos:   &mockPhotoService{},
		Bbs:      &mockBbsService{},
		Contact:  &mockContactService{},
		Admin:    &mockAdminService{},
	}
}
