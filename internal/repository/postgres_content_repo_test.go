package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/hitoshi/kickoff/internal/database"
	"github.com/hitoshi/kickoff/internal/model"
)

func TestPostgresNewsRepo_List_FiltersAndLimit(t *testing.T) {
	client, mock := newMockClient(t)
	repo := NewPostgresNewsRepo(client)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(
		"FROM news WHERE category = $1 AND grade = $2 AND (title ILIKE '%' || $3 || '%' OR content ILIKE '%' || $3 || '%') ORDER BY created_at DESC, id DESC LIMIT 20",
	)).
		WithArgs("match", "U11", "cup").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "content", "category", "grade", "image_url", "created_at", "updated_at"}).
			AddRow(int64(1), "Cup final", "We won the cup", "match", "U11", "", now, now))

	list, err := repo.List(context.Background(), model.NewsFilter{
		Category: model.NewsCategoryMatch,
		Grade:    "U11",
		Search:   "cup",
		Limit:    20,
	})
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(list) != 1 || list[0].Category != model.NewsCategoryMatch {
		t.Errorf("unexpected list: %+v", list)
	}
	assertExpectations(t, mock)
}

func TestPostgresNewsRepo_FindByID_NotFound(t *testing.T) {
	client, mock := newMockClient(t)
	repo := NewPostgresNewsRepo(client)

	mock.ExpectQuery(regexp.QuoteMeta("FROM news WHERE id = $1")).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	n, err := repo.FindByID(context.Background(), 3)
	if err != nil {
		t.Fatalf("FindByID() error: %v", err)
	}
	if n != nil {
		t.Errorf("expected nil, got %+v", n)
	}
	assertExpectations(t, mock)
}

func TestPostgresNewsRepo_Update_EmptyPatchTouchesUpdatedAt(t *testing.T) {
	client, mock := newMockClient(t)
	repo := NewPostgresNewsRepo(client)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE news SET updated_at = NOW() WHERE id = $1")).
		WithArgs(int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Update(context.Background(), 4, &model.NewsPatch{}); err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	assertExpectations(t, mock)
}

func TestPostgresMatchResultRepo_List_DateRange(t *testing.T) {
	client, mock := newMockClient(t)
	repo := NewPostgresMatchResultRepo(client)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(
		"FROM match_results WHERE match_type = $1 AND match_date >= $2 ORDER BY match_date DESC, id DESC",
	)).
		WithArgs("cup", start).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.List(context.Background(), model.MatchResultFilter{
		Grade:     model.GradeAll,
		MatchType: model.MatchTypeCup,
		StartDate: &start,
	})
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	assertExpectations(t, mock)
}

func TestPostgresPhotoRepo_Create_NullableTakenAt(t *testing.T) {
	client, mock := newMockClient(t)
	repo := NewPostgresPhotoRepo(client)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO photos")).
		WithArgs("Team photo", nil, "https://cdn.example.com/p.jpg", "photos/p.jpg", "team", nil).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(3)))

	id, err := repo.Create(context.Background(), &model.Photo{
		Title:    "Team photo",
		ImageURL: "https://cdn.example.com/p.jpg",
		FileKey:  "photos/p.jpg",
		Category: "team",
	})
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if id != 3 {
		t.Errorf("id = %d, want 3", id)
	}
	assertExpectations(t, mock)
}

func TestPostgresBbsCommentRepo_DeleteOrphans(t *testing.T) {
	client, mock := newMockClient(t)
	repo := NewPostgresBbsCommentRepo(client)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM bbs_comments c WHERE NOT EXISTS")).
		WillReturnResult(sqlmock.NewResult(0, 4))

	deleted, err := repo.DeleteOrphans(context.Background())
	if err != nil {
		t.Fatalf("DeleteOrphans() error: %v", err)
	}
	if deleted != 4 {
		t.Errorf("deleted = %d, want 4", deleted)
	}
	assertExpectations(t, mock)
}

func TestPostgresAdminPasswordRepo_GetHash_NoRow(t *testing.T) {
	client, mock := newMockClient(t)
	repo := NewPostgresAdminPasswordRepo(client)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT password_hash FROM admin_password WHERE id = 1")).
		WillReturnRows(sqlmock.NewRows([]string{"password_hash"}))

	hash, err := repo.GetHash(context.Background())
	if err != nil {
		t.Fatalf("GetHash() error: %v", err)
	}
	if hash != "" {
		t.Errorf("hash = %q, want empty", hash)
	}
	assertExpectations(t, mock)
}

// TestReadResilience はデータベースが利用できない場合に一覧取得が空を返し、
// 書き込みがエラーになることを検証する。
func TestReadResilience(t *testing.T) {
	client := database.NewClient("")
	ctx := context.Background()

	news := NewPostgresNewsRepo(client)
	matches := NewPostgresMatchResultRepo(client)
	schedules := NewPostgresScheduleRepo(client)
	photos := NewPostgresPhotoRepo(client)
	contacts := NewPostgresContactRepo(client)
	posts := NewPostgresBbsPostRepo(client)
	comments := NewPostgresBbsCommentRepo(client)

	t.Run("list系は空を返す", func(t *testing.T) {
		lengths := map[string]func() (int, error){
			"news": func() (int, error) {
				l, err := news.List(ctx, model.NewsFilter{})
				return len(l), err
			},
			"matchResults": func() (int, error) {
				l, err := matches.List(ctx, model.MatchResultFilter{})
				return len(l), err
			},
			"schedules": func() (int, error) {
				l, err := schedules.List(ctx, model.ScheduleFilter{Grade: "U9"})
				return len(l), err
			},
			"photos": func() (int, error) {
				l, err := photos.List(ctx, model.PhotoFilter{})
				return len(l), err
			},
			"contacts": func() (int, error) {
				l, err := contacts.List(ctx)
				return len(l), err
			},
			"bbsPosts": func() (int, error) {
				l, err := posts.List(ctx)
				return len(l), err
			},
			"bbsComments": func() (int, error) {
				l, err := comments.ListByPost(ctx, 1)
				return len(l), err
			},
		}
		for name, fn := range lengths {
			n, err := fn()
			if err != nil {
				t.Errorf("%s: unexpected error: %v", name, err)
			}
			if n != 0 {
				t.Errorf("%s: len = %d, want 0", name, n)
			}
		}
	})

	t.Run("書き込み系はエラーを返す", func(t *testing.T) {
		grades, _ := model.ParseGradeSet([]string{"U9"})
		writes := map[string]func() error{
			"news.create": func() error {
				_, err := news.Create(ctx, &model.NewsInput{Title: "t"})
				return err
			},
			"news.update": func() error { return news.Update(ctx, 1, &model.NewsPatch{}) },
			"news.delete": func() error { return news.Delete(ctx, 1) },
			"matchResults.create": func() error {
				_, err := matches.Create(ctx, &model.MatchResultInput{})
				return err
			},
			"schedules.create": func() error {
				_, err := schedules.Create(ctx, &model.ScheduleInput{Grades: grades})
				return err
			},
			"schedules.delete": func() error { return schedules.Delete(ctx, 1) },
			"photos.delete":    func() error { return photos.Delete(ctx, 1) },
			"contacts.create": func() error {
				_, err := contacts.Create(ctx, &model.Contact{})
				return err
			},
			"bbsPosts.delete":    func() error { return posts.Delete(ctx, 1) },
			"bbsComments.delete": func() error { return comments.Delete(ctx, 1) },
		}
		for name, fn := range writes {
			if err := fn(); !errors.Is(err, database.ErrUnavailable) {
				t.Errorf("%s: expected ErrUnavailable, got %v", name, err)
			}
		}
	})
}
