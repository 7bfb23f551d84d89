package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/kickoff/internal/database"
	"github.com/hitoshi/kickoff/internal/model"
)

// PostgresNewsRepo はPostgreSQLを使用したお知らせリポジトリ。
type PostgresNewsRepo struct {
	client *database.Client
}

// NewPostgresNewsRepo はPostgresNewsRepoを生成する。
func NewPostgresNewsRepo(client *database.Client) *PostgresNewsRepo {
	return &PostgresNewsRepo{client: client}
}

const newsColumns = `id, title, content, category, COALESCE(grade, ''), COALESCE(image_url, ''), created_at, updated_at`

func scanNews(row interface{ Scan(...any) error }) (*model.News, error) {
	n := &model.News{}
	err := row.Scan(&n.ID, &n.Title, &n.Content, &n.Category, &n.Grade, &n.ImageURL, &n.CreatedAt, &n.UpdatedAt)
	return n, err
}

// List はお知らせを作成日時の新しい順に返す。
// データベースが利用できない場合は空のスライスを返す。
func (r *PostgresNewsRepo) List(ctx context.Context, filter model.NewsFilter) ([]*model.News, error) {
	q, ok := readConn(ctx, r.client, "list news")
	if !ok {
		return []*model.News{}, nil
	}

	var w whereBuilder
	if filter.Category != "" {
		w.add("category = ?", string(filter.Category))
	}
	if filter.Grade != "" && filter.Grade != model.GradeAll {
		w.add("grade = ?", filter.Grade)
	}
	if filter.Search != "" {
		w.add("(title ILIKE '%' || ? || '%' OR content ILIKE '%' || ? || '%')", filter.Search)
	}

	query := `SELECT ` + newsColumns + ` FROM news` + w.String() + ` ORDER BY created_at DESC, id DESC`
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := q.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list news: %w", err)
	}
	defer rows.Close()

	list := []*model.News{}
	for rows.Next() {
		n, err := scanNews(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan news row: %w", err)
		}
		list = append(list, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate news rows: %w", err)
	}
	return list, nil
}

// FindByID は指定IDのお知らせを取得する。見つからない場合はnilを返す。
func (r *PostgresNewsRepo) FindByID(ctx context.Context, id int64) (*model.News, error) {
	q, ok := readConn(ctx, r.client, "find news by id")
	if !ok {
		return nil, nil
	}

	n, err := scanNews(q.QueryRowContext(ctx, `SELECT `+newsColumns+` FROM news WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find news by id: %w", err)
	}
	return n, nil
}

// Create はお知らせを作成し、採番されたIDを返す。
func (r *PostgresNewsRepo) Create(ctx context.Context, in *model.NewsInput) (int64, error) {
	q, err := requireConn(ctx, r.client, "create news")
	if err != nil {
		return 0, err
	}

	var id int64
	err = q.QueryRowContext(ctx,
		`INSERT INTO news (title, content, category, grade, image_url)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		in.Title, in.Content, string(in.Category), nullString(in.Grade), nullString(in.ImageURL),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create news: %w", err)
	}
	return id, nil
}

// Update はnil以外のフィールドのみを更新する。
func (r *PostgresNewsRepo) Update(ctx context.Context, id int64, patch *model.NewsPatch) error {
	q, err := requireConn(ctx, r.client, "update news")
	if err != nil {
		return err
	}

	var s setBuilder
	if patch.Title != nil {
		s.set("title", *patch.Title)
	}
	if patch.Content != nil {
		s.set("content", *patch.Content)
	}
	if patch.Category != nil {
		s.set("category", string(*patch.Category))
	}
	if patch.Grade != nil {
		s.set("grade", nullString(*patch.Grade))
	}
	if patch.ImageURL != nil {
		s.set("image_url", nullString(*patch.ImageURL))
	}

	query, args := s.build("news", id)
	if err := execAffectingOne(ctx, q, query, args...); err != nil {
		return fmt.Errorf("failed to update news: %w", err)
	}
	return nil
}

// Delete は指定IDのお知らせを削除する。
func (r *PostgresNewsRepo) Delete(ctx context.Context, id int64) error {
	q, err := requireConn(ctx, r.client, "delete news")
	if err != nil {
		return err
	}
	if err := execAffectingOne(ctx, q, `DELETE FROM news WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete news: %w", err)
	}
	return nil
}

// compile-time interface check
var _ NewsRepository = (*PostgresNewsRepo)(nil)
