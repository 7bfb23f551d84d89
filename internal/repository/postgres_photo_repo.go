package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/kickoff/internal/database"
	"github.com/hitoshi/kickoff/internal/model"
)

// PostgresPhotoRepo はPostgreSQLを使用した写真リポジトリ。
type PostgresPhotoRepo struct {
	client *database.Client
}

// NewPostgresPhotoRepo はPostgresPhotoRepoを生成する。
func NewPostgresPhotoRepo(client *database.Client) *PostgresPhotoRepo {
	return &PostgresPhotoRepo{client: client}
}

const photoColumns = `id, title, COALESCE(description, ''), image_url, file_key, COALESCE(category, ''), taken_at, created_at, updated_at`

func scanPhoto(row interface{ Scan(...any) error }) (*model.Photo, error) {
	p := &model.Photo{}
	var takenAt sql.NullTime
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.ImageURL, &p.FileKey, &p.Category, &takenAt,
		&p.CreatedAt, &p.UpdatedAt)
	if takenAt.Valid {
		p.TakenAt = &takenAt.Time
	}
	return p, err
}

// List は写真を登録日時の新しい順に返す。
func (r *PostgresPhotoRepo) List(ctx context.Context, filter model.PhotoFilter) ([]*model.Photo, error) {
	q, ok := readConn(ctx, r.client, "list photos")
	if !ok {
		return []*model.Photo{}, nil
	}

	var w whereBuilder
	if filter.Category != "" {
		w.add("category = ?", filter.Category)
	}

	rows, err := q.QueryContext(ctx,
		`SELECT `+photoColumns+` FROM photos`+w.String()+` ORDER BY created_at DESC, id DESC`,
		w.args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}
	defer rows.Close()

	list := []*model.Photo{}
	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan photo row: %w", err)
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate photo rows: %w", err)
	}
	return list, nil
}

// FindByID は指定IDの写真を取得する。見つからない場合はnilを返す。
func (r *PostgresPhotoRepo) FindByID(ctx context.Context, id int64) (*model.Photo, error) {
	q, ok := readConn(ctx, r.client, "find photo by id")
	if !ok {
		return nil, nil
	}

	p, err := scanPhoto(q.QueryRowContext(ctx, `SELECT `+photoColumns+` FROM photos WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find photo by id: %w", err)
	}
	return p, nil
}

// Create は写真を登録し、採番されたIDを返す。
func (r *PostgresPhotoRepo) Create(ctx context.Context, photo *model.Photo) (int64, error) {
	q, err := requireConn(ctx, r.client, "create photo")
	if err != nil {
		return 0, err
	}

	var takenAt sql.NullTime
	if photo.TakenAt != nil {
		takenAt = sql.NullTime{Time: *photo.TakenAt, Valid: true}
	}

	var id int64
	err = q.QueryRowContext(ctx,
		`INSERT INTO photos (title, description, image_url, file_key, category, taken_at)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		photo.Title, nullString(photo.Description), photo.ImageURL, photo.FileKey, nullString(photo.Category), takenAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create photo: %w", err)
	}
	return id, nil
}

// Delete は写真の行を削除する。ストレージ上のオブジェクトは削除しない。
func (r *PostgresPhotoRepo) Delete(ctx context.Context, id int64) error {
	q, err := requireConn(ctx, r.client, "delete photo")
	if err != nil {
		return err
	}
	if err := execAffectingOne(ctx, q, `DELETE FROM photos WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete photo: %w", err)
	}
	return nil
}

// compile-time interface check
var _ PhotoRepository = (*PostgresPhotoRepo)(nil)
