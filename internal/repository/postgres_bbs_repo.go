package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/kickoff/internal/database"
	"github.com/hitoshi/kickoff/internal/model"
)

// PostgresBbsPostRepo はPostgreSQLを使用した掲示板投稿リポジトリ。
type PostgresBbsPostRepo struct {
	client *database.Client
}

// NewPostgresBbsPostRepo はPostgresBbsPostRepoを生成する。
func NewPostgresBbsPostRepo(client *database.Client) *PostgresBbsPostRepo {
	return &PostgresBbsPostRepo{client: client}
}

const bbsPostColumns = `id, author_id, author_name, title, content, created_at, updated_at`

func scanBbsPost(row interface{ Scan(...any) error }) (*model.BbsPost, error) {
	p := &model.BbsPost{}
	err := row.Scan(&p.ID, &p.AuthorID, &p.AuthorName, &p.Title, &p.Content, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// List は投稿を新しい順に返す。
func (r *PostgresBbsPostRepo) List(ctx context.Context) ([]*model.BbsPost, error) {
	return r.list(ctx, false)
}

// ListStrict はListと同じだが、データベースが利用できない場合はエラーを返す。
func (r *PostgresBbsPostRepo) ListStrict(ctx context.Context) ([]*model.BbsPost, error) {
	return r.list(ctx, true)
}

func (r *PostgresBbsPostRepo) list(ctx context.Context, strict bool) ([]*model.BbsPost, error) {
	q, ok, err := lookupConn(ctx, r.client, "list bbs posts", strict)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []*model.BbsPost{}, nil
	}

	rows, err := q.QueryContext(ctx, `SELECT `+bbsPostColumns+` FROM bbs_posts ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list bbs posts: %w", err)
	}
	defer rows.Close()

	list := []*model.BbsPost{}
	for rows.Next() {
		p, err := scanBbsPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bbs post row: %w", err)
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bbs post rows: %w", err)
	}
	return list, nil
}

// FindByID は指定IDの投稿を取得する。見つからない場合はnilを返す。
func (r *PostgresBbsPostRepo) FindByID(ctx context.Context, id int64) (*model.BbsPost, error) {
	return r.findByID(ctx, id, false)
}

// FindByIDStrict はFindByIDと同じだが、データベースが利用できない場合はエラーを返す。
func (r *PostgresBbsPostRepo) FindByIDStrict(ctx context.Context, id int64) (*model.BbsPost, error) {
	return r.findByID(ctx, id, true)
}

func (r *PostgresBbsPostRepo) findByID(ctx context.Context, id int64, strict bool) (*model.BbsPost, error) {
	q, ok, err := lookupConn(ctx, r.client, "find bbs post by id", strict)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	p, err := scanBbsPost(q.QueryRowContext(ctx, `SELECT `+bbsPostColumns+` FROM bbs_posts WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find bbs post by id: %w", err)
	}
	return p, nil
}

// Create は投稿を作成し、採番されたIDを返す。
func (r *PostgresBbsPostRepo) Create(ctx context.Context, post *model.BbsPost) (int64, error) {
	q, err := requireConn(ctx, r.client, "create bbs post")
	if err != nil {
		return 0, err
	}

	var id int64
	err = q.QueryRowContext(ctx,
		`INSERT INTO bbs_posts (author_id, author_name, title, content)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		post.AuthorID, post.AuthorName, post.Title, post.Content,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create bbs post: %w", err)
	}
	return id, nil
}

// Delete は投稿を削除する。コメントは同時には削除しない。
func (r *PostgresBbsPostRepo) Delete(ctx context.Context, id int64) error {
	q, err := requireConn(ctx, r.client, "delete bbs post")
	if err != nil {
		return err
	}
	if err := execAffectingOne(ctx, q, `DELETE FROM bbs_posts WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete bbs post: %w", err)
	}
	return nil
}

// PostgresBbsCommentRepo はPostgreSQLを使用した掲示板コメントリポジトリ。
type PostgresBbsCommentRepo struct {
	client *database.Client
}

// NewPostgresBbsCommentRepo はPostgresBbsCommentRepoを生成する。
func NewPostgresBbsCommentRepo(client *database.Client) *PostgresBbsCommentRepo {
	return &PostgresBbsCommentRepo{client: client}
}

const bbsCommentColumns = `id, post_id, author_id, author_name, content, created_at, updated_at`

func (r *PostgresBbsCommentRepo) query(ctx context.Context, op string, strict bool, where string, args ...any) ([]*model.BbsComment, error) {
	q, ok, err := lookupConn(ctx, r.client, op, strict)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []*model.BbsComment{}, nil
	}

	rows, err := q.QueryContext(ctx,
		`SELECT `+bbsCommentColumns+` FROM bbs_comments`+where+` ORDER BY created_at DESC, id DESC`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	defer rows.Close()

	list := []*model.BbsComment{}
	for rows.Next() {
		c := &model.BbsComment{}
		if err := rows.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.AuthorName, &c.Content, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan bbs comment row: %w", err)
		}
		list = append(list, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bbs comment rows: %w", err)
	}
	return list, nil
}

// List はすべてのコメントを新しい順に返す。
func (r *PostgresBbsCommentRepo) List(ctx context.Context) ([]*model.BbsComment, error) {
	return r.query(ctx, "list bbs comments", false, "")
}

// ListStrict はListと同じだが、データベースが利用できない場合はエラーを返す。
func (r *PostgresBbsCommentRepo) ListStrict(ctx context.Context) ([]*model.BbsComment, error) {
	return r.query(ctx, "list bbs comments", true, "")
}

// ListByPost は指定投稿のコメントを新しい順に返す。
func (r *PostgresBbsCommentRepo) ListByPost(ctx context.Context, postID int64) ([]*model.BbsComment, error) {
	return r.query(ctx, "list bbs comments by post", false, " WHERE post_id = $1", postID)
}

// Create はコメントを作成し、採番されたIDを返す。
func (r *PostgresBbsCommentRepo) Create(ctx context.Context, comment *model.BbsComment) (int64, error) {
	q, err := requireConn(ctx, r.client, "create bbs comment")
	if err != nil {
		return 0, err
	}

	var id int64
	err = q.QueryRowContext(ctx,
		`INSERT INTO bbs_comments (post_id, author_id, author_name, content)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		comment.PostID, comment.AuthorID, comment.AuthorName, comment.Content,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create bbs comment: %w", err)
	}
	return id, nil
}

// Delete は指定IDのコメントを削除する。
func (r *PostgresBbsCommentRepo) Delete(ctx context.Context, id int64) error {
	q, err := requireConn(ctx, r.client, "delete bbs comment")
	if err != nil {
		return err
	}
	if err := execAffectingOne(ctx, q, `DELETE FROM bbs_comments WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete bbs comment: %w", err)
	}
	return nil
}

// DeleteOrphans は存在しない投稿を参照するコメントを削除し、削除件数を返す。
func (r *PostgresBbsCommentRepo) DeleteOrphans(ctx context.Context) (int64, error) {
	q, err := requireConn(ctx, r.client, "delete orphan bbs comments")
	if err != nil {
		return 0, err
	}

	result, err := q.ExecContext(ctx,
		`DELETE FROM bbs_comments c
		 WHERE NOT EXISTS (SELECT 1 FROM bbs_posts p WHERE p.id = c.post_id)`,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete orphan bbs comments: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return deleted, nil
}

// compile-time interface check
var (
	_ BbsPostRepository    = (*PostgresBbsPostRepo)(nil)
	_ BbsCommentRepository = (*PostgresBbsCommentRepo)(nil)
)
