package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/kickoff/internal/database"
)

// PostgresAdminPasswordRepo は管理者パスワードハッシュを1行で保持するリポジトリ。
type PostgresAdminPasswordRepo struct {
	client *database.Client
}

// NewPostgresAdminPasswordRepo はPostgresAdminPasswordRepoを生成する。
func NewPostgresAdminPasswordRepo(client *database.Client) *PostgresAdminPasswordRepo {
	return &PostgresAdminPasswordRepo{client: client}
}

// GetHash は保存済みのハッシュを返す。未設定の場合は空文字を返す。
func (r *PostgresAdminPasswordRepo) GetHash(ctx context.Context) (string, error) {
	q, err := requireConn(ctx, r.client, "get admin password")
	if err != nil {
		return "", err
	}

	var hash string
	err = q.QueryRowContext(ctx, `SELECT password_hash FROM admin_password WHERE id = 1`).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get admin password: %w", err)
	}
	return hash, nil
}

// SetHash はハッシュを保存する。
func (r *PostgresAdminPasswordRepo) SetHash(ctx context.Context, hash string) error {
	q, err := requireConn(ctx, r.client, "set admin password")
	if err != nil {
		return err
	}

	_, err = q.ExecContext(ctx,
		`INSERT INTO admin_password (id, password_hash, updated_at) VALUES (1, $1, NOW())
		 ON CONFLICT (id) DO UPDATE SET password_hash = EXCLUDED.password_hash, updated_at = NOW()`,
		hash,
	)
	if err != nil {
		return fmt.Errorf("failed to set admin password: %w", err)
	}
	return nil
}

// compile-time interface check
var _ AdminPasswordRepository = (*PostgresAdminPasswordRepo)(nil)
