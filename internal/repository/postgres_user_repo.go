package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hitoshi/kickoff/internal/database"
	"github.com/hitoshi/kickoff/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	client *database.Client
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(client *database.Client) *PostgresUserRepo {
	return &PostgresUserRepo{client: client}
}

const userColumns = `id, open_id, COALESCE(name, ''), COALESCE(email, ''), COALESCE(login_method, ''), role, created_at, updated_at, last_signed_in`

// FindByOpenID はOpenIDでユーザーを検索する。見つからない場合はnilを返す。
// データベースが利用できない場合はErrUnavailableをラップしたエラーを返す。
func (r *PostgresUserRepo) FindByOpenID(ctx context.Context, openID string) (*model.User, error) {
	q, err := requireConn(ctx, r.client, "find user by open id")
	if err != nil {
		return nil, err
	}

	user := &model.User{}
	err = q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE open_id = $1`,
		openID,
	).Scan(&user.ID, &user.OpenID, &user.Name, &user.Email, &user.LoginMethod, &user.Role,
		&user.CreatedAt, &user.UpdatedAt, &user.LastSignedIn)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by open id: %w", err)
	}

	return user, nil
}

// Upsert はOpenIDをキーにユーザーを作成または更新する。
// 競合時は指定されたフィールドとupdated_atのみを更新する。
func (r *PostgresUserRepo) Upsert(ctx context.Context, u *model.UserUpsert) error {
	if u.OpenID == "" {
		return fmt.Errorf("user open id is required for upsert")
	}

	q, err := requireConn(ctx, r.client, "upsert user")
	if err != nil {
		return err
	}

	columns := []string{"open_id"}
	args := []any{u.OpenID}
	var updates []string

	add := func(column string, value any) {
		args = append(args, value)
		columns = append(columns, column)
		updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", column, column))
	}
	if u.Name != nil {
		add("name", nullString(*u.Name))
	}
	if u.Email != nil {
		add("email", nullString(*u.Email))
	}
	if u.LoginMethod != nil {
		add("login_method", nullString(*u.LoginMethod))
	}
	if u.Role != nil {
		add("role", string(*u.Role))
	}
	if u.LastSignedIn != nil {
		add("last_signed_in", *u.LastSignedIn)
	}
	updates = append(updates, "updated_at = NOW()")

	placeholders := make([]string, len(args))
	for i := range args {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	query := fmt.Sprintf(
		`INSERT INTO users (%s) VALUES (%s) ON CONFLICT (open_id) DO UPDATE SET %s`,
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
		strings.Join(updates, ", "),
	)
	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
