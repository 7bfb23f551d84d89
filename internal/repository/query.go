package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hitoshi/kickoff/internal/database"
)

// readConn は読み取り用の接続を取得する。
// データベースが利用できない場合は警告ログを出してok=falseを返し、呼び出し側は空の結果を返す。
func readConn(ctx context.Context, client *database.Client, op string) (database.Querier, bool) {
	q, err := client.Conn(ctx)
	if err != nil {
		slog.Warn("database unavailable, returning empty result",
			slog.String("operation", op),
			slog.String("error", err.Error()),
		)
		return nil, false
	}
	return q, true
}

// requireConn は書き込みなど失敗を許容しない操作用の接続を取得する。利用できない場合はエラーを返す。
func requireConn(ctx context.Context, client *database.Client, op string) (database.Querier, error) {
	q, err := client.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return q, nil
}

// lookupConn は書き込みの前提となる読み取り用の接続を取得する。
// strictの場合はストア不在をエラーとして返し、それ以外はreadConnと同様に振る舞う。
func lookupConn(ctx context.Context, client *database.Client, op string, strict bool) (database.Querier, bool, error) {
	if !strict {
		q, ok := readConn(ctx, client, op)
		return q, ok, nil
	}
	q, err := requireConn(ctx, client, op)
	if err != nil {
		return nil, false, err
	}
	return q, true, nil
}

// whereBuilder はAND結合のWHERE句とプレースホルダ引数を組み立てる。
// 条件中の "?" はすべて同じ引数の $n に置き換えられる。
type whereBuilder struct {
	conds []string
	args  []any
}

func (w *whereBuilder) add(cond string, arg any) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, strings.ReplaceAll(cond, "?", fmt.Sprintf("$%d", len(w.args))))
}

func (w *whereBuilder) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// setBuilder は部分更新用のSET句を組み立てる。updated_atは常に更新する。
type setBuilder struct {
	sets []string
	args []any
}

func (s *setBuilder) set(column string, value any) {
	s.args = append(s.args, value)
	s.sets = append(s.sets, fmt.Sprintf("%s = $%d", column, len(s.args)))
}

// build はUPDATE文と引数を返す。
func (s *setBuilder) build(table string, id int64) (string, []any) {
	sets := append(append([]string{}, s.sets...), "updated_at = NOW()")
	args := append(append([]any{}, s.args...), id)
	return fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d", table, strings.Join(sets, ", "), len(args)), args
}

// execAffectingOne はクエリを実行し、影響行が0件の場合ErrNotFoundを返す。
func execAffectingOne(ctx context.Context, q database.Querier, query string, args ...any) error {
	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// nullString は空文字をNULLとして保存する。
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
