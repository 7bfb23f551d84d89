package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/kickoff/internal/database"
	"github.com/hitoshi/kickoff/internal/model"
)

// PostgresMatchResultRepo はPostgreSQLを使用した試合結果リポジトリ。
type PostgresMatchResultRepo struct {
	client *database.Client
}

// NewPostgresMatchResultRepo はPostgresMatchResultRepoを生成する。
func NewPostgresMatchResultRepo(client *database.Client) *PostgresMatchResultRepo {
	return &PostgresMatchResultRepo{client: client}
}

const matchResultColumns = `id, match_date, opponent, our_score, opponent_score, COALESCE(venue, ''), match_type,
	COALESCE(grade, ''), COALESCE(scorers, ''), COALESCE(notes, ''), COALESCE(image_url, ''), created_at, updated_at`

func scanMatchResult(row interface{ Scan(...any) error }) (*model.MatchResult, error) {
	m := &model.MatchResult{}
	err := row.Scan(&m.ID, &m.MatchDate, &m.Opponent, &m.OurScore, &m.OpponentScore, &m.Venue, &m.MatchType,
		&m.Grade, &m.Scorers, &m.Notes, &m.ImageURL, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

// List は試合結果を試合日の新しい順に返す。
// データベースが利用できない場合は空のスライスを返す。
func (r *PostgresMatchResultRepo) List(ctx context.Context, filter model.MatchResultFilter) ([]*model.MatchResult, error) {
	q, ok := readConn(ctx, r.client, "list match results")
	if !ok {
		return []*model.MatchResult{}, nil
	}

	var w whereBuilder
	if filter.Grade != "" && filter.Grade != model.GradeAll {
		w.add("grade = ?", filter.Grade)
	}
	if filter.MatchType != "" {
		w.add("match_type = ?", string(filter.MatchType))
	}
	if filter.Search != "" {
		w.add("opponent ILIKE '%' || ? || '%'", filter.Search)
	}
	if filter.StartDate != nil {
		w.add("match_date >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		w.add("match_date <= ?", *filter.EndDate)
	}

	rows, err := q.QueryContext(ctx,
		`SELECT `+matchResultColumns+` FROM match_results`+w.String()+` ORDER BY match_date DESC, id DESC`,
		w.args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list match results: %w", err)
	}
	defer rows.Close()

	list := []*model.MatchResult{}
	for rows.Next() {
		m, err := scanMatchResult(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match result row: %w", err)
		}
		list = append(list, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate match result rows: %w", err)
	}
	return list, nil
}

// FindByID は指定IDの試合結果を取得する。見つからない場合はnilを返す。
func (r *PostgresMatchResultRepo) FindByID(ctx context.Context, id int64) (*model.MatchResult, error) {
	q, ok := readConn(ctx, r.client, "find match result by id")
	if !ok {
		return nil, nil
	}

	m, err := scanMatchResult(q.QueryRowContext(ctx, `SELECT `+matchResultColumns+` FROM match_results WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find match result by id: %w", err)
	}
	return m, nil
}

// Create は試合結果を作成し、採番されたIDを返す。
func (r *PostgresMatchResultRepo) Create(ctx context.Context, in *model.MatchResultInput) (int64, error) {
	q, err := requireConn(ctx, r.client, "create match result")
	if err != nil {
		return 0, err
	}

	var id int64
	err = q.QueryRowContext(ctx,
		`INSERT INTO match_results (match_date, opponent, our_score, opponent_score, venue, match_type, grade, scorers, notes, image_url)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`,
		in.MatchDate, in.Opponent, in.OurScore, in.OpponentScore, nullString(in.Venue), string(in.MatchType),
		nullString(in.Grade), nullString(in.Scorers), nullString(in.Notes), nullString(in.ImageURL),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create match result: %w", err)
	}
	return id, nil
}

// Update はnil以外のフィールドのみを更新する。
func (r *PostgresMatchResultRepo) Update(ctx context.Context, id int64, patch *model.MatchResultPatch) error {
	q, err := requireConn(ctx, r.client, "update match result")
	if err != nil {
		return err
	}

	var s setBuilder
	if patch.MatchDate != nil {
		s.set("match_date", *patch.MatchDate)
	}
	if patch.Opponent != nil {
		s.set("opponent", *patch.Opponent)
	}
	if patch.OurScore != nil {
		s.set("our_score", *patch.OurScore)
	}
	if patch.OpponentScore != nil {
		s.set("opponent_score", *patch.OpponentScore)
	}
	if patch.Venue != nil {
		s.set("venue", nullString(*patch.Venue))
	}
	if patch.MatchType != nil {
		s.set("match_type", string(*patch.MatchType))
	}
	if patch.Grade != nil {
		s.set("grade", nullString(*patch.Grade))
	}
	if patch.Scorers != nil {
		s.set("scorers", nullString(*patch.Scorers))
	}
	if patch.Notes != nil {
		s.set("notes", nullString(*patch.Notes))
	}
	if patch.ImageURL != nil {
		s.set("image_url", nullString(*patch.ImageURL))
	}

	query, args := s.build("match_results", id)
	if err := execAffectingOne(ctx, q, query, args...); err != nil {
		return fmt.Errorf("failed to update match result: %w", err)
	}
	return nil
}

// Delete は指定IDの試合結果を削除する。
func (r *PostgresMatchResultRepo) Delete(ctx context.Context, id int64) error {
	q, err := requireConn(ctx, r.client, "delete match result")
	if err != nil {
		return err
	}
	if err := execAffectingOne(ctx, q, `DELETE FROM match_results WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete match result: %w", err)
	}
	return nil
}

// compile-time interface check
var _ MatchResultRepository = (*PostgresMatchResultRepo)(nil)
