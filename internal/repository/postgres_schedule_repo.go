package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/kickoff/internal/database"
	"github.com/hitoshi/kickoff/internal/model"
)

// PostgresScheduleRepo はPostgreSQLを使用したスケジュールリポジトリ。
type PostgresScheduleRepo struct {
	client *database.Client
}

// NewPostgresScheduleRepo はPostgresScheduleRepoを生成する。
func NewPostgresScheduleRepo(client *database.Client) *PostgresScheduleRepo {
	return &PostgresScheduleRepo{client: client}
}

const scheduleColumns = `id, event_date, COALESCE(event_time, ''), COALESCE(opponent, ''), venue, event_type, grades, COALESCE(notes, ''), created_at, updated_at`

func scanSchedule(row interface{ Scan(...any) error }) (*model.Schedule, error) {
	s := &model.Schedule{}
	err := row.Scan(&s.ID, &s.EventDate, &s.EventTime, &s.Opponent, &s.Venue, &s.EventType, &s.Grades, &s.Notes,
		&s.CreatedAt, &s.UpdatedAt)
	return s, err
}

// List はフィルタ条件をANDで結合したスケジュール一覧を開催日の新しい順に返す。
//
// 学年はカンマ区切りの保存値に対する部分一致で判定する。
// どの学年タグも他のタグの部分文字列ではないため、部分一致で誤検出は起きない。
func (r *PostgresScheduleRepo) List(ctx context.Context, filter model.ScheduleFilter) ([]*model.Schedule, error) {
	q, ok := readConn(ctx, r.client, "list schedules")
	if !ok {
		return []*model.Schedule{}, nil
	}

	var w whereBuilder
	if filter.Grade != "" && filter.Grade != model.GradeAll {
		w.add("grades LIKE '%' || ? || '%'", filter.Grade)
	}
	if filter.Search != "" {
		w.add("opponent ILIKE '%' || ? || '%'", filter.Search)
	}
	if filter.EventType != "" {
		w.add("event_type = ?", string(filter.EventType))
	}
	if filter.StartDate != nil {
		w.add("event_date >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		w.add("event_date <= ?", *filter.EndDate)
	}

	rows, err := q.QueryContext(ctx,
		`SELECT `+scheduleColumns+` FROM schedules`+w.String()+` ORDER BY event_date DESC, id DESC`,
		w.args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	defer rows.Close()

	list := []*model.Schedule{}
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan schedule row: %w", err)
		}
		list = append(list, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate schedule rows: %w", err)
	}
	return list, nil
}

// FindByID は指定IDのスケジュールを取得する。見つからない場合はnilを返す。
func (r *PostgresScheduleRepo) FindByID(ctx context.Context, id int64) (*model.Schedule, error) {
	q, ok := readConn(ctx, r.client, "find schedule by id")
	if !ok {
		return nil, nil
	}

	s, err := scanSchedule(q.QueryRowContext(ctx, `SELECT `+scheduleColumns+` FROM schedules WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find schedule by id: %w", err)
	}
	return s, nil
}

// Create はスケジュールを作成し、採番されたIDを返す。学年は入力順のカンマ区切りで保存する。
func (r *PostgresScheduleRepo) Create(ctx context.Context, in *model.ScheduleInput) (int64, error) {
	q, err := requireConn(ctx, r.client, "create schedule")
	if err != nil {
		return 0, err
	}

	var id int64
	err = q.QueryRowContext(ctx,
		`INSERT INTO schedules (event_date, event_time, opponent, venue, event_type, grades, notes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		in.EventDate, nullString(in.EventTime), nullString(in.Opponent), in.Venue, string(in.EventType),
		in.Grades.String(), nullString(in.Notes),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create schedule: %w", err)
	}
	return id, nil
}

// Update はnil以外のフィールドのみを更新する。Gradesは空でない場合に置き換える。
func (r *PostgresScheduleRepo) Update(ctx context.Context, id int64, patch *model.SchedulePatch) error {
	q, err := requireConn(ctx, r.client, "update schedule")
	if err != nil {
		return err
	}

	var s setBuilder
	if patch.EventDate != nil {
		s.set("event_date", *patch.EventDate)
	}
	if patch.EventTime != nil {
		s.set("event_time", nullString(*patch.EventTime))
	}
	if patch.Opponent != nil {
		s.set("opponent", nullString(*patch.Opponent))
	}
	if patch.Venue != nil {
		s.set("venue", *patch.Venue)
	}
	if patch.EventType != nil {
		s.set("event_type", string(*patch.EventType))
	}
	if len(patch.Grades) > 0 {
		s.set("grades", patch.Grades.String())
	}
	if patch.Notes != nil {
		s.set("notes", nullString(*patch.Notes))
	}

	query, args := s.build("schedules", id)
	if err := execAffectingOne(ctx, q, query, args...); err != nil {
		return fmt.Errorf("failed to update schedule: %w", err)
	}
	return nil
}

// Delete は指定IDのスケジュールを削除する。
func (r *PostgresScheduleRepo) Delete(ctx context.Context, id int64) error {
	q, err := requireConn(ctx, r.client, "delete schedule")
	if err != nil {
		return err
	}
	if err := execAffectingOne(ctx, q, `DELETE FROM schedules WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete schedule: %w", err)
	}
	return nil
}

// compile-time interface check
var _ ScheduleRepository = (*PostgresScheduleRepo)(nil)
