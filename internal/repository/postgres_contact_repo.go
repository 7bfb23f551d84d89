package repository

import (
	"context"
	"fmt"

	"github.com/hitoshi/kickoff/internal/database"
	"github.com/hitoshi/kickoff/internal/model"
)

// PostgresContactRepo はPostgreSQLを使用したお問い合わせリポジトリ。
type PostgresContactRepo struct {
	client *database.Client
}

// NewPostgresContactRepo はPostgresContactRepoを生成する。
func NewPostgresContactRepo(client *database.Client) *PostgresContactRepo {
	return &PostgresContactRepo{client: client}
}

// List はお問い合わせを受付日時の新しい順に返す。
func (r *PostgresContactRepo) List(ctx context.Context) ([]*model.Contact, error) {
	q, ok := readConn(ctx, r.client, "list contacts")
	if !ok {
		return []*model.Contact{}, nil
	}

	rows, err := q.QueryContext(ctx,
		`SELECT id, name, email, COALESCE(phone, ''), COALESCE(subject, ''), message, created_at
		 FROM contacts ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	defer rows.Close()

	list := []*model.Contact{}
	for rows.Next() {
		c := &model.Contact{}
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Subject, &c.Message, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan contact row: %w", err)
		}
		list = append(list, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate contact rows: %w", err)
	}
	return list, nil
}

// Create はお問い合わせを保存し、採番されたIDを返す。
func (r *PostgresContactRepo) Create(ctx context.Context, contact *model.Contact) (int64, error) {
	q, err := requireConn(ctx, r.client, "create contact")
	if err != nil {
		return 0, err
	}

	var id int64
	err = q.QueryRowContext(ctx,
		`INSERT INTO contacts (name, email, phone, subject, message)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		contact.Name, contact.Email, nullString(contact.Phone), nullString(contact.Subject), contact.Message,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create contact: %w", err)
	}
	return id, nil
}

// compile-time interface check
var _ ContactRepository = (*PostgresContactRepo)(nil)
