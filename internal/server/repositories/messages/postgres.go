package messages

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/totymark/totymark/internal/common"
	"github.com/totymark/totymark/internal/dbx"
	"github.com/totymark/totymark/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, m *models.Message) error {
	query := `
		INSERT INTO messages (id, chat_id, sender, body)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`
	if err := r.db.QueryRowContext(ctx, query, m.ID, m.ChatID, m.Sender, m.Body).Scan(&m.CreatedAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) CreateAttachment(ctx context.Context, a *models.Attachment) error {
	query := `
		INSERT INTO attachments (message_id, storage_key, content_type, upload_status)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.db.ExecContext(ctx, query, a.MessageID, a.StorageKey, a.ContentType, a.UploadStatus); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

const selectMessage = `
		SELECT m.id, m.chat_id, m.sender, m.body, m.created_at,
		       a.storage_key, a.content_type, a.upload_status
		FROM messages m
		LEFT JOIN attachments a ON a.message_id = m.id
`

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Message, error) {
	query := selectMessage + `		WHERE m.id = $1
	`
	m, err := scanMessage(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return m, nil
}

// ListByChat returns up to limit messages of chatID created after since, in
// creation order.
func (r *PostgresRepository) ListByChat(ctx context.Context, chatID string, since time.Time, limit int) ([]*models.Message, error) {
	query := selectMessage + `		WHERE m.chat_id = $1 AND m.created_at > $2
		ORDER BY m.created_at, m.id
		LIMIT $3
	`
	rows, err := r.db.QueryContext(ctx, query, chatID, since, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*models.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) MarkUploaded(ctx context.Context, messageID string) error {
	query := `
		UPDATE attachments SET upload_status = $2
		WHERE message_id = $1
	`
	res, err := r.db.ExecContext(ctx, query, messageID, models.UploadStatusUploaded)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMessage(s scanner) (*models.Message, error) {
	m := &models.Message{}
	var key, contentType, status sql.NullString
	if err := s.Scan(&m.ID, &m.ChatID, &m.Sender, &m.Body, &m.CreatedAt, &key, &contentType, &status); err != nil {
		return nil, err
	}
	if key.Valid {
		m.Attachment = &models.Attachment{
			MessageID:    m.ID,
			StorageKey:   key.String,
			ContentType:  contentType.String,
			UploadStatus: status.String,
		}
	}
	return m, nil
}
