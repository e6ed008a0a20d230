// Package messages persists chat messages and their attachment metadata.
package messages

import (
	"context"
	"time"

	"github.com/totymark/totymark/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, m *models.Message) error
	CreateAttachment(ctx context.Context, a *models.Attachment) error
	GetByID(ctx context.Context, id string) (*models.Message, error)
	ListByChat(ctx context.Context, chatID string, since time.Time, limit int) ([]*models.Message, error)
	MarkUploaded(ctx context.Context, messageID string) error
}
