package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/totymark/totymark/internal/common"
	"github.com/totymark/totymark/internal/dbx"
	"github.com/totymark/totymark/internal/logging"
	"github.com/totymark/totymark/internal/server/models"
	"github.com/totymark/totymark/internal/server/repositories/repomanager"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

type SendInput struct {
	ChatID                string
	Sender                string
	Body                  string
	AttachmentContentType string
}

type SendResult struct {
	Message   *models.Message
	UploadURL string
}

// MessageService stores and lists chat messages. Attachments are uploaded
// by clients straight to object storage through presigned URLs.
type MessageService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	storage     AttachmentStorage
	logger      logging.Logger
	now         func() time.Time
}

func NewMessageService(db *sql.DB, m repomanager.RepositoryManager, storage AttachmentStorage, logger logging.Logger) *MessageService {
	return &MessageService{
		db:          db,
		repomanager: m,
		storage:     storage,
		logger:      logger.With("module", "message_service"),
		now:         time.Now,
	}
}

// Send stores a message. When an attachment content type is given, the
// attachment row is written in the same transaction and a presigned upload
// URL is returned.
func (s *MessageService) Send(ctx context.Context, in SendInput) (*SendResult, error) {
	in.Body = strings.TrimSpace(in.Body)
	in.AttachmentContentType = strings.TrimSpace(in.AttachmentContentType)

	if err := validateChatID(in.ChatID); err != nil {
		return nil, err
	}
	if in.Body == "" && in.AttachmentContentType == "" {
		return nil, invalid("message body must not be empty")
	}
	if utf8.RuneCountInString(in.Body) > maxBodyLen {
		return nil, invalid("message body exceeds %d characters", maxBodyLen)
	}

	msg := &models.Message{
		ID:     uuid.NewString(),
		ChatID: in.ChatID,
		Sender: in.Sender,
		Body:   in.Body,
	}

	var uploadURL string
	if in.AttachmentContentType != "" {
		key := AttachmentKey(in.ChatID, msg.ID, s.now().UTC())
		url, err := s.storage.PresignPut(ctx, key, in.AttachmentContentType)
		if err != nil {
			s.logger.Error(ctx, "presigning upload failed", "error", err)
			return nil, common.ErrorInternal
		}
		uploadURL = url
		msg.Attachment = &models.Attachment{
			MessageID:    msg.ID,
			StorageKey:   key,
			ContentType:  in.AttachmentContentType,
			UploadStatus: models.UploadStatusPending,
		}
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Messages(tx)
		if err := repo.Create(ctx, msg); err != nil {
			return err
		}
		if msg.Attachment != nil {
			return repo.CreateAttachment(ctx, msg.Attachment)
		}
		return nil
	})
	if err != nil {
		s.logger.Error(ctx, "storing message failed", "error", err)
		return nil, common.ErrorInternal
	}

	return &SendResult{Message: msg, UploadURL: uploadURL}, nil
}

// List returns messages of chatID created after since, oldest first.
func (s *MessageService) List(ctx context.Context, chatID string, since time.Time, limit int) ([]*models.Message, error) {
	if err := validateChatID(chatID); err != nil {
		return nil, err
	}
	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}

	msgs, err := s.repomanager.Messages(s.db).ListByChat(ctx, chatID, since, limit)
	if err != nil {
		s.logger.Error(ctx, "listing messages failed", "error", err)
		return nil, common.ErrorInternal
	}
	return msgs, nil
}

// MarkUploaded records that the sender finished uploading the attachment.
func (s *MessageService) MarkUploaded(ctx context.Context, userName, messageID string) error {
	msg, err := s.get(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.Sender != userName {
		return common.ErrorForbidden
	}
	if msg.Attachment == nil {
		return common.ErrorNotFound
	}
	if err := s.repomanager.Messages(s.db).MarkUploaded(ctx, messageID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		s.logger.Error(ctx, "marking attachment uploaded failed", "error", err)
		return common.ErrorInternal
	}
	return nil
}

// AttachmentURL returns a presigned download URL for an uploaded attachment.
func (s *MessageService) AttachmentURL(ctx context.Context, messageID string) (string, error) {
	msg, err := s.get(ctx, messageID)
	if err != nil {
		return "", err
	}
	if msg.Attachment == nil || msg.Attachment.UploadStatus != models.UploadStatusUploaded {
		return "", common.ErrorNotFound
	}
	url, err := s.storage.PresignGet(ctx, msg.Attachment.StorageKey)
	if err != nil {
		s.logger.Error(ctx, "presigning download failed", "error", err)
		return "", common.ErrorInternal
	}
	return url, nil
}

func (s *MessageService) get(ctx context.Context, messageID string) (*models.Message, error) {
	if _, err := uuid.Parse(messageID); err != nil {
		return nil, common.ErrorNotFound
	}
	msg, err := s.repomanager.Messages(s.db).GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		s.logger.Error(ctx, "loading message failed", "error", err)
		return nil, common.ErrorInternal
	}
	return msg, nil
}
