package rest

import (
	"encoding/json"
	"time"

	"github.com/totymark/totymark/internal/server/models"
)

type detailResponse struct {
	Detail string `json:"detail"`
}

type messageResponseRoot struct {
	Message string `json:"message"`
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
}

type userResponse struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	FullName  string     `json:"full_name,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	LastSeen  *time.Time `json:"last_seen,omitempty"`
	IsActive  bool       `json:"is_active"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Username:  u.UserName,
		Email:     u.Email,
		FullName:  u.FullName,
		CreatedAt: u.CreatedAt,
		LastSeen:  u.LastSeen,
		IsActive:  u.Active,
	}
}

type sendMessageRequest struct {
	Body                  string `json:"body"`
	AttachmentContentType string `json:"attachment_content_type,omitempty"`
}

type attachmentResponse struct {
	ContentType  string `json:"content_type"`
	UploadStatus string `json:"upload_status"`
}

type messageResponse struct {
	ID         string              `json:"id"`
	ChatID     string              `json:"chat_id"`
	Sender     string              `json:"sender"`
	Body       string              `json:"body"`
	CreatedAt  time.Time           `json:"created_at"`
	Attachment *attachmentResponse `json:"attachment,omitempty"`
	UploadURL  string              `json:"upload_url,omitempty"`
}

func toMessageResponse(m *models.Message) messageResponse {
	out := messageResponse{
		ID:        m.ID,
		ChatID:    m.ChatID,
		Sender:    m.Sender,
		Body:      m.Body,
		CreatedAt: m.CreatedAt,
	}
	if m.Attachment != nil {
		out.Attachment = &attachmentResponse{
			ContentType:  m.Attachment.ContentType,
			UploadStatus: m.Attachment.UploadStatus,
		}
	}
	return out
}

type listMessagesResponse struct {
	Messages []messageResponse `json:"messages"`
}

type downloadResponse struct {
	DownloadURL string `json:"download_url"`
}

type paymentRequest struct {
	PayerName string      `json:"payer_name"`
	Amount    json.Number `json:"amount"`
	Currency  string      `json:"currency"`
	Reference string      `json:"reference,omitempty"`
	Email     string      `json:"email,omitempty"`
	Phone     string      `json:"phone,omitempty"`
}

type notificationResponse struct {
	Emailed     bool   `json:"emailed"`
	WhatsAppURL string `json:"whatsapp_url,omitempty"`
}
