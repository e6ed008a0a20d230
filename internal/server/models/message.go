package models

import "time"

type Message struct {
	ID         string
	ChatID     string
	Sender     string
	Body       string
	CreatedAt  time.Time
	Attachment *Attachment
}

const (
	UploadStatusPending  = "pending"
	UploadStatusUploaded = "uploaded"
)

// Attachment points at a message's binary payload in object storage.
type Attachment struct {
	MessageID    string
	StorageKey   string
	ContentType  string
	UploadStatus string
}
