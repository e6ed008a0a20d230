package services

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/totymark/totymark/internal/common"
	"github.com/totymark/totymark/internal/dbx"
	"github.com/totymark/totymark/internal/server/models"
	"github.com/totymark/totymark/internal/server/repositories/messages"
	"github.com/totymark/totymark/internal/server/repositories/users"
)

type fakeUsers struct {
	mu      sync.Mutex
	byName  map[string]*models.User
	failErr error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byName: map[string]*models.User{}}
}

func (f *fakeUsers) Create(ctx context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return nil, f.failErr
	}
	if _, ok := f.byName[u.UserName]; ok {
		return nil, common.ErrDuplicateUsername
	}
	cp := *u
	cp.ID = "id-" + u.UserName
	cp.CreatedAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	f.byName[u.UserName] = &cp
	out := cp
	return &out, nil
}

func (f *fakeUsers) GetUserByLogin(ctx context.Context, login string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return nil, f.failErr
	}
	u, ok := f.byName[login]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) SetActive(ctx context.Context, login string, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return f.failErr
	}
	u, ok := f.byName[login]
	if !ok {
		return common.ErrorNotFound
	}
	u.Active = active
	return nil
}

func (f *fakeUsers) TouchLastSeen(ctx context.Context, login string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return f.failErr
	}
	u, ok := f.byName[login]
	if !ok {
		return common.ErrorNotFound
	}
	u.LastSeen = &at
	return nil
}

var _ users.Repository = (*fakeUsers)(nil)

type fakeMessages struct {
	mu        sync.Mutex
	msgs      map[string]*models.Message
	seq       int
	createErr error
	attErr    error
	getErr    error
}

func newFakeMessages() *fakeMessages {
	return &fakeMessages{msgs: map[string]*models.Message{}}
}

func (f *fakeMessages) Create(ctx context.Context, m *models.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.seq++
	m.CreatedAt = time.Date(2025, 1, 1, 0, 0, f.seq, 0, time.UTC)
	cp := *m
	cp.Attachment = nil
	f.msgs[m.ID] = &cp
	return nil
}

func (f *fakeMessages) CreateAttachment(ctx context.Context, a *models.Attachment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.attErr != nil {
		return f.attErr
	}
	m, ok := f.msgs[a.MessageID]
	if !ok {
		return errors.New("fk violation")
	}
	cp := *a
	m.Attachment = &cp
	return nil
}

func (f *fakeMessages) GetByID(ctx context.Context, id string) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	m, ok := f.msgs[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return clone(m), nil
}

func (f *fakeMessages) ListByChat(ctx context.Context, chatID string, since time.Time, limit int) ([]*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Message
	for _, m := range f.msgs {
		if m.ChatID == chatID && m.CreatedAt.After(since) {
			out = append(out, clone(m))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeMessages) MarkUploaded(ctx context.Context, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.msgs[messageID]
	if !ok || m.Attachment == nil {
		return common.ErrorNotFound
	}
	m.Attachment.UploadStatus = models.UploadStatusUploaded
	return nil
}

func clone(m *models.Message) *models.Message {
	cp := *m
	if m.Attachment != nil {
		a := *m.Attachment
		cp.Attachment = &a
	}
	return &cp
}

var _ messages.Repository = (*fakeMessages)(nil)

type fakeRepoManager struct {
	users    *fakeUsers
	messages *fakeMessages
}

func (f *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (f *fakeRepoManager) Users(dbx.DBTX) users.Repository              { return f.users }
func (f *fakeRepoManager) Messages(dbx.DBTX) messages.Repository        { return f.messages }

type fakeStorage struct {
	putKey, putType string
	getKey          string
	err             error
}

func (f *fakeStorage) PresignPut(ctx context.Context, key, contentType string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.putKey, f.putType = key, contentType
	return "https://s3.test/put/" + key, nil
}

func (f *fakeStorage) PresignGet(ctx context.Context, key string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.getKey = key
	return "https://s3.test/get/" + key, nil
}

type fakeMailer struct {
	enabled bool
	err     error
	sent    []sentMail
}

type sentMail struct{ to, subject, body string }

func (f *fakeMailer) Enabled() bool { return f.enabled }

func (f *fakeMailer) Send(ctx context.Context, to, subject, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to, subject, body})
	return nil
}
