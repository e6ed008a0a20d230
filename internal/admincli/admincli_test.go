package admincli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/totymark/totymark/internal/common"
	"github.com/totymark/totymark/internal/server/models"
	"github.com/totymark/totymark/internal/server/services"
)

type fakeAdmin struct {
	registered []services.RegisterInput
	regErr     error
	active     map[string]bool
	setErr     error
}

func (f *fakeAdmin) Register(ctx context.Context, in services.RegisterInput) (*models.User, error) {
	if f.regErr != nil {
		return nil, f.regErr
	}
	f.registered = append(f.registered, in)
	return &models.User{ID: "42", UserName: in.UserName}, nil
}

func (f *fakeAdmin) SetActive(ctx context.Context, userName string, active bool) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.active[userName] = active
	return nil
}

type harness struct {
	env      *Env
	admin    *fakeAdmin
	out, err *bytes.Buffer
	cfgPath  string
	released int
}

func newHarness(stdin string) *harness {
	h := &harness{admin: &fakeAdmin{active: map[string]bool{}}, out: &bytes.Buffer{}, err: &bytes.Buffer{}}
	h.env = &Env{
		In:  strings.NewReader(stdin),
		Out: h.out,
		Err: h.err,
		Open: func(ctx context.Context, path string) (UserAdmin, func(), error) {
			h.cfgPath = path
			return h.admin, func() { h.released++ }, nil
		},
	}
	return h
}

func stubPasswords(t *testing.T, answers ...string) {
	t.Helper()
	orig := readPassword
	t.Cleanup(func() { readPassword = orig })
	readPassword = func(fd int) ([]byte, error) {
		if len(answers) == 0 {
			return nil, errors.New("no more input")
		}
		a := answers[0]
		answers = answers[1:]
		return []byte(a), nil
	}
}

func TestUsersCreate_PasswordStdin(t *testing.T) {
	h := newHarness("s3cret-pass\n")

	code := Execute(context.Background(), h.env, []string{
		"-c", "/etc/toty.yaml", "users", "create", "--username", "alice", "--email", "a@example.com", "--password-stdin",
	})
	require.Equal(t, 0, code, h.err.String())

	require.Len(t, h.admin.registered, 1)
	assert.Equal(t, "s3cret-pass", h.admin.registered[0].Password)
	assert.Equal(t, "/etc/toty.yaml", h.cfgPath)
	assert.Equal(t, 1, h.released)
	assert.Contains(t, h.out.String(), "created user alice (id 42)")
}

func TestUsersCreate_Prompt(t *testing.T) {
	h := newHarness("")
	stubPasswords(t, "hunter2hunter2", "hunter2hunter2")

	code := Execute(context.Background(), h.env, []string{"users", "create", "--username", "bob", "--email", "b@example.com"})
	require.Equal(t, 0, code, h.err.String())
	assert.Equal(t, "hunter2hunter2", h.admin.registered[0].Password)
	assert.Contains(t, h.err.String(), "Repeat password: ")
}

func TestUsersCreate_Errors(t *testing.T) {
	t.Run("mismatch", func(t *testing.T) {
		h := newHarness("")
		stubPasswords(t, "one-password", "another-one")
		code := Execute(context.Background(), h.env, []string{"users", "create", "--username", "bob", "--email", "b@example.com"})
		assert.Equal(t, 1, code)
		assert.Contains(t, h.err.String(), "passwords do not match")
		assert.Empty(t, h.admin.registered)
	})

	t.Run("missing flags", func(t *testing.T) {
		h := newHarness("pw\n")
		code := Execute(context.Background(), h.env, []string{"users", "create", "--password-stdin"})
		assert.Equal(t, 1, code)
		assert.Contains(t, h.err.String(), "--username and --email are required")
	})

	t.Run("duplicate", func(t *testing.T) {
		h := newHarness("pw-long-enough\n")
		h.admin.regErr = common.ErrDuplicateUsername
		code := Execute(context.Background(), h.env, []string{"users", "create", "--username", "bob", "--email", "b@example.com", "--password-stdin"})
		assert.Equal(t, 1, code)
		assert.Contains(t, h.err.String(), "username already registered")
	})

	t.Run("validation", func(t *testing.T) {
		h := newHarness("short\n")
		h.admin.regErr = &common.ValidationError{Reason: "password must be at least 8 characters"}
		code := Execute(context.Background(), h.env, []string{"users", "create", "--username", "bob", "--email", "b@example.com", "--password-stdin"})
		assert.Equal(t, 1, code)
		assert.Contains(t, h.err.String(), "password must be at least 8 characters")
	})

	t.Run("empty stdin", func(t *testing.T) {
		h := newHarness("")
		code := Execute(context.Background(), h.env, []string{"users", "create", "--username", "bob", "--email", "b@example.com", "--password-stdin"})
		assert.Equal(t, 1, code)
		assert.Contains(t, h.err.String(), "empty password")
	})
}

func TestUsersActivateDeactivate(t *testing.T) {
	h := newHarness("")

	require.Equal(t, 0, Execute(context.Background(), h.env, []string{"users", "deactivate", "carol"}))
	assert.False(t, h.admin.active["carol"])
	assert.Contains(t, h.out.String(), "deactivated carol")

	require.Equal(t, 0, Execute(context.Background(), h.env, []string{"users", "activate", "carol"}))
	assert.True(t, h.admin.active["carol"])

	h.admin.setErr = common.ErrorNotFound
	assert.Equal(t, 1, Execute(context.Background(), h.env, []string{"users", "activate", "nobody"}))
	assert.Contains(t, h.err.String(), "no such user")

	assert.Equal(t, 1, Execute(context.Background(), h.env, []string{"users", "activate"}))
}

func TestHash(t *testing.T) {
	h := newHarness("pw123\n")

	require.Equal(t, 0, Execute(context.Background(), h.env, []string{"hash", "--password-stdin"}))
	assert.True(t, strings.HasPrefix(h.out.String(), "$argon2id$v=19$m=65536,t=3,p=1$"))
	assert.NotContains(t, h.out.String(), "pw123")
}

func TestReadLine(t *testing.T) {
	s, err := readLine(strings.NewReader("no newline"))
	require.NoError(t, err)
	assert.Equal(t, "no newline", s)

	s, err = readLine(strings.NewReader("crlf\r\nrest"))
	require.NoError(t, err)
	assert.Equal(t, "crlf", s)

	_, err = readLine(strings.NewReader("\n"))
	assert.ErrorIs(t, err, errEmptyPassword)
}
