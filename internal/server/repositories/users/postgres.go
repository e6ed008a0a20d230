package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/totymark/totymark/internal/common"
	"github.com/totymark/totymark/internal/dbx"
	"github.com/totymark/totymark/internal/server/models"
)

const pgUniqueViolation = "23505"

// PostgresRepository implements Repository over dbx.DBTX (satisfied by
// *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (username, email, full_name, password_hash, is_active)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.UserName, user.Email, user.FullName, user.PasswordHash, user.Active).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, common.ErrDuplicateUsername
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetUserByLogin(ctx context.Context, userName string) (*models.User, error) {
	query :=
		`SELECT id, username, email, full_name, password_hash, created_at, last_seen, is_active FROM users
		 WHERE username = $1
		 `

	user := &models.User{}
	var lastSeen sql.NullTime
	err := r.db.QueryRowContext(ctx, query, userName).Scan(
		&user.ID, &user.UserName, &user.Email, &user.FullName, &user.PasswordHash,
		&user.CreatedAt, &lastSeen, &user.Active)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if lastSeen.Valid {
		user.LastSeen = &lastSeen.Time
	}

	return user, nil
}

func (r *PostgresRepository) SetActive(ctx context.Context, userName string, active bool) error {
	query :=
		`UPDATE users SET is_active = $2
		 WHERE username = $1
		 `
	return r.execOne(ctx, query, userName, active)
}

func (r *PostgresRepository) TouchLastSeen(ctx context.Context, userName string, at time.Time) error {
	query :=
		`UPDATE users SET last_seen = $2
		 WHERE username = $1
		 `
	return r.execOne(ctx, query, userName, at)
}

func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
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
