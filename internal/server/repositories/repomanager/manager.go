// Package repomanager vends repository implementations bound to a database
// handle or transaction, and runs schema migrations.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/totymark/totymark/internal/dbx"
	"github.com/totymark/totymark/internal/server/repositories/messages"
	"github.com/totymark/totymark/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Messages(db dbx.DBTX) messages.Repository
}
