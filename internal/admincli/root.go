// Package admincli implements totyctl, the operator command line for
// managing Totymark accounts directly against the stores.
package admincli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/totymark/totymark/internal/logging"
	"github.com/totymark/totymark/internal/server/auth"
	"github.com/totymark/totymark/internal/server/config"
	"github.com/totymark/totymark/internal/server/models"
	"github.com/totymark/totymark/internal/server/repositories/repomanager"
	"github.com/totymark/totymark/internal/server/repositories/users"
	"github.com/totymark/totymark/internal/server/services"
)

// UserAdmin is the subset of the user service the CLI drives.
type UserAdmin interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.User, error)
	SetActive(ctx context.Context, userName string, active bool) error
}

// Opener connects to the stores named by the config file at path (may be
// empty) and returns a UserAdmin plus a release function.
type Opener func(ctx context.Context, path string) (UserAdmin, func(), error)

type Env struct {
	In   io.Reader
	Out  io.Writer
	Err  io.Writer
	Open Opener
}

func DefaultEnv() *Env {
	return &Env{In: os.Stdin, Out: os.Stdout, Err: os.Stderr, Open: openStores}
}

func NewRootCmd(env *Env) *cobra.Command {
	var cfgPath string

	root := &cobra.Command{
		Use:           "totyctl",
		Short:         "Administer Totymark accounts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(env.In)
	root.SetOut(env.Out)
	root.SetErr(env.Err)
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "Path to a JSON or YAML config file")

	root.AddCommand(newUsersCmd(env, &cfgPath))
	root.AddCommand(newHashCmd(env))
	return root
}

// Execute runs totyctl with args and returns the process exit code.
func Execute(ctx context.Context, env *Env, args []string) int {
	root := NewRootCmd(env)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(env.Err, "Error:", err)
		return 1
	}
	return 0
}

var errNoDSN = errors.New("database DSN is not configured (TOTY_DATABASE_DSN)")

func openStores(ctx context.Context, path string) (UserAdmin, func(), error) {
	var args []string
	if path != "" {
		args = []string{"-c", path}
	}
	cfg, err := config.Load(args, os.LookupEnv)
	if err != nil {
		return nil, nil, err
	}
	if cfg.DatabaseDSN == "" && !cfg.UsesMongoCredentials() {
		return nil, nil, errNoDSN
	}

	logger := logging.NewJSON(os.Stderr, cfg.LogLevel)
	var (
		repo    users.Repository
		release func()
	)

	if cfg.UsesMongoCredentials() {
		client, mrepo, err := repomanager.OpenMongoUsers(ctx, cfg.CredentialDSN(), cfg.MongoDatabase)
		if err != nil {
			return nil, nil, err
		}
		repo = mrepo
		release = func() { _ = client.Disconnect(context.Background()) }
	} else {
		db, err := repomanager.OpenPostgres(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, nil, err
		}
		rm := repomanager.NewPostgresRepositoryManager()
		if err := rm.RunMigrations(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		repo = rm.Users(db)
		release = func() { _ = db.Close() }
	}

	hasher, err := auth.NewHasher(auth.DefaultArgon)
	if err != nil {
		release()
		return nil, nil, err
	}
	// Token issuance is not needed for account administration.
	return services.NewUserService(repo, hasher, nil, logger), release, nil
}
