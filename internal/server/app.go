// Package server wires the Totymark API together: it opens the stores,
// applies migrations, builds the services and runs the HTTP server until a
// termination signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/totymark/totymark/internal/logging"
	"github.com/totymark/totymark/internal/server/auth"
	"github.com/totymark/totymark/internal/server/config"
	"github.com/totymark/totymark/internal/server/notify"
	"github.com/totymark/totymark/internal/server/repositories/repomanager"
	"github.com/totymark/totymark/internal/server/repositories/users"
	"github.com/totymark/totymark/internal/server/rest"
	"github.com/totymark/totymark/internal/server/services"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	mongo  *mongo.Client
	server *rest.Server
}

// NewApp validates the configuration and acquires every resource the server
// needs. Resources acquired before a failure are released.
func NewApp(ctx context.Context, c *config.Config) (app *App, err error) {
	logger := logging.NewJSON(os.Stdout, c.LogLevel)

	if err := c.Validate(); err != nil {
		return nil, err
	}

	app = &App{config: c, logger: logger}
	defer func() {
		if err != nil {
			app.Close()
		}
	}()

	app.db, err = repomanager.OpenPostgres(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, app.db); err != nil {
		return nil, fmt.Errorf("db migrations error: %w", err)
	}

	var userRepo users.Repository = rm.Users(app.db)
	if c.UsesMongoCredentials() {
		client, repo, err := repomanager.OpenMongoUsers(ctx, c.CredentialDSN(), c.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("mongo init error: %w", err)
		}
		app.mongo = client
		userRepo = repo
		logger.Info(ctx, "credential store: mongodb", "database", c.MongoDatabase)
	}

	hasher, err := auth.NewHasher(auth.DefaultArgon)
	if err != nil {
		return nil, fmt.Errorf("hasher init error: %w", err)
	}
	tokens, err := auth.NewTokenService([]byte(c.SecretKey), c.AccessTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("token service init error: %w", err)
	}

	storage, err := services.NewS3Storage(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("object storage init error: %w", err)
	}

	us := services.NewUserService(userRepo, hasher, tokens, logger)
	ms := services.NewMessageService(app.db, rm, storage, logger)
	ns := services.NewNotificationService(notify.NewMailer(notify.SMTPConfigFrom(c), logger), logger)

	app.server = rest.NewServer(rest.Options{
		Address:            c.HTTPAddr,
		AllowedOrigins:     c.AllowedOrigins,
		LoginRatePerMinute: c.LoginRatePerMinute,
		LoginRateBurst:     c.LoginRateBurst,
		TrustProxyHeaders:  c.TrustProxyHeaders,
	}, logger, us, ms, ns, app.healthCheck)

	return app, nil
}

func (app *App) healthCheck(ctx context.Context) error {
	if err := app.db.PingContext(ctx); err != nil {
		return err
	}
	if app.mongo != nil {
		return app.mongo.Ping(ctx, readpref.Primary())
	}
	return nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves HTTP until ctx is cancelled or a termination signal arrives,
// then releases the stores.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	err := app.server.Run(ctx)
	if err != nil {
		app.logger.Error(ctx, "http server failed", "error", err)
	}

	app.Close()
	app.logger.Info(context.Background(), "App stopped")
	return err
}

// Close releases the store handles. It is safe to call more than once.
func (app *App) Close() {
	if app.mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := app.mongo.Disconnect(ctx); err != nil {
			app.logger.Warn(ctx, "mongo disconnect failed", "error", err)
		}
		cancel()
		app.mongo = nil
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Warn(context.Background(), "db close failed", "error", err)
		}
		app.db = nil
	}
}
