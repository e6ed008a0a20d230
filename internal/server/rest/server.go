// Package rest is the HTTP boundary of the Totymark API: routing, bearer
// authentication, login throttling and the JSON encoding of every endpoint.
package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/totymark/totymark/internal/logging"
	"github.com/totymark/totymark/internal/server/auth"
	"github.com/totymark/totymark/internal/server/models"
	"github.com/totymark/totymark/internal/server/services"
)

type UserService interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.User, error)
	Login(ctx context.Context, userName, password string) (*services.AccessToken, error)
	Authenticate(ctx context.Context, token string) (auth.Principal, error)
	Profile(ctx context.Context, userName string) (*models.User, error)
}

type MessageService interface {
	Send(ctx context.Context, in services.SendInput) (*services.SendResult, error)
	List(ctx context.Context, chatID string, since time.Time, limit int) ([]*models.Message, error)
	MarkUploaded(ctx context.Context, userName, messageID string) error
	AttachmentURL(ctx context.Context, messageID string) (string, error)
}

type NotificationService interface {
	NotifyPayment(ctx context.Context, sender string, n models.PaymentNotification) (*services.NotificationReceipt, error)
}

// HealthCheck reports whether the backing stores are reachable.
type HealthCheck func(ctx context.Context) error

type Options struct {
	Address            string
	AllowedOrigins     []string
	LoginRatePerMinute int
	LoginRateBurst     int
	TrustProxyHeaders  bool
}

const (
	shutdownTimeout = 10 * time.Second
	maxBodyBytes    = 1 << 20
)

type Server struct {
	opts          Options
	users         UserService
	messages      MessageService
	notifications NotificationService
	health        HealthCheck
	logger        logging.Logger
	metrics       *Metrics
	ipLimiter     *multiLimiter
	userLimiter   *multiLimiter
	handler       http.Handler
}

func NewServer(opts Options, l logging.Logger, us UserService, ms MessageService, ns NotificationService, health HealthCheck) *Server {
	perMinute, burst := opts.LoginRatePerMinute, opts.LoginRateBurst
	if perMinute <= 0 {
		perMinute = 10
	}
	if burst <= 0 {
		burst = 5
	}

	s := &Server{
		opts:          opts,
		users:         us,
		messages:      ms,
		notifications: ns,
		health:        health,
		logger:        l.With("module", "rest_server"),
		metrics:       NewMetrics(),
		ipLimiter:     newMultiLimiter(perMinute, burst, 15*time.Minute),
		userLimiter:   newMultiLimiter(perMinute, burst, 15*time.Minute),
	}
	s.handler = s.routes()
	return s
}

// Handler returns the fully wrapped router.
func (s *Server) Handler() http.Handler { return s.handler }

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Address,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		<-ctx.Done()
		s.logger.Info(context.Background(), "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		errCh <- srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.opts.Address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return <-errCh
}
