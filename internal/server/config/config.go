// Package config handles configuration for the API server: defaults, an
// optional JSON or YAML file, and environment variables, applied in that
// order.
package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/totymark/totymark/internal/flagx"
)

// Config holds runtime settings for the Totymark server.
//
// Fields:
//   - HTTPAddr: bind address for the REST API.
//   - DatabaseDSN: PostgreSQL DSN (pgx) for messages and, by default, credentials.
//   - CredentialStoreDSN: overrides where credentials live; a mongodb:// URI
//     selects the MongoDB credential store.
//   - SecretKey: HMAC secret for signing access tokens (HS256). Has no default.
//   - AccessTokenValidityDuration: fixed lifetime of every issued token.
//   - S3*: object storage for message attachments.
//   - SMTP*: outbound mail for payment notifications; empty host disables mail.
//   - TrustProxyHeaders: take the client IP from X-Forwarded-For when rate limiting.
type Config struct {
	HTTPAddr                    string
	DatabaseDSN                 string
	CredentialStoreDSN          string
	MongoDatabase               string
	SecretKey                   string
	AccessTokenValidityDuration time.Duration
	AllowedOrigins              []string
	LogLevel                    string

	S3AccessKey    string
	S3SecretKey    string
	S3Bucket       string
	S3Region       string
	S3BaseEndpoint string

	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string
	SMTPSecurity string

	LoginRatePerMinute int
	LoginRateBurst     int
	TrustProxyHeaders  bool
}

// LoadDefaults populates Config with non-secret development defaults.
// Secrets and connection strings are intentionally left empty.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":8000"
	c.MongoDatabase = "totymark"
	c.AccessTokenValidityDuration = 30 * time.Minute
	c.AllowedOrigins = []string{"*"}
	c.LogLevel = "info"
	c.S3Bucket = "attachments"
	c.S3Region = "us-east-1"
	c.SMTPPort = "587"
	c.SMTPSecurity = "starttls"
	c.LoginRatePerMinute = 10
	c.LoginRateBurst = 5
}

var (
	ErrMissingSecret = errors.New("config: secret key is required")
	ErrMissingDSN    = errors.New("config: database DSN is required")
	ErrInvalidTTL    = errors.New("config: access token validity must be positive")
)

// Validate reports settings the server cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.SecretKey) == "" {
		errs = append(errs, ErrMissingSecret)
	}
	if c.DatabaseDSN == "" {
		errs = append(errs, ErrMissingDSN)
	}
	if c.AccessTokenValidityDuration <= 0 {
		errs = append(errs, ErrInvalidTTL)
	}
	return errors.Join(errs...)
}

// CredentialDSN returns the DSN of the credential store, falling back to the
// main database.
func (c *Config) CredentialDSN() string {
	if c.CredentialStoreDSN != "" {
		return c.CredentialStoreDSN
	}
	return c.DatabaseDSN
}

// UsesMongoCredentials reports whether credentials live in MongoDB.
func (c *Config) UsesMongoCredentials() bool {
	dsn := c.CredentialDSN()
	return strings.HasPrefix(dsn, "mongodb://") || strings.HasPrefix(dsn, "mongodb+srv://")
}

// LoadConfig builds a Config from defaults, then the file named by -c/-config
// (if any), then the process environment.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:], os.LookupEnv)
}

// Load is LoadConfig with explicit inputs.
func Load(args []string, lookup LookupFunc) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if path := flagx.ConfigPath(args); path != "" {
		if err := parseFile(cfg, path); err != nil {
			return nil, err
		}
	}
	if err := parseEnv(cfg, lookup); err != nil {
		return nil, err
	}
	return cfg, nil
}
