package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// parseEnv overlays TOTY_* variables. MONGODB_URL and DATABASE_NAME are
// honoured as fallbacks for deployments configured for the older Mongo-only
// backend.
//
//	TOTY_HTTP_ADDR                  REST bind address
//	TOTY_DATABASE_DSN               PostgreSQL DSN
//	TOTY_CREDENTIAL_STORE_DSN       credential store DSN (postgres:// or mongodb://)
//	TOTY_MONGO_DATABASE             Mongo database name
//	TOTY_SECRET_KEY                 token signing secret
//	TOTY_ACCESS_TOKEN_TTL_MINUTES   token lifetime, minutes
//	TOTY_ALLOWED_ORIGINS            comma separated CORS origins
//	TOTY_LOG_LEVEL                  debug|info|warn|error
//	TOTY_S3_ACCESS_KEY, TOTY_S3_SECRET_KEY, TOTY_S3_BUCKET, TOTY_S3_REGION, TOTY_S3_ENDPOINT
//	TOTY_SMTP_HOST, TOTY_SMTP_PORT, TOTY_SMTP_USER, TOTY_SMTP_PASSWORD, TOTY_SMTP_FROM, TOTY_SMTP_SECURITY
//	TOTY_LOGIN_RATE_PER_MINUTE, TOTY_LOGIN_RATE_BURST
//	TOTY_TRUST_PROXY_HEADERS        true|false
func parseEnv(c *Config, lookup LookupFunc) error {
	get := func(key string) string {
		v, ok := lookup(key)
		if !ok {
			return ""
		}
		return strings.TrimSpace(v)
	}

	setString(&c.CredentialStoreDSN, get("MONGODB_URL"))
	setString(&c.MongoDatabase, get("DATABASE_NAME"))

	setString(&c.HTTPAddr, get("TOTY_HTTP_ADDR"))
	setString(&c.DatabaseDSN, get("TOTY_DATABASE_DSN"))
	setString(&c.CredentialStoreDSN, get("TOTY_CREDENTIAL_STORE_DSN"))
	setString(&c.MongoDatabase, get("TOTY_MONGO_DATABASE"))
	setString(&c.SecretKey, get("TOTY_SECRET_KEY"))
	setString(&c.LogLevel, get("TOTY_LOG_LEVEL"))

	if v := get("TOTY_ACCESS_TOKEN_TTL_MINUTES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: TOTY_ACCESS_TOKEN_TTL_MINUTES: %w", err)
		}
		c.AccessTokenValidityDuration = time.Duration(n) * time.Minute
	}
	if v := get("TOTY_ALLOWED_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.AllowedOrigins = origins
	}

	setString(&c.S3AccessKey, get("TOTY_S3_ACCESS_KEY"))
	setString(&c.S3SecretKey, get("TOTY_S3_SECRET_KEY"))
	setString(&c.S3Bucket, get("TOTY_S3_BUCKET"))
	setString(&c.S3Region, get("TOTY_S3_REGION"))
	setString(&c.S3BaseEndpoint, get("TOTY_S3_ENDPOINT"))

	setString(&c.SMTPHost, get("TOTY_SMTP_HOST"))
	setString(&c.SMTPPort, get("TOTY_SMTP_PORT"))
	setString(&c.SMTPUser, get("TOTY_SMTP_USER"))
	setString(&c.SMTPPassword, get("TOTY_SMTP_PASSWORD"))
	setString(&c.SMTPFrom, get("TOTY_SMTP_FROM"))
	setString(&c.SMTPSecurity, get("TOTY_SMTP_SECURITY"))

	if v := get("TOTY_TRUST_PROXY_HEADERS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: TOTY_TRUST_PROXY_HEADERS: %w", err)
		}
		c.TrustProxyHeaders = b
	}

	for key, dst := range map[string]*int{
		"TOTY_LOGIN_RATE_PER_MINUTE": &c.LoginRatePerMinute,
		"TOTY_LOGIN_RATE_BURST":      &c.LoginRateBurst,
	} {
		if v := get(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				return fmt.Errorf("config: %s must be a positive integer", key)
			}
			*dst = n
		}
	}
	return nil
}
