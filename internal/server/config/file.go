package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/totymark/totymark/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of the configuration. It is decoded from
// JSON or YAML depending on the file extension and then merged over the
// defaults; fields left empty in the file keep their current value.
type FileConfig struct {
	HTTPAddr                    string         `json:"http_addr" yaml:"http_addr"`
	DatabaseDSN                 string         `json:"database_dsn" yaml:"database_dsn"`
	CredentialStoreDSN          string         `json:"credential_store_dsn" yaml:"credential_store_dsn"`
	MongoDatabase               string         `json:"mongo_database" yaml:"mongo_database"`
	SecretKey                   string         `json:"secret_key" yaml:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration" yaml:"access_token_validity_duration"`
	AllowedOrigins              []string       `json:"allowed_origins" yaml:"allowed_origins"`
	LogLevel                    string         `json:"log_level" yaml:"log_level"`

	S3AccessKey    string `json:"s3_access_key" yaml:"s3_access_key"`
	S3SecretKey    string `json:"s3_secret_key" yaml:"s3_secret_key"`
	S3Bucket       string `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region       string `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint string `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`

	SMTPHost     string `json:"smtp_host" yaml:"smtp_host"`
	SMTPPort     string `json:"smtp_port" yaml:"smtp_port"`
	SMTPUser     string `json:"smtp_user" yaml:"smtp_user"`
	SMTPPassword string `json:"smtp_password" yaml:"smtp_password"`
	SMTPFrom     string `json:"smtp_from" yaml:"smtp_from"`
	SMTPSecurity string `json:"smtp_security" yaml:"smtp_security"`

	LoginRatePerMinute int `json:"login_rate_per_minute" yaml:"login_rate_per_minute"`
	LoginRateBurst     int `json:"login_rate_burst" yaml:"login_rate_burst"`

	TrustProxyHeaders *bool `json:"trust_proxy_headers" yaml:"trust_proxy_headers"`
}

func parseFile(config *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	fc := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, fc)
	default:
		err = json.Unmarshal(data, fc)
	}
	if err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	fc.apply(config)
	return nil
}

func (fc *FileConfig) apply(c *Config) {
	setString(&c.HTTPAddr, fc.HTTPAddr)
	setString(&c.DatabaseDSN, fc.DatabaseDSN)
	setString(&c.CredentialStoreDSN, fc.CredentialStoreDSN)
	setString(&c.MongoDatabase, fc.MongoDatabase)
	setString(&c.SecretKey, fc.SecretKey)
	if fc.AccessTokenValidityDuration.Duration != 0 {
		c.AccessTokenValidityDuration = fc.AccessTokenValidityDuration.Duration
	}
	if len(fc.AllowedOrigins) > 0 {
		c.AllowedOrigins = fc.AllowedOrigins
	}
	setString(&c.LogLevel, fc.LogLevel)

	setString(&c.S3AccessKey, fc.S3AccessKey)
	setString(&c.S3SecretKey, fc.S3SecretKey)
	setString(&c.S3Bucket, fc.S3Bucket)
	setString(&c.S3Region, fc.S3Region)
	setString(&c.S3BaseEndpoint, fc.S3BaseEndpoint)

	setString(&c.SMTPHost, fc.SMTPHost)
	setString(&c.SMTPPort, fc.SMTPPort)
	setString(&c.SMTPUser, fc.SMTPUser)
	setString(&c.SMTPPassword, fc.SMTPPassword)
	setString(&c.SMTPFrom, fc.SMTPFrom)
	setString(&c.SMTPSecurity, fc.SMTPSecurity)

	if fc.LoginRatePerMinute > 0 {
		c.LoginRatePerMinute = fc.LoginRatePerMinute
	}
	if fc.LoginRateBurst > 0 {
		c.LoginRateBurst = fc.LoginRateBurst
	}
	if fc.TrustProxyHeaders != nil {
		c.TrustProxyHeaders = *fc.TrustProxyHeaders
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
