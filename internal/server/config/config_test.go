package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, ":8000", c.HTTPAddr)
	assert.Equal(t, 30*time.Minute, c.AccessTokenValidityDuration)
	assert.Empty(t, c.SecretKey, "no secret may be defaulted")
	assert.Empty(t, c.DatabaseDSN)
	assert.Empty(t, c.SMTPPassword)
	assert.Equal(t, []string{"*"}, c.AllowedOrigins)
}

func TestValidate(t *testing.T) {
	var c Config
	c.LoadDefaults()

	err := c.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingSecret)
	assert.ErrorIs(t, err, ErrMissingDSN)
	assert.NotErrorIs(t, err, ErrInvalidTTL)

	c.SecretKey = "s"
	c.DatabaseDSN = "postgres://x"
	c.AccessTokenValidityDuration = 0
	assert.ErrorIs(t, c.Validate(), ErrInvalidTTL)

	c.AccessTokenValidityDuration = time.Minute
	assert.NoError(t, c.Validate())
}

func TestLoad_DefaultsOnly(t *testing.T) {
	c, err := Load(nil, envMap(nil))
	require.NoError(t, err)

	want := &Config{}
	want.LoadDefaults()
	assert.Empty(t, cmp.Diff(want, c))
}

func TestLoad_JSONFileThenEnv(t *testing.T) {
	raw, err := json.Marshal(map[string]any{
		"http_addr":                      "127.0.0.1:9000",
		"database_dsn":                   "postgres://file",
		"secret_key":                     "file-secret",
		"access_token_validity_duration": "15m",
		"allowed_origins":                []string{"https://app.example"},
		"smtp_host":                      "smtp.example",
		"smtp_from":                      "noreply@example",
	})
	require.NoError(t, err)
	path := writeTemp(t, "cfg.json", raw)

	c, err := Load([]string{"-c", path}, envMap(map[string]string{
		"TOTY_SECRET_KEY":               "env-secret",
		"TOTY_ACCESS_TOKEN_TTL_MINUTES": "45",
		"TOTY_SMTP_PASSWORD":            "mail-pass",
	}))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", c.HTTPAddr)
	assert.Equal(t, "postgres://file", c.DatabaseDSN)
	assert.Equal(t, "env-secret", c.SecretKey)
	assert.Equal(t, 45*time.Minute, c.AccessTokenValidityDuration)
	assert.Equal(t, []string{"https://app.example"}, c.AllowedOrigins)
	assert.Equal(t, "smtp.example", c.SMTPHost)
	assert.Equal(t, "mail-pass", c.SMTPPassword)
	assert.Equal(t, "starttls", c.SMTPSecurity, "default survives when file omits it")
}

func TestLoad_YAMLFile(t *testing.T) {
	path := writeTemp(t, "cfg.yaml", []byte(`
database_dsn: postgres://yaml
credential_store_dsn: mongodb://mongo:27017
mongo_database: chat
access_token_validity_duration: 1h
login_rate_per_minute: 3
`))

	c, err := Load([]string{"-config=" + path}, envMap(nil))
	require.NoError(t, err)

	assert.Equal(t, "postgres://yaml", c.DatabaseDSN)
	assert.Equal(t, "mongodb://mongo:27017", c.CredentialDSN())
	assert.True(t, c.UsesMongoCredentials())
	assert.Equal(t, "chat", c.MongoDatabase)
	assert.Equal(t, time.Hour, c.AccessTokenValidityDuration)
	assert.Equal(t, 3, c.LoginRatePerMinute)
	assert.Equal(t, 5, c.LoginRateBurst)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load([]string{"-c", filepath.Join(t.TempDir(), "nope.json")}, envMap(nil))
		assert.Error(t, err)
	})

	t.Run("invalid json", func(t *testing.T) {
		path := writeTemp(t, "bad.json", []byte(`{ not json`))
		_, err := Load([]string{"-c", path}, envMap(nil))
		assert.Error(t, err)
	})

	t.Run("bad ttl", func(t *testing.T) {
		_, err := Load(nil, envMap(map[string]string{"TOTY_ACCESS_TOKEN_TTL_MINUTES": "soon"}))
		assert.Error(t, err)
	})

	t.Run("bad rate", func(t *testing.T) {
		_, err := Load(nil, envMap(map[string]string{"TOTY_LOGIN_RATE_BURST": "-1"}))
		assert.Error(t, err)
	})
}

func TestParseEnv_LegacyMongoVariables(t *testing.T) {
	c := &Config{}
	c.LoadDefaults()
	c.DatabaseDSN = "postgres://main"

	require.NoError(t, parseEnv(c, envMap(map[string]string{
		"MONGODB_URL":          "mongodb://legacy:27017",
		"DATABASE_NAME":        "totymark_legacy",
		"TOTY_ALLOWED_ORIGINS": " https://a.example , ,https://b.example",
	})))

	assert.Equal(t, "mongodb://legacy:27017", c.CredentialDSN())
	assert.Equal(t, "totymark_legacy", c.MongoDatabase)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.AllowedOrigins)
}

func TestCredentialDSN_FallsBackToDatabase(t *testing.T) {
	c := &Config{DatabaseDSN: "postgres://main"}
	assert.Equal(t, "postgres://main", c.CredentialDSN())
	assert.False(t, c.UsesMongoCredentials())
}

func TestTrustProxyHeaders_FileThenEnv(t *testing.T) {
	path := writeTemp(t, "cfg.yml", []byte("trust_proxy_headers: true\n"))

	c, err := Load([]string{"-c", path}, envMap(nil))
	require.NoError(t, err)
	assert.True(t, c.TrustProxyHeaders)

	c, err = Load([]string{"-c", path}, envMap(map[string]string{"TOTY_TRUST_PROXY_HEADERS": "false"}))
	require.NoError(t, err)
	assert.False(t, c.TrustProxyHeaders)

	_, err = Load(nil, envMap(map[string]string{"TOTY_TRUST_PROXY_HEADERS": "maybe"}))
	assert.Error(t, err)
}
