package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_FileAndEnvironment(t *testing.T) {
	path := writeConfig(t, `
api:
  environment: development
  port: "9000"
  allowed_cors_domains:
    - https://gates.example.org
tickets:
  checksum_secret: from-file
  qr_size: 512
artifacts:
  driver: local
  local_dir: /tmp/qr
`)
	t.Setenv("TICKETS_CHECKSUM_SECRET", "from-environment")
	t.Setenv("POSTGRES_HOST", "db.internal")

	conf, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9000", conf.API.Port)
	assert.Equal(t, []string{"https://gates.example.org"}, conf.API.AllowedCORSDomains)
	assert.Equal(t, "from-environment", conf.Tickets.ChecksumSecret)
	assert.Equal(t, 512, conf.Tickets.QRSize)
	assert.Equal(t, 10, conf.Tickets.CodeLength)
	assert.Equal(t, "db.internal", conf.Postgres.Host)
	assert.Equal(t, "/tmp/qr", conf.Artifacts.LocalDir)
	assert.Equal(t, "gate-feed", conf.Redis.FeedChannel)
	assert.False(t, conf.IsProduction())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	conf, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	require.NoError(t, err)
	assert.Equal(t, "8080", conf.API.Port)
	assert.Equal(t, DefaultChecksumSecret, conf.Tickets.ChecksumSecret)
}

func TestValidate(t *testing.T) {
	strong := strings.Repeat("k", 40)

	tests := []struct {
		name    string
		mutate  func(c *AppConfig)
		wantErr string
	}{
		{"development defaults", func(c *AppConfig) {}, ""},
		{"missing secret", func(c *AppConfig) { c.Tickets.ChecksumSecret = "" }, "checksum_secret is required"},
		{"short codes", func(c *AppConfig) { c.Tickets.CodeLength = 4 }, "code_length"},
		{"s3 without bucket", func(c *AppConfig) { c.Artifacts.Driver = "s3" }, "bucket"},
		{"production default secret", func(c *AppConfig) {
			c.API.Environment = EnvProduction
		}, "default value"},
		{"production short secret", func(c *AppConfig) {
			c.API.Environment = EnvProduction
			c.Tickets.ChecksumSecret = "short"
		}, "at least 32"},
		{"production without signing key", func(c *AppConfig) {
			c.API.Environment = EnvProduction
			c.Tickets.ChecksumSecret = strong
		}, "principal_signing_key"},
		{"production ok", func(c *AppConfig) {
			c.API.Environment = EnvProduction
			c.Tickets.ChecksumSecret = strong
			c.API.PrincipalSigningKey = strong
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
			require.NoError(t, err)

			tt.mutate(conf)
			err = conf.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
