package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, ":8080", c.HTTPAddr)
	assert.Equal(t, ":50051", c.EndpointAddrGRPC)
	assert.Equal(t, "http://localhost:8080", c.PublicBaseURL)
	assert.Equal(t, "sqlite", c.DatabaseDriver)
	assert.Equal(t, "proofofplace.db", c.DatabaseDSN)
	assert.Equal(t, "secretKey", c.SecretKey)
	assert.Equal(t, 15*time.Minute, c.AccessTokenValidityDuration)
	assert.Equal(t, 60*time.Second, c.AuthMaxClockSkew)
	assert.Equal(t, []string{"*"}, c.CORSAllowedOrigins)
	assert.Empty(t, c.RedisAddr)
	assert.Equal(t, 30, c.RateLimitRequests)
	assert.Equal(t, time.Minute, c.RateLimitWindow)
	assert.Empty(t, c.S3Bucket)
	assert.Empty(t, c.KafkaBrokers)
	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, "json", c.LogFormat)
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"testbin"}

	c := LoadConfig()
	require.NotNil(t, c, "LoadConfig must not return nil")

	var want Config
	want.LoadDefaults()
	assert.Equal(t, want, *c)
}

func TestLoadConfig_Precedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	jsonPath := writeTempJSON(t, "", "", map[string]any{
		"http_addr":    ":7000",
		"database_dsn": "from-json.db",
		"secret_key":   "json-secret",
	})
	t.Setenv("POP_DATABASE_DSN", "from-env.db")
	t.Setenv("POP_SECRET_KEY", "env-secret")

	os.Args = []string{"testbin", "-c", jsonPath, "-s", "flag-secret"}

	c := LoadConfig()

	assert.Equal(t, ":7000", c.HTTPAddr, "json over defaults")
	assert.Equal(t, "from-env.db", c.DatabaseDSN, "env over json")
	assert.Equal(t, "flag-secret", c.SecretKey, "flags over env")
}
