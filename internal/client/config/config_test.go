package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withArgs(t *testing.T, args ...string) {
	t.Helper()
	orig := os.Args
	os.Args = append([]string{"client"}, args...)
	t.Cleanup(func() { os.Args = orig })
}

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()
	assert.Equal(t, "127.0.0.1:50051", c.ServerEndpointAddr)
	assert.Equal(t, 3*time.Second, c.OnlineCheckInterval)
	assert.Equal(t, 10*time.Second, c.RequestTimeout)
	assert.Empty(t, c.SecretKey)
}

func TestLoadConfig_Precedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"server_endpoint_addr": "json:1",
		"online_check_interval": "7s",
		"request_timeout": "2s"
	}`), 0o600))

	t.Setenv("POP_CLIENT_SERVER_ENDPOINT_ADDR", "env:2")
	t.Setenv("POP_CLIENT_SECRET_KEY", "nsec1example")
	withArgs(t, "-c", path, "-i", "5")

	c := LoadConfig()
	assert.Equal(t, "env:2", c.ServerEndpointAddr)
	assert.Equal(t, 5*time.Second, c.OnlineCheckInterval)
	assert.Equal(t, 2*time.Second, c.RequestTimeout)
	assert.Equal(t, "nsec1example", c.SecretKey)
}

func TestParseFlags_AddressOnly(t *testing.T) {
	withArgs(t, "-a", "10.0.0.1:50051", "attest")

	c := &Config{}
	c.LoadDefaults()
	parseFlags(c)

	assert.Equal(t, "10.0.0.1:50051", c.ServerEndpointAddr)
	assert.Equal(t, 3*time.Second, c.OnlineCheckInterval)
}

func TestParseJson_BadFilePanics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{`), 0o600))
	withArgs(t, "-config", path)

	assert.Panics(t, func() { parseJson(&Config{}) })
}
