package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
[server]
http_port = 9090

[database]
driver = "memory"

[reference]
store = "redis"
timezone = "Asia/Manila"

[notifications]
transport = "gochannel"
topic = "custom.topic"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.HTTPPort)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, "redis", cfg.Reference.Store)
	assert.Equal(t, "custom.topic", cfg.Notifications.Topic)
	// значения, которых нет в файле, берутся из defaults
	assert.Equal(t, 60, cfg.Expiration.Interval)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)

	loc, err := cfg.Reference.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Manila", loc.String())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("RESERVATION_SERVER_HTTP_PORT", "7070")
	t.Setenv("RESERVATION_REDIS_ADDR", "redis:6380")

	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.HTTPPort)
	assert.Equal(t, "redis:6380", cfg.Redis.Addr)
	assert.Equal(t, "memory", cfg.Database.Driver)
}

func TestLoad_Resources(t *testing.T) {
	content := `
[database]
driver = "memory"

[reference]
store = "memory"

[[resources]]
kind = "resort"
id = 7
name = "Lagoon Villa"
guest_capacity = 4
unit_capacity = 1

[[resources]]
kind = "hotel"
id = 101
parent_id = 10
guest_capacity = 2
maintenance = true
`
	cfg, err := Load(writeConfig(t, content))
	require.NoError(t, err)
	require.Len(t, cfg.Resources, 2)

	assert.Equal(t, "resort", cfg.Resources[0].Kind)
	assert.Equal(t, int64(7), cfg.Resources[0].ID)
	assert.Nil(t, cfg.Resources[0].ParentID)
	assert.Equal(t, 4, cfg.Resources[0].GuestCapacity)

	require.NotNil(t, cfg.Resources[1].ParentID)
	assert.Equal(t, int64(10), *cfg.Resources[1].ParentID)
	assert.True(t, cfg.Resources[1].Maintenance)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "host=localhost port=5432 user=postgres password= dbname=reservations sslmode=disable", cfg.Database.DSN())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "unknown driver", content: "[database]\ndriver = \"mysql\"\n"},
		{name: "postgres counter without postgres", content: "[database]\ndriver = \"memory\"\n[reference]\nstore = \"postgres\"\n"},
		{name: "amqp without url", content: "[notifications]\ntransport = \"amqp\"\n"},
		{name: "bad timezone", content: "[reference]\ntimezone = \"Mars/Olympus\"\n"},
		{name: "broken toml", content: "[server\n"},
		{name: "unknown resource kind", content: "[[resources]]\nkind = \"spa\"\nid = 1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}
