package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("SESSION_DIR", "")
	t.Setenv("PERSIST_INTERVAL", "")
	t.Setenv("DB_DRIVER", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "session", cfg.Session.Dir)
	assert.Equal(t, 30*time.Second, cfg.Session.PersistInterval)
	assert.Equal(t, "json", cfg.Database.Driver)
	assert.Equal(t, "8000", cfg.App.Port)
	assert.True(t, cfg.Whatsapp.StatusRead)
	assert.True(t, cfg.Whatsapp.StatusReact)
	assert.Equal(t, []string{".yaml", ".yml"}, cfg.Registry.PluginExtensions)
	assert.Same(t, cfg, Global)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("SESSION_DIR", "/tmp/bot-session")
	t.Setenv("PERSIST_INTERVAL", "45")
	t.Setenv("PAIRING_NUMBER", "+62 812-3456-7890")
	t.Setenv("OWNER_NUMBERS", "+62 811 111, 6282222")
	t.Setenv("COMMAND_PREFIXES", "!, $")
	t.Setenv("WHATSAPP_STATUS_REACT", "off")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 45*time.Second, cfg.Session.PersistInterval)
	assert.Equal(t, "6281234567890", cfg.Session.PairingNumber)
	assert.Equal(t, []string{"62811111", "6282222"}, cfg.App.OwnerNumbers)
	assert.Equal(t, []string{"!", "$"}, cfg.App.CommandPrefixes)
	assert.False(t, cfg.Whatsapp.StatusReact)
	assert.Equal(t, "/tmp/bot-session/groupMetadata.json", cfg.Session.GroupMetadataPath())
	assert.Equal(t, "/tmp/bot-session/contacts.json", cfg.Session.ContactsPath())
	assert.True(t, cfg.IsOwner("62811111"))
	assert.False(t, cfg.IsOwner(""))
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("X_DUR", "1m30s")
	assert.Equal(t, 90*time.Second, getEnvDuration("X_DUR", time.Second))

	t.Setenv("X_DUR", "garbage")
	assert.Equal(t, time.Second, getEnvDuration("X_DUR", time.Second))
}
