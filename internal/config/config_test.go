package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pranshuparmar/killport/pkg/model"
)

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
timeout: 750ms
tree: true
protocols: [tcp, UDP]
protected: [postgres, redis-server]
no_color: true
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 750*time.Millisecond, cfg.Timeout)
	assert.True(t, cfg.Tree)
	assert.True(t, cfg.NoColor)
	assert.Equal(t, []model.Protocol{model.TCP, model.UDP}, cfg.Protocols)
	assert.Equal(t, []string{"postgres", "redis-server"}, cfg.Protected)
}

func TestParseErrors(t *testing.T) {
	tests := map[string]string{
		"bad duration":      "timeout: soon",
		"negative duration": "timeout: -1s",
		"bad protocol":      "protocols: [sctp]",
		"bad yaml":          "timeout: [",
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(in))
			assert.Error(t, err)
		})
	}
}

func TestDefaultPathHonoursEnv(t *testing.T) {
	t.Setenv(EnvConfig, "/tmp/custom.yaml")
	assert.Equal(t, "/tmp/custom.yaml", DefaultPath())
}
