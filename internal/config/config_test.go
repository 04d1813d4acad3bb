package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeConfigFile(t *testing.T, cfg *Config) string {
	t.Helper()

	data, err := yaml.Marshal(cfg)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "wiredom.yml")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	// No .wiredom.yml in the package directory, so discovery falls back to
	// defaults.
	cfg, err := NewLoader("").Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, 30*time.Second, cfg.Render.Timeout)
	assert.False(t, cfg.Render.Watch)
}

func TestLoad_FromFile(t *testing.T) {
	path := writeConfigFile(t, &Config{
		Logging: LoggingConfig{Level: "debug", Format: "json"},
		Assets: AssetsConfig{
			Paths:      []string{"web/static"},
			Extensions: []string{".css", ".js"},
		},
		Render: RenderConfig{Timeout: 5 * time.Second, Watch: true},
	})

	cfg, err := NewLoader(path).Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, []string{"web/static"}, cfg.Assets.Paths)
	assert.Equal(t, []string{".css", ".js"}, cfg.Assets.Extensions)
	assert.Equal(t, 5*time.Second, cfg.Render.Timeout)
	assert.True(t, cfg.Render.Watch)
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfigFile(t, &Config{
		Logging: LoggingConfig{Level: "info"},
	})
	t.Setenv("WIREDOM_LOGGING_LEVEL", "error")

	cfg, err := NewLoader(path).Load()
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Logging.Level)
}

func TestLoad_InvalidLevel(t *testing.T) {
	path := writeConfigFile(t, &Config{
		Logging: LoggingConfig{Level: "verbose"},
	})

	_, err := NewLoader(path).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logging.level")
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wiredom.yml")
	require.NoError(t, os.WriteFile(path, []byte("logging: [unclosed"), 0o644))

	_, err := NewLoader(path).Load()
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "empty config is valid", cfg: Config{}},
		{
			name: "all fields valid",
			cfg: Config{
				Logging: LoggingConfig{Level: "warn", Format: "json"},
				Assets:  AssetsConfig{Extensions: []string{".png"}},
				Render:  RenderConfig{Timeout: time.Second},
			},
		},
		{
			name:    "bad format",
			cfg:     Config{Logging: LoggingConfig{Format: "xml"}},
			wantErr: "logging.format",
		},
		{
			name:    "negative timeout",
			cfg:     Config{Render: RenderConfig{Timeout: -time.Second}},
			wantErr: "render.timeout",
		},
		{
			name:    "extension without dot",
			cfg:     Config{Assets: AssetsConfig{Extensions: []string{"css"}}},
			wantErr: "assets.extensions",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
			}
		})
	}
}

func TestConfig_YAMLRoundTrip(t *testing.T) {
	original := Config{
		Logging: LoggingConfig{Level: "debug", Format: "text"},
		Assets:  AssetsConfig{Paths: []string{"assets"}, Extensions: []string{".svg"}},
		Render:  RenderConfig{Timeout: 10 * time.Second, Watch: true},
	}

	data, err := yaml.Marshal(&original)
	require.NoError(t, err)

	var decoded Config
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	assert.Equal(t, original, decoded)
}
