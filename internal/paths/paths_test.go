package paths

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePlatform swaps the platform lookups for the duration of a test.
func fakePlatform(t *testing.T, goos, home, userConfig string) {
	t.Helper()
	saved := platformDir
	t.Cleanup(func() { platformDir = saved })
	platformDir.goos = goos
	platformDir.homeDir = func() (string, error) { return home, nil }
	platformDir.userConfigDir = func() (string, error) { return userConfig, nil }
}

func TestDefaultDirs(t *testing.T) {
	tests := []struct {
		name       string
		goos       string
		xdgConfig  string
		xdgData    string
		wantConfig string
		wantData   string
	}{
		{
			name:       "linux with XDG",
			goos:       "linux",
			xdgConfig:  "/xdg/config",
			xdgData:    "/xdg/data",
			wantConfig: "/xdg/config/taxa",
			wantData:   "/xdg/data/taxa",
		},
		{
			name:       "linux without XDG",
			goos:       "linux",
			wantConfig: "/home/ada/.config/taxa",
			wantData:   "/home/ada/.local/share/taxa",
		},
		{
			name:       "darwin",
			goos:       "darwin",
			xdgConfig:  "/ignored",
			wantConfig: "/home/ada/Library/Application Support/taxa",
			wantData:   "/home/ada/Library/Application Support/taxa",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fakePlatform(t, tt.goos, "/home/ada", "/home/ada/Library/Application Support")
			t.Setenv("XDG_CONFIG_HOME", tt.xdgConfig)
			t.Setenv("XDG_DATA_HOME", tt.xdgData)

			got, err := DefaultConfigDir()
			require.NoError(t, err)
			assert.Equal(t, filepath.FromSlash(tt.wantConfig), got)

			got, err = DefaultDataDir()
			require.NoError(t, err)
			assert.Equal(t, filepath.FromSlash(tt.wantData), got)
		})
	}
}

func TestDefaultDirsLookupError(t *testing.T) {
	fakePlatform(t, "linux", "", "")
	boom := errors.New("no home")
	platformDir.homeDir = func() (string, error) { return "", boom }
	t.Setenv("XDG_CONFIG_HOME", "")

	_, err := DefaultConfigDir()
	assert.ErrorIs(t, err, boom)
}

func TestResolveConfigDir(t *testing.T) {
	fakePlatform(t, "linux", "/home/ada", "")
	t.Setenv("XDG_CONFIG_HOME", "")
	tmp := t.TempDir()

	t.Run("flag wins", func(t *testing.T) {
		t.Setenv(EnvConfigDir, "/from/env")
		got, err := ResolveConfigDir(tmp)
		require.NoError(t, err)
		assert.Equal(t, tmp, got)
	})

	t.Run("env next", func(t *testing.T) {
		t.Setenv(EnvConfigDir, tmp)
		got, err := ResolveConfigDir("")
		require.NoError(t, err)
		assert.Equal(t, tmp, got)
	})

	t.Run("platform default", func(t *testing.T) {
		t.Setenv(EnvConfigDir, "")
		got, err := ResolveConfigDir("")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join("/home/ada", ".config", AppDirName), got)
	})

	t.Run("relative flag made absolute", func(t *testing.T) {
		got, err := ResolveConfigDir("rel")
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(got))
	})
}

func TestResolveDataDir(t *testing.T) {
	fakePlatform(t, "linux", "/home/ada", "")
	t.Setenv("XDG_DATA_HOME", "")

	tests := []struct {
		name   string
		flag   string
		config string
		env    string
		want   string
	}{
		{"flag", "/flag", "/config", "/env", "/flag"},
		{"config value", "", "/config", "/env", "/config"},
		{"env", "", "", "/env", "/env"},
		{"default", "", "", "", "/home/ada/.local/share/taxa"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvDataDir, tt.env)
			got, err := ResolveDataDir(tt.flag, tt.config)
			require.NoError(t, err)
			want, _ := filepath.Abs(filepath.FromSlash(tt.want))
			assert.Equal(t, want, got)
		})
	}
}

func TestConfigFile(t *testing.T) {
	assert.Equal(t, filepath.Join("dir", "config.yaml"), ConfigFile("dir"))
}
