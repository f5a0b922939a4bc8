package cmd

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "ccmock.dev/pkg/ccmock/internal/model"
)

func TestConfigConstants(t *testing.T) {
	assert.Equal(t, "ccmock", configBaseName)
	assert.Equal(t, "ccmock.yaml", configFileName)
	assert.Equal(t, ".", configFolderPath)
	assert.Equal(t, "CCMOCK", envPrefix)
	assert.Equal(t, "CCMOCK_CONFIG", configEnvVar)
	assert.Equal(t, ".ccmock.log", defaultLogFilename)
}

func TestLoadOptions_Defaults(t *testing.T) {
	resetConfig()
	t.Cleanup(resetConfig)

	opts, err := loadOptions()
	require.NoError(t, err)

	want := m.DefaultOptions()
	want.Mocking.Blacklist = []string{}
	want.Frontend.ExtraArgs = []string{}

	assert.Equal(t, want, opts)
}

func TestLoadOptions_Environment(t *testing.T) {
	resetConfig()
	t.Cleanup(resetConfig)

	t.Setenv("CCMOCK_MOCKING_BACKEND", "FFF")
	t.Setenv("CCMOCK_FFF_ARG_HISTORY_LEN", "8")
	t.Setenv("CCMOCK_FRONTEND_KIND", "tree-sitter")

	opts, err := loadOptions()
	require.NoError(t, err)

	assert.Equal(t, m.BackendFFF, opts.Mocking.Backend)
	assert.Equal(t, 8, opts.FFF.ArgHistoryLen)
	assert.Equal(t, m.FrontendTreeSitter, opts.Frontend.Kind)
}

func TestLoadOptions_Errors(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
	}{
		{"unknown backend", backendKey, "cppumock"},
		{"unknown frontend", frontendKindKey, "gcc"},
		{"zero parallel", parallelKey, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetConfig()
			t.Cleanup(resetConfig)

			viper.Set(tt.key, tt.value)

			_, err := loadOptions()
			require.Error(t, err)
		})
	}
}

func TestConfigFiles(t *testing.T) {
	t.Setenv(configEnvVar, "a.yaml"+string(os.PathListSeparator)+string(os.PathListSeparator)+"b.yaml")

	assert.Equal(t, []string{"a.yaml", "b.yaml", "c.yaml"}, configFiles([]string{"c.yaml"}))
}

func TestMergeConfigFiles(t *testing.T) {
	resetConfig()
	t.Cleanup(resetConfig)

	dir := t.TempDir()
	path := filepath.Join(dir, "extra.yaml")
	require.NoError(t, os.WriteFile(path, []byte("gmock:\n  write_main: true\n  mock_type: NiceMock\n"), 0o600))

	require.NoError(t, mergeConfigFiles([]string{path}))

	opts, err := loadOptions()
	require.NoError(t, err)
	assert.True(t, opts.GMock.WriteMain)
	assert.Equal(t, "NiceMock", opts.GMock.MockType)
	assert.Equal(t, "CCMockFixture", opts.GMock.FixtureName)

	require.Error(t, mergeConfigFiles([]string{filepath.Join(dir, "missing.yaml")}))
}

func TestParseSlogLevel(t *testing.T) {
	tests := []struct {
		value string
		want  slog.Level
	}{
		{"", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"-4", slog.LevelDebug},
		{"loud", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, parseSlogLevel(tt.value, slog.LevelInfo))
		})
	}
}

func TestConfigureLogger(t *testing.T) {
	resetConfig()
	t.Cleanup(resetConfig)

	original := slog.Default()
	t.Cleanup(func() { slog.SetDefault(original) })

	logPath := filepath.Join(t.TempDir(), "ccmock.log")
	viper.Set(logFilenameKey, logPath)

	configureLogger(false)
	assert.False(t, globalLogger.Enabled(t.Context(), slog.LevelDebug))

	configureLogger(true)
	assert.True(t, globalLogger.Enabled(t.Context(), slog.LevelDebug))

	slog.Debug("Parsing source", "source", "a.c")

	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "source=a.c")
}
