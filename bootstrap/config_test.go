package bootstrap

import (
	"os"
	"path/filepath"
	"testing"

	"heartbeatd/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLogger_FileOutputHasNoColorCodes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heartbeatd.log")

	logger, sugar, cleanup, err := InitLogger(config.LoggingConfig{
		Level:       "info",
		Format:      "console",
		Color:       true,
		OutputPaths: []string{"stderr", path},
	})
	require.NoError(t, err)

	sugar.Info("alive")
	_ = logger.Sync()
	cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "INFO")
	assert.Contains(t, string(data), "alive")
	assert.NotContains(t, string(data), "\x1b[", "log file must not contain ANSI escape codes")
}

func TestInitLogger_InvalidLevel(t *testing.T) {
	_, _, _, err := InitLogger(config.LoggingConfig{Level: "loud", Format: "console"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestConsoleOnly(t *testing.T) {
	tests := []struct {
		name  string
		paths []string
		want  bool
	}{
		{"stdout", []string{"stdout"}, true},
		{"both streams", []string{"stdout", "stderr"}, true},
		{"file", []string{"/var/log/heartbeatd.log"}, false},
		{"stream and file", []string{"stdout", "/var/log/heartbeatd.log"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, consoleOnly(tt.paths))
		})
	}
}
