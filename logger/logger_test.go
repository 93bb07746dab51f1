package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readLog(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestLevelFiltering(t *testing.T) {
	dir := t.TempDir()
	appLog := filepath.Join(dir, "logs", "app.log")
	proxyLog := filepath.Join(dir, "logs", "proxy.log")

	require.NoError(t, InitGlobalLoggers(appLog, proxyLog, "warn"))
	t.Cleanup(CloseLogFiles)
	assert.Equal(t, "WARN", Level())

	Debug("debug-line")
	Info("info-line")
	Warn("warn-line")
	ProxyInfo("proxy-info-line")
	CloseLogFiles()

	app := readLog(t, appLog)
	assert.NotContains(t, app, "debug-line")
	assert.NotContains(t, app, "info-line")
	assert.Contains(t, app, "WARN: ")
	assert.Contains(t, app, "warn-line")
	assert.NotContains(t, readLog(t, proxyLog), "proxy-info-line")
}

func TestUnknownLevelFallsBackToInfo(t *testing.T) {
	dir := t.TempDir()
	appLog := filepath.Join(dir, "app.log")

	require.NoError(t, InitGlobalLoggers(appLog, filepath.Join(dir, "proxy.log"), "chatty"))
	assert.Equal(t, "INFO", Level())

	Info("info-line")
	Debug("debug-line")
	CloseLogFiles()

	app := readLog(t, appLog)
	assert.Contains(t, app, "info-line")
	assert.NotContains(t, app, "debug-line")
}
