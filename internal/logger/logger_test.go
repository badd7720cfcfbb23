package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	require.Equal(t, DEBUG, ParseLevel("debug"))
	require.Equal(t, WARN, ParseLevel(" Warning "))
	require.Equal(t, ERROR, ParseLevel("ERROR"))
	require.Equal(t, INFO, ParseLevel("nonsense"))
}

func TestWriterLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, INFO).WithFields(F("board", 7))

	l.Debug("hidden")
	l.Info("moved", F("item", 3))

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, "INFO")
	require.Contains(t, out, "moved | board=7 item=3")
}

func TestNopDiscards(t *testing.T) {
	l := Nop()
	l.Error("nothing")
	require.NoError(t, l.Close())

	var nilLogger *Logger
	nilLogger.Info("safe")
}

func TestFileRotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	l, err := New(Config{Level: DEBUG, FilePath: path, MaxSize: 64, MaxBackups: 2})
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })

	for i := 0; i < 5; i++ {
		l.Info(strings.Repeat("x", 40))
	}

	_, err = os.Stat(path + ".1")
	require.NoError(t, err)
}

func TestGlobalBeforeInit(t *testing.T) {
	require.NoError(t, Close())
	Info("dropped")
	require.NotNil(t, Default())
}
