package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		" WARN ":  zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"verbose": zapcore.InfoLevel,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("%q: got %v, want %v", in, got, want)
		}
	}
}

func TestNewWritesFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "nova.log")
	log := New(Config{Level: "info", File: file})
	log.Debug("hidden")
	log.Info("dispatch", zap.String("intent", "open_app"))
	_ = log.Sync()

	b, err := os.ReadFile(file)
	if err != nil {
		t.Fatal(err)
	}
	out := string(b)
	if !strings.Contains(out, `"msg":"dispatch"`) || !strings.Contains(out, `"intent":"open_app"`) {
		t.Fatalf("unexpected log %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line written at info level: %q", out)
	}
}
