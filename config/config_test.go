package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{EnvCommandWindow, EnvMinConfidence, EnvQueueSize, EnvAllowPower, EnvVoskHost} {
		t.Setenv(k, "")
	}
	c, err := FromEnv()
	if err != nil {
		t.Fatal(err)
	}
	if c.CommandWindow != 8*time.Second || c.MinConfidence != 0.6 || c.QueueSize != 16 || c.AllowPower {
		t.Fatalf("unexpected defaults %+v", c)
	}
	if c.VoskHost != "localhost" || c.VoskPort != "2700" {
		t.Fatalf("unexpected vosk defaults %+v", c)
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvCommandWindow, "5s")
	t.Setenv(EnvMinConfidence, "0.75")
	t.Setenv(EnvQueueSize, "4")
	t.Setenv(EnvSeed, "42")
	t.Setenv(EnvAllowPower, "true")
	t.Setenv(EnvVoskHost, " 192.168.0.2 ")
	t.Setenv(EnvLexiconFile, "commands.json")
	t.Setenv(EnvUIOrigins, "http://localhost:3000, ,https://panel.lan")

	c, err := FromEnv()
	if err != nil {
		t.Fatal(err)
	}
	if c.CommandWindow != 5*time.Second || c.MinConfidence != 0.75 || c.QueueSize != 4 || c.Seed != 42 {
		t.Fatalf("unexpected %+v", c)
	}
	if !c.AllowPower || c.VoskHost != "192.168.0.2" || c.LexiconFile != "commands.json" {
		t.Fatalf("unexpected %+v", c)
	}
	if strings.Join(c.UIOrigins, " ") != "http://localhost:3000 https://panel.lan" {
		t.Fatalf("origins = %q", c.UIOrigins)
	}
}

func TestFromEnvInvalid(t *testing.T) {
	cases := []struct {
		key string
		val string
	}{
		{EnvCommandWindow, "soon"},
		{EnvCommandWindow, "-1s"},
		{EnvMinConfidence, "1.5"},
		{EnvMinConfidence, "high"},
		{EnvQueueSize, "0"},
		{EnvSeed, "x"},
		{EnvAllowPower, "maybe"},
	}
	for idx, c := range cases {
		t.Run(c.key, func(t *testing.T) {
			t.Setenv(c.key, c.val)
			if _, err := FromEnv(); err == nil || !strings.Contains(err.Error(), c.key) {
				t.Fatalf("case#%v %s=%q: %v", idx, c.key, c.val, err)
			}
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(file, []byte("NOVA_COMMAND_WINDOW=3s\nNOVA_UI_ADDR=:8090\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	// godotenv sets variables directly; register them for cleanup first.
	t.Setenv(EnvCommandWindow, "")
	t.Setenv(EnvUIAddr, "")
	os.Unsetenv(EnvCommandWindow)
	os.Unsetenv(EnvUIAddr)

	c, err := Load(file)
	if err != nil {
		t.Fatal(err)
	}
	if c.CommandWindow != 3*time.Second || c.UIAddr != ":8090" {
		t.Fatalf("unexpected %+v", c)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("missing env file should be ignored: %v", err)
	}
}
