// Package config reads the assistant's start-up settings from the
// environment, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvCommandWindow = "NOVA_COMMAND_WINDOW"
	EnvMinConfidence = "NOVA_MIN_CONFIDENCE"
	EnvLexiconFile   = "NOVA_LEXICON_FILE"
	EnvLogLevel      = "NOVA_LOG_LEVEL"
	EnvLogFile       = "NOVA_LOG_FILE"
	EnvQueueSize     = "NOVA_QUEUE_SIZE"
	EnvSeed          = "NOVA_SEED"
	EnvName          = "NOVA_NAME"
	EnvVoskHost      = "VOSK_HOST"
	EnvVoskPort      = "VOSK_PORT"
	EnvMicrophone    = "NOVA_MICROPHONE"
	EnvTTSCommand    = "NOVA_TTS_COMMAND"
	EnvWakeSound     = "NOVA_WAKE_SOUND"
	EnvUIAddr        = "NOVA_UI_ADDR"
	EnvUIOrigins     = "NOVA_UI_ORIGINS"
	EnvSearchURL     = "NOVA_SEARCH_URL"
	EnvAllowPower    = "NOVA_ALLOW_POWER"
)

type Config struct {
	Name          string
	CommandWindow time.Duration
	MinConfidence float64
	QueueSize     int
	Seed          int64
	LexiconFile   string
	LogLevel      string
	LogFile       string
	VoskHost      string
	VoskPort      string
	Microphone    string
	TTSCommand    string
	WakeSound     string
	UIAddr        string
	UIOrigins     []string
	SearchURL     string
	AllowPower    bool
}

func Default() Config {
	return Config{
		Name:          "Nova",
		CommandWindow: 8 * time.Second,
		MinConfidence: 0.6,
		QueueSize:     16,
		Seed:          1,
		LogLevel:      "info",
		VoskHost:      "localhost",
		VoskPort:      "2700",
	}
}

// Load reads envFile when it exists and then the process environment.
// Variables already set in the environment win over the file.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("config: %s: %w", envFile, err)
		}
	}
	return FromEnv()
}

func FromEnv() (Config, error) {
	c := Default()
	var errs []error
	c.Name = Getenv(EnvName, c.Name)
	c.LexiconFile = Getenv(EnvLexiconFile, c.LexiconFile)
	c.LogLevel = Getenv(EnvLogLevel, c.LogLevel)
	c.LogFile = Getenv(EnvLogFile, c.LogFile)
	c.VoskHost = Getenv(EnvVoskHost, c.VoskHost)
	c.VoskPort = Getenv(EnvVoskPort, c.VoskPort)
	c.Microphone = Getenv(EnvMicrophone, c.Microphone)
	c.TTSCommand = Getenv(EnvTTSCommand, c.TTSCommand)
	c.WakeSound = Getenv(EnvWakeSound, c.WakeSound)
	c.UIAddr = Getenv(EnvUIAddr, c.UIAddr)
	c.SearchURL = Getenv(EnvSearchURL, c.SearchURL)
	for _, o := range strings.Split(os.Getenv(EnvUIOrigins), ",") {
		if o = strings.TrimSpace(o); o != "" {
			c.UIOrigins = append(c.UIOrigins, o)
		}
	}

	if v := os.Getenv(EnvCommandWindow); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			errs = append(errs, fmt.Errorf("%s: invalid duration %q", EnvCommandWindow, v))
		} else {
			c.CommandWindow = d
		}
	}
	if v := os.Getenv(EnvMinConfidence); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 || f > 1 {
			errs = append(errs, fmt.Errorf("%s: want a number in (0,1], got %q", EnvMinConfidence, v))
		} else {
			c.MinConfidence = f
		}
	}
	if v := os.Getenv(EnvQueueSize); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			errs = append(errs, fmt.Errorf("%s: invalid size %q", EnvQueueSize, v))
		} else {
			c.QueueSize = n
		}
	}
	if v := os.Getenv(EnvSeed); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: invalid seed %q", EnvSeed, v))
		} else {
			c.Seed = n
		}
	}
	if v := os.Getenv(EnvAllowPower); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: invalid bool %q", EnvAllowPower, v))
		} else {
			c.AllowPower = b
		}
	}
	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return c, nil
}

func Getenv(key string, def string) string {
	val := strings.TrimSpace(os.Getenv(key))
	if val != "" {
		return val
	}
	return def
}
