// Package logger builds the zap logger shared by the assistant's packages.
package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Config struct {
	Level string
	// File, when set, receives JSON logs with rotation; the console always
	// gets human readable output.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

func ParseLevel(s string) zapcore.Level {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(s)))); err != nil {
		return zapcore.InfoLevel
	}
	return l
}

func New(cfg Config) *zap.Logger {
	level := zap.NewAtomicLevelAt(ParseLevel(cfg.Level))

	consoleEnc := zap.NewDevelopmentEncoderConfig()
	consoleEnc.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleEnc), zapcore.Lock(os.Stderr), level),
	}

	if cfg.File != "" {
		rotate := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    orDefault(cfg.MaxSizeMB, 10),
			MaxBackups: orDefault(cfg.MaxBackups, 3),
			MaxAge:     orDefault(cfg.MaxAgeDays, 7),
			LocalTime:  true,
			Compress:   true,
		}
		fileEnc := zap.NewProductionEncoderConfig()
		fileEnc.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileEnc), zapcore.AddSync(rotate), level))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller())
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
