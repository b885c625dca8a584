package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	cli "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/playmixer/nova/actions"
	"github.com/playmixer/nova/config"
	"github.com/playmixer/nova/lexicon"
	"github.com/playmixer/nova/listen"
	"github.com/playmixer/nova/logger"
	"github.com/playmixer/nova/matcher"
	"github.com/playmixer/nova/player"
	"github.com/playmixer/nova/smarty"
	"github.com/playmixer/nova/uihub"
	"github.com/playmixer/nova/voice"
	voskclient "github.com/playmixer/nova/vosk-client"
)

func main() {
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	logLevel := cli.StringP("log", "l", "", "Log level, overrides NOVA_LOG_LEVEL")
	input := cli.StringP("input", "i", "console", "Speech input: console, vosk or both")
	lexFile := cli.String("lexicon", "", "Extra commands JSON file, overrides NOVA_LEXICON_FILE")
	cli.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatal(err)
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *lexFile != "" {
		cfg.LexiconFile = *lexFile
	}

	lgr := logger.New(logger.Config{Level: cfg.LogLevel, File: cfg.LogFile})
	defer lgr.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *input, lgr); err != nil && !errors.Is(err, context.Canceled) {
		lgr.Fatal("stopped", zap.Error(err))
	}
	lgr.Info("Stop App")
}

func run(ctx context.Context, cfg config.Config, input string, lgr *zap.Logger) error {
	lex := lexicon.Default()
	if cfg.LexiconFile != "" {
		extended, err := lexicon.LoadFile(lex, cfg.LexiconFile)
		if err != nil {
			return fmt.Errorf("lexicon: %w", err)
		}
		lex = extended
		lgr.Info("lexicon loaded", zap.String("file", cfg.LexiconFile), zap.Int("patterns", len(lex.Patterns())))
	}

	handlers := actions.Default(actions.Options{
		AllowPower: cfg.AllowPower,
		SearchURL:  cfg.SearchURL,
		Log:        lgr.Named("actions"),
	})

	speaker, err := newSpeaker(cfg, lgr)
	if err != nil {
		return err
	}
	var hub *uihub.Hub
	if cfg.UIAddr != "" {
		hub = uihub.New(lgr.Named("ui"), cfg.UIOrigins...)
		speaker = hub.Speaker(speaker)
		go func() {
			if err := hub.ListenAndServe(ctx, cfg.UIAddr); err != nil {
				lgr.Error("ui hub", zap.Error(err))
			}
		}()
	}

	assistant := smarty.New(matcher.New(lex, cfg.MinConfidence), handlers, speaker, smarty.Config{
		CommandWindow: cfg.CommandWindow,
		QueueSize:     cfg.QueueSize,
		Seed:          cfg.Seed,
	})
	assistant.SetLogger(lgr.Named("smarty"))
	if hub != nil {
		go hub.Forward(ctx, assistant.Subscribe(16))
	}
	if cfg.WakeSound != "" {
		go voice.Chime(ctx, assistant.Subscribe(4), cfg.WakeSound, player.PlayFile, lgr.Named("chime"))
	}

	src, err := newSource(input, cfg, lgr)
	if err != nil {
		return err
	}
	go func() {
		if err := assistant.Listen(ctx, src); err != nil && !errors.Is(err, context.Canceled) {
			lgr.Error("input", zap.Error(err))
		}
		assistant.Close()
	}()

	lgr.Info("Starting App", zap.String("input", input), zap.Strings("wake", lex.WakePhrases()))
	return assistant.Run(ctx)
}

func newSpeaker(cfg config.Config, lgr *zap.Logger) (smarty.Speaker, error) {
	console := voice.NewConsole(cfg.Name)
	if cfg.TTSCommand == "" {
		return console, nil
	}
	var play func(context.Context, []byte) error
	if strings.Contains(cfg.TTSCommand, "--stdout") {
		play = player.PlayWavFromBytes
	}
	tts, err := voice.NewCommand(cfg.TTSCommand, play, lgr.Named("tts"))
	if err != nil {
		return nil, err
	}
	return voice.Multi{console, tts}, nil
}

func newSource(input string, cfg config.Config, lgr *zap.Logger) (smarty.Utterances, error) {
	console := listen.NewConsole(os.Stdin)
	switch input {
	case "console":
		return console, nil
	case "vosk", "both":
		mic, err := newMicrophone(cfg, lgr)
		if err != nil {
			return nil, err
		}
		if input == "vosk" {
			return mic, nil
		}
		return listen.Merge{console, mic}, nil
	}
	return nil, fmt.Errorf("unknown input %q", input)
}

func newMicrophone(cfg config.Config, lgr *zap.Logger) (*listen.Microphone, error) {
	recognizer := voskclient.New()
	recognizer.Host = cfg.VoskHost
	recognizer.Port = cfg.VoskPort
	recognizer.SetLogger(lgr.Named("vosk"))
	if err := recognizer.PostConfigure(); err != nil {
		return nil, err
	}

	recorder := listen.New(time.Second / 2)
	recorder.SetName("Record")
	recorder.SetLogger(lgr.Named("listen"))
	if cfg.Microphone != "" {
		if err := recorder.SetMicrophon(cfg.Microphone); err != nil {
			return nil, fmt.Errorf("microphone %q: %w", cfg.Microphone, err)
		}
	}
	return listen.NewMicrophone(recorder, recognizer, lgr.Named("listen")), nil
}
