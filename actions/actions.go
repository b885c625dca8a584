// Package actions holds the handlers that perform the system effect behind
// each intent family, and the registry the assistant dispatches through.
package actions

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"go.uber.org/zap"

	"github.com/playmixer/nova/lexicon"
)

var (
	ErrNoHandler      = errors.New("no handler registered")
	ErrUnknownHandler = errors.New("cannot register handler for unknown intent")
	ErrUnsupported    = errors.New("not supported on this platform")
	ErrMissingParam   = errors.New("missing parameter")
	ErrRefused        = errors.New("refused")
	ErrBadDelay       = errors.New("delay out of range")
)

// Result is what a handler reports back; Text is spoken to the user.
type Result struct {
	Text    string
	Success bool
}

func Ok(format string, a ...any) Result {
	return Result{Text: fmt.Sprintf(format, a...), Success: true}
}

func Fail(format string, a ...any) Result {
	return Result{Text: fmt.Sprintf(format, a...), Success: false}
}

type Handler interface {
	Execute(ctx context.Context, params map[string]string) (Result, error)
}

type HandlerFunc func(ctx context.Context, params map[string]string) (Result, error)

func (f HandlerFunc) Execute(ctx context.Context, params map[string]string) (Result, error) {
	return f(ctx, params)
}

type Registry struct {
	handlers map[lexicon.IntentID]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[lexicon.IntentID]Handler)}
}

// Register binds h to an intent family, replacing any previous handler.
func (r *Registry) Register(id lexicon.IntentID, h Handler) error {
	if id == lexicon.Unknown {
		return ErrUnknownHandler
	}
	if h == nil {
		return fmt.Errorf("%w: nil handler for %s", ErrNoHandler, id)
	}
	r.handlers[id] = h
	return nil
}

func (r *Registry) Get(id lexicon.IntentID) (Handler, error) {
	h, ok := r.handlers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoHandler, id)
	}
	return h, nil
}

// Options configures the built-in handlers.
type Options struct {
	GOOS       string
	Runner     Runner
	Volume     VolumeControl
	Stats      SystemStats
	AllowPower bool
	SearchURL  string
	Log        *zap.Logger
}

// Default registers the built-in handler for every intent family.
func Default(opt Options) *Registry {
	if opt.GOOS == "" {
		opt.GOOS = runtime.GOOS
	}
	if opt.Runner == nil {
		opt.Runner = ExecRunner{}
	}
	if opt.Volume == nil {
		opt.Volume = SystemVolume{}
	}
	if opt.Stats == nil {
		opt.Stats = HostStats{}
	}
	if opt.Log == nil {
		opt.Log = zap.NewNop()
	}

	r := NewRegistry()
	power := &PowerControl{GOOS: opt.GOOS, Runner: opt.Runner, Allow: opt.AllowPower}
	apps := NewAppLauncher(opt.GOOS, opt.Runner)
	apps.Power = power
	_ = r.Register(lexicon.OpenApp, apps)
	_ = r.Register(lexicon.SystemControl, power)
	_ = r.Register(lexicon.NetworkToggle, &NetworkToggle{GOOS: opt.GOOS, Runner: opt.Runner})
	info := NewNetworkInfo()
	info.Stats = opt.Stats
	_ = r.Register(lexicon.NetworkQuery, info)
	_ = r.Register(lexicon.SystemUtility, &Utilities{GOOS: opt.GOOS, Runner: opt.Runner, Volume: opt.Volume, Stats: opt.Stats})
	_ = r.Register(lexicon.TimeQuery, NewClock())
	_ = r.Register(lexicon.WebSearch, NewSearch(opt.GOOS, opt.Runner, opt.SearchURL, opt.Log))
	return r
}
