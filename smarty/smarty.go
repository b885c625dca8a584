// Package smarty runs the assistant's interaction loop: it owns the session
// state, recognizes wake phrases and commands, dispatches intents to their
// handlers and speaks the results.
package smarty

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/playmixer/nova/actions"
	"github.com/playmixer/nova/lexicon"
	"github.com/playmixer/nova/matcher"
)

const (
	DefaultCommandWindow   = 8 * time.Second
	DefaultQueueSize       = 16
	DefaultDuplicateWindow = 1500 * time.Millisecond

	msgNotUnderstood  = "Sorry, I didn't understand that command."
	msgHandlerFailure = "I'm sorry, I encountered an error while processing your request."
	msgDone           = "Done."
)

var DefaultAcknowledgments = []string{
	"Yes?",
	"I'm listening.",
	"How can I help?",
	"What can I do for you?",
}

var (
	ErrNoWakeMatch    = errors.New("no wake phrase")
	ErrNoCommandMatch = errors.New("command not understood")
	ErrTimeoutExpired = errors.New("command window expired")
	ErrHandlerFailure = errors.New("handler failed")
	ErrEmptyUtterance = errors.New("empty utterance")
	ErrCoalesced      = errors.New("duplicate wake phrase coalesced")
	ErrClosed         = errors.New("assistant closed")
)

// HandlerError wraps whatever went wrong inside an intent handler. It matches
// ErrHandlerFailure with errors.Is.
type HandlerError struct {
	Intent lexicon.IntentID
	Err    error
}

func (e *HandlerError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", ErrHandlerFailure, e.Intent)
	}
	return fmt.Sprintf("%s: %s: %s", ErrHandlerFailure, e.Intent, e.Err)
}

func (e *HandlerError) Unwrap() error { return e.Err }

func (e *HandlerError) Is(target error) bool { return target == ErrHandlerFailure }

// Speaker renders a response to the user.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

type SpeakerFunc func(ctx context.Context, text string) error

func (f SpeakerFunc) Speak(ctx context.Context, text string) error { return f(ctx, text) }

type Config struct {
	CommandWindow   time.Duration
	QueueSize       int
	DuplicateWindow time.Duration
	Acknowledgments []string
	NotUnderstood   string
	Failure         string
	Seed            int64
}

func DefaultConfig() Config {
	return Config{
		CommandWindow:   DefaultCommandWindow,
		QueueSize:       DefaultQueueSize,
		DuplicateWindow: DefaultDuplicateWindow,
		Acknowledgments: DefaultAcknowledgments,
		NotUnderstood:   msgNotUnderstood,
		Failure:         msgHandlerFailure,
		Seed:            1,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.CommandWindow <= 0 {
		c.CommandWindow = def.CommandWindow
	}
	if c.QueueSize <= 0 {
		c.QueueSize = def.QueueSize
	}
	if c.DuplicateWindow < 0 {
		c.DuplicateWindow = 0
	}
	if len(c.Acknowledgments) == 0 {
		c.Acknowledgments = def.Acknowledgments
	}
	if c.NotUnderstood == "" {
		c.NotUnderstood = def.NotUnderstood
	}
	if c.Failure == "" {
		c.Failure = def.Failure
	}
	return c
}

// Cycle describes what one utterance did to the session.
type Cycle struct {
	Utterance Utterance
	Wake      string
	Intent    lexicon.IntentID
	Params    map[string]string
	Response  string
	Expired   bool
	Err       error
}

type Assistant struct {
	log      *zap.Logger
	cfg      Config
	matcher  *matcher.Matcher
	handlers *actions.Registry
	speaker  Speaker
	now      func() time.Time
	rnd      *rand.Rand

	state  SessionState
	cycles int
	inbox  chan Utterance

	subMu sync.Mutex
	subs  []chan AssistantEvent

	submitMu   sync.Mutex
	lastWake   string
	lastWakeAt time.Time

	closeMu sync.RWMutex
	closed  bool
}

func New(m *matcher.Matcher, handlers *actions.Registry, speaker Speaker, cfg Config) *Assistant {
	cfg = cfg.withDefaults()
	if handlers == nil {
		handlers = actions.NewRegistry()
	}
	if speaker == nil {
		speaker = SpeakerFunc(func(context.Context, string) error { return nil })
	}
	return &Assistant{
		log:      zap.NewNop(),
		cfg:      cfg,
		matcher:  m,
		handlers: handlers,
		speaker:  speaker,
		now:      time.Now,
		rnd:      rand.New(rand.NewSource(cfg.Seed)),
		state:    NewSession(),
		inbox:    make(chan Utterance, cfg.QueueSize),
	}
}

func (a *Assistant) SetLogger(log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	a.log = log.With(zap.String("session", a.state.ID))
}

func (a *Assistant) SetClock(now func() time.Time) {
	a.now = now
}

// State returns a copy of the session. It is only consistent when read from
// the goroutine driving the assistant, or while Run is not active.
func (a *Assistant) State() SessionState {
	return a.state
}

func (a *Assistant) Config() Config {
	return a.cfg
}

// Submit hands an utterance to the interaction loop. Empty utterances and
// wake-only repeats inside the duplicate window are dropped here.
func (a *Assistant) Submit(ctx context.Context, u Utterance) error {
	if lexicon.Normalize(u.Text) == "" {
		return ErrEmptyUtterance
	}
	if u.At.IsZero() {
		u.At = a.now()
	}
	if a.duplicateWake(u) {
		a.log.Debug("coalesced wake phrase", zap.String("text", u.Text))
		return ErrCoalesced
	}
	a.closeMu.RLock()
	defer a.closeMu.RUnlock()
	if a.closed {
		return ErrClosed
	}
	select {
	case a.inbox <- u:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting utterances. Run finishes the queued ones and
// returns.
func (a *Assistant) Close() {
	a.closeMu.Lock()
	defer a.closeMu.Unlock()
	if !a.closed {
		a.closed = true
		close(a.inbox)
	}
}

func (a *Assistant) duplicateWake(u Utterance) bool {
	w, ok := a.matcher.MatchWake(u.Text)
	a.submitMu.Lock()
	defer a.submitMu.Unlock()
	if !ok || w.Remainder != "" {
		a.lastWake = ""
		return false
	}
	dup := a.lastWake == w.Phrase && u.At.Sub(a.lastWakeAt) < a.cfg.DuplicateWindow
	a.lastWake, a.lastWakeAt = w.Phrase, u.At
	return dup
}

// Run processes submitted utterances one at a time until ctx is cancelled
// or the assistant is closed. It also closes the command window when it
// lapses with no command.
func (a *Assistant) Run(ctx context.Context) error {
	a.log.Info("assistant started", zap.Duration("window", a.cfg.CommandWindow))

	var timer *time.Timer
	var expired <-chan time.Time
	stop := func() {
		if timer != nil {
			timer.Stop()
		}
		timer, expired = nil, nil
	}
	arm := func() {
		stop()
		if a.state.Phase != PhaseAwaitingCommand {
			return
		}
		d := a.state.LastWakeAt.Add(a.cfg.CommandWindow).Sub(a.now())
		if d < 0 {
			d = 0
		}
		timer = time.NewTimer(d)
		expired = timer.C
	}
	defer stop()

	for {
		select {
		case <-ctx.Done():
			a.log.Info("assistant stopped")
			return ctx.Err()
		case u, ok := <-a.inbox:
			if !ok {
				a.log.Info("input closed")
				return nil
			}
			a.Handle(ctx, u)
			arm()
		case <-expired:
			timer, expired = nil, nil
			if !a.Expire(a.now()) {
				arm()
			}
		}
	}
}

// Expire closes a lapsed command window and reports whether it did.
func (a *Assistant) Expire(now time.Time) bool {
	if a.state.Phase != PhaseAwaitingCommand || a.state.open(now, a.cfg.CommandWindow) {
		return false
	}
	a.log.Debug("command window expired", zap.Error(ErrTimeoutExpired))
	a.state.reset()
	a.PostSignalEvent(AEIdle)
	return true
}

// Handle runs one full interaction cycle for u.
func (a *Assistant) Handle(ctx context.Context, u Utterance) Cycle {
	c := Cycle{Utterance: u, Intent: lexicon.Unknown}
	if lexicon.Normalize(u.Text) == "" {
		c.Err = ErrEmptyUtterance
		return c
	}
	if u.At.IsZero() {
		u.At = a.now()
		c.Utterance.At = u.At
	}
	a.cycles++
	log := a.log.With(zap.Int("cycle", a.cycles))
	log.Debug("utterance", zap.String("text", u.Text), zap.Stringer("phase", a.state.Phase))

	if a.state.Phase == PhaseAwaitingCommand && !a.state.open(u.At, a.cfg.CommandWindow) {
		log.Debug("command window expired", zap.Error(ErrTimeoutExpired))
		a.state.reset()
		a.PostSignalEvent(AEIdle)
		c.Expired = true
	}

	switch a.state.Phase {
	case PhaseAwaitingCommand:
		a.handleCommand(ctx, log, u, &c)
	default:
		a.handleIdle(ctx, log, u, &c)
	}
	return c
}

func (a *Assistant) handleIdle(ctx context.Context, log *zap.Logger, u Utterance, c *Cycle) {
	w, ok := a.matcher.MatchWake(u.Text)
	if !ok {
		c.Err = ErrNoWakeMatch
		log.Debug("no wake phrase")
		return
	}
	c.Wake = w.Phrase
	a.PostSignalEvent(AEWakeDetected)
	log.Info("wake phrase", zap.String("wake", w.Phrase), zap.String("remainder", w.Remainder))

	if w.Remainder != "" {
		if m := a.matcher.MatchCommand(w.Remainder); m.Known() {
			a.dispatch(ctx, log, m, c)
			a.PostSignalEvent(AEIdle)
			return
		}
		log.Debug("remainder not understood, waiting for command")
	}
	a.listen(ctx, u, c)
}

func (a *Assistant) handleCommand(ctx context.Context, log *zap.Logger, u Utterance, c *Cycle) {
	text := u.Text
	if w, ok := a.matcher.MatchWake(text); ok {
		c.Wake = w.Phrase
		if w.Remainder == "" {
			log.Debug("wake phrase repeated, window re-armed")
			a.PostSignalEvent(AEWakeDetected)
			a.listen(ctx, u, c)
			return
		}
		text = w.Remainder
	}

	defer func() {
		a.state.reset()
		a.PostSignalEvent(AEIdle)
	}()

	m := a.matcher.MatchCommand(text)
	if !m.Known() {
		c.Err = ErrNoCommandMatch
		log.Info("command not understood", zap.String("text", text))
		a.respond(ctx, log, c, a.cfg.NotUnderstood)
		return
	}
	a.dispatch(ctx, log, m, c)
}

func (a *Assistant) listen(ctx context.Context, u Utterance, c *Cycle) {
	a.state.arm(u.At)
	a.PostSignalEvent(AEListening)
	a.respond(ctx, a.log, c, a.acknowledgment())
}

func (a *Assistant) acknowledgment() string {
	acks := a.cfg.Acknowledgments
	return acks[a.rnd.Intn(len(acks))]
}

func (a *Assistant) dispatch(ctx context.Context, log *zap.Logger, m matcher.Match, c *Cycle) {
	c.Intent, c.Params = m.Intent, m.Params
	log = log.With(zap.Stringer("intent", m.Intent), zap.Float64("confidence", m.Confidence))
	log.Info("dispatch", zap.Any("params", m.Params))

	res, err := a.execute(ctx, m)
	text := res.Text
	if err != nil || !res.Success {
		c.Err = &HandlerError{Intent: m.Intent, Err: err}
		log.Warn("handler failed", zap.Error(c.Err), zap.String("result", res.Text))
		if text == "" {
			text = a.cfg.Failure
		}
	} else if text == "" {
		text = msgDone
	}
	a.respond(ctx, log, c, text)
}

func (a *Assistant) execute(ctx context.Context, m matcher.Match) (res actions.Result, err error) {
	h, err := a.handlers.Get(m.Intent)
	if err != nil {
		return actions.Result{}, err
	}
	defer func() {
		if r := recover(); r != nil {
			res, err = actions.Result{}, fmt.Errorf("panic: %v", r)
		}
	}()
	params := make(map[string]string, len(m.Params))
	for k, v := range m.Params {
		params[k] = v
	}
	return h.Execute(ctx, params)
}

func (a *Assistant) respond(ctx context.Context, log *zap.Logger, c *Cycle, text string) {
	c.Response = text
	if err := a.speaker.Speak(ctx, text); err != nil {
		log.Error("speak failed", zap.Error(err))
	}
}

// Utterances is the surface every speech input exposes to the assistant.
type Utterances interface {
	Utterances(ctx context.Context) (<-chan Utterance, error)
}

// Listen forwards utterances from src into the assistant until the source
// closes or ctx is cancelled.
func (a *Assistant) Listen(ctx context.Context, src Utterances) error {
	ch, err := src.Utterances(ctx)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case u, ok := <-ch:
			if !ok {
				return nil
			}
			err := a.Submit(ctx, u)
			switch {
			case err == nil, errors.Is(err, ErrEmptyUtterance), errors.Is(err, ErrCoalesced):
			default:
				return err
			}
		}
	}
}
