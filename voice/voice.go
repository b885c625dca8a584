// Package voice turns the assistant's responses into output the user can
// perceive.
package voice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/playmixer/nova/smarty"
)

var ErrNoCommand = errors.New("tts command is empty")

// Console prints responses prefixed with the assistant's name.
type Console struct {
	Name string
	Out  io.Writer
	mu   sync.Mutex
}

func NewConsole(name string) *Console {
	return &Console{Name: name, Out: os.Stdout}
}

func (c *Console) Speak(ctx context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintf(c.Out, "%s: %s\n", c.Name, text)
	return err
}

// Command speaks through an external synthesizer such as espeak-ng. The text
// is passed as the last argument. When Play is set the command's stdout is
// treated as a wav stream and handed to it, otherwise the command is expected
// to produce sound itself.
type Command struct {
	Name string
	Args []string
	Play func(ctx context.Context, wav []byte) error
	log  *zap.Logger
	run  func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewCommand parses a command line like "espeak-ng -v en-us --stdout".
func NewCommand(line string, play func(ctx context.Context, wav []byte) error, log *zap.Logger) (*Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, ErrNoCommand
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Command{
		Name: fields[0],
		Args: fields[1:],
		Play: play,
		log:  log,
		run:  output,
	}, nil
}

func output(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

func (c *Command) Speak(ctx context.Context, text string) error {
	args := append(append([]string(nil), c.Args...), text)
	c.log.Debug("tts", zap.String("cmd", c.Name), zap.Strings("args", args))
	out, err := c.run(ctx, c.Name, args...)
	if err != nil {
		return fmt.Errorf("tts %s: %w", c.Name, err)
	}
	if c.Play == nil || len(out) == 0 {
		return nil
	}
	return c.Play(ctx, out)
}

// Multi speaks through every speaker in order and reports all failures.
type Multi []smarty.Speaker

func (m Multi) Speak(ctx context.Context, text string) error {
	var errs []error
	for _, s := range m {
		if err := s.Speak(ctx, text); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Chime plays file each time a wake phrase is detected, until ctx is done or
// events closes.
func Chime(ctx context.Context, events <-chan smarty.AssistantEvent, file string,
	play func(ctx context.Context, file string) error, log *zap.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			if e != smarty.AEWakeDetected {
				continue
			}
			if err := play(ctx, file); err != nil && log != nil {
				log.Warn("wake chime", zap.String("file", file), zap.Error(err))
			}
		}
	}
}
