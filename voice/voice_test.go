package voice

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/playmixer/nova/smarty"
)

func TestConsole(t *testing.T) {
	var buf bytes.Buffer
	c := &Console{Name: "Nova", Out: &buf}
	for _, text := range []string{"Yes?", "Opening chrome."} {
		if err := c.Speak(context.Background(), text); err != nil {
			t.Fatal(err)
		}
	}
	if got := buf.String(); got != "Nova: Yes?\nNova: Opening chrome.\n" {
		t.Fatalf("got %q", got)
	}
}

func TestNewCommand(t *testing.T) {
	if _, err := NewCommand("   ", nil, nil); !errors.Is(err, ErrNoCommand) {
		t.Fatalf("expected ErrNoCommand, got %v", err)
	}
	c, err := NewCommand("espeak-ng -v en-us --stdout", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if c.Name != "espeak-ng" || len(c.Args) != 3 || c.Args[2] != "--stdout" {
		t.Fatalf("parsed %+v", c)
	}
}

func TestCommandSpeak(t *testing.T) {
	cases := []struct {
		out    []byte
		runErr error
		play   bool
		played int
		fail   bool
	}{
		{[]byte("RIFF..."), nil, true, 1, false},
		{nil, nil, true, 0, false},
		{[]byte("RIFF..."), nil, false, 0, false},
		{nil, errors.New("exit status 1"), true, 0, true},
	}
	for idx, tc := range cases {
		var gotName string
		var gotArgs []string
		played := 0
		c, _ := NewCommand("espeak-ng --stdout", nil, nil)
		c.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
			gotName, gotArgs = name, args
			return tc.out, tc.runErr
		}
		if tc.play {
			c.Play = func(ctx context.Context, wav []byte) error {
				played++
				return nil
			}
		}
		err := c.Speak(context.Background(), "It is ten o'clock.")
		if (err != nil) != tc.fail || played != tc.played {
			t.Fatalf("case#%v err=%v played=%v", idx, err, played)
		}
		if gotName != "espeak-ng" || len(gotArgs) != 2 || gotArgs[1] != "It is ten o'clock." {
			t.Fatalf("case#%v ran %s %v", idx, gotName, gotArgs)
		}
		if len(c.Args) != 1 {
			t.Fatalf("case#%v args mutated: %v", idx, c.Args)
		}
	}
}

type failing struct{ err error }

func (f failing) Speak(ctx context.Context, text string) error { return f.err }

func TestMulti(t *testing.T) {
	var buf bytes.Buffer
	boom := errors.New("boom")
	m := Multi{failing{boom}, &Console{Name: "Nova", Out: &buf}}
	err := m.Speak(context.Background(), "Done.")
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if buf.String() != "Nova: Done.\n" {
		t.Fatalf("console skipped after failure: %q", buf.String())
	}
	if err := (Multi{}).Speak(context.Background(), "x"); err != nil {
		t.Fatal(err)
	}
}

func TestChime(t *testing.T) {
	events := make(chan smarty.AssistantEvent, 8)
	for _, e := range []smarty.AssistantEvent{smarty.AEWakeDetected, smarty.AEListening, smarty.AEIdle, smarty.AEWakeDetected} {
		events <- e
	}
	close(events)

	var played []string
	Chime(context.Background(), events, "chime.wav", func(ctx context.Context, file string) error {
		played = append(played, file)
		return errors.New("no audio device")
	}, nil)
	if len(played) != 2 || played[0] != "chime.wav" {
		t.Fatalf("played %v", played)
	}
}
