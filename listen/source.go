package listen

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/playmixer/nova/smarty"
)

// Console reads one utterance per line, which stands in for a recognizer
// during development.
type Console struct {
	In  io.Reader
	now func() time.Time
}

func NewConsole(in io.Reader) *Console {
	return &Console{In: in, now: time.Now}
}

func (c *Console) Utterances(ctx context.Context) (<-chan smarty.Utterance, error) {
	out := make(chan smarty.Utterance)
	go func() {
		defer close(out)
		sc := bufio.NewScanner(c.In)
		for sc.Scan() {
			text := strings.TrimSpace(sc.Text())
			if text == "" {
				continue
			}
			select {
			case out <- smarty.Utterance{Text: text, At: c.now()}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

type Recognizer interface {
	Recognize(wav []byte) (string, error)
}

// Microphone cuts the listener's chunks into phrases at pauses and
// transcribes each phrase.
type Microphone struct {
	Listener   *Listener
	Recognizer Recognizer
	// MaxSilent is the number of quiet chunks that ends a phrase.
	MaxSilent int
	// MaxChunks caps the length of a phrase.
	MaxChunks int
	log       *zap.Logger
	now       func() time.Time
}

func NewMicrophone(l *Listener, r Recognizer, log *zap.Logger) *Microphone {
	if log == nil {
		log = zap.NewNop()
	}
	return &Microphone{
		Listener:   l,
		Recognizer: r,
		MaxSilent:  2,
		MaxChunks:  40,
		log:        log,
		now:        time.Now,
	}
}

func (m *Microphone) Utterances(ctx context.Context) (<-chan smarty.Utterance, error) {
	if m.Recognizer == nil {
		return nil, ErrNoRecognizer
	}
	if err := m.Listener.Start(ctx); err != nil {
		return nil, err
	}
	out := make(chan smarty.Utterance)
	go func() {
		defer close(out)
		defer m.Listener.Stop()
		seg := &segmenter{maxSilent: m.MaxSilent, maxChunks: m.MaxChunks, silent: IsWavSilent}
		for {
			select {
			case <-ctx.Done():
				return
			case b := <-m.Listener.WavCh:
				phrase := seg.push(b)
				if phrase == nil {
					continue
				}
				u, ok := m.transcribe(phrase)
				if !ok {
					continue
				}
				select {
				case out <- u:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (m *Microphone) transcribe(chunks [][]byte) (smarty.Utterance, bool) {
	wav, err := ConcatWav(chunks...)
	if err != nil {
		m.log.Error("concat wav", zap.Error(err))
		return smarty.Utterance{}, false
	}
	text, err := m.Recognizer.Recognize(wav)
	if err != nil {
		m.log.Error("recognize", zap.Error(err))
		return smarty.Utterance{}, false
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return smarty.Utterance{}, false
	}
	m.log.Info("heard", zap.String("text", text))
	return smarty.Utterance{Text: text, At: m.now()}, true
}

// segmenter groups voiced chunks into a phrase. Quiet chunks following
// speech are kept so the recognizer sees the natural tail.
type segmenter struct {
	maxSilent int
	maxChunks int
	silent    func([]byte) (bool, error)

	phrase [][]byte
	quiet  int
}

func (s *segmenter) push(b []byte) [][]byte {
	quiet, err := s.silent(b)
	if err != nil {
		quiet = true
	}
	if quiet && len(s.phrase) == 0 {
		return nil
	}
	s.phrase = append(s.phrase, b)
	if quiet {
		s.quiet++
	} else {
		s.quiet = 0
	}
	if s.quiet >= s.maxSilent || len(s.phrase) >= s.maxChunks {
		out := s.phrase
		s.phrase, s.quiet = nil, 0
		return out
	}
	return nil
}

// Merge fans several inputs into one stream that closes once all of them
// have closed.
type Merge []smarty.Utterances

func (ms Merge) Utterances(ctx context.Context) (<-chan smarty.Utterance, error) {
	chans := make([]<-chan smarty.Utterance, 0, len(ms))
	for _, src := range ms {
		ch, err := src.Utterances(ctx)
		if err != nil {
			return nil, err
		}
		chans = append(chans, ch)
	}
	out := make(chan smarty.Utterance)
	var wg sync.WaitGroup
	for _, ch := range chans {
		wg.Add(1)
		go func(ch <-chan smarty.Utterance) {
			defer wg.Done()
			for u := range ch {
				select {
				case out <- u:
				case <-ctx.Done():
					return
				}
			}
		}(ch)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out, nil
}
