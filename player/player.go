// Package player plays short audio clips: the wake chime and synthesized
// speech.
package player

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/vorbis"
	"github.com/faiface/beep/wav"
)

var ErrUnsupportedFormat = errors.New("unsupported audio format")

type decoder func(rc io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error)

var decoders = map[string]decoder{
	".wav": func(rc io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error) { return wav.Decode(rc) },
	".mp3": mp3.Decode,
	".ogg": vorbis.Decode,
}

func decoderFor(name string) (decoder, error) {
	ext := strings.ToLower(filepath.Ext(name))
	d, ok := decoders[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return d, nil
}

// speaker output is a process-wide device; clips never overlap.
var mu sync.Mutex

func PlayWavFromBytes(ctx context.Context, b []byte) error {
	return play(ctx, decoders[".wav"], io.NopCloser(bytes.NewReader(b)))
}

func PlayOggFromBytes(ctx context.Context, b []byte) error {
	return play(ctx, decoders[".ogg"], io.NopCloser(bytes.NewReader(b)))
}

func PlayMp3FromBytes(ctx context.Context, b []byte) error {
	return play(ctx, decoders[".mp3"], io.NopCloser(bytes.NewReader(b)))
}

// PlayFile picks the decoder from the file extension.
func PlayFile(ctx context.Context, filename string) error {
	d, err := decoderFor(filename)
	if err != nil {
		return err
	}
	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	return play(ctx, d, f)
}

func play(ctx context.Context, d decoder, rc io.ReadCloser) error {
	streamer, format, err := d(rc)
	if err != nil {
		rc.Close()
		return err
	}
	defer streamer.Close()
	return playstream(ctx, streamer, format)
}

func playstream(ctx context.Context, streamer beep.StreamSeekCloser, format beep.Format) error {
	mu.Lock()
	defer mu.Unlock()
	if err := speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10)); err != nil {
		return err
	}
	done := make(chan struct{})
	speaker.Play(beep.Seq(streamer, beep.Callback(func() {
		close(done)
	})))

	select {
	case <-done:
	case <-ctx.Done():
		speaker.Clear()
		return ctx.Err()
	}
	return nil
}
