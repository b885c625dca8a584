// Package listen provides the speech inputs of the assistant: console lines
// and the microphone, whose audio is cut into phrases and transcribed.
package listen

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"time"

	pvrecorder "github.com/Picovoice/pvrecorder/binding/go"
	"github.com/go-audio/wav"
	"go.uber.org/zap"
)

var (
	ErrNotFoundDevice          = errors.New("audio device not found")
	ErrNotEnoughDataToParseWav = errors.New("not enough data to parse wav")
	ErrInvalidWav              = errors.New("invalid wav header")
	ErrFileIsNotPCM            = errors.New("wav is not pcm")
	ErrNoRecognizer            = errors.New("no recognizer configured")
)

const (
	frameLength = 512
	bitDepth    = 16
	numChans    = 1
)

// GetMicrophons maps capture device names to their index.
func GetMicrophons() (map[string]int, error) {
	names, err := pvrecorder.GetAvailableDevices()
	if err != nil {
		return nil, err
	}
	devices := make(map[string]int, len(names))
	for i, name := range names {
		devices[name] = i
	}
	return devices, nil
}

// Listener records the microphone and emits it as wav chunks of Long
// duration on WavCh.
type Listener struct {
	NameApp  string
	WavCh    chan []byte
	Long     time.Duration
	DeviceId int
	log      *zap.Logger

	mu     sync.Mutex
	active bool
	stopCh chan struct{}
	doneCh chan struct{}
}

func New(t time.Duration) *Listener {
	return &Listener{
		NameApp:  "Listener",
		Long:     t,
		WavCh:    make(chan []byte, 1),
		DeviceId: -1,
		log:      zap.NewNop(),
	}
}

func (l *Listener) SetLogger(log *zap.Logger) {
	l.log = log.With(zap.String("listener", l.NameApp))
}

func (l *Listener) SetName(name string) {
	l.NameApp = name
}

func (l *Listener) SetMicrophon(name string) error {
	devices, err := GetMicrophons()
	if err != nil {
		return err
	}
	if id, ok := devices[name]; ok {
		l.DeviceId = id
		return nil
	}
	return ErrNotFoundDevice
}

func (l *Listener) IsActive() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

// Start opens the device and begins recording. It returns once the recorder
// is running.
func (l *Listener) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.active {
		return nil
	}
	recorder := &pvrecorder.PvRecorder{
		DeviceIndex:         l.DeviceId,
		FrameLength:         frameLength,
		BufferedFramesCount: 10,
	}
	if err := recorder.Init(); err != nil {
		return err
	}
	if err := recorder.Start(); err != nil {
		recorder.Delete()
		return err
	}
	l.log.Info("recording", zap.String("device", recorder.GetSelectedDevice()))

	l.active = true
	l.stopCh = make(chan struct{})
	l.doneCh = make(chan struct{})
	go l.record(ctx, recorder, l.stopCh, l.doneCh)
	return nil
}

func (l *Listener) Stop() {
	l.mu.Lock()
	if !l.active {
		l.mu.Unlock()
		return
	}
	l.active = false
	close(l.stopCh)
	done := l.doneCh
	l.mu.Unlock()
	<-done
}

func (l *Listener) record(ctx context.Context, recorder *pvrecorder.PvRecorder, stop, done chan struct{}) {
	defer close(done)
	defer recorder.Delete()
	defer recorder.Stop()

	chunk := newChunk()
	tick := time.NewTicker(l.Long)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			l.log.Debug("context done")
			return
		case <-stop:
			l.log.Debug("stopped")
			return
		case <-tick.C:
			b, err := chunk.bytes()
			if err != nil {
				l.log.Error("encode chunk", zap.Error(err))
			} else {
				select {
				case l.WavCh <- b:
				case <-ctx.Done():
					return
				case <-stop:
					return
				}
			}
			chunk = newChunk()
		default:
			pcm, err := recorder.Read()
			if err != nil {
				l.log.Error("read frame", zap.Error(err))
				continue
			}
			if err := chunk.write(pcm); err != nil {
				l.log.Error("write frame", zap.Error(err))
			}
		}
	}
}

type chunk struct {
	out *WriterSeeker
	enc *wav.Encoder
}

func newChunk() *chunk {
	out := &WriterSeeker{}
	return &chunk{out: out, enc: wav.NewEncoder(out, pvrecorder.SampleRate, bitDepth, numChans, 1)}
}

func (c *chunk) write(pcm []int16) error {
	for _, f := range pcm {
		if err := c.enc.WriteFrame(f); err != nil {
			return err
		}
	}
	return nil
}

func (c *chunk) bytes() ([]byte, error) {
	if err := c.enc.Close(); err != nil {
		return nil, err
	}
	return c.out.buf.Bytes(), nil
}

// WriterSeeker is an in-memory io.WriteSeeker for the wav encoder, which
// rewrites its header on Close.
type WriterSeeker struct {
	buf bytes.Buffer
	pos int
}

func (ws *WriterSeeker) Write(p []byte) (n int, err error) {
	if extra := ws.pos - ws.buf.Len(); extra > 0 {
		if _, err := ws.buf.Write(make([]byte, extra)); err != nil {
			return n, err
		}
	}
	if ws.pos < ws.buf.Len() {
		n = copy(ws.buf.Bytes()[ws.pos:], p)
		p = p[n:]
	}
	if len(p) > 0 {
		var bn int
		bn, err = ws.buf.Write(p)
		n += bn
	}
	ws.pos += n
	return n, err
}

func (ws *WriterSeeker) Seek(offset int64, whence int) (int64, error) {
	pos := int(offset)
	switch whence {
	case io.SeekCurrent:
		pos += ws.pos
	case io.SeekEnd:
		pos += ws.buf.Len()
	}
	if pos < 0 {
		return 0, errors.New("negative result pos")
	}
	ws.pos = pos
	return int64(pos), nil
}

func (ws *WriterSeeker) Bytes() []byte {
	return ws.buf.Bytes()
}
