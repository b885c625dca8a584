package listen

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"sort"
	"strings"
	"testing"

	concatwav "github.com/moutend/go-wav"
)

// pcmWav builds a mono 16-bit 16kHz wav holding samples.
func pcmWav(samples ...int16) []byte {
	data := make([]byte, 2*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[2*i:], uint16(s))
	}
	h := make([]byte, wavHeaderSize)
	copy(h[0:], "RIFF")
	binary.LittleEndian.PutUint32(h[4:], uint32(36+len(data)))
	copy(h[8:], "WAVE")
	copy(h[12:], "fmt ")
	binary.LittleEndian.PutUint32(h[16:], 16)
	binary.LittleEndian.PutUint16(h[20:], 1)
	binary.LittleEndian.PutUint16(h[22:], 1)
	binary.LittleEndian.PutUint32(h[24:], 16000)
	binary.LittleEndian.PutUint32(h[28:], 32000)
	binary.LittleEndian.PutUint16(h[32:], 2)
	binary.LittleEndian.PutUint16(h[34:], 16)
	copy(h[36:], "data")
	binary.LittleEndian.PutUint32(h[40:], uint32(len(data)))
	return append(h, data...)
}

func TestWavSilence(t *testing.T) {
	notPCM := pcmWav(1, 2)
	notPCM[20] = 3
	cases := []struct {
		data   []byte
		level  int
		silent bool
		err    error
	}{
		{pcmWav(0, 0, 0, 0), 0, true, nil},
		{pcmWav(10, -10, 30, -30), 20, true, nil},
		{pcmWav(1000, -1000, 500, -500), 750, false, nil},
		{pcmWav(), 0, true, nil},
		{[]byte("RIFF"), 0, false, ErrNotEnoughDataToParseWav},
		{append([]byte("RIFX"), pcmWav(1)[4:]...), 0, false, ErrInvalidWav},
		{notPCM, 0, false, ErrFileIsNotPCM},
	}
	for idx, c := range cases {
		level, err := WavSilence(c.data)
		if !errors.Is(err, c.err) || level != c.level {
			t.Fatalf("case#%v level=%v err=%v", idx, level, err)
		}
		silent, err := IsWavSilent(c.data)
		if !errors.Is(err, c.err) || (err == nil && silent != c.silent) {
			t.Fatalf("case#%v silent=%v err=%v", idx, silent, err)
		}
	}
}

func TestConcatWav(t *testing.T) {
	joined, err := ConcatWav(pcmWav(1, 2, 3), pcmWav(4, 5), pcmWav(6))
	if err != nil {
		t.Fatal(err)
	}
	f := &concatwav.File{}
	if err := concatwav.Unmarshal(joined, f); err != nil {
		t.Fatal(err)
	}
	if f.SamplesPerSec() != 16000 || f.BitsPerSample() != 16 || f.Channels() != 1 {
		t.Fatalf("format %v/%v/%v", f.SamplesPerSec(), f.BitsPerSample(), f.Channels())
	}
	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 12 {
		t.Fatalf("got %v bytes of samples", len(data))
	}
	for i := 0; i < 6; i++ {
		if s := int16(binary.LittleEndian.Uint16(data[2*i:])); s != int16(i+1) {
			t.Fatalf("sample#%v = %v", i, s)
		}
	}

	if _, err := ConcatWav(); !errors.Is(err, ErrNotEnoughDataToParseWav) {
		t.Fatalf("empty concat: %v", err)
	}
}

func TestSegmenter(t *testing.T) {
	loud := []byte("loud")
	quiet := []byte("quiet")
	broken := []byte("broken")
	s := &segmenter{maxSilent: 2, maxChunks: 4, silent: func(b []byte) (bool, error) {
		switch string(b) {
		case "loud":
			return false, nil
		case "quiet":
			return true, nil
		}
		return false, ErrInvalidWav
	}}

	cases := []struct {
		chunk []byte
		flush int
	}{
		{quiet, 0},
		{broken, 0},
		{loud, 0},
		{quiet, 0},
		{loud, 0},
		{quiet, 4},
		{quiet, 0},
		{quiet, 0},
		{loud, 0},
		{loud, 0},
		{loud, 0},
		{loud, 4},
		{quiet, 0},
	}
	for idx, c := range cases {
		got := s.push(c.chunk)
		if len(got) != c.flush {
			t.Fatalf("case#%v flushed %v chunks", idx, len(got))
		}
	}
}

func TestConsole(t *testing.T) {
	c := NewConsole(strings.NewReader("nova\n\n   \nopen chrome  \n"))
	ch, err := c.Utterances(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for u := range ch {
		if u.At.IsZero() {
			t.Fatalf("%q has no timestamp", u.Text)
		}
		got = append(got, u.Text)
	}
	if strings.Join(got, "|") != "nova|open chrome" {
		t.Fatalf("got %q", got)
	}
}

func TestMerge(t *testing.T) {
	m := Merge{
		NewConsole(strings.NewReader("nova\nwhat time is it\n")),
		NewConsole(strings.NewReader("hey nova\n")),
	}
	ch, err := m.Utterances(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for u := range ch {
		got = append(got, u.Text)
	}
	sort.Strings(got)
	if strings.Join(got, "|") != "hey nova|nova|what time is it" {
		t.Fatalf("got %q", got)
	}
}

type recognizer struct {
	text string
	err  error
}

func (r recognizer) Recognize(wav []byte) (string, error) { return r.text, r.err }

func TestTranscribe(t *testing.T) {
	cases := []struct {
		rec    recognizer
		chunks [][]byte
		ok     bool
	}{
		{recognizer{text: " nova "}, [][]byte{pcmWav(500), pcmWav(0)}, true},
		{recognizer{text: ""}, [][]byte{pcmWav(500)}, false},
		{recognizer{err: errors.New("offline")}, [][]byte{pcmWav(500)}, false},
	}
	for idx, c := range cases {
		m := NewMicrophone(New(0), c.rec, nil)
		u, ok := m.transcribe(c.chunks)
		if ok != c.ok || (ok && u.Text != "nova") {
			t.Fatalf("case#%v %+v ok=%v", idx, u, ok)
		}
	}
}

func TestMicrophoneNeedsRecognizer(t *testing.T) {
	m := NewMicrophone(New(0), nil, nil)
	if _, err := m.Utterances(context.Background()); !errors.Is(err, ErrNoRecognizer) {
		t.Fatalf("expected ErrNoRecognizer, got %v", err)
	}
}
