package player

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDecoderFor(t *testing.T) {
	cases := []struct {
		name string
		ok   bool
	}{
		{"chime.wav", true},
		{"CHIME.WAV", true},
		{"answer.mp3", true},
		{"/tmp/speech.ogg", true},
		{"notes.txt", false},
		{"noext", false},
	}
	for idx, c := range cases {
		_, err := decoderFor(c.name)
		if (err == nil) != c.ok {
			t.Fatalf("case#%v %s: %v", idx, c.name, err)
		}
		if err != nil && !errors.Is(err, ErrUnsupportedFormat) {
			t.Fatalf("case#%v %s: %v", idx, c.name, err)
		}
	}
}

func TestPlayRejectsGarbage(t *testing.T) {
	ctx := context.Background()
	garbage := []byte("definitely not audio")
	if err := PlayWavFromBytes(ctx, garbage); err == nil {
		t.Fatal("wav: expected error")
	}
	if err := PlayMp3FromBytes(ctx, garbage); err == nil {
		t.Fatal("mp3: expected error")
	}
	if err := PlayOggFromBytes(ctx, garbage); err == nil {
		t.Fatal("ogg: expected error")
	}
}

func TestPlayFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	if err := PlayFile(ctx, filepath.Join(dir, "missing.wav")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("missing file: %v", err)
	}
	if err := PlayFile(ctx, filepath.Join(dir, "chime.flac")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("flac: %v", err)
	}
	bad := filepath.Join(dir, "bad.wav")
	if err := os.WriteFile(bad, []byte("RIFF"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := PlayFile(ctx, bad); err == nil {
		t.Fatal("expected decode error")
	}
}
