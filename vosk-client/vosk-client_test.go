package voskclient

import (
	"bytes"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/tidwall/gjson"
)

func TestPostConfigure(t *testing.T) {
	cases := []struct {
		host string
		port string
		url  string
		err  error
	}{
		{"localhost", "2700", "ws://localhost:2700", nil},
		{"192.168.0.2", "2700", "ws://192.168.0.2:2700", nil},
		{"::1", "2700", "ws://[::1]:2700", nil},
		{"", "2700", "", ErrEmptyHost},
		{"localhost", "vosk", "", ErrBadPort},
		{"localhost", "70000", "", ErrBadPort},
	}
	for idx, c := range cases {
		cl := New()
		cl.Host, cl.Port = c.host, c.port
		err := cl.PostConfigure()
		if !errors.Is(err, c.err) || cl.URL() != c.url {
			t.Fatalf("case#%v url=%q err=%v", idx, cl.URL(), err)
		}
	}
}

type fakeVosk struct {
	mu    sync.Mutex
	rate  int64
	audio bytes.Buffer
	text  string
}

func (f *fakeVosk) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	for {
		kind, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		f.mu.Lock()
		switch {
		case kind == websocket.BinaryMessage:
			f.audio.Write(msg)
			conn.WriteMessage(websocket.TextMessage, []byte(`{"partial" : ""}`))
		case gjson.GetBytes(msg, "config").Exists():
			f.rate = gjson.GetBytes(msg, "config.sample_rate").Int()
		case gjson.GetBytes(msg, "eof").Int() == 1:
			conn.WriteMessage(websocket.TextMessage, []byte(`{"text" : "`+f.text+`"}`))
		}
		f.mu.Unlock()
	}
}

func newClient(t *testing.T, srv *httptest.Server) *Client {
	host, port, err := net.SplitHostPort(strings.TrimPrefix(srv.URL, "http://"))
	if err != nil {
		t.Fatal(err)
	}
	c := New()
	c.Host, c.Port = host, port
	c.ChunkSize = 100
	if err := c.PostConfigure(); err != nil {
		t.Fatal(err)
	}
	return c
}

func TestRecognize(t *testing.T) {
	fake := &fakeVosk{text: "nova open chrome"}
	srv := httptest.NewServer(fake)
	defer srv.Close()
	c := newClient(t, srv)

	wav := append([]byte("RIFF"), make([]byte, wavHeaderSize-4)...)
	pcm := bytes.Repeat([]byte{1, 2}, 175)
	wav = append(wav, pcm...)

	text, err := c.Recognize(wav)
	if err != nil {
		t.Fatal(err)
	}
	if text != "nova open chrome" {
		t.Fatalf("got %q", text)
	}
	fake.mu.Lock()
	defer fake.mu.Unlock()
	if fake.rate != DefaultSampleRate {
		t.Fatalf("sample rate %v", fake.rate)
	}
	if !bytes.Equal(fake.audio.Bytes(), pcm) {
		t.Fatalf("server got %v bytes, want %v", fake.audio.Len(), len(pcm))
	}
}

func TestRecognizeUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	c := newClient(t, srv)
	srv.Close()
	if _, err := c.Recognize([]byte("RIFF")); err == nil {
		t.Fatal("expected dial error")
	}
}
