package uihub

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/playmixer/nova/smarty"
)

func connect(t *testing.T, h *Hub) (*websocket.Conn, func()) {
	srv := httptest.NewServer(h)
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		srv.Close()
		t.Fatal(err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for h.Clients() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return conn, func() {
		conn.Close()
		srv.Close()
	}
}

func TestForwardAndSpeaker(t *testing.T) {
	h := New(nil)
	conn, done := connect(t, h)
	defer done()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := make(chan smarty.AssistantEvent, 4)
	go h.Forward(ctx, events)

	var spoken []string
	sp := h.Speaker(smarty.SpeakerFunc(func(ctx context.Context, text string) error {
		spoken = append(spoken, text)
		return nil
	}))

	events <- smarty.AEWakeDetected
	want := []Message{{Kind: KindEvent, Text: "wake-detected"}}
	var m Message
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&m); err != nil {
		t.Fatal(err)
	}
	if m.Kind != want[0].Kind || m.Text != want[0].Text || m.At == 0 {
		t.Fatalf("got %+v", m)
	}

	if err := sp.Speak(ctx, "Yes?"); err != nil {
		t.Fatal(err)
	}
	if err := conn.ReadJSON(&m); err != nil {
		t.Fatal(err)
	}
	if m.Kind != KindSay || m.Text != "Yes?" {
		t.Fatalf("got %+v", m)
	}
	if len(spoken) != 1 || spoken[0] != "Yes?" {
		t.Fatalf("next speaker got %v", spoken)
	}
}

func TestDisconnectDropsClient(t *testing.T) {
	h := New(nil)
	conn, done := connect(t, h)
	defer done()

	conn.Close()
	deadline := time.Now().Add(2 * time.Second)
	for h.Clients() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("client not dropped")
		}
		time.Sleep(5 * time.Millisecond)
	}
	h.Broadcast(Message{Kind: KindEvent, Text: "idle"})
}

func TestSpeakerWithoutNext(t *testing.T) {
	h := New(nil)
	if err := h.Speaker(nil).Speak(context.Background(), "Done."); err != nil {
		t.Fatal(err)
	}
}

func TestCheckOrigin(t *testing.T) {
	h := New(nil, "https://panel.lan", "dash.lan:8080")
	srv := httptest.NewServer(h)
	defer srv.Close()
	host := strings.TrimPrefix(srv.URL, "http://")
	wsURL := "ws://" + host

	cases := []struct {
		origin string
		ok     bool
	}{
		{"", true},
		{"http://" + host, true},
		{"https://panel.lan", true},
		{"http://dash.lan:8080", true},
		{"http://evil.example", false},
		{"https://panel.lan.evil.example", false},
	}
	for idx, c := range cases {
		header := http.Header{}
		if c.origin != "" {
			header.Set("Origin", c.origin)
		}
		conn, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
		if c.ok {
			if err != nil {
				t.Fatalf("case#%v %q: %v", idx, c.origin, err)
			}
			conn.Close()
			continue
		}
		if !errors.Is(err, websocket.ErrBadHandshake) || resp == nil || resp.StatusCode != http.StatusForbidden {
			t.Fatalf("case#%v %q accepted: %v", idx, c.origin, err)
		}
	}
}
