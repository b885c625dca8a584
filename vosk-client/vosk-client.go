// Package voskclient transcribes wav audio with a Vosk websocket server.
package voskclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const (
	DefaultHost       = "localhost"
	DefaultPort       = "2700"
	DefaultSampleRate = 16000
	DefaultChunkSize  = 8000

	wavHeaderSize = 44
	eofMessage    = `{"eof" : 1}`
)

var (
	ErrEmptyHost = errors.New("vosk host is empty")
	ErrBadPort   = errors.New("vosk port is invalid")
)

type Client struct {
	Host         string
	Port         string
	SampleRate   int
	ChunkSize    int
	WriteTimeout time.Duration
	ReadTimeout  time.Duration
	dialer       *websocket.Dialer
	url          string
	log          *zap.Logger
}

func New() *Client {
	return &Client{
		Host:         DefaultHost,
		Port:         DefaultPort,
		SampleRate:   DefaultSampleRate,
		ChunkSize:    DefaultChunkSize,
		WriteTimeout: 5 * time.Second,
		ReadTimeout:  10 * time.Second,
		dialer:       &websocket.Dialer{HandshakeTimeout: 5 * time.Second},
		log:          zap.NewNop(),
	}
}

func (c *Client) SetLogger(log *zap.Logger) {
	c.log = log
}

// PostConfigure validates Host and Port after they were changed.
func (c *Client) PostConfigure() error {
	if strings.TrimSpace(c.Host) == "" {
		return ErrEmptyHost
	}
	if p, err := strconv.Atoi(c.Port); err != nil || p <= 0 || p > 65535 {
		return fmt.Errorf("%w: %q", ErrBadPort, c.Port)
	}
	if c.SampleRate <= 0 {
		c.SampleRate = DefaultSampleRate
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultChunkSize
	}
	u := url.URL{Scheme: "ws", Host: net.JoinHostPort(c.Host, c.Port)}
	c.url = u.String()
	return nil
}

func (c *Client) URL() string {
	return c.url
}

func (c *Client) Recognize(wav []byte) (string, error) {
	return c.RecognizeContext(context.Background(), wav)
}

// RecognizeContext streams one utterance over a fresh connection and returns
// the final transcript.
func (c *Client) RecognizeContext(ctx context.Context, wav []byte) (string, error) {
	if c.url == "" {
		if err := c.PostConfigure(); err != nil {
			return "", err
		}
	}
	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return "", fmt.Errorf("vosk: dial %s: %w", c.url, err)
	}
	defer conn.Close()

	config := fmt.Sprintf(`{"config" : {"sample_rate" : %d}}`, c.SampleRate)
	if err := c.write(conn, websocket.TextMessage, []byte(config)); err != nil {
		return "", err
	}

	pcm := wav
	if len(pcm) >= wavHeaderSize && string(pcm[:4]) == "RIFF" {
		pcm = pcm[wavHeaderSize:]
	}
	for len(pcm) > 0 {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		n := min(c.ChunkSize, len(pcm))
		if err := c.write(conn, websocket.BinaryMessage, pcm[:n]); err != nil {
			return "", err
		}
		pcm = pcm[n:]
		if _, err := c.read(conn); err != nil {
			return "", err
		}
	}

	if err := c.write(conn, websocket.TextMessage, []byte(eofMessage)); err != nil {
		return "", err
	}
	msg, err := c.read(conn)
	if err != nil {
		return "", err
	}
	text := gjson.GetBytes(msg, "text").String()
	c.log.Debug("vosk result", zap.String("text", text))

	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(c.WriteTimeout))
	return text, nil
}

func (c *Client) write(conn *websocket.Conn, kind int, data []byte) error {
	if err := conn.SetWriteDeadline(time.Now().Add(c.WriteTimeout)); err != nil {
		return err
	}
	if err := conn.WriteMessage(kind, data); err != nil {
		return fmt.Errorf("vosk: write: %w", err)
	}
	return nil
}

func (c *Client) read(conn *websocket.Conn) ([]byte, error) {
	if err := conn.SetReadDeadline(time.Now().Add(c.ReadTimeout)); err != nil {
		return nil, err
	}
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("vosk: read: %w", err)
	}
	if !gjson.ValidBytes(msg) {
		return nil, fmt.Errorf("vosk: invalid json %q", msg)
	}
	return msg, nil
}
