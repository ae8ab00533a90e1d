package main

import (
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/edwinsyarief/hibana"
	"github.com/gorilla/websocket"
)

func newTestHub(t *testing.T) (*Hub, *websocket.Conn) {
	t.Helper()
	hub := NewHub(HubConfig{Logger: log.New(io.Discard, "", 0), Workers: 1})
	srv := httptest.NewServer(http.HandlerFunc(hub.Handle))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	waitFor(t, func() bool { return hub.Subscribers() == 1 })
	return hub, conn
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func readFrame(t *testing.T, conn *websocket.Conn) (uint64, []hibana.ExtractedParticle) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	kind, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if kind != websocket.BinaryMessage {
		t.Fatalf("expected binary message, got %d", kind)
	}
	frame, ps, err := decodeFrame(msg)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return frame, ps
}

func TestHubStreamsFrames(t *testing.T) {
	hub, conn := newTestHub(t)

	hub.Step(1.0 / 30)
	frame, ps := readFrame(t, conn)
	if frame != 1 {
		t.Errorf("expected frame 1, got %d", frame)
	}
	if len(ps) != 0 {
		t.Errorf("expected an empty frame, got %d records", len(ps))
	}
}

func TestHubAppliesBurst(t *testing.T) {
	hub, conn := newTestHub(t)

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"burst","count":64}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	waitFor(t, func() bool { return len(hub.commands) == 1 })

	hub.Step(1.0 / 30)
	_, ps := readFrame(t, conn)
	if len(ps) != 64 {
		t.Fatalf("expected 64 drops after a burst, got %d", len(ps))
	}
	for i := range ps {
		if ps[i].Color[3] <= 0 || ps[i].Color[3] > 1 {
			t.Fatalf("record %d has alpha %f", i, ps[i].Color[3])
		}
	}
}

func TestDecodeFrameRejectsTruncated(t *testing.T) {
	if _, _, err := decodeFrame([]byte{1, 2, 3}); err == nil {
		t.Error("expected an error for a short frame")
	}
	msg := make([]byte, frameHeaderSize+hibana.ExtractedSize-1)
	if _, _, err := decodeFrame(msg); err == nil {
		t.Error("expected an error for a partial record")
	}
}

func TestCommandParsing(t *testing.T) {
	tests := []struct {
		in   command
		want hibana.Command
	}{
		{command{Type: "burst", Count: 3}, hibana.Burst{Count: 3}},
		{command{Type: "rate", Rate: 10}, hibana.SetRate{PerSecond: 10}},
		{command{Type: "pause"}, hibana.SetEnabled{Enabled: false}},
		{command{Type: "resume"}, hibana.SetEnabled{Enabled: true}},
	}
	for _, tt := range tests {
		t.Run(tt.in.Type, func(t *testing.T) {
			got, err := tt.in.toCommand()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %#v, got %#v", tt.want, got)
			}
		})
	}
	if _, err := (command{Type: "explode"}).toCommand(); err == nil {
		t.Error("expected an error for an unknown command")
	}
}
