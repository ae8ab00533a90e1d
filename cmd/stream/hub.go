package main

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/edwinsyarief/hibana"
	"github.com/edwinsyarief/hibana/presets"
	"github.com/gorilla/websocket"
)

// frameHeaderSize is the size of the little-endian frame number that
// precedes the extracted records in every binary message.
const frameHeaderSize = 8

// command is a client request, sent as a JSON text message.
type command struct {
	Type  string  `json:"type"`
	Count int     `json:"count,omitempty"`
	Rate  float32 `json:"rate,omitempty"`
}

func (c command) toCommand() (hibana.Command, error) {
	switch c.Type {
	case "burst":
		return hibana.Burst{Count: c.Count}, nil
	case "rate":
		return hibana.SetRate{PerSecond: c.Rate}, nil
	case "pause":
		return hibana.SetEnabled{Enabled: false}, nil
	case "resume":
		return hibana.SetEnabled{Enabled: true}, nil
	}
	return nil, fmt.Errorf("unknown command type %q", c.Type)
}

type subscriber struct {
	conn *websocket.Conn
	send chan []byte
}

// HubConfig configures a Hub.
type HubConfig struct {
	Logger  *log.Logger
	Rate    float32
	Workers int
}

// Hub owns the simulated World and fans every frame out to the connected
// viewers. The World is only touched by the goroutine running Step.
type Hub struct {
	logger    *log.Logger
	world     *hibana.World
	fountain  hibana.SystemID
	commands  chan hibana.Command
	extracted []hibana.ExtractedParticle

	mu   sync.Mutex
	subs map[*subscriber]struct{}

	upgrader websocket.Upgrader
}

// NewHub creates a hub simulating a fountain and a fireworks scene.
func NewHub(cfg HubConfig) *Hub {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	w := hibana.NewWorld(8)
	w.SetWorkers(cfg.Workers)
	h := &Hub{
		logger:   logger,
		world:    w,
		commands: make(chan hibana.Command, 64),
		subs:     make(map[*subscriber]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1 << 16,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
	h.fountain = w.Spawn(presets.NewFountainSystem(presets.NewFountain(cfg.Rate)))
	presets.NewFireworks(w, 1)
	hibana.Subscribe(w.Bus(), func(e hibana.SystemDespawned) {
		h.logger.Printf("system %v finished: %s", e.ID, e.System)
	})
	return h
}

// Subscribers returns the number of connected viewers.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Step applies pending commands, advances the World by dt and broadcasts
// the extracted frame.
func (h *Hub) Step(dt float32) {
	for pending := true; pending; {
		select {
		case cmd := <-h.commands:
			if !h.world.Apply(h.fountain, cmd) {
				h.logger.Printf("command %T ignored", cmd)
			}
		default:
			pending = false
		}
	}
	h.world.Update(dt)
	h.extracted = h.world.Extract(h.extracted[:0], nil)
	h.broadcast(h.encode())
}

// encode builds one binary frame: the frame number followed by the
// extracted records.
func (h *Hub) encode() []byte {
	body := hibana.AsBytes(h.extracted)
	msg := make([]byte, frameHeaderSize+len(body))
	binary.LittleEndian.PutUint64(msg, h.world.Frame())
	copy(msg[frameHeaderSize:], body)
	return msg
}

// decodeFrame splits a binary frame into its frame number and records.
func decodeFrame(msg []byte) (uint64, []hibana.ExtractedParticle, error) {
	if len(msg) < frameHeaderSize {
		return 0, nil, fmt.Errorf("frame too short: %d bytes", len(msg))
	}
	ps, err := hibana.FromBytes(msg[frameHeaderSize:])
	if err != nil {
		return 0, nil, fmt.Errorf("decode frame: %w", err)
	}
	return binary.LittleEndian.Uint64(msg), ps, nil
}

func (h *Hub) broadcast(msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		select {
		case sub.send <- msg:
		default:
			// Slow viewer, drop the frame.
		}
	}
}

// Run steps the hub at a fixed rate until stop is closed.
func (h *Hub) Run(fps int, stop <-chan struct{}) {
	frame := time.Second / time.Duration(fps)
	ticker := time.NewTicker(frame)
	defer ticker.Stop()
	last := time.Now()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			h.Step(float32(now.Sub(last).Seconds()))
			last = now
		}
	}
}

// Handle upgrades a viewer connection and serves it until it closes.
func (h *Hub) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("upgrade failed for %s: %v", r.RemoteAddr, err)
		return
	}
	sub := &subscriber{conn: conn, send: make(chan []byte, 4)}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	h.logger.Printf("viewer %s connected", r.RemoteAddr)

	go h.writeLoop(sub)
	h.readLoop(sub)

	h.mu.Lock()
	delete(h.subs, sub)
	h.mu.Unlock()
	close(sub.send)
	h.logger.Printf("viewer %s disconnected", r.RemoteAddr)
}

func (h *Hub) writeLoop(sub *subscriber) {
	defer sub.conn.Close()
	for msg := range sub.send {
		if err := sub.conn.WriteMessage(websocket.BinaryMessage, msg); err != nil {
			h.logger.Printf("write failed: %v", err)
			return
		}
	}
	message := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	sub.conn.WriteMessage(websocket.CloseMessage, message)
}

func (h *Hub) readLoop(sub *subscriber) {
	for {
		_, data, err := sub.conn.ReadMessage()
		if err != nil {
			return
		}
		var c command
		if err := json.Unmarshal(data, &c); err != nil {
			h.logger.Printf("bad command: %v", err)
			continue
		}
		cmd, err := c.toCommand()
		if err != nil {
			h.logger.Printf("bad command: %v", err)
			continue
		}
		select {
		case h.commands <- cmd:
		default:
			h.logger.Printf("command queue full, dropping %s", c.Type)
		}
	}
}
