package feed

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/lockpanel/internal/logging"
	"github.com/muurk/lockpanel/internal/panel"
)

const (
	// Time allowed to write a frame to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong from the peer
	pongWait = 60 * time.Second

	// Send pings with this period (must be less than pongWait)
	pingPeriod = 30 * time.Second

	// Clients only send control frames
	maxMessageSize = 1024

	// Frames queued per client before it is dropped as too slow
	sendBuffer = 32
)

// Frame types, one per slot plus transient events
const (
	TypeOTP             = "otp"
	TypeRemaining       = "remaining"
	TypeBluetoothButton = "bluetooth_button_disabled"
	TypeBluetoothState  = "bluetooth_state"
	TypeDoor            = "door"
	TypeUnlockCue       = "unlock_cue"
	TypeSubmitDisabled  = "submit_disabled"
	TypeResult          = "result"
	TypeUnlock          = "unlock"
)

// replayOrder fixes the order in which latest values reach a new client
var replayOrder = []string{
	TypeOTP, TypeRemaining, TypeBluetoothButton, TypeBluetoothState,
	TypeDoor, TypeUnlockCue, TypeSubmitDisabled, TypeResult,
}

// Frame is the wire format of every message
type Frame struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// DoorData is the payload of a door frame
type DoorData struct {
	Locked bool   `json:"locked"`
	Label  string `json:"label"`
}

// CueData is the payload of an unlock_cue frame
type CueData struct {
	Active bool `json:"active"`
	Pulse  bool `json:"pulse"`
}

// ResultData is the payload of a result frame
type ResultData struct {
	Text     string `json:"text"`
	Severity string `json:"severity"`
}

type client struct {
	conn   *websocket.Conn
	send   chan []byte
	remote string
	once   sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// Hub fans slot writes out to websocket clients
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]bool
	latest  map[string][]byte
	cue     CueData
	closed  bool
}

// NewHub creates an empty hub. Origins are not checked; bind the feed to
// a trusted interface.
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]bool),
		latest:  make(map[string][]byte),
	}
}

// Slots returns panel slots that write to the hub
func (h *Hub) Slots() panel.Slots {
	return panel.Slots{
		OTP:                     panel.TextFunc(func(s string) { h.publish(TypeOTP, s) }),
		Remaining:               panel.TextFunc(func(s string) { h.publish(TypeRemaining, s) }),
		BluetoothButtonDisabled: panel.FlagFunc(func(b bool) { h.publish(TypeBluetoothButton, b) }),
		BluetoothState:          panel.TextFunc(func(s string) { h.publish(TypeBluetoothState, s) }),
		DoorStatus: panel.DoorFunc(func(locked bool) {
			h.publish(TypeDoor, DoorData{Locked: locked, Label: panel.DoorLabel(locked)})
		}),
		UnlockCue:      h,
		SubmitDisabled: panel.FlagFunc(func(b bool) { h.publish(TypeSubmitDisabled, b) }),
		Result: panel.MessageFunc(func(m panel.ResultMessage) {
			h.publish(TypeResult, ResultData{Text: m.Text, Severity: m.Severity.String()})
		}),
	}
}

// SetActive implements panel.CueSlot
func (h *Hub) SetActive(active bool) {
	h.mu.Lock()
	h.cue.Active = active
	cue := h.cue
	h.mu.Unlock()
	h.publish(TypeUnlockCue, cue)
}

// SetPulse implements panel.CueSlot
func (h *Hub) SetPulse(pulse bool) {
	h.mu.Lock()
	h.cue.Pulse = pulse
	cue := h.cue
	h.mu.Unlock()
	h.publish(TypeUnlockCue, cue)
}

// Reflow implements panel.CueSlot. Clients restart their pulse when they
// see pulse go false then true.
func (h *Hub) Reflow() {}

// Observe forwards panel events that have no slot of their own
func (h *Hub) Observe(ev panel.Event) {
	if ev.Kind == panel.EventUnlock {
		h.broadcast(TypeUnlock, ev.Status, false)
	}
}

// Clients returns the number of connected clients
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Snapshot returns the latest frame of every slot in replay order
func (h *Hub) Snapshot() []Frame {
	h.mu.Lock()
	defer h.mu.Unlock()

	frames := make([]Frame, 0, len(h.latest))
	for _, typ := range replayOrder {
		if data, ok := h.latest[typ]; ok {
			var f Frame
			if err := json.Unmarshal(data, &f); err == nil {
				frames = append(frames, f)
			}
		}
	}
	return frames
}

func (h *Hub) publish(typ string, data any) {
	h.broadcast(typ, data, true)
}

// broadcast encodes a frame, optionally records it as the slot's latest
// value, and queues it for every client. A client whose queue is full is
// dropped.
func (h *Hub) broadcast(typ string, data any, retain bool) {
	msg, err := json.Marshal(Frame{Type: typ, Data: data})
	if err != nil {
		logging.Error("Failed to encode feed frame", zap.String("type", typ), zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	if retain {
		h.latest[typ] = msg
	}
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			logging.Warn("Feed client too slow, dropping", zap.String("remote_addr", c.remote))
			delete(h.clients, c)
			c.close()
		}
	}
}

// ServeHTTP upgrades the request and streams frames until the client
// goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn("Feed upgrade failed", zap.String("remote_addr", r.RemoteAddr), zap.Error(err))
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer+len(replayOrder)), remote: r.RemoteAddr}
	if !h.register(c) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}

	go h.writePump(c)
	h.readPump(c)
}

// register adds c and queues the latest frames for it
func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	for _, typ := range replayOrder {
		if msg, ok := h.latest[typ]; ok {
			c.send <- msg
		}
	}
	h.clients[c] = true
	logging.LogFeedClient(c.remote, "connected", len(h.clients))
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if h.clients[c] {
		delete(h.clients, c)
		c.close()
	}
	n := len(h.clients)
	h.mu.Unlock()
	logging.LogFeedClient(c.remote, "disconnected", n)
}

// readPump discards client messages and keeps the read deadline fresh
func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump owns all writes to the connection
func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logging.Debug("Feed write failed", zap.String("remote_addr", c.remote), zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// Close disconnects every client and rejects new ones
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		c.close()
	}
}
