package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/Ashenafi-pixel/arcade-launcher/gamepad"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/tidwall/gjson"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

const (
	writeWait      = 2 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 25 * time.Second
	maxMessageSize = 64 << 10
)

// The launcher is a local app; game pages and the phone upload UI may come from any origin.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub tracks one gamepad session per open launcher page.
type Hub struct {
	mu       sync.Mutex
	sessions map[string]*session
	count    atomic.Int64
}

type session struct {
	id     string
	conn   *websocket.Conn
	engine *gamepad.Engine

	writeMu sync.Mutex
}

func NewHub() *Hub {
	return &Hub{sessions: make(map[string]*session)}
}

// Sessions returns the number of connected pages.
func (h *Hub) Sessions() int64 { return h.count.Load() }

type serverMessage struct {
	Type    string           `json:"type"`
	Actions []gamepad.Action `json:"actions,omitempty"`
	Mapping gamepad.Mapping  `json:"mapping,omitempty"`
}

// frameMessage is {"type":"frame","pads":[...],"ui":{...}}.
type frameMessage struct {
	Pads []gamepad.Pad    `json:"pads"`
	UI   gamepad.UIState `json:"ui"`
}

// ServeWS upgrades GET /ws/gamepad and runs the session until the page goes away.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.L().Warn("gamepad websocket upgrade", zap.Error(err))
		return
	}
	sess := &session{
		id:     uuid.NewString(),
		conn:   conn,
		engine: gamepad.NewEngine(nil),
	}
	h.add(sess)
	defer h.remove(sess)

	zap.L().Info("gamepad session opened", zap.String("session", sess.id), zap.String("remote", r.RemoteAddr))
	stop := make(chan struct{})
	defer close(stop)
	go sess.pinger(stop)
	sess.readLoop()
	zap.L().Info("gamepad session closed", zap.String("session", sess.id))
}

func (h *Hub) add(s *session) {
	h.mu.Lock()
	h.sessions[s.id] = s
	h.mu.Unlock()
	h.count.Inc()
}

func (h *Hub) remove(s *session) {
	h.mu.Lock()
	_, ok := h.sessions[s.id]
	delete(h.sessions, s.id)
	h.mu.Unlock()
	if ok {
		h.count.Dec()
	}
	s.conn.Close()
}

func (h *Hub) snapshot() []*session {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*session, 0, len(h.sessions))
	for _, s := range h.sessions {
		out = append(out, s)
	}
	return out
}

// BroadcastLibrary tells every page to reload the catalog.
func (h *Hub) BroadcastLibrary() {
	for _, s := range h.snapshot() {
		if err := s.send(serverMessage{Type: "library"}); err != nil {
			zap.L().Debug("library broadcast", zap.String("session", s.id), zap.Error(err))
		}
	}
}

// Native routes host joystick frames through every session's engine.
func (h *Hub) Native(pads []gamepad.Pad) {
	for _, s := range h.snapshot() {
		if acts := s.engine.Native(pads); len(acts) > 0 {
			if err := s.send(serverMessage{Type: "actions", Actions: acts}); err != nil {
				zap.L().Debug("native actions", zap.String("session", s.id), zap.Error(err))
			}
		}
	}
}

// CloseAll disconnects every session; used on shutdown since hijacked connections are not
// tracked by http.Server.
func (h *Hub) CloseAll() {
	for _, s := range h.snapshot() {
		s.writeMu.Lock()
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(writeWait))
		s.writeMu.Unlock()
		s.conn.Close()
	}
}

func (s *session) send(msg serverMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

func (s *session) pinger(stop <-chan struct{}) {
	t := time.NewTicker(pingPeriod)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			s.writeMu.Lock()
			err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			s.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func (s *session) readLoop() {
	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				zap.L().Debug("gamepad websocket read", zap.String("session", s.id), zap.Error(err))
			}
			return
		}
		_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
		reply, ok := s.handle(data)
		if !ok {
			continue
		}
		if err := s.send(reply); err != nil {
			return
		}
	}
}

// handle applies one client message and returns the reply, if any.
func (s *session) handle(data []byte) (serverMessage, bool) {
	if !gjson.ValidBytes(data) {
		return serverMessage{}, false
	}
	msg := gjson.ParseBytes(data)
	switch msg.Get("type").String() {
	case "frame":
		var f frameMessage
		if err := json.Unmarshal(data, &f); err != nil {
			return serverMessage{}, false
		}
		acts := s.engine.Browser(f.Pads, f.UI)
		if len(acts) == 0 {
			return serverMessage{}, false
		}
		return serverMessage{Type: "actions", Actions: acts}, true

	case "mapping":
		raw := msg.Get("raw")
		var stored []byte
		switch {
		case raw.Type == gjson.String:
			// The page may forward the localStorage string untouched.
			stored = []byte(raw.String())
		case raw.Exists():
			stored = []byte(raw.Raw)
		}
		m, migrated := gamepad.ParseMapping(stored)
		if migrated {
			zap.L().Info("gamepad mapping migrated", zap.String("session", s.id))
		}
		s.engine.SetMapping(m)
		return serverMessage{Type: "mapping", Mapping: m}, true

	case "reset":
		group, name := msg.Get("group").String(), msg.Get("name").String()
		m := s.engine.Update(func(m gamepad.Mapping) {
			if group == "" {
				m.ResetAll()
				return
			}
			m.Reset(gamepad.Control{Group: group, Name: name})
		})
		return serverMessage{Type: "mapping", Mapping: m}, true

	case "bind":
		c := gamepad.Control{Group: msg.Get("group").String(), Name: msg.Get("name").String()}
		b := gamepad.Binding{
			Button:  int(msg.Get("binding.button").Int()),
			Key:     msg.Get("binding.key").String(),
			KeyCode: int(msg.Get("binding.keyCode").Int()),
		}
		m := s.engine.Update(func(m gamepad.Mapping) { m.Set(c, b) })
		return serverMessage{Type: "mapping", Mapping: m}, true

	case "capture":
		s.engine.StartCapture()
	case "cancelCapture":
		s.engine.CancelCapture()
	}
	return serverMessage{}, false
}
