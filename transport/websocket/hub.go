package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wricardo/mcp-training/labyrinth/game/board"
	"github.com/wricardo/mcp-training/labyrinth/game/engine"
	"github.com/wricardo/mcp-training/labyrinth/metrics"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	EventStateUpdate = "state_update"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message is what clients receive. GameState is the state as Viewer sees it.
type Message struct {
	SessionID string            `json:"session_id"`
	Viewer    board.Player      `json:"viewer,omitempty"`
	GameState *engine.GameState `json:"game_state,omitempty"`
	Event     string            `json:"event,omitempty"`
	Data      any               `json:"data,omitempty"`
}

// StateFunc returns the session state as seen by viewer
type StateFunc func(viewer board.Player) (*engine.GameState, error)

// Client is one websocket connection watching a session as one viewer.
// Viewer is board.NoPlayer for spectators.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	sessionID string
	viewer    board.Player
}

// outbound is a broadcast prepared outside the hub loop. Clients get the
// payload for their viewer, or the spectator payload.
type outbound struct {
	sessionID string
	payloads  map[board.Player][]byte
}

type countRequest struct {
	sessionID string
	reply     chan int
}

// Hub maintains the set of active clients per session and broadcasts to them
type Hub struct {
	// Registered clients by session ID
	sessions map[string]map[*Client]bool

	broadcast  chan *outbound
	register   chan *Client
	unregister chan *Client
	counts     chan countRequest
	done       chan struct{}

	logger *slog.Logger
}

// NewHub creates a new WebSocket hub
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		sessions:   make(map[string]map[*Client]bool),
		broadcast:  make(chan *outbound, engine.WebSocketBufferSize),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		counts:     make(chan countRequest),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run owns the client sets until ctx is done, then disconnects every client
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for _, clients := range h.sessions {
				for client := range clients {
					h.unregisterClient(client)
				}
			}
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.deliver(message)

		case req := <-h.counts:
			req.reply <- len(h.sessions[req.sessionID])
		}
	}
}

// ServeWS upgrades the request and registers a client for sessionID. The
// initial message, if any, is the first thing the client receives.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, sessionID string, viewer board.Player, initial *Message) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "session", sessionID, "error", err)
		return
	}

	client := &Client{
		hub:       h,
		conn:      conn,
		send:      make(chan []byte, engine.WebSocketBufferSize),
		sessionID: sessionID,
		viewer:    viewer,
	}
	if initial != nil {
		if data, err := json.Marshal(initial); err == nil {
			client.send <- data
		}
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// BroadcastState sends every client of the session the state for its viewer.
// Views are built here, on the caller's goroutine, for the spectator and each
// player in viewers.
func (h *Hub) BroadcastState(sessionID string, viewers []board.Player, view StateFunc) {
	payloads := make(map[board.Player][]byte, len(viewers)+1)
	for _, viewer := range append([]board.Player{board.NoPlayer}, viewers...) {
		state, err := view(viewer)
		if err != nil {
			h.logger.Warn("skipping websocket view", "session", sessionID, "viewer", viewer, "error", err)
			continue
		}
		data, err := json.Marshal(&Message{
			SessionID: sessionID,
			Viewer:    viewer,
			GameState: state,
			Event:     EventStateUpdate,
		})
		if err != nil {
			h.logger.Error("failed to marshal websocket message", "session", sessionID, "error", err)
			return
		}
		payloads[viewer] = data
	}
	if len(payloads) > 0 {
		h.enqueue(&outbound{sessionID: sessionID, payloads: payloads})
	}
}

// BroadcastEvent sends a custom event to all clients in a session
func (h *Hub) BroadcastEvent(sessionID string, event string, data any) {
	payload, err := json.Marshal(&Message{
		SessionID: sessionID,
		Event:     event,
		Data:      data,
	})
	if err != nil {
		h.logger.Error("failed to marshal websocket event", "session", sessionID, "event", event, "error", err)
		return
	}
	h.enqueue(&outbound{
		sessionID: sessionID,
		payloads:  map[board.Player][]byte{board.NoPlayer: payload},
	})
}

// ClientCount returns the number of clients watching sessionID
func (h *Hub) ClientCount(sessionID string) int {
	reply := make(chan int, 1)
	select {
	case h.counts <- countRequest{sessionID: sessionID, reply: reply}:
		return <-reply
	case <-h.done:
		return 0
	}
}

func (h *Hub) enqueue(message *outbound) {
	select {
	case h.broadcast <- message:
	case <-h.done:
	}
}

// registerClient adds a client to a session
func (h *Hub) registerClient(client *Client) {
	if h.sessions[client.sessionID] == nil {
		h.sessions[client.sessionID] = make(map[*Client]bool)
	}
	h.sessions[client.sessionID][client] = true
	metrics.WebSocketClients.Inc()

	h.logger.Debug("websocket client registered",
		"session", client.sessionID, "viewer", client.viewer, "clients", len(h.sessions[client.sessionID]))
}

// unregisterClient removes a client from a session
func (h *Hub) unregisterClient(client *Client) {
	clients, ok := h.sessions[client.sessionID]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	close(client.send)
	metrics.WebSocketClients.Dec()

	if len(clients) == 0 {
		delete(h.sessions, client.sessionID)
	}

	h.logger.Debug("websocket client unregistered",
		"session", client.sessionID, "viewer", client.viewer, "clients", len(clients))
}

// deliver runs on the hub loop, so it is the only writer of the client sets
func (h *Hub) deliver(message *outbound) {
	for client := range h.sessions[message.sessionID] {
		data, ok := message.payloads[client.viewer]
		if !ok {
			data = message.payloads[board.NoPlayer]
		}
		if data == nil {
			continue
		}
		select {
		case client.send <- data:
		default:
			// Client's send buffer is full
			h.unregisterClient(client)
		}
	}
}

// readPump keeps the connection alive and notices when the peer goes away
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		// Clients only listen; commands go through the REST API
		_, _, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("websocket read error", "session", c.sessionID, "error", err)
			}
			break
		}
	}
}

// writePump pumps messages from the hub to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// One JSON document per frame
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
