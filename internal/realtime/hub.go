package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"photo-triage/internal/analysis"
	"photo-triage/internal/logging"
	"photo-triage/internal/metrics"
	"photo-triage/internal/triage"
)

var log = logging.Named("realtime")

// Event types.
const (
	TypeBatch            = "batch"
	TypeResult           = "result"
	TypeProgress         = "progress"
	TypeScanFinished     = "scanFinished"
	TypeAnalysisFinished = "analysisFinished"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 256
)

// Event is a message sent to websocket clients.
type Event struct {
	Type      string              `json:"type"`
	Paths     []string            `json:"paths,omitempty"`
	Record    *triage.ImageRecord `json:"record,omitempty"`
	Completed int                 `json:"completed,omitempty"`
	Total     int                 `json:"total,omitempty"`
	ETA       float64             `json:"etaSeconds,omitempty"`
	Error     string              `json:"error,omitempty"`
	Summary   *AnalysisSummary    `json:"summary,omitempty"`
	Timestamp int64               `json:"timestamp"`
}

// AnalysisSummary is the wire form of analysis.Summary.
type AnalysisSummary struct {
	Total      int      `json:"total"`
	Completed  int      `json:"completed"`
	Failed     int      `json:"failed"`
	NotStarted []string `json:"notStarted,omitempty"`
	Cancelled  bool     `json:"cancelled"`
	Seconds    float64  `json:"seconds"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans session events out to websocket clients. It implements
// triage.Surface; publishing never blocks, and a client whose buffer is
// full is disconnected.
type Hub struct {
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	done       chan struct{}
	upgrader   websocket.Upgrader
	origins    map[string]struct{}

	mu      sync.Mutex
	clients map[*client]struct{}
}

var _ triage.Surface = (*Hub)(nil)

// NewHub returns a hub. Call Run to start delivering.
//
// Browsers may only connect from the page's own origin or from one of
// allowedOrigins ("https://host:port", compared case-insensitively).
// Requests without an Origin header are not browser requests and are
// accepted.
func NewHub(allowedOrigins ...string) *Hub {
	h := &Hub{
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, sendBuffer),
		done:       make(chan struct{}),
		origins:    make(map[string]struct{}, len(allowedOrigins)),
		clients:    make(map[*client]struct{}),
	}
	for _, o := range allowedOrigins {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			h.origins[strings.ToLower(o)] = struct{}{}
		}
	}
	h.upgrader = websocket.Upgrader{CheckOrigin: h.checkOrigin}
	return h
}

// Run delivers events until ctx is cancelled, then disconnects every
// client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				h.drop(c)
			}
			h.mu.Unlock()
			return
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			metrics.RealtimeClients.Set(float64(len(h.clients)))
			h.mu.Unlock()
		case c := <-h.unregister:
			h.mu.Lock()
			h.drop(c)
			h.mu.Unlock()
		case msg := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					log.Warn("Disconnecting slow client %s", c.conn.RemoteAddr())
					metrics.RealtimeDropped.Inc()
					h.drop(c)
				}
			}
			h.mu.Unlock()
		}
	}
}

// drop removes c. Caller holds h.mu.
func (h *Hub) drop(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	metrics.RealtimeClients.Set(float64(len(h.clients)))
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast queues event for every client. It drops the event when the hub
// is backed up.
func (h *Hub) Broadcast(event Event) {
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().Unix()
	}
	encoded, err := json.Marshal(event)
	if err != nil {
		log.Error("Failed to marshal %s event: %v", event.Type, err)
		return
	}
	select {
	case h.broadcast <- encoded:
	default:
		metrics.RealtimeDropped.Inc()
		log.Debug("Dropping %s event, broadcast queue full", event.Type)
	}
}

func (h *Hub) BatchFound(paths []string) {
	h.Broadcast(Event{Type: TypeBatch, Paths: paths})
}

func (h *Hub) ResultReady(record triage.ImageRecord) {
	h.Broadcast(Event{Type: TypeResult, Record: &record})
}

func (h *Hub) Progress(completed, total int, eta time.Duration) {
	h.Broadcast(Event{Type: TypeProgress, Completed: completed, Total: total, ETA: eta.Seconds()})
}

func (h *Hub) ScanFinished(err error) {
	e := Event{Type: TypeScanFinished}
	if err != nil {
		e.Error = err.Error()
	}
	h.Broadcast(e)
}

func (h *Hub) AnalysisFinished(s analysis.Summary) {
	h.Broadcast(Event{Type: TypeAnalysisFinished, Summary: &AnalysisSummary{
		Total:      s.Total,
		Completed:  s.Completed,
		Failed:     s.Failed,
		NotStarted: s.NotStarted,
		Cancelled:  s.Cancelled,
		Seconds:    s.Duration.Seconds(),
	}})
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if _, ok := h.origins[strings.ToLower(strings.TrimRight(origin, "/"))]; ok {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

// ServeWS upgrades the connection and streams events to it until the
// client goes away or the hub stops.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("Websocket upgrade error: %v", err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}
	log.Debug("Client connected: %s", conn.RemoteAddr())

	go c.writeLoop()

	// Reader: only pongs and close frames are expected
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	select {
	case h.unregister <- c:
	case <-h.done:
	}
	log.Debug("Client disconnected: %s", conn.RemoteAddr())
}

func (c *client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
