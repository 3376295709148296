package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wonny/overseas-dashboard/internal/dashboard"
	"github.com/wonny/overseas-dashboard/internal/portfolio"
	"github.com/wonny/overseas-dashboard/pkg/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 90 * time.Second
	pingPeriod = 45 * time.Second
)

// StreamMessage is one websocket frame
type StreamMessage struct {
	Type   string          `json:"type"` // portfolio, error
	View   *dashboard.View `json:"view,omitempty"`
	Error  *ErrorResponse  `json:"error,omitempty"`
	SentAt time.Time       `json:"sent_at"`
}

type streamClient struct {
	conn     *websocket.Conn
	currency portfolio.Currency
	out      chan StreamMessage
	done     chan struct{}
}

// Hub pushes the portfolio view to connected websocket clients
// ⭐ SSOT: 실시간 포트폴리오 푸시는 여기서만
type Hub struct {
	renderer Renderer
	interval time.Duration
	upgrader websocket.Upgrader
	logger   *logger.Logger

	mu      sync.RWMutex
	clients map[*streamClient]struct{}
}

// NewHub creates a hub that re-renders every interval
func NewHub(renderer Renderer, interval time.Duration, log *logger.Logger) *Hub {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Hub{
		renderer: renderer,
		interval: interval,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger:  log,
		clients: make(map[*streamClient]struct{}),
	}
}

// Run pushes on every tick until ctx is done.
// Nothing is rendered while no client is connected.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if h.ClientCount() > 0 {
				h.Push(ctx)
			}
		}
	}
}

// Push renders once in USD and fans the result out, converting for KRW
// clients so every tick costs a single token and balance round trip
func (h *Hub) Push(ctx context.Context) {
	h.mu.RLock()
	clients := make([]*streamClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	if len(clients) == 0 {
		return
	}

	view, err := h.renderer.Render(ctx, portfolio.Options{Currency: portfolio.USD})
	byCurrency := make(map[portfolio.Currency]StreamMessage)

	for _, c := range clients {
		msg, ok := byCurrency[c.currency]
		if !ok {
			msg = h.message(view, err, c.currency)
			byCurrency[c.currency] = msg
		}

		// Slow clients drop frames rather than block the hub
		select {
		case c.out <- msg:
		default:
		}
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeWS upgrades the connection and streams views
// GET /ws/portfolio?currency=KRW
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	cur, ok := portfolio.ParseCurrency(r.URL.Query().Get("currency"))
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid currency (valid: USD, KRW)")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	c := &streamClient{
		conn:     conn,
		currency: cur,
		out:      make(chan StreamMessage, 8),
		done:     make(chan struct{}),
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	h.logger.WithFields(map[string]interface{}{
		"remote":   r.RemoteAddr,
		"currency": string(cur),
		"clients":  h.ClientCount(),
	}).Info("Websocket client connected")

	go h.writeLoop(c)

	// First frame right away, not after a full interval
	view, err := h.renderer.Render(r.Context(), portfolio.Options{Currency: portfolio.USD})
	c.out <- h.message(view, err, cur)

	h.readLoop(c)

	close(c.done)
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()

	h.logger.WithField("remote", r.RemoteAddr).Info("Websocket client disconnected")
}

func (h *Hub) message(view *dashboard.View, err error, cur portfolio.Currency) StreamMessage {
	if err != nil {
		return StreamMessage{
			Type:   "error",
			Error:  &ErrorResponse{Error: err.Error(), Kind: dashboard.Classify(err)},
			SentAt: time.Now(),
		}
	}
	return StreamMessage{Type: "portfolio", View: view.InCurrency(cur), SentAt: time.Now()}
}

func (h *Hub) writeLoop(c *streamClient) {
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case msg := <-c.out:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ping.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// readLoop only drains control frames; clients do not send commands
func (h *Hub) readLoop(c *streamClient) {
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
