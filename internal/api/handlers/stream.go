package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wonny/portfolio-dashboard/internal/contracts"
	"github.com/wonny/portfolio-dashboard/pkg/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// StreamMessage is one frame pushed to a stream subscriber
type StreamMessage struct {
	Type    string                       `json:"type"` // "portfolio" or "error"
	Data    *contracts.PortfolioResponse `json:"data,omitempty"`
	Message string                       `json:"message,omitempty"`
}

// StreamHandler pushes the portfolio over a websocket every refresh interval.
// Each push goes through the service, so the cache bounds upstream load.
type StreamHandler struct {
	service  PortfolioService
	logger   *logger.Logger
	interval time.Duration
	upgrader websocket.Upgrader
}

// NewStreamHandler creates a stream handler accepting the given origins
func NewStreamHandler(service PortfolioService, log *logger.Logger, interval time.Duration, allowedOrigins []string) *StreamHandler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}

	return &StreamHandler{
		service:  service,
		logger:   log,
		interval: interval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				_, ok := allowed[origin]
				return ok
			},
		},
	}
}

// Stream upgrades the connection and pushes until the client leaves
// GET /api/portfolio/stream
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go h.readPump(conn, cancel)

	h.logger.WithField("client", r.RemoteAddr).Debug("Stream client connected")
	defer h.logger.WithField("client", r.RemoteAddr).Debug("Stream client disconnected")

	push := time.NewTicker(h.interval)
	defer push.Stop()
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	if err := h.push(ctx, conn); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case <-push.C:
			if err := h.push(ctx, conn); err != nil {
				return
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *StreamHandler) push(ctx context.Context, conn *websocket.Conn) error {
	msg := StreamMessage{Type: "portfolio"}

	portfolio, err := h.service.GetPortfolio(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to compute portfolio for stream")
		msg = StreamMessage{Type: "error", Message: "Failed to fetch portfolio data"}
	} else {
		msg.Data = portfolio
	}

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}

// readPump drains client frames so pongs and close frames are processed
func (h *StreamHandler) readPump(conn *websocket.Conn, done context.CancelFunc) {
	defer done()

	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
