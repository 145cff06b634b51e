package events

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/zhouzirui/items/backend/internal/service/events"
	"github.com/zhouzirui/items/backend/pkg/utils"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = (pongWait * 9) / 10
)

// Subscriber hands out event subscriptions.
type Subscriber interface {
	Subscribe() (<-chan events.Event, func())
}

// Handler 推送item变更事件 (WebSocket / SSE)
type Handler struct {
	hub          Subscriber
	upgrader     websocket.Upgrader
	pingInterval time.Duration
}

// New 创建事件处理器
func New(hub Subscriber) *Handler {
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		pingInterval: pingInterval,
	}
}

// RegisterRoutes 注册事件路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/events", h.handleWebSocket)
	r.Get("/stream", h.handleSSE)
}

// handleWebSocket 通过WebSocket推送事件
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	reqID := middleware.GetReqID(r.Context())
	slog.Info("event websocket opened", "request_id", reqID, "remote", r.RemoteAddr)
	defer slog.Info("event websocket closed", "request_id", reqID)

	feed, cancel := h.hub.Subscribe()
	defer cancel()

	// The read loop only handles control frames; it ends when the client goes away.
	done := make(chan struct{})
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case evt, ok := <-feed:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
				return
			}
			if err := conn.WriteJSON(evt); err != nil {
				slog.Warn("event websocket write failed", "request_id", reqID, "error", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleSSE 通过Server-Sent Events推送事件
func (h *Handler) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	feed, cancel := h.hub.Subscribe()
	defer cancel()

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)
	if err := utils.SendSSEComment(w, flusher, "connected"); err != nil {
		return
	}

	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-feed:
			if !ok {
				return
			}
			if err := utils.SendSSEChunk(w, flusher, string(evt.Type), evt); err != nil {
				slog.Warn("event stream write failed", "request_id", middleware.GetReqID(ctx), "error", err)
				return
			}
		case <-ticker.C:
			if err := utils.SendSSEComment(w, flusher, "heartbeat"); err != nil {
				return
			}
		}
	}
}
