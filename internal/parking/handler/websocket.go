package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"parksmart_backend/internal/locator"
	"parksmart_backend/internal/parking/transport"
	"parksmart_backend/platform/apperr"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	wsWriteWait    = 10 * time.Second
	wsPongWait     = 60 * time.Second
	wsPingInterval = 30 * time.Second
	wsReadLimit    = 4096
	wsSendBuffer   = 16
	wsTransport    = "websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin policy is enforced by the CORS middleware.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// LocationStream handles GET /api/v1/parking/location/stream. The device
// sends one JSON frame per reading and receives an acknowledgement for each.
func (h *Handler) LocationStream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	clientID := uuid.NewString()
	h.metrics.StreamClientConnected(wsTransport)
	h.log.StreamOpened(wsTransport, clientID)
	defer func() {
		h.metrics.StreamClientDisconnected(wsTransport)
		h.log.StreamClosed(wsTransport, clientID)
	}()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	send := make(chan transport.FrameReply, wsSendBuffer)
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.writePump(ctx, conn, send)
	}()

	h.readPump(ctx, conn, send)
	cancel()
	<-done
}

// writePump owns all writes to conn.
func (h *Handler) writePump(ctx context.Context, conn *websocket.Conn, send <-chan transport.FrameReply) {
	ticker := time.NewTicker(wsPingInterval)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case reply := <-send:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(reply); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Handler) readPump(ctx context.Context, conn *websocket.Conn, send chan<- transport.FrameReply) {
	conn.SetReadLimit(wsReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				h.log.Warn("websocket read error", "error", err)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))

		reply := h.handleFrame(ctx, message)
		select {
		case send <- reply:
		case <-ctx.Done():
			return
		}
	}
}

func (h *Handler) handleFrame(ctx context.Context, message []byte) transport.FrameReply {
	var frame transport.Frame
	if err := json.Unmarshal(message, &frame); err != nil {
		return transport.FrameReply{Type: "error", Error: msgInvalidRequest}
	}
	if err := h.val.Struct(frame); err != nil {
		return transport.FrameReply{Type: "error", Error: msgValidationFailed}
	}

	reading, err := h.frameReading(frame)
	if err != nil {
		return transport.FrameReply{Type: "error", Error: err.Error()}
	}
	if err := h.push(ctx, reading); err != nil {
		msg := "internal error"
		if apperr.GetKind(err) != apperr.KindUnknown {
			msg = msgNotWatching
		}
		return transport.FrameReply{Type: "error", Error: msg}
	}
	return transport.FrameReply{Type: "ack"}
}

func (h *Handler) frameReading(f transport.Frame) (locator.Reading, error) {
	switch f.Type {
	case "fix":
		req := transport.LocationRequest{
			Latitude:  f.Latitude,
			Longitude: f.Longitude,
			Accuracy:  f.Accuracy,
			Timestamp: f.Timestamp,
		}
		if err := h.val.Struct(req); err != nil {
			return locator.Reading{}, apperr.Validation(msgValidationFailed)
		}
		return req.Reading(), nil
	default:
		req := transport.SensorErrorRequest{Code: f.Code, Message: f.Message}
		if err := h.val.Struct(req); err != nil {
			return locator.Reading{}, apperr.Validation(msgValidationFailed)
		}
		return req.Reading(), nil
	}
}
