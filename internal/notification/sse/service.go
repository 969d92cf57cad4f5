// Package sse provides Server-Sent Events support for real-time session updates.
package sse

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"parksmart_backend/platform/logger"
	"parksmart_backend/platform/metrics"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// EventType represents different types of SSE events
type EventType string

const (
	EventStateChanged    EventType = "state_changed"
	EventSearchCompleted EventType = "search_completed"
	EventSearchFailed    EventType = "search_failed"
	EventSensorFailed    EventType = "sensor_failed"
)

const (
	clientBuffer      = 32
	keepAliveInterval = 25 * time.Second
	transportName     = "sse"
)

// Event represents an SSE event payload
type Event struct {
	Type    EventType   `json:"type"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// client represents a connected SSE client
type client struct {
	id     uuid.UUID
	events chan Event
}

// Service manages SSE connections and event broadcasting
type Service struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]*client
	closed  bool
	log     *logger.Logger
	metrics *metrics.Recorder
}

// New creates a new SSE service
func New(log *logger.Logger, rec *metrics.Recorder) *Service {
	return &Service{
		clients: make(map[uuid.UUID]*client),
		log:     log,
		metrics: rec,
	}
}

// addClient registers a new client connection
func (s *Service) addClient(c *client) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.clients[c.id] = c
	s.metrics.StreamClientConnected(transportName)
	return true
}

// removeClient unregisters a client connection
func (s *Service) removeClient(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.clients[c.id]; !ok {
		return
	}
	delete(s.clients, c.id)
	close(c.events)
	s.metrics.StreamClientDisconnected(transportName)
}

// Broadcast sends an event to every connected client. Slow clients whose
// buffer is full miss the event rather than blocking the publisher.
func (s *Service) Broadcast(event Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.clients {
		select {
		case c.events <- event:
		default:
			s.log.Warn("sse event buffer full", "client", c.id, "type", event.Type)
		}
	}
}

// ClientCount returns the number of connected clients.
func (s *Service) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Handler returns a Gin handler for SSE connections. initial, when set,
// is sent right after the connection event so late joiners see the
// current state immediately.
func (s *Service) Handler(initial func() Event) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Set SSE headers
		c.Writer.Header().Set("Content-Type", "text/event-stream")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")
		c.Writer.Header().Set("X-Accel-Buffering", "no")

		cl := &client{
			id:     uuid.New(),
			events: make(chan Event, clientBuffer),
		}
		if !s.addClient(cl) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "shutting down"})
			return
		}
		defer s.removeClient(cl)

		c.SSEvent("connected", gin.H{"clientId": cl.id})
		if initial != nil {
			writeEvent(c, initial())
		}
		c.Writer.Flush()

		s.log.StreamOpened(transportName, cl.id.String())

		keepAlive := time.NewTicker(keepAliveInterval)
		defer keepAlive.Stop()

		clientGone := c.Request.Context().Done()
		for {
			select {
			case <-clientGone:
				s.log.StreamClosed(transportName, cl.id.String())
				return
			case <-keepAlive.C:
				_, _ = c.Writer.Write([]byte(": keep-alive\n\n"))
				c.Writer.Flush()
			case event, ok := <-cl.events:
				if !ok {
					return
				}
				writeEvent(c, event)
				c.Writer.Flush()
			}
		}
	}
}

func writeEvent(c *gin.Context, event Event) {
	data, _ := json.Marshal(event)
	c.SSEvent(string(event.Type), string(data))
}

// Close disconnects every client and rejects new ones.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	for id, c := range s.clients {
		close(c.events)
		delete(s.clients, id)
		s.metrics.StreamClientDisconnected(transportName)
	}
}
