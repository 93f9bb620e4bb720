package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"mezzanine/domain/core"
	"mezzanine/models"

	"github.com/gin-gonic/gin"
)

// sseClient is one subscriber to the events of a session
type sseClient struct {
	SessionID string
	Channel   chan models.SessionEvent
}

// SSEHub fans session events out to Server-Sent Events subscribers. It
// implements ports.SessionEventBroadcaster.
type SSEHub struct {
	clients    map[string]map[chan models.SessionEvent]bool
	clientsMu  sync.RWMutex
	register   chan sseClient
	unregister chan sseClient
	broadcast  chan models.SessionEvent
	done       chan struct{}
	closeOnce  sync.Once
	logger     *slog.Logger

	// KeepAlive is the interval between pings on an idle stream.
	KeepAlive time.Duration
}

// NewSSEHub creates a hub and starts its dispatch loop
func NewSSEHub(logger *slog.Logger) *SSEHub {
	if logger == nil {
		logger = slog.Default()
	}
	hub := &SSEHub{
		clients:    make(map[string]map[chan models.SessionEvent]bool),
		register:   make(chan sseClient, 10),
		unregister: make(chan sseClient, 10),
		broadcast:  make(chan models.SessionEvent, 100),
		done:       make(chan struct{}),
		logger:     logger,
		KeepAlive:  30 * time.Second,
	}

	go hub.run()
	return hub
}

func (h *SSEHub) run() {
	for {
		select {
		case client := <-h.register:
			h.clientsMu.Lock()
			if h.clients[client.SessionID] == nil {
				h.clients[client.SessionID] = make(map[chan models.SessionEvent]bool)
			}
			h.clients[client.SessionID][client.Channel] = true
			h.logger.Debug("sse client registered",
				"session_id", client.SessionID,
				"clients", len(h.clients[client.SessionID]))
			h.clientsMu.Unlock()

		case client := <-h.unregister:
			h.clientsMu.Lock()
			if clients, exists := h.clients[client.SessionID]; exists {
				delete(clients, client.Channel)
				if len(clients) == 0 {
					delete(h.clients, client.SessionID)
				}
				h.logger.Debug("sse client unregistered",
					"session_id", client.SessionID,
					"clients", len(clients))
			}
			h.clientsMu.Unlock()

		case event := <-h.broadcast:
			h.clientsMu.RLock()
			for clientChan := range h.clients[event.SessionID] {
				select {
				case clientChan <- event:
				default:
					h.logger.Warn("sse client channel full, skipping event",
						"session_id", event.SessionID,
						"event_type", event.EventType)
				}
			}
			h.clientsMu.RUnlock()

		case <-h.done:
			return
		}
	}
}

// Broadcast queues an event for the subscribers of its session. It never
// blocks; events are dropped when the hub is saturated.
func (h *SSEHub) Broadcast(event models.SessionEvent) {
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("sse broadcast channel full, dropping event",
			"session_id", event.SessionID,
			"event_type", event.EventType)
	}
}

// Close stops the dispatch loop
func (h *SSEHub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// ClientCount returns the number of subscribers of a session
func (h *SSEHub) ClientCount(sessionID string) int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients[sessionID])
}

// HandleSSE streams the events of the session named by the :id parameter
func (h *SSEHub) HandleSSE(c *gin.Context) {
	id, err := core.ParseSessionID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sessionID := id.String()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	clientChan := make(chan models.SessionEvent, 10)
	select {
	case h.register <- sseClient{SessionID: sessionID, Channel: clientChan}:
	default:
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "event hub is busy"})
		return
	}
	defer func() {
		select {
		case h.unregister <- sseClient{SessionID: sessionID, Channel: clientChan}:
		default:
		}
	}()

	c.Status(http.StatusOK)
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case event := <-clientChan:
			eventJSON, err := json.Marshal(event)
			if err != nil {
				h.logger.Error("failed to marshal session event", "error", err)
				return true
			}
			c.SSEvent("session", string(eventJSON))
			return event.EventType != models.EventSessionFinished

		case <-time.After(h.KeepAlive):
			c.SSEvent("ping", `{"status":"alive","timestamp":"`+time.Now().UTC().Format(time.RFC3339)+`"}`)
			return true

		case <-ctx.Done():
			return false

		case <-h.done:
			return false
		}
	})
}
