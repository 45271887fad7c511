// Package websocket pushes detection progress to the page that asked for it.
package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"vehicledetect/internal/logger"
)

const (
	EventStarted  = "started"
	EventFinished = "finished"
	EventFailed   = "failed"
)

// Event is one progress message for a session.
type Event struct {
	Type       string `json:"type"`
	Filename   string `json:"filename,omitempty"`
	Detections int    `json:"detections"`
	DurationMs int64  `json:"duration_ms,omitempty"`
	Error      string `json:"error,omitempty"`
}

type Client struct {
	Session string
	Conn    *websocket.Conn
}

type envelope struct {
	session string
	payload []byte
}

type HubService struct {
	clients    map[*Client]bool
	publish    chan envelope
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mutex      sync.RWMutex
	logger     *logger.Logger
}

func NewHubService(logger *logger.Logger) *HubService {
	return &HubService{
		clients:    make(map[*Client]bool),
		publish:    make(chan envelope, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run owns the client set until ctx is done, then closes every connection.
func (h *HubService) Run(ctx context.Context) error {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for client := range h.clients {
				client.Conn.Close()
				delete(h.clients, client)
			}
			h.mutex.Unlock()
			return nil

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Client connected. Total: %d", total)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Conn.Close()
			}
			total := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Client disconnected. Total: %d", total)

		case msg := <-h.publish:
			h.mutex.Lock()
			for client := range h.clients {
				if client.Session != msg.session {
					continue
				}
				if err := client.Conn.WriteMessage(websocket.TextMessage, msg.payload); err != nil {
					h.logger.Error("Error sending message: %v", err)
					delete(h.clients, client)
					client.Conn.Close()
				}
			}
			h.mutex.Unlock()
		}
	}
}

func (h *HubService) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.Conn.Close()
	}
}

func (h *HubService) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish queues an event for the session's pages. Events are dropped when
// the queue is full; they only drive the progress indicator.
func (h *HubService) Publish(session string, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("Error encoding event: %v", err)
		return
	}

	select {
	case h.publish <- envelope{session: session, payload: payload}:
	default:
		h.logger.Warning("⚠️  Event queue full, dropping %s event for session %s", event.Type, session)
	}
}

func (h *HubService) GetClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}
