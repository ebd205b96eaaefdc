package sse

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/gin-gonic/gin"
)

// Hub broadcasts JSON events to every connected client. Used for the live
// operator feed of audit entries; slow clients drop events rather than
// blocking the publisher.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]chan string
	retryMs int
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]chan string), retryMs: 5000}
}

// Publish serializes v and queues it for all clients. Never blocks.
func (h *Hub) Publish(event string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	msg := fmt.Sprintf("event: %s\ndata: %s\n\n", event, data)
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.clients {
		select {
		case ch <- msg:
		default: // client too slow, drop
		}
	}
}

func (h *Hub) add(id string) chan string {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch := make(chan string, 64)
	h.clients[id] = ch
	return ch
}

func (h *Hub) remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, id)
}

// Serve attaches the request as an SSE client until it disconnects.
func (h *Hub) Serve(c *gin.Context, clientID string) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	ch := h.add(clientID)
	defer h.remove(clientID)

	fmt.Fprintf(c.Writer, "retry: %d\n\n", h.retryMs)
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case msg, ok := <-ch:
			if !ok {
				return false
			}
			_, _ = io.WriteString(w, msg)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
