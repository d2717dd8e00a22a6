package control

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/skyrocket-qy/behaviortree/engine/bt"
)

// InProcessTransport exposes a Runner's command/event channels directly
// to an in-process client (§4.5: "an in-process queue ... are all
// acceptable").
type InProcessTransport struct {
	runner *Runner
}

func NewInProcessTransport(r *Runner) *InProcessTransport {
	return &InProcessTransport{runner: r}
}

// Send enqueues cmd for the runner's next drain cycle.
func (t *InProcessTransport) Send(cmd Command) {
	t.runner.Commands() <- cmd
}

// Events returns the runner's event stream.
func (t *InProcessTransport) Events() <-chan Event {
	return t.runner.Events()
}

// WebsocketTransport serves Runner commands/events over WebSocket
// connections, one per client, framing each Command/Event as a single
// binary message via EncodeFrame/DecodeFrame.
type WebsocketTransport struct {
	runner   *Runner
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[uint32]*wsClient
	nextId  uint32
}

type wsClient struct {
	id   uint32
	conn *websocket.Conn
	send chan Event
}

func NewWebsocketTransport(r *Runner) *WebsocketTransport {
	return &WebsocketTransport{
		runner: r,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[uint32]*wsClient),
	}
}

// ServeHTTP upgrades the connection and starts its read/write pumps. It
// implements http.Handler so callers mount it directly on a mux.
func (t *WebsocketTransport) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	conn, err := t.upgrader.Upgrade(w, req, nil)
	if err != nil {
		log.Printf("control: websocket upgrade error: %v", err)

		return
	}

	t.mu.Lock()
	t.nextId++
	id := t.nextId
	client := &wsClient{id: id, conn: conn, send: make(chan Event, 64)}
	t.clients[id] = client
	t.mu.Unlock()

	go t.readPump(client)
	go t.writePump(client)
}

// Broadcast fans out every event read from the runner to all connected
// clients. Callers run this in its own goroutine alongside Runner.Run.
func (t *WebsocketTransport) Broadcast() {
	for evt := range t.runner.Events() {
		t.mu.RLock()

		for _, c := range t.clients {
			select {
			case c.send <- evt:
			default:
				log.Printf("control: client %d event queue full, dropping", c.id)
			}
		}

		t.mu.RUnlock()
	}
}

func (t *WebsocketTransport) readPump(c *wsClient) {
	defer t.disconnect(c)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			t.runner.ReportDisconnect(fmt.Errorf("%w: client %d read: %w", bt.ErrDisconnected, c.id, err))

			return
		}

		kind, payload, err := DecodeFrame(data)
		if err != nil || kind != FrameCommand {
			continue
		}

		var cmd Command
		if err := json.Unmarshal(payload, &cmd); err != nil {
			continue
		}

		t.runner.Commands() <- cmd
	}
}

func (t *WebsocketTransport) writePump(c *wsClient) {
	for evt := range c.send {
		frame, err := EncodeFrame(FrameEvent, evt)
		if err != nil {
			continue
		}

		if err := c.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
			t.runner.ReportDisconnect(fmt.Errorf("%w: client %d write: %w", bt.ErrDisconnected, c.id, err))

			return
		}
	}
}

func (t *WebsocketTransport) disconnect(c *wsClient) {
	t.mu.Lock()
	delete(t.clients, c.id)
	t.mu.Unlock()

	close(c.send)
	c.conn.Close()
}
