package ws

import (
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 256
)

type activityMessage struct {
	carnet  string
	payload []byte
}

// ActivityHub handles admin websocket clients listening for answer events.
type ActivityHub struct {
	register   chan *activityClient
	unregister chan *activityClient
	broadcast  chan activityMessage
	clients    map[*activityClient]struct{}
}

func NewActivityHub() *ActivityHub {
	return &ActivityHub{
		register:   make(chan *activityClient),
		unregister: make(chan *activityClient),
		broadcast:  make(chan activityMessage, 256),
		clients:    make(map[*activityClient]struct{}),
	}
}

func (h *ActivityHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = struct{}{}
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				client.conn.Close()
			}
		case msg := <-h.broadcast:
			for client := range h.clients {
				if client.carnet != "" && client.carnet != msg.carnet {
					continue
				}
				select {
				case client.send <- msg.payload:
				default:
					delete(h.clients, client)
					close(client.send)
					client.conn.Close()
				}
			}
		}
	}
}

// send never blocks a request handler; events are dropped when the hub is
// backed up.
func (h *ActivityHub) send(msg activityMessage) {
	if h == nil {
		return
	}
	select {
	case h.broadcast <- msg:
	default:
		log.Printf("ws: activity hub backlog full, dropping event for %s", msg.carnet)
	}
}

type activityClient struct {
	hub    *ActivityHub
	conn   *websocket.Conn
	send   chan []byte
	carnet string
}

func newActivityClient(hub *ActivityHub, conn *websocket.Conn, carnet string) *activityClient {
	return &activityClient{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		carnet: carnet,
	}
}

func (c *activityClient) readPump() {
	defer func() {
		c.hub.unregister <- c
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *activityClient) writePump() {
	writePump(c.conn, c.send)
}

// writePump drains send into conn and keeps the connection alive with pings.
func writePump(conn *websocket.Conn, send <-chan []byte) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()
	for {
		select {
		case msg, ok := <-send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			w, err := conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			if _, err := w.Write(msg); err != nil {
				return
			}
			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
