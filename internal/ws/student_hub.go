package ws

import (
	"log"
	"time"

	"github.com/gorilla/websocket"
)

type studentNotification struct {
	carnet  string
	payload []byte
}

// StudentHub keeps one connection per carnet so a student's other tabs or
// devices see their own answer changes.
type StudentHub struct {
	register   chan *studentClient
	unregister chan *studentClient
	notify     chan studentNotification
	clients    map[string]*studentClient
}

func NewStudentHub() *StudentHub {
	return &StudentHub{
		register:   make(chan *studentClient),
		unregister: make(chan *studentClient),
		notify:     make(chan studentNotification, 256),
		clients:    make(map[string]*studentClient),
	}
}

func (h *StudentHub) Run() {
	for {
		select {
		case client := <-h.register:
			if existing, ok := h.clients[client.carnet]; ok {
				existing.conn.Close()
			}
			h.clients[client.carnet] = client
		case client := <-h.unregister:
			if stored, ok := h.clients[client.carnet]; ok && stored == client {
				delete(h.clients, client.carnet)
			}
		case msg := <-h.notify:
			if client, ok := h.clients[msg.carnet]; ok {
				select {
				case client.send <- msg.payload:
				default:
					client.conn.Close()
					delete(h.clients, msg.carnet)
				}
			}
		}
	}
}

func (h *StudentHub) notifyRaw(carnet string, data []byte) {
	if h == nil {
		return
	}
	select {
	case h.notify <- studentNotification{carnet: carnet, payload: data}:
	default:
		log.Printf("ws: student hub backlog full, dropping event for %s", carnet)
	}
}

type studentClient struct {
	hub    *StudentHub
	conn   *websocket.Conn
	send   chan []byte
	carnet string
}

func newStudentClient(hub *StudentHub, conn *websocket.Conn, carnet string) *studentClient {
	return &studentClient{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, 64),
		carnet: carnet,
	}
}

func (c *studentClient) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
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
