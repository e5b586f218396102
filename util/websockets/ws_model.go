package websockets

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Message types
const (
	MsgTypeSubscribe      = "subscribe"
	MsgTypeIncidentUpdate = "incident_update"
)

// Client represents a connected WebSocket subscriber
type Client struct {
	Conn      *websocket.Conn
	UserID    string
	Latitude  float64
	Longitude float64
}

type WebSocketManager struct {
	clients    map[*websocket.Conn]*Client
	broadcast  chan outbound
	register   chan *Client
	unregister chan *websocket.Conn
	mu         sync.Mutex
}

// outbound is a queued broadcast. When positioned is set, only subscribers
// within radiusKm of (latitude, longitude) receive it; subscribers that
// never sent a position receive everything.
type outbound struct {
	data       []byte
	positioned bool
	latitude   float64
	longitude  float64
	radiusKm   float64
}

// Envelope wraps a broadcast payload with its channel name
type Envelope struct {
	Type    string      `json:"type"`
	Topic   string      `json:"topic"`
	Payload interface{} `json:"payload"`
}

// Message struct for incoming WebSocket messages
type Message struct {
	Type      string  `json:"type"`
	UserID    string  `json:"user_id"`
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
}
