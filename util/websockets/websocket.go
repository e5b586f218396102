package websockets

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/vberk/incident_triage_api/util"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// NewWebSocketManager initializes a WebSocketManager
func NewWebSocketManager() *WebSocketManager {
	return &WebSocketManager{
		clients:    make(map[*websocket.Conn]*Client),
		broadcast:  make(chan outbound, 64),
		register:   make(chan *Client),
		unregister: make(chan *websocket.Conn),
	}
}

// Run starts the WebSocket manager
func (manager *WebSocketManager) Run() {
	for {
		select {
		case client := <-manager.register:
			manager.mu.Lock()
			manager.clients[client.Conn] = client
			manager.mu.Unlock()

		case conn := <-manager.unregister:
			manager.mu.Lock()
			if client, exists := manager.clients[conn]; exists {
				delete(manager.clients, conn)
				conn.Close()
				log.Printf("Client %s disconnected", client.UserID)
			}
			manager.mu.Unlock()

		case msg := <-manager.broadcast:
			manager.mu.Lock()
			for _, client := range manager.clients {
				if !manager.shouldReceive(client, msg) {
					continue
				}
				if err := client.Conn.WriteMessage(websocket.TextMessage, msg.data); err != nil {
					client.Conn.Close()
					delete(manager.clients, client.Conn)
				}
			}
			manager.mu.Unlock()
		}
	}
}

// HandleConnections upgrades HTTP requests to WebSocket connections
func (manager *WebSocketManager) HandleConnections(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("WebSocket Upgrade Error:", err)
		return
	}

	client := &Client{Conn: conn}
	manager.register <- client

	defer func() {
		manager.unregister <- conn
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			manager.unregister <- conn
			break
		}

		var message Message
		if err := json.Unmarshal(msg, &message); err != nil {
			log.Println("Invalid JSON:", err)
			continue
		}

		if message.Type == MsgTypeSubscribe {
			// The broadcast loop reads these fields under the same lock.
			manager.mu.Lock()
			client.UserID = message.UserID
			client.Latitude = message.Latitude
			client.Longitude = message.Longitude
			manager.mu.Unlock()
		}
	}
}

// shouldReceive applies the position filter. A subscriber that never sent a
// position (zero coordinates) gets every message, dashboards included.
func (manager *WebSocketManager) shouldReceive(client *Client, msg outbound) bool {
	if !msg.positioned {
		return true
	}
	if client.Latitude == 0 && client.Longitude == 0 {
		return true
	}
	return util.DistanceKm(client.Latitude, client.Longitude, msg.latitude, msg.longitude) <= msg.radiusKm
}

func (manager *WebSocketManager) enqueue(msg outbound) {
	select {
	case manager.broadcast <- msg:
	default:
		log.Println("broadcast queue full, dropping message")
	}
}

func marshalEnvelope(topic string, payload interface{}) ([]byte, bool) {
	data, err := json.Marshal(Envelope{
		Type:    MsgTypeIncidentUpdate,
		Topic:   topic,
		Payload: payload,
	})
	if err != nil {
		log.Println("failed to marshal broadcast payload:", err)
		return nil, false
	}
	return data, true
}

// Publish queues an envelope for all subscribers. Delivery is best effort:
// a full queue or a failed write never surfaces to the caller.
func (manager *WebSocketManager) Publish(topic string, payload interface{}) {
	data, ok := marshalEnvelope(topic, payload)
	if !ok {
		return
	}
	manager.enqueue(outbound{data: data})
}

// PublishNearby queues an envelope only for subscribers within radiusKm of
// the given position.
func (manager *WebSocketManager) PublishNearby(topic string, payload interface{}, lat, lon, radiusKm float64) {
	data, ok := marshalEnvelope(topic, payload)
	if !ok {
		return
	}
	manager.enqueue(outbound{
		data:       data,
		positioned: true,
		latitude:   lat,
		longitude:  lon,
		radiusKm:   radiusKm,
	})
}
