package websockets

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShouldReceiveUnpositionedMessageReachesEveryone(t *testing.T) {
	manager := NewWebSocketManager()
	client := &Client{Latitude: 35.1856, Longitude: 33.3823}

	assert.True(t, manager.shouldReceive(client, outbound{data: []byte("{}")}))
}

func TestShouldReceiveFiltersByDistance(t *testing.T) {
	manager := NewWebSocketManager()
	msg := outbound{
		positioned: true,
		latitude:   35.1856,
		longitude:  33.3823,
		radiusKm:   25,
	}

	// near is ~18 km out, far is another continent, dashboard never sent a
	// position at all.
	near := &Client{Latitude: 35.3364, Longitude: 33.3182}
	far := &Client{Latitude: 40.7128, Longitude: -74.0060}
	dashboard := &Client{}

	assert.True(t, manager.shouldReceive(near, msg))
	assert.False(t, manager.shouldReceive(far, msg))
	assert.True(t, manager.shouldReceive(dashboard, msg))
}

// Subscribe updates arrive on the connection's reader goroutine while the
// broadcast loop reads client positions; both sides must hold the manager
// lock or the race detector trips.
func TestSubscribeUpdatesConcurrentWithBroadcasts(t *testing.T) {
	manager := NewWebSocketManager()
	go manager.Run()

	srv := httptest.NewServer(http.HandlerFunc(manager.HandleConnections))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Give the register channel a moment to be drained.
	time.Sleep(100 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			sub, _ := json.Marshal(Message{
				Type:      MsgTypeSubscribe,
				UserID:    "u1",
				Latitude:  35.0 + float64(i)/1000,
				Longitude: 33.0,
			})
			if err := conn.WriteMessage(websocket.TextMessage, sub); err != nil {
				return
			}
		}
	}()

	for i := 0; i < 50; i++ {
		manager.PublishNearby("incidents", map[string]int{"seq": i}, 35.0, 33.0, 50)
	}
	<-done

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(data), MsgTypeIncidentUpdate)
}
