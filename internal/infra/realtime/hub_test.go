package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func dial(t *testing.T, hub *Hub, userID uint) *websocket.Conn {
	t.Helper()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Attach(conn, userID)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.Eventually(t, func() bool { return hub.Sessions(userID) == 1 }, time.Second, 10*time.Millisecond)
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn, wait time.Duration) (Event, error) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(wait))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		return Event{}, err
	}
	var ev Event
	require.NoError(t, json.Unmarshal(raw, &ev))
	return ev, nil
}

func TestHubDeliversToRecipientRoomsOnly(t *testing.T) {
	hub := NewHub(NewDeduplicator(DedupWindow), zap.NewNop())
	alice := dial(t, hub, 1)
	bob := dial(t, hub, 2)

	hub.Emit(Event{Name: EventBookingCreated, SubjectID: 5, Status: "pending", UserIDs: []uint{1}})

	ev, err := readEvent(t, alice, time.Second)
	require.NoError(t, err)
	assert.Equal(t, EventBookingCreated, ev.Name)
	assert.Equal(t, uint(5), ev.SubjectID)

	_, err = readEvent(t, bob, 150*time.Millisecond)
	assert.Error(t, err, "bob is not a recipient")
}

func TestBrokerDualPathDeliversOnce(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	hub := NewHub(NewDeduplicator(DedupWindow), zap.NewNop())
	broker := NewBroker(client, hub, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go broker.Run(ctx)
	require.Eventually(t, func() bool {
		return mr.PubSubNumPat() > 0
	}, time.Second, 10*time.Millisecond)

	conn := dial(t, hub, 3)

	broker.Publish(ctx, Event{Name: EventBookingUpdated, SubjectID: 8, Status: "confirmed", UserIDs: []uint{3}})

	ev, err := readEvent(t, conn, time.Second)
	require.NoError(t, err)
	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, "confirmed", ev.Status)

	_, err = readEvent(t, conn, 300*time.Millisecond)
	assert.Error(t, err, "pub/sub copy is suppressed")
}

func TestBrokerWithoutRedis(t *testing.T) {
	hub := NewHub(NewDeduplicator(DedupWindow), zap.NewNop())
	broker := NewBroker(nil, hub, zap.NewNop())
	conn := dial(t, hub, 4)

	broker.Publish(context.Background(), Event{Name: EventMessageCreated, SubjectID: 1, UserIDs: []uint{4}})
	broker.Run(context.Background())

	ev, err := readEvent(t, conn, time.Second)
	require.NoError(t, err)
	assert.Equal(t, EventMessageCreated, ev.Name)
}
