package live

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyhub/pkg/models"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	t.Cleanup(cancel)
	return h
}

func TestPublishDeliversToSubscribers(t *testing.T) {
	h := startHub(t)
	a, cancelA := h.Subscribe()
	defer cancelA()
	b, cancelB := h.Subscribe()
	defer cancelB()

	require.True(t, h.Publish(models.ActivityEvent{Type: EventStoryCreated, StoryID: 7}))

	for _, ch := range []<-chan []byte{a, b} {
		select {
		case data := <-ch:
			var ev models.ActivityEvent
			require.NoError(t, json.Unmarshal(data, &ev))
			assert.Equal(t, EventStoryCreated, ev.Type)
			assert.Equal(t, int64(7), ev.StoryID)
			assert.NotZero(t, ev.Timestamp)
		case <-time.After(time.Second):
			t.Fatal("event not delivered")
		}
	}
}

func TestCancelUnsubscribes(t *testing.T) {
	h := startHub(t)
	ch, cancel := h.Subscribe()
	assert.Equal(t, 1, h.Subscribers())

	cancel()
	assert.Equal(t, 0, h.Subscribers())
	_, open := <-ch
	assert.False(t, open)
}

func TestSlowSubscriberIsDropped(t *testing.T) {
	h := startHub(t)
	ch, cancel := h.Subscribe()
	defer cancel()

	for i := 0; i < subscriberBuffer+1; i++ {
		for !h.Publish(models.ActivityEvent{Type: EventAnnouncement}) {
			time.Sleep(time.Millisecond)
		}
	}
	require.Eventually(t, func() bool { return h.Subscribers() == 0 }, time.Second, 5*time.Millisecond)

	n := 0
	for range ch {
		n++
	}
	assert.Equal(t, subscriberBuffer, n)
}

func TestStoppedHub(t *testing.T) {
	h := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() { h.Run(ctx); close(stopped) }()

	ch, _ := h.Subscribe()
	cancel()
	<-stopped

	_, open := <-ch
	assert.False(t, open)
	assert.False(t, h.Publish(models.ActivityEvent{Type: EventAnnouncement}))
	assert.Equal(t, 0, h.Subscribers())

	late, _ := h.Subscribe()
	_, open = <-late
	assert.False(t, open)
}

func TestHandlerStreamsEvents(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := startHub(t)
	r := gin.New()
	r.GET("/api/live", Handler(h))
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/live"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return h.Subscribers() == 1 }, time.Second, 5*time.Millisecond)
	require.True(t, h.Publish(models.ActivityEvent{Type: EventAnnouncement, Message: "hello"}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev models.ActivityEvent
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, EventAnnouncement, ev.Type)
	assert.Equal(t, "hello", ev.Message)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return h.Subscribers() == 0 }, 2*time.Second, 10*time.Millisecond)
}
