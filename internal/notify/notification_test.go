package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderDrain(t *testing.T) {
	r := NewRecorder()
	Success(r, "saved")
	Error(r, "failed")

	got := r.Drain()
	require.Len(t, got, 2)
	assert.Equal(t, LevelSuccess, got[0].Level)
	assert.Equal(t, "failed", got[1].Message)
	assert.Empty(t, r.Drain())
}

func TestFanoutSkipsNil(t *testing.T) {
	a, b := NewRecorder(), NewRecorder()
	Info(Fanout{a, nil, b}, "hello")
	assert.Len(t, a.Drain(), 1)
	assert.Len(t, b.Drain(), 1)

	// a nil notifier is a no-op
	Info(nil, "ignored")
}

func TestToKeepsRequestsApart(t *testing.T) {
	push := NewRecorder()
	first, second := NewRecorder(), NewRecorder()
	ctx1 := WithRecorder(context.Background(), first)
	ctx2 := WithRecorder(context.Background(), second)

	Error(To(ctx1, push), "could not remove the item")
	Success(To(ctx2, push), "added to your cart")

	require.Len(t, first.Drain(), 1)
	got := second.Drain()
	require.Len(t, got, 1)
	assert.Equal(t, "added to your cart", got[0].Message)
	assert.Len(t, push.Drain(), 2)

	// without a request recorder only the fallback hears it
	Info(To(context.Background(), push), "background")
	assert.Len(t, push.Drain(), 1)
	assert.Nil(t, To(context.Background(), nil))
	Info(To(context.Background(), nil), "dropped")
}

func TestHubDeliversToSessionSocket(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	hub := NewHub(logger)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	srv := httptest.NewServer(NewRouter(hub, func(token string) (string, error) {
		if token == "good" {
			return "sess-1", nil
		}
		return "", errors.New("bad token")
	}))
	defer srv.Close()

	res, err := http.Get(srv.URL + "/ws/notifications?token=bad")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/notifications?token=good"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount("sess-1") == 1 }, time.Second, 10*time.Millisecond)

	Success(hub.For("sess-1"), "Added to cart")
	hub.Publish("other-session", "notification", "not for us")

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var m struct {
		Type string       `json:"type"`
		Data Notification `json:"data"`
	}
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "notification", m.Type)
	assert.Equal(t, "Added to cart", m.Data.Message)
}

func TestHealth(t *testing.T) {
	hub := NewHub(logrus.New())
	srv := httptest.NewServer(NewRouter(hub, func(string) (string, error) { return "", nil }))
	defer srv.Close()

	res, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
}
