package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"messaging_go/internal/domain"
	"messaging_go/internal/security"
)

const testOrigin = "http://localhost:3000"

type mockEngine struct {
	mock.Mock
}

func (m *mockEngine) SendMessage(ctx context.Context, senderID, receiverID int64, content string) (*domain.Message, error) {
	args := m.Called(senderID, receiverID, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Message), args.Error(1)
}

func (m *mockEngine) MarkMessageAsRead(ctx context.Context, messageID, requestingUserID int64) (*domain.Message, error) {
	args := m.Called(messageID, requestingUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Message), args.Error(1)
}

func (m *mockEngine) NotifyTyping(ctx context.Context, senderID int64, displayName string, receiverID int64) error {
	return m.Called(senderID, displayName, receiverID).Error(0)
}

type wsFixture struct {
	srv    *httptest.Server
	hub    *Hub
	tokens *security.TokenService
	engine *mockEngine
}

func newWSFixture(t *testing.T) *wsFixture {
	t.Helper()
	f := &wsFixture{
		hub:    NewHub(),
		tokens: security.NewTokenService("ws-secret"),
		engine: new(mockEngine),
	}
	f.srv = httptest.NewServer(MakeHandler(f.hub, f.tokens, f.engine, []string{testOrigin}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *wsFixture) url() string {
	return "ws" + strings.TrimPrefix(f.srv.URL, "http")
}

func (f *wsFixture) dial(t *testing.T, userID int64, username string) *websocket.Conn {
	t.Helper()
	tok, err := f.tokens.Issue(userID, username, time.Hour)
	require.NoError(t, err)
	h := http.Header{}
	h.Set("Origin", testOrigin)
	conn, _, err := websocket.DefaultDialer.Dial(f.url()+"?token="+tok, h)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.Eventually(t, func() bool { return f.hub.SessionCount(userID) > 0 }, time.Second, 5*time.Millisecond)
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var env map[string]any
	require.NoError(t, conn.ReadJSON(&env))
	return env
}

func TestHandshake_Rejections(t *testing.T) {
	f := newWSFixture(t)
	good, err := f.tokens.Issue(100, "ana", time.Hour)
	require.NoError(t, err)

	cases := []struct {
		name   string
		query  string
		origin string
		status int
	}{
		{"missing token", "", testOrigin, http.StatusUnauthorized},
		{"invalid token", "?token=garbage", testOrigin, http.StatusUnauthorized},
		{"foreign origin", "?token=" + good, "http://evil.example", http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := http.Header{}
			h.Set("Origin", tc.origin)
			_, resp, err := websocket.DefaultDialer.Dial(f.url()+tc.query, h)
			require.Error(t, err)
			require.NotNil(t, resp)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestHandshake_SubprotocolToken(t *testing.T) {
	f := newWSFixture(t)
	tok, err := f.tokens.Issue(100, "ana", time.Hour)
	require.NoError(t, err)

	h := http.Header{}
	h.Set("Origin", testOrigin)
	dialer := websocket.Dialer{Subprotocols: []string{"bearer", tok}}
	conn, resp, err := dialer.Dial(f.url(), h)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, "bearer", resp.Header.Get("Sec-WebSocket-Protocol"))
	require.Eventually(t, func() bool { return f.hub.SessionCount(100) == 1 }, time.Second, 5*time.Millisecond)
}

func TestHub_DeliverToAllSessionsOfUser(t *testing.T) {
	f := newWSFixture(t)
	a1 := f.dial(t, 100, "ana")
	a2 := f.dial(t, 100, "ana")
	require.Eventually(t, func() bool { return f.hub.SessionCount(100) == 2 }, time.Second, 5*time.Millisecond)

	n, err := f.hub.Deliver(100, domain.ChannelReadReceipts, int64(42))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for _, conn := range []*websocket.Conn{a1, a2} {
		env := readEnvelope(t, conn)
		assert.Equal(t, domain.ChannelReadReceipts, env["channel"])
		assert.EqualValues(t, 42, env["payload"])
	}

	n, err = f.hub.Deliver(555, domain.ChannelMessages, "nobody")
	assert.NoError(t, err)
	assert.Zero(t, n)
}

func TestInbound_SendReadTyping(t *testing.T) {
	f := newWSFixture(t)
	sent := make(chan struct{}, 3)
	f.engine.On("SendMessage", int64(100), int64(200), "hi").
		Return(&domain.Message{ID: 1}, nil).Run(func(mock.Arguments) { sent <- struct{}{} })
	f.engine.On("MarkMessageAsRead", int64(1), int64(100)).
		Return(&domain.Message{ID: 1, IsRead: true}, nil).Run(func(mock.Arguments) { sent <- struct{}{} })
	f.engine.On("NotifyTyping", int64(100), "ana", int64(200)).
		Return(nil).Run(func(mock.Arguments) { sent <- struct{}{} })

	conn := f.dial(t, 100, "ana")
	require.NoError(t, conn.WriteJSON(map[string]any{"type": EventSend, "receiver_id": 200, "content": "hi"}))
	require.NoError(t, conn.WriteJSON(map[string]any{"type": EventRead, "message_id": 1}))
	require.NoError(t, conn.WriteJSON(map[string]any{"type": EventTyping, "receiver_id": 200}))

	for i := 0; i < 3; i++ {
		select {
		case <-sent:
		case <-time.After(2 * time.Second):
			t.Fatal("engine not called")
		}
	}
	f.engine.AssertExpectations(t)
}

func TestInbound_ErrorsGoBackOnErrorsChannel(t *testing.T) {
	f := newWSFixture(t)
	f.engine.On("MarkMessageAsRead", int64(7), int64(999)).Return(nil, domain.ErrForbidden)

	conn := f.dial(t, 999, "mallory")
	require.NoError(t, conn.WriteJSON(map[string]any{"type": EventRead, "message_id": 7}))

	env := readEnvelope(t, conn)
	assert.Equal(t, "errors", env["channel"])
	payload := env["payload"].(map[string]any)
	assert.Equal(t, EventRead, payload["event"])
	assert.Equal(t, "forbidden", payload["error"])

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	env = readEnvelope(t, conn)
	assert.Equal(t, "errors", env["channel"])

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "chat.unknown"}))
	env = readEnvelope(t, conn)
	assert.Equal(t, "unknown event type", env["payload"].(map[string]any)["error"])
}

func TestDisconnectUnregisters(t *testing.T) {
	f := newWSFixture(t)
	conn := f.dial(t, 100, "ana")
	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return f.hub.SessionCount(100) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestCheckOrigin(t *testing.T) {
	check := makeCheckOrigin([]string{"http://localhost:3000/", "https://app.example.com"})
	req := func(origin string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}
	assert.True(t, check(req("http://localhost:3000")))
	assert.True(t, check(req("HTTPS://APP.EXAMPLE.COM")))
	assert.False(t, check(req("http://localhost:4000")))
	assert.False(t, check(req("")))

	assert.True(t, makeCheckOrigin([]string{"*"})(req("http://anything")))
	assert.False(t, makeCheckOrigin(nil)(req("http://localhost:3000")))
}
