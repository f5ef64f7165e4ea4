package live

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Eoha39/clicker-webapp/internal/catalog"
	"github.com/Eoha39/clicker-webapp/internal/session"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialLive(t *testing.T, cfg HandlerConfig) (*websocket.Conn, *session.Session) {
	t.Helper()
	mgr := session.NewManager(session.Options{})
	s, err := mgr.Get(context.Background(), "p1")
	require.NoError(t, err)

	h := NewHandler(func(r *http.Request) (*session.Session, error) { return s, nil }, cfg)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn, s
}

// readUntil reads messages until match accepts one.
func readUntil(t *testing.T, conn *websocket.Conn, match func(serverMessage) bool) serverMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var msg serverMessage
		require.NoError(t, conn.ReadJSON(&msg))
		if match(msg) {
			return msg
		}
	}
}

func TestHandler_SendsInitialState(t *testing.T) {
	conn, _ := dialLive(t, HandlerConfig{})

	msg := readUntil(t, conn, func(m serverMessage) bool { return m.Type == "state" })

	require.NotNil(t, msg.View)
	assert.Equal(t, 0.0, msg.View.Currency)
	assert.Len(t, msg.View.Upgrades, 6)
}

func TestHandler_ClickAndBuyCommands(t *testing.T) {
	conn, s := dialLive(t, HandlerConfig{})
	require.NoError(t, s.Import(context.Background(), []byte(`{"version":1,"currency":20}`)))

	require.NoError(t, conn.WriteJSON(clientMessage{Type: "click"}))
	click := readUntil(t, conn, func(m serverMessage) bool { return m.Type == "click" })
	require.NotNil(t, click.Click)
	assert.Equal(t, 1.0, click.Click.AmountGained)

	require.NoError(t, conn.WriteJSON(clientMessage{Type: "buy", Upgrade: catalog.AutoClicker}))

	// The purchase reply and the state push race; accept either order.
	var buy, state *serverMessage
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for buy == nil || state == nil {
		var msg serverMessage
		require.NoError(t, conn.ReadJSON(&msg))
		switch {
		case msg.Type == "purchase":
			buy = &msg
		case msg.Type == "state" && msg.View.Upgrades[0].Level == 1:
			state = &msg
		}
	}

	require.NotNil(t, buy.Purchase)
	assert.True(t, buy.Purchase.OK())
	assert.Equal(t, 11.0, state.View.Currency)
}

func TestHandler_RejectsUnknownAndLimitedCommands(t *testing.T) {
	conn, s := dialLive(t, HandlerConfig{AllowClick: func(string) bool { return false }})

	require.NoError(t, conn.WriteJSON(clientMessage{Type: "click"}))
	msg := readUntil(t, conn, func(m serverMessage) bool { return m.Type == "error" })
	assert.Equal(t, "rate_limited", msg.Error)

	require.NoError(t, conn.WriteJSON(clientMessage{Type: "dance"}))
	msg = readUntil(t, conn, func(m serverMessage) bool { return m.Type == "error" })
	assert.Equal(t, "unknown_command", msg.Error)

	assert.Equal(t, uint64(0), s.State().Stats.TotalClicks)
}
