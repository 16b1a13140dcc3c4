package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/lox/pokerrooms/internal/lobby"
)

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

type testEnv struct {
	srv        *Server
	ts         *httptest.Server
	hub        *Hub
	registry   *lobby.Registry
	dispatcher *lobby.Dispatcher
}

// newTestEnv wires a registry, dispatcher and hub the way main does and
// serves them from an httptest server. Player ids are player-1, player-2...
func newTestEnv(t *testing.T, regOpts []lobby.Option, srvOpts ...Option) *testEnv {
	t.Helper()

	cfg := lobby.DefaultConfig()
	cfg.Seed = 11
	cfg.SettleDelay = time.Minute

	logger := testLogger()
	var seq atomic.Int64
	env := &testEnv{hub: NewHub(logger)}
	env.registry = lobby.NewRegistry(cfg, env.hub, logger, regOpts...)
	env.dispatcher = lobby.NewDispatcher(env.registry, logger)

	srvOpts = append([]Option{WithIDGenerator(func() string {
		return fmt.Sprintf("player-%d", seq.Add(1))
	})}, srvOpts...)
	env.srv = NewServer("", env.dispatcher, env.registry, env.hub, logger, srvOpts...)
	env.ts = httptest.NewServer(env.srv.Handler())

	t.Cleanup(func() {
		env.hub.CloseAll()
		env.ts.Close()
		env.registry.Shutdown()
	})
	return env
}

type testClient struct {
	t    *testing.T
	conn *websocket.Conn
	id   string
}

func (e *testEnv) dial(t *testing.T) *testClient {
	t.Helper()

	url := "ws" + strings.TrimPrefix(e.ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	c := &testClient{t: t, conn: conn}
	hello := decode[ConnectedData](t, c.waitFor(MessageTypeConnected))
	require.NotEmpty(t, hello.PlayerID)
	c.id = hello.PlayerID
	return c
}

func (c *testClient) send(typ MessageType, data any) {
	c.t.Helper()
	c.sendWithID(typ, data, "")
}

func (c *testClient) sendWithID(typ MessageType, data any, requestID string) {
	c.t.Helper()
	msg, err := NewMessage(typ, data)
	require.NoError(c.t, err)
	msg.RequestID = requestID
	require.NoError(c.t, c.conn.WriteJSON(msg))
}

func (c *testClient) next() *Message {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(c.t, c.conn.ReadJSON(&msg))
	return &msg
}

// waitFor skips messages until one of type typ arrives
func (c *testClient) waitFor(typ MessageType) *Message {
	c.t.Helper()
	for {
		msg := c.next()
		if msg.Type == typ {
			return msg
		}
	}
}

func (c *testClient) waitForError() ErrorData {
	c.t.Helper()
	return decode[ErrorData](c.t, c.waitFor(MessageTypeError))
}

func decode[T any](t *testing.T, msg *Message) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(msg.Data, &v), string(msg.Data))
	return v
}
