package client

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/pokerrooms/internal/game"
	"github.com/lox/pokerrooms/internal/lobby"
	"github.com/lox/pokerrooms/internal/server"
)

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

func startServer(t *testing.T) string {
	t.Helper()
	logger := testLogger()
	cfg := lobby.DefaultConfig()
	cfg.SettleDelay = time.Minute

	hub := server.NewHub(logger)
	registry := lobby.NewRegistry(cfg, hub, logger)
	dispatcher := lobby.NewDispatcher(registry, logger)
	srv := server.NewServer("", dispatcher, registry, hub, logger)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		hub.CloseAll()
		ts.Close()
		registry.Shutdown()
	})
	return ts.URL
}

func connect(t *testing.T, url string) *Client {
	t.Helper()
	c := NewClient(url, testLogger())
	require.NoError(t, c.Connect())
	t.Cleanup(func() { _ = c.Disconnect() })
	waitFor(t, c, server.MessageTypeConnected)
	return c
}

func waitFor(t *testing.T, c *Client, typ server.MessageType) *server.Message {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case msg, ok := <-c.Messages():
			require.True(t, ok, "connection closed waiting for %s", typ)
			if msg.Type == typ {
				return msg
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s", typ)
		}
	}
}

func TestClientPlaysARound(t *testing.T) {
	url := startServer(t)
	host := connect(t, url)
	guest := connect(t, url)
	require.NotEmpty(t, host.PlayerID())
	require.NotEqual(t, host.PlayerID(), guest.PlayerID())

	_, err := host.CreateLobby("", "Host", "")
	require.NoError(t, err)
	waitFor(t, host, server.MessageType(lobby.EventTypeLobbyCreated))
	code := host.RoomCode()
	require.Len(t, code, lobby.DefaultCodeLength)

	_, err = guest.JoinLobby(code, "Guest", "")
	require.NoError(t, err)
	waitFor(t, guest, server.MessageType(lobby.EventTypeJoinConfirmed))
	assert.Equal(t, code, guest.RoomCode())

	reqID, err := guest.StartGame()
	require.NoError(t, err)
	errMsg := waitFor(t, guest, server.MessageTypeError)
	assert.Equal(t, reqID, errMsg.RequestID)

	_, err = host.StartGame()
	require.NoError(t, err)
	waitFor(t, host, server.MessageType(game.EventTypeTurnChanged))

	_, err = host.Bet(20)
	require.NoError(t, err)
	waitFor(t, guest, server.MessageType(game.EventTypePotUpdated))
	_, err = guest.Call()
	require.NoError(t, err)
	waitFor(t, host, server.MessageType(game.EventTypeStreetAdvanced))

	_, err = host.Fold()
	require.NoError(t, err)
	ended := waitFor(t, guest, server.MessageType(game.EventTypeRoundEnded))
	assert.Contains(t, NewRenderer(guest.PlayerID()).Render(ended), "you win 40")
}

func TestClientRoomClearedWhenLobbyDestroyed(t *testing.T) {
	url := startServer(t)
	host := connect(t, url)
	guest := connect(t, url)

	_, err := host.CreateLobby("SOLO1", "Host", "")
	require.NoError(t, err)
	waitFor(t, host, server.MessageType(lobby.EventTypeLobbyCreated))
	assert.Equal(t, "SOLO1", host.RoomCode())

	_, err = guest.JoinLobby("SOLO1", "Guest", "")
	require.NoError(t, err)
	waitFor(t, guest, server.MessageType(lobby.EventTypeJoinConfirmed))

	require.NoError(t, host.Disconnect())

	var roster lobby.RosterUpdatedEvent
	for len(roster.Players) != 1 {
		msg := waitFor(t, guest, server.MessageType(lobby.EventTypeRosterUpdated))
		require.NoError(t, json.Unmarshal(msg.Data, &roster))
	}
	assert.Equal(t, guest.PlayerID(), roster.HostID)
	assert.Equal(t, "SOLO1", guest.RoomCode())
}
