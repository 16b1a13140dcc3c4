package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/pokerrooms/internal/game"
	"github.com/lox/pokerrooms/internal/history"
	"github.com/lox/pokerrooms/internal/lobby"
)

func TestServerHealth(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)

	w := httptest.NewRecorder()
	env.srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
}

func TestLobbyFlowOverWebSocket(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)

	alice := env.dial(t)
	bob := env.dial(t)
	assert.Equal(t, "player-1", alice.id)
	assert.Equal(t, "player-2", bob.id)

	alice.send(MessageTypeCreateLobby, CreateLobbyData{RoomCode: "table1", DisplayName: "Alice"})
	created := decode[lobby.LobbyCreatedEvent](t, alice.waitFor(MessageType(lobby.EventTypeLobbyCreated)))
	assert.Equal(t, "TABLE1", created.Code)

	bob.send(MessageTypeJoinLobby, JoinLobbyData{RoomCode: "TABLE1", DisplayName: "Bob"})
	joined := decode[lobby.JoinConfirmedEvent](t, bob.waitFor(MessageType(lobby.EventTypeJoinConfirmed)))
	assert.Equal(t, 1, joined.Seat)
	assert.Equal(t, game.StartingChips, joined.Chips)

	roster := decode[lobby.RosterUpdatedEvent](t, alice.waitFor(MessageType(lobby.EventTypeRosterUpdated)))
	for roster.Players == nil || len(roster.Players) < 2 {
		roster = decode[lobby.RosterUpdatedEvent](t, alice.waitFor(MessageType(lobby.EventTypeRosterUpdated)))
	}
	assert.Equal(t, "player-1", roster.HostID)
	assert.Equal(t, "Bob", roster.Players[1].Name)

	bob.sendWithID(MessageTypeStartGame, RoomData{RoomCode: "TABLE1"}, "req-7")
	msg := bob.waitFor(MessageTypeError)
	assert.Equal(t, "req-7", msg.RequestID)
	assert.Equal(t, CodeNotHost, decode[ErrorData](t, msg).Code)

	alice.send(MessageTypeStartGame, RoomData{RoomCode: "TABLE1"})
	for _, c := range []*testClient{alice, bob} {
		started := decode[game.RoundStartedEvent](t, c.waitFor(MessageType(game.EventTypeGameStarted)))
		assert.Equal(t, 1, started.Round)
		assert.Len(t, started.Players, 2)

		hole := decode[game.HoleCardsEvent](t, c.waitFor(MessageType(game.EventTypeHoleCards)))
		assert.Equal(t, c.id, hole.PlayerID)
		assert.Len(t, hole.Cards, 2)

		turn := decode[game.TurnChangedEvent](t, c.waitFor(MessageType(game.EventTypeTurnChanged)))
		assert.Equal(t, alice.id, turn.PlayerID)
		assert.Equal(t, game.PreFlop, turn.Street)
	}

	bob.send(MessageTypeBet, BetData{RoomCode: "TABLE1", Amount: 10})
	assert.Equal(t, CodeNotYourTurn, bob.waitForError().Code)

	alice.send(MessageTypeBet, BetData{RoomCode: "TABLE1", Amount: 5000})
	assert.Equal(t, CodeInsufficient, alice.waitForError().Code)

	alice.send(MessageTypeFold, RoomData{RoomCode: "TABLE1"})
	for _, c := range []*testClient{alice, bob} {
		ended := decode[game.RoundEndedEvent](t, c.waitFor(MessageType(game.EventTypeRoundEnded)))
		assert.True(t, ended.Uncontested)
		require.Len(t, ended.Winners, 1)
		assert.Equal(t, bob.id, ended.Winners[0].PlayerID)
	}

	bob.send(MessageTypeCall, RoomData{RoomCode: "TABLE1"})
	assert.Equal(t, CodeNoActiveRound, bob.waitForError().Code)
}

func TestMalformedMessages(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)
	c := env.dial(t)

	require.NoError(t, c.conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	assert.Equal(t, CodeInvalidMessage, c.waitForError().Code)

	c.send("shuffle_up", nil)
	assert.Equal(t, CodeUnknownType, c.waitForError().Code)

	require.NoError(t, c.conn.WriteJSON(map[string]any{"type": "bet", "data": map[string]any{"amount": "lots"}}))
	assert.Equal(t, CodeInvalidMessage, c.waitForError().Code)

	c.send(MessageTypeCreateLobby, CreateLobbyData{RoomCode: "ROOM42"})
	assert.Equal(t, CodeInvalidMessage, c.waitForError().Code)

	c.send(MessageTypeCreateLobby, CreateLobbyData{RoomCode: "NO!", DisplayName: "Cat"})
	assert.Equal(t, CodeInvalidCode, c.waitForError().Code)

	c.send(MessageTypeJoinLobby, JoinLobbyData{RoomCode: "NOWHERE", DisplayName: "Cat"})
	assert.Equal(t, CodeLobbyNotFound, c.waitForError().Code)

	c.send(MessageTypeFold, RoomData{RoomCode: "NOWHERE"})
	assert.Equal(t, CodeLobbyNotFound, c.waitForError().Code)
}

func TestDuplicateCodeAndSecondLobby(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)
	a := env.dial(t)
	b := env.dial(t)

	a.send(MessageTypeCreateLobby, CreateLobbyData{RoomCode: "DUPE", DisplayName: "A"})
	a.waitFor(MessageType(lobby.EventTypeLobbyCreated))

	b.send(MessageTypeCreateLobby, CreateLobbyData{RoomCode: "dupe", DisplayName: "B"})
	assert.Equal(t, CodeAlreadyExists, b.waitForError().Code)

	a.send(MessageTypeCreateLobby, CreateLobbyData{DisplayName: "A"})
	assert.Equal(t, CodeAlreadyInLobby, a.waitForError().Code)

	b.send(MessageTypeStartGame, RoomData{RoomCode: "DUPE"})
	assert.Equal(t, CodeNotInLobby, b.waitForError().Code)
}

func TestDisconnectReleasesSeat(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)
	host := env.dial(t)
	guest := env.dial(t)

	host.send(MessageTypeCreateLobby, CreateLobbyData{RoomCode: "LEAVE1", DisplayName: "Host"})
	host.waitFor(MessageType(lobby.EventTypeLobbyCreated))
	guest.send(MessageTypeJoinLobby, JoinLobbyData{RoomCode: "LEAVE1", DisplayName: "Guest"})
	guest.waitFor(MessageType(lobby.EventTypeJoinConfirmed))

	require.NoError(t, host.conn.Close())

	roster := decode[lobby.RosterUpdatedEvent](t, guest.waitFor(MessageType(lobby.EventTypeRosterUpdated)))
	for len(roster.Players) != 1 {
		roster = decode[lobby.RosterUpdatedEvent](t, guest.waitFor(MessageType(lobby.EventTypeRosterUpdated)))
	}
	assert.Equal(t, guest.id, roster.HostID)

	require.Eventually(t, func() bool {
		_, seated := env.dispatcher.LobbyOf(host.id)
		return !seated && env.hub.Len() == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestListAndGetLobbies(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)
	c := env.dial(t)
	c.send(MessageTypeCreateLobby, CreateLobbyData{RoomCode: "LIST01", DisplayName: "Lister"})
	c.waitFor(MessageType(lobby.EventTypeLobbyCreated))

	resp, err := http.Get(env.ts.URL + "/lobbies")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var listing struct {
		Lobbies []lobby.Summary `json:"lobbies"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listing))
	require.Len(t, listing.Lobbies, 1)
	assert.Equal(t, lobby.Summary{Code: "LIST01", HostID: c.id, Players: 1}, listing.Lobbies[0])

	w := httptest.NewRecorder()
	env.srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/lobbies/list01", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	env.srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/lobbies/GONE99", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	var ed ErrorData
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ed))
	assert.Equal(t, CodeLobbyNotFound, ed.Code)

	w = httptest.NewRecorder()
	env.srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/lobbies/LIST01/rounds", nil))
	assert.Equal(t, http.StatusNotFound, w.Code, "rounds route needs a history reader")
}

func TestRoundHistoryEndpoint(t *testing.T) {
	t.Parallel()
	store, err := history.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "rounds.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	env := newTestEnv(t, []lobby.Option{lobby.WithRecorder(store)}, WithHistory(store))
	a := env.dial(t)
	b := env.dial(t)

	a.send(MessageTypeCreateLobby, CreateLobbyData{RoomCode: "HIST01", DisplayName: "A"})
	a.waitFor(MessageType(lobby.EventTypeLobbyCreated))
	b.send(MessageTypeJoinLobby, JoinLobbyData{RoomCode: "HIST01", DisplayName: "B"})
	b.waitFor(MessageType(lobby.EventTypeJoinConfirmed))
	a.send(MessageTypeStartGame, RoomData{RoomCode: "HIST01"})
	a.waitFor(MessageType(game.EventTypeTurnChanged))
	a.send(MessageTypeFold, RoomData{RoomCode: "HIST01"})
	a.waitFor(MessageType(game.EventTypeRoundEnded))

	var rounds struct {
		RoomCode string          `json:"roomCode"`
		Rounds   []history.Entry `json:"rounds"`
	}
	require.Eventually(t, func() bool {
		w := httptest.NewRecorder()
		env.srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/lobbies/hist01/rounds?limit=5", nil))
		if w.Code != http.StatusOK {
			return false
		}
		if err := json.Unmarshal(w.Body.Bytes(), &rounds); err != nil {
			return false
		}
		return len(rounds.Rounds) == 1
	}, 2*time.Second, 20*time.Millisecond)

	assert.Equal(t, "HIST01", rounds.RoomCode)
	assert.True(t, rounds.Rounds[0].Uncontested)
	assert.Equal(t, b.id, rounds.Rounds[0].Winners[0].PlayerID)

	w := httptest.NewRecorder()
	env.srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/lobbies/HIST01/rounds?limit=-1", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestShutdownDisconnectsPlayers(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)
	c := env.dial(t)
	c.send(MessageTypeCreateLobby, CreateLobbyData{RoomCode: "BYE123", DisplayName: "Last"})
	c.waitFor(MessageType(lobby.EventTypeLobbyCreated))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, env.srv.Shutdown(ctx))

	assert.Equal(t, 0, env.hub.Len())
	_, seated := env.dispatcher.LobbyOf(c.id)
	assert.False(t, seated)
	require.Eventually(t, func() bool { return env.registry.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}
