package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/game"
	"github.com/lox/blackjack/internal/ledger"
	"github.com/lox/blackjack/internal/session"
)

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

type stackedShoe struct {
	mu    sync.Mutex
	cards []deck.Card
}

func (s *stackedShoe) Draw() deck.Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.cards) == 0 {
		panic("stacked shoe exhausted")
	}
	c := s.cards[0]
	s.cards = s.cards[1:]
	return c
}

func startTestServer(t *testing.T, cards string) (*Server, *httptest.Server, session.Store) {
	t.Helper()
	store := session.NewMemoryStore()
	opts := []session.Option{session.WithSeed(42)}
	if cards != "" {
		opts = append(opts, session.WithShoe(&stackedShoe{cards: deck.MustParseCards(cards)}))
	}
	srv := NewServer(store, session.NewDriver(nil, 0, testLogger()), testLogger(), opts...)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		_ = srv.Stop()
		ts.Close()
	})
	return srv, ts, store
}

func dial(t *testing.T, ts *httptest.Server, player string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	if player != "" {
		url += "?player=" + player
	}
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msgType MessageType, data any) {
	t.Helper()
	msg, err := NewMessage(msgType, data)
	require.NoError(t, err)
	msg.RequestID = "req-" + msgType.String()
	require.NoError(t, conn.WriteJSON(msg))
}

func read(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

// outcomeJSON mirrors the parts of OutcomeData the tests look at.
type outcomeJSON struct {
	Outcome struct {
		Phase      string   `json:"phase"`
		Pending    string   `json:"pending"`
		Messages   []string `json:"messages"`
		Bankroll   int      `json:"bankroll"`
		Settlement *struct {
			Result  ledger.Result `json:"result"`
			Net     int           `json:"net"`
			Message string        `json:"message"`
		} `json:"settlement"`
	} `json:"outcome"`
}

// readOutcome skips event messages and returns the next outcome
func readOutcome(t *testing.T, conn *websocket.Conn) (outcomeJSON, int) {
	t.Helper()
	events := 0
	for {
		msg := read(t, conn)
		switch msg.Type {
		case MessageTypeEvent:
			events++
		case MessageTypeOutcome:
			var out outcomeJSON
			require.NoError(t, json.Unmarshal(msg.Data, &out))
			return out, events
		default:
			t.Fatalf("unexpected %s message: %s", msg.Type, msg.Data)
		}
	}
}

func readSnapshot(t *testing.T, conn *websocket.Conn) session.Snapshot {
	t.Helper()
	msg := read(t, conn)
	require.Equal(t, MessageTypeSnapshot, msg.Type)
	var data struct {
		Snapshot session.Snapshot `json:"snapshot"`
	}
	require.NoError(t, json.Unmarshal(msg.Data, &data))
	return data.Snapshot
}

func TestServerHealth(t *testing.T) {
	t.Parallel()
	_, ts, _ := startTestServer(t, "")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, WaitForHealthy(ctx, ts.URL))

	h, err := CheckHealth(ctx, ts.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, 0, h.Sessions)
	assert.Equal(t, 0, h.Connections)
}

func TestPlayRoundOverWebSocket(t *testing.T) {
	t.Parallel()
	srv, ts, store := startTestServer(t, "Ts 9c 9d 9h")
	conn := dial(t, ts, "alice")

	snap := readSnapshot(t, conn)
	assert.Equal(t, "alice", snap.Player)
	assert.Equal(t, 1000, snap.Bankroll)

	send(t, conn, MessageTypeStart, StartData{Main: 10})
	out, events := readOutcome(t, conn)
	assert.Equal(t, 5, events)
	assert.Equal(t, "playing", out.Outcome.Phase)
	assert.Equal(t, 990, out.Outcome.Bankroll)

	send(t, conn, MessageTypeStand, nil)
	out, _ = readOutcome(t, conn)
	assert.Equal(t, "dealer", out.Outcome.Phase)
	assert.Equal(t, "dealer", out.Outcome.Pending)

	out, _ = readOutcome(t, conn)
	require.NotNil(t, out.Outcome.Settlement)
	assert.Equal(t, ledger.Win, out.Outcome.Settlement.Result)
	assert.Equal(t, 9, out.Outcome.Settlement.Net)
	assert.Equal(t, "finished", out.Outcome.Phase)

	saved, err := store.Load(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, 1009, saved.Bankroll)
	assert.Contains(t, srv.ConnectedPlayers(), "alice")

	send(t, conn, MessageTypeNewGame, nil)
	out, _ = readOutcome(t, conn)
	assert.Equal(t, "betting", out.Outcome.Phase)
}

func TestRejectedActionReturnsError(t *testing.T) {
	t.Parallel()
	_, ts, _ := startTestServer(t, "")
	conn := dial(t, ts, "bob")
	readSnapshot(t, conn)

	send(t, conn, MessageTypeHit, nil)
	msg := read(t, conn)
	require.Equal(t, MessageTypeError, msg.Type)
	assert.Equal(t, "req-hit", msg.RequestID)

	var data ErrorData
	require.NoError(t, json.Unmarshal(msg.Data, &data))
	assert.Equal(t, "illegal_action", data.Code)

	send(t, conn, MessageTypeStart, StartData{Main: 5000})
	msg = read(t, conn)
	require.Equal(t, MessageTypeError, msg.Type)
	require.NoError(t, json.Unmarshal(msg.Data, &data))
	assert.Equal(t, "invalid_bet", data.Code)
}

func TestUnknownMessageType(t *testing.T) {
	t.Parallel()
	_, ts, _ := startTestServer(t, "")
	conn := dial(t, ts, "carol")
	readSnapshot(t, conn)

	send(t, conn, MessageType("surrender"), nil)
	msg := read(t, conn)
	require.Equal(t, MessageTypeError, msg.Type)
	var data ErrorData
	require.NoError(t, json.Unmarshal(msg.Data, &data))
	assert.Equal(t, "invalid_message", data.Code)
}

func TestAnonymousPlayerGetsGuestName(t *testing.T) {
	t.Parallel()
	_, ts, _ := startTestServer(t, "")
	conn := dial(t, ts, "")

	snap := readSnapshot(t, conn)
	assert.True(t, strings.HasPrefix(snap.Player, "guest-"), snap.Player)

	send(t, conn, MessageTypeSnapshot, nil)
	again := readSnapshot(t, conn)
	assert.Equal(t, snap.Player, again.Player)
}

func TestSnapshotEndpoint(t *testing.T) {
	t.Parallel()
	srv, ts, store := startTestServer(t, "As 9c Kd 7h")
	ctx := context.Background()

	resp, err := http.Get(ts.URL + "/sessions/nobody/snapshot")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	require.NoError(t, store.Save(ctx, &session.Snapshot{Player: "stored", Bankroll: 777}))
	resp, err = http.Get(ts.URL + "/sessions/stored/snapshot")
	require.NoError(t, err)
	var snap session.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	_ = resp.Body.Close()
	assert.Equal(t, 777, snap.Bankroll)

	sess, err := srv.Session(ctx, "dana")
	require.NoError(t, err)
	_, err = sess.StartRound(ctx, game.Bets{Main: 10})
	require.NoError(t, err)

	resp, err = http.Get(ts.URL + "/sessions/dana/snapshot")
	require.NoError(t, err)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1014, snap.Bankroll)
	require.Len(t, snap.History, 1)
	assert.Equal(t, "Blackjack! You win!", snap.History[0].Result)
}

func TestSessionsAreSharedByName(t *testing.T) {
	t.Parallel()
	srv, _, _ := startTestServer(t, "")
	ctx := context.Background()

	a, err := srv.Session(ctx, "erin")
	require.NoError(t, err)
	b, err := srv.Session(ctx, "erin")
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestNewServerNilLogger(t *testing.T) {
	t.Parallel()
	var srv *Server
	require.NotPanics(t, func() { srv = NewServer(session.NewMemoryStore(), nil, nil) })
	t.Cleanup(func() { _ = srv.Stop() })

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, WaitForHealthy(ctx, ts.URL))
}
