package server

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lastpot/lastpot/internal/access"
	"github.com/lastpot/lastpot/internal/ledger"
	"github.com/lastpot/lastpot/internal/round"
)

// startTestServer wires a full engine behind a Server and serves it from
// an httptest listener.
func startTestServer(t *testing.T) (*Server, *ledger.MemoryLedger, *quartz.Mock, string) {
	t.Helper()

	mem := ledger.NewMemoryLedger("pot")
	guard := access.NewGuard("admin")
	clock := quartz.NewMock(t)
	bus := round.NewEventBus()
	logger := log.New(io.Discard)

	engine := round.NewLedger(mem, guard, "pot", round.NewParamStore(1, time.Second), clock, bus, logger)
	service := NewService(engine, logger)
	srv := NewServer("127.0.0.1:0", service, logger)
	bus.Subscribe(srv)

	ts := httptest.NewServer(srv.httpServer.Handler)
	t.Cleanup(ts.Close)

	require.NoError(t, engine.StartRound("admin", round.Params{
		CloseTime: clock.Now().Add(time.Hour),
		Stake:     10,
		Delay:     300 * time.Second,
	}))

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	return srv, mem, clock, wsURL
}

func dialTest(t *testing.T, wsURL string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) *Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return &msg
}

func TestServerStatusOverWebsocket(t *testing.T) {
	t.Parallel()
	_, _, _, wsURL := startTestServer(t)
	conn := dialTest(t, wsURL)

	msg, err := NewMessage(MessageTypeStatus, nil)
	require.NoError(t, err)
	msg.RequestID = "status-1"
	require.NoError(t, conn.WriteJSON(msg))

	reply := readMessage(t, conn)
	status := decodeStatus(t, reply)
	assert.Equal(t, "status-1", reply.RequestID)
	assert.True(t, status.Active)
	assert.Equal(t, int64(10), status.Stake)
}

func TestServerBroadcastsRoundEvents(t *testing.T) {
	t.Parallel()
	_, mem, _, wsURL := startTestServer(t)

	require.NoError(t, mem.Deposit("alice", 100))
	require.NoError(t, mem.Approve("alice", 100))

	bettor := dialTest(t, wsURL)
	watcher := dialTest(t, wsURL)

	msg, err := NewMessage(MessageTypePlaceBet, PlaceBetData{Bettor: "alice"})
	require.NoError(t, err)
	msg.RequestID = "bet-1"
	require.NoError(t, bettor.WriteJSON(msg))

	// The watcher only sees the broadcast event.
	event := readMessage(t, watcher)
	require.Equal(t, MessageTypeRoundEvent, event.Type)

	// The bettor sees both the broadcast and its own reply, in either order.
	sawReply := false
	sawEvent := false
	for i := 0; i < 2; i++ {
		got := readMessage(t, bettor)
		switch got.Type {
		case MessageTypeRoundEvent:
			sawEvent = true
		case MessageTypeRoundStatus:
			assert.Equal(t, "bet-1", got.RequestID)
			status := decodeStatus(t, got)
			assert.Equal(t, int64(10), status.Fund)
			sawReply = true
		default:
			t.Fatalf("unexpected message type %q", got.Type)
		}
	}
	assert.True(t, sawReply)
	assert.True(t, sawEvent)
}

func TestServerRejectsMalformedEnvelope(t *testing.T) {
	t.Parallel()
	_, _, _, wsURL := startTestServer(t)
	conn := dialTest(t, wsURL)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))

	reply := readMessage(t, conn)
	errData := decodeError(t, reply)
	assert.Equal(t, CodeBadRequest, errData.Code)
}

func TestServerTracksConnections(t *testing.T) {
	t.Parallel()
	srv, _, _, wsURL := startTestServer(t)

	conn := dialTest(t, wsURL)
	require.Eventually(t, func() bool {
		return srv.ConnectionCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	_ = conn.Close()
	require.Eventually(t, func() bool {
		return srv.ConnectionCount() == 0
	}, 2*time.Second, 10*time.Millisecond)
}
