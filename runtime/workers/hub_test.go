package workers

import (
	"context"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"lan-chat/domain"
	"lan-chat/errors"
	"lan-chat/observability"
	"lan-chat/protocol"
	"lan-chat/state"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"
)

type hubFixture struct {
	hub   *RelayHub
	inbox *state.Queue[domain.ChatMessage]
	stats *observability.RelayStats
	done  chan error
}

func startHub(t *testing.T, ctx context.Context, port int) *hubFixture {
	t.Helper()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	stats := observability.NewRelayStats(log)
	inbox := state.NewQueue[domain.ChatMessage]()
	hub, err := ListenHub(ctx, log, stats, inbox, port, protocol.DefaultMaxFrameSize, time.Second)
	require.NoError(t, err)
	f := &hubFixture{hub: hub, inbox: inbox, stats: stats, done: make(chan error, 1)}
	go func() { f.done <- hub.Run(ctx) }()
	return f
}

func (f *hubFixture) port() int {
	return f.hub.Addr().(*net.TCPAddr).Port
}

func joinHub(t *testing.T, ctx context.Context, port int) (*PeerConnector, *state.Queue[domain.ChatMessage], chan error) {
	t.Helper()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	inbox := state.NewQueue[domain.ChatMessage]()
	c, err := DialPeer(ctx, log, observability.NewRelayStats(log), inbox,
		net.JoinHostPort("127.0.0.1", strconv.Itoa(port)), time.Second, time.Second, protocol.DefaultMaxFrameSize)
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()
	return c, inbox, done
}

func waitFor(t *testing.T, q *state.Queue[domain.ChatMessage], n int) []domain.ChatMessage {
	t.Helper()
	var got []domain.ChatMessage
	require.Eventually(t, func() bool {
		got = append(got, q.Drain()...)
		return len(got) >= n
	}, 2*time.Second, 10*time.Millisecond)
	return got
}

func TestRelayHub_RelaysToEveryoneButTheSender(t *testing.T) {
	req := require.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Given a hub with two clients
	f := startHub(t, ctx, 0)
	alice, aliceInbox, _ := joinHub(t, ctx, f.port())
	_, bobInbox, _ := joinHub(t, ctx, f.port())
	req.Eventually(func() bool { return f.hub.Clients() == 2 }, time.Second, 10*time.Millisecond)

	// When alice speaks
	hello := domain.ChatMessage{SenderName: "alice", Text: "hello", SentAt: "12:00:00"}
	req.NoError(alice.Send(hello))

	// Then the host and bob receive it, alice does not get it back
	req.Equal([]domain.ChatMessage{hello}, waitFor(t, f.inbox, 1))
	req.Equal([]domain.ChatMessage{hello}, waitFor(t, bobInbox, 1))
	time.Sleep(100 * time.Millisecond)
	req.Zero(aliceInbox.Len())
}

func TestRelayHub_HostMessagesReachAllClientsOnly(t *testing.T) {
	req := require.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := startHub(t, ctx, 0)
	_, aliceInbox, _ := joinHub(t, ctx, f.port())
	_, bobInbox, _ := joinHub(t, ctx, f.port())
	req.Eventually(func() bool { return f.hub.Clients() == 2 }, time.Second, 10*time.Millisecond)

	// When the host sends
	msg := domain.ChatMessage{SenderName: "host", Text: "welcome", SentAt: "12:00:01"}
	req.NoError(f.hub.Send(msg))

	// Then every client gets it and nothing loops back into the host inbox
	req.Equal([]domain.ChatMessage{msg}, waitFor(t, aliceInbox, 1))
	req.Equal([]domain.ChatMessage{msg}, waitFor(t, bobInbox, 1))
	req.Zero(f.inbox.Len())
	req.Eventually(func() bool { return f.stats.Snapshot().MessagesRelayed == 2 }, time.Second, 10*time.Millisecond)
}

func TestRelayHub_PreservesPerConnectionOrder(t *testing.T) {
	req := require.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := startHub(t, ctx, 0)
	alice, _, _ := joinHub(t, ctx, f.port())
	_, bobInbox, _ := joinHub(t, ctx, f.port())
	req.Eventually(func() bool { return f.hub.Clients() == 2 }, time.Second, 10*time.Millisecond)

	var sent []domain.ChatMessage
	for i := 0; i < 50; i++ {
		msg := domain.ChatMessage{SenderName: "alice", Text: strconv.Itoa(i), SentAt: "12:00:00"}
		sent = append(sent, msg)
		req.NoError(alice.Send(msg))
	}

	req.Equal(sent, waitFor(t, bobInbox, len(sent)))
}

func TestRelayHub_DropsPeerOnBadFrame(t *testing.T) {
	req := require.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := startHub(t, ctx, 0)
	conn, err := net.Dial("tcp4", net.JoinHostPort("127.0.0.1", strconv.Itoa(f.port())))
	req.NoError(err)
	defer func() { _ = conn.Close() }()
	req.Eventually(func() bool { return f.hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	// When garbage arrives in a well-formed frame
	req.NoError(protocol.NewFrameWriter(conn).WriteFrame([]byte(`{"type":"chat"}`)))

	// Then the connection is dropped and nothing reaches the inbox
	req.Eventually(func() bool { return f.hub.Clients() == 0 }, time.Second, 10*time.Millisecond)
	req.Equal(uint64(1), f.stats.Snapshot().FramesDropped)
	req.Zero(f.inbox.Len())
}

func TestRelayHub_CloseReleasesPortAndClients(t *testing.T) {
	req := require.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := startHub(t, ctx, 0)
	port := f.port()
	_, _, clientDone := joinHub(t, ctx, port)
	req.Eventually(func() bool { return f.hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	// When the hub is closed
	req.NoError(f.hub.Close())
	req.NoError(f.hub.Close())

	// Then Run returns, the client sees the room end and the port can be bound again
	select {
	case err := <-f.done:
		req.NoError(err)
	case <-time.After(2 * time.Second):
		req.Fail("hub should stop after Close")
	}
	select {
	case err := <-clientDone:
		req.NoError(err)
	case <-time.After(2 * time.Second):
		req.Fail("client should notice the hub is gone")
	}
	req.ErrorIs(f.hub.Send(domain.ChatMessage{SenderName: "h", Text: "late", SentAt: "12:00:00"}), errors.ErrTransportClosed)

	again := startHub(t, ctx, port)
	req.Equal(port, again.port())
}

func TestRelayHub_OversizedMessagesAreRefusedAtTheSender(t *testing.T) {
	req := require.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Given a hub with one client
	f := startHub(t, ctx, 0)
	alice, aliceInbox, _ := joinHub(t, ctx, f.port())
	req.Eventually(func() bool { return f.hub.Clients() == 1 }, time.Second, 10*time.Millisecond)
	huge := strings.Repeat("x", protocol.DefaultMaxFrameSize+1)

	// When either side sends more than one frame can carry
	hostErr := f.hub.Send(domain.ChatMessage{SenderName: "host", Text: huge, SentAt: "12:00:02"})
	clientErr := alice.Send(domain.ChatMessage{SenderName: "alice", Text: huge, SentAt: "12:00:02"})

	// Then both are refused before reaching the wire
	req.ErrorIs(hostErr, errors.ErrMessageTooLarge)
	req.ErrorIs(clientErr, errors.ErrMessageTooLarge)

	// And the connection keeps relaying in both directions
	up := domain.ChatMessage{SenderName: "alice", Text: "small", SentAt: "12:00:03"}
	req.NoError(alice.Send(up))
	req.Equal([]domain.ChatMessage{up}, waitFor(t, f.inbox, 1))
	down := domain.ChatMessage{SenderName: "host", Text: "ok", SentAt: "12:00:04"}
	req.NoError(f.hub.Send(down))
	req.Equal([]domain.ChatMessage{down}, waitFor(t, aliceInbox, 1))
	req.Equal(1, f.hub.Clients())
}
