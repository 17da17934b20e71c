package workers

import (
	"context"
	"fmt"
	"io"
	"lan-chat/contract"
	"lan-chat/domain"
	"lan-chat/errors"
	"lan-chat/observability"
	"lan-chat/protocol"
	"lan-chat/state"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// relayed is a message waiting for fan-out. An empty origin means it was
// authored by the host and goes to every client. payload is set when the
// message was already encoded.
type relayed struct {
	msg     domain.ChatMessage
	origin  string
	payload []byte
}

// RelayHub is the hosting side of a room: it accepts client connections,
// hands every received message to the inbox and relays it to the other clients.
type RelayHub struct {
	log          *slog.Logger
	stats        *observability.RelayStats
	listener     net.Listener
	inbox        contract.Inbox
	outbound     *state.Queue[relayed]
	registry     *ConnectionRegistry
	maxFrameSize int
	writeTimeout time.Duration
	readers      sync.WaitGroup
	closed       atomic.Bool
}

var _ contract.Transport = (*RelayHub)(nil)

// ListenHub binds the chat port. Port 0 picks an ephemeral port.
func ListenHub(ctx context.Context, log *slog.Logger, stats *observability.RelayStats, inbox contract.Inbox,
	port, maxFrameSize int, writeTimeout time.Duration) (*RelayHub, error) {
	var lc net.ListenConfig
	address := net.JoinHostPort("", strconv.Itoa(port))
	listener, err := lc.Listen(ctx, "tcp4", address)
	if err != nil {
		return nil, fmt.Errorf("%w: chat %s: %v", errors.ErrBindFailed, address, err)
	}
	return &RelayHub{
		log:          log,
		stats:        stats,
		listener:     listener,
		inbox:        inbox,
		outbound:     state.NewQueue[relayed](),
		registry:     NewConnectionRegistry(),
		maxFrameSize: maxFrameSize,
		writeTimeout: writeTimeout,
	}, nil
}

func (h *RelayHub) Addr() net.Addr {
	return h.listener.Addr()
}

// Clients is the number of connections currently relayed to.
func (h *RelayHub) Clients() int {
	return h.registry.Len()
}

// Run serves the room until ctx is done, Close is called or accepting fails.
// Every connection is closed and every reader has returned when it does.
func (h *RelayHub) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(runCtx, func() { _ = h.listener.Close() })
	defer stop()

	fanOutDone := make(chan struct{})
	go func() {
		defer close(fanOutDone)
		h.fanOut(runCtx)
	}()

	h.log.Info("Relay hub accepting", "address", h.listener.Addr().String())
	h.acceptLoop(runCtx)

	cancel()
	<-fanOutDone
	for _, handle := range h.registry.RemoveAll() {
		handle.Close()
		h.stats.IncrConnectionsClosed()
	}
	h.readers.Wait()
	h.log.Info("Relay hub stopped")
	return nil
}

func (h *RelayHub) acceptLoop(ctx context.Context) {
	for {
		conn, err := h.listener.Accept()
		if err != nil {
			if ctx.Err() == nil && !h.closed.Load() {
				h.log.Warn("Accept failed, closing room", "error", err)
			}
			return
		}
		handle := newConnectionHandle(conn, h.maxFrameSize)
		h.registry.Register(handle)
		h.stats.IncrConnectionsAccepted()
		h.log.Info("Peer connected", "connection_id", handle.ID, "address", handle.RemoteAddr)

		h.readers.Add(1)
		go h.read(handle)
	}
}

func (h *RelayHub) read(handle *ConnectionHandle) {
	defer h.readers.Done()
	defer h.drop(handle)

	reader := protocol.NewFrameReader(handle.conn, h.maxFrameSize)
	for {
		msg, err := reader.ReadChat()
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				h.log.Debug("Peer left", "connection_id", handle.ID)
			case errors.Is(err, errors.ErrMalformedPayload), errors.Is(err, errors.ErrUnknownMessageType):
				h.stats.IncrFramesDropped()
				h.log.Debug("Dropping peer after bad frame", "connection_id", handle.ID, "error", err)
			default:
				h.log.Debug("Peer read failed", "connection_id", handle.ID, "error", err)
			}
			return
		}
		h.stats.IncrMessagesReceived()
		h.inbox.Push(msg)
		h.outbound.Push(relayed{msg: msg, origin: handle.ID})
	}
}

func (h *RelayHub) fanOut(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.outbound.Ready():
		}
		for _, out := range h.outbound.Drain() {
			h.deliver(out)
		}
	}
}

func (h *RelayHub) deliver(out relayed) {
	payload := out.payload
	if payload == nil {
		encoded, err := protocol.EncodeChat(out.msg)
		if err != nil {
			h.log.Debug("Cannot encode message", "error", err)
			return
		}
		payload = encoded
	}
	delivered := 0
	for _, handle := range h.registry.Recipients(out.origin) {
		if err := handle.write(payload, h.writeTimeout); err != nil {
			h.log.Warn("Dropping peer after failed write", "connection_id", handle.ID, "error", err)
			h.drop(handle)
			continue
		}
		delivered++
	}
	h.stats.AddMessagesRelayed(delivered)
}

func (h *RelayHub) drop(handle *ConnectionHandle) {
	if _, ok := h.registry.Unregister(handle.ID); ok {
		handle.Close()
		h.stats.IncrConnectionsClosed()
	}
}

// Send queues a host-authored message for every connected client. A message
// above the frame size limit is refused with errors.ErrMessageTooLarge.
func (h *RelayHub) Send(msg domain.ChatMessage) error {
	if h.closed.Load() {
		return errors.ErrTransportClosed
	}
	payload, err := protocol.EncodeChat(msg)
	if err != nil {
		return err
	}
	if err := protocol.CheckFrameSize(payload, h.maxFrameSize); err != nil {
		return err
	}
	h.outbound.Push(relayed{msg: msg, payload: payload})
	return nil
}

// Close stops accepting; Run then tears the room down. Safe to call more than once.
func (h *RelayHub) Close() error {
	if h.closed.CompareAndSwap(false, true) {
		_ = h.listener.Close()
	}
	return nil
}
