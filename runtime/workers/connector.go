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
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// PeerConnector is the joined side of a room: one outbound connection to the host.
type PeerConnector struct {
	log          *slog.Logger
	stats        *observability.RelayStats
	conn         net.Conn
	inbox        contract.Inbox
	writer       *protocol.FrameWriter
	maxFrameSize int
	writeTimeout time.Duration
	closeOnce    sync.Once
	closed       atomic.Bool
}

var _ contract.Transport = (*PeerConnector)(nil)

// DialPeer connects to a hosting peer. There is no retry: failure is reported
// once, wrapped in errors.ErrConnectionFailed.
func DialPeer(ctx context.Context, log *slog.Logger, stats *observability.RelayStats, inbox contract.Inbox,
	address string, dialTimeout, writeTimeout time.Duration, maxFrameSize int) (*PeerConnector, error) {
	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp4", address)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errors.ErrConnectionFailed, address, err)
	}
	log.Info("Connected to room host", "address", address)
	return &PeerConnector{
		log:          log,
		stats:        stats,
		conn:         conn,
		inbox:        inbox,
		writer:       protocol.NewFrameWriterSize(conn, maxFrameSize),
		maxFrameSize: maxFrameSize,
		writeTimeout: writeTimeout,
	}, nil
}

// Run reads relayed messages into the inbox until the host goes away,
// a frame cannot be decoded, or ctx is done. The socket is closed on return.
func (c *PeerConnector) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { _ = c.Close() })
	defer stop()
	defer func() { _ = c.Close() }()

	reader := protocol.NewFrameReader(c.conn, c.maxFrameSize)
	for {
		msg, err := reader.ReadChat()
		if err != nil {
			switch {
			case ctx.Err() != nil || c.closed.Load():
			case errors.Is(err, io.EOF):
				c.log.Info("Room host closed the connection")
			case errors.Is(err, errors.ErrMalformedPayload), errors.Is(err, errors.ErrUnknownMessageType):
				c.stats.IncrFramesDropped()
				c.log.Warn("Leaving room after bad frame", "error", err)
			default:
				c.log.Warn("Connection to room host lost", "error", err)
			}
			return nil
		}
		c.stats.IncrMessagesReceived()
		c.inbox.Push(msg)
	}
}

// Send writes one message to the host. A message above the frame size limit
// is refused with errors.ErrMessageTooLarge and the connection stays up.
func (c *PeerConnector) Send(msg domain.ChatMessage) error {
	if c.closed.Load() {
		return errors.ErrTransportClosed
	}
	if c.writeTimeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return fmt.Errorf("%w: %v", errors.ErrTransportClosed, err)
		}
	}
	if err := c.writer.WriteChat(msg); err != nil {
		return fmt.Errorf("send to room host: %w", err)
	}
	return nil
}

func (c *PeerConnector) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		_ = c.conn.Close()
	})
	return nil
}
