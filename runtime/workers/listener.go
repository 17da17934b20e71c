package workers

import (
	"context"
	"fmt"
	"lan-chat/contract"
	"lan-chat/errors"
	"lan-chat/observability"
	"lan-chat/protocol"
	"log/slog"
	"net"
	"strconv"
	"time"
)

const maxDatagramSize = 8 * 1024

// PresenceListener feeds the room directory from presence datagrams.
// It outlives rooms: it runs from Start until the process stops.
type PresenceListener struct {
	log           *slog.Logger
	stats         *observability.RelayStats
	directory     contract.Directory
	address       string
	pruneInterval time.Duration
	conn          *net.UDPConn
	now           func() time.Time
}

var _ contract.Worker = (*PresenceListener)(nil)

// ListenPresence binds the discovery port right away so the caller learns about
// a busy port before any worker starts. Port 0 picks an ephemeral port.
func ListenPresence(ctx context.Context, log *slog.Logger, stats *observability.RelayStats,
	directory contract.Directory, port int, pruneInterval time.Duration) (*PresenceListener, error) {
	l := &PresenceListener{
		log:           log,
		stats:         stats,
		directory:     directory,
		address:       net.JoinHostPort("", strconv.Itoa(port)),
		pruneInterval: pruneInterval,
		now:           time.Now,
	}
	conn, err := l.bind(ctx)
	if err != nil {
		return nil, err
	}
	l.conn = conn
	l.address = conn.LocalAddr().String()
	return l, nil
}

func (l *PresenceListener) bind(ctx context.Context) (*net.UDPConn, error) {
	lc := net.ListenConfig{Control: reuseControl}
	pc, err := lc.ListenPacket(ctx, "udp4", l.address)
	if err != nil {
		return nil, fmt.Errorf("%w: discovery %s: %v", errors.ErrBindFailed, l.address, err)
	}
	return pc.(*net.UDPConn), nil
}

// Addr is the bound discovery address.
func (l *PresenceListener) Addr() string {
	return l.address
}

// Run reads datagrams until ctx is done. A read failure releases the socket and
// returns an error, the next Run rebinds.
func (l *PresenceListener) Run(ctx context.Context) error {
	if l.conn == nil {
		conn, err := l.bind(ctx)
		if err != nil {
			return err
		}
		l.conn = conn
	}
	conn := l.conn
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	pruneCtx, cancelPrune := context.WithCancel(ctx)
	pruned := make(chan struct{})
	go func() {
		defer close(pruned)
		l.pruneLoop(pruneCtx)
	}()
	defer func() {
		cancelPrune()
		<-pruned
	}()

	l.log.Info("Listening for rooms", "address", l.address)
	buf := make([]byte, maxDatagramSize)
	for {
		n, src, err := conn.ReadFromUDP(buf)
		if err != nil {
			_ = conn.Close()
			l.conn = nil
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("presence read: %w", err)
		}
		l.handle(buf[:n], src)
	}
}

func (l *PresenceListener) handle(datagram []byte, src *net.UDPAddr) {
	a, err := protocol.DecodePresence(datagram)
	if err != nil {
		l.stats.IncrDatagramsDropped()
		l.log.Debug("Dropping datagram", "source", src.String(), "error", err)
		return
	}
	if a.Address == "" && src != nil {
		a.Address = src.IP.String()
	}
	l.stats.IncrAnnouncementsReceived()
	l.directory.Upsert(a, l.now())
}

func (l *PresenceListener) pruneLoop(ctx context.Context) {
	ticker := time.NewTicker(l.pruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := l.directory.Prune(l.now()); n > 0 {
				l.log.Debug("Rooms expired", "count", n)
			}
		}
	}
}
