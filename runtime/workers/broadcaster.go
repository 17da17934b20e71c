package workers

import (
	"context"
	"lan-chat/contract"
	"lan-chat/domain"
	"lan-chat/observability"
	"lan-chat/protocol"
	"log/slog"
	"net"
	"time"
)

// PresenceBroadcaster advertises a hosted room on the subnet until cancelled.
// It is fire-and-forget: the first send error ends it quietly.
type PresenceBroadcaster struct {
	log         *slog.Logger
	stats       *observability.RelayStats
	roomID      domain.RoomID
	displayName string
	address     string
	target      *net.UDPAddr
	interval    time.Duration
	now         func() time.Time
}

var _ contract.Worker = (*PresenceBroadcaster)(nil)

func NewPresenceBroadcaster(log *slog.Logger, stats *observability.RelayStats,
	roomID domain.RoomID, displayName, address string,
	target *net.UDPAddr, interval time.Duration) *PresenceBroadcaster {
	return &PresenceBroadcaster{
		log:         log,
		stats:       stats,
		roomID:      roomID,
		displayName: displayName,
		address:     address,
		target:      target,
		interval:    interval,
		now:         time.Now,
	}
}

func (b *PresenceBroadcaster) Run(ctx context.Context) error {
	conn, err := net.ListenUDP("udp4", nil)
	if err != nil {
		b.log.Debug("Cannot open broadcast socket", "error", err)
		return nil
	}
	defer func() { _ = conn.Close() }()

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	b.log.Info("Announcing room", "room_id", b.roomID, "target", b.target.String())
	for {
		if err := b.announce(conn); err != nil {
			b.log.Debug("Presence broadcast stopped", "room_id", b.roomID, "error", err)
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (b *PresenceBroadcaster) announce(conn *net.UDPConn) error {
	payload, err := protocol.EncodePresence(domain.PresenceAnnouncement{
		RoomID:      b.roomID,
		DisplayName: b.displayName,
		Address:     b.address,
		SentAt:      b.now(),
	})
	if err != nil {
		return err
	}
	if _, err := conn.WriteToUDP(payload, b.target); err != nil {
		return err
	}
	b.stats.IncrAnnouncementsSent()
	return nil
}
