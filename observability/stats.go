package observability

import (
	"log/slog"
	"sync/atomic"
)

// StatsSnapshot is a point-in-time copy of RelayStats for display.
type StatsSnapshot struct {
	AnnouncementsSent     uint64 `json:"announcements_sent"`
	AnnouncementsReceived uint64 `json:"announcements_received"`
	DatagramsDropped      uint64 `json:"datagrams_dropped"`
	ConnectionsAccepted   uint64 `json:"connections_accepted"`
	ConnectionsClosed     uint64 `json:"connections_closed"`
	OpenConnections       int    `json:"open_connections"`
	MessagesRelayed       uint64 `json:"messages_relayed"`
	MessagesReceived      uint64 `json:"messages_received"`
	FramesDropped         uint64 `json:"frames_dropped"`
	InboundQueueDepth     int64  `json:"inbound_queue_depth"`
}

// RelayStats counts discovery and relay activity. Safe for concurrent use;
// counters are cumulative for the process lifetime.
type RelayStats struct {
	log *slog.Logger

	announcementsSent     atomic.Uint64
	announcementsReceived atomic.Uint64
	datagramsDropped      atomic.Uint64
	connectionsAccepted   atomic.Uint64
	connectionsClosed     atomic.Uint64
	messagesRelayed       atomic.Uint64
	messagesReceived      atomic.Uint64
	framesDropped         atomic.Uint64
	inboundQueueDepth     atomic.Int64
}

func NewRelayStats(log *slog.Logger) *RelayStats {
	return &RelayStats{log: log}
}

func (s *RelayStats) IncrAnnouncementsSent()     { s.announcementsSent.Add(1) }
func (s *RelayStats) IncrAnnouncementsReceived() { s.announcementsReceived.Add(1) }
func (s *RelayStats) IncrDatagramsDropped()      { s.datagramsDropped.Add(1) }
func (s *RelayStats) IncrConnectionsAccepted()   { s.connectionsAccepted.Add(1) }
func (s *RelayStats) IncrConnectionsClosed()     { s.connectionsClosed.Add(1) }
func (s *RelayStats) IncrFramesDropped()         { s.framesDropped.Add(1) }
func (s *RelayStats) IncrMessagesReceived()      { s.messagesReceived.Add(1) }

// AddMessagesRelayed counts one message delivered to n connections as n relays.
func (s *RelayStats) AddMessagesRelayed(n int) {
	if n > 0 {
		s.messagesRelayed.Add(uint64(n))
	}
}

func (s *RelayStats) UpdateQueueDepth(depth int) {
	s.inboundQueueDepth.Store(int64(depth))
}

// OpenConnections is accepted minus closed.
func (s *RelayStats) OpenConnections() int {
	return int(s.connectionsAccepted.Load() - s.connectionsClosed.Load())
}

func (s *RelayStats) Snapshot() StatsSnapshot {
	snap := StatsSnapshot{
		AnnouncementsSent:     s.announcementsSent.Load(),
		AnnouncementsReceived: s.announcementsReceived.Load(),
		DatagramsDropped:      s.datagramsDropped.Load(),
		ConnectionsAccepted:   s.connectionsAccepted.Load(),
		ConnectionsClosed:     s.connectionsClosed.Load(),
		OpenConnections:       s.OpenConnections(),
		MessagesRelayed:       s.messagesRelayed.Load(),
		MessagesReceived:      s.messagesReceived.Load(),
		FramesDropped:         s.framesDropped.Load(),
		InboundQueueDepth:     s.inboundQueueDepth.Load(),
	}
	s.log.Debug("Stats snapshot taken",
		"announcements_sent", snap.AnnouncementsSent,
		"announcements_received", snap.AnnouncementsReceived,
		"messages_relayed", snap.MessagesRelayed,
	)
	return snap
}
