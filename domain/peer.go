package domain

import "time"

// PresenceAnnouncement advertises a hosted room on the local subnet.
// It is rebuilt and resent on every broadcast tick.
type PresenceAnnouncement struct {
	RoomID      RoomID
	DisplayName string
	Address     string
	SentAt      time.Time
}

// PeerRecord is a room currently visible on the network, keyed by RoomID.
type PeerRecord struct {
	RoomID      RoomID
	DisplayName string
	Address     string
	LastSeen    time.Time
}

// IsStale reports whether the record has not been refreshed within staleAfter.
func (p PeerRecord) IsStale(now time.Time, staleAfter time.Duration) bool {
	return now.Sub(p.LastSeen) > staleAfter
}
