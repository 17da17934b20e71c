// Package state holds the in-memory tables shared between workers and the session controller.
package state

import (
	"sort"
	"sync"
	"time"

	"lan-chat/domain"
)

// PeerDirectory maps each advertised room to the most recent announcement seen for it.
// Entries older than staleAfter are never returned.
type PeerDirectory struct {
	mu         sync.RWMutex
	rooms      map[domain.RoomID]domain.PeerRecord
	staleAfter time.Duration
}

func NewPeerDirectory(staleAfter time.Duration) *PeerDirectory {
	return &PeerDirectory{
		rooms:      make(map[domain.RoomID]domain.PeerRecord),
		staleAfter: staleAfter,
	}
}

// Upsert records the announcement under its room, replacing any previous
// record for that room, then drops whatever has gone stale as of seenAt.
func (d *PeerDirectory) Upsert(a domain.PresenceAnnouncement, seenAt time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.rooms[a.RoomID] = domain.PeerRecord{
		RoomID:      a.RoomID,
		DisplayName: a.DisplayName,
		Address:     a.Address,
		LastSeen:    seenAt,
	}
	d.pruneLocked(seenAt)
}

// Prune removes stale records and reports how many were dropped.
func (d *PeerDirectory) Prune(now time.Time) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pruneLocked(now)
}

func (d *PeerDirectory) pruneLocked(now time.Time) int {
	removed := 0
	for id, rec := range d.rooms {
		if rec.IsStale(now, d.staleAfter) {
			delete(d.rooms, id)
			removed++
		}
	}
	return removed
}

// Snapshot returns the live records ordered by room id.
func (d *PeerDirectory) Snapshot(now time.Time) []domain.PeerRecord {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]domain.PeerRecord, 0, len(d.rooms))
	for _, rec := range d.rooms {
		if rec.IsStale(now, d.staleAfter) {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RoomID < out[j].RoomID })
	return out
}

func (d *PeerDirectory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.rooms)
}
