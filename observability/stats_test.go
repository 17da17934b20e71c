package observability

import (
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"log/slog"
	"sync"
	"testing"
)

func TestRelayStats_ConcurrentIncrements(t *testing.T) {
	req := require.New(t)
	stats := NewRelayStats(logs.GetLoggerFromLevel(slog.LevelDebug))

	// Given many goroutines counting at once
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				stats.IncrAnnouncementsReceived()
				stats.AddMessagesRelayed(2)
			}
		}()
	}
	wg.Wait()

	// Then no increment is lost
	snap := stats.Snapshot()
	req.Equal(uint64(1000), snap.AnnouncementsReceived)
	req.Equal(uint64(2000), snap.MessagesRelayed)
}

func TestRelayStats_OpenConnections(t *testing.T) {
	req := require.New(t)
	stats := NewRelayStats(logs.GetLoggerFromLevel(slog.LevelDebug))

	stats.IncrConnectionsAccepted()
	stats.IncrConnectionsAccepted()
	stats.IncrConnectionsClosed()
	stats.AddMessagesRelayed(0)
	stats.UpdateQueueDepth(7)

	req.Equal(1, stats.OpenConnections())
	req.Equal(1, stats.Snapshot().OpenConnections)
	req.Equal(int64(7), stats.Snapshot().InboundQueueDepth)
	req.Zero(stats.Snapshot().MessagesRelayed)
}
