package workers

import (
	"context"
	"lan-chat/observability"
	"log/slog"
	"time"
)

// Depther is anything exposing its current backlog, such as state.Queue.
type Depther interface {
	Len() int
}

// QueueDepthWorker periodically samples the inbound queue depth.
// The queue is unbounded, so growth is only reported, never prevented.
type QueueDepthWorker struct {
	log            *slog.Logger
	queue          Depther
	stats          *observability.RelayStats
	metricInterval time.Duration
	warnThreshold  int
}

func NewQueueDepthWorker(log *slog.Logger, queue Depther, stats *observability.RelayStats,
	metricInterval time.Duration, warnThreshold int) *QueueDepthWorker {
	return &QueueDepthWorker{
		log:            log,
		queue:          queue,
		stats:          stats,
		metricInterval: metricInterval,
		warnThreshold:  warnThreshold,
	}
}

func (w *QueueDepthWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			depth := w.queue.Len()
			w.stats.UpdateQueueDepth(depth)
			if w.warnThreshold > 0 && depth > w.warnThreshold {
				w.log.Warn("Inbound queue is growing", "depth", depth, "threshold", w.warnThreshold)
			}
		}
	}
}
