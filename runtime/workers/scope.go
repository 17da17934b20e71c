package workers

import (
	"context"
	"lan-chat/contract"
)

// scopeGuard runs a worker and cancels its scope once the worker returns,
// so a room ends as a whole when its transport goes away.
type scopeGuard struct {
	worker contract.Worker
	cancel context.CancelFunc
}

// StopScopeOnExit wraps w so that cancel is called whenever w returns, panics included.
func StopScopeOnExit(w contract.Worker, cancel context.CancelFunc) contract.Worker {
	return &scopeGuard{worker: w, cancel: cancel}
}

func (g *scopeGuard) Run(ctx context.Context) error {
	defer g.cancel()
	return g.worker.Run(ctx)
}
