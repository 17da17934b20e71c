package workers

import (
	"github.com/google/uuid"
	"github.com/samber/lo"
	"lan-chat/protocol"
	"net"
	"sync"
	"time"
)

// ConnectionHandle is one accepted client socket of the hub.
type ConnectionHandle struct {
	ID         string
	RemoteAddr string
	conn       net.Conn
	writer     *protocol.FrameWriter
	closeOnce  sync.Once
}

func newConnectionHandle(conn net.Conn, maxFrameSize int) *ConnectionHandle {
	return &ConnectionHandle{
		ID:         uuid.NewString(),
		RemoteAddr: conn.RemoteAddr().String(),
		conn:       conn,
		writer:     protocol.NewFrameWriterSize(conn, maxFrameSize),
	}
}

// write sends one encoded frame, giving up after timeout.
func (h *ConnectionHandle) write(payload []byte, timeout time.Duration) error {
	if timeout > 0 {
		if err := h.conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
			return err
		}
	}
	return h.writer.WriteFrame(payload)
}

func (h *ConnectionHandle) Close() {
	h.closeOnce.Do(func() { _ = h.conn.Close() })
}

// ConnectionRegistry is the set of live hub connections, keyed by handle id.
type ConnectionRegistry struct {
	mu      sync.RWMutex
	handles map[string]*ConnectionHandle
}

func NewConnectionRegistry() *ConnectionRegistry {
	return &ConnectionRegistry{handles: make(map[string]*ConnectionHandle)}
}

func (r *ConnectionRegistry) Register(h *ConnectionHandle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handles[h.ID] = h
}

// Unregister removes the handle and reports whether it was still registered,
// so exactly one caller ends up closing it.
func (r *ConnectionRegistry) Unregister(id string) (*ConnectionHandle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.handles[id]
	if ok {
		delete(r.handles, id)
	}
	return h, ok
}

// Recipients lists every handle except the one identified by origin.
func (r *ConnectionRegistry) Recipients(origin string) []*ConnectionHandle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Filter(lo.Values(r.handles), func(h *ConnectionHandle, _ int) bool {
		return h.ID != origin
	})
}

// RemoveAll empties the registry and returns what it held.
func (r *ConnectionRegistry) RemoveAll() []*ConnectionHandle {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := lo.Values(r.handles)
	r.handles = make(map[string]*ConnectionHandle)
	return all
}

func (r *ConnectionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handles)
}
