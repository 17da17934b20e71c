// Package runtime drives a chat session: it owns the session state and starts
// and stops the discovery and relay workers as the user creates, joins or leaves rooms.
package runtime

import (
	"context"
	"fmt"
	"lan-chat/contract"
	"lan-chat/domain"
	"lan-chat/errors"
	"lan-chat/observability"
	"lan-chat/runtime/workers"
	"lan-chat/state"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/samber/lo"
)

// SessionConfig holds the network settings of a session.
type SessionConfig struct {
	Username            string
	DiscoveryPort       int
	ChatPort            int
	BroadcastAddress    string
	AdvertiseIP         string
	BroadcastInterval   time.Duration
	StaleAfter          time.Duration
	PruneInterval       time.Duration
	DialTimeout         time.Duration
	WriteTimeout        time.Duration
	RestartInterval     time.Duration
	MaxFrameSize        int
	QueueWarnThreshold  int
	QueueMetricInterval time.Duration
}

// Dialer opens the transport of a joined room, delivering received messages to inbox.
type Dialer func(ctx context.Context, address string, inbox contract.Inbox) (contract.Transport, error)

// TickResult is what one foreground tick merged into the history.
// RoomLost is set when the active room ended without LeaveRoom.
type TickResult struct {
	New      []domain.ChatMessage
	RoomLost bool
}

type Option func(*SessionController)

func WithRoomIDGenerator(gen domain.RoomIDGenerator) Option {
	return func(c *SessionController) { c.newRoomID = gen }
}

func WithDialer(dial Dialer) Option {
	return func(c *SessionController) { c.dial = dial }
}

func WithDirectory(dir *state.PeerDirectory) Option {
	return func(c *SessionController) { c.directory = dir }
}

func WithClock(now func() time.Time) Option {
	return func(c *SessionController) { c.now = now }
}

// roomScope groups the workers of the current room so they stop together.
type roomScope struct {
	cancel    context.CancelFunc
	transport contract.Transport
	done      chan struct{}
}

func (r *roomScope) ended() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// stop cancels the scope, closes the transport and waits until every room
// worker returned, so the room's sockets are released.
func (r *roomScope) stop() {
	r.cancel()
	_ = r.transport.Close()
	<-r.done
}

// SessionController is the state machine between Idle, Hosting and Joined.
// It is the only entry point for the presentation layer.
type SessionController struct {
	mu        sync.Mutex
	log       *slog.Logger
	cfg       SessionConfig
	stats     *observability.RelayStats
	state     domain.SessionState
	history   *domain.History
	inbound   *state.Queue[domain.ChatMessage]
	directory *state.PeerDirectory
	room      *roomScope
	joining   bool
	stopped   bool

	baseCtx     context.Context
	process     *workers.Supervisor
	processDone chan struct{}

	newRoomID domain.RoomIDGenerator
	dial      Dialer
	now       func() time.Time
}

func NewSessionController(log *slog.Logger, cfg SessionConfig, opts ...Option) (*SessionController, error) {
	if cfg.Username == "" {
		return nil, errors.ErrUsernameRequired
	}
	c := &SessionController{
		log:       log,
		cfg:       cfg,
		stats:     observability.NewRelayStats(log),
		history:   domain.NewHistory(),
		inbound:   state.NewQueue[domain.ChatMessage](),
		baseCtx:   context.Background(),
		newRoomID: domain.NewRoomID,
		now:       time.Now,
	}
	c.dial = c.dialPeer
	for _, opt := range opts {
		opt(c)
	}
	if c.directory == nil {
		c.directory = state.NewPeerDirectory(cfg.StaleAfter)
	}
	c.state = domain.SessionState{Mode: domain.Idle, LocalAddress: LocalIP(cfg.AdvertiseIP)}
	return c, nil
}

func (c *SessionController) dialPeer(ctx context.Context, address string, inbox contract.Inbox) (contract.Transport, error) {
	return workers.DialPeer(ctx, c.log, c.stats, inbox, address,
		c.cfg.DialTimeout, c.cfg.WriteTimeout, c.cfg.MaxFrameSize)
}

// Start launches process-wide workers: room discovery and queue metrics.
// Rooms created later live under ctx as well. A discovery bind failure is
// returned, joining by explicit address still works.
func (c *SessionController) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.process != nil {
		return nil
	}
	c.baseCtx = ctx
	c.process = workers.NewSupervisor(c.log, c.cfg.RestartInterval)
	c.process.Add(workers.NewQueueDepthWorker(c.log, c.inbound, c.stats,
		c.cfg.QueueMetricInterval, c.cfg.QueueWarnThreshold))

	listener, bindErr := workers.ListenPresence(ctx, c.log, c.stats, c.directory,
		c.cfg.DiscoveryPort, c.cfg.PruneInterval)
	if bindErr == nil {
		c.process.Add(listener)
	}

	c.processDone = make(chan struct{})
	go func(sup *workers.Supervisor, done chan struct{}) {
		defer close(done)
		sup.Run(ctx)
	}(c.process, c.processDone)

	if bindErr != nil {
		c.log.Warn("Room discovery unavailable", "port", c.cfg.DiscoveryPort, "error", bindErr)
		return bindErr
	}
	return nil
}

// CreateRoom hosts a new room under a fresh id. The chat port is bound before
// returning, a bind failure leaves the session Idle.
func (c *SessionController) CreateRoom(ctx context.Context) (domain.RoomID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return "", errors.ErrSessionStopped
	}
	if c.state.InRoom() || c.joining {
		return "", errors.ErrAlreadyInRoom
	}

	roomID := c.newRoomID()
	hub, err := workers.ListenHub(ctx, c.log, c.stats, c.inbound,
		c.cfg.ChatPort, c.cfg.MaxFrameSize, c.cfg.WriteTimeout)
	if err != nil {
		return "", err
	}
	target := &net.UDPAddr{IP: net.ParseIP(c.cfg.BroadcastAddress), Port: c.cfg.DiscoveryPort}
	broadcaster := workers.NewPresenceBroadcaster(c.log, c.stats, roomID, c.cfg.Username,
		c.state.LocalAddress, target, c.cfg.BroadcastInterval)

	c.startRoomLocked(hub, broadcaster)
	c.state.Mode = domain.Hosting
	c.state.RoomID = roomID
	c.log.Info("Room created", "room_id", roomID, "address", hub.Addr().String())
	return roomID, nil
}

// JoinRoom connects to the room pin hosted at address. An empty address is
// looked up among discovered rooms; a bare IP gets the default chat port.
// On failure the session stays Idle.
func (c *SessionController) JoinRoom(ctx context.Context, pin, address string) error {
	roomID, err := domain.ParseRoomID(pin)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return errors.ErrSessionStopped
	}
	if c.state.InRoom() || c.joining {
		c.mu.Unlock()
		return errors.ErrAlreadyInRoom
	}
	c.joining = true
	c.mu.Unlock()

	transport, err := c.connect(ctx, roomID, address)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.joining = false
	if err != nil {
		c.log.Warn("Join failed", "room_id", roomID, "error", err)
		return err
	}
	if c.stopped {
		_ = transport.Close()
		return errors.ErrSessionStopped
	}
	c.startRoomLocked(transport)
	c.state.Mode = domain.Joined
	c.state.RoomID = roomID
	c.log.Info("Joined room", "room_id", roomID)
	return nil
}

func (c *SessionController) connect(ctx context.Context, roomID domain.RoomID, address string) (contract.Transport, error) {
	if address == "" {
		rec, ok := lo.Find(c.directory.Snapshot(c.now()), func(r domain.PeerRecord) bool {
			return r.RoomID == roomID
		})
		if !ok {
			return nil, fmt.Errorf("%w: room %s is not advertised on this network", errors.ErrConnectionFailed, roomID)
		}
		address = rec.Address
	}
	return c.dial(ctx, PeerAddress(address, c.cfg.ChatPort), c.inbound)
}

func (c *SessionController) startRoomLocked(transport contract.Transport, others ...contract.Worker) {
	roomCtx, cancel := context.WithCancel(c.baseCtx)
	sup := workers.NewSupervisor(c.log, c.cfg.RestartInterval)
	sup.Add(workers.StopScopeOnExit(transport, cancel))
	sup.Add(others...)

	scope := &roomScope{cancel: cancel, transport: transport, done: make(chan struct{})}
	go func() {
		defer close(scope.done)
		sup.Run(roomCtx)
	}()
	c.room = scope
}

// SendMessage stamps text with the username and the current time, hands it to
// the active transport and, once accepted, appends it to the local history.
// The transport write runs without holding the session lock.
func (c *SessionController) SendMessage(text string) error {
	c.mu.Lock()
	if !c.state.InRoom() || c.room == nil {
		c.mu.Unlock()
		return errors.ErrNoActiveRoom
	}
	msg, err := domain.NewChatMessage(c.cfg.Username, text, c.now())
	if err != nil {
		c.mu.Unlock()
		return err
	}
	room := c.room
	c.mu.Unlock()

	if err := room.transport.Send(msg); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.room != room {
		return errors.ErrNoActiveRoom
	}
	c.history.Append(msg)
	return nil
}

// LeaveRoom stops every room worker and returns to Idle with an empty history.
// Discovery keeps running.
func (c *SessionController) LeaveRoom() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.state.InRoom() {
		return errors.ErrNoActiveRoom
	}
	roomID := c.state.RoomID
	c.closeRoomLocked()
	c.log.Info("Left room", "room_id", roomID)
	return nil
}

func (c *SessionController) closeRoomLocked() {
	if c.room != nil {
		c.room.stop()
		c.room = nil
	}
	c.state.Mode = domain.Idle
	c.state.RoomID = ""
	c.history.Reset()
	c.inbound.Drain()
}

// Tick merges newly received messages into the history and returns them.
// A room whose workers all ended on their own is closed here.
func (c *SessionController) Tick() TickResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.room != nil && c.room.ended() {
		c.log.Warn("Room ended", "room_id", c.state.RoomID, "mode", c.state.Mode.String())
		c.closeRoomLocked()
		return TickResult{RoomLost: true}
	}

	var res TickResult
	for _, msg := range c.inbound.Drain() {
		if c.history.Append(msg) {
			res.New = append(res.New, msg)
		}
	}
	return res
}

func (c *SessionController) State() domain.SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Rooms lists the rooms currently advertised on the network.
func (c *SessionController) Rooms() []domain.PeerRecord {
	return c.directory.Snapshot(c.now())
}

func (c *SessionController) History() []domain.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.history.Snapshot()
}

func (c *SessionController) Stats() observability.StatsSnapshot {
	return c.stats.Snapshot()
}

func (c *SessionController) Username() string {
	return c.cfg.Username
}

// RelayAddress is the local chat address while hosting, empty otherwise.
func (c *SessionController) RelayAddress() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.room == nil || c.state.Mode != domain.Hosting {
		return ""
	}
	if hub, ok := c.room.transport.(interface{ Addr() net.Addr }); ok {
		return hub.Addr().String()
	}
	return ""
}

// Stop leaves the current room, if any, and stops discovery. A join still
// dialing is abandoned once its dial returns.
func (c *SessionController) Stop() {
	c.mu.Lock()
	c.stopped = true
	if c.state.InRoom() {
		c.closeRoomLocked()
	}
	process, done := c.process, c.processDone
	c.mu.Unlock()

	if process != nil {
		process.Stop()
		<-done
	}
}
