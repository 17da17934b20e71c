package domain

// Mode is the session controller state.
type Mode int

const (
	Idle Mode = iota
	Hosting
	Joined
)

func (m Mode) String() string {
	switch m {
	case Hosting:
		return "hosting"
	case Joined:
		return "joined"
	default:
		return "idle"
	}
}

// SessionState is a read-only view of the controller state.
// RoomID is empty while Idle.
type SessionState struct {
	Mode         Mode
	RoomID       RoomID
	LocalAddress string
}

func (s SessionState) InRoom() bool { return s.Mode != Idle }
