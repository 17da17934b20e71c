package errors

import (
	stderrors "errors"
	"fmt"
)

var (
	ErrWorkerPanic        = fmt.Errorf("worker panic")
	ErrNoActiveRoom       = fmt.Errorf("no active room")
	ErrAlreadyInRoom      = fmt.Errorf("already hosting or joined a room")
	ErrInvalidRoomID      = fmt.Errorf("room id must be exactly 6 digits")
	ErrConnectionFailed   = fmt.Errorf("connection to room failed")
	ErrBindFailed         = fmt.Errorf("failed to bind socket")
	ErrEmptyMessage       = fmt.Errorf("message text is empty")
	ErrMalformedPayload   = fmt.Errorf("malformed payload")
	ErrUnknownMessageType = fmt.Errorf("unknown message type")
	ErrTransportClosed    = fmt.Errorf("transport closed")
	ErrUsernameRequired   = fmt.Errorf("username is required")
	ErrMessageTooLarge    = fmt.Errorf("message exceeds the frame size limit")
	ErrSessionStopped     = fmt.Errorf("session stopped")
)

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}
