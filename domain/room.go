package domain

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"lan-chat/errors"
)

const roomIDLength = 6

// RoomID is the 6-digit PIN identifying a hosted room.
// Nothing guarantees uniqueness across the network: two hosts may pick the same code.
type RoomID string

// RoomIDGenerator produces a fresh RoomID when a room is created.
type RoomIDGenerator func() RoomID

// NewRoomID draws a code uniformly from 000000..999999.
func NewRoomID() RoomID {
	return RoomID(fmt.Sprintf("%06d", rand.IntN(1_000_000)))
}

// ParseRoomID trims user input and checks it is a valid room code.
func ParseRoomID(s string) (RoomID, error) {
	s = strings.TrimSpace(s)
	if !IsValidRoomID(s) {
		return "", fmt.Errorf("%q: %w", s, errors.ErrInvalidRoomID)
	}
	return RoomID(s), nil
}

func IsValidRoomID(s string) bool {
	if len(s) != roomIDLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func (id RoomID) String() string { return string(id) }
