package domain

import (
	"testing"

	"lan-chat/errors"

	"github.com/stretchr/testify/require"
)

func TestNewRoomID_AlwaysSixDigits(t *testing.T) {
	req := require.New(t)

	for i := 0; i < 10_000; i++ {
		id := NewRoomID()
		req.Len(string(id), 6)
		req.True(IsValidRoomID(string(id)), "generated id %q is not numeric", id)
	}
}

func TestNewRoomID_KeepsLeadingZeros(t *testing.T) {
	req := require.New(t)
	seen := false

	// Given one draw in ten starts with a zero, 2000 draws make a miss practically impossible
	for i := 0; i < 2_000 && !seen; i++ {
		seen = NewRoomID()[0] == '0'
	}

	req.True(seen)
}

func TestParseRoomID(t *testing.T) {
	req := require.New(t)

	id, err := ParseRoomID(" 123456 ")
	req.NoError(err)
	req.Equal(RoomID("123456"), id)

	for _, bad := range []string{"", "12345", "1234567", "12a456", "-12345", "12 456"} {
		_, err := ParseRoomID(bad)
		req.Error(err, bad)
		req.ErrorIs(err, errors.ErrInvalidRoomID)
	}
}
