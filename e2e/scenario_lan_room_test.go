package e2e

import (
	"context"
	"lan-chat/domain"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type testLanRoomSuite struct {
	BaseLanSuite
}

func TestLanRoomSuite(t *testing.T) {
	suite.Run(t, &testLanRoomSuite{})
}

func (s *testLanRoomSuite) TestDiscoverJoinChatLeave() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	host := s.NewPeer("alice")
	guest := s.NewPeer("bob")
	s.Require().NoError(guest.Start(ctx))

	var roomID domain.RoomID
	s.Run("Step 1: Host opens a room", func() {
		s.Step("Host opens a room")
		var err error
		roomID, err = host.CreateRoom(ctx)
		s.Require().NoError(err)
		s.Require().Equal(domain.Hosting, host.State().Mode)
	})

	s.Run("Step 2: Guest discovers the room through broadcast", func() {
		s.Step("Guest discovers the room")
		s.Require().Eventually(func() bool {
			for _, r := range guest.Rooms() {
				if r.RoomID == roomID {
					return true
				}
			}
			return false
		}, 5*time.Second, 100*time.Millisecond)
	})

	s.Run("Step 3: Guest joins by PIN and both sides talk", func() {
		s.Step("Guest joins by PIN")
		s.Require().NoError(guest.JoinRoom(ctx, roomID.String(), ""))
		s.Require().Eventually(func() bool {
			return host.Stats().ConnectionsAccepted >= 1
		}, 5*time.Second, 50*time.Millisecond)

		s.Require().NoError(host.SendMessage("hello"))
		s.Require().Eventually(func() bool {
			for _, m := range guest.Tick().New {
				if m.Text == "hello" && m.SenderName == "alice" {
					return true
				}
			}
			return false
		}, 5*time.Second, 50*time.Millisecond)

		s.Require().NoError(guest.SendMessage("hi alice"))
		s.Require().Eventually(func() bool {
			host.Tick()
			return len(host.History()) == 2
		}, 5*time.Second, 50*time.Millisecond)
	})

	s.Run("Step 4: Host leaves and the guest falls back to idle", func() {
		s.Step("Host leaves")
		s.Require().NoError(host.LeaveRoom())
		s.Require().Empty(host.History())
		s.Require().Eventually(func() bool {
			return guest.Tick().RoomLost
		}, 5*time.Second, 50*time.Millisecond)
		s.Require().Equal(domain.Idle, guest.State().Mode)
	})
}
