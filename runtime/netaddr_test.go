package runtime

import (
	"github.com/stretchr/testify/require"
	"net"
	"testing"
)

func TestPeerAddress(t *testing.T) {
	req := require.New(t)

	req.Equal("192.168.1.10:37021", PeerAddress("192.168.1.10", 37021))
	req.Equal("192.168.1.10:4000", PeerAddress("192.168.1.10:4000", 37021))
	req.Equal("[fe80::1]:37021", PeerAddress("fe80::1", 37021))
}

func TestLocalIP(t *testing.T) {
	req := require.New(t)

	req.Equal("10.1.2.3", LocalIP("10.1.2.3"))
	req.NotNil(net.ParseIP(LocalIP("")))
}
