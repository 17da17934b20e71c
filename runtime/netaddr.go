package runtime

import (
	"net"
	"strconv"
)

const fallbackIP = "127.0.0.1"

// LocalIP picks the address advertised to other peers. An explicit address wins;
// otherwise the source address of an outbound route is used. No packet is sent.
func LocalIP(advertise string) string {
	if advertise != "" {
		return advertise
	}
	conn, err := net.Dial("udp4", "8.8.8.8:80")
	if err != nil {
		return fallbackIP
	}
	defer func() { _ = conn.Close() }()
	if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok && !addr.IP.IsUnspecified() {
		return addr.IP.String()
	}
	return fallbackIP
}

// PeerAddress completes a bare host with the default chat port.
func PeerAddress(address string, chatPort int) string {
	if _, _, err := net.SplitHostPort(address); err == nil {
		return address
	}
	return net.JoinHostPort(address, strconv.Itoa(chatPort))
}
