package netutil

import "net"

// LanIP resolves the address this host would use to reach the local
// network. No packet is sent; dialing UDP only selects the route. Cameras
// on the LAN use this address to reach the server.
func LanIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "127.0.0.1"
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP.String()
}
