package transport

import "net"

// BytesAvailable returns the OS hint for how many unread bytes are already
// buffered for conn, or -1 if the platform/connection type exposes no such
// hint (§4.2, §4.9). Callers must tolerate -1 by reading until a Read call
// would block rather than looping on the hint.
func BytesAvailable(conn net.Conn) int {
	tc, ok := conn.(*net.TCPConn)
	if !ok {
		return -1
	}
	n, err := bytesAvailable(tc)
	if err != nil {
		return -1
	}
	return n
}
