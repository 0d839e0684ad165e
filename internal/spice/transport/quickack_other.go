//go:build !linux

package transport

import "net"

// setQuickAck is a no-op outside Linux; TCP_QUICKACK has no portable
// equivalent and the protocol tolerates its absence (it is purely a latency
// optimization, not a correctness requirement).
func setQuickAck(tc *net.TCPConn) error { return nil }

// bytesAvailable has no portable ioctl equivalent outside Linux; it always
// reports -1, which BytesAvailable passes on as "hint unavailable".
func bytesAvailable(tc *net.TCPConn) (int, error) { return -1, nil }
