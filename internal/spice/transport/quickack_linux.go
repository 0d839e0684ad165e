//go:build linux

package transport

import (
	"net"

	"golang.org/x/sys/unix"
)

// setQuickAck sets TCP_QUICKACK so the kernel doesn't delay ACKs waiting to
// piggyback on outbound data.
func setQuickAck(tc *net.TCPConn) error {
	raw, err := tc.SyscallConn()
	if err != nil {
		return err
	}
	var sockErr error
	err = raw.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_QUICKACK, 1)
	})
	if err != nil {
		return err
	}
	return sockErr
}

// bytesAvailable returns the OS hint for unread bytes buffered on fd, used to
// bound per-event drain work (§4.2, §4.9).
func bytesAvailable(tc *net.TCPConn) (int, error) {
	raw, err := tc.SyscallConn()
	if err != nil {
		return 0, err
	}
	var n int
	var sockErr error
	err = raw.Control(func(fd uintptr) {
		var avail int
		avail, sockErr = unix.IoctlGetInt(int(fd), unix.FIONREAD)
		n = avail
	})
	if err != nil {
		return 0, err
	}
	return n, sockErr
}
