// Package transport owns the one stream socket per channel (§4.2): dialing
// either a local stream socket (port==0) or TCP with NODELAY/QUICKACK, and
// exposing the OS bytes-available hint (BytesAvailable). The session's read
// loop does not consult that hint.
package transport

import (
	"context"
	"fmt"
	"net"
	"time"

	protoerr "github.com/sprice/spice-client/internal/errors"
)

// DialTimeout bounds the initial connect.
const DialTimeout = 5 * time.Second

// Dial connects to host:port, or to the local stream socket at host when
// port is zero (§4.2, §6 "port == 0 ⇒ local stream socket").
func Dial(ctx context.Context, host string, port int) (net.Conn, error) {
	d := net.Dialer{Timeout: DialTimeout}
	if port == 0 {
		conn, err := d.DialContext(ctx, "unix", host)
		if err != nil {
			return nil, protoerr.NewLinkError("dial unix", err)
		}
		return conn, nil
	}

	addr := fmt.Sprintf("%s:%d", host, port)
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, protoerr.NewLinkError("dial tcp", err)
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		if err := tc.SetNoDelay(true); err != nil {
			_ = conn.Close()
			return nil, protoerr.NewLinkError("set nodelay", err)
		}
		// Best-effort: TCP_QUICKACK is Linux-only and purely an optimization,
		// so failures here are not fatal to the connection.
		_ = setQuickAck(tc)
	}
	return conn, nil
}
