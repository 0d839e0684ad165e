package channel

import (
	"encoding/binary"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/sprice/spice-client/internal/spice/link"
	"github.com/sprice/spice-client/internal/spice/wire"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingHandler struct {
	firstMsgs []*wire.Frame
	msgs      []*wire.Frame
}

func (h *recordingHandler) FirstMessage(c *Channel, f *wire.Frame) error {
	h.firstMsgs = append(h.firstMsgs, f)
	return nil
}

func (h *recordingHandler) Message(c *Channel, f *wire.Frame) error {
	h.msgs = append(h.msgs, f)
	return nil
}

// loopbackPair returns the two ends of a loopback TCP connection. Unlike
// net.Pipe, the kernel buffers writes, so a reply the channel sends during
// DrainOnce completes before the test reads it.
func loopbackPair(t *testing.T) (net.Conn, net.Conn) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	client, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	server, err := ln.Accept()
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	return client, server
}

func newTestChannel(t *testing.T, handler Handler) (*Channel, net.Conn) {
	t.Helper()
	clientConn, serverConn := loopbackPair(t)
	t.Cleanup(func() { clientConn.Close() })
	c := &Channel{
		ID:      "test",
		Type:    link.ChannelMain,
		conn:    clientConn,
		log:     discardLogger(),
		handler: handler,
	}
	c.connected, c.ready = 1, 1
	return c, serverConn
}

func TestFirstMessageThenCommonThenDataDispatch(t *testing.T) {
	h := &recordingHandler{}
	c, server := newTestChannel(t, h)
	defer server.Close()

	go func() {
		// first message
		server.Write(wire.Encode(100, []byte("init")))
		// set-ack: generation=5, window=3
		payload := make([]byte, 8)
		binary.LittleEndian.PutUint32(payload[0:4], 5)
		binary.LittleEndian.PutUint32(payload[4:8], 3)
		server.Write(wire.Encode(wire.MsgSetAck, payload))
		// two data messages (not yet triggering ack, since window=3 means ack
		// fires on the 3rd)
		server.Write(wire.Encode(200, []byte("a")))
		server.Write(wire.Encode(200, []byte("b")))
	}()

	if res := c.DrainOnce(); res != ResultHandled {
		t.Fatalf("first message: got %v want HANDLED", res)
	}
	if len(h.firstMsgs) != 1 {
		t.Fatalf("expected 1 first message, got %d", len(h.firstMsgs))
	}

	if res := c.DrainOnce(); res != ResultHandled {
		t.Fatalf("set-ack: got %v want HANDLED", res)
	}

	var ackSyncBuf [wire.HeaderSize + 4]byte
	server.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := readFullTest(server, ackSyncBuf[:]); err != nil {
		t.Fatalf("read ack-sync: %v", err)
	}
	gotType := binary.LittleEndian.Uint16(ackSyncBuf[0:2])
	if wire.MsgType(gotType) != wire.MsgcAckSync {
		t.Fatalf("expected ack-sync reply, got type %d", gotType)
	}

	if res := c.DrainOnce(); res != ResultOK {
		t.Fatalf("data msg 1: got %v want OK", res)
	}
	if res := c.DrainOnce(); res != ResultOK {
		t.Fatalf("data msg 2: got %v want OK", res)
	}
	if len(h.msgs) != 2 {
		t.Fatalf("expected 2 dispatched data messages, got %d", len(h.msgs))
	}
}

func TestAckCadenceMatchesWindow(t *testing.T) {
	h := &recordingHandler{}
	c, server := newTestChannel(t, h)
	defer server.Close()
	c.initDone = 1
	c.ackFrequency = 10

	go func() {
		for i := 0; i < 10; i++ {
			server.Write(wire.Encode(200, nil))
		}
	}()

	for i := 0; i < 10; i++ {
		if res := c.DrainOnce(); res != ResultOK {
			t.Fatalf("message %d: got %v want OK", i, res)
		}
	}

	var buf [wire.HeaderSize]byte
	server.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := readFullTest(server, buf[:]); err != nil {
		t.Fatalf("expected ack after 10 messages (window=10): %v", err)
	}
	if wire.MsgType(binary.LittleEndian.Uint16(buf[0:2])) != wire.MsgcAck {
		t.Fatalf("expected ack message type")
	}
	if c.ackCount != 0 {
		t.Fatalf("ack counter must reset after firing, got %d", c.ackCount)
	}
}

func TestMigrateIsDiscardedSilently(t *testing.T) {
	h := &recordingHandler{}
	c, server := newTestChannel(t, h)
	defer server.Close()
	c.initDone = 1

	go func() {
		server.Write(wire.Encode(wire.MsgMigrate, []byte("ignored")))
	}()

	if res := c.DrainOnce(); res != ResultHandled {
		t.Fatalf("migrate: got %v want HANDLED", res)
	}
	if len(h.msgs) != 0 {
		t.Fatalf("migrate must not reach the channel handler")
	}
}

func TestPingRepliesWithPong(t *testing.T) {
	h := &recordingHandler{}
	c, server := newTestChannel(t, h)
	defer server.Close()
	c.initDone = 1

	payload := make([]byte, 12)
	binary.LittleEndian.PutUint32(payload[0:4], 77)
	go func() {
		server.Write(wire.Encode(wire.MsgPing, payload))
	}()

	if res := c.DrainOnce(); res != ResultHandled {
		t.Fatalf("ping: got %v want HANDLED", res)
	}

	var buf [wire.HeaderSize + 12]byte
	server.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := readFullTest(server, buf[:]); err != nil {
		t.Fatalf("read pong: %v", err)
	}
	if wire.MsgType(binary.LittleEndian.Uint16(buf[0:2])) != wire.MsgcPong {
		t.Fatalf("expected pong reply")
	}
	if !equalBytes(buf[wire.HeaderSize:], payload) {
		t.Fatalf("pong payload must echo ping verbatim")
	}
}

func equalBytes(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func readFullTest(c net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := c.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
