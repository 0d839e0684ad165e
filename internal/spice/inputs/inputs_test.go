package inputs

import (
	"encoding/binary"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/sprice/spice-client/internal/spice/channel"
	"github.com/sprice/spice-client/internal/spice/link"
	"github.com/sprice/spice-client/internal/spice/wire"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// loopbackPair returns the two ends of a loopback TCP connection. Unlike
// net.Pipe, the kernel buffers writes, so a send made by the API under test
// completes before the test reads the frame.
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

func newTestInputs(t *testing.T) (*Inputs, net.Conn) {
	t.Helper()
	clientConn, serverConn := loopbackPair(t)
	t.Cleanup(func() { clientConn.Close() })

	mouse := &MouseState{}
	h := NewHandler(mouse)
	h.log = discardLogger()
	c := channel.NewForTest(clientConn, link.ChannelInputs, discardLogger(), h)
	c.ForceInitDone()
	return New(c, mouse, h), serverConn
}

func readFrame(t *testing.T, conn net.Conn) *wire.Frame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	f, err := wire.ReadFrame(conn)
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return f
}

func TestScancodeEncoding(t *testing.T) {
	cases := []struct {
		code   uint32
		keyUp  bool
		expect uint32
	}{
		{0x002A, false, 0x2A},
		{0x002A, true, 0xAA},
		{0x1D + 0x100, false, 0x1DE0},
		{0x1D + 0x100, true, 0x9DE0},
	}
	for _, tc := range cases {
		if got := encodeScancode(tc.code, tc.keyUp); got != tc.expect {
			t.Errorf("encodeScancode(0x%X, up=%v) = 0x%X, want 0x%X", tc.code, tc.keyUp, got, tc.expect)
		}
	}
}

func TestKeyDownUpEmitsFramedPacket(t *testing.T) {
	in, server := newTestInputs(t)
	defer server.Close()

	if err := in.KeyDown(0x002A); err != nil {
		t.Fatalf("KeyDown: %v", err)
	}
	f := readFrame(t, server)
	if f.Header.Type != MsgcKeyDown {
		t.Fatalf("type = %v, want MsgcKeyDown", f.Header.Type)
	}
	got := binary.LittleEndian.Uint32(f.Payload)
	if got != 0x2A {
		t.Fatalf("code = 0x%X, want 0x2A", got)
	}

	if err := in.KeyUp(0x002A); err != nil {
		t.Fatalf("KeyUp: %v", err)
	}
	f = readFrame(t, server)
	got = binary.LittleEndian.Uint32(f.Payload)
	if got != 0xAA {
		t.Fatalf("code = 0x%X, want 0xAA", got)
	}
}

func TestMouseMotionSplitsAndBatches(t *testing.T) {
	in, server := newTestInputs(t)
	defer server.Close()

	if err := in.MouseMotion(300, -40); err != nil {
		t.Fatalf("MouseMotion: %v", err)
	}

	wantDeltas := []motionDelta{{127, -40}, {127, 0}, {46, 0}}
	for i, want := range wantDeltas {
		f := readFrame(t, server)
		if f.Header.Type != MsgcMouseMotion {
			t.Fatalf("submessage %d: type = %v, want MsgcMouseMotion", i, f.Header.Type)
		}
		gotDX := int32(binary.LittleEndian.Uint32(f.Payload[0:4]))
		gotDY := int32(binary.LittleEndian.Uint32(f.Payload[4:8]))
		if gotDX != want.dx || gotDY != want.dy {
			t.Fatalf("submessage %d: got (%d,%d), want (%d,%d)", i, gotDX, gotDY, want.dx, want.dy)
		}
	}

	if got := in.Mouse().SentCount(); got != 3 {
		t.Fatalf("sent-count = %d, want 3", got)
	}
}

func TestMouseMotionSingleSubmessage(t *testing.T) {
	in, server := newTestInputs(t)
	defer server.Close()

	if err := in.MouseMotion(10, -5); err != nil {
		t.Fatalf("MouseMotion: %v", err)
	}
	f := readFrame(t, server)
	gotDX := int32(binary.LittleEndian.Uint32(f.Payload[0:4]))
	gotDY := int32(binary.LittleEndian.Uint32(f.Payload[4:8]))
	if gotDX != 10 || gotDY != -5 {
		t.Fatalf("got (%d,%d), want (10,-5)", gotDX, gotDY)
	}
	if got := in.Mouse().SentCount(); got != 1 {
		t.Fatalf("sent-count = %d, want 1", got)
	}
}

func TestMousePressReleaseTracksButtonState(t *testing.T) {
	in, server := newTestInputs(t)
	defer server.Close()

	if err := in.MousePress(ButtonLeft); err != nil {
		t.Fatalf("MousePress: %v", err)
	}
	f := readFrame(t, server)
	state := binary.LittleEndian.Uint32(f.Payload[4:8])
	if state != ButtonLeft {
		t.Fatalf("button-state = %d, want %d", state, ButtonLeft)
	}

	if err := in.MousePress(ButtonRight); err != nil {
		t.Fatalf("MousePress: %v", err)
	}
	f = readFrame(t, server)
	state = binary.LittleEndian.Uint32(f.Payload[4:8])
	if state != ButtonLeft|ButtonRight {
		t.Fatalf("button-state = %d, want %d", state, ButtonLeft|ButtonRight)
	}

	if err := in.MouseRelease(ButtonLeft); err != nil {
		t.Fatalf("MouseRelease: %v", err)
	}
	f = readFrame(t, server)
	state = binary.LittleEndian.Uint32(f.Payload[4:8])
	if state != ButtonRight {
		t.Fatalf("button-state = %d, want %d", state, ButtonRight)
	}
}

func TestMouseMotionAckDecrementsSentCount(t *testing.T) {
	in, server := newTestInputs(t)
	defer server.Close()

	in.Mouse().addSent(MotionAckBunch * 2)

	go func() {
		server.Write(wire.Encode(MsgMouseMotionAck, nil))
	}()

	c := in.ch
	if res := c.DrainOnce(); res != channel.ResultOK {
		t.Fatalf("DrainOnce = %v, want OK", res)
	}
	if got := in.Mouse().SentCount(); got != MotionAckBunch {
		t.Fatalf("sent-count = %d, want %d", got, MotionAckBunch)
	}
}

func TestMouseMotionAckBelowZeroIsProtocolError(t *testing.T) {
	in, server := newTestInputs(t)
	defer server.Close()

	go func() {
		server.Write(wire.Encode(MsgMouseMotionAck, nil))
	}()

	c := in.ch
	if res := c.DrainOnce(); res != channel.ResultError {
		t.Fatalf("DrainOnce = %v, want ERROR (sent-count would go negative)", res)
	}
}

func TestInputsInitAndKeyModifiers(t *testing.T) {
	h := NewHandler(&MouseState{})
	h.log = discardLogger()
	var got uint16
	h.OnModifiers = func(mods uint16) { got = mods }

	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()
	c := channel.NewForTest(clientConn, link.ChannelInputs, discardLogger(), h)

	go func() {
		payload := make([]byte, 2)
		binary.LittleEndian.PutUint16(payload, 0x05)
		serverConn.Write(wire.Encode(MsgInit, payload))
	}()
	if res := c.DrainOnce(); res != channel.ResultHandled {
		t.Fatalf("first message: got %v want HANDLED", res)
	}
	if got != 0x05 {
		t.Fatalf("modifiers = 0x%X, want 0x05", got)
	}
	if h.Modifiers() != 0x05 {
		t.Fatalf("Handler.Modifiers() = 0x%X, want 0x05", h.Modifiers())
	}
}
