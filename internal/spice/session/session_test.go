package session

import (
	"context"
	"io"
	"log/slog"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/sprice/spice-client/internal/spice/agent"
	"github.com/sprice/spice-client/internal/spice/channel"
	"github.com/sprice/spice-client/internal/spice/link"
	"github.com/sprice/spice-client/internal/spice/mainchan"
	"github.com/sprice/spice-client/internal/spice/wire"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// loopbackPair returns the two ends of a loopback TCP connection. Unlike
// net.Pipe, the kernel buffers writes, so agent packets the session sends
// complete even when the test never reads them.
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

// newTestSession builds a Session around an in-process main channel (one
// end of a loopback TCP connection), bypassing Connect/link negotiation
// entirely, the way mainchan's own dispatch tests do.
func newTestSession(t *testing.T) (*Session, net.Conn) {
	t.Helper()
	clientConn, serverConn := loopbackPair(t)
	t.Cleanup(func() { clientConn.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		ctx:    ctx,
		cancel: cancel,
		events: make(chan channelEvent, 64),
		log:    discardLogger(),
	}
	s.mainHandler = mainchan.NewHandler()
	s.mainHandler.OnInit = s.onMainInit
	s.mainHandler.OnChannelsList = s.onChannelsList
	s.mainHandler.OnAgentConnected = s.onAgentConnected
	s.mainHandler.OnAgentDisconnected = s.onAgentDisconnected
	s.mainHandler.OnAgentData = s.onAgentData
	s.mainHandler.OnAgentToken = s.onAgentToken

	s.main = channel.NewForTest(clientConn, link.ChannelMain, discardLogger(), s.mainHandler)
	s.main.ForceInitDone()
	s.tunnel = agent.NewTunnel(s.main, mainchan.MsgAgentData)

	s.runChannelLoop(link.ChannelMain, s.main)
	return s, serverConn
}

func TestSessionTeardownOnMainChannelLoss(t *testing.T) {
	s, server := newTestSession(t)
	server.Close()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if !s.Process(50 * time.Millisecond) {
			break
		}
	}
	if s.Ready() {
		t.Fatalf("session should not be ready after main channel loss")
	}
	if s.SessionID() != 0 {
		t.Fatalf("session id should reset to 0 on teardown")
	}
}

func TestSessionProcessBatchesEvents(t *testing.T) {
	s, server := newTestSession(t)
	defer server.Close()

	var mu sync.Mutex
	var gotTokens []uint32
	s.mainHandler.OnAgentToken = func(tokens uint32) {
		mu.Lock()
		gotTokens = append(gotTokens, tokens)
		mu.Unlock()
	}

	const n = 6
	go func() {
		for i := uint32(1); i <= n; i++ {
			w := wire.NewFieldWriter(4)
			w.PutU32(i)
			server.Write(wire.Encode(mainchan.MsgAgentToken, w.Bytes()))
		}
	}()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		got := len(gotTokens)
		mu.Unlock()
		if got >= n {
			break
		}
		s.Process(100 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(gotTokens) != n {
		t.Fatalf("got %d token events, want %d", len(gotTokens), n)
	}
}

func TestMouseModeSendsRequest(t *testing.T) {
	s, server := newTestSession(t)
	defer server.Close()

	done := make(chan wire.Header, 1)
	go func() {
		server.SetReadDeadline(time.Now().Add(2 * time.Second))
		hdr, err := wire.ReadHeader(server)
		if err != nil {
			return
		}
		if hdr.Size > 0 {
			buf := make([]byte, hdr.Size)
			io.ReadFull(server, buf)
		}
		done <- hdr
	}()

	if err := s.MouseMode(true); err != nil {
		t.Fatalf("MouseMode: %v", err)
	}

	select {
	case hdr := <-done:
		if hdr.Type != mainchan.MsgcMouseModeRequest {
			t.Fatalf("type = %d, want MsgcMouseModeRequest", hdr.Type)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for mouse-mode-request")
	}
}

func TestClipboardAPIGatedOnAgentConnection(t *testing.T) {
	s, server := newTestSession(t)
	defer server.Close()

	if err := s.ClipboardGrab([]agent.ClipboardType{agent.ClipboardUTF8Text}); err == nil {
		t.Fatal("expected error: agent not connected")
	}
	if err := s.ClipboardRelease(); err == nil {
		t.Fatal("expected error: agent not connected")
	}
	if err := s.ClipboardRequest(agent.ClipboardPNG); err == nil {
		t.Fatal("expected error: agent not connected")
	}

	s.onAgentConnected(10, true)
	if err := s.ClipboardGrab([]agent.ClipboardType{agent.ClipboardUTF8Text}); err != nil {
		t.Fatalf("ClipboardGrab after agent connect: %v", err)
	}
}

func TestInputsAPIUnavailableBeforeChannelConnects(t *testing.T) {
	s, server := newTestSession(t)
	defer server.Close()

	if err := s.KeyDown(0x1E); err == nil {
		t.Fatal("expected error: inputs channel not connected")
	}
	if s.Ready() {
		t.Fatal("session should not be ready without an inputs channel")
	}
}

func TestChannelsListRejectsDuplicateConnect(t *testing.T) {
	s, server := newTestSession(t)
	defer server.Close()

	fakeInputsConn, fakeServerConn := net.Pipe()
	defer fakeInputsConn.Close()
	defer fakeServerConn.Close()
	s.inputsCh = channel.NewForTest(fakeInputsConn, link.ChannelInputs, discardLogger(), nil)

	err := s.onChannelsList([]mainchan.ChannelListEntry{{ChannelType: uint8(link.ChannelInputs), ChannelID: 0}})
	if err == nil {
		t.Fatal("expected protocol error for already-connected inputs channel")
	}
}
