package link

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"time"

	protoerr "github.com/sprice/spice-client/internal/errors"
	"github.com/sprice/spice-client/internal/logger"
)

const (
	linkReadTimeout  = 5 * time.Second
	linkWriteTimeout = 5 * time.Second
)

// Result carries the server's advertised capability words once link
// negotiation succeeds. Negotiate itself rejects a server that does not
// advertise mini-header support; channel.Connect does not use the Result.
type Result struct {
	CommonCaps  []uint32
	ChannelCaps []uint32
}

// Negotiate performs the full link handshake of §4.3 over conn: link
// header/message, reading the server's reply and public key, selecting
// auth-spice, encrypting the password, and validating the final status.
// sessionID is zero for the first (main) channel and the value the main
// channel later learns from main-init for every subsequent channel.
func Negotiate(conn net.Conn, password string, sessionID uint32, channelType ChannelType, channelID uint8) (Result, error) {
	log := logger.Logger().With("phase", "link", "channel_type", channelType)

	commonCaps, channelCaps := ClientCaps(channelType)
	msg := Message{
		SessionID:   sessionID,
		ChannelType: channelType,
		ChannelID:   channelID,
		CommonCaps:  commonCaps,
		ChannelCaps: channelCaps,
	}
	msgBody := EncodeMessage(msg)
	hdr := Header{Magic: Magic, MajorVersion: MajorVersion, MinorVersion: MinorVersion, Size: uint32(len(msgBody))}

	if err := conn.SetWriteDeadline(time.Now().Add(linkWriteTimeout)); err != nil {
		return Result{}, protoerr.NewLinkError("set write deadline", err)
	}
	if err := writeFull(conn, EncodeHeader(hdr)); err != nil {
		return Result{}, protoerr.NewLinkError("write link header", err)
	}
	if err := writeFull(conn, msgBody); err != nil {
		return Result{}, protoerr.NewLinkError("write link message", err)
	}

	if err := conn.SetReadDeadline(time.Now().Add(linkReadTimeout)); err != nil {
		return Result{}, protoerr.NewLinkError("set read deadline", err)
	}
	replyHdr, err := ReadHeader(conn)
	if err != nil {
		return Result{}, err
	}
	reply, err := ReadReply(conn, replyHdr.Size)
	if err != nil {
		return Result{}, err
	}
	if reply.Error != 0 {
		return Result{}, protoerr.NewLinkError("link reply", fmt.Errorf("server status %d", reply.Error))
	}
	if !MiniHeaderNegotiated(reply.CommonCaps) {
		return Result{}, protoerr.NewLinkError("link reply", fmt.Errorf("server did not advertise mini-header support"))
	}
	log.Debug("link reply received", "common_caps", reply.CommonCaps, "channel_caps", reply.ChannelCaps)

	if err := conn.SetWriteDeadline(time.Now().Add(linkWriteTimeout)); err != nil {
		return Result{}, protoerr.NewLinkError("set write deadline", err)
	}
	var authSel [4]byte
	binary.LittleEndian.PutUint32(authSel[:], uint32(AuthSpice))
	if err := writeFull(conn, authSel[:]); err != nil {
		return Result{}, protoerr.NewLinkError("write auth selection", err)
	}

	ciphertext, err := encryptPassword(reply.PubKey[:], password)
	if err != nil {
		return Result{}, err
	}
	if err := writeFull(conn, ciphertext); err != nil {
		return Result{}, protoerr.NewLinkError("write encrypted password", err)
	}

	if err := conn.SetReadDeadline(time.Now().Add(linkReadTimeout)); err != nil {
		return Result{}, protoerr.NewLinkError("set read deadline", err)
	}
	var statusBuf [4]byte
	if _, err := io.ReadFull(conn, statusBuf[:]); err != nil {
		return Result{}, protoerr.NewLinkError("read final link status", err)
	}
	status := LinkStatus(binary.LittleEndian.Uint32(statusBuf[:]))
	if status != LinkStatusOK {
		return Result{}, protoerr.NewLinkError("final link status", fmt.Errorf("status=%d", status))
	}

	if err := conn.SetReadDeadline(time.Time{}); err != nil {
		log.Warn("failed to clear read deadline", "error", err)
	}
	if err := conn.SetWriteDeadline(time.Time{}); err != nil {
		log.Warn("failed to clear write deadline", "error", err)
	}

	log.Info("link negotiation complete")
	return Result{CommonCaps: reply.CommonCaps, ChannelCaps: reply.ChannelCaps}, nil
}

func writeFull(w io.Writer, buf []byte) error {
	n, err := w.Write(buf)
	if err != nil {
		return err
	}
	if n != len(buf) {
		return fmt.Errorf("short write: %d of %d bytes", n, len(buf))
	}
	return nil
}
