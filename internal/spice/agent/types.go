// Package agent implements the agent tunnel sub-protocol of §4.8: a
// token-bucket flow-controlled outbound send queue that fragments logical
// messages into bounded sub-packets, and stateful reassembly of inbound
// clipboard payloads. It is carried over the main channel's agent-data
// messages rather than owning a socket of its own. It follows a
// bounded-queue/backpressure shape, generalized to SPICE's credit-based
// fragment release.
package agent

import "github.com/sprice/spice-client/internal/spice/wire"

// ProtocolVersion is the only agent sub-protocol version this client speaks
// (§4.8: "If protocol != 1 the connection fails").
const ProtocolVersion uint32 = 1

// MaxFragment is the protocol's maximum agent-data payload size per wire
// packet (§4.8: "each main-agent-data payload is bounded").
const MaxFragment = 2048

// MaxAnnounceBytes bounds capability-announcement and clipboard-grab type
// lists (§4.8, §7: "a guard against absurd stack allocations").
const MaxAnnounceBytes = 1024

// HeaderSize is the encoded size of Header: protocol(4) + type(4) +
// opaque(8) + size(4).
const HeaderSize = 20

// MsgType identifies an agent sub-protocol message (§4.8).
type MsgType uint32

const (
	MsgAnnounceCapabilities MsgType = 1
	MsgClipboardGrab        MsgType = 2
	MsgClipboardRequest     MsgType = 3
	MsgClipboard            MsgType = 4
	MsgClipboardRelease     MsgType = 5
)

// Header is the fixed-layout record that begins every logical agent
// message (§4.8).
type Header struct {
	Protocol uint32
	Type     MsgType
	Opaque   uint64
	Size     uint32
}

// Capability bits for announce-capabilities (§4.8: cbSupported, cbSelection).
const (
	CapClipboard          uint32 = 1 << 0
	CapClipboardSelection uint32 = 1 << 1
)

// RequestFlag marks an announce-capabilities message as a request for the
// peer's own capabilities in response (§4.8 scenario 5).
const RequestFlag uint32 = 1

// ClipboardType is the wire-level agent clipboard data type code.
type ClipboardType uint32

const (
	ClipboardNone     ClipboardType = 0
	ClipboardUTF8Text ClipboardType = 1
	ClipboardPNG      ClipboardType = 2
	ClipboardBMP      ClipboardType = 3
	ClipboardTIFF     ClipboardType = 4
	ClipboardJPG      ClipboardType = 5
)

// UserType is the user-facing clipboard tag of §4.8's round-trip table.
type UserType string

const (
	UserText    UserType = "text"
	UserPNG     UserType = "png"
	UserBMP     UserType = "bmp"
	UserTIFF    UserType = "tiff"
	UserJPEG    UserType = "jpeg"
	UserInvalid UserType = "invalid"
)

// UserToAgent maps a user-facing clipboard tag to its wire type code,
// yielding ClipboardNone for anything not in the five named tags (§4.8).
func UserToAgent(u UserType) ClipboardType {
	switch u {
	case UserText:
		return ClipboardUTF8Text
	case UserPNG:
		return ClipboardPNG
	case UserBMP:
		return ClipboardBMP
	case UserTIFF:
		return ClipboardTIFF
	case UserJPEG:
		return ClipboardJPG
	default:
		return ClipboardNone
	}
}

// AgentToUser is the inverse of UserToAgent, yielding UserInvalid for any
// code outside the five named tags (§4.8).
func AgentToUser(a ClipboardType) UserType {
	switch a {
	case ClipboardUTF8Text:
		return UserText
	case ClipboardPNG:
		return UserPNG
	case ClipboardBMP:
		return UserBMP
	case ClipboardTIFF:
		return UserTIFF
	case ClipboardJPG:
		return UserJPEG
	default:
		return UserInvalid
	}
}

// ChannelSender is the minimal capability the tunnel needs from the main
// channel: a send mutex it can hold across token acquisition and a write
// (§4.8 "drain ... is atomic with respect to token acquisition"), and a
// locked-send primitive. *channel.Channel satisfies this without agent
// importing the channel package's full surface or creating an import
// cycle back from channel to agent.
type ChannelSender interface {
	Lock()
	Unlock()
	SendLocked(msgType wire.MsgType, payload []byte) error
}
