// Package link implements SPICE link negotiation (§4.3): the magic/version
// header, the common + channel capability exchange, and RSA-OAEP
// password authentication against the server-supplied public key.
// Negotiate runs the whole exchange in one function, setting a read or write
// deadline before each step and wrapping failures in *errors.LinkError.
package link

// Magic is the 4-byte link header magic, "REDQ" per §4.3.
var Magic = [4]byte{'R', 'E', 'D', 'Q'}

// Protocol version advertised by the client.
const (
	MajorVersion uint32 = 2
	MinorVersion uint32 = 2
)

// ChannelType identifies which logical channel a link message is for.
type ChannelType uint8

const (
	ChannelMain     ChannelType = 1
	ChannelInputs   ChannelType = 3
	ChannelPlayback ChannelType = 5
)

// PubKeyBytes is the fixed DER length of the server's RSA ticket public key
// (a 1024-bit RSA SubjectPublicKeyInfo), per §4.3/§6.
const PubKeyBytes = 162

// Common capability bits advertised by the client, per §4.3.
const (
	CommonCapProtocolAuthSelection uint32 = 1 << 0
	CommonCapAuthSpice             uint32 = 1 << 1
	CommonCapMiniHeader            uint32 = 1 << 4
)

// Main-channel-specific capability bits.
const (
	MainCapAgentConnectedTokens uint32 = 1 << 0
)

// Playback-channel-specific capability bits.
const (
	PlaybackCapVolume uint32 = 1 << 0
)

// AuthMechanism selects the password authentication method; SPICE_COMMON_CAP_AUTH_SPICE
// is the only mechanism this client implements (§4.3).
type AuthMechanism uint32

const (
	AuthSpice AuthMechanism = 1
)

// LinkStatus is the four-byte final status the server returns after
// receiving the encrypted password (§4.3).
type LinkStatus uint32

const (
	LinkStatusOK               LinkStatus = 0
	LinkStatusError            LinkStatus = 1
	LinkStatusInvalidMagic     LinkStatus = 2
	LinkStatusInvalidData      LinkStatus = 3
	LinkStatusVersionMismatch  LinkStatus = 4
	LinkStatusNeedSecured      LinkStatus = 5
	LinkStatusPermissionDenied LinkStatus = 6
)

// Header is the fixed 16-byte link header that precedes every link message.
type Header struct {
	Magic        [4]byte
	MajorVersion uint32
	MinorVersion uint32
	Size         uint32 // bytes that follow this header
}

// HeaderSize is the encoded size of Header.
const HeaderSize = 16

// Message is the client's outbound link message: session id (0 for the
// first/main channel; server-assigned thereafter), channel identity, and
// advertised capability words (§4.3).
type Message struct {
	SessionID   uint32
	ChannelType ChannelType
	ChannelID   uint8
	CommonCaps  []uint32
	ChannelCaps []uint32
}

// Reply is the server's response to a link Message: status, its own
// capability words, and the DER-encoded RSA ticket public key (§4.3).
type Reply struct {
	Error       uint32
	CommonCaps  []uint32
	ChannelCaps []uint32
	PubKey      [PubKeyBytes]byte
}

// ClientCaps returns the capability set this client advertises for the
// given channel type (§4.3: common caps always include auth-selection,
// auth-spice, mini-header; main adds agent-connected-tokens; playback
// adds volume).
func ClientCaps(ct ChannelType) (common, channel []uint32) {
	common = []uint32{CommonCapProtocolAuthSelection | CommonCapAuthSpice | CommonCapMiniHeader}
	switch ct {
	case ChannelMain:
		channel = []uint32{MainCapAgentConnectedTokens}
	case ChannelPlayback:
		channel = []uint32{PlaybackCapVolume}
	default:
		channel = []uint32{0}
	}
	return common, channel
}

// HasCap reports whether bit is set in any word of caps.
func HasCap(caps []uint32, bit uint32) bool {
	for _, w := range caps {
		if w&bit != 0 {
			return true
		}
	}
	return false
}

// MiniHeaderNegotiated returns whether the server advertised mini-header
// support, which the client requires (§4.1: "client advertises ... so the
// server uses this short form").
func MiniHeaderNegotiated(serverCommonCaps []uint32) bool {
	return HasCap(serverCommonCaps, CommonCapMiniHeader)
}
