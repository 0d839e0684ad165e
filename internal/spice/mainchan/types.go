// Package mainchan implements the main session channel (§4.5): main-init
// handling, attach-channels, the channels-list-driven sub-channel connects,
// and the agent lifecycle messages tunneled over it. Dispatch uses exported
// On* handler fields and a switch on the decoded mini-header message type.
package mainchan

import "github.com/sprice/spice-client/internal/spice/wire"

// Server-to-client message types on the main channel (§4.5). The numeric
// space is internally consistent (see DESIGN.md for how the values were
// chosen).
const (
	MsgInit                wire.MsgType = 101
	MsgChannelsList         wire.MsgType = 102
	MsgAgentConnected       wire.MsgType = 103
	MsgAgentConnectedTokens wire.MsgType = 104
	MsgAgentDisconnected    wire.MsgType = 105
	MsgAgentData            wire.MsgType = 106
	MsgAgentToken           wire.MsgType = 107
)

// Client-to-server message types on the main channel.
const (
	MsgcAttachChannels   wire.MsgType = 101
	MsgcMouseModeRequest wire.MsgType = 102
)

// MouseMode identifies which side renders the cursor.
type MouseMode uint32

const (
	MouseModeServer MouseMode = 1
	MouseModeClient MouseMode = 2
)

// ChannelListEntry is one entry of a channels-list message: a channel type
// (§4.3 link.ChannelType) plus its channel id.
type ChannelListEntry struct {
	ChannelType uint8
	ChannelID   uint8
}
