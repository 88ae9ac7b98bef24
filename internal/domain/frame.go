package domain

// FrameOp is the header op code of an event-stream message.
type FrameOp int

const (
	// OpMessage marks a regular message frame.
	OpMessage FrameOp = 1

	// OpError marks an error frame sent by the relay before it closes.
	OpError FrameOp = -1
)

// MessageType is the closed set of message discriminators the pipeline
// knows about. Anything else decodes to MessageUnknown.
type MessageType int

const (
	MessageUnknown MessageType = iota
	MessageCommit
	MessageSync
	MessageIdentity
	MessageAccount
	MessageHandle
	MessageMigrate
	MessageTombstone
	MessageInfo
)

var messageTypeTags = map[string]MessageType{
	"#commit":    MessageCommit,
	"#sync":      MessageSync,
	"#identity":  MessageIdentity,
	"#account":   MessageAccount,
	"#handle":    MessageHandle,
	"#migrate":   MessageMigrate,
	"#tombstone": MessageTombstone,
	"#info":      MessageInfo,
}

// ParseMessageType maps a wire discriminator such as "#commit" to its
// MessageType. Unrecognized or empty tags map to MessageUnknown.
func ParseMessageType(tag string) MessageType {
	if t, ok := messageTypeTags[tag]; ok {
		return t
	}
	return MessageUnknown
}

// String returns a human-readable representation of the message type.
func (t MessageType) String() string {
	switch t {
	case MessageCommit:
		return "commit"
	case MessageSync:
		return "sync"
	case MessageIdentity:
		return "identity"
	case MessageAccount:
		return "account"
	case MessageHandle:
		return "handle"
	case MessageMigrate:
		return "migrate"
	case MessageTombstone:
		return "tombstone"
	case MessageInfo:
		return "info"
	default:
		return "unknown"
	}
}

// Frame is one decoded transport message.
// Body is left encoded; only commit frames pay for decoding it.
type Frame struct {
	// Type is the decoded discriminator.
	Type MessageType

	// Tag is the raw discriminator as sent on the wire (may be empty).
	Tag string

	// Body holds the undecoded bytes following the header.
	Body []byte
}
