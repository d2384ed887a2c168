package models

import "encoding/json"

// MessageKind is the closed set of canonical message categories.
type MessageKind string

const (
	MessageText     MessageKind = "text"
	MessageImage    MessageKind = "image"
	MessageVideo    MessageKind = "video"
	MessageAudio    MessageKind = "audio"
	MessageSticker  MessageKind = "sticker"
	MessageDocument MessageKind = "document"
	MessageContact  MessageKind = "contact"
	MessageLocation MessageKind = "location"
	MessagePoll     MessageKind = "poll"
	MessageProtocol MessageKind = "protocol"
	MessageStub     MessageKind = "stub"
)

// KindForContentKey maps a resolved content discriminator key onto the
// canonical closed set. Unknown content keys carry user-visible payloads
// often enough that they default to text.
func KindForContentKey(key string) MessageKind {
	switch key {
	case "conversation", "extendedTextMessage":
		return MessageText
	case "imageMessage":
		return MessageImage
	case "videoMessage":
		return MessageVideo
	case "audioMessage":
		return MessageAudio
	case "stickerMessage":
		return MessageSticker
	case "documentMessage":
		return MessageDocument
	case "contactMessage", "contactsArrayMessage":
		return MessageContact
	case "locationMessage", "liveLocationMessage":
		return MessageLocation
	case "pollCreationMessage", "pollUpdateMessage":
		return MessagePoll
	case KeyProtocol, KeySenderKeyDistribution, KeyContextInfo:
		return MessageProtocol
	case "":
		return MessageStub
	default:
		return MessageText
	}
}

// Message is a normalized inbound message as persisted into conversation
// history.
type Message struct {
	ID     string `json:"id"`
	Chat   string `json:"chat"`
	Sender string `json:"sender"`
	// FromMe is always derived by identity comparison, never taken from
	// the transport verbatim.
	FromMe bool `json:"from_me"`
	// Type is the resolved content discriminator key (e.g.
	// "extendedTextMessage"); Kind is its canonical category.
	Type string      `json:"type"`
	Kind MessageKind `json:"kind"`
	Text string      `json:"text"`
	// Mentions holds canonical identities mentioned by the message.
	Mentions []string         `json:"mentions,omitempty"`
	Quoted   *QuotedReference `json:"quoted,omitempty"`
	PushName string           `json:"push_name,omitempty"`
	// Stub is the stub kind for transport notifications, empty otherwise.
	Stub string `json:"stub,omitempty"`
	// ProtocolKey is the corrected embedded key reference carried by
	// control payloads.
	ProtocolKey *MessageKey `json:"protocol_key,omitempty"`
	Timestamp   int64       `json:"ts,omitempty"`
	// Raw is the untouched content body of the envelope.
	Raw json.RawMessage `json:"raw,omitempty"`
}

// QuotedReference is a lightweight pointer-plus-snapshot of the message
// another message replies to. Ephemeral references are synthesized from
// the reply context when the original was never cached.
type QuotedReference struct {
	ID        string          `json:"id"`
	Chat      string          `json:"chat"`
	Sender    string          `json:"sender"`
	FromMe    bool            `json:"from_me"`
	Type      string          `json:"type"`
	Text      string          `json:"text"`
	Mentions  []string        `json:"mentions,omitempty"`
	Ephemeral bool            `json:"ephemeral,omitempty"`
	Raw       json.RawMessage `json:"raw,omitempty"`
}
