package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Content discriminator keys with special handling during normalization.
const (
	// KeyContextInfo is the context-info wrapper key whose position in
	// the content object is inconsistent across producers.
	KeyContextInfo = "messageContextInfo"
	// KeySenderKeyDistribution marks sender-key-distribution payloads.
	KeySenderKeyDistribution = "senderKeyDistributionMessage"
	// KeyProtocol marks protocol/control payloads.
	KeyProtocol = "protocolMessage"
	// KeyConversation is the plain-text payload carried as a bare JSON
	// string rather than an object.
	KeyConversation = "conversation"
	// KeyExtendedText is the object form of a text payload.
	KeyExtendedText = "extendedTextMessage"
)

// Stub kinds recognized by the ingestion pipeline. Anything else is logged
// and ignored.
const (
	StubCiphertext       = "ciphertext"
	StubRevoke           = "revoke"
	StubRevokeInviteLink = "revoke-invite-link"
	StubIconChange       = "icon-change"
)

// MessageKey is the transport-level addressing tuple of an envelope.
type MessageKey struct {
	RemoteJID   string `json:"remoteJid"`
	FromMe      bool   `json:"fromMe"`
	ID          string `json:"id"`
	Participant string `json:"participant,omitempty"`
}

// Envelope is a raw inbound message envelope. The content body is owned by
// the transport and treated as opaque except for the discriminator keys
// and the per-section fields the normalizer reads.
type Envelope struct {
	Key            MessageKey      `json:"key"`
	Content        json.RawMessage `json:"message,omitempty"`
	Participant    string          `json:"participant,omitempty"`
	PushName       string          `json:"pushName,omitempty"`
	StubType       string          `json:"messageStubType,omitempty"`
	StubParameters []string        `json:"messageStubParameters,omitempty"`
	Timestamp      int64           `json:"messageTimestamp,omitempty"`
}

// ContextInfo is the reply/mention context embedded in a content section.
type ContextInfo struct {
	StanzaID      string          `json:"stanzaId,omitempty"`
	Participant   string          `json:"participant,omitempty"`
	RemoteJID     string          `json:"remoteJid,omitempty"`
	MentionedJID  []string        `json:"mentionedJid,omitempty"`
	QuotedMessage json.RawMessage `json:"quotedMessage,omitempty"`
}

// HydratedTemplate is the nested template body some producers wrap button
// replies in.
type HydratedTemplate struct {
	HydratedContentText string `json:"hydratedContentText,omitempty"`
}

// Section is the decoded view of one content section. Only the fields the
// normalizer needs are materialized; bare-string sections ("conversation")
// decode into Text.
type Section struct {
	Text                string            `json:"text,omitempty"`
	Caption             string            `json:"caption,omitempty"`
	ContentText         string            `json:"contentText,omitempty"`
	SelectedDisplayText string            `json:"selectedDisplayText,omitempty"`
	HydratedTemplate    *HydratedTemplate `json:"hydratedTemplate,omitempty"`
	ContextInfo         *ContextInfo      `json:"contextInfo,omitempty"`
	// Key is the embedded key reference control payloads carry.
	Key *MessageKey `json:"key,omitempty"`
	// GroupID is set on sender-key-distribution payloads.
	GroupID string `json:"groupId,omitempty"`
	// URL/DirectPath indicate downloadable media content.
	URL        string `json:"url,omitempty"`
	DirectPath string `json:"directPath,omitempty"`
}

// ContentKeys returns the top-level discriminator keys of the content body
// in document order. A nil/invalid body yields no keys.
func (e *Envelope) ContentKeys() []string {
	return TopLevelKeys(e.Content)
}

// Section decodes the content section stored under key. The second return
// is false when the key is absent or the body is not an object.
func (e *Envelope) Section(key string) (Section, bool) {
	raw, ok := rawSection(e.Content, key)
	if !ok {
		return Section{}, false
	}
	return DecodeSection(raw)
}

// RawSection returns the undecoded value stored under key.
func (e *Envelope) RawSection(key string) (json.RawMessage, bool) {
	return rawSection(e.Content, key)
}

// DecodeSection decodes a single content section. Bare JSON strings (the
// "conversation" shape) become Section{Text: s}; objects decode field-wise
// with unknown fields ignored.
func DecodeSection(raw json.RawMessage) (Section, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return Section{}, false
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return Section{}, false
		}
		return Section{Text: s}, true
	}
	var sec Section
	if err := json.Unmarshal(trimmed, &sec); err != nil {
		return Section{}, false
	}
	return sec, true
}

// TopLevelKeys extracts the top-level object keys of a JSON document in
// document order. Non-object documents yield no keys.
func TopLevelKeys(raw json.RawMessage) []string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	tok, err := dec.Token()
	if err != nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil
	}
	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return keys
		}
		k, ok := tok.(string)
		if !ok {
			return keys
		}
		keys = append(keys, k)
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return keys
		}
	}
	return keys
}

func rawSection(content json.RawMessage, key string) (json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(content)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, false
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &m); err != nil {
		return nil, false
	}
	raw, ok := m[key]
	return raw, ok
}

// Validate applies boundary checks before an envelope enters the pipeline.
func (e *Envelope) Validate() error {
	if e.Key.ID == "" && e.StubType == "" {
		return fmt.Errorf("envelope has neither a message id nor a stub type")
	}
	return nil
}
