package models

import "encoding/json"

// ConversationKind classifies a conversation by the party it addresses.
type ConversationKind string

const (
	KindDirect    ConversationKind = "direct"
	KindGroup     ConversationKind = "group"
	KindBroadcast ConversationKind = "broadcast"
)

// Conversation is the per-identity record aggregating chat and group state.
// Instances handed out by the store are snapshots; mutating them has no
// effect on stored state.
type Conversation struct {
	ID   string           `json:"id"`
	Kind ConversationKind `json:"kind"`
	// Name is the display name for direct conversations; Subject is the
	// group subject. Notify carries the push-name hint some events use.
	Name    string `json:"name,omitempty"`
	Notify  string `json:"notify,omitempty"`
	Subject string `json:"subject,omitempty"`
	// IsConversation marks records the user actually converses in, as
	// opposed to records created only to anchor metadata.
	IsConversation bool `json:"is_conversation"`
	// Presence is the last-known presence tag of this party.
	Presence string `json:"presence,omitempty"`
	// Metadata is the cached group metadata, nil when never fetched.
	Metadata *GroupMetadata `json:"metadata,omitempty"`
	// HistoryLen is the number of messages currently held for this
	// conversation. Populated on snapshots.
	HistoryLen int `json:"history_len"`
}

// DisplayName returns the best available display string for the record.
func (c *Conversation) DisplayName() string {
	if c.Kind == KindGroup {
		if c.Subject != "" {
			return c.Subject
		}
		if c.Metadata != nil {
			return c.Metadata.Subject
		}
		return ""
	}
	if c.Name != "" {
		return c.Name
	}
	return c.Notify
}

// GroupMetadata is the provider-owned group description cached on a
// conversation. Raw preserves the full provider payload untouched.
type GroupMetadata struct {
	ID           string             `json:"id"`
	Subject      string             `json:"subject,omitempty"`
	Participants []GroupParticipant `json:"participants,omitempty"`
	Raw          json.RawMessage    `json:"raw,omitempty"`
}

// GroupParticipant is one member entry in group metadata.
type GroupParticipant struct {
	ID    string `json:"id"`
	Admin string `json:"admin,omitempty"`
}

// Clone returns a deep copy of the metadata.
func (g *GroupMetadata) Clone() *GroupMetadata {
	if g == nil {
		return nil
	}
	out := &GroupMetadata{ID: g.ID, Subject: g.Subject}
	if len(g.Participants) > 0 {
		out.Participants = make([]GroupParticipant, len(g.Participants))
		copy(out.Participants, g.Participants)
	}
	if len(g.Raw) > 0 {
		out.Raw = make(json.RawMessage, len(g.Raw))
		copy(out.Raw, g.Raw)
	}
	return out
}
