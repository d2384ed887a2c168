package ingest

import (
	"encoding/json"
	"fmt"
)

// Category tags the event streams the dispatcher routes.
type Category string

const (
	CatChatSet            Category = "chats.set"
	CatChatUpsert         Category = "chats.upsert"
	CatContactUpsert      Category = "contacts.upsert"
	CatGroupUpsert        Category = "groups.upsert"
	CatGroupUpdate        Category = "groups.update"
	CatParticipantsUpdate Category = "group-participants.update"
	CatPresenceUpdate     Category = "presence.update"
	CatMessages           Category = "messages.upsert"
)

// KnownCategory reports whether c is one of the routed event streams.
func KnownCategory(c Category) bool {
	switch c {
	case CatChatSet, CatChatUpsert, CatContactUpsert, CatGroupUpsert,
		CatGroupUpdate, CatParticipantsUpdate, CatPresenceUpdate, CatMessages:
		return true
	}
	return false
}

// ChatRecord is one chat entry from a chats.set / chats.upsert /
// contacts.upsert / groups.upsert payload. Producers populate different
// subsets of the fields depending on the stream.
type ChatRecord struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	Notify   string `json:"notify,omitempty"`
	Subject  string `json:"subject,omitempty"`
	ReadOnly bool   `json:"readOnly,omitempty"`
}

// GroupUpdate signals changed group state. Revoke and Icon carry the
// parameters of the synthetic updates derived from message stubs.
type GroupUpdate struct {
	ID      string `json:"id"`
	Subject string `json:"subject,omitempty"`
	Revoke  string `json:"revoke,omitempty"`
	Icon    string `json:"icon,omitempty"`
}

// ParticipantsUpdate signals a membership change in a group.
type ParticipantsUpdate struct {
	ID           string   `json:"id"`
	Participants []string `json:"participants,omitempty"`
	Action       string   `json:"action,omitempty"`
}

// PresenceState is the per-identity slice of a presence.update payload.
type PresenceState struct {
	LastKnownPresence string `json:"lastKnownPresence,omitempty"`
}

// PresenceUpdate carries presence states keyed by sending identity under
// an outer chat id.
type PresenceUpdate struct {
	ID        string                   `json:"id"`
	Presences map[string]PresenceState `json:"presences,omitempty"`
}

func decodeList[T any](payload []byte) ([]T, error) {
	var out []T
	if err := json.Unmarshal(payload, &out); err == nil {
		return out, nil
	}
	// single-object payloads are accepted for convenience
	var one T
	if err := json.Unmarshal(payload, &one); err != nil {
		return nil, fmt.Errorf("decode event payload: %w", err)
	}
	return []T{one}, nil
}
