// Package normalize turns raw transport envelopes into canonical messages.
// It resolves the ambiguous content discriminator, derives user-visible
// text and mentions, recomputes sender/fromMe from canonical identities,
// and applies the broadcast-status and embedded-key corrections control
// payloads need. Normalization has no persistence side effect; writing to
// the store is a separate step.
package normalize

import (
	"fmt"

	"chatstore/pkg/jid"
	"chatstore/pkg/models"
	"chatstore/pkg/store"
)

// Normalizer carries the identities and store access normalization needs.
// Own is the canonical identity of the local account, fixed for the
// lifetime of a session.
type Normalizer struct {
	Own   string
	Store *store.Store
}

// New builds a Normalizer for the given own identity.
func New(own string, st *store.Store) *Normalizer {
	return &Normalizer{Own: jid.Decode(own), Store: st}
}

// forcedEmptyText lists content keys that never carry user text even when
// a raw text field is present.
func forcedEmptyText(contentKey string) bool {
	switch contentKey {
	case models.KeyProtocol, models.KeyContextInfo, models.KeySenderKeyDistribution,
		"stickerMessage", "audioMessage", "":
		return true
	}
	return false
}

// ContentType resolves the content discriminator key from the envelope's
// top-level keys. The wrapper key ("messageContextInfo") and the
// sender-key-distribution marker are skipped when any other key exists;
// with no other key, three or more keys whose second is not the wrapper
// select the second, everything else selects the last. The wrapper key's
// position is inconsistent across producers, which is why the fallback
// cannot simply take the first key.
func ContentType(keys []string) string {
	for _, k := range keys {
		if k != models.KeyContextInfo && k != models.KeySenderKeyDistribution {
			return k
		}
	}
	if len(keys) >= 3 && keys[1] != models.KeyContextInfo {
		return keys[1]
	}
	if len(keys) > 0 {
		return keys[len(keys)-1]
	}
	return ""
}

// TextOf derives the user-visible text of a section using the fixed
// priority order. Forced-empty content keys yield "" regardless of the
// raw payload.
func TextOf(contentKey string, sec models.Section) string {
	if forcedEmptyText(contentKey) {
		return ""
	}
	switch {
	case sec.Text != "":
		return sec.Text
	case sec.Caption != "":
		return sec.Caption
	case sec.ContentText != "":
		return sec.ContentText
	case sec.SelectedDisplayText != "":
		return sec.SelectedDisplayText
	case sec.HydratedTemplate != nil && sec.HydratedTemplate.HydratedContentText != "":
		return sec.HydratedTemplate.HydratedContentText
	}
	return ""
}

// Normalize builds a canonical Message from a raw envelope.
func (n *Normalizer) Normalize(env *models.Envelope) (models.Message, error) {
	if err := env.Validate(); err != nil {
		return models.Message{}, fmt.Errorf("normalize: %w", err)
	}

	chat := jid.Decode(env.Key.RemoteJID)
	sender := jid.Decode(first(env.Key.Participant, env.Participant, chat))
	fromMe := env.Key.FromMe || jid.Same(sender, n.Own)
	if fromMe {
		sender = n.Own
	}

	keys := env.ContentKeys()
	contentKey := ContentType(keys)

	msg := models.Message{
		ID:        env.Key.ID,
		Chat:      chat,
		Sender:    sender,
		FromMe:    fromMe,
		Type:      contentKey,
		Kind:      models.KindForContentKey(contentKey),
		PushName:  env.PushName,
		Timestamp: env.Timestamp,
		Raw:       env.Content,
	}
	if len(keys) == 0 && env.StubType != "" {
		msg.Stub = env.StubType
		msg.Kind = models.MessageStub
	}

	sec, hasSection := env.Section(contentKey)
	if hasSection {
		msg.Text = TextOf(contentKey, sec)
		if sec.ContextInfo != nil {
			for _, j := range sec.ContextInfo.MentionedJID {
				msg.Mentions = append(msg.Mentions, jid.Decode(j))
			}
		}
	}
	if msg.Kind == models.MessageStub {
		msg.Text = ""
	}

	// Control/stub payloads addressed to the status broadcast belong to
	// the remote party, not the broadcast pseudo-conversation.
	if jid.IsBroadcast(msg.Chat) && (msg.Kind == models.MessageProtocol || msg.Kind == models.MessageStub) {
		msg.Chat = jid.Decode(first(env.Participant, sender))
	}

	if contentKey == models.KeyProtocol && hasSection && sec.Key != nil {
		msg.ProtocolKey = n.correctEmbeddedKey(*sec.Key, msg.Chat, sender)
	}

	return msg, nil
}

// correctEmbeddedKey repairs the key reference a control payload carries:
// the remote party is rewritten from the status broadcast to the parent
// conversation, placeholder participants become the sender, and fromMe is
// recomputed by identity comparison.
func (n *Normalizer) correctEmbeddedKey(k models.MessageKey, chat, sender string) *models.MessageKey {
	k.RemoteJID = jid.Decode(k.RemoteJID)
	if jid.IsBroadcast(k.RemoteJID) {
		k.RemoteJID = chat
	}
	if k.Participant == "" || k.Participant == "status_me" {
		k.Participant = sender
	}
	k.Participant = jid.Decode(k.Participant)
	k.FromMe = jid.Same(k.Participant, n.Own)
	if !k.FromMe && jid.Same(k.RemoteJID, n.Own) {
		k.RemoteJID = sender
	}
	return &k
}

func first(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
