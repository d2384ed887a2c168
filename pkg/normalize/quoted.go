package normalize

import (
	"encoding/json"

	"chatstore/pkg/jid"
	"chatstore/pkg/models"
)

// ResolveQuoted builds the reply target of msg from its embedded reply
// context, or nil when the message quotes nothing. The synthetic reference
// is also side-cached under the quoted sender's conversation when the
// quote is not self-sent; that side-channel entry is the only durable
// trace allowing a later Refetch to succeed when the original conversation
// never cached the message.
func (n *Normalizer) ResolveQuoted(msg *models.Message, env *models.Envelope) *models.QuotedReference {
	sec, ok := env.Section(msg.Type)
	if !ok || sec.ContextInfo == nil || len(sec.ContextInfo.QuotedMessage) == 0 {
		return nil
	}
	ci := sec.ContextInfo

	quoted := models.Envelope{Content: ci.QuotedMessage}
	qType := ContentType(quoted.ContentKeys())
	qsec, _ := quoted.Section(qType)
	raw := ci.QuotedMessage

	// Plain-text quotes arrive as a bare string section; rewrap them as
	// extended text so downstream consumers see one shape.
	if qType == models.KeyConversation {
		qType = models.KeyExtendedText
		if rewrapped, err := json.Marshal(map[string]map[string]string{
			models.KeyExtendedText: {"text": qsec.Text},
		}); err == nil {
			raw = rewrapped
		}
	}

	sender := jid.Decode(ci.Participant)
	chat := jid.Decode(first(ci.RemoteJID, msg.Chat, msg.Sender))
	if sender == "" && jid.IsGroup(chat) {
		// group quotes may omit the participant; the remote party stands in
		sender = chat
	}
	ref := &models.QuotedReference{
		ID:     ci.StanzaID,
		Chat:   chat,
		Sender: sender,
		FromMe: jid.Same(sender, n.Own),
		Type:   qType,
		Text:   TextOf(qType, qsec),
		Raw:    raw,
	}
	if qsec.ContextInfo != nil {
		for _, j := range qsec.ContextInfo.MentionedJID {
			ref.Mentions = append(ref.Mentions, jid.Decode(j))
		}
	}

	if ref.Sender != "" && !ref.FromMe && !jid.IsBroadcast(ref.Chat) && ref.ID != "" {
		n.Store.PutIfAbsent(ref.Sender, models.Message{
			ID:       ref.ID,
			Chat:     ref.Sender,
			Sender:   ref.Sender,
			FromMe:   ref.FromMe,
			Type:     ref.Type,
			Kind:     models.KindForContentKey(ref.Type),
			Text:     ref.Text,
			Mentions: ref.Mentions,
			Raw:      ref.Raw,
		})
	}
	return ref
}

// Refetch looks the quoted reference up in the store, first scoped to its
// conversation, then across every conversation. When the original was
// never persisted it returns a synthetic message built from the reference
// and reports cached=false; callers treat that result as ephemeral and
// must not write it into the original conversation's history.
func (n *Normalizer) Refetch(ref models.QuotedReference) (msg models.Message, cached bool) {
	if m, ok := n.Store.Message(ref.Chat, ref.ID); ok {
		return m, true
	}
	if m, ok := n.Store.Find(ref.ID); ok {
		return m, true
	}
	ref.Ephemeral = true
	return models.Message{
		ID:       ref.ID,
		Chat:     ref.Chat,
		Sender:   ref.Sender,
		FromMe:   ref.FromMe,
		Type:     ref.Type,
		Kind:     models.KindForContentKey(ref.Type),
		Text:     ref.Text,
		Mentions: ref.Mentions,
		Raw:      ref.Raw,
	}, false
}
