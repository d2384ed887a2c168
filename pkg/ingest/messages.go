package ingest

import (
	"context"

	"chatstore/pkg/jid"
	"chatstore/pkg/logger"
	"chatstore/pkg/models"
	"chatstore/pkg/store"
	"chatstore/pkg/utils"
)

// PushMessages runs a raw message batch through the normalization
// pipeline. Each envelope is processed in isolation: a failure (including
// a panic from malformed input) is logged and the batch continues.
func (d *Dispatcher) PushMessages(ctx context.Context, envs []models.Envelope, corrID string) {
	for i := range envs {
		d.pushOne(ctx, &envs[i], corrID)
	}
}

func (d *Dispatcher) pushOne(ctx context.Context, env *models.Envelope, corrID string) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("message_push_panic", "corr_id", corrID, "id", env.Key.ID, "panic", r)
			messagesFailed.Inc()
		}
	}()

	if env.StubType != "" && env.StubType != models.StubCiphertext {
		d.dispatchStub(ctx, env)
	}

	msg, err := d.norm.Normalize(env)
	if err != nil {
		logger.Warn("message_normalize_failed", "corr_id", corrID, "err", err)
		messagesFailed.Inc()
		return
	}
	msg.Quoted = d.norm.ResolveQuoted(&msg, env)

	// An empty chat is not an identity, and plain status-broadcast posts
	// never reach the store.
	if msg.Chat == "" || jid.IsBroadcast(msg.Chat) {
		logger.Debug("message_dropped", "corr_id", corrID, "id", msg.ID, "chat", msg.Chat)
		return
	}

	_, existed := d.store.Get(msg.Chat)
	d.store.Upsert(msg.Chat, store.Fields{})
	if !existed && jid.IsGroup(msg.Chat) {
		// first sight of this group: pull the full participating set once
		d.cache.ResyncAll(ctx)
	}
	if jid.IsGroup(msg.Chat) {
		d.cache.RefreshIfUncached(ctx, msg.Chat)
	}

	if msg.PushName != "" && !jid.Same(msg.Sender, msg.Chat) {
		d.store.Upsert(msg.Sender, store.Fields{Notify: msg.PushName})
	}

	d.store.Upsert(msg.Chat, store.Fields{IsConversation: store.True})

	if !persistable(&msg, env) {
		logger.Debug("message_skipped", "corr_id", corrID, "id", msg.ID, "type", msg.Type, "from_me", msg.FromMe)
		return
	}
	d.store.Put(msg.Chat, msg)
	messagesPushed.Inc()
	logger.Debug("message_stored", "corr_id", corrID, "chat", msg.Chat, "id", msg.ID, "kind", msg.Kind)
}

// persistable applies the history-write rule: content-less stubs, control
// and key-distribution wrappers, self-sent messages and undecryptable
// ciphertext stubs never enter history.
func persistable(msg *models.Message, env *models.Envelope) bool {
	if len(env.Content) == 0 {
		return false
	}
	switch msg.Type {
	case models.KeyProtocol, models.KeySenderKeyDistribution, models.KeyContextInfo:
		return false
	}
	if msg.FromMe {
		return false
	}
	if env.StubType == models.StubCiphertext {
		return false
	}
	return true
}

// stubKinds and stubBuilders are parallel: the builder at index i turns a
// stub of kind stubKinds[i] into its synthetic group update.
var stubKinds = []string{models.StubRevoke, models.StubRevokeInviteLink, models.StubIconChange}

var stubBuilders = []func(chat, param string) GroupUpdate{
	func(chat, param string) GroupUpdate { return GroupUpdate{ID: chat, Revoke: param} },
	func(chat, param string) GroupUpdate { return GroupUpdate{ID: chat, Revoke: param} },
	func(chat, param string) GroupUpdate { return GroupUpdate{ID: chat, Icon: param} },
}

// dispatchStub translates a recognized message stub into a synthetic group
// update. Unrecognized kinds are logged and ignored.
func (d *Dispatcher) dispatchStub(ctx context.Context, env *models.Envelope) {
	chat := jid.Decode(env.Key.RemoteJID)
	if chat == "" || !jid.IsGroup(chat) {
		return
	}
	build, ok := utils.PairedLookup(env.StubType, stubKinds, stubBuilders)
	if !ok {
		logger.Debug("stub_ignored", "chat", chat, "stub", env.StubType)
		return
	}
	param := ""
	if len(env.StubParameters) > 0 {
		param = env.StubParameters[0]
	}
	d.applyGroupUpdate(ctx, build(chat, param))
}
