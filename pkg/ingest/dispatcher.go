// Package ingest folds the protocol event streams into the conversation
// store. Events enter through a bounded queue, are decoded at the
// boundary, and routed per category; message batches additionally run the
// normalization pipeline. Per-element failures are logged and never abort
// the rest of a batch.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"chatstore/pkg/groupmeta"
	"chatstore/pkg/jid"
	"chatstore/pkg/logger"
	"chatstore/pkg/models"
	"chatstore/pkg/normalize"
	"chatstore/pkg/store"
)

// DefaultPresence is recorded when a presence update carries no explicit
// state.
const DefaultPresence = "composing"

// Dispatcher routes decoded events into the store, the metadata cache and
// the message pipeline.
type Dispatcher struct {
	store *store.Store
	cache *groupmeta.Cache
	norm  *normalize.Normalizer
}

// NewDispatcher wires a Dispatcher over its collaborators.
func NewDispatcher(st *store.Store, cache *groupmeta.Cache, norm *normalize.Normalizer) *Dispatcher {
	return &Dispatcher{store: st, cache: cache, norm: norm}
}

// Run consumes the queue until ctx is done. Dispatch errors are logged,
// not returned; one bad event must not stall the stream.
func (d *Dispatcher) Run(ctx context.Context, q *Queue) {
	for {
		select {
		case <-ctx.Done():
			return
		case it := <-q.Out():
			op := it.Op
			if err := d.Dispatch(ctx, op.Category, op.Payload, op.CorrID); err != nil {
				logger.Error("event_dispatch_failed", "category", op.Category, "corr_id", op.CorrID, "err", err)
				eventsFailed.WithLabelValues(string(op.Category)).Inc()
			}
			it.Done()
		}
	}
}

// Dispatch decodes and routes one event. An empty corrID is assigned here
// so every log line of the event can be tied together.
func (d *Dispatcher) Dispatch(ctx context.Context, cat Category, payload []byte, corrID string) error {
	if corrID == "" {
		corrID = uuid.NewString()
	}
	eventsTotal.WithLabelValues(string(cat)).Inc()
	logger.Debug("event_received", "category", cat, "corr_id", corrID, "bytes", len(payload))

	switch cat {
	case CatChatSet:
		return d.chatSet(ctx, payload)
	case CatChatUpsert:
		return d.chatUpsert(ctx, payload)
	case CatContactUpsert:
		return d.contactUpsert(payload)
	case CatGroupUpsert:
		return d.groupUpsert(payload)
	case CatGroupUpdate:
		return d.groupUpdate(ctx, payload)
	case CatParticipantsUpdate:
		return d.participantsUpdate(ctx, payload)
	case CatPresenceUpdate:
		return d.presenceUpdate(ctx, payload)
	case CatMessages:
		envs, err := decodeList[models.Envelope](payload)
		if err != nil {
			return err
		}
		d.PushMessages(ctx, envs, corrID)
		return nil
	}
	return fmt.Errorf("unknown event category %q", cat)
}

// chatSet processes the initial chat snapshot strictly in element order. A
// metadata refresh failure on one element never aborts the rest.
func (d *Dispatcher) chatSet(ctx context.Context, payload []byte) error {
	var body struct {
		Chats []ChatRecord `json:"chats"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		// bare-list payloads are accepted too
		recs, lerr := decodeList[ChatRecord](payload)
		if lerr != nil {
			return fmt.Errorf("decode chats.set: %w", err)
		}
		body.Chats = recs
	}
	for _, rec := range body.Chats {
		id := jid.Decode(rec.ID)
		if id == "" {
			continue
		}
		live := !rec.ReadOnly
		d.store.Upsert(id, store.Fields{
			Name:           rec.Name,
			Notify:         rec.Notify,
			Subject:        rec.Subject,
			IsConversation: &live,
		})
		if jid.IsGroup(id) {
			d.cache.Refresh(ctx, id)
		}
	}
	return nil
}

// chatUpsert marks each record as a live conversation; a group upsert also
// triggers a full participating-group resync, since a single chat upsert
// commonly signals a joined or newly created group.
func (d *Dispatcher) chatUpsert(ctx context.Context, payload []byte) error {
	recs, err := decodeList[ChatRecord](payload)
	if err != nil {
		return err
	}
	for _, rec := range recs {
		id := jid.Decode(rec.ID)
		if id == "" {
			continue
		}
		d.store.Upsert(id, store.Fields{
			Name:           rec.Name,
			Notify:         rec.Notify,
			Subject:        rec.Subject,
			IsConversation: store.True,
		})
		if jid.IsGroup(id) {
			d.cache.Refresh(ctx, id)
			d.cache.ResyncAll(ctx)
		}
	}
	return nil
}

func (d *Dispatcher) contactUpsert(payload []byte) error {
	recs, err := decodeList[ChatRecord](payload)
	if err != nil {
		return err
	}
	for _, rec := range recs {
		id := jid.Decode(rec.ID)
		if id == "" {
			continue
		}
		d.store.Upsert(id, store.Fields{Name: rec.Name, Notify: rec.Notify})
	}
	return nil
}

func (d *Dispatcher) groupUpsert(payload []byte) error {
	recs, err := decodeList[ChatRecord](payload)
	if err != nil {
		return err
	}
	for _, rec := range recs {
		id := jid.Decode(rec.ID)
		if id == "" {
			continue
		}
		d.store.Upsert(id, store.Fields{Subject: rec.Subject, Name: rec.Name})
	}
	return nil
}

func (d *Dispatcher) groupUpdate(ctx context.Context, payload []byte) error {
	ups, err := decodeList[GroupUpdate](payload)
	if err != nil {
		return err
	}
	for _, up := range ups {
		d.applyGroupUpdate(ctx, up)
	}
	return nil
}

func (d *Dispatcher) applyGroupUpdate(ctx context.Context, up GroupUpdate) {
	id := jid.Decode(up.ID)
	if id == "" {
		return
	}
	d.store.Upsert(id, store.Fields{Subject: up.Subject, IsConversation: store.True})
	d.cache.Refresh(ctx, id)
}

func (d *Dispatcher) participantsUpdate(ctx context.Context, payload []byte) error {
	ups, err := decodeList[ParticipantsUpdate](payload)
	if err != nil {
		return err
	}
	for _, up := range ups {
		id := jid.Decode(up.ID)
		if id == "" {
			continue
		}
		d.store.Upsert(id, store.Fields{IsConversation: store.True})
		d.cache.Refresh(ctx, id)
	}
	return nil
}

// presenceUpdate records last-known presence per sending identity and
// makes sure both the sender's conversation and, for groups, the outer
// conversation exist.
func (d *Dispatcher) presenceUpdate(ctx context.Context, payload []byte) error {
	ups, err := decodeList[PresenceUpdate](payload)
	if err != nil {
		return err
	}
	for _, up := range ups {
		outer := jid.Decode(up.ID)
		for who, state := range up.Presences {
			sender := jid.Decode(who)
			if sender == "" {
				continue
			}
			presence := state.LastKnownPresence
			if presence == "" {
				presence = DefaultPresence
			}
			d.store.Upsert(sender, store.Fields{Presence: presence})
		}
		if outer != "" && jid.IsGroup(outer) {
			d.store.Upsert(outer, store.Fields{IsConversation: store.True})
			d.cache.RefreshIfUncached(ctx, outer)
		}
	}
	return nil
}
