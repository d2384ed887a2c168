// Package store holds the in-memory conversation map: one record per
// canonical identity, each with a bounded, insertion-ordered message
// history. State is process-lifetime only; there is no persistence layer.
package store

import (
	"sync"

	"chatstore/pkg/jid"
	"chatstore/pkg/models"
)

const (
	// DefaultHistoryCap is the history size that triggers a trim.
	DefaultHistoryCap = 40
	// DefaultHistoryKeep is how many of the most recent entries survive
	// a trim. Trimming is a batch operation, not single eviction.
	DefaultHistoryKeep = 30
)

// Fields is a partial conversation update. Zero values never blank
// existing data; IsConversation is only applied when non-nil.
type Fields struct {
	Name           string
	Notify         string
	Subject        string
	IsConversation *bool
	Presence       string
	Metadata       *models.GroupMetadata
}

// Options tunes a Store. Zero values fall back to the defaults.
type Options struct {
	HistoryCap  int
	HistoryKeep int
}

type record struct {
	conv  models.Conversation
	msgs  map[string]models.Message
	order []string
}

// Store is the in-memory conversation store. One instance is owned per
// session and passed by reference; all methods are safe for concurrent
// use, though the ingestion pipeline funnels every mutation through a
// single worker.
type Store struct {
	mu            sync.RWMutex
	conversations map[string]*record
	historyCap    int
	historyKeep   int
}

// New creates an empty Store.
func New(opts Options) *Store {
	capN := opts.HistoryCap
	if capN <= 0 {
		capN = DefaultHistoryCap
	}
	keep := opts.HistoryKeep
	if keep <= 0 || keep > capN {
		keep = DefaultHistoryKeep
		if keep > capN {
			keep = capN
		}
	}
	return &Store{
		conversations: make(map[string]*record),
		historyCap:    capN,
		historyKeep:   keep,
	}
}

// Upsert creates the conversation for id if absent and merges fields into
// it. The id is canonicalized first so a device-suffixed form can never
// produce a duplicate record. Returns a snapshot of the merged record.
func (s *Store) Upsert(id string, f Fields) models.Conversation {
	id = jid.Decode(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.ensureLocked(id)
	mergeFields(&rec.conv, f)
	return s.snapshotLocked(rec)
}

// Get returns a snapshot of the conversation for id, if present.
func (s *Store) Get(id string) (models.Conversation, bool) {
	id = jid.Decode(id)
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.conversations[id]
	if !ok {
		return models.Conversation{}, false
	}
	return s.snapshotLocked(rec), true
}

// List returns snapshots of every conversation. Order is unspecified.
func (s *Store) List() []models.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Conversation, 0, len(s.conversations))
	for _, rec := range s.conversations {
		out = append(out, s.snapshotLocked(rec))
	}
	return out
}

// Len returns the number of tracked conversations.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conversations)
}

// Put writes msg into the history of convID, creating the conversation if
// needed, and trims the history when it exceeds the cap. An existing entry
// under the same message id is replaced in place without reordering.
func (s *Store) Put(convID string, msg models.Message) {
	s.put(convID, msg, true)
}

// PutIfAbsent writes msg only when no entry exists under its id yet.
// Reports whether the message was stored.
func (s *Store) PutIfAbsent(convID string, msg models.Message) bool {
	return s.put(convID, msg, false)
}

func (s *Store) put(convID string, msg models.Message, overwrite bool) bool {
	convID = jid.Decode(convID)
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.ensureLocked(convID)
	if _, exists := rec.msgs[msg.ID]; exists {
		if !overwrite {
			return false
		}
		rec.msgs[msg.ID] = msg
		return true
	}
	rec.msgs[msg.ID] = msg
	rec.order = append(rec.order, msg.ID)
	messagesStored.Inc()
	if len(rec.order) > s.historyCap {
		s.trimLocked(rec)
	}
	return true
}

// trimLocked drops everything but the most recent historyKeep entries.
func (s *Store) trimLocked(rec *record) {
	drop := len(rec.order) - s.historyKeep
	if drop <= 0 {
		return
	}
	for _, id := range rec.order[:drop] {
		delete(rec.msgs, id)
	}
	kept := make([]string, s.historyKeep)
	copy(kept, rec.order[drop:])
	rec.order = kept
	historyEvictions.Add(float64(drop))
}

// Message returns a snapshot of one history entry.
func (s *Store) Message(convID, msgID string) (models.Message, bool) {
	convID = jid.Decode(convID)
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.conversations[convID]
	if !ok {
		return models.Message{}, false
	}
	m, ok := rec.msgs[msgID]
	if !ok {
		return models.Message{}, false
	}
	return cloneMessage(m), true
}

// History returns the conversation's messages in insertion order.
func (s *Store) History(convID string) []models.Message {
	convID = jid.Decode(convID)
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.conversations[convID]
	if !ok {
		return nil
	}
	out := make([]models.Message, 0, len(rec.order))
	for _, id := range rec.order {
		out = append(out, cloneMessage(rec.msgs[id]))
	}
	return out
}

// Find scans every conversation for a message with the given id. Used by
// quoted-reference refetch when the owning conversation is unknown.
func (s *Store) Find(msgID string) (models.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rec := range s.conversations {
		if m, ok := rec.msgs[msgID]; ok {
			return cloneMessage(m), true
		}
	}
	return models.Message{}, false
}

// DisplayName resolves the best available display string for an identity,
// falling back to the identity itself.
func (s *Store) DisplayName(id string) string {
	conv, ok := s.Get(id)
	if !ok {
		return jid.Decode(id)
	}
	if n := conv.DisplayName(); n != "" {
		return n
	}
	return conv.ID
}

func (s *Store) ensureLocked(id string) *record {
	rec, ok := s.conversations[id]
	if !ok {
		rec = &record{
			conv: models.Conversation{ID: id, Kind: kindOf(id)},
			msgs: make(map[string]models.Message),
		}
		s.conversations[id] = rec
		conversationsTracked.Inc()
	}
	return rec
}

func (s *Store) snapshotLocked(rec *record) models.Conversation {
	out := rec.conv
	out.Metadata = rec.conv.Metadata.Clone()
	out.HistoryLen = len(rec.order)
	return out
}

func mergeFields(conv *models.Conversation, f Fields) {
	if conv.Kind == models.KindGroup {
		// Group records prefer the subject; a bare name on a group
		// event is a subject in disguise.
		subject := f.Subject
		if subject == "" {
			subject = f.Name
		}
		if subject != "" {
			conv.Subject = subject
		}
	} else {
		name := f.Name
		if name == "" {
			name = f.Notify
		}
		if name != "" {
			conv.Name = name
		}
		if f.Notify != "" {
			conv.Notify = f.Notify
		}
	}
	if f.IsConversation != nil {
		conv.IsConversation = *f.IsConversation
	}
	if f.Presence != "" {
		conv.Presence = f.Presence
	}
	if f.Metadata != nil {
		conv.Metadata = f.Metadata.Clone()
		if conv.Subject == "" {
			conv.Subject = f.Metadata.Subject
		}
	}
}

func kindOf(id string) models.ConversationKind {
	switch {
	case jid.IsGroup(id):
		return models.KindGroup
	case jid.IsBroadcast(id):
		return models.KindBroadcast
	default:
		return models.KindDirect
	}
}

func cloneMessage(m models.Message) models.Message {
	if len(m.Mentions) > 0 {
		mentions := make([]string, len(m.Mentions))
		copy(mentions, m.Mentions)
		m.Mentions = mentions
	}
	if m.Quoted != nil {
		q := *m.Quoted
		if len(q.Mentions) > 0 {
			qm := make([]string, len(q.Mentions))
			copy(qm, q.Mentions)
			q.Mentions = qm
		}
		m.Quoted = &q
	}
	if m.ProtocolKey != nil {
		k := *m.ProtocolKey
		m.ProtocolKey = &k
	}
	return m
}

// True and False are convenience pointers for Fields.IsConversation.
var (
	True  = boolPtr(true)
	False = boolPtr(false)
)

func boolPtr(b bool) *bool { return &b }
