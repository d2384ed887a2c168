// Package groupmeta refreshes and merges group subject/participant data
// from the external metadata provider into the conversation store.
// Provider failures are soft: previously cached metadata stays available
// and errors are logged, never propagated.
package groupmeta

import (
	"context"

	"golang.org/x/time/rate"

	"chatstore/pkg/jid"
	"chatstore/pkg/logger"
	"chatstore/pkg/models"
	"chatstore/pkg/store"
)

// Provider is the external group-metadata collaborator.
type Provider interface {
	GroupMetadata(ctx context.Context, id string) (models.GroupMetadata, error)
	ListParticipatingGroups(ctx context.Context) (map[string]models.GroupMetadata, error)
}

// Session is a Provider that also knows the local account identity. The
// transport layer implements it.
type Session interface {
	Provider
	OwnIdentity() string
}

// Options tunes the cache. RefreshRPS bounds outbound provider calls so a
// burst of group events cannot stampede the collaborator; zero disables
// the limiter.
type Options struct {
	RefreshRPS float64
	Burst      int
}

// Cache wires the provider to the store.
type Cache struct {
	store    *store.Store
	provider Provider
	limiter  *rate.Limiter
}

// New creates a Cache around the given store and provider.
func New(st *store.Store, p Provider, opts Options) *Cache {
	c := &Cache{store: st, provider: p}
	if opts.RefreshRPS > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RefreshRPS), burst)
	}
	return c
}

// Refresh fetches metadata for the group id and merges subject,
// participants and the raw payload into the conversation. On failure the
// existing cached metadata is left untouched and false is returned.
// Refresh is idempotent under unchanged upstream state.
func (c *Cache) Refresh(ctx context.Context, id string) bool {
	id = jid.Decode(id)
	if !jid.IsGroup(id) {
		return false
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			logger.Warn("group_metadata_refresh_aborted", "group", id, "err", err)
			return false
		}
	}
	md, err := c.provider.GroupMetadata(ctx, id)
	if err != nil {
		logger.Warn("group_metadata_fetch_failed", "group", id, "err", err)
		return false
	}
	c.store.Upsert(id, store.Fields{Subject: md.Subject, Metadata: &md})
	return true
}

// RefreshIfUncached refreshes only when the conversation has no cached
// metadata yet. Used for the lazy fill when a group conversation first
// surfaces.
func (c *Cache) RefreshIfUncached(ctx context.Context, id string) {
	id = jid.Decode(id)
	if conv, ok := c.store.Get(id); ok && conv.Metadata != nil && conv.Subject != "" {
		return
	}
	c.Refresh(ctx, id)
}

// ResyncAll upserts every participating group reported by the provider,
// marking each as a live conversation. Provider failure is logged and
// leaves the store unchanged.
func (c *Cache) ResyncAll(ctx context.Context) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			logger.Warn("group_resync_aborted", "err", err)
			return
		}
	}
	groups, err := c.provider.ListParticipatingGroups(ctx)
	if err != nil {
		logger.Warn("group_resync_failed", "err", err)
		return
	}
	for id, md := range groups {
		md := md
		c.store.Upsert(id, store.Fields{
			Subject:        md.Subject,
			IsConversation: store.True,
			Metadata:       &md,
		})
	}
	logger.Debug("group_resync_done", "groups", len(groups))
}
