// Package app wires the server components and owns their lifecycle.
package app

import (
	"context"
	"net/http"
	"time"

	"chatstore/internal/resync"
	"chatstore/pkg/banner"
	"chatstore/pkg/config"
	"chatstore/pkg/groupmeta"
	"chatstore/pkg/ingest"
	"chatstore/pkg/logger"
	"chatstore/pkg/normalize"
	"chatstore/pkg/store"
)

// App encapsulates the server components and lifecycle.
type App struct {
	cfg     *config.Config
	addr    string
	version string

	store      *store.Store
	cache      *groupmeta.Cache
	norm       *normalize.Normalizer
	queue      *ingest.Queue
	dispatcher *ingest.Dispatcher

	srv          *http.Server
	cancelResync context.CancelFunc
}

// New builds the component graph. session provides the own identity and
// the group-metadata lookups; it is the only external collaborator.
func New(cfg *config.Config, addr, version string, session Session) *App {
	st := store.New(store.Options{
		HistoryCap:  cfg.Store.HistoryCap,
		HistoryKeep: cfg.Store.HistoryKeep,
	})
	cache := groupmeta.New(st, session, groupmeta.Options{
		RefreshRPS: cfg.Provider.RPS,
		Burst:      cfg.Provider.Burst,
	})
	norm := normalize.New(session.OwnIdentity(), st)
	return &App{
		cfg:        cfg,
		addr:       addr,
		version:    version,
		store:      st,
		cache:      cache,
		norm:       norm,
		queue:      ingest.NewQueue(cfg.Ingest.Queue.Capacity),
		dispatcher: ingest.NewDispatcher(st, cache, norm),
	}
}

// Session is the transport-side collaborator the store depends on.
type Session = groupmeta.Session

// Store exposes the conversation store, mainly for tests and tooling.
func (a *App) Store() *store.Store { return a.store }

// Run starts the dispatcher, the resync scheduler and the HTTP server, and
// blocks until ctx is canceled or a fatal server error occurs.
func (a *App) Run(ctx context.Context) error {
	go a.dispatcher.Run(ctx, a.queue)

	cancel, err := resync.Start(ctx, a.cfg.Resync, a.cache)
	if err != nil {
		return err
	}
	a.cancelResync = cancel

	banner.Print(a.addr, a.version)
	errCh := a.startHTTP()

	select {
	case <-ctx.Done():
		a.shutdown()
		return nil
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

func (a *App) shutdown() {
	if a.cancelResync != nil {
		a.cancelResync()
	}
	if a.srv != nil {
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.srv.Shutdown(shCtx); err != nil {
			logger.Warn("http_shutdown_error", "err", err)
		}
	}
	logger.Info("server_stopped")
}
