// Package api exposes the HTTP surface: event ingestion endpoints feeding
// the queue and read endpoints over the conversation store.
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"chatstore/pkg/ingest"
	"chatstore/pkg/logger"
	"chatstore/pkg/models"
	"chatstore/pkg/store"
	"chatstore/pkg/utils"
)

// maxBodyBytes bounds ingested request bodies.
const maxBodyBytes = 4 << 20

// Deps are the collaborators the handlers need.
type Deps struct {
	Store *store.Store
	Queue *ingest.Queue
	// WaitAttempts/WaitInterval tune the blocking message lookup.
	WaitAttempts int
	WaitInterval time.Duration
}

// Handler builds the router.
func Handler(d Deps) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/v1/events/{category}", d.postEvent).Methods(http.MethodPost)
	r.HandleFunc("/v1/messages", d.postMessages).Methods(http.MethodPost)
	r.HandleFunc("/v1/conversations", d.listConversations).Methods(http.MethodGet)
	r.HandleFunc("/v1/conversations/{id}", d.getConversation).Methods(http.MethodGet)
	r.HandleFunc("/v1/conversations/{id}/messages", d.listMessages).Methods(http.MethodGet)
	r.HandleFunc("/v1/conversations/{id}/messages/{msgID}", d.getMessage).Methods(http.MethodGet)
	return r
}

// postEvent accepts one raw event payload for the category in the path and
// enqueues it. 429 signals queue pressure; the producer is expected to
// back off and retry.
func (d Deps) postEvent(w http.ResponseWriter, r *http.Request) {
	cat := ingest.Category(mux.Vars(r)["category"])
	if !ingest.KnownCategory(cat) {
		utils.JSONError(w, http.StatusBadRequest, "unknown event category")
		return
	}
	d.enqueue(w, r, cat)
}

// postMessages accepts a raw message batch.
func (d Deps) postMessages(w http.ResponseWriter, r *http.Request) {
	d.enqueue(w, r, ingest.CatMessages)
}

func (d Deps) enqueue(w http.ResponseWriter, r *http.Request, cat ingest.Category) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		utils.JSONError(w, http.StatusBadRequest, "read body")
		return
	}
	if !json.Valid(body) {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	corrID := uuid.NewString()
	op := &ingest.Op{Category: cat, Payload: body, CorrID: corrID}
	if err := d.Queue.TryEnqueue(op); err != nil {
		logger.Warn("event_enqueue_rejected", "category", cat, "corr_id", corrID, "err", err)
		utils.JSONError(w, http.StatusTooManyRequests, "queue full")
		return
	}
	_ = utils.JSONWrite(w, http.StatusAccepted, map[string]string{"status": "accepted", "corr_id": corrID})
}

func (d Deps) listConversations(w http.ResponseWriter, r *http.Request) {
	_ = utils.JSONWrite(w, http.StatusOK, d.Store.List())
}

func (d Deps) getConversation(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	conv, ok := d.Store.Get(id)
	if !ok {
		utils.JSONError(w, http.StatusNotFound, "conversation not found")
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, conv)
}

func (d Deps) listMessages(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	msgs := d.Store.History(id)
	if limStr := r.URL.Query().Get("limit"); limStr != "" {
		if lim, err := strconv.Atoi(limStr); err == nil && lim >= 0 && lim < len(msgs) {
			msgs = msgs[len(msgs)-lim:]
		}
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	_ = utils.JSONWrite(w, http.StatusOK, msgs)
}

// getMessage returns one message. With ?wait=1 the lookup polls until the
// message lands or the attempt budget runs out, for callers racing the
// ingest pipeline.
func (d Deps) getMessage(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, msgID := vars["id"], vars["msgID"]

	if r.URL.Query().Get("wait") == "1" {
		msg, err := ingest.WaitFor(r.Context(), d.WaitAttempts, d.WaitInterval,
			func(context.Context) (models.Message, bool) {
				return d.Store.Message(id, msgID)
			})
		if err != nil {
			utils.JSONError(w, http.StatusNotFound, "message not found")
			return
		}
		_ = utils.JSONWrite(w, http.StatusOK, msg)
		return
	}

	msg, ok := d.Store.Message(id, msgID)
	if !ok {
		utils.JSONError(w, http.StatusNotFound, "message not found")
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, msg)
}
