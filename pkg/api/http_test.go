package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"chatstore/pkg/ingest"
	"chatstore/pkg/models"
	"chatstore/pkg/store"
)

func newDeps() Deps {
	return Deps{
		Store:        store.New(store.Options{}),
		Queue:        ingest.NewQueue(8),
		WaitAttempts: 2,
		WaitInterval: time.Millisecond,
	}
}

func TestPostEventAccepted(t *testing.T) {
	d := newDeps()
	h := Handler(d)
	req := httptest.NewRequest(http.MethodPost, "/v1/events/chats.upsert", strings.NewReader(`[{"id":"g1@g.us"}]`))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", rr.Code, rr.Body.String())
	}
	select {
	case it := <-d.Queue.Out():
		if it.Op.Category != ingest.CatChatUpsert {
			t.Fatalf("queued category = %s", it.Op.Category)
		}
		if it.Op.CorrID == "" {
			t.Fatalf("no correlation id assigned")
		}
		it.Done()
	default:
		t.Fatalf("event not queued")
	}
}

func TestPostEventUnknownCategory(t *testing.T) {
	h := Handler(newDeps())
	req := httptest.NewRequest(http.MethodPost, "/v1/events/bogus", strings.NewReader(`{}`))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestPostEventInvalidJSON(t *testing.T) {
	h := Handler(newDeps())
	req := httptest.NewRequest(http.MethodPost, "/v1/messages", strings.NewReader(`{nope`))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestPostEventQueueFull(t *testing.T) {
	d := newDeps()
	d.Queue = ingest.NewQueue(1)
	h := Handler(d)
	for i, want := range []int{http.StatusAccepted, http.StatusTooManyRequests} {
		req := httptest.NewRequest(http.MethodPost, "/v1/messages", strings.NewReader(`[]`))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != want {
			t.Fatalf("request %d: status = %d, want %d", i, rr.Code, want)
		}
	}
}

func TestConversationReads(t *testing.T) {
	d := newDeps()
	d.Store.Upsert("111@s.whatsapp.net", store.Fields{Name: "Ann", IsConversation: store.True})
	d.Store.Put("111@s.whatsapp.net", models.Message{ID: "M1", Chat: "111@s.whatsapp.net", Text: "hello", Type: "conversation", Kind: models.MessageText})
	h := Handler(d)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/conversations", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("list status = %d", rr.Code)
	}
	var convs []models.Conversation
	if err := json.Unmarshal(rr.Body.Bytes(), &convs); err != nil || len(convs) != 1 {
		t.Fatalf("list body: %v %s", err, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/conversations/111@s.whatsapp.net/messages", nil))
	var msgs []models.Message
	if err := json.Unmarshal(rr.Body.Bytes(), &msgs); err != nil || len(msgs) != 1 || msgs[0].Text != "hello" {
		t.Fatalf("history body: %v %s", err, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/conversations/absent@s.whatsapp.net", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("missing conversation status = %d", rr.Code)
	}
}

func TestGetMessageWait(t *testing.T) {
	d := newDeps()
	d.WaitAttempts = 50
	h := Handler(d)
	go func() {
		time.Sleep(2 * time.Millisecond)
		d.Store.Put("111@s.whatsapp.net", models.Message{ID: "LATE", Chat: "111@s.whatsapp.net", Text: "arrived", Type: "conversation", Kind: models.MessageText})
	}()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/conversations/111@s.whatsapp.net/messages/LATE?wait=1", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("wait lookup status = %d: %s", rr.Code, rr.Body.String())
	}
	var msg models.Message
	if err := json.Unmarshal(rr.Body.Bytes(), &msg); err != nil || msg.Text != "arrived" {
		t.Fatalf("wait lookup body: %v %s", err, rr.Body.String())
	}
}
