package groupmeta

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"chatstore/pkg/models"
	"chatstore/pkg/store"
)

type fakeProvider struct {
	groups    map[string]models.GroupMetadata
	err       error
	metaCalls int
	listCalls int
}

func (f *fakeProvider) GroupMetadata(_ context.Context, id string) (models.GroupMetadata, error) {
	f.metaCalls++
	if f.err != nil {
		return models.GroupMetadata{}, f.err
	}
	md, ok := f.groups[id]
	if !ok {
		return models.GroupMetadata{}, errors.New("unknown group")
	}
	return md, nil
}

func (f *fakeProvider) ListParticipatingGroups(context.Context) (map[string]models.GroupMetadata, error) {
	f.listCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.groups, nil
}

func TestRefreshMerges(t *testing.T) {
	st := store.New(store.Options{})
	p := &fakeProvider{groups: map[string]models.GroupMetadata{
		"g1@g.us": {ID: "g1@g.us", Subject: "Team", Participants: []models.GroupParticipant{{ID: "111@s.whatsapp.net", Admin: "admin"}}},
	}}
	c := New(st, p, Options{})

	if !c.Refresh(context.Background(), "g1@g.us") {
		t.Fatalf("refresh failed")
	}
	conv, _ := st.Get("g1@g.us")
	if conv.Subject != "Team" || conv.Metadata == nil || len(conv.Metadata.Participants) != 1 {
		t.Fatalf("metadata not merged: %+v", conv)
	}
}

func TestRefreshFailureKeepsCachedState(t *testing.T) {
	st := store.New(store.Options{})
	p := &fakeProvider{groups: map[string]models.GroupMetadata{
		"g1@g.us": {ID: "g1@g.us", Subject: "Team"},
	}}
	c := New(st, p, Options{})
	c.Refresh(context.Background(), "g1@g.us")

	p.err = errors.New("provider down")
	if c.Refresh(context.Background(), "g1@g.us") {
		t.Fatalf("failed refresh reported success")
	}
	conv, _ := st.Get("g1@g.us")
	if conv.Subject != "Team" || conv.Metadata == nil {
		t.Fatalf("stale metadata lost on failure: %+v", conv)
	}
}

func TestRefreshIgnoresNonGroups(t *testing.T) {
	st := store.New(store.Options{})
	p := &fakeProvider{}
	c := New(st, p, Options{})
	if c.Refresh(context.Background(), "111@s.whatsapp.net") {
		t.Fatalf("refresh accepted a non-group id")
	}
	if p.metaCalls != 0 {
		t.Fatalf("provider called for a non-group id")
	}
}

func TestRefreshIfUncached(t *testing.T) {
	st := store.New(store.Options{})
	p := &fakeProvider{groups: map[string]models.GroupMetadata{
		"g1@g.us": {ID: "g1@g.us", Subject: "Team"},
	}}
	c := New(st, p, Options{})

	c.RefreshIfUncached(context.Background(), "g1@g.us")
	if p.metaCalls != 1 {
		t.Fatalf("uncached group not refreshed")
	}
	c.RefreshIfUncached(context.Background(), "g1@g.us")
	if p.metaCalls != 1 {
		t.Fatalf("cached group refreshed again")
	}
}

func TestResyncAll(t *testing.T) {
	st := store.New(store.Options{})
	p := &fakeProvider{groups: map[string]models.GroupMetadata{
		"g1@g.us": {ID: "g1@g.us", Subject: "One"},
		"g2@g.us": {ID: "g2@g.us", Subject: "Two"},
	}}
	c := New(st, p, Options{})
	c.ResyncAll(context.Background())
	if st.Len() != 2 {
		t.Fatalf("resync upserted %d conversations, want 2", st.Len())
	}
	for _, id := range []string{"g1@g.us", "g2@g.us"} {
		conv, ok := st.Get(id)
		if !ok || !conv.IsConversation || conv.Subject == "" {
			t.Fatalf("resync record incomplete: %+v", conv)
		}
	}
}

func TestResyncAllFailureLeavesStore(t *testing.T) {
	st := store.New(store.Options{})
	p := &fakeProvider{err: errors.New("down")}
	c := New(st, p, Options{})
	c.ResyncAll(context.Background())
	if st.Len() != 0 {
		t.Fatalf("failed resync mutated store")
	}
}

func TestHTTPSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/groups":
			_, _ = w.Write([]byte(`{"g1@g.us": {"subject": "Team"}}`))
		case "/groups/g1@g.us":
			_, _ = w.Write([]byte(`{"subject": "Team"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	s := NewHTTPSession("999:2@s.whatsapp.net", srv.URL)
	if s.OwnIdentity() != "999@s.whatsapp.net" {
		t.Fatalf("own identity not canonicalized: %q", s.OwnIdentity())
	}
	md, err := s.GroupMetadata(context.Background(), "g1@g.us")
	if err != nil || md.Subject != "Team" || md.ID != "g1@g.us" {
		t.Fatalf("GroupMetadata = %+v, %v", md, err)
	}
	groups, err := s.ListParticipatingGroups(context.Background())
	if err != nil || len(groups) != 1 || groups["g1@g.us"].Subject != "Team" {
		t.Fatalf("ListParticipatingGroups = %+v, %v", groups, err)
	}
	if _, err := s.GroupMetadata(context.Background(), "missing@g.us"); err == nil {
		t.Fatalf("missing group did not error")
	}
}
