package groupmeta

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"chatstore/pkg/jid"
	"chatstore/pkg/models"
)

// HTTPSession implements Session over the transport sidecar's HTTP
// metadata endpoints:
//
//	GET {base}/groups        -> {"<gid>": {...}, ...}
//	GET {base}/groups/{gid}  -> {...}
type HTTPSession struct {
	own    string
	base   string
	client *http.Client
}

// NewHTTPSession builds a session client for the provider at base.
func NewHTTPSession(own, base string) *HTTPSession {
	return &HTTPSession{
		own:    jid.Decode(own),
		base:   strings.TrimRight(base, "/"),
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *HTTPSession) OwnIdentity() string { return s.own }

func (s *HTTPSession) GroupMetadata(ctx context.Context, id string) (models.GroupMetadata, error) {
	var md models.GroupMetadata
	if err := s.getJSON(ctx, s.base+"/groups/"+url.PathEscape(id), &md); err != nil {
		return models.GroupMetadata{}, err
	}
	if md.ID == "" {
		md.ID = jid.Decode(id)
	}
	return md, nil
}

func (s *HTTPSession) ListParticipatingGroups(ctx context.Context) (map[string]models.GroupMetadata, error) {
	raw := map[string]models.GroupMetadata{}
	if err := s.getJSON(ctx, s.base+"/groups", &raw); err != nil {
		return nil, err
	}
	out := make(map[string]models.GroupMetadata, len(raw))
	for id, md := range raw {
		cid := jid.Decode(id)
		if md.ID == "" {
			md.ID = cid
		}
		out[cid] = md
	}
	return out, nil
}

func (s *HTTPSession) getJSON(ctx context.Context, u string, into any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("provider returned %d for %s", resp.StatusCode, u)
	}
	return json.NewDecoder(resp.Body).Decode(into)
}
