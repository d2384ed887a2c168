// Package jid canonicalizes the opaque identifiers used to address users,
// groups and the broadcast-status party. Identifiers may arrive in a
// device-suffixed form ("user:12@server") that must collapse to the same
// canonical form as the plain "user@server".
package jid

import (
	"regexp"
	"strings"
)

const (
	// Broadcast is the reserved identity of the status-broadcast party.
	Broadcast = "status@broadcast"

	// UserServer is the server suffix of individual user identities.
	UserServer = "s.whatsapp.net"

	// GroupServer is the server suffix of group identities.
	GroupServer = "g.us"
)

var deviceSuffixed = regexp.MustCompile(`^([^:@]+):\d+@(.+)$`)

// Decode canonicalizes an identity: device-suffixed forms collapse to
// "user@server"; anything else is returned trimmed and unchanged.
// Decode is idempotent: Decode(Decode(x)) == Decode(x).
func Decode(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return id
	}
	m := deviceSuffixed.FindStringSubmatch(id)
	if m == nil {
		return id
	}
	user, server := m[1], m[2]
	if user == "" || server == "" {
		return id
	}
	return user + "@" + server
}

// Same reports whether two identities address the same party after
// canonicalization.
func Same(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return Decode(a) == Decode(b)
}

// IsGroup reports whether id addresses a group.
func IsGroup(id string) bool {
	return strings.HasSuffix(id, "@"+GroupServer)
}

// IsBroadcast reports whether id is the reserved broadcast-status party.
func IsBroadcast(id string) bool {
	return id == Broadcast
}

// IsUser reports whether id addresses an individual user.
func IsUser(id string) bool {
	return strings.HasSuffix(id, "@"+UserServer)
}

var mentionPattern = regexp.MustCompile(`@([0-9]{5,16}|0)`)

// ParseMentions extracts "@<number>" tokens from text and returns them as
// user identities. Order follows appearance in the text; duplicates are
// preserved.
func ParseMentions(text string) []string {
	matches := mentionPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1]+"@"+UserServer)
	}
	return out
}
