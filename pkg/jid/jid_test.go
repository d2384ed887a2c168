package jid

import (
	"reflect"
	"testing"
)

func TestDecode(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"111@s.whatsapp.net", "111@s.whatsapp.net"},
		{"111:12@s.whatsapp.net", "111@s.whatsapp.net"},
		{"111:3@s.whatsapp.net", "111@s.whatsapp.net"},
		{"g1@g.us", "g1@g.us"},
		{"status@broadcast", "status@broadcast"},
		{"  111@s.whatsapp.net ", "111@s.whatsapp.net"},
		{"", ""},
		{"plain", "plain"},
	}
	for _, c := range cases {
		if got := Decode(c.in); got != c.want {
			t.Fatalf("Decode(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestDecodeIdempotent(t *testing.T) {
	ids := []string{"111:12@s.whatsapp.net", "abc@g.us", "status@broadcast", "weird:stuff"}
	for _, id := range ids {
		once := Decode(id)
		if twice := Decode(once); twice != once {
			t.Fatalf("Decode not idempotent for %q: %q != %q", id, twice, once)
		}
	}
}

func TestSame(t *testing.T) {
	if !Same("111:5@s.whatsapp.net", "111@s.whatsapp.net") {
		t.Fatalf("device-suffixed form should match plain form")
	}
	if Same("111@s.whatsapp.net", "222@s.whatsapp.net") {
		t.Fatalf("distinct users reported same")
	}
	if Same("", "111@s.whatsapp.net") {
		t.Fatalf("empty identity must never match")
	}
}

func TestKinds(t *testing.T) {
	if !IsGroup("g1@g.us") || IsGroup("111@s.whatsapp.net") {
		t.Fatalf("IsGroup misclassified")
	}
	if !IsUser("111@s.whatsapp.net") || IsUser("g1@g.us") {
		t.Fatalf("IsUser misclassified")
	}
	if !IsBroadcast("status@broadcast") || IsBroadcast("g1@g.us") {
		t.Fatalf("IsBroadcast misclassified")
	}
}

func TestParseMentions(t *testing.T) {
	got := ParseMentions("hey @12345 and @999999999 but not @12")
	want := []string{"12345@s.whatsapp.net", "999999999@s.whatsapp.net"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ParseMentions = %v, want %v", got, want)
	}
	if got := ParseMentions("no mentions here"); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}
