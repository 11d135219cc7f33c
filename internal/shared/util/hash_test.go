package util

import "testing"

func TestHashText(t *testing.T) {
	msg := "need something warm"
	got := HashText(msg)
	if got != HashText(msg) {
		t.Fatalf("expected stable hash, got %s", got)
	}
	if got == HashText(msg+"!") {
		t.Fatalf("expected different inputs to hash differently")
	}
	for _, ch := range got {
		if !((ch >= 'a' && ch <= 'f') || (ch >= '0' && ch <= '9')) {
			t.Fatalf("hash contains non-hex character: %c", ch)
		}
	}
	if len(got) != 16 {
		t.Fatalf("expected 16 hex characters, got %d", len(got))
	}
}
