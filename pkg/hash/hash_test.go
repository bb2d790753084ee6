package hash

import (
	"testing"
)

func TestSHA256Hex(t *testing.T) {
	// Known SHA256 of "hello"
	want := "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	got := SHA256Hex("hello")
	if got != want {
		t.Errorf("SHA256Hex(\"hello\") = %s, want %s", got, want)
	}
}

func TestSHA256Hex_Empty(t *testing.T) {
	// SHA256 of empty string
	want := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	got := SHA256Hex("")
	if got != want {
		t.Errorf("SHA256Hex(\"\") = %s, want %s", got, want)
	}
}

func TestUserKey(t *testing.T) {
	key := UserKey("alice@example.com")

	// Should be 64 hex chars (SHA256 output)
	if len(key) != 64 {
		t.Errorf("UserKey length = %d, want 64", len(key))
	}

	// Should be deterministic
	if key != UserKey("alice@example.com") {
		t.Error("UserKey should be deterministic")
	}

	// Different identities should produce different keys
	if key == UserKey("bob@example.com") {
		t.Error("different identities should produce different keys")
	}
}

func TestLogID(t *testing.T) {
	id := LogID("alice@example.com")

	if len(id) != 12 {
		t.Errorf("LogID length = %d, want 12", len(id))
	}

	// Must be a prefix of the full key
	if UserKey("alice@example.com")[:12] != id {
		t.Error("LogID should be a prefix of UserKey")
	}
}
