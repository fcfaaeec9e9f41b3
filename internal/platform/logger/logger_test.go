package logger

import (
	"strings"
	"testing"
)

func TestSanitizeKVs(t *testing.T) {
	l := &Logger{redact: Redaction{Enabled: true, HashSalt: "salt"}}

	out := l.sanitizeKVs([]interface{}{
		"subject_id", "1234567890",
		"password", "hunter2",
		"pain_level", 7,
		"dangling",
	})
	if len(out) != 7 {
		t.Fatalf("unexpected length: got=%d want=7", len(out))
	}
	if s, _ := out[1].(string); !strings.HasPrefix(s, "hash:") || strings.Contains(s, "1234567890") {
		t.Fatalf("subject_id not hashed: %v", out[1])
	}
	if out[3] != "[REDACTED]" {
		t.Fatalf("password not redacted: %v", out[3])
	}
	if out[5] != 7 {
		t.Fatalf("pain_level rewritten: %v", out[5])
	}
	if out[6] != "dangling" {
		t.Fatalf("dangling key dropped: %v", out[6])
	}
}

func TestSanitizeKVsDisabled(t *testing.T) {
	l := &Logger{}
	kv := []interface{}{"password", "hunter2"}
	out := l.sanitizeKVs(kv)
	if out[1] != "hunter2" {
		t.Fatalf("expected passthrough when redaction disabled, got %v", out[1])
	}
}

func TestHashValueStable(t *testing.T) {
	a := hashValue("s", "abc")
	b := hashValue("s", "abc")
	c := hashValue("t", "abc")
	if a != b {
		t.Fatalf("hash not stable: %q vs %q", a, b)
	}
	if a == c {
		t.Fatalf("salt ignored: %q", a)
	}
}

func TestLooksLikeJWT(t *testing.T) {
	if !looksLikeJWT("eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIxMjM0NTY3ODkwIn0.sig") {
		t.Fatalf("expected jwt-shaped string to match")
	}
	if looksLikeJWT("a.b.c") {
		t.Fatalf("short segments should not match")
	}
}
