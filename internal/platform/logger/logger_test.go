package logger

import (
	"strings"
	"testing"
)

func TestSanitizeKVs(t *testing.T) {
	redactionOn()
	if !redactionEnabled {
		t.Skip("redaction disabled via LOG_REDACTION_ENABLED")
	}

	out := sanitizeKVs([]interface{}{
		"authorization", "Bearer abc",
		"prompt", "what is the answer to question 3",
		"course_id", "c-1",
		"dangling",
	})
	if len(out) != 7 {
		t.Fatalf("unexpected length: %d", len(out))
	}
	if out[1] != "[REDACTED]" {
		t.Fatalf("authorization not redacted: %v", out[1])
	}
	if s, _ := out[3].(string); !strings.HasPrefix(s, "hash:") {
		t.Fatalf("prompt not hashed: %v", out[3])
	}
	if out[5] != "c-1" {
		t.Fatalf("course_id changed: %v", out[5])
	}
	if out[6] != "dangling" {
		t.Fatalf("dangling key dropped: %v", out[6])
	}
}

func TestHashValueStable(t *testing.T) {
	a := hashValue("same text")
	b := hashValue("same text")
	if a != b || a == "" {
		t.Fatalf("hash not stable: %q vs %q", a, b)
	}
	if hashValue("") != "" {
		t.Fatalf("empty value should hash to empty")
	}
}
