package envutil

import (
	"testing"
	"time"
)

func TestParsers(t *testing.T) {
	t.Setenv("ENVUTIL_INT", "42")
	t.Setenv("ENVUTIL_BAD_INT", "forty")
	t.Setenv("ENVUTIL_BOOL", "off")
	t.Setenv("ENVUTIL_DUR", "90")
	t.Setenv("ENVUTIL_CSV", " a, ,b ")

	if got := Int("ENVUTIL_INT", 1); got != 42 {
		t.Fatalf("Int: got=%d", got)
	}
	if got := Int("ENVUTIL_BAD_INT", 7); got != 7 {
		t.Fatalf("Int fallback: got=%d", got)
	}
	if got := Bool("ENVUTIL_BOOL", true); got {
		t.Fatalf("Bool: got=%v", got)
	}
	if got := Bool("ENVUTIL_MISSING", true); !got {
		t.Fatalf("Bool default: got=%v", got)
	}
	if got := Duration("ENVUTIL_DUR", time.Second); got != 90*time.Second {
		t.Fatalf("Duration seconds: got=%v", got)
	}
	if got := CSV("ENVUTIL_CSV", nil); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("CSV: got=%v", got)
	}
	if got := String("ENVUTIL_MISSING", "x"); got != "x" {
		t.Fatalf("String default: got=%q", got)
	}
}
