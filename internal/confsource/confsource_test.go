package confsource

import (
	"os"
	"testing"
)

func TestMapSourceGet(t *testing.T) {
	m := NewMapSource(map[string]string{"store.dsn": "postgres://x"})
	if got := m.Get([]string{"store", "dsn"}, "default"); got != "postgres://x" {
		t.Errorf("got %q, want postgres://x", got)
	}
	if got := m.Get([]string{"store", "missing"}, "default"); got != "default" {
		t.Errorf("got %q, want default", got)
	}
}

func TestEnvSourceGet(t *testing.T) {
	os.Setenv("KEEPUP_STORE_DSN", "postgres://env")
	defer os.Unsetenv("KEEPUP_STORE_DSN")

	e := NewEnvSource("KEEPUP")
	if got := e.Get([]string{"store", "dsn"}, "default"); got != "postgres://env" {
		t.Errorf("got %q, want postgres://env", got)
	}
	if got := e.Get([]string{"store", "other"}, "default"); got != "default" {
		t.Errorf("got %q, want default", got)
	}
}

func TestChainPrefersEarlierSource(t *testing.T) {
	specific := NewMapSource(map[string]string{"a.b": "specific"})
	general := NewMapSource(map[string]string{"a.b": "general", "a.c": "only-general"})
	chain := Chain{specific, general}

	if got := chain.Get([]string{"a", "b"}, "default"); got != "specific" {
		t.Errorf("got %q, want specific", got)
	}
	if got := chain.Get([]string{"a", "c"}, "default"); got != "only-general" {
		t.Errorf("got %q, want only-general", got)
	}
	if got := chain.Get([]string{"a", "d"}, "default"); got != "default" {
		t.Errorf("got %q, want default", got)
	}
}
