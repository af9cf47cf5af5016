package storage

import (
	"sync"
	"testing"

	"github.com/sablehttp/sable/session"
)

func TestMemorySessionStoreSaveAndGet(t *testing.T) {
	store := NewMemorySessionStore()
	sess := session.NewDefaultSession("sid-1", MemorySessionStoreName, map[string]any{"user": "ada"})

	if err := store.Save(sess); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if !store.Has("sid-1") {
		t.Fatalf("expected store to have sid-1")
	}
	attrs, err := store.Get("sid-1")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if attrs["user"] != "ada" {
		t.Fatalf("expected user=ada, got %v", attrs)
	}
}

func TestMemorySessionStoreGetMissingReturnsError(t *testing.T) {
	store := NewMemorySessionStore()
	if _, err := store.Get("missing"); err != ErrSessionNotFound {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestMemorySessionStoreDelete(t *testing.T) {
	store := NewMemorySessionStore()
	sess := session.NewDefaultSession("sid-2", MemorySessionStoreName, map[string]any{})
	store.Save(sess)
	store.Delete("sid-2")
	if store.Has("sid-2") {
		t.Fatalf("expected sid-2 to be removed")
	}
}

func TestMemorySessionStoreConcurrentAccess(t *testing.T) {
	store := NewMemorySessionStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			sess := session.NewDefaultSession("sid", MemorySessionStoreName, map[string]any{"n": n})
			store.Save(sess)
			store.Has("sid")
			store.Get("sid")
		}(i)
	}
	wg.Wait()
}
