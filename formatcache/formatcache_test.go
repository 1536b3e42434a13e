package formatcache

import (
	"sync"
	"testing"
)

func TestCacheIdempotentAndDistinct(t *testing.T) {
	c := New()
	id1 := c.Cache("hello {}")
	if got := c.GetOrCache("hello {}"); got != id1 {
		t.Fatalf("GetOrCache not idempotent: got %d, want %d", got, id1)
	}
	id2 := c.Cache("world {}")
	if id2 == id1 {
		t.Fatalf("distinct templates got the same id %d", id1)
	}
	if s, ok := c.Get(id1); !ok || s != "hello {}" {
		t.Fatalf("Get(%d) = %q, %v", id1, s, ok)
	}
	if _, ok := c.Get(InvalidID); ok {
		t.Fatal("Get(InvalidID) should never resolve")
	}
}

func TestCacheConcurrentInsertSameTemplate(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	ids := make([]uint32, 64)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i] = c.Cache("shared template")
		}(i)
	}
	wg.Wait()
	for _, id := range ids {
		if id != ids[0] {
			t.Fatalf("concurrent Cache of identical template produced divergent ids: %v", ids)
		}
	}
}
