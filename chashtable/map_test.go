package chashtable

import (
	"sync"
	"testing"

	"chashtable/core"
)

func TestMapSetGetDelete(t *testing.T) {
	m := NewMap[string, int](nil)

	if _, ok := m.Get("missing"); ok {
		t.Fatalf("expected missing key to be absent")
	}

	m.Set("a", 1)
	v, ok := m.Get("a")
	if !ok || v != 1 {
		t.Fatalf("expected a=1, got %v ok=%v", v, ok)
	}

	m.Set("a", 2) // Set overwrites
	v, ok = m.Get("a")
	if !ok || v != 2 {
		t.Fatalf("expected Set to overwrite to a=2, got %v", v)
	}

	if !m.SetIfAbsent("b", 3) {
		t.Fatalf("SetIfAbsent should insert a fresh key")
	}
	if m.SetIfAbsent("b", 4) {
		t.Fatalf("SetIfAbsent should not overwrite an existing key")
	}
	v, _ = m.Get("b")
	if v != 3 {
		t.Fatalf("expected b to remain 3 after failed SetIfAbsent, got %d", v)
	}

	if !m.Delete("a") {
		t.Fatalf("expected delete of present key to succeed")
	}
	if m.Delete("a") {
		t.Fatalf("expected delete of already-removed key to fail")
	}
	if m.Len() != 1 {
		t.Fatalf("expected 1 entry remaining, got %d", m.Len())
	}
}

func TestMapRange(t *testing.T) {
	m := NewMap[int, int](nil)
	for i := 0; i < 20; i++ {
		m.Set(i, i*i)
	}
	seen := make(map[int]int)
	m.Range(func(k int, v *int) { seen[k] = *v })
	if len(seen) != 20 {
		t.Fatalf("expected 20 entries visited, got %d", len(seen))
	}
	for k, v := range seen {
		if v != k*k {
			t.Fatalf("entry %d has wrong value %d", k, v)
		}
	}
}

func TestMapMerge(t *testing.T) {
	a := NewMap[int, string](nil)
	b := NewMap[int, string](nil)
	a.Set(1, "a1")
	b.Set(2, "b2")

	a.Merge(b)

	if a.Len() != 2 {
		t.Fatalf("expected 2 entries after merge, got %d", a.Len())
	}
	if b.Len() != 0 {
		t.Fatalf("expected source map drained after merge, got %d", b.Len())
	}
}

func TestMapConcurrentUse(t *testing.T) {
	m := NewMap[int, int](&core.Options{InitialGroups: 1, MaxLoadFactor: 0.875, StripeCount: 16})
	var wg sync.WaitGroup
	const n = 1000
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(k int) {
			defer wg.Done()
			m.Set(k, k)
		}(i)
	}
	wg.Wait()
	if m.Len() != n {
		t.Fatalf("expected %d entries, got %d", n, m.Len())
	}
}
